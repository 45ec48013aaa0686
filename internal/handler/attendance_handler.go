package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniops/academic-records-api/internal/service"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
	"github.com/uniops/academic-records-api/pkg/response"
)

// AttendanceHandler exposes session and attendance rate endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// CreateSession godoc
// @Summary Register a held session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /attendance/sessions [post]
func (h *AttendanceHandler) CreateSession(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.attendance.CreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Mark godoc
// @Summary Mark a student's attendance for a session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/records [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	stat, err := h.attendance.MarkAttendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stat, nil)
}

// Rate godoc
// @Summary Get an attendance rate
// @Tags Attendance
// @Produce json
// @Param studentId query string true "Student"
// @Param unitId query string true "Unit"
// @Param semesterId query string true "Semester"
// @Param asOf query string false "Point-in-time view (RFC 3339 or date)"
// @Success 200 {object} response.Envelope
// @Router /attendance/rates [get]
func (h *AttendanceHandler) Rate(c *gin.Context) {
	studentID, err := requiredQuery(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	unitID, err := requiredQuery(c, "unitId")
	if err != nil {
		response.Error(c, err)
		return
	}
	semesterID, err := requiredQuery(c, "semesterId")
	if err != nil {
		response.Error(c, err)
		return
	}
	asOf, err := asOfFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stat, err := h.attendance.GetRate(c.Request.Context(), studentID, unitID, semesterID, asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stat, nil)
}

// Low godoc
// @Summary List students under the attendance threshold
// @Tags Attendance
// @Produce json
// @Param unitId query string true "Unit"
// @Param semesterId query string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /attendance/low [get]
func (h *AttendanceHandler) Low(c *gin.Context) {
	unitID, err := requiredQuery(c, "unitId")
	if err != nil {
		response.Error(c, err)
		return
	}
	semesterID, err := requiredQuery(c, "semesterId")
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.attendance.LowAttendance(c.Request.Context(), unitID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
