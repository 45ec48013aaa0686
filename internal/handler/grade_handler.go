package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniops/academic-records-api/internal/service"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
	"github.com/uniops/academic-records-api/pkg/response"
)

// GradeHandler exposes assessment and composite score endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Record godoc
// @Summary Record an assessment result
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.RecordAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /assessments [post]
func (h *GradeHandler) Record(c *gin.Context) {
	var req service.RecordAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grades.RecordAssessment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Composite godoc
// @Summary Get a composite score
// @Tags Grades
// @Produce json
// @Param studentId query string true "Student"
// @Param unitId query string true "Unit"
// @Param semesterId query string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /composites [get]
func (h *GradeHandler) Composite(c *gin.Context) {
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
	score, err := h.grades.GetComposite(c.Request.Context(), studentID, unitID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// GPA godoc
// @Summary Get a student's GPA
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student"
// @Param semesterId query string false "Limit to one semester"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/gpa [get]
func (h *GradeHandler) GPA(c *gin.Context) {
	studentID := c.Param("studentId")
	semesterID := c.Query("semesterId")
	var err error
	var summary interface{}
	if semesterID != "" {
		summary, err = h.grades.SemesterGPA(c.Request.Context(), studentID, semesterID)
	} else {
		summary, err = h.grades.CumulativeGPA(c.Request.Context(), studentID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Transcript godoc
// @Summary Get a student's transcript
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/transcript [get]
func (h *GradeHandler) Transcript(c *gin.Context) {
	summary, err := h.grades.Transcript(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Reapply godoc
// @Summary Recompute composites for every student in a unit
// @Tags Grades
// @Produce json
// @Param unitId path string true "Unit"
// @Param semesterId path string true "Semester"
// @Success 202 {object} response.Envelope
// @Router /units/{unitId}/semesters/{semesterId}/recompute [post]
func (h *GradeHandler) Reapply(c *gin.Context) {
	queued, err := h.grades.ReapplyGradeScale(c.Request.Context(), c.Param("unitId"), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"queued": queued}, nil)
}
