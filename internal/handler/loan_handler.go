package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uniops/academic-records-api/internal/service"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
	"github.com/uniops/academic-records-api/pkg/response"
)

// LoanHandler exposes library loan and fine endpoints.
type LoanHandler struct {
	loans *service.LoanService
}

// NewLoanHandler constructs handler.
func NewLoanHandler(loans *service.LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

type returnLoanRequest struct {
	ReturnedAt time.Time `json:"returned_at"`
}

// Create godoc
// @Summary Register a book loan
// @Tags Library
// @Accept json
// @Produce json
// @Param payload body service.CreateLoanRequest true "Loan payload"
// @Success 201 {object} response.Envelope
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var req service.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	loan, err := h.loans.CreateLoan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, loan)
}

// Return godoc
// @Summary Return a book and freeze its fine
// @Tags Library
// @Accept json
// @Produce json
// @Param id path string true "Loan"
// @Param payload body returnLoanRequest false "Return date, defaults to now"
// @Success 200 {object} response.Envelope
// @Router /loans/{id}/return [post]
func (h *LoanHandler) Return(c *gin.Context) {
	var req returnLoanRequest
	_ = c.ShouldBindJSON(&req)
	fine, err := h.loans.ReturnLoan(c.Request.Context(), c.Param("id"), req.ReturnedAt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fine, nil)
}

// Fine godoc
// @Summary Get the fine for a loan
// @Tags Library
// @Produce json
// @Param id path string true "Loan"
// @Param asOf query string false "Projection time (RFC 3339 or date)"
// @Success 200 {object} response.Envelope
// @Router /loans/{id}/fine [get]
func (h *LoanHandler) Fine(c *gin.Context) {
	asOf, err := asOfFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	at := time.Time{}
	if asOf != nil {
		at = *asOf
	}
	fine, err := h.loans.FineProjection(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fine, nil)
}

// Overdue godoc
// @Summary List overdue loans with projected fines
// @Tags Library
// @Produce json
// @Param asOf query string false "Projection time (RFC 3339 or date)"
// @Success 200 {object} response.Envelope
// @Router /overdue-loans [get]
func (h *LoanHandler) Overdue(c *gin.Context) {
	asOf, err := asOfFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	at := time.Time{}
	if asOf != nil {
		at = *asOf
	}
	overdue, err := h.loans.OverdueLoans(c.Request.Context(), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overdue, nil)
}

// StudentFines godoc
// @Summary Project fines over a student's open loans
// @Tags Library
// @Produce json
// @Param studentId path string true "Student"
// @Param asOf query string false "Projection time (RFC 3339 or date)"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/fines [get]
func (h *LoanHandler) StudentFines(c *gin.Context) {
	asOf, err := asOfFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	at := time.Time{}
	if asOf != nil {
		at = *asOf
	}
	fines, err := h.loans.StudentFines(c.Request.Context(), c.Param("studentId"), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fines, nil)
}
