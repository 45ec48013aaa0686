package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniops/academic-records-api/internal/service"
	appErrors "github.com/uniops/academic-records-api/pkg/errors"
	"github.com/uniops/academic-records-api/pkg/response"
)

// FinanceHandler exposes payment and balance endpoints.
type FinanceHandler struct {
	finance *service.FinanceService
}

// NewFinanceHandler constructs handler.
func NewFinanceHandler(finance *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{finance: finance}
}

type verifyPaymentRequest struct {
	VerifiedBy string `json:"verified_by"`
}

// Record godoc
// @Summary Record a fee payment
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body service.RecordPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *FinanceHandler) Record(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.finance.RecordPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Verify godoc
// @Summary Verify a payment
// @Tags Finance
// @Accept json
// @Produce json
// @Param id path string true "Payment"
// @Param payload body verifyPaymentRequest false "Verifier"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/verify [post]
func (h *FinanceHandler) Verify(c *gin.Context) {
	var req verifyPaymentRequest
	_ = c.ShouldBindJSON(&req)
	payment, err := h.finance.VerifyPayment(c.Request.Context(), c.Param("id"), req.VerifiedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// List godoc
// @Summary List a student's payments
// @Tags Finance
// @Produce json
// @Param studentId query string true "Student"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *FinanceHandler) List(c *gin.Context) {
	studentID, err := requiredQuery(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	payments, err := h.finance.ListPayments(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Balance godoc
// @Summary Get a student's balance for a semester
// @Tags Finance
// @Produce json
// @Param studentId query string true "Student"
// @Param semesterId query string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /balances [get]
func (h *FinanceHandler) Balance(c *gin.Context) {
	studentID, err := requiredQuery(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	semesterID, err := requiredQuery(c, "semesterId")
	if err != nil {
		response.Error(c, err)
		return
	}
	balance, err := h.finance.GetBalance(c.Request.Context(), studentID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}
