package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-billing-api/internal/service"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
	"github.com/noah-isme/academy-billing-api/pkg/response"
)

// PaymentHandler exposes payment collection endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Create godoc
// @Summary Collect a payment
// @Description Applies the amount against the receivable's pending balance under a row lock.
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CreatePaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Delete godoc
// @Summary Void a payment
// @Description Marks the payment VOID without restoring the receivable's balance.
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	payment, err := h.payments.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// List godoc
// @Summary List payments
// @Description Projects payments by student or by receivable. Exactly one filter is required.
// @Tags Payments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param accountId query string false "Filter by account receivable"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	studentID := c.Query("studentId")
	accountID := c.Query("accountId")

	var (
		payments interface{}
		err      error
	)
	switch {
	case studentID != "" && accountID == "":
		payments, err = h.payments.FindByStudent(c.Request.Context(), studentID)
	case accountID != "" && studentID == "":
		payments, err = h.payments.FindByAccount(c.Request.Context(), accountID)
	default:
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest,
			"exactly one of studentId or accountId is required"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// ListByAccount godoc
// @Summary List payments of a receivable
// @Tags Payments
// @Produce json
// @Param id path string true "Account receivable ID"
// @Success 200 {object} response.Envelope
// @Router /account-receivables/{id}/payments [get]
func (h *PaymentHandler) ListByAccount(c *gin.Context) {
	payments, err := h.payments.FindByAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// ListByStudent godoc
// @Summary List payments of a student
// @Tags Payments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/payments [get]
func (h *PaymentHandler) ListByStudent(c *gin.Context) {
	payments, err := h.payments.FindByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}
