package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-billing-api/internal/middleware"
	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/internal/service"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
	"github.com/noah-isme/academy-billing-api/pkg/response"
)

// ReceivableHandler exposes account receivable endpoints.
type ReceivableHandler struct {
	receivables *service.ReceivableService
}

// NewReceivableHandler constructs ReceivableHandler.
func NewReceivableHandler(receivables *service.ReceivableService) *ReceivableHandler {
	return &ReceivableHandler{receivables: receivables}
}

// Create godoc
// @Summary Register a receivable
// @Description Registers a standalone obligation outside the enrollment workflow.
// @Tags Receivables
// @Accept json
// @Produce json
// @Param payload body service.CreateReceivableRequest true "Receivable payload"
// @Success 201 {object} response.Envelope
// @Router /account-receivables [post]
func (h *ReceivableHandler) Create(c *gin.Context) {
	var req service.CreateReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rec, err := h.receivables.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rec)
}

// List godoc
// @Summary List receivables
// @Description Returns receivables still carrying a pending balance unless includeSettled=true.
// @Tags Receivables
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param includeSettled query bool false "Include settled and voided records"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /account-receivables [get]
func (h *ReceivableHandler) List(c *gin.Context) {
	var filter models.ReceivableFilter
	filter.StudentID = c.Query("studentId")
	filter.Status = models.PaymentStatus(c.Query("status"))
	filter.IncludeSettled = c.Query("includeSettled") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	recs, pagination, err := h.receivables.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, recs, pagination)
}

// Get godoc
// @Summary Get receivable detail
// @Tags Receivables
// @Produce json
// @Param id path string true "Receivable ID"
// @Success 200 {object} response.Envelope
// @Router /account-receivables/{id} [get]
func (h *ReceivableHandler) Get(c *gin.Context) {
	rec, err := h.receivables.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// Update godoc
// @Summary Correct a receivable
// @Tags Receivables
// @Accept json
// @Produce json
// @Param id path string true "Receivable ID"
// @Param payload body models.ReceivablePatch true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /account-receivables/{id} [patch]
func (h *ReceivableHandler) Update(c *gin.Context) {
	var patch models.ReceivablePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rec, err := h.receivables.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// Delete godoc
// @Summary Void a receivable
// @Tags Receivables
// @Produce json
// @Param id path string true "Receivable ID"
// @Success 200 {object} response.Envelope
// @Router /account-receivables/{id} [delete]
func (h *ReceivableHandler) Delete(c *gin.Context) {
	rec, err := h.receivables.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// ListByStudent godoc
// @Summary List receivables of a student
// @Description Served through the Redis cache when enabled; the meta block reports cache hits.
// @Tags Receivables
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/receivables [get]
func (h *ReceivableHandler) ListByStudent(c *gin.Context) {
	recs, cached, err := h.receivables.FindByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, recs, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export a student's account statement
// @Tags Receivables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string true "csv or pdf"
// @Success 200 {file} byte
// @Router /students/{id}/receivables/export [get]
func (h *ReceivableHandler) Export(c *gin.Context) {
	format := service.StatementFormat(c.DefaultQuery("format", "csv"))
	statement, err := h.receivables.Statement(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", statement.Filename))
	c.Data(http.StatusOK, statement.ContentType, statement.Content)
}
