package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-billing-api/internal/service"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
	"github.com/noah-isme/academy-billing-api/pkg/response"
)

// CatalogHandler exposes the academic catalog endpoints: areas, careers,
// cycles and admission campaigns.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func bindError(c *gin.Context, err error) {
	response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
}

// ListAreas godoc
// @Summary List areas
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /areas [get]
func (h *CatalogHandler) ListAreas(c *gin.Context) {
	areas, err := h.catalog.ListAreas(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, areas, nil)
}

// GetArea godoc
// @Summary Get area detail
// @Tags Catalog
// @Produce json
// @Param id path string true "Area ID"
// @Success 200 {object} response.Envelope
// @Router /areas/{id} [get]
func (h *CatalogHandler) GetArea(c *gin.Context) {
	area, err := h.catalog.FindArea(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, area, nil)
}

// CreateArea godoc
// @Summary Create area
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.NamedRequest true "Area payload"
// @Success 201 {object} response.Envelope
// @Router /areas [post]
func (h *CatalogHandler) CreateArea(c *gin.Context) {
	var req service.NamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	area, err := h.catalog.CreateArea(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, area)
}

// UpdateArea godoc
// @Summary Update area
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Area ID"
// @Param payload body service.NamedRequest true "Area payload"
// @Success 200 {object} response.Envelope
// @Router /areas/{id} [put]
func (h *CatalogHandler) UpdateArea(c *gin.Context) {
	var req service.NamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	area, err := h.catalog.UpdateArea(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, area, nil)
}

// DeleteArea godoc
// @Summary Remove area
// @Tags Catalog
// @Param id path string true "Area ID"
// @Success 204
// @Router /areas/{id} [delete]
func (h *CatalogHandler) DeleteArea(c *gin.Context) {
	if err := h.catalog.RemoveArea(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCareers godoc
// @Summary List careers
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /careers [get]
func (h *CatalogHandler) ListCareers(c *gin.Context) {
	careers, err := h.catalog.ListCareers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, careers, nil)
}

// GetCareer godoc
// @Summary Get career detail
// @Tags Catalog
// @Produce json
// @Param id path string true "Career ID"
// @Success 200 {object} response.Envelope
// @Router /careers/{id} [get]
func (h *CatalogHandler) GetCareer(c *gin.Context) {
	career, err := h.catalog.FindCareer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, career, nil)
}

// CreateCareer godoc
// @Summary Create career
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CareerRequest true "Career payload"
// @Success 201 {object} response.Envelope
// @Router /careers [post]
func (h *CatalogHandler) CreateCareer(c *gin.Context) {
	var req service.CareerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	career, err := h.catalog.CreateCareer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, career)
}

// UpdateCareer godoc
// @Summary Update career
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Career ID"
// @Param payload body service.CareerRequest true "Career payload"
// @Success 200 {object} response.Envelope
// @Router /careers/{id} [put]
func (h *CatalogHandler) UpdateCareer(c *gin.Context) {
	var req service.CareerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	career, err := h.catalog.UpdateCareer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, career, nil)
}

// DeleteCareer godoc
// @Summary Remove career
// @Tags Catalog
// @Param id path string true "Career ID"
// @Success 204
// @Router /careers/{id} [delete]
func (h *CatalogHandler) DeleteCareer(c *gin.Context) {
	if err := h.catalog.RemoveCareer(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCycles godoc
// @Summary List cycles
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cycles [get]
func (h *CatalogHandler) ListCycles(c *gin.Context) {
	cycles, err := h.catalog.ListCycles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycles, nil)
}

// GetCycle godoc
// @Summary Get cycle detail
// @Tags Catalog
// @Produce json
// @Param id path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /cycles/{id} [get]
func (h *CatalogHandler) GetCycle(c *gin.Context) {
	cycle, err := h.catalog.FindCycle(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// CreateCycle godoc
// @Summary Create cycle
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CycleRequest true "Cycle payload"
// @Success 201 {object} response.Envelope
// @Router /cycles [post]
func (h *CatalogHandler) CreateCycle(c *gin.Context) {
	var req service.CycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cycle, err := h.catalog.CreateCycle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cycle)
}

// UpdateCycle godoc
// @Summary Update cycle
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Cycle ID"
// @Param payload body service.CycleRequest true "Cycle payload"
// @Success 200 {object} response.Envelope
// @Router /cycles/{id} [put]
func (h *CatalogHandler) UpdateCycle(c *gin.Context) {
	var req service.CycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cycle, err := h.catalog.UpdateCycle(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// DeleteCycle godoc
// @Summary Remove cycle
// @Tags Catalog
// @Param id path string true "Cycle ID"
// @Success 204
// @Router /cycles/{id} [delete]
func (h *CatalogHandler) DeleteCycle(c *gin.Context) {
	if err := h.catalog.RemoveCycle(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAdmissions godoc
// @Summary List admissions
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admissions [get]
func (h *CatalogHandler) ListAdmissions(c *gin.Context) {
	admissions, err := h.catalog.ListAdmissions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admissions, nil)
}

// GetAdmission godoc
// @Summary Get admission detail
// @Tags Catalog
// @Produce json
// @Param id path string true "Admission ID"
// @Success 200 {object} response.Envelope
// @Router /admissions/{id} [get]
func (h *CatalogHandler) GetAdmission(c *gin.Context) {
	admission, err := h.catalog.FindAdmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admission, nil)
}

// CreateAdmission godoc
// @Summary Create admission
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.NamedRequest true "Admission payload"
// @Success 201 {object} response.Envelope
// @Router /admissions [post]
func (h *CatalogHandler) CreateAdmission(c *gin.Context) {
	var req service.NamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	admission, err := h.catalog.CreateAdmission(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admission)
}

// UpdateAdmission godoc
// @Summary Update admission
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Admission ID"
// @Param payload body service.NamedRequest true "Admission payload"
// @Success 200 {object} response.Envelope
// @Router /admissions/{id} [put]
func (h *CatalogHandler) UpdateAdmission(c *gin.Context) {
	var req service.NamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	admission, err := h.catalog.UpdateAdmission(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admission, nil)
}

// DeleteAdmission godoc
// @Summary Remove admission
// @Tags Catalog
// @Param id path string true "Admission ID"
// @Success 204
// @Router /admissions/{id} [delete]
func (h *CatalogHandler) DeleteAdmission(c *gin.Context) {
	if err := h.catalog.RemoveAdmission(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
