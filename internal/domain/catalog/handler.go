package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiobook/internal/domain/audit"
	"studiobook/internal/middleware"
	"studiobook/internal/pkg/response"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// ListServices godoc
// @Summary List active services with their active packages
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /services [get]
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.catalog.ListServices(c.Request.Context())
	if err != nil {
		h.internal(c, err, "Gagal memuat layanan")
		return
	}
	response.Success(c, http.StatusOK, services)
}

// GetService godoc
// @Summary Get one active service by slug
// @Tags catalog
// @Param slug path string true "service slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /services/{slug} [get]
func (h *Handler) GetService(c *gin.Context) {
	s, err := h.catalog.GetService(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, s)
}

// CreateService godoc
// @Summary Create a service
// @Tags admin
// @Security BearerAuth
// @Router /admin/services [post]
func (h *Handler) CreateService(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "Data tidak valid")
		return
	}
	s, err := h.catalog.CreateService(c.Request.Context(), middleware.ActorFrom(c), req, audit.MetaFromGin(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, s)
}

// CreatePackage godoc
// @Summary Create a package under a service
// @Tags admin
// @Security BearerAuth
// @Param slug path string true "service slug"
// @Router /admin/services/{slug}/packages [post]
func (h *Handler) CreatePackage(c *gin.Context) {
	var req CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "Data tidak valid")
		return
	}
	p, err := h.catalog.CreatePackage(c.Request.Context(), middleware.ActorFrom(c), c.Param("slug"), req, audit.MetaFromGin(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

// UpdatePackage godoc
// @Summary Partially update a package. Existing bookings keep their snapshot.
// @Tags admin
// @Security BearerAuth
// @Param id path string true "package id"
// @Router /admin/packages/{id} [patch]
func (h *Handler) UpdatePackage(c *gin.Context) {
	var req UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "Data tidak valid")
		return
	}
	p, err := h.catalog.UpdatePackage(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req, audit.MetaFromGin(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrServiceNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Layanan tidak ditemukan")
	case errors.Is(err, ErrPackageNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Paket tidak ditemukan")
	case errors.Is(err, ErrSlugTaken):
		response.Error(c, http.StatusConflict, response.CodeConflict, "Slug sudah digunakan")
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	default:
		h.internal(c, err, "Terjadi kesalahan server")
	}
}

func (h *Handler) internal(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	response.Error(c, http.StatusInternalServerError, response.CodeInternal, msg)
}
