package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiobook/internal/domain/audit"
	"studiobook/internal/middleware"
	"studiobook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Login godoc
// @Summary Admin login
// @Description Authenticate as admin and get a JWT
// @Tags admin
// @Accept json
// @Produce json
// @Param request body LoginRequest true "credentials"
// @Success 200 {object} LoginResponse
// @Failure 400,401,429 {object} map[string]interface{}
// @Router /admin/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "Email dan password diperlukan")
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req, audit.MetaFromGin(c))
	if err != nil {
		var rerr *RateLimitError
		switch {
		case errors.As(err, &rerr):
			response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, "Terlalu banyak percobaan login. Coba lagi dalam "+rerr.RetryAfter)
		case errors.Is(err, ErrMissingCredentials):
			response.Error(c, http.StatusBadRequest, response.CodeValidation, "Email dan password diperlukan")
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "AUTH_FAILED", "Email atau password salah")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Terjadi kesalahan server")
		}
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Me godoc
// @Summary Current admin
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Admin
// @Failure 401 {object} map[string]interface{}
// @Router /admin/me [get]
func (h *Handler) Me(c *gin.Context) {
	admin, err := h.service.Me(c.Request.Context(), middleware.AdminID(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Admin tidak ditemukan")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Terjadi kesalahan server")
		return
	}
	response.Success(c, http.StatusOK, admin)
}
