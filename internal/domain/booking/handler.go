package booking

import (
	"errors"
	"net/http"
	"strconv"

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

// Create godoc
// @Summary Create a booking and generate its DP invoice
// @Tags bookings
// @Accept json
// @Produce json
// @Param body body CreateRequest true "booking form"
// @Success 200 {object} CreateResponse
// @Failure 400 {object} map[string]interface{} "validation failed, past date or date unavailable"
// @Failure 404 {object} map[string]interface{} "package not found"
// @Failure 429 {object} map[string]interface{} "too many bookings from this client"
// @Router /bookings [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "Data booking tidak valid")
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req, audit.MetaFromGin(c))
	if err != nil {
		Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Track godoc
// @Summary Booking status, payment instructions and latest proofs for an access token
// @Tags bookings
// @Param token path string true "access token"
// @Success 200 {object} TrackResponse
// @Failure 404 {object} map[string]interface{}
// @Router /bookings/track/{token} [get]
func (h *Handler) Track(c *gin.Context) {
	resp, err := h.service.Track(c.Request.Context(), c.Param("token"))
	if err != nil {
		Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// List godoc
// @Summary List bookings
// @Tags admin
// @Security BearerAuth
// @Param status query string false "booking status"
// @Param from query string false "event date from, YYYY-MM-DD"
// @Param to query string false "event date to, YYYY-MM-DD"
// @Param q query string false "client name, email or booking code"
// @Param limit query int false "page size (default 20, max 100)"
// @Param offset query int false "offset"
// @Router /admin/bookings [get]
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	resp, err := h.service.List(c.Request.Context(), ListFilter{
		Status: Status(c.Query("status")),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Get godoc
// @Summary Booking detail with full proof history
// @Tags admin
// @Security BearerAuth
// @Param id path string true "booking id"
// @Router /admin/bookings/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Cancel godoc
// @Summary Cancel a booking that is not yet approved
// @Tags admin
// @Security BearerAuth
// @Param id path string true "booking id"
// @Param body body CancelRequest false "reason"
// @Router /admin/bookings/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "Data tidak valid")
			return
		}
	}

	b, err := h.service.Cancel(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.Reason, audit.MetaFromGin(c))
	if err != nil {
		Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": b.ID, "status": b.Status, "cancelledAt": b.CancelledAt})
}

// Fail maps booking errors to HTTP responses.
func Fail(c *gin.Context, err error) {
	var (
		verr *ValidationError
		rerr *RateLimitError
	)
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Data booking tidak valid", verr.Fields)
	case errors.As(err, &rerr):
		response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, "Terlalu banyak permintaan. Coba lagi dalam "+rerr.RetryAfter)
	case errors.Is(err, ErrPastDate):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Tanggal harus di masa depan")
	case errors.Is(err, ErrDateUnavailable):
		response.Error(c, http.StatusBadRequest, response.CodeSlotNotAvail, "Tanggal yang dipilih tidak tersedia")
	case errors.Is(err, ErrPackageNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Paket tidak ditemukan")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Booking tidak ditemukan")
	case errors.Is(err, ErrProofNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Bukti pembayaran tidak ditemukan")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidStatus, "Aksi tidak diizinkan untuk status booking ini")
	case errors.Is(err, ErrConcurrentUpdate):
		response.Error(c, http.StatusConflict, response.CodeConflict, "Status booking berubah, silakan muat ulang")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Terjadi kesalahan server")
	}
}
