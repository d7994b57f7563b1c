package calendar

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiobook/internal/domain/audit"
	"studiobook/internal/middleware"
	"studiobook/internal/pkg/response"
)

type Handler struct {
	calendar *Calendar
	hub      *Hub
}

func NewHandler(calendar *Calendar, hub *Hub) *Handler {
	return &Handler{calendar: calendar, hub: hub}
}

type blockRequest struct {
	Reason string `json:"reason"`
}

// GetCalendar godoc
// @Summary Slot availability for a month, or for three months from now
// @Tags calendar
// @Param month query string false "YYYY-MM"
// @Success 200 {object} View
// @Failure 400 {object} map[string]interface{}
// @Router /calendar [get]
func (h *Handler) GetCalendar(c *gin.Context) {
	view, err := h.calendar.View(c.Request.Context(), c.Query("month"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Live godoc
// @Summary Websocket feed of slot changes
// @Tags calendar
// @Router /calendar/ws [get]
func (h *Handler) Live(c *gin.Context) {
	h.hub.ServeHTTP(c.Writer, c.Request)
}

// Block godoc
// @Summary Block a date so it cannot be booked
// @Tags admin
// @Security BearerAuth
// @Param date path string true "YYYY-MM-DD"
// @Router /admin/calendar/{date}/block [post]
func (h *Handler) Block(c *gin.Context) {
	var req blockRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "Data tidak valid")
			return
		}
	}
	slot, err := h.calendar.Block(c.Request.Context(), middleware.ActorFrom(c), c.Param("date"), req.Reason, audit.MetaFromGin(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, slot)
}

// Unblock godoc
// @Summary Make a blocked date available again
// @Tags admin
// @Security BearerAuth
// @Param date path string true "YYYY-MM-DD"
// @Router /admin/calendar/{date}/block [delete]
func (h *Handler) Unblock(c *gin.Context) {
	slot, err := h.calendar.Unblock(c.Request.Context(), middleware.ActorFrom(c), c.Param("date"), audit.MetaFromGin(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, slot)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidMonth):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Format bulan harus YYYY-MM")
	case errors.Is(err, ErrInvalidDate):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Format tanggal harus YYYY-MM-DD")
	case errors.Is(err, ErrSlotBooked):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidStatus, "Tanggal sudah dibooking")
	case errors.Is(err, ErrSlotNotBlocked):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidStatus, "Tanggal tidak sedang diblokir")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Gagal memuat kalender")
	}
}
