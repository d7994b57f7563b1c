package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiobook/internal/domain/audit"
	"studiobook/internal/domain/booking"
	"studiobook/internal/middleware"
	"studiobook/internal/pkg/response"
	"studiobook/internal/storage"
)

// maxUploadBody leaves room for the form fields around the file part.
const maxUploadBody = storage.MaxProofSize + 1<<20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload godoc
// @Summary Upload a DP transfer proof
// @Tags payments
// @Accept multipart/form-data
// @Param file formData file true "JPEG, PNG or PDF, max 5MB"
// @Param bookingToken formData string true "booking access token"
// @Param bankName formData string false "sender bank"
// @Param accountName formData string false "sender account name"
// @Param transferAmount formData int false "amount transferred"
// @Param transferDate formData string false "YYYY-MM-DD"
// @Success 200 {object} UploadResponse
// @Failure 400,404,429 {object} map[string]interface{}
// @Router /payments/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	fh, err := c.FormFile("file")
	token := c.PostForm("bookingToken")
	if err != nil || token == "" {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, storage.ErrFileTooLarge)
			return
		}
		fail(c, ErrMissingInput)
		return
	}

	var details UploadDetails
	if err := c.ShouldBind(&details); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "Data transfer tidak valid")
		return
	}

	file, closer, err := storage.InspectProof(fh)
	if err != nil {
		fail(c, err)
		return
	}
	defer closer.Close()

	resp, err := h.service.Upload(c.Request.Context(), token, file, details, audit.MetaFromGin(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Approve godoc
// @Summary Approve a pending proof and book the event date
// @Tags admin
// @Security BearerAuth
// @Param id path string true "payment proof id"
// @Failure 409 {object} map[string]interface{} "date already booked"
// @Router /admin/payments/{id}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	resp, err := h.service.Approve(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), audit.MetaFromGin(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Reject godoc
// @Summary Reject a pending proof
// @Tags admin
// @Security BearerAuth
// @Param id path string true "payment proof id"
// @Param body body RejectRequest true "reason"
// @Router /admin/payments/{id}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, ErrReasonRequired)
		return
	}
	resp, err := h.service.Reject(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.Reason, audit.MetaFromGin(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) ProofURL(c *gin.Context) {
	resp, err := h.service.ProofURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMissingInput):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "File dan booking token diperlukan")
	case errors.Is(err, storage.ErrEmptyFile):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidFile, "File kosong")
	case errors.Is(err, storage.ErrFileTooLarge):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidFile, "Ukuran file maksimal 5MB")
	case errors.Is(err, storage.ErrInvalidMimeType):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidFile, "Format file harus JPG, PNG, atau PDF")
	case errors.Is(err, ErrUploadNotAllowed):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidStatus, "Upload bukti pembayaran tidak diizinkan untuk status ini")
	case errors.Is(err, ErrProofNotPending):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidStatus, "Bukti pembayaran sudah diverifikasi")
	case errors.Is(err, ErrReasonRequired):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Alasan penolakan wajib diisi")
	case errors.Is(err, ErrSlotTaken):
		response.Error(c, http.StatusConflict, response.CodeSlotNotAvail, "Tanggal sudah dibooking oleh booking lain")
	default:
		var rerr *booking.RateLimitError
		if errors.As(err, &rerr) {
			response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, "Terlalu banyak upload. Coba lagi dalam "+rerr.RetryAfter)
			return
		}
		booking.Fail(c, err)
	}
}
