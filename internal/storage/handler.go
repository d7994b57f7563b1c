package storage

import (
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studiobook/internal/pkg/response"
)

// Handler serves objects addressed by signed tokens.
type Handler struct {
	store  ObjectStore
	signer *Signer
	log    *zap.Logger
}

func NewHandler(store ObjectStore, signer *Signer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, signer: signer, log: log.Named("files")}
}

// RegisterRoutes mounts GET /files/:token on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/files/:token", h.Download)
}

func (h *Handler) Download(c *gin.Context) {
	bucket, key, err := h.signer.Verify(c.Param("token"))
	if err != nil {
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "Link file tidak valid atau sudah kedaluwarsa")
		return
	}

	obj, err := h.store.Open(c.Request.Context(), bucket, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrInvalidKey) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "File tidak ditemukan")
			return
		}
		h.log.Error("open object", zap.String("bucket", bucket), zap.String("key", key), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Terjadi kesalahan server")
		return
	}
	defer obj.Close()

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectReader(obj); err == nil {
		contentType = mt.String()
	}
	if _, err := obj.Seek(0, io.SeekStart); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Terjadi kesalahan server")
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=300")
	http.ServeContent(c.Writer, c.Request, path.Base(key), obj.ModTime, obj)
}
