package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studiobook/internal/pkg/response"
)

type Handler struct {
	recorder *Recorder
}

func NewHandler(recorder *Recorder) *Handler {
	return &Handler{recorder: recorder}
}

// RegisterAdminRoutes mounts read access to the audit trail. rg must already require an admin.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/audit-logs", h.List)
}

// List godoc
// @Summary List audit logs
// @Tags admin
// @Param entityType query string false "BOOKING, PAYMENT_PROOF, ..."
// @Param entityId query string false "entity id"
// @Param limit query int false "max rows (default 50, max 200)"
// @Router /admin/audit-logs [get]
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	logs, err := h.recorder.List(c.Request.Context(), Filter{
		EntityType: EntityType(c.Query("entityType")),
		EntityID:   c.Query("entityId"),
		Limit:      limit,
	})
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Gagal memuat audit log")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"logs": logs})
}
