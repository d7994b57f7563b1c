package payment

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/upload", h.Upload)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("/:id/approve", h.Approve)
		payments.POST("/:id/reject", h.Reject)
		payments.GET("/:id/url", h.ProofURL)
	}
}
