package catalog

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	services := rg.Group("/services")
	{
		services.GET("", h.ListServices)
		services.GET("/:slug", h.GetService)
	}
}

// RegisterAdminRoutes expects rg to be behind admin auth.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/services", h.CreateService)
	rg.POST("/services/:slug/packages", h.CreatePackage)
	rg.PATCH("/packages/:id", h.UpdatePackage)
}
