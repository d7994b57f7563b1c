package admin

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the login endpoint, which needs no token.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
}
