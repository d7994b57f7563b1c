package calendar

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	cal := rg.Group("/calendar")
	{
		cal.GET("", h.GetCalendar)
		cal.GET("/ws", h.Live)
	}
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/calendar/:date/block", h.Block)
	rg.DELETE("/calendar/:date/block", h.Unblock)
}
