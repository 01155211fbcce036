package routes

import (
	"github.com/gin-gonic/gin"

	"wallet-suite/internal/handler"
)

func RegisterStateRoutes(rg *gin.RouterGroup, h *handler.StateHandler) {
	stateGroup := rg.Group("/state")
	{
		stateGroup.GET("", h.Get)
		stateGroup.PUT("/device", h.SetDevice)
		stateGroup.PUT("/account", h.SetAccount)
	}
}
