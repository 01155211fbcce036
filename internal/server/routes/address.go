package routes

import (
	"github.com/gin-gonic/gin"

	"wallet-suite/internal/handler"
)

func RegisterAddressRoutes(rg *gin.RouterGroup, h *handler.AddressHandler) {
	addressGroup := rg.Group("/address")
	{
		addressGroup.POST("/verify", h.VerifyAddress)
	}
}
