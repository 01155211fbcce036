package routes

import (
	"github.com/gin-gonic/gin"

	"wallet-suite/internal/handler"
)

// RegisterTxRoutes 交易会话: compose -> review -> sign -> push。review 之后可 cancel，review 之前 discard
func RegisterTxRoutes(rg *gin.RouterGroup, h *handler.TxHandler) {
	txGroup := rg.Group("/tx")
	{
		txGroup.POST("/compose", h.Compose)
		txGroup.POST("/review", h.Review)
		txGroup.POST("/sign", h.Sign)
		txGroup.POST("/push", h.Push)
		txGroup.POST("/cancel", h.Cancel)
		txGroup.POST("/discard", h.Discard)
		txGroup.GET("/sessions/:id", h.Session)
	}
}
