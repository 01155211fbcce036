package request

import "wallet-suite/internal/model"

// ComposeRequest 账户取自当前选中账户
type ComposeRequest struct {
	Outputs        []model.ComposeOutput `json:"outputs" binding:"required,min=1,dive"`
	FeeLevel       model.FeeLevel        `json:"feeLevel"`
	Token          string                `json:"token"`
	DestinationTag *uint32               `json:"destinationTag"`
}

// SessionRequest review / sign / push / cancel
type SessionRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
}
