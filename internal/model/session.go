package model

import (
	"time"
)

// TxSession 交易会话审计表，每个会话结束时写入一行
type TxSession struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"session_id"`
	Descriptor      string    `gorm:"type:varchar(255);not null;index" json:"descriptor"`
	Symbol          string    `gorm:"type:varchar(16);not null" json:"symbol"`
	State           string    `gorm:"type:varchar(32);not null" json:"state"` // pushed-success, pushed-failure, cancelled
	Txid            string    `gorm:"type:varchar(128)" json:"txid"`
	Fingerprint     string    `gorm:"type:varchar(64)" json:"fingerprint"`
	FormattedAmount string    `gorm:"type:varchar(64)" json:"formatted_amount"`
	Error           string    `gorm:"type:text" json:"error"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (TxSession) TableName() string {
	return "tx_sessions"
}
