// Package account requests and applies account refreshes after a transaction was
// broadcast. The account itself is owned by the account subsystem; this package
// only asks for a fresh copy and hands it back through the store.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/internal/service/mq"
	"wallet-suite/pkg/logger"
)

// TopicAccountRefresh 刷新请求的主题
const TopicAccountRefresh = "wallet_events_account"

// Refresher 请求刷新账户 (余额、nonce、UTXO 等)
type Refresher interface {
	Refresh(ctx context.Context, account *model.Account) error
}

// RefreshRequest 刷新请求消息体
type RefreshRequest struct {
	Symbol      string       `json:"symbol"`
	NetworkType network.Type `json:"networkType"`
	Descriptor  string       `json:"descriptor"`
	RequestedAt time.Time    `json:"requestedAt"`
}

// MQRefresher 通过消息队列异步请求刷新，按 descriptor 分区
type MQRefresher struct {
	producer mq.Producer
	topic    string
	log      *zap.Logger
}

func NewMQRefresher(producer mq.Producer) *MQRefresher {
	return &MQRefresher{
		producer: producer,
		topic:    TopicAccountRefresh,
		log:      logger.Named("account"),
	}
}

func (r *MQRefresher) Refresh(ctx context.Context, account *model.Account) error {
	if account == nil {
		return nil
	}
	payload, err := json.Marshal(RefreshRequest{
		Symbol:      account.Symbol,
		NetworkType: account.NetworkType,
		Descriptor:  account.Descriptor,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal refresh request: %w", err)
	}
	if err := r.producer.Publish(ctx, r.topic, account.Descriptor, payload); err != nil {
		r.log.Warn("publish account refresh failed", zap.String("descriptor", account.Descriptor), zap.Error(err))
		return err
	}
	r.log.Debug("account refresh requested", zap.String("descriptor", account.Descriptor))
	return nil
}
