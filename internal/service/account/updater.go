package account

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/internal/service/mq"
	"wallet-suite/pkg/logger"
)

// Fetcher 从链上或后端获取账户的最新状态，返回新的副本
type Fetcher interface {
	Fetch(ctx context.Context, account *model.Account) (*model.Account, error)
}

// Holder 持有当前选中账户的一方 (store.Store)
type Holder interface {
	SelectedAccount() *model.Account
	SelectAccount(a *model.Account)
}

// Updater 消费刷新请求，只更新当前选中的同一账户
type Updater struct {
	holder   Holder
	fetchers map[network.Type]Fetcher
	log      *zap.Logger
}

func NewUpdater(holder Holder) *Updater {
	return &Updater{
		holder:   holder,
		fetchers: make(map[network.Type]Fetcher),
		log:      logger.Named("account"),
	}
}

// Register 为某个网络家族注册 Fetcher，未注册的家族只记录日志
func (u *Updater) Register(t network.Type, f Fetcher) *Updater {
	u.fetchers[t] = f
	return u
}

// Start 订阅刷新主题
func (u *Updater) Start(ctx context.Context, consumer mq.Consumer) error {
	return consumer.Subscribe(ctx, TopicAccountRefresh, func(msg *mq.Message) error {
		return u.Handle(ctx, msg.Payload)
	})
}

// Handle 处理一条刷新请求；账户已切换时丢弃
func (u *Updater) Handle(ctx context.Context, payload []byte) error {
	var req RefreshRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		u.log.Warn("drop malformed refresh request", zap.Error(err))
		return nil
	}

	current := u.holder.SelectedAccount()
	if current == nil || current.Descriptor != req.Descriptor {
		u.log.Debug("refresh target no longer selected", zap.String("descriptor", req.Descriptor))
		return nil
	}
	f, ok := u.fetchers[current.NetworkType]
	if !ok {
		u.log.Debug("no fetcher for network", zap.String("network", string(current.NetworkType)))
		return nil
	}

	fresh, err := f.Fetch(ctx, current)
	if err != nil {
		return fmt.Errorf("fetch account %s: %w", req.Descriptor, err)
	}
	// 拉取期间用户可能切换了账户
	if latest := u.holder.SelectedAccount(); latest == nil || latest.Descriptor != fresh.Descriptor {
		return nil
	}
	u.holder.SelectAccount(fresh)
	u.log.Info("account refreshed",
		zap.String("descriptor", fresh.Descriptor),
		zap.String("balance", fresh.Balance))
	return nil
}
