// Package compose turns a user's send form into a precomposed transaction. The
// dispatcher routes each request to exactly one network family composer.
package compose

import (
	"context"

	"go.uber.org/zap"

	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/pkg/logger"
	"wallet-suite/pkg/monitor"
)

// Composer 单个网络家族的组装器。
// 业务上的失败 (余额不足、地址无效等) 以 PrecomposedError 结果返回，error 只表示请求本身无法处理
type Composer interface {
	Compose(ctx context.Context, req *model.ComposeRequest) (*model.PrecomposedTransaction, error)
}

// Dispatcher 按账户的网络家族转发请求，不解释也不修改结果
type Dispatcher struct {
	bitcoin  Composer
	ethereum Composer
	ripple   Composer
	log      *zap.Logger
}

func NewDispatcher(bitcoin, ethereum, ripple Composer) *Dispatcher {
	return &Dispatcher{
		bitcoin:  bitcoin,
		ethereum: ethereum,
		ripple:   ripple,
		log:      logger.Named("compose"),
	}
}

// NewDefaultDispatcher 使用内置的三个组装器
func NewDefaultDispatcher() *Dispatcher {
	return NewDispatcher(NewBitcoinComposer(), NewEthereumComposer(), NewRippleComposer())
}

// ComposeTransaction 未知网络家族返回 errno.ErrUnsupportedNetwork
func (d *Dispatcher) ComposeTransaction(ctx context.Context, req *model.ComposeRequest) (*model.PrecomposedTransaction, error) {
	nt := req.Account.NetworkType
	tx, err := network.Visit[*model.PrecomposedTransaction](nt, route{d: d, ctx: ctx, req: req})
	switch {
	case err != nil:
		d.log.Warn("compose failed", zap.String("network", string(nt)), zap.Error(err))
		monitor.RecordCompose(string(nt), "unsupported")
	case tx.IsFinal():
		monitor.RecordCompose(string(nt), "final")
	default:
		d.log.Debug("compose rejected", zap.String("network", string(nt)), zap.String("reason", tx.Error))
		monitor.RecordCompose(string(nt), tx.Error)
	}
	return tx, err
}

type route struct {
	d   *Dispatcher
	ctx context.Context
	req *model.ComposeRequest
}

func (r route) VisitBitcoin() (*model.PrecomposedTransaction, error) {
	return r.d.bitcoin.Compose(r.ctx, r.req)
}

func (r route) VisitEthereum() (*model.PrecomposedTransaction, error) {
	return r.d.ethereum.Compose(r.ctx, r.req)
}

func (r route) VisitRipple() (*model.PrecomposedTransaction, error) {
	return r.d.ripple.Compose(r.ctx, r.req)
}
