// Package transaction owns the review, sign and push lifecycle of a composed
// transaction: the push pipeline itself and the per-account session state machine
// that drives it.
package transaction

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"wallet-suite/internal/device"
	"wallet-suite/internal/effect"
	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/internal/service/account"
	"wallet-suite/internal/store"
	"wallet-suite/pkg/amount"
	"wallet-suite/pkg/cache"
	"wallet-suite/pkg/crypto_util"
	"wallet-suite/pkg/errno"
	"wallet-suite/pkg/logger"
	"wallet-suite/pkg/monitor"
	"wallet-suite/pkg/utils/lock"
)

const (
	pushLockTTL = 5 * time.Minute
	// consumedTTL 已推送签名交易的记录保留时间
	consumedTTL = 24 * time.Hour
)

// ReviewData 待推送的签名交易及其组装结果
type ReviewData struct {
	SignedTx        *model.SignedTransaction      `json:"signedTx"`
	TransactionInfo *model.PrecomposedTransaction `json:"transactionInfo"`
}

// PushResult 一次推送的结果
type PushResult struct {
	Success         bool   `json:"success"`
	Txid            string `json:"txid,omitempty"`
	FormattedAmount string `json:"formattedAmount"`
	Fingerprint     string `json:"fingerprint"`
	Error           string `json:"error,omitempty"`
}

// Pipeline 推送签名交易并发出结果通知
type Pipeline struct {
	client    device.Client
	state     store.Provider
	sink      effect.Sink
	locker    lock.DistributedLock
	consumed  cache.Cache
	refresher account.Refresher
	log       *zap.Logger
}

func NewPipeline(client device.Client, state store.Provider, sink effect.Sink, locker lock.DistributedLock, consumed cache.Cache, refresher account.Refresher) *Pipeline {
	return &Pipeline{
		client:    client,
		state:     state,
		sink:      sink,
		locker:    locker,
		consumed:  consumed,
		refresher: refresher,
		log:       logger.Named("pipeline"),
	}
}

// CancelSignTx 没有签名结果时 (设备仍在等待确认) 取消设备操作；
// 已有签名结果时只关闭弹窗
func (p *Pipeline) CancelSignTx(ctx context.Context, signed *model.SignedTransaction) {
	if signed == nil {
		p.client.Cancel(ctx, device.ReasonTxCancelled)
		return
	}
	p.sink.CloseModal(ctx)
}

// PushTransaction 推送 review 中的签名交易，返回是否广播成功。
// 缺少签名交易、交易信息或选中账户时直接返回 false，不发出任何意图
func (p *Pipeline) PushTransaction(ctx context.Context, review ReviewData) bool {
	res, err := p.Push(ctx, review)
	if err != nil {
		p.log.Debug("push skipped", zap.Error(err))
		return false
	}
	return res.Success
}

// Push 同 PushTransaction，返回完整结果。error 表示前置条件不满足，此时没有发起设备调用
func (p *Pipeline) Push(ctx context.Context, review ReviewData) (*PushResult, error) {
	acct := p.state.SelectedAccount()
	dev := p.state.Device()
	signed, info := review.SignedTx, review.TransactionInfo
	if signed == nil || info == nil {
		return nil, errno.ErrReviewIncomplete
	}
	if acct == nil {
		return nil, errno.ErrAccountNotSelected
	}

	key := "push:" + acct.Descriptor
	acquired, err := p.locker.Acquire(ctx, key, pushLockTTL)
	if err != nil || !acquired {
		return nil, errno.ErrDeviceBusy
	}
	defer func() {
		if err := p.locker.Release(context.WithoutCancel(ctx), key); err != nil {
			p.log.Warn("release push lock failed", zap.Error(err))
		}
	}()

	fingerprint := crypto_util.Fingerprint(signed.Coin, signed.Descriptor, signed.Tx)
	fresh, err := p.consumed.Add(ctx, "signed:"+fingerprint, time.Now().Unix(), consumedTTL)
	if err != nil {
		return nil, err
	}
	if !fresh {
		p.log.Warn("signed transaction already pushed", zap.String("fingerprint", fingerprint))
		return nil, errno.ErrAlreadyPushed
	}

	start := time.Now()
	sent := p.client.PushTransaction(ctx, device.PushParams{Tx: signed.Tx, Coin: acct.Symbol})
	monitor.ObserveDeviceCall(device.MethodPushTransaction, start)

	// 签名交易只用一次，无论成功与否都关闭流程
	p.CancelSignTx(ctx, signed)

	res := &PushResult{
		Success:         sent.Success,
		FormattedAmount: formattedAmount(acct, info),
		Fingerprint:     fingerprint,
	}
	var devicePath string
	if dev != nil {
		devicePath = dev.Path
	}

	if sent.Success {
		res.Txid = sent.Payload.Txid
		p.sink.Notify(ctx, effect.Notification{
			Type:            effect.NotifyTxSent,
			FormattedAmount: res.FormattedAmount,
			Device:          devicePath,
			Descriptor:      acct.Descriptor,
			Symbol:          acct.Symbol,
			Txid:            res.Txid,
		})
		if err := p.refresher.Refresh(ctx, acct); err != nil {
			p.log.Warn("account refresh failed", zap.String("descriptor", acct.Descriptor), zap.Error(err))
		}
		p.log.Info("transaction pushed",
			zap.String("symbol", acct.Symbol),
			zap.String("txid", res.Txid),
			zap.String("amount", res.FormattedAmount))
	} else {
		res.Error = sent.Err().Error
		p.sink.Notify(ctx, effect.Notification{Type: effect.NotifySignTxError, Error: res.Error})
		p.log.Warn("push transaction failed", zap.String("symbol", acct.Symbol), zap.String("error", res.Error))
	}

	monitor.RecordPush(acct.Symbol, sent.Success)
	return res, nil
}

// formattedAmount 代币交易显示代币数量；原生币交易显示不含手续费的金额
func formattedAmount(acct *model.Account, info *model.PrecomposedTransaction) string {
	if info.Token != nil {
		return network.FormatAmount(info.TotalSpent, info.Token.Decimals) + " " + strings.ToUpper(info.Token.Symbol)
	}
	spent, err := amount.Sub(info.TotalSpent, info.Fee)
	if err != nil {
		spent = info.TotalSpent
	}
	return network.FormatNetworkAmount(spent, acct.Symbol, true)
}
