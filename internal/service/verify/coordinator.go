// Package verify drives the "show this address on the device" flow.
package verify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wallet-suite/internal/device"
	"wallet-suite/internal/effect"
	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/internal/store"
	"wallet-suite/pkg/logger"
	"wallet-suite/pkg/monitor"
	"wallet-suite/pkg/utils/lock"
)

// lockTTL 仅用于持有者异常退出后释放锁，不是设备调用的超时
const lockTTL = 10 * time.Minute

// Coordinator 地址校验协调器
type Coordinator struct {
	client device.Client
	state  store.Provider
	sink   effect.Sink
	locker lock.DistributedLock
	log    *zap.Logger
}

func NewCoordinator(client device.Client, state store.Provider, sink effect.Sink, locker lock.DistributedLock) *Coordinator {
	return &Coordinator{
		client: client,
		state:  state,
		sink:   sink,
		locker: locker,
		log:    logger.Named("verify"),
	}
}

// VerifyAddress 在设备上展示账户的下一个未使用地址。
// 结果通过 sink 发出；返回值只用于日志、指标和测试
func (c *Coordinator) VerifyAddress(ctx context.Context, account *model.Account, flow model.Flow) model.VerificationOutcome {
	dev := c.state.Device()
	if dev == nil || account == nil {
		c.log.Debug("verify skipped: no device or account")
		return model.OutcomeSkipped
	}
	unused, ok := model.UnusedAddressFromAccount(account)
	if !ok {
		c.log.Debug("verify skipped: no unused address", zap.String("descriptor", account.Descriptor))
		return model.OutcomeSkipped
	}

	key := "verify:" + account.Descriptor
	acquired, err := c.locker.Acquire(ctx, key, lockTTL)
	if err != nil || !acquired {
		c.log.Debug("verify skipped: account busy", zap.String("descriptor", account.Descriptor), zap.Error(err))
		return model.OutcomeSkipped
	}
	defer func() {
		if err := c.locker.Release(context.WithoutCancel(ctx), key); err != nil {
			c.log.Warn("release verify lock failed", zap.Error(err))
		}
	}()

	outcome := c.verify(ctx, dev, account, unused, flow)
	monitor.RecordVerifyAddress(string(account.NetworkType), string(outcome))
	return outcome
}

func (c *Coordinator) verify(ctx context.Context, dev *model.Device, account *model.Account, unused model.UnusedAddress, flow model.Flow) model.VerificationOutcome {
	modal := effect.Modal{
		Device:      dev.Path,
		Address:     unused.Address,
		NetworkType: account.NetworkType,
		Symbol:      account.Symbol,
		AddressPath: unused.Path,
	}

	// 设备不可达时不发起调用，只展示地址供用户手动比对
	if !dev.Reachable() {
		modal.Type = effect.ModalUnverifiedAddress
		c.sink.OpenModal(ctx, modal)
		return model.OutcomeUnverifiedWarning
	}

	params := device.AddressParams{
		Device:             dev.Path,
		Path:               unused.Path,
		Address:            unused.Address,
		Coin:               account.Symbol,
		ShowOnDevice:       true,
		UseEmptyPassphrase: dev.UseEmptyPassphrase,
	}
	onButton := func(ev device.ButtonRequest) {
		if ev.Code != device.ButtonRequestAddress {
			return
		}
		m := modal
		m.Type = effect.ModalAddress
		c.sink.OpenModal(ctx, m)
	}

	call, method := c.addressCall(account.NetworkType)
	start := time.Now()
	res := device.WithButtonRequests(ctx, c.client, onButton, func(ctx context.Context) device.Response[device.AddressPayload] {
		return call(ctx, params)
	})
	monitor.ObserveDeviceCall(method, start)

	if res.Success {
		c.log.Info("address verified",
			zap.String("symbol", account.Symbol),
			zap.String("path", unused.Path),
			zap.String("flow", string(flow)))
		c.sink.Dispatch(ctx, store.VerifyAddress(flow, unused.Address))
		return model.OutcomeVerified
	}

	failure := res.Err()
	if failure.Code == device.CodePermissionsNotGranted {
		c.log.Debug("verify declined: permissions not granted", zap.String("descriptor", account.Descriptor))
		return model.OutcomeRejected
	}
	c.log.Warn("verify address failed", zap.String("symbol", account.Symbol), zap.String("error", failure.Error), zap.String("code", failure.Code))
	c.sink.Notify(ctx, effect.Notification{Type: effect.NotifyVerifyAddressError, Error: failure.Error})
	return model.OutcomeRejected
}

type addressFunc func(context.Context, device.AddressParams) device.Response[device.AddressPayload]

// addressCall 选择网络家族对应的设备调用；未知家族得到一个立即失败的调用，
// 让后续处理与设备返回的失败走同一条路径
func (c *Coordinator) addressCall(t network.Type) (addressFunc, string) {
	m, err := network.Visit[addressMethod](t, addressMethods{client: c.client})
	if err != nil {
		return func(context.Context, device.AddressParams) device.Response[device.AddressPayload] {
			return device.Fail[device.AddressPayload](device.MessageMethodNotDefined, "")
		}, "undefined"
	}
	return m.fn, m.name
}

type addressMethod struct {
	fn   addressFunc
	name string
}

type addressMethods struct {
	client device.Client
}

func (m addressMethods) VisitBitcoin() (addressMethod, error) {
	return addressMethod{fn: m.client.GetAddress, name: device.MethodGetAddress}, nil
}

func (m addressMethods) VisitEthereum() (addressMethod, error) {
	return addressMethod{fn: m.client.EthereumGetAddress, name: device.MethodEthereumGetAddress}, nil
}

func (m addressMethods) VisitRipple() (addressMethod, error) {
	return addressMethod{fn: m.client.RippleGetAddress, name: device.MethodRippleGetAddress}, nil
}
