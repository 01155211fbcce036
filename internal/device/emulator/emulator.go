// Package emulator implements device.Client in software. It holds a BIP-39 seed,
// derives addresses for every supported network family, asks for confirmation
// through button request events and signs with keys derived from the seed.
package emulator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"

	"wallet-suite/internal/device"
	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/pkg/address"
	"wallet-suite/pkg/bip32"
	"wallet-suite/pkg/bip39"
	"wallet-suite/pkg/keystore"
	"wallet-suite/pkg/logger"
)

const DefaultPath = "emulator"

// Emulator 软件模拟的签名设备，可并发调用
type Emulator struct {
	path  string
	label string
	seed  *bip39.SeedSource
	feed  event.Feed

	broadcaster Broadcaster
	signDelay   time.Duration

	mu            sync.Mutex
	wallets       map[bool]*bip32.Wallet
	failures      map[string]device.Failure
	inflight      context.CancelFunc
	cancelReasons []string

	log *zap.Logger
}

type Option func(*Emulator)

// WithLabel 设备标签
func WithLabel(label string) Option {
	return func(e *Emulator) { e.label = label }
}

// WithPath 设备路径 (设备唯一标识)
func WithPath(path string) Option {
	return func(e *Emulator) { e.path = path }
}

// WithBroadcaster 替换默认的离线广播器
func WithBroadcaster(b Broadcaster) Option {
	return func(e *Emulator) { e.broadcaster = b }
}

// WithSignDelay 模拟用户在设备上确认签名所需的时间
func WithSignDelay(d time.Duration) Option {
	return func(e *Emulator) { e.signDelay = d }
}

// WithFailure 让指定方法固定返回失败
func WithFailure(method string, f device.Failure) Option {
	return func(e *Emulator) { e.failures[method] = f }
}

// New 从助记词创建模拟设备
func New(mnemonic, passphrase string, opts ...Option) (*Emulator, error) {
	seed, err := bip39.NewSeedSource(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	e := &Emulator{
		path:        DefaultPath,
		label:       "Emulator",
		seed:        seed,
		broadcaster: NewOfflineBroadcaster(),
		wallets:     make(map[bool]*bip32.Wallet),
		failures:    make(map[string]device.Failure),
		log:         logger.Named("emulator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Load 从加密 keystore 文件创建模拟设备
func Load(filename, password string, opts ...Option) (*Emulator, error) {
	keyJSON, err := keystore.LoadFromFile(filename)
	if err != nil {
		return nil, err
	}
	secret, err := keystore.Open(keyJSON, password)
	if err != nil {
		return nil, err
	}
	if secret.Label != "" {
		opts = append([]Option{WithLabel(secret.Label)}, opts...)
	}
	return New(secret.Mnemonic, secret.Passphrase, opts...)
}

// Info 设备快照，供状态存储使用
func (e *Emulator) Info() model.Device {
	return model.Device{
		Path:               e.path,
		Label:              e.label,
		State:              "initialized",
		Connected:          true,
		Available:          true,
		UseEmptyPassphrase: !e.seed.HasPassphrase(),
	}
}

// SetFailure 运行时注入或清除 (f 为 nil) 某个方法的失败结果
func (e *Emulator) SetFailure(method string, f *device.Failure) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f == nil {
		delete(e.failures, method)
		return
	}
	e.failures[method] = *f
}

// CancelReasons 已收到的取消原因
func (e *Emulator) CancelReasons() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.cancelReasons...)
}

func (e *Emulator) SubscribeButtonRequests(ch chan<- device.ButtonRequest) event.Subscription {
	return e.feed.Subscribe(ch)
}

// Cancel 中止进行中的签名；没有进行中的操作时仅记录
func (e *Emulator) Cancel(_ context.Context, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelReasons = append(e.cancelReasons, reason)
	if e.inflight != nil {
		e.inflight()
	}
	e.log.Debug("cancel", zap.String("reason", reason), zap.Bool("inflight", e.inflight != nil))
}

func (e *Emulator) GetAddress(ctx context.Context, p device.AddressParams) device.Response[device.AddressPayload] {
	return e.address(ctx, device.MethodGetAddress, network.Bitcoin, p)
}

func (e *Emulator) EthereumGetAddress(ctx context.Context, p device.AddressParams) device.Response[device.AddressPayload] {
	return e.address(ctx, device.MethodEthereumGetAddress, network.Ethereum, p)
}

func (e *Emulator) RippleGetAddress(ctx context.Context, p device.AddressParams) device.Response[device.AddressPayload] {
	return e.address(ctx, device.MethodRippleGetAddress, network.Ripple, p)
}

func (e *Emulator) address(ctx context.Context, method string, family network.Type, p device.AddressParams) device.Response[device.AddressPayload] {
	if f, ok := e.failure(method); ok {
		return device.Fail[device.AddressPayload](f.Error, f.Code)
	}
	n, ok := network.Lookup(p.Coin)
	if !ok {
		return device.Fail[device.AddressPayload]("Coin not found", device.CodeDataError)
	}
	if n.Type != family {
		return device.Fail[device.AddressPayload]("Invalid network for "+method, device.CodeDataError)
	}

	w, err := e.wallet(p.UseEmptyPassphrase)
	if err != nil {
		return device.Fail[device.AddressPayload](err.Error(), device.CodeDataError)
	}
	pub, err := w.PublicKey(p.Path)
	if err != nil {
		return device.Fail[device.AddressPayload](err.Error(), device.CodeDataError)
	}
	derived, err := deriveAddress(n, p.Path, pub)
	if err != nil {
		return device.Fail[device.AddressPayload](err.Error(), device.CodeDataError)
	}

	if p.ShowOnDevice {
		e.feed.Send(device.ButtonRequest{Code: device.ButtonRequestAddress, Device: e.path})
		if ctx.Err() != nil {
			return device.Fail[device.AddressPayload]("Cancelled", device.CodeActionCancelled)
		}
	}
	if p.Address != "" && !sameAddress(n.Type, p.Address, derived) {
		return device.Fail[device.AddressPayload]("Addresses do not match", device.CodeDataError)
	}

	e.log.Debug("address derived", zap.String("coin", n.Symbol), zap.String("path", p.Path))
	return device.Ok(device.AddressPayload{Address: derived, Path: p.Path})
}

func (e *Emulator) failure(method string) (device.Failure, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.failures[method]
	return f, ok
}

func (e *Emulator) wallet(useEmptyPassphrase bool) (*bip32.Wallet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w, ok := e.wallets[useEmptyPassphrase]; ok {
		return w, nil
	}
	w, err := bip32.NewMasterKeyFromSeed(e.seed.Seed(useEmptyPassphrase), &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	e.wallets[useEmptyPassphrase] = w
	return w, nil
}

// addressVisitor bitcoin 家族按 purpose 选择地址格式 (44: P2PKH, 84: P2WPKH)
type addressVisitor struct {
	n    network.Network
	path string
	pub  *btcec.PublicKey
}

func (v addressVisitor) VisitBitcoin() (string, error) {
	purpose, err := bip32.Purpose(v.path)
	if err != nil {
		return "", err
	}
	gen := address.NewBTCGenerator(v.n.Params)
	if purpose == 84 {
		return gen.PubKeyToWitnessAddress(v.pub.SerializeCompressed())
	}
	return gen.PubKeyToAddress(v.pub.SerializeCompressed())
}

func (v addressVisitor) VisitEthereum() (string, error) {
	return address.NewETHGenerator().PubKeyToAddress(v.pub.SerializeUncompressed())
}

func (v addressVisitor) VisitRipple() (string, error) {
	return address.NewXRPGenerator().PubKeyToAddress(v.pub.SerializeCompressed())
}

func deriveAddress(n network.Network, path string, pub *btcec.PublicKey) (string, error) {
	return network.Visit[string](n.Type, addressVisitor{n: n, path: path, pub: pub})
}

func sameAddress(t network.Type, a, b string) bool {
	if t == network.Ethereum {
		return strings.EqualFold(a, b)
	}
	return a == b
}
