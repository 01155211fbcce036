package emulator

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"wallet-suite/internal/device"
	"wallet-suite/internal/network"
)

var ErrAlreadyKnown = errors.New("transaction already known")

// Broadcaster 把签名后的交易发送到网络，返回 txid
type Broadcaster interface {
	Broadcast(ctx context.Context, n network.Network, rawTx string) (string, error)
}

func (e *Emulator) PushTransaction(ctx context.Context, p device.PushParams) device.Response[device.PushPayload] {
	if f, ok := e.failure(device.MethodPushTransaction); ok {
		return device.Fail[device.PushPayload](f.Error, f.Code)
	}
	n, ok := network.Lookup(p.Coin)
	if !ok {
		return device.Fail[device.PushPayload]("Coin not found", device.CodeDataError)
	}
	txid, err := e.broadcaster.Broadcast(ctx, n, p.Tx)
	if err != nil {
		e.log.Warn("broadcast failed", zap.String("coin", n.Symbol), zap.Error(err))
		return device.Fail[device.PushPayload](err.Error(), "")
	}
	return device.Ok(device.PushPayload{Txid: txid})
}

// OfflineBroadcaster 不连接网络，只解析交易并计算 txid；重复广播返回 ErrAlreadyKnown
type OfflineBroadcaster struct {
	mu   sync.Mutex
	seen map[string]string
}

func NewOfflineBroadcaster() *OfflineBroadcaster {
	return &OfflineBroadcaster{seen: make(map[string]string)}
}

func (b *OfflineBroadcaster) Broadcast(_ context.Context, n network.Network, rawTx string) (string, error) {
	txid, err := network.Visit[string](n.Type, txidVisitor{raw: rawTx})
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.seen[txid]; ok {
		return "", fmt.Errorf("%w: %s", ErrAlreadyKnown, txid)
	}
	b.seen[txid] = rawTx
	return txid, nil
}

// Broadcasted 返回已接收的原始交易
func (b *OfflineBroadcaster) Broadcasted(txid string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.seen[txid]
	return raw, ok
}

type txidVisitor struct {
	raw string
}

func (v txidVisitor) VisitBitcoin() (string, error) {
	data, err := hex.DecodeString(v.raw)
	if err != nil {
		return "", fmt.Errorf("invalid bitcoin transaction hex: %w", err)
	}
	var msg wire.MsgTx
	if err := msg.Deserialize(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("invalid bitcoin transaction: %w", err)
	}
	return msg.TxHash().String(), nil
}

func (v txidVisitor) VisitEthereum() (string, error) {
	tx, err := decodeEthereum(v.raw)
	if err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

// VisitRipple txid = SHA-512Half("TXN\0" || blob)
func (v txidVisitor) VisitRipple() (string, error) {
	blob, err := hex.DecodeString(v.raw)
	if err != nil {
		return "", fmt.Errorf("invalid ripple transaction hex: %w", err)
	}
	sum := sha512.Sum512(append([]byte("TXN\x00"), blob...))
	return strings.ToUpper(hex.EncodeToString(sum[:32])), nil
}

func decodeEthereum(raw string) (*ethtypes.Transaction, error) {
	data, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid ethereum transaction hex: %w", err)
	}
	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("invalid ethereum transaction: %w", err)
	}
	return tx, nil
}

// EthBroadcaster 通过 JSON-RPC 节点发送以太坊交易
type EthBroadcaster struct {
	client *ethclient.Client
}

func DialEthBroadcaster(ctx context.Context, rpcURL string) (*EthBroadcaster, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: %w", err)
	}
	return &EthBroadcaster{client: client}, nil
}

func (b *EthBroadcaster) Broadcast(ctx context.Context, n network.Network, rawTx string) (string, error) {
	if n.Type != network.Ethereum {
		return "", fmt.Errorf("%s is not an ethereum network", n.Symbol)
	}
	tx, err := decodeEthereum(rawTx)
	if err != nil {
		return "", err
	}
	if err := b.client.SendTransaction(ctx, tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

func (b *EthBroadcaster) Close() {
	b.client.Close()
}

// Router 按网络家族选择广播器，未注册的家族交给 fallback
type Router struct {
	routes   map[network.Type]Broadcaster
	fallback Broadcaster
}

func NewRouter(fallback Broadcaster) *Router {
	return &Router{routes: make(map[network.Type]Broadcaster), fallback: fallback}
}

func (r *Router) Handle(t network.Type, b Broadcaster) *Router {
	r.routes[t] = b
	return r
}

func (r *Router) Broadcast(ctx context.Context, n network.Network, rawTx string) (string, error) {
	if b, ok := r.routes[n.Type]; ok {
		return b.Broadcast(ctx, n, rawTx)
	}
	return r.fallback.Broadcast(ctx, n, rawTx)
}
