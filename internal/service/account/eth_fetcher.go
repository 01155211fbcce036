package account

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"wallet-suite/internal/model"
)

// chainReader ethclient.Client 中用到的部分
type chainReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// EthFetcher 通过 JSON-RPC 获取 ethereum 家族账户余额和 nonce
type EthFetcher struct {
	client chainReader
	closer func()
}

func DialEthFetcher(ctx context.Context, rpcURL string) (*EthFetcher, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return &EthFetcher{client: client, closer: client.Close}, nil
}

func NewEthFetcher(client chainReader) *EthFetcher {
	return &EthFetcher{client: client}
}

func (f *EthFetcher) Fetch(ctx context.Context, account *model.Account) (*model.Account, error) {
	if !common.IsHexAddress(account.Descriptor) {
		return nil, fmt.Errorf("descriptor %q is not an address", account.Descriptor)
	}
	addr := common.HexToAddress(account.Descriptor)

	balance, err := f.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	nonce, err := f.client.PendingNonceAt(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	fresh := *account
	fresh.Balance = balance.String()
	fresh.Misc.Nonce = nonce
	return &fresh, nil
}

func (f *EthFetcher) Close() {
	if f.closer != nil {
		f.closer()
	}
}
