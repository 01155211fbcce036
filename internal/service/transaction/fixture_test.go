package transaction

import (
	"context"
	"sync"
	"time"

	"wallet-suite/internal/device/devicetest"
	"wallet-suite/internal/effect"
	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/internal/service/compose"
	"wallet-suite/internal/store"
	"wallet-suite/pkg/cache"
	"wallet-suite/pkg/utils/lock"
)

type recordingRefresher struct {
	mu       sync.Mutex
	accounts []string
}

func (r *recordingRefresher) Refresh(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = append(r.accounts, a.Descriptor)
	return nil
}

func (r *recordingRefresher) Refreshed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.accounts...)
}

type recordingSessions struct {
	mu      sync.Mutex
	records []*model.TxSession
}

func (r *recordingSessions) Record(_ context.Context, s *model.TxSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, s)
	return nil
}

func (r *recordingSessions) Records() []*model.TxSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.TxSession(nil), r.records...)
}

type fixture struct {
	fake      *devicetest.Fake
	rec       *effect.Recorder
	state     *store.Store
	locker    *lock.LocalLock
	refresher *recordingRefresher
	sessions  *recordingSessions
	pipeline  *Pipeline
	manager   *Manager
}

func newFixture() *fixture {
	f := &fixture{
		fake:      devicetest.New(),
		rec:       effect.NewRecorder(),
		state:     store.New(),
		locker:    lock.NewLocalLock(),
		refresher: &recordingRefresher{},
		sessions:  &recordingSessions{},
	}
	f.state.SetDevice(&model.Device{Path: "dev-1", Connected: true, Available: true, UseEmptyPassphrase: true})
	sink := effect.Fanout{f.rec, f.state}
	f.pipeline = NewPipeline(f.fake, f.state, sink, f.locker, cache.NewMemoryCache(time.Hour, time.Hour), f.refresher)
	f.manager = NewManager(compose.NewDefaultDispatcher(), f.fake, f.state, sink, f.pipeline, f.sessions)
	return f
}

func btcAccount() *model.Account {
	return &model.Account{
		Symbol:      "btc",
		NetworkType: network.Bitcoin,
		Descriptor:  "zpub-btc",
		Path:        "m/84'/0'/0'",
		Balance:     "200000000",
		Addresses: &model.AccountAddresses{
			Change: []model.Address{{Address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", Path: "m/84'/0'/0'/1/0"}},
		},
		UTXO: []model.UTXO{
			{Txid: "aa", Vout: 0, Amount: "200000000", Path: "m/84'/0'/0'/0/0"},
		},
	}
}

func ethAccount() *model.Account {
	return &model.Account{
		Symbol:      "eth",
		NetworkType: network.Ethereum,
		Descriptor:  "0x9858EfFD232B4033E47d90003D41EC34EcaEda94",
		Path:        "m/44'/60'/0'/0/0",
		Balance:     "1000000000000000000",
		Tokens: []model.TokenInfo{
			{Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Symbol: "usdt", Decimals: 6, Balance: "5000000"},
		},
	}
}
