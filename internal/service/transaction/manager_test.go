package transaction

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-suite/internal/device"
	"wallet-suite/internal/device/devicetest"
	"wallet-suite/internal/effect"
	"wallet-suite/internal/model"
	"wallet-suite/internal/service/compose"
	"wallet-suite/pkg/cache"
	"wallet-suite/pkg/errno"
)

func btcSend(amount string) *model.ComposeRequest {
	return &model.ComposeRequest{
		Account:  *btcAccount(),
		Outputs:  []model.ComposeOutput{{Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", Amount: amount}},
		FeeLevel: model.FeeLevel{FeePerUnit: "2"},
	}
}

func TestManager_FullLifecycle(t *testing.T) {
	f := newFixture()
	f.state.SelectAccount(btcAccount())
	ctx := context.Background()

	s, err := f.manager.Compose(ctx, btcSend("149990000"))
	require.NoError(t, err)
	assert.Equal(t, StateComposed, s.State)
	assert.NotEmpty(t, s.ID)

	s, err = f.manager.Review(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReviewing, s.State)
	assert.Same(t, s.Precomposed, f.state.Snapshot().TransactionInfo)

	s, err = f.manager.Sign(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSigned, s.State)
	require.NotNil(t, s.Signed)
	assert.Equal(t, "0xdeadbeef", s.Signed.Tx)
	assert.Equal(t, s.Signed, f.state.Snapshot().SignedTx)

	signCall := f.fake.Calls()[0]
	assert.Equal(t, device.MethodSignTransaction, signCall.Method)
	assert.Equal(t, "dev-1", signCall.Sign.Device)
	assert.True(t, signCall.Sign.UseEmptyPassphrase)
	require.NotNil(t, signCall.Sign.Transaction.Bitcoin)

	s, err = f.manager.Push(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatePushedSuccess, s.State)
	assert.Equal(t, "txid-0xdeadbeef", s.Result.Txid)
	assert.Equal(t, "1.4999 BTC", s.Result.FormattedAmount)

	_, err = f.manager.Get(s.ID)
	assert.True(t, errors.Is(err, errno.ErrSessionNotFound), "finished sessions are closed")
	assert.Nil(t, f.state.Snapshot().SignedTx, "signed tx is cleared after push")

	records := f.sessions.Records()
	require.Len(t, records, 1)
	assert.Equal(t, string(StatePushedSuccess), records[0].State)
	assert.Equal(t, "txid-0xdeadbeef", records[0].Txid)
	assert.Equal(t, s.Result.Fingerprint, records[0].Fingerprint)
}

func TestManager_OneSessionPerAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.manager.Compose(ctx, btcSend("100000"))
	require.NoError(t, err)

	again, err := f.manager.Compose(ctx, btcSend("200000"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "recomposing reuses the open session")
	assert.Equal(t, "200000", again.Precomposed.Transaction.Bitcoin.Outputs[0].Amount)

	_, err = f.manager.Review(ctx, first.ID)
	require.NoError(t, err)
	_, err = f.manager.Compose(ctx, btcSend("300000"))
	assert.True(t, errors.Is(err, errno.ErrSessionExists))
}

func TestManager_ComposeErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.manager.Compose(ctx, btcSend("900000000"))
	require.Error(t, err)
	assert.True(t, IsComposeFailure(err))
	assert.Contains(t, err.Error(), model.ErrNotEnoughFunds)

	req := btcSend("1000")
	req.Account.NetworkType = "cardano"
	_, err = f.manager.Compose(ctx, req)
	assert.True(t, errors.Is(err, errno.ErrUnsupportedNetwork))

	_, err = f.manager.Compose(ctx, &model.ComposeRequest{})
	assert.True(t, errors.Is(err, errno.ErrAccountNotSelected))
}

func TestManager_InvalidTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s, err := f.manager.Compose(ctx, btcSend("100000"))
	require.NoError(t, err)

	_, err = f.manager.Sign(ctx, s.ID)
	assert.True(t, errors.Is(err, errno.ErrInvalidTransition))
	_, err = f.manager.Push(ctx, s.ID)
	assert.True(t, errors.Is(err, errno.ErrInvalidTransition))
	_, err = f.manager.Review(ctx, "missing")
	assert.True(t, errors.Is(err, errno.ErrSessionNotFound))
	assert.Empty(t, f.fake.Calls())
}

func TestManager_Cancel(t *testing.T) {
	t.Run("while awaiting signature", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		s, err := f.manager.Compose(ctx, btcSend("100000"))
		require.NoError(t, err)
		_, err = f.manager.Review(ctx, s.ID)
		require.NoError(t, err)

		s, err = f.manager.Cancel(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, StateCancelled, s.State)
		assert.Equal(t, []string{device.ReasonTxCancelled}, f.fake.CancelReasons())
		assert.Zero(t, f.rec.ModalCloses())
	})

	t.Run("after signing", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		s, err := f.manager.Compose(ctx, btcSend("100000"))
		require.NoError(t, err)
		_, err = f.manager.Review(ctx, s.ID)
		require.NoError(t, err)
		_, err = f.manager.Sign(ctx, s.ID)
		require.NoError(t, err)

		_, err = f.manager.Cancel(ctx, s.ID)
		require.NoError(t, err)
		assert.Empty(t, f.fake.CancelReasons())
		assert.Equal(t, 1, f.rec.ModalCloses())
		assert.Nil(t, f.state.Snapshot().SignedTx)
		require.Len(t, f.sessions.Records(), 1)
		assert.Equal(t, string(StateCancelled), f.sessions.Records()[0].State)
	})

	t.Run("composed session cannot be cancelled", func(t *testing.T) {
		f := newFixture()
		s, err := f.manager.Compose(context.Background(), btcSend("100000"))
		require.NoError(t, err)
		_, err = f.manager.Cancel(context.Background(), s.ID)
		assert.True(t, errors.Is(err, errno.ErrInvalidTransition))
		assert.Empty(t, f.fake.CancelReasons())
		assert.Zero(t, f.rec.ModalCloses())
		assert.Empty(t, f.sessions.Records())

		still, err := f.manager.Get(s.ID)
		require.NoError(t, err)
		assert.Equal(t, StateComposed, still.State)
	})
}

func TestManager_Discard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.manager.Compose(ctx, btcSend("100000"))
	require.NoError(t, err)
	require.NoError(t, f.manager.Discard(ctx, s.ID))

	_, err = f.manager.Get(s.ID)
	assert.True(t, errors.Is(err, errno.ErrSessionNotFound))
	assert.Empty(t, f.fake.Calls())
	assert.Empty(t, f.fake.CancelReasons())
	assert.Empty(t, f.sessions.Records(), "discarded sessions are not audited")
	assert.True(t, errors.Is(f.manager.Discard(ctx, s.ID), errno.ErrSessionNotFound))

	next, err := f.manager.Compose(ctx, btcSend("100000"))
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, next.ID, "account is free for a new session")

	_, err = f.manager.Review(ctx, next.ID)
	require.NoError(t, err)
	err = f.manager.Discard(ctx, next.ID)
	assert.True(t, errors.Is(err, errno.ErrInvalidTransition))
	reviewing, err := f.manager.Get(next.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReviewing, reviewing.State)
}

func TestManager_SignFailure(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantNotify bool
	}{
		{"user cancelled on device", device.CodeActionCancelled, false},
		{"device error", device.CodeDataError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			failed := device.Fail[device.SignPayload]("signing failed", tt.code)
			f.fake.Sign = &failed
			ctx := context.Background()

			s, err := f.manager.Compose(ctx, btcSend("100000"))
			require.NoError(t, err)
			_, err = f.manager.Review(ctx, s.ID)
			require.NoError(t, err)

			s, err = f.manager.Sign(ctx, s.ID)
			assert.True(t, errors.Is(err, errno.ErrSignFailed))
			assert.Equal(t, StateCancelled, s.State)
			if tt.wantNotify {
				assert.Equal(t, []effect.Notification{{Type: effect.NotifySignTxError, Error: "signing failed"}}, f.rec.Notifications())
			} else {
				assert.Empty(t, f.rec.Notifications())
			}
		})
	}
}

// blockingSigner 签名调用阻塞到 Cancel 被调用
type blockingSigner struct {
	*devicetest.Fake
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSigner) SignTransaction(ctx context.Context, p device.SignParams) device.Response[device.SignPayload] {
	close(b.started)
	<-b.release
	return device.Fail[device.SignPayload]("Action cancelled by user", device.CodeActionCancelled)
}

func (b *blockingSigner) Cancel(ctx context.Context, reason string) {
	b.Fake.Cancel(ctx, reason)
	b.once.Do(func() { close(b.release) })
}

func TestManager_CancelAbortsInFlightSign(t *testing.T) {
	f := newFixture()
	client := &blockingSigner{Fake: f.fake, started: make(chan struct{}), release: make(chan struct{})}
	sink := effect.Fanout{f.rec, f.state}
	pipeline := NewPipeline(client, f.state, sink, f.locker, cache.NewMemoryCache(time.Hour, time.Hour), f.refresher)
	m := NewManager(compose.NewDefaultDispatcher(), client, f.state, sink, pipeline, f.sessions)
	ctx := context.Background()

	s, err := m.Compose(ctx, btcSend("100000"))
	require.NoError(t, err)
	_, err = m.Review(ctx, s.ID)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := m.Sign(ctx, s.ID)
		errCh <- err
	}()
	<-client.started

	cancelled, err := m.Cancel(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, cancelled.State)

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, errno.ErrInvalidTransition))
	case <-time.After(2 * time.Second):
		t.Fatal("sign did not return after cancel")
	}
	assert.Equal(t, []string{device.ReasonTxCancelled}, f.fake.CancelReasons())
	assert.Len(t, f.sessions.Records(), 1, "session is recorded once")
}

// countingSigner 统计同时进行中的签名调用，签名阻塞到 release 关闭
type countingSigner struct {
	*devicetest.Fake
	started  chan struct{}
	release  chan struct{}
	once     sync.Once
	inflight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (c *countingSigner) SignTransaction(ctx context.Context, p device.SignParams) device.Response[device.SignPayload] {
	c.calls.Add(1)
	n := c.inflight.Add(1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	c.once.Do(func() { close(c.started) })
	<-c.release
	c.inflight.Add(-1)
	return c.Fake.SignTransaction(ctx, p)
}

func newCountingManager(f *fixture) (*Manager, *countingSigner) {
	client := &countingSigner{Fake: f.fake, started: make(chan struct{}), release: make(chan struct{})}
	sink := effect.Fanout{f.rec, f.state}
	pipeline := NewPipeline(client, f.state, sink, f.locker, cache.NewMemoryCache(time.Hour, time.Hour), f.refresher)
	return NewManager(compose.NewDefaultDispatcher(), client, f.state, sink, pipeline, f.sessions), client
}

func TestManager_SignSerialized(t *testing.T) {
	f := newFixture()
	f.state.SelectAccount(btcAccount())
	m, client := newCountingManager(f)
	ctx := context.Background()

	s, err := m.Compose(ctx, btcSend("100000"))
	require.NoError(t, err)
	_, err = m.Review(ctx, s.ID)
	require.NoError(t, err)

	const callers = 4
	type result struct {
		session *Session
		err     error
	}
	results := make(chan result, callers)
	go func() {
		signed, err := m.Sign(ctx, s.ID)
		results <- result{signed, err}
	}()
	<-client.started

	var wg sync.WaitGroup
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			signed, err := m.Sign(ctx, s.ID)
			results <- result{signed, err}
		}()
	}
	wg.Wait()

	inFlight, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSigning, inFlight.State)

	_, err = m.Push(ctx, s.ID)
	assert.True(t, errors.Is(err, errno.ErrInvalidTransition), "push waits for the signature")
	close(client.release)

	var signed, busy int
	for i := 0; i < callers; i++ {
		select {
		case r := <-results:
			if r.err == nil {
				signed++
				assert.Equal(t, StateSigned, r.session.State)
				continue
			}
			assert.True(t, errors.Is(r.err, errno.ErrDeviceBusy), r.err)
			busy++
		case <-time.After(2 * time.Second):
			t.Fatal("sign did not return")
		}
	}
	assert.Equal(t, 1, signed)
	assert.Equal(t, callers-1, busy)
	assert.Equal(t, int32(1), client.calls.Load(), "device sees a single sign request")
	assert.Equal(t, int32(1), client.peak.Load())
	assert.Len(t, f.fake.Calls(), 1)

	pushed, err := m.Push(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatePushedSuccess, pushed.State)
}

// blockingPusher 广播调用阻塞到 release 关闭
type blockingPusher struct {
	*devicetest.Fake
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func (b *blockingPusher) PushTransaction(ctx context.Context, p device.PushParams) device.Response[device.PushPayload] {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })
	<-b.release
	return b.Fake.PushTransaction(ctx, p)
}

func TestManager_PushInFlight(t *testing.T) {
	f := newFixture()
	f.state.SelectAccount(btcAccount())
	client := &blockingPusher{Fake: f.fake, started: make(chan struct{}), release: make(chan struct{})}
	sink := effect.Fanout{f.rec, f.state}
	pipeline := NewPipeline(client, f.state, sink, f.locker, cache.NewMemoryCache(time.Hour, time.Hour), f.refresher)
	m := NewManager(compose.NewDefaultDispatcher(), client, f.state, sink, pipeline, f.sessions)
	ctx := context.Background()

	s, err := m.Compose(ctx, btcSend("100000"))
	require.NoError(t, err)
	_, err = m.Review(ctx, s.ID)
	require.NoError(t, err)
	_, err = m.Sign(ctx, s.ID)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := m.Push(ctx, s.ID)
		done <- err
	}()
	<-client.started

	_, err = m.Push(ctx, s.ID)
	assert.True(t, errors.Is(err, errno.ErrDeviceBusy))
	_, err = m.Cancel(ctx, s.ID)
	assert.True(t, errors.Is(err, errno.ErrDeviceBusy), "cannot cancel while broadcasting")
	_, err = m.Sign(ctx, s.ID)
	assert.True(t, errors.Is(err, errno.ErrInvalidTransition))
	close(client.release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("push did not return")
	}
	assert.Equal(t, int32(1), client.calls.Load())
	require.Len(t, f.sessions.Records(), 1)
	assert.Equal(t, string(StatePushedSuccess), f.sessions.Records()[0].State)
}

func TestState_Transitions(t *testing.T) {
	assert.True(t, StateComposed.CanTransition(StateReviewing))
	assert.True(t, StateReviewing.CanTransition(StateSigning))
	assert.True(t, StateSigning.CanTransition(StateSigned))
	assert.True(t, StateSigning.CanTransition(StateCancelled))
	assert.True(t, StateSigned.CanTransition(StatePushedFailure))
	assert.False(t, StateComposed.CanTransition(StateSigned))
	assert.False(t, StateComposed.CanTransition(StateCancelled))
	assert.False(t, StateReviewing.CanTransition(StateSigned))
	for _, terminal := range []State{StatePushedSuccess, StatePushedFailure, StateCancelled} {
		assert.True(t, terminal.Terminal())
		assert.False(t, terminal.CanTransition(StateCancelled))
	}
}
