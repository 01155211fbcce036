package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-suite/internal/device"
	"wallet-suite/internal/effect"
	"wallet-suite/internal/model"
	"wallet-suite/pkg/errno"
)

func btcReview() ReviewData {
	return ReviewData{
		SignedTx:        &model.SignedTransaction{Tx: "0200aabb", Coin: "btc", Descriptor: "zpub-btc"},
		TransactionInfo: &model.PrecomposedTransaction{Type: model.PrecomposedFinal, TotalSpent: "150000000", Fee: "10000"},
	}
}

func TestPushTransaction_Success(t *testing.T) {
	f := newFixture()
	f.state.SelectAccount(btcAccount())

	ok := f.pipeline.PushTransaction(context.Background(), btcReview())
	require.True(t, ok)

	calls := f.fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, device.MethodPushTransaction, calls[0].Method)
	assert.Equal(t, "0200aabb", calls[0].Push.Tx)
	assert.Equal(t, "btc", calls[0].Push.Coin)

	assert.Equal(t, []effect.Notification{{
		Type:            effect.NotifyTxSent,
		FormattedAmount: "1.4999 BTC",
		Device:          "dev-1",
		Descriptor:      "zpub-btc",
		Symbol:          "btc",
		Txid:            "txid-0200aabb",
	}}, f.rec.Notifications())
	assert.Equal(t, 1, f.rec.ModalCloses(), "signed tx exists, so cancel only closes the modal")
	assert.Empty(t, f.fake.CancelReasons())
	assert.Equal(t, []string{"zpub-btc"}, f.refresher.Refreshed())
}

func TestPushTransaction_TokenAmount(t *testing.T) {
	f := newFixture()
	f.state.SelectAccount(ethAccount())

	ok := f.pipeline.PushTransaction(context.Background(), ReviewData{
		SignedTx: &model.SignedTransaction{Tx: "0xf86b", Coin: "eth"},
		TransactionInfo: &model.PrecomposedTransaction{
			Type:       model.PrecomposedFinal,
			TotalSpent: "100",
			Fee:        "4000000000000000",
			Token:      &model.TokenInfo{Symbol: "usdt", Decimals: 6},
		},
	})
	require.True(t, ok)

	notes := f.rec.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "0.0001 USDT", notes[0].FormattedAmount)
}

func TestPushTransaction_MissingInputs(t *testing.T) {
	review := btcReview()
	tests := []struct {
		name    string
		review  ReviewData
		account *model.Account
		wantErr error
	}{
		{"no signed tx", ReviewData{TransactionInfo: review.TransactionInfo}, btcAccount(), errno.ErrReviewIncomplete},
		{"no transaction info", ReviewData{SignedTx: review.SignedTx}, btcAccount(), errno.ErrReviewIncomplete},
		{"no account", review, nil, errno.ErrAccountNotSelected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.state.SelectAccount(tt.account)

			_, err := f.pipeline.Push(context.Background(), tt.review)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, f.pipeline.PushTransaction(context.Background(), tt.review))
			assert.Empty(t, f.rec.Intents())
			assert.Empty(t, f.fake.Calls())
			assert.Empty(t, f.refresher.Refreshed())
		})
	}
}

func TestPushTransaction_DeviceFailure(t *testing.T) {
	f := newFixture()
	f.state.SelectAccount(btcAccount())
	failed := device.Fail[device.PushPayload]("bad-txns-inputs-missingorspent", device.CodeDataError)
	f.fake.Push = &failed

	assert.False(t, f.pipeline.PushTransaction(context.Background(), btcReview()))
	assert.Equal(t, []effect.Notification{{
		Type:  effect.NotifySignTxError,
		Error: "bad-txns-inputs-missingorspent",
	}}, f.rec.Notifications())
	assert.Equal(t, 1, f.rec.ModalCloses())
	assert.Empty(t, f.refresher.Refreshed())
}

func TestPushTransaction_ConsumedOnce(t *testing.T) {
	f := newFixture()
	f.state.SelectAccount(btcAccount())

	assert.True(t, f.pipeline.PushTransaction(context.Background(), btcReview()))
	assert.False(t, f.pipeline.PushTransaction(context.Background(), btcReview()))
	_, err := f.pipeline.Push(context.Background(), btcReview())
	assert.ErrorIs(t, err, errno.ErrAlreadyPushed)
	assert.Len(t, f.fake.Calls(), 1)
	assert.Len(t, f.rec.Notifications(), 1)
}

func TestPushTransaction_AccountBusy(t *testing.T) {
	f := newFixture()
	f.state.SelectAccount(btcAccount())
	ok, err := f.locker.Acquire(context.Background(), "push:zpub-btc", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.pipeline.Push(context.Background(), btcReview())
	assert.ErrorIs(t, err, errno.ErrDeviceBusy)
	assert.Empty(t, f.fake.Calls())
	assert.Empty(t, f.rec.Intents())

	require.NoError(t, f.locker.Release(context.Background(), "push:zpub-btc"))
	assert.True(t, f.pipeline.PushTransaction(context.Background(), btcReview()), "a skipped push does not consume the payload")
}

func TestCancelSignTx(t *testing.T) {
	f := newFixture()

	f.pipeline.CancelSignTx(context.Background(), nil)
	assert.Equal(t, []string{device.ReasonTxCancelled}, f.fake.CancelReasons())
	assert.Zero(t, f.rec.ModalCloses())

	f.pipeline.CancelSignTx(context.Background(), &model.SignedTransaction{Tx: "00"})
	assert.Len(t, f.fake.CancelReasons(), 1, "a signed tx never cancels the device")
	assert.Equal(t, 1, f.rec.ModalCloses())
}

func TestFormattedAmount(t *testing.T) {
	acct := &model.Account{Symbol: "xrp"}
	assert.Equal(t, "1 XRP", formattedAmount(acct, &model.PrecomposedTransaction{TotalSpent: "1000012", Fee: "12"}))
	assert.Equal(t, "1.5 BTC", formattedAmount(&model.Account{Symbol: "btc"}, &model.PrecomposedTransaction{TotalSpent: "150000000"}))
}
