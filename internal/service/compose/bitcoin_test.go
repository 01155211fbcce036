package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
)

const (
	btcRecipient = "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"
	btcLegacy    = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	btcChange    = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
)

func btcAccount(path string, utxo ...string) model.Account {
	a := model.Account{
		Symbol:      "btc",
		NetworkType: network.Bitcoin,
		Descriptor:  "zpub-test",
		Path:        path,
		Addresses: &model.AccountAddresses{
			Change: []model.Address{
				{Address: btcLegacy, Path: path + "/1/0", Transfers: 2},
				{Address: btcChange, Path: path + "/1/1"},
			},
		},
	}
	for i, amount := range utxo {
		a.UTXO = append(a.UTXO, model.UTXO{
			Txid:    "aa" + string(rune('0'+i)),
			Vout:    uint32(i),
			Amount:  amount,
			Address: btcRecipient,
			Path:    path + "/0/0",
		})
	}
	return a
}

func composeBTC(t *testing.T, req *model.ComposeRequest) *model.PrecomposedTransaction {
	t.Helper()
	got, err := NewBitcoinComposer().Compose(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

func TestBitcoinComposer_PrefersLeastChange(t *testing.T) {
	got := composeBTC(t, &model.ComposeRequest{
		Account:  btcAccount("m/84'/0'/0'", "100000", "50000", "20000"),
		Outputs:  []model.ComposeOutput{{Address: btcRecipient, Amount: "30000"}},
		FeeLevel: model.FeeLevel{FeePerUnit: "1"},
	})

	require.True(t, got.IsFinal(), got.Error)
	assert.Equal(t, network.Bitcoin, got.NetworkType)
	// 11 overhead + 68 input + 31 output + 31 change
	assert.Equal(t, 141, got.Bytes)
	assert.Equal(t, "141", got.Fee)
	assert.Equal(t, "30141", got.TotalSpent)
	assert.Equal(t, "1", got.FeePerByte)
	assert.Empty(t, got.Max)

	tx := got.Transaction.Bitcoin
	require.NotNil(t, tx)
	require.Len(t, tx.Inputs, 1)
	assert.Equal(t, "50000", tx.Inputs[0].Amount)
	require.Len(t, tx.Outputs, 2)
	assert.Equal(t, btcRecipient, tx.Outputs[0].Address)
	assert.Equal(t, "30000", tx.Outputs[0].Amount)
	assert.True(t, tx.Outputs[1].Change)
	assert.Equal(t, btcChange, tx.Outputs[1].Address, "first unused change address")
	assert.Equal(t, "19859", tx.Outputs[1].Amount)
}

func TestBitcoinComposer_DustChangeGoesToFee(t *testing.T) {
	got := composeBTC(t, &model.ComposeRequest{
		Account:  btcAccount("m/84'/0'/0'", "30500"),
		Outputs:  []model.ComposeOutput{{Address: btcRecipient, Amount: "30000"}},
		FeeLevel: model.FeeLevel{FeePerUnit: "1"},
	})

	require.True(t, got.IsFinal(), got.Error)
	assert.Equal(t, "500", got.Fee)
	assert.Equal(t, "30500", got.TotalSpent)
	assert.Len(t, got.Transaction.Bitcoin.Outputs, 1)
}

func TestBitcoinComposer_LegacyInputs(t *testing.T) {
	got := composeBTC(t, &model.ComposeRequest{
		Account:  btcAccount("m/44'/0'/0'", "100000"),
		Outputs:  []model.ComposeOutput{{Address: btcLegacy, Amount: "30000"}},
		FeeLevel: model.FeeLevel{FeePerUnit: "2"},
	})

	require.True(t, got.IsFinal(), got.Error)
	// 11 + 148 + 34 + 31
	assert.Equal(t, 224, got.Bytes)
	assert.Equal(t, "448", got.Fee)
	assert.Equal(t, "30448", got.TotalSpent)
}

func TestBitcoinComposer_SetMax(t *testing.T) {
	got := composeBTC(t, &model.ComposeRequest{
		Account:  btcAccount("m/84'/0'/0'", "100000", "50000", "20000"),
		Outputs:  []model.ComposeOutput{{Address: btcRecipient, SetMax: true}},
		FeeLevel: model.FeeLevel{FeePerUnit: "1"},
	})

	require.True(t, got.IsFinal(), got.Error)
	// 11 + 3*68 + 31
	assert.Equal(t, 246, got.Bytes)
	assert.Equal(t, "169754", got.Max)
	assert.Equal(t, "170000", got.TotalSpent)
	assert.Len(t, got.Transaction.Bitcoin.Inputs, 3)
	assert.Len(t, got.Transaction.Bitcoin.Outputs, 1)
}

func TestBitcoinComposer_Failures(t *testing.T) {
	tests := []struct {
		name    string
		account model.Account
		outputs []model.ComposeOutput
		fee     string
		want    string
	}{
		{
			name:    "not enough funds",
			account: btcAccount("m/84'/0'/0'", "100000", "50000"),
			outputs: []model.ComposeOutput{{Address: btcRecipient, Amount: "200000"}},
			fee:     "1",
			want:    model.ErrNotEnoughFunds,
		},
		{
			name:    "invalid address",
			account: btcAccount("m/84'/0'/0'", "100000"),
			outputs: []model.ComposeOutput{{Address: "not-an-address", Amount: "1000"}},
			fee:     "1",
			want:    model.ErrInvalidAddress,
		},
		{
			name:    "zero fee rate",
			account: btcAccount("m/84'/0'/0'", "100000"),
			outputs: []model.ComposeOutput{{Address: btcRecipient, Amount: "1000"}},
			fee:     "0",
			want:    model.ErrIncorrectFeeRate,
		},
		{
			name:    "fee rate not a number",
			account: btcAccount("m/84'/0'/0'", "100000"),
			outputs: []model.ComposeOutput{{Address: btcRecipient, Amount: "1000"}},
			fee:     "fast",
			want:    model.ErrIncorrectFeeRate,
		},
		{
			name:    "dust amount",
			account: btcAccount("m/84'/0'/0'", "100000"),
			outputs: []model.ComposeOutput{{Address: btcRecipient, Amount: "545"}},
			fee:     "1",
			want:    model.ErrAmountTooLow,
		},
		{
			name:    "no change address",
			account: func() model.Account { a := btcAccount("m/84'/0'/0'", "100000"); a.Addresses = nil; return a }(),
			outputs: []model.ComposeOutput{{Address: btcRecipient, Amount: "1000"}},
			fee:     "1",
			want:    model.ErrNoChangeAddress,
		},
		{
			name:    "fee rate above cap",
			account: btcAccount("m/84'/0'/0'", "100000"),
			outputs: []model.ComposeOutput{{Address: btcRecipient, Amount: "1000"}},
			fee:     "10001",
			want:    model.ErrIncorrectFeeRate,
		},
		{
			name:    "overflowing fee rate",
			account: btcAccount("m/84'/0'/0'", "100000"),
			outputs: []model.ComposeOutput{{Address: btcRecipient, Amount: "1000"}},
			fee:     "9223372036854775807",
			want:    model.ErrIncorrectFeeRate,
		},
		{
			name:    "negative utxo amount",
			account: btcAccount("m/84'/0'/0'", "-5000000", "100000"),
			outputs: []model.ComposeOutput{{Address: btcRecipient, Amount: "1000"}},
			fee:     "1",
			want:    model.ErrInvalidAmount,
		},
		{
			name:    "utxo total above supply",
			account: btcAccount("m/84'/0'/0'", "2100000000000000", "2100000000000000"),
			outputs: []model.ComposeOutput{{Address: btcRecipient, Amount: "1000"}},
			fee:     "1",
			want:    model.ErrInvalidAmount,
		},
		{
			name:    "output amount above supply",
			account: btcAccount("m/84'/0'/0'", "100000"),
			outputs: []model.ComposeOutput{{Address: btcRecipient, Amount: "9223372036854775807"}},
			fee:     "1",
			want:    model.ErrInvalidAmount,
		},
		{
			name:    "no outputs",
			account: btcAccount("m/84'/0'/0'", "100000"),
			fee:     "1",
			want:    model.ErrInvalidAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := composeBTC(t, &model.ComposeRequest{
				Account:  tt.account,
				Outputs:  tt.outputs,
				FeeLevel: model.FeeLevel{FeePerUnit: tt.fee},
			})
			assert.Equal(t, model.PrecomposedError, got.Type)
			assert.Equal(t, tt.want, got.Error)
			assert.Nil(t, got.Transaction)
		})
	}
}

func TestSelectCoins_LargestFirstWhenNoSingleCovers(t *testing.T) {
	coins := []coin{{value: 40000, size: 68}, {value: 30000, size: 68}, {value: 10000, size: 68}}
	sel := selectCoins(coins, 60000, 1, 42, 31)
	require.NotNil(t, sel)
	require.Len(t, sel.inputs, 2)
	assert.Equal(t, int64(40000), sel.inputs[0].value)
	assert.Equal(t, int64(30000), sel.inputs[1].value)
	assert.Equal(t, sel.total, 60000+sel.fee+sel.change)
}
