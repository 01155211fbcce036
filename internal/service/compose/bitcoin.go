package compose

import (
	"context"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/pkg/bip32"
	"wallet-suite/pkg/wallet/types"
)

// 输入/输出的 vbytes 估算
const (
	inputSizeP2PKH  = 148
	inputSizeP2WPKH = 68

	outputSizeP2PKH  = 34
	outputSizeP2SH   = 32
	outputSizeP2WPKH = 31
	outputSizeP2WSH  = 43 // 同样适用于 P2TR
)

// BitcoinComposer UTXO 家族
type BitcoinComposer struct{}

func NewBitcoinComposer() *BitcoinComposer {
	return &BitcoinComposer{}
}

type btcOutput struct {
	address string
	amount  int64
	setMax  bool
	size    int
}

func (c *BitcoinComposer) Compose(_ context.Context, req *model.ComposeRequest) (*model.PrecomposedTransaction, error) {
	n, err := network.MustLookup(req.Account.Symbol)
	if err != nil {
		return nil, err
	}

	feeRate, err := strconv.ParseInt(req.FeeLevel.FeePerUnit, 10, 64)
	if err != nil || feeRate < 1 || feeRate > maxFeeRate {
		return model.Failed(model.ErrIncorrectFeeRate), nil
	}
	if len(req.Outputs) == 0 {
		return model.Failed(model.ErrInvalidAmount), nil
	}

	outputs := make([]btcOutput, 0, len(req.Outputs))
	var maxIndex = -1
	for i, o := range req.Outputs {
		size, ok := outputSize(o.Address, n.Params)
		if !ok {
			return model.Failed(model.ErrInvalidAddress), nil
		}
		out := btcOutput{address: o.Address, setMax: o.SetMax, size: size}
		if o.SetMax {
			if maxIndex >= 0 {
				return model.Failed(model.ErrInvalidAmount), nil
			}
			maxIndex = i
		} else {
			amount, err := strconv.ParseInt(o.Amount, 10, 64)
			if err != nil || amount <= 0 || amount > btcutil.MaxSatoshi {
				return model.Failed(model.ErrInvalidAmount), nil
			}
			if amount < dustLimit {
				return model.Failed(model.ErrAmountTooLow), nil
			}
			out.amount = amount
		}
		outputs = append(outputs, out)
	}

	coins, err := accountCoins(&req.Account)
	if err != nil {
		return model.Failed(model.ErrInvalidAmount), nil
	}

	baseSize := txOverheadSize
	var target int64
	for _, o := range outputs {
		baseSize += o.size
		target += o.amount
	}
	if target > btcutil.MaxSatoshi {
		return model.Failed(model.ErrInvalidAmount), nil
	}

	var sel *selection
	if maxIndex >= 0 {
		sel = spendAll(coins, target, feeRate, baseSize)
		if sel == nil {
			return model.Failed(model.ErrNotEnoughFunds), nil
		}
		outputs[maxIndex].amount = sel.total - sel.fee - target
		if outputs[maxIndex].amount < dustLimit {
			return model.Failed(model.ErrAmountTooLow), nil
		}
		target += outputs[maxIndex].amount
	} else {
		changeSize := outputSizeP2WPKH
		change, hasChange := changeAddress(&req.Account)
		if hasChange {
			if s, ok := outputSize(change.Address, n.Params); ok {
				changeSize = s
			}
		}
		sel = selectCoins(coins, target, feeRate, baseSize, changeSize)
		if sel == nil {
			return model.Failed(model.ErrNotEnoughFunds), nil
		}
		if sel.change > 0 && !hasChange {
			return model.Failed(model.ErrNoChangeAddress), nil
		}
	}

	tx := &types.BitcoinTx{}
	for _, in := range sel.inputs {
		tx.Inputs = append(tx.Inputs, types.BitcoinInput{
			Txid:   in.utxo.Txid,
			Vout:   in.utxo.Vout,
			Amount: in.utxo.Amount,
			Path:   in.utxo.Path,
		})
	}
	for _, o := range outputs {
		tx.Outputs = append(tx.Outputs, types.BitcoinOutput{
			Address: o.address,
			Amount:  strconv.FormatInt(o.amount, 10),
		})
	}
	if sel.change > 0 {
		change, _ := changeAddress(&req.Account)
		tx.Outputs = append(tx.Outputs, types.BitcoinOutput{
			Address: change.Address,
			Amount:  strconv.FormatInt(sel.change, 10),
			Change:  true,
			Path:    change.Path,
		})
	}

	result := &model.PrecomposedTransaction{
		Type:        model.PrecomposedFinal,
		NetworkType: network.Bitcoin,
		TotalSpent:  strconv.FormatInt(target+sel.fee, 10),
		Fee:         strconv.FormatInt(sel.fee, 10),
		FeePerByte:  strconv.FormatInt(feeRate, 10),
		Bytes:       sel.size,
		Transaction: &types.UnsignedTransaction{Bitcoin: tx},
	}
	if maxIndex >= 0 {
		result.Max = strconv.FormatInt(outputs[maxIndex].amount, 10)
	}
	return result, nil
}

// spendAll 花费全部 UTXO，不产生找零
func spendAll(coins []coin, fixed, feeRate int64, baseSize int) *selection {
	if len(coins) == 0 {
		return nil
	}
	s := &selection{inputs: coins, size: baseSize}
	for _, c := range coins {
		s.total += c.value
		s.size += c.size
	}
	s.fee = feeRate * int64(s.size)
	if s.total <= fixed+s.fee {
		return nil
	}
	return s
}

// accountCoins 解析账户 UTXO。金额为负、超过总供应量或合计超过总供应量时报错，
// 保证后续的金额与手续费运算不会溢出
func accountCoins(a *model.Account) ([]coin, error) {
	inputSize := inputSizeP2PKH
	if purpose, err := bip32.Purpose(a.Path); err == nil && purpose == 84 {
		inputSize = inputSizeP2WPKH
	}
	coins := make([]coin, 0, len(a.UTXO))
	var total int64
	for _, u := range a.UTXO {
		v, err := strconv.ParseInt(u.Amount, 10, 64)
		if err != nil {
			return nil, err
		}
		if v < 0 || v > btcutil.MaxSatoshi {
			return nil, fmt.Errorf("utxo %s:%d amount %d out of range", u.Txid, u.Vout, v)
		}
		total += v
		if total > btcutil.MaxSatoshi {
			return nil, fmt.Errorf("utxo total exceeds %d", int64(btcutil.MaxSatoshi))
		}
		coins = append(coins, coin{utxo: u, value: v, size: inputSize})
	}
	return coins, nil
}

// changeAddress 优先使用未发生过交易的找零地址
func changeAddress(a *model.Account) (model.Address, bool) {
	if a.Addresses == nil || len(a.Addresses.Change) == 0 {
		return model.Address{}, false
	}
	for _, c := range a.Addresses.Change {
		if c.Transfers == 0 {
			return c, true
		}
	}
	return a.Addresses.Change[0], true
}

func outputSize(addr string, params *chaincfg.Params) (int, bool) {
	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil || !decoded.IsForNet(params) {
		return 0, false
	}
	switch decoded.(type) {
	case *btcutil.AddressPubKeyHash:
		return outputSizeP2PKH, true
	case *btcutil.AddressScriptHash:
		return outputSizeP2SH, true
	case *btcutil.AddressWitnessPubKeyHash:
		return outputSizeP2WPKH, true
	default:
		return outputSizeP2WSH, true
	}
}
