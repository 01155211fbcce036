package compose

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/pkg/address"
	"wallet-suite/pkg/wallet/types"
)

const (
	defaultRippleFee     = 12       // drops
	defaultRippleReserve = 20000000 // drops, 账户基础保留金
)

var errInvalidUnits = errors.New("amount must be a positive integer in base units")

// RippleComposer ledger based 家族
type RippleComposer struct{}

func NewRippleComposer() *RippleComposer {
	return &RippleComposer{}
}

func (c *RippleComposer) Compose(_ context.Context, req *model.ComposeRequest) (*model.PrecomposedTransaction, error) {
	if _, err := network.MustLookup(req.Account.Symbol); err != nil {
		return nil, err
	}
	if len(req.Outputs) != 1 {
		return model.Failed(model.ErrInvalidAmount), nil
	}
	out := req.Outputs[0]
	if address.ValidateXRP(out.Address) != nil {
		return model.Failed(model.ErrInvalidAddress), nil
	}
	if out.Address == req.Account.Descriptor {
		return model.Failed(model.ErrSameAddress), nil
	}

	fee := decimal.NewFromInt(defaultRippleFee)
	if req.FeeLevel.FeePerUnit != "" {
		f, err := parseUnits(req.FeeLevel.FeePerUnit)
		if err != nil {
			return model.Failed(model.ErrIncorrectFeeRate), nil
		}
		fee = f
	}
	reserve := decimal.NewFromInt(defaultRippleReserve)
	if r, err := decimal.NewFromString(req.Account.Misc.Reserve); err == nil {
		reserve = r
	}
	balance, err := decimal.NewFromString(req.Account.Balance)
	if err != nil {
		balance = decimal.Zero
	}
	spendable := balance.Sub(reserve).Sub(fee)

	result := &model.PrecomposedTransaction{
		Type:        model.PrecomposedFinal,
		NetworkType: network.Ripple,
		Fee:         fee.String(),
		FeePerByte:  fee.String(),
	}

	var value decimal.Decimal
	if out.SetMax {
		value = spendable
		result.Max = value.String()
		if !value.IsPositive() {
			return model.Failed(model.ErrNotEnoughFunds), nil
		}
	} else if value, err = parseUnits(out.Amount); err != nil {
		return model.Failed(model.ErrInvalidAmount), nil
	}
	if value.GreaterThan(spendable) {
		return model.Failed(model.ErrNotEnoughFunds), nil
	}

	result.TotalSpent = value.Add(fee).String()
	result.Transaction = &types.UnsignedTransaction{Ripple: &types.RippleTx{
		Account:        req.Account.Descriptor,
		Destination:    out.Address,
		Amount:         value.String(),
		Fee:            fee.String(),
		Sequence:       req.Account.Misc.Sequence,
		DestinationTag: req.DestinationTag,
		DerivationPath: req.Account.Path,
	}}
	return result, nil
}
