package compose

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/pkg/address"
	"wallet-suite/pkg/wallet/types"
)

const (
	nativeGasLimit = 21000
	tokenGasLimit  = 200000
)

// transferSelector ERC-20 transfer(address,uint256) 方法签名
var transferSelector = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

// EthereumComposer account based 家族，支持原生币和 ERC-20
type EthereumComposer struct{}

func NewEthereumComposer() *EthereumComposer {
	return &EthereumComposer{}
}

func (c *EthereumComposer) Compose(_ context.Context, req *model.ComposeRequest) (*model.PrecomposedTransaction, error) {
	n, err := network.MustLookup(req.Account.Symbol)
	if err != nil {
		return nil, err
	}
	if len(req.Outputs) != 1 {
		return model.Failed(model.ErrInvalidAmount), nil
	}
	out := req.Outputs[0]
	if address.ValidateETH(out.Address) != nil {
		return model.Failed(model.ErrInvalidAddress), nil
	}

	gasPrice, err := decimal.NewFromString(req.FeeLevel.FeePerUnit)
	if err != nil || !gasPrice.IsInteger() || !gasPrice.IsPositive() {
		return model.Failed(model.ErrIncorrectFeeRate), nil
	}
	gasLimit := req.FeeLevel.FeeLimit
	if gasLimit == 0 {
		gasLimit = nativeGasLimit
		if req.Token != "" {
			gasLimit = tokenGasLimit
		}
	}
	fee := gasPrice.Mul(decimal.NewFromInt(int64(gasLimit)))

	balance, err := decimal.NewFromString(req.Account.Balance)
	if err != nil {
		balance = decimal.Zero
	}

	tx := &types.EthereumTx{
		Nonce:          req.Account.Misc.Nonce,
		GasLimit:       gasLimit,
		GasPrice:       gasPrice.String(),
		ChainID:        n.ChainID,
		DerivationPath: req.Account.Path,
	}
	result := &model.PrecomposedTransaction{
		Type:        model.PrecomposedFinal,
		NetworkType: network.Ethereum,
		Fee:         fee.String(),
		FeePerByte:  gasPrice.String(),
		Transaction: &types.UnsignedTransaction{Ethereum: tx},
	}

	// 手续费总是以原生币支付
	if balance.LessThan(fee) {
		return model.Failed(model.ErrNotEnoughFunds), nil
	}

	if req.Token == "" {
		var value decimal.Decimal
		if out.SetMax {
			value = balance.Sub(fee)
			result.Max = value.String()
		} else if value, err = parseUnits(out.Amount); err != nil {
			return model.Failed(model.ErrInvalidAmount), nil
		}
		if !value.IsPositive() || value.Add(fee).GreaterThan(balance) {
			return model.Failed(model.ErrNotEnoughFunds), nil
		}
		tx.To = out.Address
		tx.Value = value.String()
		result.TotalSpent = value.Add(fee).String()
		return result, nil
	}

	token, ok := req.Account.Token(req.Token)
	if !ok {
		return model.Failed(model.ErrTokenNotFound), nil
	}
	tokenBalance, err := decimal.NewFromString(token.Balance)
	if err != nil {
		tokenBalance = decimal.Zero
	}
	var value decimal.Decimal
	if out.SetMax {
		value = tokenBalance
		result.Max = value.String()
	} else if value, err = parseUnits(out.Amount); err != nil {
		return model.Failed(model.ErrInvalidAmount), nil
	}
	if value.IsZero() || value.GreaterThan(tokenBalance) {
		return model.Failed(model.ErrNotEnoughFunds), nil
	}

	tx.To = common.HexToAddress(token.Address).Hex()
	tx.Value = "0"
	tx.Data = hexutil.Encode(transferData(out.Address, value.BigInt()))
	result.TotalSpent = value.String()
	result.Token = &model.TokenInfo{
		Address:  tx.To,
		Symbol:   strings.ToUpper(token.Symbol),
		Name:     token.Name,
		Decimals: token.Decimals,
	}
	return result, nil
}

// parseUnits 最小单位金额，必须为正整数
func parseUnits(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsInteger() || !d.IsPositive() {
		return decimal.Zero, errInvalidUnits
	}
	return d, nil
}

// transferData selector + 32 字节地址 + 32 字节金额
func transferData(to string, value *big.Int) []byte {
	data := make([]byte, 0, 4+32+32)
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(to).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(value.Bytes(), 32)...)
	return data
}
