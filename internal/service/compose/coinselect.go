package compose

import (
	"sort"

	"wallet-suite/internal/model"
)

const (
	dustLimit      = 546   // satoshi
	txOverheadSize = 11    // version + locktime + 计数字段 + segwit marker (向上取整)
	maxFeeRate     = 10000 // sat/vB，与 bitcoind sendrawtransaction 默认 maxfeerate (0.1 BTC/kvB) 一致
)

type coin struct {
	utxo  model.UTXO
	value int64
	size  int // 作为输入时的 vbytes
}

type selection struct {
	inputs []coin
	total  int64
	fee    int64
	change int64 // 0 表示无找零 (低于 dust 的部分并入手续费)
	size   int
}

// selectCoins 与 Klingnet 钱包相同的两种策略：能覆盖目标的最小单个 UTXO，
// 以及从大到小累加；取找零更少的一个。手续费随输入数量变化，每一步都重新计算
func selectCoins(coins []coin, amount int64, feeRate int64, baseSize, changeSize int) *selection {
	candidates := make([]coin, 0, len(coins))
	for _, c := range coins {
		if c.value > 0 {
			candidates = append(candidates, c)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].value < candidates[j].value })

	var single *selection
	for _, c := range candidates {
		if s := settle([]coin{c}, amount, feeRate, baseSize, changeSize); s != nil {
			single = s
			break
		}
	}

	var accum *selection
	var picked []coin
	for i := len(candidates) - 1; i >= 0; i-- {
		picked = append(picked, candidates[i])
		if s := settle(picked, amount, feeRate, baseSize, changeSize); s != nil {
			accum = s
			break
		}
	}

	switch {
	case single != nil && accum != nil:
		if single.change <= accum.change {
			return single
		}
		return accum
	case single != nil:
		return single
	default:
		return accum
	}
}

// settle 计算给定输入集合的手续费和找零，不足以支付时返回 nil
func settle(inputs []coin, amount, feeRate int64, baseSize, changeSize int) *selection {
	var total int64
	size := baseSize
	for _, c := range inputs {
		total += c.value
		size += c.size
	}

	fee := feeRate * int64(size)
	if total < amount+fee {
		return nil
	}
	s := &selection{inputs: append([]coin(nil), inputs...), total: total, fee: fee, size: size}

	withChangeFee := feeRate * int64(size+changeSize)
	if change := total - amount - withChangeFee; change >= dustLimit {
		s.fee = withChangeFee
		s.change = change
		s.size = size + changeSize
		return s
	}
	s.fee = total - amount
	return s
}
