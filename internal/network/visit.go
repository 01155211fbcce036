package network

import (
	"fmt"

	"wallet-suite/pkg/errno"
)

// Visitor handles one network family per method. Implementations must provide every
// family, so adding a family to this interface breaks each implementer at compile time
// instead of falling through a runtime default branch.
type Visitor[T any] interface {
	VisitBitcoin() (T, error)
	VisitEthereum() (T, error)
	VisitRipple() (T, error)
}

// Visit 按网络家族分派到 Visitor 对应方法，未知家族返回 ErrUnsupportedNetwork
func Visit[T any](t Type, v Visitor[T]) (T, error) {
	switch t {
	case Bitcoin:
		return v.VisitBitcoin()
	case Ethereum:
		return v.VisitEthereum()
	case Ripple:
		return v.VisitRipple()
	}
	var zero T
	return zero, fmt.Errorf("%w: %q", errno.ErrUnsupportedNetwork, string(t))
}

// Valid 是否为已知家族
func (t Type) Valid() bool {
	return t == Bitcoin || t == Ethereum || t == Ripple
}
