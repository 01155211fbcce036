// Package device is the client side contract of the hardware signing device.
// Every call settles to a tagged Response; transport faults are folded into a
// Failure so callers only ever handle one shape.
package device

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/event"

	"wallet-suite/pkg/wallet/types"
)

// Device method names, used for logging, metrics and failure injection
const (
	MethodGetAddress         = "getAddress"
	MethodEthereumGetAddress = "ethereumGetAddress"
	MethodRippleGetAddress   = "rippleGetAddress"
	MethodSignTransaction    = "signTransaction"
	MethodPushTransaction    = "pushTransaction"
)

const (
	ButtonRequestAddress = "ButtonRequest_Address"
	ButtonRequestSignTx  = "ButtonRequest_SignTx"

	// CodePermissionsNotGranted 用户未授予备份权限，调用方应静默忽略
	CodePermissionsNotGranted = "Method_PermissionsNotGranted"
	CodeActionCancelled       = "Failure_ActionCancelled"
	CodeDataError             = "Failure_DataError"
	CodeTransport             = "Transport_Error"

	// MessageMethodNotDefined 网络家族没有对应的设备调用
	MessageMethodNotDefined = "Method for getAddress not defined"

	ReasonTxCancelled = "tx-cancelled"
)

// Failure 设备返回的业务错误
type Failure struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Response 设备调用结果。Success 为 true 时 Payload 有效，否则 Failure 非空
type Response[T any] struct {
	Success bool
	Payload T
	Failure *Failure
}

// Ok 构造成功结果
func Ok[T any](payload T) Response[T] {
	return Response[T]{Success: true, Payload: payload}
}

// Fail 构造失败结果
func Fail[T any](message, code string) Response[T] {
	return Response[T]{Failure: &Failure{Error: message, Code: code}}
}

// Err 返回失败信息，成功时为 nil
func (r Response[T]) Err() *Failure {
	if r.Success {
		return nil
	}
	if r.Failure == nil {
		return &Failure{Error: "unknown device failure"}
	}
	return r.Failure
}

type wireResponse struct {
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalJSON 输出 {success, payload}，失败时 payload 为 {error, code}
func (r Response[T]) MarshalJSON() ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	if r.Success {
		payload, err = json.Marshal(r.Payload)
	} else {
		payload, err = json.Marshal(r.Err())
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireResponse{Success: r.Success, Payload: payload})
}

func (r *Response[T]) UnmarshalJSON(data []byte) error {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Response[T]{Success: w.Success}
	if len(w.Payload) == 0 || string(w.Payload) == "null" {
		if !w.Success {
			r.Failure = &Failure{}
		}
		return nil
	}
	if w.Success {
		return json.Unmarshal(w.Payload, &r.Payload)
	}
	r.Failure = &Failure{}
	return json.Unmarshal(w.Payload, r.Failure)
}

// AddressParams 地址派生参数；Address 非空时设备会比对并在屏幕上展示
type AddressParams struct {
	Device             string `json:"device"`
	Path               string `json:"path"`
	Address            string `json:"address,omitempty"`
	Coin               string `json:"coin"`
	ShowOnDevice       bool   `json:"showOnDevice"`
	UseEmptyPassphrase bool   `json:"useEmptyPassphrase"`
}

type AddressPayload struct {
	Address string `json:"address"`
	Path    string `json:"path"`
}

type SignParams struct {
	Device             string                     `json:"device"`
	Coin               string                     `json:"coin"`
	Transaction        *types.UnsignedTransaction `json:"transaction"`
	UseEmptyPassphrase bool                       `json:"useEmptyPassphrase"`
}

type SignPayload struct {
	Serialized string `json:"serializedTx"`
	Txid       string `json:"txid,omitempty"`
}

type PushParams struct {
	Tx   string `json:"tx"`
	Coin string `json:"coin"`
}

type PushPayload struct {
	Txid string `json:"txid"`
}

// Client 硬件设备 RPC 客户端。调用方负责同一设备上的调用串行化
type Client interface {
	GetAddress(ctx context.Context, p AddressParams) Response[AddressPayload]
	EthereumGetAddress(ctx context.Context, p AddressParams) Response[AddressPayload]
	RippleGetAddress(ctx context.Context, p AddressParams) Response[AddressPayload]
	SignTransaction(ctx context.Context, p SignParams) Response[SignPayload]
	PushTransaction(ctx context.Context, p PushParams) Response[PushPayload]
	// Cancel 中止设备上正在进行的操作
	Cancel(ctx context.Context, reason string)
	SubscribeButtonRequests(ch chan<- ButtonRequest) event.Subscription
}
