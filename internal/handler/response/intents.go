package response

import "wallet-suite/internal/effect"

// WithIntents 业务数据加上本次请求期间发出的意图
type WithIntents struct {
	Result  interface{}     `json:"result"`
	Intents []effect.Intent `json:"intents"`
}

func Wrap(result interface{}, rec *effect.Recorder) WithIntents {
	intents := rec.Intents()
	if intents == nil {
		intents = []effect.Intent{}
	}
	return WithIntents{Result: result, Intents: intents}
}
