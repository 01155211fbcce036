package store

import (
	"wallet-suite/internal/effect"
	"wallet-suite/internal/model"
)

const (
	ActionSaveSignedTx          = "SAVE_SIGNED_TX"
	ActionSaveTransactionInfo   = "SAVE_TRANSACTION_INFO"
	ActionBuyVerifyAddress      = "COINMARKET_BUY/VERIFY_ADDRESS"
	ActionExchangeVerifyAddress = "COINMARKET_EXCHANGE/VERIFY_ADDRESS"
)

// SaveSignedTx 保存设备签名结果
func SaveSignedTx(tx *model.SignedTransaction) effect.Action {
	return effect.Action{Type: ActionSaveSignedTx, Payload: tx}
}

// SaveTransactionInfo 保存待签名交易
func SaveTransactionInfo(info *model.PrecomposedTransaction) effect.Action {
	return effect.Action{Type: ActionSaveTransactionInfo, Payload: info}
}

// VerifyAddress 记录已在设备上确认的地址，按流程区分
func VerifyAddress(flow model.Flow, address string) effect.Action {
	if flow == model.FlowExchange {
		return effect.Action{Type: ActionExchangeVerifyAddress, Payload: address}
	}
	return effect.Action{Type: ActionBuyVerifyAddress, Payload: address}
}
