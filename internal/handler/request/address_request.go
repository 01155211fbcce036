package request

// VerifyAddressRequest 在设备上校验当前账户的下一个未使用地址
type VerifyAddressRequest struct {
	Flow string `json:"flow" binding:"omitempty,oneof=buy exchange"` // 默认 buy
}
