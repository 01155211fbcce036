package model

// VerificationOutcome 地址校验结果
type VerificationOutcome string

const (
	// OutcomeSkipped 前置条件不满足，静默跳过
	OutcomeSkipped           VerificationOutcome = "skipped"
	OutcomeVerified          VerificationOutcome = "verified"
	OutcomeUnverifiedWarning VerificationOutcome = "unverified-warning"
	OutcomeRejected          VerificationOutcome = "rejected-or-unsupported"
)

// Flow 触发校验的业务流程
type Flow string

const (
	FlowBuy      Flow = "buy"
	FlowExchange Flow = "exchange"
)
