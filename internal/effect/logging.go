package effect

import (
	"context"

	"go.uber.org/zap"
)

// Logging 记录每条意图的日志
type Logging struct {
	log *zap.Logger
}

func NewLogging(log *zap.Logger) *Logging {
	return &Logging{log: log}
}

func (l *Logging) Notify(_ context.Context, n Notification) {
	fields := []zap.Field{zap.String("type", string(n.Type)), zap.String("descriptor", n.Descriptor)}
	if n.Error != "" {
		l.log.Warn("notification", append(fields, zap.String("error", n.Error))...)
		return
	}
	l.log.Info("notification", append(fields, zap.String("amount", n.FormattedAmount), zap.String("txid", n.Txid))...)
}

func (l *Logging) OpenModal(_ context.Context, m Modal) {
	l.log.Info("open modal", zap.String("type", string(m.Type)), zap.String("symbol", m.Symbol), zap.String("path", m.AddressPath))
}

func (l *Logging) CloseModal(context.Context) {
	l.log.Debug("close modal")
}

func (l *Logging) Dispatch(_ context.Context, a Action) {
	l.log.Debug("dispatch", zap.String("action", a.Type))
}
