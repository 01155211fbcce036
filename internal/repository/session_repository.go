// Package repository persists finished transaction sessions for auditing.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"wallet-suite/internal/model"
	"wallet-suite/pkg/errno"
)

// SessionRepository tx_sessions 表
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Record 写入一条会话记录，同一 session_id 重复写入时更新状态
func (r *SessionRepository) Record(ctx context.Context, s *model.TxSession) error {
	err := r.db.WithContext(ctx).
		Where(model.TxSession{SessionID: s.SessionID}).
		Assign(model.TxSession{
			State:           s.State,
			Txid:            s.Txid,
			Fingerprint:     s.Fingerprint,
			FormattedAmount: s.FormattedAmount,
			Error:           s.Error,
		}).
		FirstOrCreate(s).Error
	if err != nil {
		return fmt.Errorf("%w: %v", errno.ErrDatabase, err)
	}
	return nil
}

// ListByDescriptor 按时间倒序返回账户最近的会话
func (r *SessionRepository) ListByDescriptor(ctx context.Context, descriptor string, limit int) ([]model.TxSession, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []model.TxSession
	err := r.db.WithContext(ctx).
		Where("descriptor = ?", descriptor).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrDatabase, err)
	}
	return out, nil
}

// FindByTxid 按链上交易 ID 查找
func (r *SessionRepository) FindByTxid(ctx context.Context, txid string) (*model.TxSession, error) {
	var s model.TxSession
	err := r.db.WithContext(ctx).Where("txid = ?", txid).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrDatabase, err)
	}
	return &s, nil
}
