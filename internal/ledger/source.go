package ledger

import (
	"context"

	"marketplace-recon-api/internal/dto"
)

// StatementSource 标准化结算明细来源，厂商格式解析在外部完成
type StatementSource interface {
	// Next ok=false 表示已读完
	Next(ctx context.Context) (dto.PaymentDraft, bool, error)
}

// SliceSource 内存来源，HTTP 批量导入使用
type SliceSource struct {
	drafts []dto.PaymentDraft
	pos    int
}

func NewSliceSource(drafts []dto.PaymentDraft) *SliceSource {
	return &SliceSource{drafts: drafts}
}

func (s *SliceSource) Next(ctx context.Context) (dto.PaymentDraft, bool, error) {
	if err := ctx.Err(); err != nil {
		return dto.PaymentDraft{}, false, err
	}
	if s.pos >= len(s.drafts) {
		return dto.PaymentDraft{}, false, nil
	}
	d := s.drafts[s.pos]
	s.pos++
	return d, true, nil
}
