package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// FeedbackService 意見回饋：公開提交、後台檢視、管理員軟刪除
type FeedbackService struct {
	store FeedbackStore
	audit auditor
	now   func() time.Time
}

func NewFeedbackService(store FeedbackStore, audit AuditSink, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{store: store, audit: newAuditor(audit, logger), now: time.Now}
}

func (s *FeedbackService) Submit(ctx context.Context, name, message string) (*domain.Feedback, error) {
	fb := &domain.Feedback{Name: name, Message: message, CreatedAt: s.now()}
	if err := fb.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateFeedback(ctx, fb); err != nil {
		return nil, classifyStorageError(err)
	}
	return fb, nil
}

// List 未刪除的回饋，新到舊
func (s *FeedbackService) List(ctx context.Context) ([]domain.Feedback, error) {
	list, err := s.store.ListFeedback(ctx)
	return list, classifyStorageError(err)
}

func (s *FeedbackService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.store.SoftDeleteFeedback(ctx, id, actor.ID, s.now()); err != nil {
		return classifyStorageError(err)
	}
	s.audit.record(ctx, actor, domain.AuditActionDelete, domain.AuditEntityFeedback, strconv.FormatInt(id, 10), nil)
	return nil
}
