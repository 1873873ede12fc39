package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

const auditTimeout = 3 * time.Second

// auditor 包裝 AuditSink，寫入失敗只記 log，不影響主流程
type auditor struct {
	sink   AuditSink
	logger *slog.Logger
	now    func() time.Time
}

func newAuditor(sink AuditSink, logger *slog.Logger) auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return auditor{sink: sink, logger: logger, now: time.Now}
}

func (a auditor) record(ctx context.Context, actor domain.Actor, action, entity, entityID string, details map[string]any) {
	if a.sink == nil {
		return
	}
	entry := domain.AuditEntry{
		UserID:    actor.UserID(),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		CreatedAt: a.now(),
	}
	// 請求結束後仍要寫完
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := a.sink.Record(actx, entry); err != nil {
		a.logger.Warn("audit record failed",
			slog.String("action", action),
			slog.String("entity", entity),
			slog.String("entity_id", entityID),
			slog.Any("error", err))
	}
}
