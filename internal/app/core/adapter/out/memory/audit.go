package memory

import (
	"context"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// Record 新增一筆稽核紀錄
func (s *Store) Record(ctx context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.audit++
	entry.ID = s.seq.audit
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.audit = append(s.audit, entry)
	return nil
}

// AuditEntries 目前所有稽核紀錄的副本
func (s *Store) AuditEntries() []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditEntry(nil), s.audit...)
}
