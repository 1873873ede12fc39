package mysql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// Record 寫入一筆稽核紀錄，details 以 JSON 存放
func (s *Store) Record(ctx context.Context, entry domain.AuditEntry) error {
	details := ""
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = string(b)
	}
	row := sqlAuditLog{
		UserID:    entry.UserID,
		Action:    entry.Action,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		Details:   details,
		CreatedAt: entry.CreatedAt,
	}
	return s.db(ctx).Create(&row).Error
}
