package mysql

import (
	"context"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

func (s *Store) CreateFeedback(ctx context.Context, fb *domain.Feedback) error {
	row := sqlFeedback{Name: fb.Name, Message: fb.Message, CreatedAt: fb.CreatedAt}
	if err := s.db(ctx).Create(&row).Error; err != nil {
		return err
	}
	fb.ID = row.ID
	fb.CreatedAt = row.CreatedAt
	return nil
}

// ListFeedback 未刪除的回饋，新到舊
func (s *Store) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	var rows []sqlFeedback
	if err := s.db(ctx).Where("deleted_at IS NULL").Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	list := make([]domain.Feedback, len(rows))
	for i := range rows {
		list[i] = rows[i].toDomain()
	}
	return list, nil
}

// SoftDeleteFeedback 只標記刪除，保留原始內容
func (s *Store) SoftDeleteFeedback(ctx context.Context, id int64, by int64, at time.Time) error {
	res := s.db(ctx).Model(&sqlFeedback{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{"deleted_at": at, "deleted_by": by})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
