package memory

import (
	"context"
	"sort"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

func (s *Store) CreateFeedback(ctx context.Context, fb *domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.feedback++
	fb.ID = s.seq.feedback
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = s.now()
	}
	cp := *fb
	s.feedback[fb.ID] = &cp
	return nil
}

// ListFeedback 未刪除的回饋，新到舊
func (s *Store) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]domain.Feedback, 0, len(s.feedback))
	for _, fb := range s.feedback {
		if fb.DeletedAt == nil {
			list = append(list, *fb)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (s *Store) SoftDeleteFeedback(ctx context.Context, id int64, by int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.feedback[id]
	if !ok || fb.DeletedAt != nil {
		return domain.ErrNotFound
	}
	fb.DeletedAt = &at
	fb.DeletedBy = &by
	return nil
}
