package memory

import (
	"context"
	"sort"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, *u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) usernameTaken(username string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Username == username {
			return true
		}
	}
	return false
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernameTaken(user.Username, 0) {
		return domain.ErrDuplicateKey
	}
	s.seq.user++
	user.ID = s.seq.user
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if s.usernameTaken(user.Username, user.ID) {
		return domain.ErrDuplicateKey
	}
	cp := *user
	cp.CreatedAt = existing.CreatedAt
	s.users[user.ID] = &cp
	return nil
}

// DeleteUser 刪除使用者，交易的經手人改為空 (SET NULL)
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, id)
	for _, t := range s.transactions {
		if t.UserID != nil && *t.UserID == id {
			t.UserID = nil
		}
	}
	return nil
}
