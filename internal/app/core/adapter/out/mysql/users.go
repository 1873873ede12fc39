package mysql

import (
	"context"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []sqlUser
	if err := s.db(ctx).Order("role ASC, username ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	list := make([]domain.User, len(rows))
	for i := range rows {
		list[i] = rows[i].toDomain()
	}
	return list, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var row sqlUser
	if err := s.db(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translateError(err, domain.ErrUserNotFound)
	}
	u := row.toDomain()
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var row sqlUser
	if err := s.db(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		return nil, translateError(err, domain.ErrUserNotFound)
	}
	u := row.toDomain()
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	row := sqlUser{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		FullName:     user.FullName,
		Role:         string(user.Role),
	}
	if err := s.db(ctx).Create(&row).Error; err != nil {
		return translateError(err, domain.ErrUserNotFound)
	}
	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	res := s.db(ctx).Model(&sqlUser{ID: user.ID}).
		Select("username", "password_hash", "full_name", "role").
		Updates(&sqlUser{
			Username:     user.Username,
			PasswordHash: user.PasswordHash,
			FullName:     user.FullName,
			Role:         string(user.Role),
		})
	return translateError(res.Error, domain.ErrUserNotFound)
}

// DeleteUser 交易與稽核的 user_id 由外鍵 ON DELETE SET NULL 清空
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res := s.db(ctx).Where("id = ?", id).Delete(&sqlUser{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
