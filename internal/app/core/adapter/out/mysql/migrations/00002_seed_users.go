package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

func init() {
	goose.AddMigrationContext(upSeedUsers, downSeedUsers)
}

// upSeedUsers 使用者表為空時建立預設管理員與出納
func upSeedUsers(ctx context.Context, tx *sql.Tx) error {
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	hasher := usecase.PasswordHasher{Cost: PasswordCost}
	for _, acc := range usecase.DefaultAccounts() {
		hash, err := hasher.Hash(acc.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", acc.Username, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO users (username, password_hash, full_name, role) VALUES (?, ?, ?, ?)",
			acc.Username, hash, acc.FullName, string(acc.Role)); err != nil {
			return fmt.Errorf("insert user %s: %w", acc.Username, err)
		}
	}
	return nil
}

func downSeedUsers(ctx context.Context, tx *sql.Tx) error {
	for _, acc := range usecase.DefaultAccounts() {
		if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE username = ?", acc.Username); err != nil {
			return fmt.Errorf("delete user %s: %w", acc.Username, err)
		}
	}
	return nil
}
