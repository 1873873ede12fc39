package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

func init() {
	goose.AddMigrationContext(upSeedPresets, downSeedPresets)
}

func upSeedPresets(ctx context.Context, tx *sql.Tx) error {
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM preset_nominal").Scan(&count); err != nil {
		return fmt.Errorf("count presets: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, p := range usecase.DefaultPresets() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO preset_nominal (type, amount, label, sort_order, active) VALUES (?, ?, ?, ?, ?)",
			string(p.Type), p.Amount, p.Label, p.SortOrder, p.Active); err != nil {
			return fmt.Errorf("insert preset %s %d: %w", p.Type, p.Amount, err)
		}
	}
	return nil
}

// downSeedPresets 只移除與預設值完全相同的列
func downSeedPresets(ctx context.Context, tx *sql.Tx) error {
	for _, p := range usecase.DefaultPresets() {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM preset_nominal WHERE type = ? AND amount = ? AND label = ?",
			string(p.Type), p.Amount, p.Label); err != nil {
			return fmt.Errorf("delete preset %s %d: %w", p.Type, p.Amount, err)
		}
	}
	return nil
}
