// Package migrations 以 goose 管理資料表結構與預設資料
// SQL 遷移檔以 embed 打包，Go 遷移於 init 時註冊
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
)

//go:embed *.sql
var sqlFiles embed.FS

// PasswordCost 預設帳號的 bcrypt 成本
var PasswordCost = bcrypt.DefaultCost

// Run 執行 goose 指令
//
// 參數:
//
//	ctx: 上下文
//	db: 資料庫連線
//	command: "up", "down", "status", "version", "redo", "reset"
//
// 回傳:
//
//	error: 遷移失敗
func Run(ctx context.Context, db *sql.DB, command string) error {
	goose.SetBaseFS(sqlFiles)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, "."); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	slog.Info("database migrations finished", slog.String("command", command))
	return nil
}

// Up 套用所有尚未執行的遷移
func Up(ctx context.Context, db *sql.DB) error {
	return Run(ctx, db, "up")
}
