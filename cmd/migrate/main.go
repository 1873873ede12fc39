// migrate 執行資料庫遷移: migrate [-config path] up|down|status|version|redo|reset
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/JoeShih716/tabungan-santri/config"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/mysql/migrations"
	"github.com/JoeShih716/tabungan-santri/pkg/mysql"
)

var commands = map[string]bool{
	"up": true, "down": true, "status": true, "version": true, "redo": true, "reset": true,
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config.yaml")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-config path] up|down|status|version|redo|reset\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	if !commands[command] {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stderr))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mysql.NewClient(ctx, cfg.MySQL)
	if err != nil {
		slog.Error("failed to connect mysql", slog.Any("error", err))
		os.Exit(1)
	}
	defer client.Close()

	if cfg.Auth.BcryptCost != 0 {
		migrations.PasswordCost = cfg.Auth.BcryptCost
	}
	if err := migrations.Run(ctx, client.SQLDB(), command); err != nil {
		slog.Error("migration failed", slog.String("command", command), slog.Any("error", err))
		client.Close()
		os.Exit(1)
	}
}
