// Package config 載入 config.yaml，並以 .env 與環境變數覆寫
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/tabungan-santri/pkg/mysql"
)

// 儲存層驅動
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config 應用程式設定
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	GRPC    GRPCConfig    `yaml:"grpc"`
	MySQL   mysql.Config  `yaml:"mysql"`
	Storage StorageConfig `yaml:"storage"`
	Receipt ReceiptConfig `yaml:"receipt"`
	Redis   RedisConfig   `yaml:"redis"`
	NATS    NATSConfig    `yaml:"nats"`
	Audit   AuditConfig   `yaml:"audit"`
	Log     LogConfig     `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
}

type HTTPConfig struct {
	Addr          string        `yaml:"addr"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookie  bool          `yaml:"secure_cookie"`
	CSRF          bool          `yaml:"csrf"`
	AccessLog     bool          `yaml:"access_log"`
	BodyLimitMB   int           `yaml:"body_limit_mb"`
}

type GRPCConfig struct {
	// Addr 健康檢查服務位址；空字串停用
	Addr          string        `yaml:"addr"`
	CheckInterval time.Duration `yaml:"check_interval"`
}

type StorageConfig struct {
	// Driver "mysql" 或 "memory"
	Driver string `yaml:"driver"`
	// Root 收據、簽名、照片的根目錄
	Root    string        `yaml:"root"`
	Timeout time.Duration `yaml:"timeout"`
}

type ReceiptConfig struct {
	LogoPath  string        `yaml:"logo_path"`
	StampPath string        `yaml:"stamp_path"`
	Language  string        `yaml:"language"`
	Async     bool          `yaml:"async"`
	Timeout   time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	// Addr 空字串停用快取
	Addr      string        `yaml:"addr"`
	PresetTTL time.Duration `yaml:"preset_ttl"`
}

type NATSConfig struct {
	// URL 空字串不發布稽核事件
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type AuditConfig struct {
	SpoolPath string `yaml:"spool_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// Load 讀取設定
//
// 參數:
//
//	path: string - YAML 路徑；檔案不存在時只套用預設值與環境變數
//
// 回傳值:
//
//	*Config: 已補齊預設值的設定
//	error: 檔案無法解析或設定不合法
func Load(path string) (*Config, error) {
	// .env 不存在是正常情況
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", slog.Any("error", err))
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("config file not found, using defaults", slog.String("path", path))
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 以環境變數覆寫 YAML
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid PORT %q", v)
		}
		c.HTTP.Addr = ":" + v
	}
	str("DB_HOST", &c.MySQL.Host)
	if v, ok := lookup("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q", v)
		}
		c.MySQL.Port = port
	}
	str("DB_USER", &c.MySQL.User)
	str("DB_PASS", &c.MySQL.Password)
	str("DB_NAME", &c.MySQL.DBName)
	str("SESSION_SECRET", &c.HTTP.SessionSecret)
	str("PDF_LOGO_PATH", &c.Receipt.LogoPath)
	str("PDF_STAMP_PATH", &c.Receipt.StampPath)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("NATS_URL", &c.NATS.URL)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("LOG_LEVEL", &c.Log.Level)
	return nil
}

// applyDefaults 補齊未設定的欄位
func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":3000"
	}
	if c.HTTP.SessionTTL <= 0 {
		c.HTTP.SessionTTL = 12 * time.Hour
	}
	if c.HTTP.BodyLimitMB <= 0 {
		c.HTTP.BodyLimitMB = 10
	}
	if c.GRPC.CheckInterval <= 0 {
		c.GRPC.CheckInterval = 10 * time.Second
	}

	if c.MySQL.Host == "" {
		c.MySQL.Host = "127.0.0.1"
	}
	if c.MySQL.Port == 0 {
		c.MySQL.Port = 3306
	}
	if c.MySQL.DBName == "" {
		c.MySQL.DBName = "tabungan_santri"
	}
	if c.MySQL.MaxOpenConns == 0 {
		c.MySQL.MaxOpenConns = 20
	}
	if c.MySQL.MaxIdleConns == 0 {
		c.MySQL.MaxIdleConns = 5
	}
	if c.MySQL.ConnMaxLifetime == 0 {
		c.MySQL.ConnMaxLifetime = 30 * time.Minute
	}
	if c.MySQL.DialTimeout == 0 {
		c.MySQL.DialTimeout = 5 * time.Second
	}
	if c.MySQL.ReadTimeout == 0 {
		c.MySQL.ReadTimeout = 10 * time.Second
	}
	if c.MySQL.WriteTimeout == 0 {
		c.MySQL.WriteTimeout = 10 * time.Second
	}
	if c.MySQL.RetryInterval == 0 {
		c.MySQL.RetryInterval = 2 * time.Second
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMySQL
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "storage"
	}
	if c.Storage.Timeout <= 0 {
		c.Storage.Timeout = 5 * time.Second
	}

	if c.Receipt.Language == "" {
		c.Receipt.Language = "id"
	}
	if c.Receipt.Timeout <= 0 {
		c.Receipt.Timeout = 10 * time.Second
	}
	if c.Redis.PresetTTL <= 0 {
		c.Redis.PresetTTL = 5 * time.Minute
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "tabungan.audit"
	}
	if c.Audit.SpoolPath == "" {
		c.Audit.SpoolPath = "storage/audit_spool.log"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate 檢查不合法的組合
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverMySQL, DriverMemory, c.Storage.Driver)
	}
	switch c.Receipt.Language {
	case "id", "en":
	default:
		return fmt.Errorf("receipt.language must be \"id\" or \"en\", got %q", c.Receipt.Language)
	}
	if c.HTTP.SessionSecret == "" {
		return errors.New("http.session_secret (SESSION_SECRET) is required")
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("auth.bcrypt_cost out of range: %d", c.Auth.BcryptCost)
	}
	return nil
}

// SlogLevel 將 log.level 轉為 slog.Level
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger 依 log.format 建立 text 或 JSON handler
func (c LogConfig) NewLogger(w *os.File) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
