package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeYAML(t, "http:\n  session_secret: s3cret\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":3000" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.HTTP.SessionTTL)
	}
	if cfg.MySQL.Port != 3306 || cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("mysql defaults not applied: %+v", cfg.MySQL)
	}
	if cfg.Storage.Driver != DriverMySQL || cfg.Storage.Root != "storage" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Receipt.Language != "id" || cfg.NATS.Subject != "tabungan.audit" {
		t.Errorf("receipt/nats defaults: %+v %+v", cfg.Receipt, cfg.NATS)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SESSION_SECRET", "from-env")
	t.Setenv("STORAGE_DRIVER", "Memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.SessionSecret != "from-env" {
		t.Errorf("SessionSecret = %q", cfg.HTTP.SessionSecret)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Driver = %q, want memory", cfg.Storage.Driver)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeYAML(t, `
http:
  addr: ":8080"
  session_secret: yaml
mysql:
  host: db.local
  port: 3307
  user: app
receipt:
  language: en
`)
	t.Setenv("PORT", "9000")
	t.Setenv("DB_HOST", "mysql")
	t.Setenv("DB_PORT", "3310")
	t.Setenv("DB_PASS", "pw")
	t.Setenv("SESSION_SECRET", "env")
	t.Setenv("PDF_LOGO_PATH", "/srv/logo.png")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	checks := []struct {
		name, got, want string
	}{
		{"addr", cfg.HTTP.Addr, ":9000"},
		{"host", cfg.MySQL.Host, "mysql"},
		{"user", cfg.MySQL.User, "app"},
		{"password", cfg.MySQL.Password, "pw"},
		{"secret", cfg.HTTP.SessionSecret, "env"},
		{"logo", cfg.Receipt.LogoPath, "/srv/logo.png"},
		{"language", cfg.Receipt.Language, "en"},
		{"redis", cfg.Redis.Addr, "redis:6379"},
		{"nats", cfg.NATS.URL, "nats://nats:4222"},
		{"log", cfg.Log.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if cfg.MySQL.Port != 3310 {
		t.Errorf("port = %d, want 3310", cfg.MySQL.Port)
	}
}

func TestDotEnvLoaded(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SESSION_SECRET=dotenv\nDB_NAME=santri_test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv 不覆寫已存在的變數，先清空並在結束時還原
	for _, k := range []string{"SESSION_SECRET", "DB_NAME"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.SessionSecret != "dotenv" || cfg.MySQL.DBName != "santri_test" {
		t.Errorf("got secret %q db %q", cfg.HTTP.SessionSecret, cfg.MySQL.DBName)
	}
}

func TestLoadErrors(t *testing.T) {
	chdir(t, t.TempDir())
	tests := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{"bad yaml", "http: [", nil, "failed to parse"},
		{"no secret", "http:\n  addr: \":1\"\n", nil, "session_secret"},
		{"bad driver", "http:\n  session_secret: x\nstorage:\n  driver: sqlite\n", nil, "storage.driver"},
		{"bad language", "http:\n  session_secret: x\nreceipt:\n  language: fr\n", nil, "receipt.language"},
		{"bad port", "http:\n  session_secret: x\n", map[string]string{"PORT": "http"}, "invalid PORT"},
		{"bad cost", "http:\n  session_secret: x\nauth:\n  bcrypt_cost: 2\n", nil, "bcrypt_cost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SESSION_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeYAML(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"} {
		if got := (LogConfig{Level: in}).SlogLevel().String(); got != want {
			t.Errorf("SlogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
