package mysql

import (
	"strings"
	"testing"
	"time"
)

func TestDSN(t *testing.T) {
	cfg := Config{
		Host:        "db",
		Port:        3306,
		User:        "root",
		Password:    "p@ss",
		DBName:      "tabungan_santri",
		DialTimeout: 3 * time.Second,
		ReadTimeout: 5 * time.Second,
	}
	dsn := cfg.DSN()
	for _, want := range []string{
		"root:p@ss@tcp(db:3306)/tabungan_santri?",
		"parseTime=true",
		"timeout=3s",
		"readTimeout=5s",
		"multiStatements=true",
		"charset=utf8mb4",
	} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}
