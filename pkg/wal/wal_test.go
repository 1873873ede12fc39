package wal

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

type record struct {
	N int `json:"n"`
}

func TestWriteAndDrain(t *testing.T) {
	w, err := NewWAL(filepath.Join(t.TempDir(), "spool", "audit.wal"))
	if err != nil {
		t.Fatalf("NewWAL: %v", err)
	}
	defer w.Close()

	for i := 1; i <= 3; i++ {
		if err := w.Write(record{N: i}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	// 第二筆失敗：全部保留
	boom := errors.New("boom")
	n, err := w.Drain(func(raw []byte) error {
		var r record
		_ = json.Unmarshal(raw, &r)
		if r.N == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) || n != 1 {
		t.Fatalf("Drain = %d, %v", n, err)
	}

	var seen []int
	n, err = w.Drain(func(raw []byte) error {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		seen = append(seen, r.N)
		return nil
	})
	if err != nil || n != 3 {
		t.Fatalf("Drain = %d, %v", n, err)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Fatalf("seen = %v", seen)
	}

	count := 0
	if err := w.ReadAll(func([]byte) error { count++; return nil }); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if count != 0 {
		t.Fatalf("records after drain = %d", count)
	}

	// 清空後仍可繼續寫入
	if err := w.Write(record{N: 9}); err != nil {
		t.Fatalf("Write after drain: %v", err)
	}
	if err := w.ReadAll(func([]byte) error { count++; return nil }); err != nil || count != 1 {
		t.Fatalf("ReadAll after rewrite = %d, %v", count, err)
	}
}
