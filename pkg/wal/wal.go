package wal

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// 自己定義常用的權限常量
const (
	// rw-r--r-- (擁有者讀寫，其他人唯讀)
	FileModeReadOnly fs.FileMode = 0644

	// rwxr-xr-x (目錄用)
	FileModeExecutable fs.FileMode = 0755

	// rw------- (只有擁有者可讀寫)；稽核暫存含使用者資料，預設使用此權限
	FileModePrivate fs.FileMode = 0600
)

// WAL 以 JSON Lines 追加寫入的檔案，寫入後立即 fsync
type WAL struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewWAL 開啟或建立一個 WAL 檔案 (必要時建立上層目錄)
// O_RDWR讀寫模式
// O_APPEND 每次寫入時自動跳到文件末尾
// O_CREATE 如果文件不存在則建立
func NewWAL(path string) (*WAL, error) {
	if err := os.MkdirAll(filepath.Dir(path), FileModeExecutable); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModePrivate)
	if err != nil {
		return nil, err
	}
	return &WAL{path: path, file: file}, nil
}

// Path 檔案路徑
func (w *WAL) Path() string {
	return w.path
}

// Write 寫入一筆資料
func (w *WAL) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := json.NewEncoder(w.file).Encode(v); err != nil {
		return err
	}
	return w.file.Sync()
}

// Sync 強制刷入硬碟
func (w *WAL) Sync() error {
	return w.file.Sync()
}

// Close 關閉檔案
func (w *WAL) Close() error {
	return w.file.Close()
}

// ReadAll 讀取所有資料
// callback 接收每一筆 JSON，避免一次將所有資料載入記憶體
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.readAll(callback)
}

func (w *WAL) readAll(callback func(jsonRaw []byte) error) error {
	// 確保從頭讀取
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(w.file)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if err := callback(raw); err != nil {
			return err
		}
	}
	return nil
}

// Drain 依序交給 callback 處理，全部成功才清空檔案
// 任何一筆失敗時保留檔案內容，下次再重送
//
// 回傳:
//
//	int: 成功處理的筆數
//	error: callback 或檔案操作的錯誤
func (w *WAL) Drain(callback func(jsonRaw []byte) error) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	err := w.readAll(func(raw []byte) error {
		if err := callback(raw); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	return n, w.truncate()
}

// Truncate 清空檔案
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.truncate()
}

func (w *WAL) truncate() error {
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return w.file.Sync()
}
