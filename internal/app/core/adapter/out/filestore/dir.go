package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

// 子目錄
const (
	ReceiptsDir   = "receipts"
	SignaturesDir = "signatures"
	PhotosDir     = "photos"
)

const dirMode = 0o755

// ErrOutsideRoot 路徑跳出儲存根目錄
var ErrOutsideRoot = errors.New("path escapes storage root")

// Dir 以相對路徑存取儲存根目錄下的檔案 (收據、簽名、照片)
// 資料庫只保存相對路徑，搬移根目錄不影響既有資料
type Dir struct {
	root string
}

// NewDir 建立根目錄與子目錄
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	for _, sub := range []string{ReceiptsDir, SignaturesDir, PhotosDir} {
		if err := os.MkdirAll(filepath.Join(abs, sub), dirMode); err != nil {
			return nil, fmt.Errorf("create %s: %w", sub, err)
		}
	}
	return &Dir{root: abs}, nil
}

func (d *Dir) Root() string {
	return d.root
}

// Path 將相對路徑轉為絕對路徑，拒絕絕對路徑與 ".."
func (d *Dir) Path(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", ErrOutsideRoot
	}
	full := filepath.Join(d.root, filepath.FromSlash(rel))
	if full != d.root && !strings.HasPrefix(full, d.root+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// Rel 組出子目錄下的相對路徑 (一律使用 /)
func Rel(sub, name string) string {
	return sub + "/" + name
}

// Remove 刪除檔案，檔案不存在時回傳包裝 fs.ErrNotExist 的錯誤
func (d *Dir) Remove(rel string) error {
	full, err := d.Path(rel)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// Open 開啟檔案供下載
func (d *Dir) Open(rel string) (*os.File, error) {
	full, err := d.Path(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Save 以隨機檔名寫入子目錄
//
// 參數:
//
//	sub: 子目錄 (PhotosDir、SignaturesDir)
//	ext: 副檔名，含 "."
//	r: 檔案內容
//
// 回傳:
//
//	string: 相對路徑
//	error: 寫入失敗
func (d *Dir) Save(sub, ext string, r io.Reader) (string, error) {
	rel := Rel(sub, uuid.NewString()+strings.ToLower(ext))
	full, err := d.Path(rel)
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", err
	}
	return rel, nil
}

var _ usecase.FileRemover = (*Dir)(nil)
