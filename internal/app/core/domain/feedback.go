package domain

import (
	"strings"
	"time"
)

// Feedback 登入頁提交的意見回饋，刪除為軟刪除
type Feedback struct {
	ID        int64
	Name      string
	Message   string
	CreatedAt time.Time
	DeletedAt *time.Time
	DeletedBy *int64
}

// Validate 訊息必填
func (f *Feedback) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Message = strings.TrimSpace(f.Message)
	if f.Message == "" {
		return NewValidationError("pesan", "pesan wajib diisi")
	}
	if len(f.Message) > 2000 {
		return NewValidationError("pesan", "pesan terlalu panjang")
	}
	return nil
}
