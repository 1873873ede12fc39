package domain

import (
	"strings"
	"time"
)

// Student 學生 (santri) 與其存款餘額
// Balance 只能經由交易引擎異動，編輯資料時不可變更
type Student struct {
	ID int64
	StudentProfile
	PhotoPath string
	Balance   int64
	CreatedAt time.Time
}

// StudentProfile 可由管理員編輯或匯入的學生資料 (不含餘額)
type StudentProfile struct {
	NIS           string
	Name          string
	Class         string
	Group         string
	BirthDate     *time.Time
	Address       string
	GuardianPhone string
}

// Normalize 去除前後空白
func (p *StudentProfile) Normalize() {
	p.NIS = strings.TrimSpace(p.NIS)
	p.Name = strings.TrimSpace(p.Name)
	p.Class = strings.TrimSpace(p.Class)
	p.Group = strings.TrimSpace(p.Group)
	p.Address = strings.TrimSpace(p.Address)
	p.GuardianPhone = strings.TrimSpace(p.GuardianPhone)
}

// Validate NIS 與姓名為必填
func (p *StudentProfile) Validate() error {
	if p.NIS == "" {
		return NewValidationError("nis", "NIS wajib diisi")
	}
	if p.Name == "" {
		return NewValidationError("nama", "nama wajib diisi")
	}
	return nil
}

// BirthDateString 生日 (YYYY-MM-DD)，未填回傳空字串
func (p *StudentProfile) BirthDateString() string {
	if p.BirthDate == nil {
		return ""
	}
	return p.BirthDate.Format(time.DateOnly)
}

// ClassOrDash 收據上顯示的班級
func (s *Student) ClassOrDash() string {
	if s.Class == "" {
		return "-"
	}
	return s.Class
}
