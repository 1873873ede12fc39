package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// PreviewRows 預覽時顯示的資料列數
const PreviewRows = 10

var (
	headerCleaner = regexp.MustCompile(`[^a-z0-9]+`)
	dateYMD       = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	dateDMY       = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})[-/](\d{4})`)
)

// 欄位別名，依優先順序比對
var (
	aliasNIS      = []string{"nis", "nisn", "noinduk", "no_siswa"}
	aliasName     = []string{"nama", "namalengkap", "name", "namasantri"}
	aliasClass    = []string{"kelas", "jurusan", "grade"}
	aliasGroup    = []string{"kelompok", "asrama", "pondok", "group", "unit"}
	aliasBirth    = []string{"tgllahir", "tanggallahir", "dob"}
	aliasAddress  = []string{"alamat", "address"}
	aliasGuardian = []string{"hpwali", "nohporangtua", "telpwali", "nohp", "kontakwali"}
)

// NormalizeHeader 轉小寫並去除非英數字元
func NormalizeHeader(h string) string {
	return headerCleaner.ReplaceAllString(strings.ToLower(h), "")
}

// ColumnMap 標頭對應到的欄位索引，-1 表示未對應
type ColumnMap struct {
	NIS, Name, Class, Group, BirthDate, Address, GuardianPhone int
}

// MapHeaders 先以別名完全比對，找不到時再以「正規化標頭包含別名」比對
func MapHeaders(headers []string) ColumnMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}
	pick := func(aliases []string) int {
		for _, a := range aliases {
			key := NormalizeHeader(a)
			// 重複標頭以最後一個為準
			for i := len(normalized) - 1; i >= 0; i-- {
				if normalized[i] == key {
					return i
				}
			}
		}
		for i, h := range normalized {
			if h == "" {
				continue
			}
			for _, a := range aliases {
				if strings.Contains(h, NormalizeHeader(a)) {
					return i
				}
			}
		}
		return -1
	}
	return ColumnMap{
		NIS:           pick(aliasNIS),
		Name:          pick(aliasName),
		Class:         pick(aliasClass),
		Group:         pick(aliasGroup),
		BirthDate:     pick(aliasBirth),
		Address:       pick(aliasAddress),
		GuardianPhone: pick(aliasGuardian),
	}
}

// Row 依對應取出一列資料
func (m ColumnMap) Row(row []string) domain.StudentProfile {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	p := domain.StudentProfile{
		NIS:           cell(m.NIS),
		Name:          cell(m.Name),
		Class:         cell(m.Class),
		Group:         cell(m.Group),
		Address:       cell(m.Address),
		GuardianPhone: cell(m.GuardianPhone),
		BirthDate:     ParseBirthDate(cell(m.BirthDate)),
	}
	p.Normalize()
	return p
}

// ParseBirthDate 接受 YYYY-MM-DD、YYYY/MM/DD、DD-MM-YYYY、DD/MM/YYYY，無法解析回傳 nil
func ParseBirthDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var y, m, d int
	if parts := dateYMD.FindStringSubmatch(s); parts != nil {
		y, m, d = atoi(parts[1]), atoi(parts[2]), atoi(parts[3])
	} else if parts := dateDMY.FindStringSubmatch(s); parts != nil {
		d, m, y = atoi(parts[1]), atoi(parts[2]), atoi(parts[3])
	} else {
		return nil
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return nil
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// 拒絕 31-02 這類會被進位的日期
	if t.Day() != d {
		return nil
	}
	return &t
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ImportPreview 匯入預覽
type ImportPreview struct {
	Columns []string
	Rows    []domain.StudentProfile
	Total   int
}

// ImportResult 匯入結果
type ImportResult struct {
	Inserted int
	Updated  int
	Skipped  int
}

func (r ImportResult) String() string {
	return fmt.Sprintf("Ditambahkan: %d, Diperbarui: %d, Diskip: %d", r.Inserted, r.Updated, r.Skipped)
}

// PreviewImport 以第一列為標頭，回傳前 PreviewRows 筆對應結果
func PreviewImport(records [][]string) (*ImportPreview, error) {
	if len(records) == 0 {
		return nil, domain.NewValidationError("file", "sheet kosong")
	}
	cols := MapHeaders(records[0])
	preview := &ImportPreview{Columns: records[0], Total: len(records) - 1}
	for i := 1; i < len(records) && len(preview.Rows) < PreviewRows; i++ {
		preview.Rows = append(preview.Rows, cols.Row(records[i]))
	}
	return preview, nil
}

// Import 依 NIS upsert，缺 NIS 或姓名的列略過；不會異動餘額
func (s *StudentService) Import(ctx context.Context, actor domain.Actor, source string, records [][]string) (ImportResult, error) {
	var res ImportResult
	if !actor.IsAdmin() {
		return res, domain.ErrForbidden
	}
	if len(records) < 2 {
		return res, domain.NewValidationError("file", "tidak ada baris data")
	}
	cols := MapHeaders(records[0])
	if cols.NIS < 0 || cols.Name < 0 {
		return res, domain.NewValidationError("file", "kolom NIS dan Nama tidak ditemukan")
	}
	for _, row := range records[1:] {
		profile := cols.Row(row)
		if profile.NIS == "" || profile.Name == "" {
			res.Skipped++
			continue
		}
		inserted, err := s.students.UpsertStudent(ctx, profile)
		if err != nil {
			return res, classifyStorageError(fmt.Errorf("upsert nis %s: %w", profile.NIS, err))
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	s.audit.record(ctx, actor, domain.AuditActionImport, domain.AuditEntityStudent, source, map[string]any{
		"inserted": res.Inserted, "updated": res.Updated, "skipped": res.Skipped,
	})
	return res, nil
}
