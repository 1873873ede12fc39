package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

// Store 是以 RWMutex 保護的記憶體儲存層，實作所有 usecase 儲存介面
// 用於測試與 storage.driver=memory (不需 MySQL 的預覽模式)
//
// 結構:
//
//	mu: 保護所有資料；帳務交易持有寫鎖直到提交，等同序列化的列鎖
//	students / transactions / users / presets / feedback: 各資料表
//	audit: 稽核紀錄 (只新增)
type Store struct {
	mu           sync.RWMutex
	students     map[int64]*domain.Student
	transactions map[int64]*domain.Transaction
	users        map[int64]*domain.User
	presets      map[int64]*domain.PresetNominal
	feedback     map[int64]*domain.Feedback
	audit        []domain.AuditEntry

	seq struct {
		student, transaction, user, preset, feedback, audit int64
	}
	now func() time.Time
}

// NewStore 建立空的記憶體儲存層
func NewStore() *Store {
	return &Store{
		students:     make(map[int64]*domain.Student),
		transactions: make(map[int64]*domain.Transaction),
		users:        make(map[int64]*domain.User),
		presets:      make(map[int64]*domain.PresetNominal),
		feedback:     make(map[int64]*domain.Feedback),
		now:          time.Now,
	}
}

// Ping 記憶體儲存層永遠可用
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Overview 總餘額、學生數、出納數
func (s *Store) Overview(ctx context.Context) (usecase.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ov usecase.Overview
	for _, st := range s.students {
		ov.TotalBalance += st.Balance
		ov.StudentCount++
	}
	for _, u := range s.users {
		if u.Role == domain.RoleKasir {
			ov.KasirCount++
		}
	}
	return ov, nil
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func sortStudents(list []domain.Student) {
	sort.SliceStable(list, func(i, j int) bool {
		if !strings.EqualFold(list[i].Name, list[j].Name) {
			return lessFold(list[i].Name, list[j].Name)
		}
		return list[i].ID < list[j].ID
	})
}

var (
	_ usecase.LedgerStore       = (*Store)(nil)
	_ usecase.TransactionReader = (*Store)(nil)
	_ usecase.StudentStore      = (*Store)(nil)
	_ usecase.UserStore         = (*Store)(nil)
	_ usecase.PresetStore       = (*Store)(nil)
	_ usecase.StatsStore        = (*Store)(nil)
	_ usecase.AuditSink         = (*Store)(nil)
	_ usecase.FeedbackStore     = (*Store)(nil)
)
