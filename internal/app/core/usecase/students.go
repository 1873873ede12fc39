package usecase

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

const (
	// DefaultSearchLimit 快速搜尋預設筆數
	DefaultSearchLimit = 12
	// MaxSearchLimit 快速搜尋最大筆數
	MaxSearchLimit = 50
	// containsMinLen 查詢字串至少這麼長才追加「包含」比對
	containsMinLen = 3
	historyLimit   = 200
)

// StudentDetail 學生明細頁：資料與交易歷史 (新到舊)
type StudentDetail struct {
	Student domain.Student
	History []domain.TransactionView
	// Reconciled 餘額等於全部交易重播的結果
	Reconciled bool
}

// StudentService 學生資料維護；餘額只由 Engine 異動
type StudentService struct {
	students StudentStore
	txs      TransactionReader
	files    FileRemover
	audit    auditor
	logger   *slog.Logger
}

func NewStudentService(students StudentStore, txs TransactionReader, files FileRemover, audit AuditSink, logger *slog.Logger) *StudentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StudentService{
		students: students,
		txs:      txs,
		files:    files,
		audit:    newAuditor(audit, logger),
		logger:   logger,
	}
}

// List 依姓名排序，query 比對姓名、NIS、班級、組別
func (s *StudentService) List(ctx context.Context, query string) ([]domain.Student, error) {
	list, err := s.students.ListStudents(ctx, StudentFilter{Query: strings.TrimSpace(query)})
	return list, classifyStorageError(err)
}

// SearchForCashier 出納用的姓名搜尋：先前綴比對，不足且查詢夠長再補「包含」比對
// 空查詢回傳依姓名排序的前 limit 筆
func (s *StudentService) SearchForCashier(ctx context.Context, query string, limit int) ([]domain.Student, error) {
	q := strings.TrimSpace(query)
	limit = clampLimit(limit)
	if q == "" {
		list, err := s.students.ListStudents(ctx, StudentFilter{Limit: limit})
		return list, classifyStorageError(err)
	}
	return s.search(ctx, q, limit, true)
}

// SearchForAdmin 管理員搜尋：空查詢回傳空清單，「包含」比對涵蓋 NIS、班級、組別
func (s *StudentService) SearchForAdmin(ctx context.Context, query string, limit int) ([]domain.Student, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []domain.Student{}, nil
	}
	return s.search(ctx, q, clampLimit(limit), false)
}

func (s *StudentService) search(ctx context.Context, q string, limit int, nameOnly bool) ([]domain.Student, error) {
	results, err := s.students.ListStudents(ctx, StudentFilter{Query: q, NameOnly: true, Prefix: true, Limit: limit})
	if err != nil {
		return nil, classifyStorageError(err)
	}
	if len(results) >= limit || len([]rune(q)) < containsMinLen {
		return results, nil
	}
	more, err := s.students.ListStudents(ctx, StudentFilter{Query: q, NameOnly: nameOnly, Limit: limit})
	if err != nil {
		return nil, classifyStorageError(err)
	}
	seen := make(map[int64]struct{}, len(results))
	for _, st := range results {
		seen[st.ID] = struct{}{}
	}
	for _, st := range more {
		if len(results) >= limit {
			break
		}
		if _, ok := seen[st.ID]; ok {
			continue
		}
		seen[st.ID] = struct{}{}
		results = append(results, st)
	}
	return results, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

func (s *StudentService) Get(ctx context.Context, id int64) (*domain.Student, error) {
	st, err := s.students.GetStudent(ctx, id)
	return st, classifyStorageError(err)
}

// Detail 學生資料與最近的交易歷史
func (s *StudentService) Detail(ctx context.Context, id int64) (*StudentDetail, error) {
	st, err := s.students.GetStudent(ctx, id)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	history, err := s.txs.StudentTransactions(ctx, id, historyLimit)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	all, err := s.txs.TransactionsOfStudent(ctx, id)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	// 學生建立時餘額為 0，之後只由交易異動
	expected := domain.ReplayBalance(0, all)
	if expected != st.Balance {
		s.logger.Warn("student balance does not match transaction log",
			slog.Int64("student_id", id),
			slog.Int64("balance", st.Balance),
			slog.Int64("replayed", expected))
	}
	return &StudentDetail{Student: *st, History: history, Reconciled: expected == st.Balance}, nil
}

// Create 新增學生，NIS 重複回傳驗證錯誤
func (s *StudentService) Create(ctx context.Context, actor domain.Actor, profile domain.StudentProfile, photoPath string) (*domain.Student, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	st, err := s.students.CreateStudent(ctx, profile, photoPath)
	if errors.Is(err, domain.ErrDuplicateKey) {
		return nil, domain.NewValidationError("nis", "NIS sudah terdaftar")
	}
	if err != nil {
		return nil, classifyStorageError(err)
	}
	s.audit.record(ctx, actor, domain.AuditActionCreate, domain.AuditEntityStudent, strconv.FormatInt(st.ID, 10), map[string]any{
		"nis": st.NIS, "nama": st.Name,
	})
	return st, nil
}

// Update 只更新資料欄位，不碰餘額
func (s *StudentService) Update(ctx context.Context, actor domain.Actor, id int64, profile domain.StudentProfile) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return err
	}
	err := s.students.UpdateStudent(ctx, id, profile)
	if errors.Is(err, domain.ErrDuplicateKey) {
		return domain.NewValidationError("nis", "NIS sudah terdaftar")
	}
	if err != nil {
		return classifyStorageError(err)
	}
	s.audit.record(ctx, actor, domain.AuditActionUpdate, domain.AuditEntityStudent, strconv.FormatInt(id, 10), map[string]any{
		"nis": profile.NIS, "nama": profile.Name,
	})
	return nil
}

// ReplacePhoto 更換照片並刪除舊檔
func (s *StudentService) ReplacePhoto(ctx context.Context, actor domain.Actor, id int64, photoPath string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	st, err := s.students.GetStudent(ctx, id)
	if err != nil {
		return classifyStorageError(err)
	}
	if err := s.students.SetStudentPhoto(ctx, id, photoPath); err != nil {
		return classifyStorageError(err)
	}
	if st.PhotoPath != "" && st.PhotoPath != photoPath {
		s.removeFile(st.PhotoPath)
	}
	return nil
}

// Delete 刪除學生 (交易一併刪除) 與其照片、收據檔
func (s *StudentService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	st, err := s.students.GetStudent(ctx, id)
	if err != nil {
		return classifyStorageError(err)
	}
	txs, err := s.txs.TransactionsOfStudent(ctx, id)
	if err != nil {
		return classifyStorageError(err)
	}
	if err := s.students.DeleteStudent(ctx, id); err != nil {
		return classifyStorageError(err)
	}
	if st.PhotoPath != "" {
		s.removeFile(st.PhotoPath)
	}
	for i := range txs {
		for _, p := range txs[i].Files() {
			s.removeFile(p)
		}
	}
	s.audit.record(ctx, actor, domain.AuditActionDelete, domain.AuditEntityStudent, strconv.FormatInt(id, 10), map[string]any{
		"nis": st.NIS, "nama": st.Name, "saldo": st.Balance, "transaksi": len(txs),
	})
	return nil
}

func (s *StudentService) removeFile(path string) {
	if s.files == nil {
		return
	}
	if err := s.files.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("remove file failed", slog.String("path", path), slog.Any("error", err))
	}
}
