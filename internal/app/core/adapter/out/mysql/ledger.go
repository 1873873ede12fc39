package mysql

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

// gormTx 在同一個 *gorm.DB 交易內操作
type gormTx struct {
	db *gorm.DB
}

// WithinTx 以資料庫交易執行 fn，fn 回傳錯誤時回滾
func (s *Store) WithinTx(ctx context.Context, fn func(tx usecase.LedgerTx) error) error {
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

// LockStudent SELECT ... FOR UPDATE 鎖定學生列
func (tx *gormTx) LockStudent(ctx context.Context, studentID int64) (*domain.Student, error) {
	var row sqlStudent
	err := tx.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", studentID).
		First(&row).Error
	if err != nil {
		return nil, translateError(err, domain.ErrStudentNotFound)
	}
	st := row.toDomain()
	return &st, nil
}

func (tx *gormTx) SetBalance(ctx context.Context, studentID int64, balance int64) error {
	res := tx.db.WithContext(ctx).Model(&sqlStudent{}).Where("id = ?", studentID).Update("balance", balance)
	return res.Error
}

func (tx *gormTx) InsertTransaction(ctx context.Context, tran *domain.Transaction) error {
	row := newSQLTransaction(tran)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if err := tx.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translateError(err, domain.ErrStudentNotFound)
	}
	tran.ID = row.ID
	tran.CreatedAt = row.CreatedAt
	return nil
}

func (tx *gormTx) FindTransactions(ctx context.Context, ref domain.TrxRef) ([]domain.Transaction, error) {
	q := tx.db.WithContext(ctx).Model(&sqlTransaction{})
	if ref.Exact != "" {
		q = q.Where("trx_no = ?", ref.Exact)
	} else {
		q = q.Where("trx_no LIKE ?", "%-"+ref.Suffix)
	}
	var rows []sqlTransaction
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	// 資料庫定序可能不分大小寫，再以完整規則過濾一次
	list := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		if ref.Matches(rows[i].TrxNo) {
			list = append(list, rows[i].toDomain())
		}
	}
	return list, nil
}

func (tx *gormTx) LockTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	var row sqlTransaction
	err := tx.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, translateError(err, domain.ErrTransactionNotFound)
	}
	t := row.toDomain()
	return &t, nil
}

func (tx *gormTx) DeleteTransaction(ctx context.Context, id int64) error {
	res := tx.db.WithContext(ctx).Where("id = ?", id).Delete(&sqlTransaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// AttachReceipt 回寫收據路徑
func (s *Store) AttachReceipt(ctx context.Context, trxNo string, path string) error {
	res := s.db(ctx).Model(&sqlTransaction{}).Where("trx_no = ?", trxNo).Update("receipt_path", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL 在值未變時回報 0 列
	var count int64
	if err := s.db(ctx).Model(&sqlTransaction{}).Where("trx_no = ?", trxNo).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

const viewSelect = "t.*, s.nis AS student_nis, s.name AS student_name, s.class AS student_class, u.full_name AS cashier_name"

func (s *Store) views(ctx context.Context) *gorm.DB {
	return s.db(ctx).Table("transactions AS t").
		Select(viewSelect).
		Joins("LEFT JOIN students AS s ON s.id = t.student_id").
		Joins("LEFT JOIN users AS u ON u.id = t.user_id")
}

func toViews(rows []sqlTransactionView) []domain.TransactionView {
	list := make([]domain.TransactionView, len(rows))
	for i := range rows {
		list[i] = rows[i].toDomain()
	}
	return list
}

func (s *Store) GetTransaction(ctx context.Context, trxNo string) (*domain.TransactionView, error) {
	var rows []sqlTransactionView
	if err := s.views(ctx).Where("t.trx_no = ?", strings.TrimSpace(trxNo)).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrTransactionNotFound
	}
	v := rows[0].toDomain()
	return &v, nil
}

// StudentTransactions 學生交易，新到舊
func (s *Store) StudentTransactions(ctx context.Context, studentID int64, limit int) ([]domain.TransactionView, error) {
	q := s.views(ctx).Where("t.student_id = ?", studentID).Order("t.created_at DESC, t.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []sqlTransactionView
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toViews(rows), nil
}

// TransactionsBetween 依時間遞增列出 [from, to) 區間內的交易
func (s *Store) TransactionsBetween(ctx context.Context, from, to time.Time) ([]domain.TransactionView, error) {
	var rows []sqlTransactionView
	err := s.views(ctx).
		Where("t.created_at >= ? AND t.created_at < ?", from, to).
		Order("t.created_at ASC, t.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toViews(rows), nil
}

// TransactionsOfStudent 依建立順序列出學生全部交易
func (s *Store) TransactionsOfStudent(ctx context.Context, studentID int64) ([]domain.Transaction, error) {
	var rows []sqlTransaction
	err := s.db(ctx).Where("student_id = ?", studentID).Order("created_at ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	list := make([]domain.Transaction, len(rows))
	for i := range rows {
		list[i] = rows[i].toDomain()
	}
	return list, nil
}
