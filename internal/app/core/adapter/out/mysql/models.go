package mysql

import (
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// sqlStudent 對應資料庫的 students 表
type sqlStudent struct {
	ID            int64  `gorm:"primaryKey"`
	NIS           string `gorm:"column:nis"`
	Name          string
	Class         string
	Group         string     `gorm:"column:group_name"`
	BirthDate     *time.Time `gorm:"type:date"`
	Address       string
	GuardianPhone string
	PhotoPath     string
	Balance       int64
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (*sqlStudent) TableName() string {
	return "students"
}

func newSQLStudent(p domain.StudentProfile) sqlStudent {
	return sqlStudent{
		NIS:           p.NIS,
		Name:          p.Name,
		Class:         p.Class,
		Group:         p.Group,
		BirthDate:     p.BirthDate,
		Address:       p.Address,
		GuardianPhone: p.GuardianPhone,
	}
}

func (r *sqlStudent) toDomain() domain.Student {
	return domain.Student{
		ID: r.ID,
		StudentProfile: domain.StudentProfile{
			NIS:           r.NIS,
			Name:          r.Name,
			Class:         r.Class,
			Group:         r.Group,
			BirthDate:     r.BirthDate,
			Address:       r.Address,
			GuardianPhone: r.GuardianPhone,
		},
		PhotoPath: r.PhotoPath,
		Balance:   r.Balance,
		CreatedAt: r.CreatedAt,
	}
}

// profileColumns 編輯學生時可更新的欄位 (不含 balance)
var profileColumns = []string{"nis", "name", "class", "group_name", "birth_date", "address", "guardian_phone"}

// sqlTransaction 對應資料庫的 transactions 表
type sqlTransaction struct {
	ID                    int64 `gorm:"primaryKey;autoIncrement"`
	TrxNo                 string
	StudentID             int64
	UserID                *int64
	Type                  string
	Amount                int64
	Note                  string
	GiverSignaturePath    string
	ReceiverSignaturePath string
	ReceiptPath           string
	CreatedAt             time.Time
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

func newSQLTransaction(t *domain.Transaction) sqlTransaction {
	return sqlTransaction{
		TrxNo:                 t.TrxNo,
		StudentID:             t.StudentID,
		UserID:                t.UserID,
		Type:                  string(t.Type),
		Amount:                t.Amount,
		Note:                  t.Note,
		GiverSignaturePath:    t.GiverSignaturePath,
		ReceiverSignaturePath: t.ReceiverSignaturePath,
		ReceiptPath:           t.ReceiptPath,
		CreatedAt:             t.CreatedAt,
	}
}

func (r *sqlTransaction) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:                    r.ID,
		TrxNo:                 r.TrxNo,
		StudentID:             r.StudentID,
		UserID:                r.UserID,
		Type:                  domain.TransactionType(r.Type),
		Amount:                r.Amount,
		Note:                  r.Note,
		GiverSignaturePath:    r.GiverSignaturePath,
		ReceiverSignaturePath: r.ReceiverSignaturePath,
		ReceiptPath:           r.ReceiptPath,
		CreatedAt:             r.CreatedAt,
	}
}

// sqlTransactionView 交易加上學生與經手人欄位 (LEFT JOIN)
type sqlTransactionView struct {
	sqlTransaction `gorm:"embedded"`
	StudentNIS     *string
	StudentName    *string
	StudentClass   *string
	CashierName    *string
}

func (r *sqlTransactionView) toDomain() domain.TransactionView {
	return domain.TransactionView{
		Transaction:  r.sqlTransaction.toDomain(),
		StudentNIS:   deref(r.StudentNIS),
		StudentName:  deref(r.StudentName),
		StudentClass: deref(r.StudentClass),
		CashierName:  deref(r.CashierName),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sqlUser 對應資料庫的 users 表
type sqlUser struct {
	ID           int64 `gorm:"primaryKey"`
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (*sqlUser) TableName() string {
	return "users"
}

func (r *sqlUser) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		FullName:     r.FullName,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt,
	}
}

// sqlPreset 對應資料庫的 preset_nominal 表
type sqlPreset struct {
	ID        int64 `gorm:"primaryKey"`
	Type      string
	Amount    int64
	Label     string
	SortOrder int
	// 指標避免 false 被 gorm 視為零值而套用資料表預設值
	Active    *bool
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (*sqlPreset) TableName() string {
	return "preset_nominal"
}

func newSQLPreset(p *domain.PresetNominal) sqlPreset {
	active := p.Active
	return sqlPreset{
		ID:        p.ID,
		Type:      string(p.Type),
		Amount:    p.Amount,
		Label:     p.Label,
		SortOrder: p.SortOrder,
		Active:    &active,
	}
}

func (r *sqlPreset) toDomain() domain.PresetNominal {
	return domain.PresetNominal{
		ID:        r.ID,
		Type:      domain.TransactionType(r.Type),
		Amount:    r.Amount,
		Label:     r.Label,
		SortOrder: r.SortOrder,
		Active:    r.Active != nil && *r.Active,
	}
}

// sqlAuditLog 對應資料庫的 audit_logs 表
type sqlAuditLog struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    *int64
	Action    string
	Entity    string
	EntityID  string
	Details   string
	CreatedAt time.Time
}

func (*sqlAuditLog) TableName() string {
	return "audit_logs"
}

// sqlFeedback 對應資料庫的 feedback 表
type sqlFeedback struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	Message   string
	CreatedAt time.Time `gorm:"autoCreateTime"`
	DeletedAt *time.Time
	DeletedBy *int64
}

func (*sqlFeedback) TableName() string {
	return "feedback"
}

func (r *sqlFeedback) toDomain() domain.Feedback {
	return domain.Feedback{
		ID:        r.ID,
		Name:      r.Name,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
		DeletedAt: r.DeletedAt,
		DeletedBy: r.DeletedBy,
	}
}
