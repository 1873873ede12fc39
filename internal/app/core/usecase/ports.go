package usecase

import (
	"context"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// LedgerTx 單一資料庫交易內可用的操作
// LockStudent / LockTransaction 需取得列鎖 (SELECT ... FOR UPDATE 或等效機制)
type LedgerTx interface {
	// LockStudent 鎖定並讀取學生，不存在回傳 domain.ErrStudentNotFound
	LockStudent(ctx context.Context, studentID int64) (*domain.Student, error)
	// SetBalance 寫入新的餘額
	SetBalance(ctx context.Context, studentID int64, balance int64) error
	// InsertTransaction 新增交易並回填 ID，trx_no 衝突回傳 domain.ErrDuplicateTrxNo
	InsertTransaction(ctx context.Context, tran *domain.Transaction) error
	// FindTransactions 依完整編號或後綴查詢 (不鎖定)
	FindTransactions(ctx context.Context, ref domain.TrxRef) ([]domain.Transaction, error)
	// LockTransaction 鎖定並重新讀取交易，不存在回傳 domain.ErrTransactionNotFound
	LockTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	// DeleteTransaction 刪除交易
	DeleteTransaction(ctx context.Context, id int64) error
}

// LedgerStore 是帳務儲存層的介面
type LedgerStore interface {
	// WithinTx 在單一交易邊界內執行 fn，fn 回傳錯誤時全部回滾
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
	// AttachReceipt 回寫收據路徑，交易不存在回傳 domain.ErrTransactionNotFound
	AttachReceipt(ctx context.Context, trxNo string, path string) error
}

// TransactionReader 交易查詢 (明細、報表、收據下載)
type TransactionReader interface {
	GetTransaction(ctx context.Context, trxNo string) (*domain.TransactionView, error)
	StudentTransactions(ctx context.Context, studentID int64, limit int) ([]domain.TransactionView, error)
	// TransactionsBetween 依時間遞增列出 [from, to) 區間內的交易
	TransactionsBetween(ctx context.Context, from, to time.Time) ([]domain.TransactionView, error)
	// TransactionsOfStudent 依建立順序列出學生全部交易 (餘額重播用)
	TransactionsOfStudent(ctx context.Context, studentID int64) ([]domain.Transaction, error)
}

// StudentFilter 學生查詢條件
type StudentFilter struct {
	// Query 比對姓名、NIS、班級、組別 (包含)
	Query string
	// NameOnly 只比對姓名
	NameOnly bool
	// Prefix 以 Query 為開頭比對，否則為包含
	Prefix bool
	Limit  int
}

// StudentStore 學生資料存取
type StudentStore interface {
	ListStudents(ctx context.Context, filter StudentFilter) ([]domain.Student, error)
	GetStudent(ctx context.Context, id int64) (*domain.Student, error)
	// CreateStudent NIS 重複回傳 domain.ErrDuplicateKey
	CreateStudent(ctx context.Context, profile domain.StudentProfile, photoPath string) (*domain.Student, error)
	// UpdateStudent 只更新資料欄位，絕不更動餘額
	UpdateStudent(ctx context.Context, id int64, profile domain.StudentProfile) error
	SetStudentPhoto(ctx context.Context, id int64, photoPath string) error
	// DeleteStudent 連帶刪除其交易 (cascade)
	DeleteStudent(ctx context.Context, id int64) error
	// UpsertStudent 依 NIS 新增或更新資料，回報是否為新增
	UpsertStudent(ctx context.Context, profile domain.StudentProfile) (inserted bool, err error)
}

// UserStore 使用者資料存取
type UserStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// CreateUser 帳號重複回傳 domain.ErrDuplicateKey
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// PresetStore 快捷金額資料存取
type PresetStore interface {
	// ActivePresets 回傳啟用中的快捷金額，依 sort_order、金額遞增
	ActivePresets(ctx context.Context, tranType domain.TransactionType) ([]domain.PresetNominal, error)
	ListPresets(ctx context.Context) ([]domain.PresetNominal, error)
	GetPreset(ctx context.Context, id int64) (*domain.PresetNominal, error)
	CreatePreset(ctx context.Context, preset *domain.PresetNominal) error
	UpdatePreset(ctx context.Context, preset *domain.PresetNominal) error
	DeletePreset(ctx context.Context, id int64) error
}

// Overview 管理員儀表板統計
type Overview struct {
	TotalBalance int64
	StudentCount int64
	KasirCount   int64
}

// StatsStore 統計查詢
type StatsStore interface {
	Overview(ctx context.Context) (Overview, error)
}

// AuditSink 稽核紀錄接收端，呼叫方一律視為盡力而為
type AuditSink interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

// FeedbackStore 意見回饋資料存取
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, fb *domain.Feedback) error
	ListFeedback(ctx context.Context) ([]domain.Feedback, error)
	// SoftDeleteFeedback 標記刪除時間與刪除者
	SoftDeleteFeedback(ctx context.Context, id int64, by int64, at time.Time) error
}

// ReceiptRequest 產生提款收據所需的資料
type ReceiptRequest struct {
	TrxNo        string
	CreatedAt    time.Time
	StudentName  string
	StudentNIS   string
	StudentClass string
	Amount       int64
	Note         string
	GiverName    string
	ReceiverName string
	// 簽名在列印後才進行，產生時通常為空
	GiverSignaturePath    string
	ReceiverSignaturePath string
}

// ReceiptRenderer 收據產生器，回傳相對於儲存根目錄的檔案路徑
// 失敗時回傳包裝 domain.ErrRender 的錯誤
type ReceiptRenderer interface {
	RenderWithdrawal(ctx context.Context, req ReceiptRequest) (string, error)
}

// FileRemover 刪除儲存根目錄下的檔案
type FileRemover interface {
	Remove(path string) error
}
