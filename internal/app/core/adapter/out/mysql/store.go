package mysql

import (
	"context"
	"errors"
	"strings"

	driver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
	"github.com/JoeShih716/tabungan-santri/pkg/mysql"
)

// MySQL 錯誤碼
const (
	errCodeDuplicateEntry = 1062
)

// Store 以 GORM 實作所有儲存層介面
type Store struct {
	client *mysql.Client
}

func NewStore(client *mysql.Client) *Store {
	return &Store{client: client}
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.client.DB().WithContext(ctx)
}

// Ping 健康檢查
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// translateError 將 gorm / driver 錯誤轉為 domain 錯誤
//
// 參數:
//
//	err: 原始錯誤
//	notFound: 查無資料時回傳的錯誤
//
// 回傳:
//
//	error: 轉換後的錯誤；無法辨識的錯誤原樣回傳，由上層視為儲存層失敗
func translateError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	var myErr *driver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errCodeDuplicateEntry {
		if strings.Contains(myErr.Message, "trx_no") {
			return domain.ErrDuplicateTrxNo
		}
		return domain.ErrDuplicateKey
	}
	return err
}

// Overview 總餘額、學生數、出納數
func (s *Store) Overview(ctx context.Context) (usecase.Overview, error) {
	var ov usecase.Overview
	err := s.db(ctx).Model(&sqlStudent{}).
		Select("COALESCE(SUM(balance), 0) AS total_balance, COUNT(*) AS student_count").
		Scan(&ov).Error
	if err != nil {
		return ov, err
	}
	err = s.db(ctx).Model(&sqlUser{}).Where("role = ?", string(domain.RoleKasir)).Count(&ov.KasirCount).Error
	return ov, err
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
