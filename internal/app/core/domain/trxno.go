package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// TrxNoPrefix 交易編號前綴
	TrxNoPrefix = "TRX-"
	// TrxNoTimeLayout 交易編號中的時間格式 (YYYYMMDD-HHmmss)
	TrxNoTimeLayout = "20060102-150405"
	// TrxSuffixLen 交易編號尾端隨機十六進位長度
	TrxSuffixLen = 8
)

var (
	trxNoPattern      = regexp.MustCompile(`^TRX-\d{8}-\d{6}-[0-9a-f]{8}$`)
	trxNoLoosePattern = regexp.MustCompile(`(?i)^TRX-\d{8}-\d{6}-[0-9a-f]{8}$`)
	trxSuffixPattern  = regexp.MustCompile(`(?i)^[0-9a-f]{8}$`)
)

// TrxNoGenerator 依時間產生交易編號，注入到 Engine 以便測試替換
type TrxNoGenerator func(now time.Time) (string, error)

// NewTrxNo 產生 TRX-YYYYMMDD-HHmmss-xxxxxxxx 格式的交易編號
// 後綴取自隨機 UUID (v4) 的前 8 個十六進位字元，共 32 bits 熵
//
// 參數:
//
//	now: 交易時間
//
// 回傳:
//
//	string: 交易編號
//	error: 亂數來源失敗
func NewTrxNo(now time.Time) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("read random source: %w", err)
	}
	return FormatTrxNo(now, id.String()[:TrxSuffixLen]), nil
}

// FormatTrxNo 組合時間與後綴
func FormatTrxNo(now time.Time, suffix string) string {
	return TrxNoPrefix + now.Format(TrxNoTimeLayout) + "-" + strings.ToLower(suffix)
}

// IsTrxNo 檢查字串是否為完整且正規化的交易編號
func IsTrxNo(s string) bool {
	return trxNoPattern.MatchString(s)
}

// TrxSuffix 取出交易編號尾端的 8 位十六進位
func TrxSuffix(trxNo string) string {
	if len(trxNo) < TrxSuffixLen {
		return ""
	}
	return trxNo[len(trxNo)-TrxSuffixLen:]
}

// TrxRef 沖正時使用的交易參照：完整編號 (Exact) 或尾端後綴 (Suffix)，兩者擇一
type TrxRef struct {
	Exact  string
	Suffix string
}

func (r TrxRef) String() string {
	if r.Exact != "" {
		return r.Exact
	}
	return r.Suffix
}

// Matches 回報 trxNo 是否符合此參照
func (r TrxRef) Matches(trxNo string) bool {
	if r.Exact != "" {
		return trxNo == r.Exact
	}
	return TrxSuffix(trxNo) == r.Suffix && strings.HasPrefix(trxNo, TrxNoPrefix)
}

// ParseTrxRef 解析使用者輸入的交易參照
// 完整編號不分大小寫，正規化為 TRX- 大寫前綴與小寫後綴；
// 否則必須恰好是 8 位十六進位後綴
func ParseTrxRef(raw string) (TrxRef, error) {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return TrxRef{}, NewValidationError("trx_no", "nomor transaksi wajib diisi")
	case trxNoLoosePattern.MatchString(s):
		n := len(s)
		return TrxRef{Exact: strings.ToUpper(s[:n-TrxSuffixLen]) + strings.ToLower(s[n-TrxSuffixLen:])}, nil
	case trxSuffixPattern.MatchString(s):
		return TrxRef{Suffix: strings.ToLower(s)}, nil
	}
	return TrxRef{}, NewValidationError("trx_no", "format nomor transaksi tidak dikenal")
}
