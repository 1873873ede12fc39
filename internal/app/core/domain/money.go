package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// amountPattern 純數字，或每三位以同一種 '.' / ',' 分隔的千分位
var amountPattern = regexp.MustCompile(`^(\d+|\d{1,3}(\.\d{3})+|\d{1,3}(,\d{3})+)$`)

// ParseAmount 將表單輸入的金額轉為正整數 (Rupiah)
// 允許 "Rp" 前綴與千分位；分隔符號後必須剛好三位數，小數部分 (",00"、".5") 一律拒絕
func ParseAmount(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && strings.EqualFold(s[:2], "rp") {
		s = strings.TrimSpace(s[2:])
	}
	if s == "" {
		return 0, NewValidationError("jumlah", "jumlah wajib diisi")
	}
	if !amountPattern.MatchString(s) {
		return 0, NewValidationError("jumlah", "jumlah harus berupa bilangan bulat positif tanpa desimal")
	}
	s = strings.NewReplacer(".", "", ",", "").Replace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, NewValidationError("jumlah", "jumlah terlalu besar")
	}
	if n <= 0 {
		return 0, NewValidationError("jumlah", "jumlah harus lebih dari 0")
	}
	return n, nil
}

// ValidateAmount 金額必須為正數
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return NewValidationError("jumlah", "jumlah harus lebih dari 0")
	}
	return nil
}

// FormatThousands 以 '.' 作為千分位 (Indonesia 慣例)，例如 50000 -> "50.000"
func FormatThousands(n int64) string {
	neg := n < 0
	var u uint64
	if neg {
		if n == math.MinInt64 {
			u = uint64(math.MaxInt64) + 1
		} else {
			u = uint64(-n)
		}
	} else {
		u = uint64(n)
	}
	digits := strconv.FormatUint(u, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatRupiah 例如 50000 -> "Rp 50.000"
func FormatRupiah(n int64) string {
	if n < 0 {
		return "-Rp " + FormatThousands(n)[1:]
	}
	return "Rp " + FormatThousands(n)
}
