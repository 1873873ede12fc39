package domain

import (
	"strings"
	"time"
)

// TransactionType 交易類型
type TransactionType string

const (
	// 存款 (setor)
	TransactionTypeDeposit TransactionType = "deposit"
	// 提款 (tarik)
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// Valid 回報是否為已知的交易類型
func (t TransactionType) Valid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

// Label 畫面與報表上顯示的名稱
func (t TransactionType) Label() string {
	switch t {
	case TransactionTypeDeposit:
		return "Setor"
	case TransactionTypeWithdrawal:
		return "Tarik"
	}
	return string(t)
}

// ParseTransactionType 接受 deposit/withdrawal 以及表單上的 setor/tarik
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit", "setor":
		return TransactionTypeDeposit, nil
	case "withdrawal", "tarik":
		return TransactionTypeWithdrawal, nil
	}
	return "", NewValidationError("tipe", "tipe transaksi tidak valid")
}

// Transaction 一筆存提款紀錄，建立後除了收據路徑外不可變更
type Transaction struct {
	ID        int64
	TrxNo     string
	StudentID int64
	// UserID 經手人，使用者被刪除後為 nil
	UserID *int64
	Type   TransactionType
	// Amount 最小幣值單位 (Rupiah)，必為正數
	Amount                int64
	Note                  string
	GiverSignaturePath    string
	ReceiverSignaturePath string
	ReceiptPath           string
	CreatedAt             time.Time
}

// BalanceDelta 此交易對學生餘額造成的變化量
func (t *Transaction) BalanceDelta() int64 {
	if t.Type == TransactionTypeWithdrawal {
		return -t.Amount
	}
	return t.Amount
}

// Files 回傳此交易關聯的檔案 (收據、簽名圖)
func (t *Transaction) Files() []string {
	files := make([]string, 0, 3)
	for _, p := range []string{t.ReceiptPath, t.GiverSignaturePath, t.ReceiverSignaturePath} {
		if p != "" {
			files = append(files, p)
		}
	}
	return files
}

// TransactionView 報表與明細用的交易，附帶學生與經手人資訊
type TransactionView struct {
	Transaction
	StudentNIS   string
	StudentName  string
	StudentClass string
	CashierName  string
}

// ReplayBalance 依建立順序重播交易，算出應有的餘額
func ReplayBalance(initial int64, txs []Transaction) int64 {
	balance := initial
	for i := range txs {
		balance += txs[i].BalanceDelta()
	}
	return balance
}
