package domain

// ReceiptWarning 財務已入帳但收據未完成時附帶的警告
type ReceiptWarning struct {
	// Err 產生或回寫收據時的錯誤；Pending 為 true 時為 nil
	Err error
	// Pending 收據改為背景產生，尚未完成
	Pending bool
}

func (w *ReceiptWarning) Error() string {
	if w.Pending {
		return "receipt is being generated in background"
	}
	if w.Err == nil {
		return "receipt unavailable"
	}
	return w.Err.Error()
}

func (w *ReceiptWarning) Unwrap() error { return w.Err }

// Outcome 存提款結果：Committed 一定已入帳，ReceiptWarning 非 nil 表示降級成功
type Outcome struct {
	Committed      Transaction
	Student        Student
	ReceiptWarning *ReceiptWarning
}

// Degraded 回報是否為降級成功
func (o *Outcome) Degraded() bool { return o.ReceiptWarning != nil }

// ReversalOutcome 沖正結果
type ReversalOutcome struct {
	Reversed Transaction
	Student  Student
	// NegativeBalance 沖正後餘額為負 (允許但需標示)
	NegativeBalance bool
	// FileErrors 刪除附檔失敗的路徑 (不影響結果)
	FileErrors []string
}
