package domain

import "strings"

// DepositRequest 存款請求
type DepositRequest struct {
	StudentID int64
	Amount    int64
	Note      string
	Actor     Actor
}

// Validate 在進入引擎前檢查欄位
func (r *DepositRequest) Validate() error {
	r.Note = strings.TrimSpace(r.Note)
	if r.StudentID <= 0 {
		return NewValidationError("santri_id", "santri wajib dipilih")
	}
	return ValidateAmount(r.Amount)
}

// WithdrawalRequest 提款請求，ReceiverName 空白時以學生姓名代替
type WithdrawalRequest struct {
	StudentID    int64
	Amount       int64
	Note         string
	ReceiverName string
	Actor        Actor
}

// Validate 在進入引擎前檢查欄位
func (r *WithdrawalRequest) Validate() error {
	r.Note = strings.TrimSpace(r.Note)
	r.ReceiverName = strings.TrimSpace(r.ReceiverName)
	if r.StudentID <= 0 {
		return NewValidationError("santri_id", "santri wajib dipilih")
	}
	return ValidateAmount(r.Amount)
}

// ReversalRequest 沖正 (刪除) 請求，Reference 可為完整編號或 8 位後綴
type ReversalRequest struct {
	Reference string
	Actor     Actor
}

// Validate 只有管理員可以沖正
func (r *ReversalRequest) Validate() (TrxRef, error) {
	ref, err := ParseTrxRef(r.Reference)
	if err != nil {
		return TrxRef{}, err
	}
	if !r.Actor.IsAdmin() {
		return TrxRef{}, ErrForbidden
	}
	return ref, nil
}
