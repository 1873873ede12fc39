package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 請求欄位不合法 (金額、必填欄位等)，不會產生任何異動
	ErrValidation = errors.New("validation failed")

	// ErrNotFound 找不到資料
	ErrNotFound = errors.New("not found")

	// ErrStudentNotFound 找不到學生 (santri)
	ErrStudentNotFound = fmt.Errorf("student %w", ErrNotFound)

	// ErrTransactionNotFound 找不到交易
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)

	// ErrUserNotFound 找不到使用者
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrPresetNotFound 找不到快捷金額
	ErrPresetNotFound = fmt.Errorf("preset %w", ErrNotFound)

	// ErrInsufficientFunds 餘額不足 (業務拒絕，不是系統錯誤)
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAmbiguousReference 交易後綴同時對應到多筆交易
	ErrAmbiguousReference = errors.New("ambiguous transaction reference")

	// ErrStorageUnavailable 儲存層逾時或寫入失敗，操作未生效，可安全重試
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrRender 收據 (PDF) 產生失敗
	ErrRender = errors.New("receipt render failed")

	// ErrDuplicateKey 唯一鍵衝突
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrDuplicateTrxNo 交易編號衝突，可重新產生後重試
	ErrDuplicateTrxNo = fmt.Errorf("trx_no %w", ErrDuplicateKey)

	// ErrForbidden 角色權限不足
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials 帳號、密碼或角色錯誤
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError 描述單一欄位的驗證錯誤，errors.Is(err, ErrValidation) 為 true
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError 建立欄位驗證錯誤
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsBusinessError 回報 err 是否為可預期的業務錯誤 (非儲存層故障)
func IsBusinessError(err error) bool {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrAmbiguousReference),
		errors.Is(err, ErrDuplicateKey),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidCredentials):
		return true
	}
	return false
}
