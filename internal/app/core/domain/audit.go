package domain

import "time"

// 稽核動作
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionImport = "import"
	AuditActionLogin  = "login"
	AuditActionLogout = "logout"
)

// 稽核對象
const (
	AuditEntityTransaction = "transaction"
	AuditEntityStudent     = "student"
	AuditEntityUser        = "user"
	AuditEntityPreset      = "preset"
	AuditEntityAuth        = "auth"
	AuditEntityFeedback    = "feedback"
)

// AuditEntry 只新增不修改的稽核紀錄
type AuditEntry struct {
	ID        int64          `json:"id,omitempty"`
	UserID    *int64         `json:"user_id,omitempty"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
