package domain

import (
	"strings"
	"time"
)

// Role 使用者角色
type Role string

const (
	RoleAdmin Role = "admin"
	RoleKasir Role = "kasir"
)

// ParseRole 只接受 admin 與 kasir
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleKasir:
		return RoleKasir, nil
	}
	return "", NewValidationError("role", "role harus admin atau kasir")
}

// User 後台使用者
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	Role         Role
	CreatedAt    time.Time
}

// Actor 已驗證的操作者身分
type Actor struct {
	ID       int64
	Username string
	FullName string
	Role     Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// DisplayName 收據與報表上的經手人名稱
func (a Actor) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Username
}

// UserID 以指標回傳，供可為空的外鍵使用
func (a Actor) UserID() *int64 {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

// Actor 轉為操作者身分
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Username: u.Username, FullName: u.FullName, Role: u.Role}
}
