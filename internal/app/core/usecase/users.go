package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// PasswordHasher 以 bcrypt 雜湊密碼
type PasswordHasher struct {
	Cost int
}

func (h PasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(b), err
}

func (h PasswordHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// UserInput 新增或編輯使用者的表單
type UserInput struct {
	Username string
	FullName string
	Role     string
	// Password 編輯時可留空表示不變
	Password string
}

// UserService 登入驗證、使用者管理與個人帳號設定
type UserService struct {
	store  UserStore
	hasher PasswordHasher
	audit  auditor
}

func NewUserService(store UserStore, hasher PasswordHasher, audit AuditSink, logger *slog.Logger) *UserService {
	return &UserService{store: store, hasher: hasher, audit: newAuditor(audit, logger)}
}

// Authenticate 帳號、密碼與角色都必須相符
func (s *UserService) Authenticate(ctx context.Context, username, password, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || strings.TrimSpace(role) == "" {
		return nil, domain.NewValidationError("", "username, password, dan role wajib diisi")
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, classifyStorageError(err)
	}
	if u.Role != r || !s.hasher.Check(password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	s.audit.record(ctx, u.Actor(), domain.AuditActionLogin, domain.AuditEntityAuth, strconv.FormatInt(u.ID, 10), map[string]any{"username": u.Username})
	return u, nil
}

// Logout 只寫稽核
func (s *UserService) Logout(ctx context.Context, actor domain.Actor) {
	s.audit.record(ctx, actor, domain.AuditActionLogout, domain.AuditEntityAuth, strconv.FormatInt(actor.ID, 10), map[string]any{"username": actor.Username})
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.ListUsers(ctx)
	return users, classifyStorageError(err)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, id)
	return u, classifyStorageError(err)
}

// Create 新增使用者，帳號重複回傳驗證錯誤
func (s *UserService) Create(ctx context.Context, actor domain.Actor, in UserInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Username == "" || in.FullName == "" || in.Password == "" {
		return nil, domain.NewValidationError("", "username, nama lengkap, dan password wajib diisi")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Username: in.Username, FullName: in.FullName, Role: role, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.NewValidationError("username", "username sudah dipakai")
		}
		return nil, classifyStorageError(err)
	}
	s.audit.record(ctx, actor, domain.AuditActionCreate, domain.AuditEntityUser, strconv.FormatInt(u.ID, 10), map[string]any{
		"username": u.Username, "role": string(u.Role),
	})
	return u, nil
}

// Update 編輯使用者，密碼留空則不變
func (s *UserService) Update(ctx context.Context, actor domain.Actor, id int64, in UserInput) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return classifyStorageError(err)
	}
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Username == "" || in.FullName == "" {
		return domain.NewValidationError("", "username dan nama lengkap wajib diisi")
	}
	u.Username, u.FullName, u.Role = in.Username, in.FullName, role
	if in.Password != "" {
		if u.PasswordHash, err = s.hasher.Hash(in.Password); err != nil {
			return err
		}
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return domain.NewValidationError("username", "username sudah dipakai")
		}
		return classifyStorageError(err)
	}
	s.audit.record(ctx, actor, domain.AuditActionUpdate, domain.AuditEntityUser, strconv.FormatInt(id, 10), map[string]any{
		"username": u.Username, "role": string(u.Role), "password_changed": in.Password != "",
	})
	return nil
}

// Delete 刪除使用者，不可刪除自己；其交易的經手人改為空
func (s *UserService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if actor.ID == id {
		return domain.NewValidationError("id", "tidak dapat menghapus akun sendiri")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return classifyStorageError(err)
	}
	s.audit.record(ctx, actor, domain.AuditActionDelete, domain.AuditEntityUser, strconv.FormatInt(id, 10), nil)
	return nil
}

// UpdateAccount 使用者修改自己的姓名與密碼 (密碼可留空)
func (s *UserService) UpdateAccount(ctx context.Context, actor domain.Actor, fullName, password, confirm string) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, domain.NewValidationError("full_name", "nama lengkap wajib diisi")
	}
	if password != confirm {
		return nil, domain.NewValidationError("password", "konfirmasi password tidak sama")
	}
	u, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	u.FullName = fullName
	if password != "" {
		if u.PasswordHash, err = s.hasher.Hash(password); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, classifyStorageError(err)
	}
	s.audit.record(ctx, actor, domain.AuditActionUpdate, domain.AuditEntityUser, strconv.FormatInt(u.ID, 10), map[string]any{
		"self": true, "password_changed": password != "",
	})
	return u, nil
}
