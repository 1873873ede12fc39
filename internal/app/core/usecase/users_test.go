package usecase_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

func newUserService(t *testing.T) (*usecase.UserService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	hasher := usecase.PasswordHasher{Cost: bcrypt.MinCost}
	if err := usecase.SeedDefaults(context.Background(), store, store, hasher); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	return usecase.NewUserService(store, hasher, store, nil), store
}

func TestAuthenticateRequiresMatchingRole(t *testing.T) {
	ctx := context.Background()
	svc, store := newUserService(t)

	u, err := svc.Authenticate(ctx, "admin", "admin123", "admin")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.FullName != "Admin Utama" || u.Role != domain.RoleAdmin {
		t.Fatalf("user = %+v", u)
	}
	if _, err := svc.Authenticate(ctx, "admin", "admin123", "kasir"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong role err = %v", err)
	}
	if _, err := svc.Authenticate(ctx, "kasir", "salah", "kasir"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "x", "kasir"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}
	if _, err := svc.Authenticate(ctx, "kasir", "", "kasir"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty password err = %v", err)
	}

	entries := store.AuditEntries()
	if len(entries) != 1 || entries[0].Action != domain.AuditActionLogin {
		t.Fatalf("audit entries = %+v", entries)
	}
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	hasher := usecase.PasswordHasher{Cost: bcrypt.MinCost}
	for i := 0; i < 2; i++ {
		if err := usecase.SeedDefaults(ctx, store, store, hasher); err != nil {
			t.Fatalf("SeedDefaults: %v", err)
		}
	}
	users, _ := store.ListUsers(ctx)
	presets, _ := store.ListPresets(ctx)
	if len(users) != 2 || len(presets) != 8 {
		t.Fatalf("users = %d presets = %d", len(users), len(presets))
	}
}

func TestUserManagement(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)
	adminUser, _ := svc.Authenticate(ctx, "admin", "admin123", "admin")
	actor := adminUser.Actor()

	u, err := svc.Create(ctx, actor, usecase.UserInput{Username: "kasir2", FullName: "Kasir Dua", Role: "kasir", Password: "rahasia"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, actor, usecase.UserInput{Username: "kasir2", FullName: "X", Role: "kasir", Password: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("duplicate username err = %v", err)
	}
	if _, err := svc.Create(ctx, actor, usecase.UserInput{Username: "x", FullName: "X", Role: "owner", Password: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad role err = %v", err)
	}

	// 密碼留空不變更
	if err := svc.Update(ctx, actor, u.ID, usecase.UserInput{Username: "kasir2", FullName: "Kasir Kedua", Role: "kasir"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "kasir2", "rahasia", "kasir"); err != nil {
		t.Fatalf("password should be unchanged: %v", err)
	}

	if err := svc.Delete(ctx, actor, actor.ID); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("self delete err = %v", err)
	}
	if err := svc.Delete(ctx, actor, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)
	u, _ := svc.Authenticate(ctx, "kasir", "kasir123", "kasir")

	if _, err := svc.UpdateAccount(ctx, u.Actor(), "Kasir Baru", "a", "b"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("mismatched confirmation err = %v", err)
	}
	updated, err := svc.UpdateAccount(ctx, u.Actor(), "Kasir Baru", "baru123", "baru123")
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if updated.FullName != "Kasir Baru" {
		t.Fatalf("full name = %q", updated.FullName)
	}
	if _, err := svc.Authenticate(ctx, "kasir", "baru123", "kasir"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}
