package usecase

import (
	"context"
	"fmt"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// DefaultAccount 初次安裝時建立的帳號
type DefaultAccount struct {
	Username string
	Password string
	FullName string
	Role     domain.Role
}

// DefaultAccounts 預設管理員與出納
func DefaultAccounts() []DefaultAccount {
	return []DefaultAccount{
		{Username: "admin", Password: "admin123", FullName: "Admin Utama", Role: domain.RoleAdmin},
		{Username: "kasir", Password: "kasir123", FullName: "Kasir Utama", Role: domain.RoleKasir},
	}
}

// DefaultPresets 預設快捷金額，存款與提款各四筆
func DefaultPresets() []domain.PresetNominal {
	amounts := []struct {
		amount int64
		label  string
	}{
		{10000, "10 rb"},
		{20000, "20 rb"},
		{50000, "50 rb"},
		{100000, "100 rb"},
	}
	presets := make([]domain.PresetNominal, 0, 2*len(amounts))
	for _, t := range []domain.TransactionType{domain.TransactionTypeDeposit, domain.TransactionTypeWithdrawal} {
		for i, a := range amounts {
			presets = append(presets, domain.PresetNominal{
				Type:      t,
				Amount:    a.amount,
				Label:     a.label,
				SortOrder: i + 1,
				Active:    true,
			})
		}
	}
	return presets
}

// SeedDefaults 使用者表為空時建立預設帳號，快捷金額表為空時建立預設金額
func SeedDefaults(ctx context.Context, users UserStore, presets PresetStore, hasher PasswordHasher) error {
	existing, err := users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(existing) == 0 {
		for _, acc := range DefaultAccounts() {
			hash, err := hasher.Hash(acc.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			u := &domain.User{Username: acc.Username, PasswordHash: hash, FullName: acc.FullName, Role: acc.Role}
			if err := users.CreateUser(ctx, u); err != nil {
				return fmt.Errorf("create user %s: %w", acc.Username, err)
			}
		}
	}
	list, err := presets.ListPresets(ctx)
	if err != nil {
		return fmt.Errorf("list presets: %w", err)
	}
	if len(list) == 0 {
		for _, p := range DefaultPresets() {
			p := p
			if err := presets.CreatePreset(ctx, &p); err != nil {
				return fmt.Errorf("create preset: %w", err)
			}
		}
	}
	return nil
}
