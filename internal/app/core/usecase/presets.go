package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// PresetService 管理快捷金額 (僅管理員)
type PresetService struct {
	store PresetStore
	audit auditor
}

func NewPresetService(store PresetStore, audit AuditSink, logger *slog.Logger) *PresetService {
	return &PresetService{store: store, audit: newAuditor(audit, logger)}
}

// List 依類型、sort_order、金額排序列出全部快捷金額 (含停用)
func (s *PresetService) List(ctx context.Context) ([]domain.PresetNominal, error) {
	presets, err := s.store.ListPresets(ctx)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	sort.SliceStable(presets, func(i, j int) bool {
		if presets[i].Type != presets[j].Type {
			return presets[i].Type < presets[j].Type
		}
		if presets[i].SortOrder != presets[j].SortOrder {
			return presets[i].SortOrder < presets[j].SortOrder
		}
		return presets[i].Amount < presets[j].Amount
	})
	return presets, nil
}

func (s *PresetService) Get(ctx context.Context, id int64) (*domain.PresetNominal, error) {
	return s.store.GetPreset(ctx, id)
}

func (s *PresetService) Create(ctx context.Context, actor domain.Actor, preset *domain.PresetNominal) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := preset.Validate(); err != nil {
		return err
	}
	if err := s.store.CreatePreset(ctx, preset); err != nil {
		return classifyStorageError(err)
	}
	s.audit.record(ctx, actor, domain.AuditActionCreate, domain.AuditEntityPreset, strconv.FormatInt(preset.ID, 10), map[string]any{
		"type": string(preset.Type), "amount": preset.Amount,
	})
	return nil
}

func (s *PresetService) Update(ctx context.Context, actor domain.Actor, preset *domain.PresetNominal) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := preset.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdatePreset(ctx, preset); err != nil {
		return classifyStorageError(err)
	}
	s.audit.record(ctx, actor, domain.AuditActionUpdate, domain.AuditEntityPreset, strconv.FormatInt(preset.ID, 10), map[string]any{
		"type": string(preset.Type), "amount": preset.Amount, "active": preset.Active,
	})
	return nil
}

func (s *PresetService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.store.DeletePreset(ctx, id); err != nil {
		return classifyStorageError(err)
	}
	s.audit.record(ctx, actor, domain.AuditActionDelete, domain.AuditEntityPreset, strconv.FormatInt(id, 10), nil)
	return nil
}
