package mysql

import (
	"context"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

func toPresets(rows []sqlPreset) []domain.PresetNominal {
	list := make([]domain.PresetNominal, len(rows))
	for i := range rows {
		list[i] = rows[i].toDomain()
	}
	return list
}

// ActivePresets 啟用中的快捷金額，依 sort_order、金額遞增
func (s *Store) ActivePresets(ctx context.Context, tranType domain.TransactionType) ([]domain.PresetNominal, error) {
	var rows []sqlPreset
	err := s.db(ctx).
		Where("type = ? AND active = ?", string(tranType), true).
		Order("sort_order ASC, amount ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toPresets(rows), nil
}

func (s *Store) ListPresets(ctx context.Context) ([]domain.PresetNominal, error) {
	var rows []sqlPreset
	if err := s.db(ctx).Order("type ASC, sort_order ASC, amount ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPresets(rows), nil
}

func (s *Store) GetPreset(ctx context.Context, id int64) (*domain.PresetNominal, error) {
	var row sqlPreset
	if err := s.db(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translateError(err, domain.ErrPresetNotFound)
	}
	p := row.toDomain()
	return &p, nil
}

func (s *Store) CreatePreset(ctx context.Context, preset *domain.PresetNominal) error {
	row := newSQLPreset(preset)
	row.ID = 0
	if err := s.db(ctx).Create(&row).Error; err != nil {
		return err
	}
	preset.ID = row.ID
	return nil
}

func (s *Store) UpdatePreset(ctx context.Context, preset *domain.PresetNominal) error {
	row := newSQLPreset(preset)
	res := s.db(ctx).Model(&sqlPreset{ID: preset.ID}).
		Select("type", "amount", "label", "sort_order", "active").
		Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetPreset(ctx, preset.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeletePreset(ctx context.Context, id int64) error {
	res := s.db(ctx).Where("id = ?", id).Delete(&sqlPreset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPresetNotFound
	}
	return nil
}
