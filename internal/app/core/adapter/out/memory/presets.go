package memory

import (
	"context"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

func (s *Store) ActivePresets(ctx context.Context, tranType domain.TransactionType) ([]domain.PresetNominal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]domain.PresetNominal, 0)
	for _, p := range s.presets {
		if p.Active && p.Type == tranType {
			list = append(list, *p)
		}
	}
	domain.SortPresets(list)
	return list, nil
}

func (s *Store) ListPresets(ctx context.Context) ([]domain.PresetNominal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]domain.PresetNominal, 0, len(s.presets))
	for _, p := range s.presets {
		list = append(list, *p)
	}
	domain.SortPresets(list)
	return list, nil
}

func (s *Store) GetPreset(ctx context.Context, id int64) (*domain.PresetNominal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.presets[id]
	if !ok {
		return nil, domain.ErrPresetNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) CreatePreset(ctx context.Context, preset *domain.PresetNominal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.preset++
	preset.ID = s.seq.preset
	cp := *preset
	s.presets[preset.ID] = &cp
	return nil
}

func (s *Store) UpdatePreset(ctx context.Context, preset *domain.PresetNominal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.presets[preset.ID]; !ok {
		return domain.ErrPresetNotFound
	}
	cp := *preset
	s.presets[preset.ID] = &cp
	return nil
}

func (s *Store) DeletePreset(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.presets[id]; !ok {
		return domain.ErrPresetNotFound
	}
	delete(s.presets, id)
	return nil
}
