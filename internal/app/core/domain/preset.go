package domain

import (
	"sort"
	"strings"
)

// PresetNominal 表單上的快捷金額
type PresetNominal struct {
	ID        int64
	Type      TransactionType
	Amount    int64
	Label     string
	SortOrder int
	Active    bool
}

// Validate 類型需合法、金額為正
func (p *PresetNominal) Validate() error {
	if !p.Type.Valid() {
		return NewValidationError("tipe", "tipe transaksi tidak valid")
	}
	if err := ValidateAmount(p.Amount); err != nil {
		return err
	}
	p.Label = strings.TrimSpace(p.Label)
	return nil
}

// DisplayLabel 無標籤時以金額顯示
func (p *PresetNominal) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return FormatRupiah(p.Amount)
}

// SortPresets 依 sort_order 遞增，再依金額遞增
func SortPresets(presets []PresetNominal) {
	sort.SliceStable(presets, func(i, j int) bool {
		if presets[i].SortOrder != presets[j].SortOrder {
			return presets[i].SortOrder < presets[j].SortOrder
		}
		return presets[i].Amount < presets[j].Amount
	})
}
