package receipt

import (
	"math"
	"strings"
	"testing"
)

func TestTerbilang(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "nol rupiah"},
		{1, "satu rupiah"},
		{11, "sebelas rupiah"},
		{15, "lima belas rupiah"},
		{21, "dua puluh satu rupiah"},
		{100, "seratus rupiah"},
		{115, "seratus lima belas rupiah"},
		{250, "dua ratus lima puluh rupiah"},
		{1000, "seribu rupiah"},
		{1500, "seribu lima ratus rupiah"},
		{20000, "dua puluh ribu rupiah"},
		{150000, "seratus lima puluh ribu rupiah"},
		{1_000_000, "satu juta rupiah"},
		{2_500_000, "dua juta lima ratus ribu rupiah"},
		{3_000_000_000, "tiga miliar rupiah"},
		{-5000, "lima ribu rupiah"},
	}
	for _, tt := range tests {
		if got := Terbilang(tt.n); got != tt.want {
			t.Errorf("Terbilang(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestSpell(t *testing.T) {
	if got := Spell(LangID, 20000); got != "Dua puluh ribu rupiah" {
		t.Errorf("Spell(id) = %q", got)
	}
	if got := Spell(LangEN, 20000); got != "Twenty thousand rupiah" {
		t.Errorf("Spell(en) = %q", got)
	}
}

func TestTerbilangExtremes(t *testing.T) {
	// 9.223.372.036.854.775.807 / 808
	maxWords := Terbilang(math.MaxInt64)
	minWords := Terbilang(math.MinInt64)
	if !strings.HasPrefix(maxWords, "sembilan juta dua ratus dua puluh tiga ribu tiga ratus tujuh puluh dua triliun") {
		t.Errorf("Terbilang(MaxInt64) = %q", maxWords)
	}
	if !strings.HasSuffix(maxWords, "delapan ratus tujuh rupiah") {
		t.Errorf("Terbilang(MaxInt64) = %q", maxWords)
	}
	if !strings.HasSuffix(minWords, "delapan ratus delapan rupiah") {
		t.Errorf("Terbilang(MinInt64) = %q", minWords)
	}
	if got := Spell(LangEN, math.MinInt64); got != capitalize(minWords) {
		t.Errorf("Spell(en, MinInt64) = %q", got)
	}
}
