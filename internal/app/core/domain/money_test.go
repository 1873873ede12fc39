package domain

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "50000", want: 50000},
		{in: "50.000", want: 50000},
		{in: "Rp 1.250.000", want: 1250000},
		{in: " 20,000 ", want: 20000},
		{in: "rp50000", want: 50000},
		{in: "0", wantErr: true},
		{in: "", wantErr: true},
		{in: "-500", wantErr: true},
		{in: "12.5a", wantErr: true},
		{in: "99999999999999999999", wantErr: true},
		{in: "Rp 50.000,00", wantErr: true},
		{in: "12.5", wantErr: true},
		{in: "1,5", wantErr: true},
		{in: "1.2345", wantErr: true},
		{in: "1.000,000", wantErr: true},
		{in: "50 000", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ParseAmount(%q) err = %v, want validation error", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseAmount(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestFormatRupiah(t *testing.T) {
	tests := map[int64]string{
		0:          "Rp 0",
		999:        "Rp 999",
		1000:       "Rp 1.000",
		50000:      "Rp 50.000",
		1250000:    "Rp 1.250.000",
		-20000:     "-Rp 20.000",
		100000000:  "Rp 100.000.000",
		1000000000: "Rp 1.000.000.000",
	}
	for in, want := range tests {
		if got := FormatRupiah(in); got != want {
			t.Errorf("FormatRupiah(%d) = %q, want %q", in, got, want)
		}
	}
}
