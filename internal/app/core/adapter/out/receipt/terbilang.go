package receipt

import (
	"math"
	"strings"

	"github.com/divan/num2words"
)

// 拼字語言
const (
	LangID = "id"
	LangEN = "en"
)

var satuan = []string{"", "satu", "dua", "tiga", "empat", "lima", "enam", "tujuh", "delapan", "sembilan", "sepuluh", "sebelas"}

var scales = []struct {
	value uint64
	word  string
}{
	{1_000_000_000_000, "triliun"},
	{1_000_000_000, "miliar"},
	{1_000_000, "juta"},
}

// Terbilang 以印尼文拼出金額，例如 20000 -> "dua puluh ribu rupiah"
func Terbilang(n int64) string {
	u := magnitude(n)
	if u == 0 {
		return "nol rupiah"
	}
	return strings.TrimSpace(words(u)) + " rupiah"
}

// magnitude 絕對值；經 uint64 轉換，math.MinInt64 不會溢位
func magnitude(n int64) uint64 {
	if n < 0 {
		return uint64(-(n + 1)) + 1
	}
	return uint64(n)
}

func words(x uint64) string {
	switch {
	case x < 12:
		return satuan[x]
	case x < 20:
		return words(x-10) + " belas"
	case x < 100:
		return words(x/10) + " puluh" + rest(x%10)
	case x < 200:
		return "seratus" + rest(x-100)
	case x < 1000:
		return words(x/100) + " ratus" + rest(x%100)
	case x < 2000:
		return "seribu" + rest(x-1000)
	case x < 1_000_000:
		return words(x/1000) + " ribu" + rest(x%1000)
	}
	for _, s := range scales {
		if x >= s.value {
			return words(x/s.value) + " " + s.word + rest(x%s.value)
		}
	}
	return ""
}

func rest(x uint64) string {
	if x == 0 {
		return ""
	}
	return " " + words(x)
}

// Spell 依語言拼出金額，首字大寫
func Spell(lang string, n int64) string {
	var s string
	switch lang {
	case LangEN:
		u := magnitude(n)
		if u > math.MaxInt64 {
			// num2words 只接受 int
			s = Terbilang(n)
			break
		}
		s = num2words.Convert(int(u)) + " rupiah"
	default:
		s = Terbilang(n)
	}
	return capitalize(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
