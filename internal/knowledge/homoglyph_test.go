package knowledge

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"usdt", "USDT"},
		{"  ETH  ", "ETH"},
		{"USDТ", "USDT"}, // Cyrillic Te
		{"ТEST", "TEST"}, // Cyrillic Te + Latin EST
		{"ΡOOL", "POOL"}, // Greek Rho
		{"USДC", "USДC"}, // Cyrillic De has no Latin look-alike, kept as-is
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeSymbol(tc.input); got != tc.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// A spoofed stablecoin symbol must compare equal to the real one after
// normalization, and therefore classify as established.
func TestNormalizeSymbol_SpoofDetection(t *testing.T) {
	kb := Default()

	spoofs := []string{
		"USDТ",       // USDТ with Cyrillic Т
		"УSDT",       // not a mapped rune, must NOT match
		"usdт",       // lowercase Cyrillic т
		"ΕTH",        // Greek Epsilon + TH
	}

	if !kb.IsStablecoin(spoofs[0]) {
		t.Error("Cyrillic-Т USDT spoof should normalize to USDT")
	}
	if kb.IsStablecoin(spoofs[1]) {
		t.Error("Cyrillic У is not a mapped homoglyph and must not match")
	}
	if !kb.IsStablecoin(spoofs[2]) {
		t.Error("lowercase Cyrillic т spoof should normalize to USDT")
	}
	if !kb.IsEstablished(spoofs[3]) {
		t.Error("Greek Epsilon ETH spoof should normalize to ETH")
	}
}

func TestNormalizeSymbol_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("normalization is idempotent", prop.ForAll(
		func(s string) bool {
			once := NormalizeSymbol(s)
			return NormalizeSymbol(once) == once
		},
		gen.AnyString(),
	))

	properties.Property("output contains no mapped homoglyphs", prop.ForAll(
		func(s string) bool {
			for _, r := range NormalizeSymbol(s) {
				if _, ok := homoglyphs[r]; ok {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestClassify_Properties(t *testing.T) {
	kb := Default()
	properties := gopter.NewProperties(nil)

	properties.Property("classification is stable across calls", prop.ForAll(
		func(s string) bool {
			return kb.Classify(s) == kb.Classify(s)
		},
		gen.AnyString(),
	))

	properties.Property("established lookup is normalization-insensitive", prop.ForAll(
		func(s string) bool {
			return kb.IsEstablished(s) == kb.IsEstablished(NormalizeSymbol(s))
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
