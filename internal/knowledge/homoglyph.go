package knowledge

import "strings"

// homoglyphs maps Cyrillic and Greek look-alikes to their Latin uppercase
// equivalents. Spam tokens spoof established symbols ("USDТ" with a
// Cyrillic Т) to slip past naive string comparison; folding defeats that.
var homoglyphs = map[rune]rune{
	// Cyrillic uppercase
	'А': 'A', 'В': 'B', 'С': 'C', 'Е': 'E', 'Н': 'H', 'К': 'K',
	'М': 'M', 'О': 'O', 'Р': 'P', 'Т': 'T', 'Х': 'X',
	// Cyrillic lowercase
	'а': 'A', 'в': 'B', 'с': 'C', 'е': 'E', 'н': 'H', 'к': 'K',
	'м': 'M', 'о': 'O', 'р': 'P', 'т': 'T', 'х': 'X',
	// Mirrored Cyrillic Ya, used as an R spoof
	'Я': 'R', 'я': 'R',
	// Greek uppercase
	'Α': 'A', 'Β': 'B', 'Ε': 'E', 'Η': 'H', 'Κ': 'K', 'Μ': 'M',
	'Ο': 'O', 'Ρ': 'P', 'Τ': 'T', 'Χ': 'X',
	// Greek lowercase look-alikes
	'ο': 'O', 'ρ': 'P', 'τ': 'T', 'χ': 'X', 'κ': 'K',
}

// NormalizeSymbol trims, upper-cases, and folds homoglyphs to Latin so
// spoofed symbols compare equal to the symbols they imitate. Upper-casing
// happens first: it maps lowercase look-alikes onto the uppercase entries
// of the fold table.
func NormalizeSymbol(symbol string) string {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.Map(func(r rune) rune {
		if latin, ok := homoglyphs[r]; ok {
			return latin
		}
		return r
	}, upper)
}
