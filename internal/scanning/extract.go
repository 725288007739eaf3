package scanning

import (
	"strings"
	"unicode"
)

// Separator is the only punctuation accepted inside an amount token. The
// reports use comma-decimal notation, so everything else (including the
// thousands dot) is treated as noise.
const Separator = ','

// ExtractAmount walks a line of recognized text from its last rune toward
// its first and returns the rightmost run of digits with at most one
// separator. A letter ends the walk immediately, so digits to the left of
// trailing words ("Total: 1.234,56 EUR") are never picked up. Any other
// rune is skipped without ending the walk, which means a thousands dot is
// silently dropped from the result ("1.234,56" comes back as "1234,56").
//
// The result contains only digits and at most one separator. It may be
// empty, and it may be a bare separator; callers filter those out.
func ExtractAmount(line string) string {
	runes := []rune(line)
	picked := make([]rune, 0, len(runes))
	haveSeparator := false

scan:
	for i := len(runes) - 1; i >= 0; i-- {
		switch r := runes[i]; {
		case unicode.IsLetter(r):
			break scan
		case r == Separator:
			if !haveSeparator {
				picked = append(picked, r)
				haveSeparator = true
			}
		case unicode.IsDigit(r):
			picked = append(picked, r)
		}
	}

	// Accumulated back to front, so flip it.
	for l, r := 0, len(picked)-1; l < r; l, r = l+1, r-1 {
		picked[l], picked[r] = picked[r], picked[l]
	}

	return string(picked)
}

// AmountTokens splits recognized page text into lines and extracts an
// amount from each. Lines that yield nothing, a bare separator, or a token
// with no separator at all (page numbers, years, registry codes) are
// dropped. Order follows the page text.
func AmountTokens(text string) []string {
	var tokens []string

	for _, line := range strings.Split(text, "\n") {
		token := ExtractAmount(line)
		if token == "" || token == string(Separator) || !strings.ContainsRune(token, Separator) {
			continue
		}
		tokens = append(tokens, token)
	}

	return tokens
}
