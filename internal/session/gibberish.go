package session

import (
	"strings"
	"unicode"
)

const (
	minAlphaSpaceRatio = 0.4
	maxSymbolRatio     = 0.4
	vowelCheckMinRunes = 4
)

// Short answers that are real words in an interview even though they fail
// the vowel and length heuristics.
var professionalAbbreviations = map[string]struct{}{
	"hr": {}, "vp": {}, "it": {}, "ai": {}, "ceo": {}, "cto": {},
	"cfo": {}, "coo": {}, "qa": {}, "ux": {}, "ui": {}, "pm": {},
}

func IsGibberish(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return true
	}
	if _, ok := professionalAbbreviations[strings.ToLower(s)]; ok {
		return false
	}

	runes := []rune(s)
	total := len(runes)
	if total < 2 {
		return true
	}

	var alphaSpace, symbols int
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsSpace(r):
			alphaSpace++
		case !unicode.IsNumber(r):
			symbols++
		}
	}
	hasVowel := strings.ContainsAny(strings.ToLower(s), "aeiouy")

	if float64(alphaSpace)/float64(total) < minAlphaSpaceRatio {
		return true
	}
	if float64(symbols)/float64(total) > maxSymbolRatio {
		return true
	}
	if total > vowelCheckMinRunes && !hasVowel {
		return true
	}
	return !hasLetterToken(s)
}

func hasLetterToken(s string) bool {
	for _, tok := range strings.Fields(s) {
		if isAllLetters(tok) {
			return true
		}
	}
	return false
}

func isAllLetters(tok string) bool {
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return tok != ""
}
