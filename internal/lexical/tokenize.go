package lexical

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenize splits text into lowercase terms. It breaks on any rune that is
// not a letter or digit (which covers kebab-case and snake_case) and then
// splits camelCase and PascalCase words:
//
//	Tokenize("onClick aria-label is_active") // [on click aria label is active]
//	Tokenize("HTMLInputElement")             // [html input element]
func Tokenize(text string) []string {
	text = norm.NFKC.String(text)

	var tokens []string
	for _, word := range strings.FieldsFunc(text, isSeparator) {
		for _, part := range splitCamel(word) {
			tokens = append(tokens, strings.ToLower(part))
		}
	}
	return tokens
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// splitCamel splits a run of letters and digits at case boundaries.
// "onClick" -> on, Click; "HTMLParser" -> HTML, Parser; "v2Beta" -> v2, Beta.
func splitCamel(word string) []string {
	runes := []rune(word)
	if len(runes) < 2 {
		return []string{word}
	}

	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := false
		switch {
		case unicode.IsUpper(cur) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			boundary = true
		}
		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}
