package wordls

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// token is one identifier occurrence. Start and End are byte offsets into the
// text that was scanned; Name is the normalized spelling.
type token struct {
	Name  string
	Start int
	End   int
	Def   bool
}

var definitionKeywords = map[string]bool{
	"let":  true,
	"func": true,
	"def":  true,
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// scan splits text into identifier tokens. A keyword followed only by
// horizontal whitespace marks the next identifier as a definition.
func scan(text string) []token {
	var tokens []token
	pendingDef := false
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case isIdentStart(r):
		case unicode.IsDigit(r):
			// numbers like 42abc are not identifiers
			for i < len(text) {
				r, size = utf8.DecodeRuneInString(text[i:])
				if !isIdentPart(r) {
					break
				}
				i += size
			}
			pendingDef = false
			continue
		default:
			if r != ' ' && r != '\t' {
				pendingDef = false
			}
			i += size
			continue
		}

		start := i
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if !isIdentPart(r) {
				break
			}
			i += size
		}
		name := norm.NFC.String(text[start:i])
		if definitionKeywords[name] {
			pendingDef = true
			continue
		}
		tokens = append(tokens, token{Name: name, Start: start, End: i, Def: pendingDef})
		pendingDef = false
	}
	return tokens
}
