// Package normalize turns free-text list names into canonical lookup keys and back into display titles.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Key converts a list name to its canonical key.
//
// Examples:
//
//	"Groceries"          -> "groceries"
//	"Weekend  Chores!"   -> "weekend-chores"
//	"workTodo"           -> "work-todo"
//	"Crème Brûlée"       -> "creme-brulee"
//	"list2"              -> "list-2"
//	"Покупки"            -> "покупки"
//
// Key is idempotent: Key(Key(s)) == Key(s).
func Key(s string) string {
	return strings.Join(lowerWords(s), "-")
}

// Title renders a key (or any name) in start case for display.
// "groceries-2" -> "Groceries 2".
func Title(s string) string {
	// Casers carry state, so each call gets its own.
	caser := cases.Title(language.Und)
	ws := words(s)
	for i, w := range ws {
		ws[i] = caser.String(w)
	}
	return strings.Join(ws, " ")
}

// Snake joins the words of s with underscores.
// "Ada Lovelace" -> "ada_lovelace".
func Snake(s string) string {
	return strings.Join(lowerWords(s), "_")
}

func lowerWords(s string) []string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = norm.NFC.String(strings.ToLower(w))
	}
	return ws
}

// words splits s into words of letters and digits in any script.
// Boundaries are runs of other characters, lower-to-upper transitions, the end of an acronym
// ("XMLFile" -> "XML", "File") and letter/digit transitions.
// Combining marks stay with the word they follow.
func words(s string) []string {
	s = fold(s)

	var (
		out  []string
		cur  []rune
		base rune // last non-mark rune of cur
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsMark(r) {
			if len(cur) > 0 {
				cur = append(cur, r)
			}
			continue
		}
		if !isAlnum(r) {
			flush()
			continue
		}
		if len(cur) > 0 {
			switch {
			case isDigit(base) != isDigit(r):
				flush()
			case isLower(base) && isUpper(r):
				flush()
			case isUpper(base) && isUpper(r) && nextIsLower(runes[i+1:]):
				flush()
			}
		}
		cur = append(cur, r)
		base = r
	}
	flush()

	return out
}

// nextIsLower reports whether the first non-mark rune of rest is lowercase.
func nextIsLower(rest []rune) bool {
	for _, r := range rest {
		if !unicode.IsMark(r) {
			return isLower(r)
		}
	}
	return false
}

// fold strips accents from Latin letters and leaves other scripts intact.
// A combining mark is dropped only when it decorates an ASCII base, so
// "é" becomes "e" while "й" keeps its breve.
func fold(s string) string {
	var (
		b         strings.Builder
		asciiBase bool
	)
	for _, r := range norm.NFKD.String(s) {
		if unicode.IsMark(r) {
			if asciiBase {
				continue
			}
		} else {
			asciiBase = r <= unicode.MaxASCII
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

func isAlnum(r rune) bool { return unicode.IsLetter(r) || isDigit(r) }
func isDigit(r rune) bool { return unicode.IsDigit(r) }
func isLower(r rune) bool { return unicode.IsLower(r) }

// isUpper excludes uppercase letters with no lowercase form, which would never leave a key.
func isUpper(r rune) bool { return unicode.IsUpper(r) && unicode.ToLower(r) != r }
