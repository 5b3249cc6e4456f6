package quote

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// space is the whitespace class used inside labels. RE2's \s is ASCII only,
// so vertical tab, Unicode separators and the byte order mark are added.
const space = `[\s\v\p{Z}\x{FEFF}]`

// optionLabelRegex matches enumeration labels such as "Option 1:" or "option2-"
// anywhere in the text.
var optionLabelRegex = regexp.MustCompile(`(?i)Option` + space + `*\d+` + space + `*[:\-]`)

// optionLineRegex matches a line that opens with an enumeration label ("Option 2").
var optionLineRegex = regexp.MustCompile(`(?i)^Option` + space + `*\d+`)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize turns raw model output into a single display line:
// 1. Empty input returns empty
// 2. Strip "**" bold markers
// 3. Strip "Option N:" / "Option N-" labels wherever they occur
// 4. Drop one wrapping quote character at each end, then trim
// 5. Drop blank, blockquote, heading/list and option-label lines
// 6. Return the longest surviving line (first wins ties), trimmed
// 7. If no line survives, return the text from step 4
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "**", "")
	text = optionLabelRegex.ReplaceAllString(text, "")
	text = stripWrappingQuotes(text)

	best, bestLen, found := "", -1, false
	for _, line := range strings.Split(text, "\n") {
		if !isCandidateLine(line) {
			continue
		}
		// Length is measured on the untrimmed line.
		if n := utf8.RuneCountInString(line); n > bestLen {
			best, bestLen, found = line, n, true
		}
	}

	if found {
		return trim(best)
	}
	return text
}

// isTrimSpace reports whether r is removed when trimming display text:
// ASCII whitespace, any Unicode separator, and the byte order mark.
func isTrimSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF':
		return true
	}
	return unicode.In(r, unicode.Z)
}

func trim(s string) string {
	return strings.TrimFunc(s, isTrimSpace)
}

// stripWrappingQuotes removes at most one leading and one trailing
// single or double quote, then trims surrounding whitespace.
func stripWrappingQuotes(s string) string {
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'") {
		s = s[1:]
	}
	if strings.HasSuffix(s, `"`) || strings.HasSuffix(s, "'") {
		s = s[:len(s)-1]
	}
	return trim(s)
}

// isCandidateLine reports whether a line may be chosen as the display text.
func isCandidateLine(line string) bool {
	trimmed := trim(line)
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '>', '#', '*', '-':
		return false
	}
	return !optionLineRegex.MatchString(trimmed)
}

// NormalizeCategory normalizes a category key:
// 1. Trim leading/trailing whitespace
// 2. Lowercase
// 3. Collapse internal whitespace to single spaces
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
