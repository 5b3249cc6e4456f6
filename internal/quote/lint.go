package quote

import "strings"

// LintInput contains parameters for linting quote text.
type LintInput struct {
	Text     string
	MaxChars int
}

// LintResult contains the results of linting quote text.
type LintResult struct {
	Valid       bool
	Empty       bool
	TooLarge    bool
	ActualChars int
	MaxChars    int
}

// Lint validates quote text and returns a LintResult.
func Lint(input LintInput) *LintResult {
	result := &LintResult{
		Valid:       true,
		ActualChars: CountChars(input.Text),
		MaxChars:    input.MaxChars,
	}

	if strings.TrimSpace(input.Text) == "" {
		result.Empty = true
		result.Valid = false
	}

	if input.MaxChars > 0 && result.ActualChars > input.MaxChars {
		result.TooLarge = true
		result.Valid = false
	}

	return result
}
