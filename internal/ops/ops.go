package ops

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/quote"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// ResolveCategory normalizes a category and checks it is known.
// An empty category resolves to fallback, then to quote.DefaultCategory.
func ResolveCategory(category, fallback string) (string, error) {
	c := quote.NormalizeCategory(category)
	if c == "" {
		c = quote.NormalizeCategory(fallback)
	}
	if c == "" {
		c = quote.DefaultCategory
	}
	if !quote.IsKnownCategory(c) {
		return "", errors.NewUnknownCategory(c, quote.CategoryKeys())
	}
	return c, nil
}

// lintText validates quote text for storage.
func lintText(text string, maxChars int) error {
	result := quote.Lint(quote.LintInput{Text: text, MaxChars: maxChars})
	if result.Empty {
		return errors.NewInvalidRequest("text is required")
	}
	if result.TooLarge {
		return errors.NewQuoteTooLarge(result.MaxChars, result.ActualChars)
	}
	return nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
