package quote

import "strings"

// Default authors applied when a quote is saved without one.
const (
	AuthorAIGenerated = "AI Generated"
	AuthorAnonymous   = "Anonymous"
)

// Quote is a saved quote in the personal collection.
type Quote struct {
	// ID is a ULID that uniquely identifies this quote
	ID string `json:"id"`

	// Text is the quote content as displayed
	Text string `json:"text"`

	// Category is the normalized category key (e.g., "motivation")
	Category string `json:"category"`

	// Author is who the quote is attributed to
	Author string `json:"author"`

	// IsAIGenerated is true when the text came from the generation backend
	IsAIGenerated bool `json:"is_ai_generated"`

	// CreatedAt is the Unix timestamp when the quote was saved
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the quote was last edited
	UpdatedAt int64 `json:"updated_at"`

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// Summary is the list view of a quote. It adds the character count used
// by browse surfaces.
type Summary struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	Category      string `json:"category"`
	Author        string `json:"author"`
	IsAIGenerated bool   `json:"is_ai_generated"`
	Chars         int    `json:"chars"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
	DeletedAt     *int64 `json:"deleted_at,omitempty"`
}

// ToSummary converts a Quote to its list view.
func (q *Quote) ToSummary() Summary {
	return Summary{
		ID:            q.ID,
		Text:          q.Text,
		Category:      q.Category,
		Author:        q.Author,
		IsAIGenerated: q.IsAIGenerated,
		Chars:         CountChars(q.Text),
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
		DeletedAt:     q.DeletedAt,
	}
}

// DefaultAuthor returns author trimmed, or the default for the quote's origin.
func DefaultAuthor(author string, aiGenerated bool) string {
	if a := strings.TrimSpace(author); a != "" {
		return a
	}
	if aiGenerated {
		return AuthorAIGenerated
	}
	return AuthorAnonymous
}
