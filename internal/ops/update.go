package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/quote"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID string

	// Editable fields (nil = don't change)
	Text     *string
	Category *string
	Author   *string
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID    string       `json:"id"`
	Quote *quote.Quote `json:"quote"`
}

// Update edits an active quote.
func Update(ctx context.Context, database *sql.DB, cfg *config.Config, input UpdateInput) (*UpdateOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.Text == nil && input.Category == nil && input.Author == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	q, err := db.GetByID(ctx, database, id, false)
	if err != nil {
		return nil, err
	}

	if input.Text != nil {
		text := strings.TrimSpace(*input.Text)
		if err := lintText(text, cfg.QuoteMaxChars); err != nil {
			return nil, err
		}
		q.Text = text
	}

	if input.Category != nil {
		category, err := ResolveCategory(*input.Category, q.Category)
		if err != nil {
			return nil, err
		}
		q.Category = category
	}

	if input.Author != nil {
		q.Author = quote.DefaultAuthor(*input.Author, q.IsAIGenerated)
	}

	if err := db.UpdateByID(ctx, database, q); err != nil {
		return nil, err
	}

	return &UpdateOutput{ID: q.ID, Quote: q}, nil
}
