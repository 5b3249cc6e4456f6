package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/quote"
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	Text        string // required
	Category    string // default: config default_category
	Author      string // default depends on AIGenerated
	AIGenerated bool
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	ID    string       `json:"id"`
	Quote *quote.Quote `json:"quote"`
}

// Save adds a quote to the collection.
func Save(ctx context.Context, database *sql.DB, cfg *config.Config, input SaveInput) (*SaveOutput, error) {
	text := strings.TrimSpace(input.Text)
	if err := lintText(text, cfg.QuoteMaxChars); err != nil {
		return nil, err
	}

	category, err := ResolveCategory(input.Category, cfg.DefaultCategory)
	if err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	q := &quote.Quote{
		ID:            id,
		Text:          text,
		Category:      category,
		Author:        quote.DefaultAuthor(input.Author, input.AIGenerated),
		IsAIGenerated: input.AIGenerated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := db.Insert(ctx, database, q); err != nil {
		return nil, err
	}

	return &SaveOutput{ID: id, Quote: q}, nil
}
