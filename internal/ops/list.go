package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/quote"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Category       string // optional filter
	Limit          int    // default: 20, max: 100
	Offset         int    // default: 0
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []quote.Summary `json:"items"`
	Pagination Pagination      `json:"pagination"`
	Sort       string          `json:"sort"`
}

// List retrieves saved quote summaries, newest first, with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	var category string
	if strings.TrimSpace(input.Category) != "" {
		c, err := ResolveCategory(input.Category, "")
		if err != nil {
			return nil, err
		}
		category = c
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	summaries, total, err := db.ListQuotes(ctx, database, db.ListFilter{
		Category:       category,
		IncludeDeleted: input.IncludeDeleted,
	}, limit, offset)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items: summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(summaries) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
