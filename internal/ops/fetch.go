package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/quote"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeDeleted bool
}

// Fetch retrieves a quote by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*quote.Quote, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return db.GetByID(ctx, database, id, input.IncludeDeleted)
}
