package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/errors"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete soft-deletes a quote.
func Delete(ctx context.Context, database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if err := db.SoftDelete(ctx, database, id); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Deleted: true,
		ID:      id,
	}, nil
}
