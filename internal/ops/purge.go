package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/errors"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	OlderThanDays *int // optional, only purge if deleted_at < (now - N days)
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// Purge permanently deletes soft-deleted quotes.
func Purge(ctx context.Context, database *sql.DB, input PurgeInput) (*PurgeOutput, error) {
	if input.OlderThanDays != nil && *input.OlderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must not be negative")
	}

	count, err := db.PurgeDeleted(ctx, database, input.OlderThanDays)
	if err != nil {
		return nil, err
	}

	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, input.OlderThanDays),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, olderThanDays *int) string {
	if count == 0 {
		return "No deleted quotes to purge"
	}

	word := "quote"
	if count > 1 {
		word = "quotes"
	}

	msg := fmt.Sprintf("Permanently deleted %d %s", count, word)
	if olderThanDays != nil {
		msg += fmt.Sprintf(" (deleted more than %d days ago)", *olderThanDays)
	}
	return msg
}
