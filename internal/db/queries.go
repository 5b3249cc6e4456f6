package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/quote"
)

const quoteColumns = `id, text, category, author, is_ai_generated, created_at, updated_at, deleted_at`

// ListFilter narrows ListQuotes results.
type ListFilter struct {
	Category       string // normalized category key; empty means all
	IncludeDeleted bool
}

// Insert stores a new quote in the database.
func Insert(ctx context.Context, q Querier, qt *quote.Quote) error {
	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		qt.ID, qt.Text, qt.Category, qt.Author, qt.IsAIGenerated,
		qt.CreatedAt, qt.UpdatedAt, toNullInt64(qt.DeletedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict("quote with id " + qt.ID + " already exists")
		}
		return errors.NewInternal(err)
	}

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves a quote by its ULID.
// If includeDeleted is false, soft-deleted quotes are excluded.
func GetByID(ctx context.Context, q Querier, id string, includeDeleted bool) (*quote.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	qt, err := scanQuote(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return qt, nil
}

// Exists reports whether a row with the id exists, soft-deleted or not.
func Exists(ctx context.Context, q Querier, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM quotes WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// UpdateByID updates the mutable fields (text, category, author) of an active quote.
// Sets updated_at to the current timestamp.
func UpdateByID(ctx context.Context, q Querier, qt *quote.Quote) error {
	now := time.Now().Unix()

	query := `
		UPDATE quotes
		SET text = ?, category = ?, author = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := q.ExecContext(ctx, query, qt.Text, qt.Category, qt.Author, now, qt.ID)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(qt.ID)
	}

	qt.UpdatedAt = now
	return nil
}

// ReplaceByID overwrites every column of an existing row, including timestamps
// and deleted_at. Used by import in replace mode.
func ReplaceByID(ctx context.Context, q Querier, qt *quote.Quote) error {
	query := `
		UPDATE quotes
		SET text = ?, category = ?, author = ?, is_ai_generated = ?,
			created_at = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?
	`

	result, err := q.ExecContext(ctx, query,
		qt.Text, qt.Category, qt.Author, qt.IsAIGenerated,
		qt.CreatedAt, qt.UpdatedAt, toNullInt64(qt.DeletedAt),
		qt.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(qt.ID)
	}
	return nil
}

// SoftDelete marks a quote as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, q Querier, id string) error {
	now := time.Now().Unix()

	result, err := q.ExecContext(ctx, `
		UPDATE quotes
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// ListQuotes returns quote summaries newest first, with the total matching count.
// Ties on created_at are broken by id so pagination is stable.
func ListQuotes(ctx context.Context, q Querier, filter ListFilter, limit, offset int) ([]quote.Summary, int, error) {
	where, args := listWhere(filter)

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + quoteColumns + ` FROM quotes` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	items := []quote.Summary{}
	for rows.Next() {
		qt, err := scanQuote(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		items = append(items, qt.ToSummary())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return items, total, nil
}

func listWhere(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	if !filter.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// PurgeDeleted permanently removes soft-deleted quotes.
// If olderThanDays is set, only quotes deleted more than that many days ago are removed.
func PurgeDeleted(ctx context.Context, q Querier, olderThanDays *int) (int, error) {
	query := `DELETE FROM quotes WHERE deleted_at IS NOT NULL`
	var args []any
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		query += " AND deleted_at < ?"
		args = append(args, cutoff)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// StreamForExport returns rows of full quotes in creation order, optionally
// limited to one category. Callers must close the rows and scan each with
// ScanQuoteFromRows.
func StreamForExport(ctx context.Context, q Querier, filter ListFilter) (*sql.Rows, error) {
	where, args := listWhere(filter)
	query := `SELECT ` + quoteColumns + ` FROM quotes` + where + ` ORDER BY created_at ASC, id ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanQuoteFromRows scans the current row of a StreamForExport result.
func ScanQuoteFromRows(rows *sql.Rows) (*quote.Quote, error) {
	return scanQuote(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanQuote scans a single row into a Quote struct.
func scanQuote(row rowScanner) (*quote.Quote, error) {
	var (
		qt        quote.Quote
		deletedAt sql.NullInt64
	)

	err := row.Scan(
		&qt.ID, &qt.Text, &qt.Category, &qt.Author, &qt.IsAIGenerated,
		&qt.CreatedAt, &qt.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		qt.DeletedAt = &deletedAt.Int64
	}

	return &qt, nil
}

// toNullInt64 converts an *int64 to sql.NullInt64.
func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
