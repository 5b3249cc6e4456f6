package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/quote"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on any collision or bad line (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on id collision, skip bad lines
)

// maxImportLine bounds a single JSONL line.
const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line that could not be imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line  int
	quote *quote.Quote
}

// Import reads quotes from a JSONL export file.
// In error mode nothing is written unless every line imports cleanly.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file, cfg.QuoteMaxChars)
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	out := &ImportOutput{Errors: parseErrors, Skipped: len(parseErrors)}
	for _, rec := range records {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}

		exists, err := db.Exists(ctx, tx, rec.quote.ID)
		if err != nil {
			return nil, err
		}

		switch {
		case exists && input.Mode == ImportModeError:
			return &ImportOutput{Errors: []ImportError{{
				Line:    rec.line,
				ID:      rec.quote.ID,
				Code:    "ID_COLLISION",
				Message: fmt.Sprintf("quote with id %q already exists", rec.quote.ID),
			}}}, nil
		case exists:
			err = db.ReplaceByID(ctx, tx, rec.quote)
		default:
			err = db.Insert(ctx, tx, rec.quote)
		}
		if err != nil {
			return nil, err
		}
		out.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if out.Errors == nil {
		out.Errors = []ImportError{}
	}
	return out, nil
}

// parseExportFile reads JSONL records, skipping the header line.
// Records are validated the same way Save validates input.
func parseExportFile(r io.Reader, maxChars int) ([]importRecord, []ImportError) {
	var records []importRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxImportLine)
	lineNum := 0
	seen := make(map[string]bool)

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record quote.ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if record.MuseExport {
			continue
		}

		if record.ID == "" {
			parseErrors = append(parseErrors, ImportError{
				Line: lineNum, Code: "INVALID_RECORD", Message: "missing id field",
			})
			continue
		}
		if seen[record.ID] {
			parseErrors = append(parseErrors, ImportError{
				Line: lineNum, ID: record.ID, Code: "DUPLICATE_ID", Message: "id appears more than once in file",
			})
			continue
		}

		q := record.ToQuote()
		if err := lintText(q.Text, maxChars); err != nil {
			parseErrors = append(parseErrors, recordError(lineNum, q.ID, err))
			continue
		}
		if _, err := ResolveCategory(q.Category, ""); err != nil {
			parseErrors = append(parseErrors, recordError(lineNum, q.ID, err))
			continue
		}

		seen[record.ID] = true
		records = append(records, importRecord{line: lineNum, quote: q})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}

func recordError(line int, id string, err error) ImportError {
	ie := ImportError{Line: line, ID: id, Code: "INVALID_RECORD", Message: err.Error()}
	if qErr, ok := errors.As(err); ok {
		ie.Code = string(qErr.Code)
		ie.Message = qErr.Message
	}
	return ie
}
