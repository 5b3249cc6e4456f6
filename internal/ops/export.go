package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/quote"
)

// ExportSchemaVersion is written in the header line of every export.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path           string // optional, default: ~/.muse/exports/<category|all>-<timestamp>.jsonl
	Category       string // optional filter
	IncludeDeleted bool
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	MuseExport    bool   `json:"_muse_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// Export writes quotes to a JSONL file: a header line, then one quote per line.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	var category string
	if strings.TrimSpace(input.Category) != "" {
		c, err := ResolveCategory(input.Category, "")
		if err != nil {
			return nil, err
		}
		category = c
	}

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(category, now)
		if err != nil {
			return nil, err
		}
	}

	// Default paths are validated too
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	// Write to a temp file and rename so an existing export survives a failure
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	if err := enc.Encode(ExportHeader{
		MuseExport:    true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    now.Unix(),
	}); err != nil {
		return nil, errors.NewInternal(err)
	}

	rows, err := db.StreamForExport(ctx, database, db.ListFilter{
		Category:       category,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("export")
		}

		q, err := db.ScanQuoteFromRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := enc.Encode(quote.ToExportRecord(q)); err != nil {
			return nil, errors.NewInternal(err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Close before rename (required on Windows)
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination
	if isSymlink(exportPath) {
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		// Windows refuses to rename over an existing file; keep the old one.
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: now.Unix(),
	}, nil
}

// defaultExportPath returns ~/.muse/exports/<category|all>-<timestamp>.jsonl.
// category is already a validated key, so it is safe in a filename.
func defaultExportPath(category string, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	name := category
	if name == "" {
		name = "all"
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.jsonl", name, now.Format("2006-01-02T150405"))), nil
}
