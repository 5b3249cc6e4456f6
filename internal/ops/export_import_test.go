package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/quote"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func recordLine(t *testing.T, r quote.ExportRecord) string {
	t.Helper()
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return string(data)
}

func TestExport_HeaderAndRecords(t *testing.T) {
	exports := withHome(t)
	database := setupTestDB(t)
	ctx := context.Background()

	mustSave(t, database, SaveInput{Text: "One.", Category: "life"})
	mustSave(t, database, SaveInput{Text: "Two.", Category: "love"})

	path := filepath.Join(exports, "backup.jsonl")
	out, err := Export(ctx, database, config.DefaultConfig(), ExportInput{Path: path})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 2 || out.Path != path {
		t.Errorf("Export = %+v", out)
	}

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}

	var header ExportHeader
	if err := json.Unmarshal([]byte(lines[0]), &header); err != nil {
		t.Fatalf("header unmarshal failed: %v", err)
	}
	if !header.MuseExport || header.SchemaVersion != ExportSchemaVersion {
		t.Errorf("header = %+v", header)
	}

	texts := make(map[string]bool)
	for _, line := range lines[1:] {
		var rec quote.ExportRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("record unmarshal failed: %v", err)
		}
		if rec.MuseExport {
			t.Error("record line marked as header")
		}
		texts[rec.Text] = true
	}
	if !texts["One."] || !texts["Two."] {
		t.Errorf("exported texts = %v", texts)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 600", info.Mode().Perm())
	}
}

func TestExport_CategoryFilterAndDefaultPath(t *testing.T) {
	exports := withHome(t)
	database := setupTestDB(t)

	mustSave(t, database, SaveInput{Text: "One.", Category: "life"})
	mustSave(t, database, SaveInput{Text: "Two.", Category: "love"})

	out, err := Export(context.Background(), database, config.DefaultConfig(), ExportInput{Category: "Love"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 1 {
		t.Errorf("Count = %d, want 1", out.Count)
	}
	if filepath.Dir(out.Path) != exports || !strings.HasPrefix(filepath.Base(out.Path), "love-") {
		t.Errorf("Path = %q, want love-*.jsonl in %s", out.Path, exports)
	}
}

func TestExport_IncludeDeleted(t *testing.T) {
	exports := withHome(t)
	database := setupTestDB(t)
	ctx := context.Background()

	id := mustSave(t, database, SaveInput{Text: "Gone."})
	if _, err := Delete(ctx, database, DeleteInput{ID: id}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	out, err := Export(ctx, database, config.DefaultConfig(), ExportInput{Path: filepath.Join(exports, "a.jsonl")})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 0 {
		t.Errorf("Count = %d, want 0", out.Count)
	}

	out, err = Export(ctx, database, config.DefaultConfig(), ExportInput{Path: filepath.Join(exports, "b.jsonl"), IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 1 {
		t.Errorf("Count = %d, want 1", out.Count)
	}
}

func TestExport_InvalidPath(t *testing.T) {
	withHome(t)
	database := setupTestDB(t)

	_, err := Export(context.Background(), database, config.DefaultConfig(), ExportInput{Path: "../escape.jsonl"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestImport_RoundTrip(t *testing.T) {
	exports := withHome(t)
	src := setupTestDB(t)
	ctx := context.Background()
	cfg := config.DefaultConfig()

	mustSave(t, src, SaveInput{Text: "One.", Category: "life", Author: "A"})
	mustSave(t, src, SaveInput{Text: "Two.", AIGenerated: true})

	path := filepath.Join(exports, "roundtrip.jsonl")
	if _, err := Export(ctx, src, cfg, ExportInput{Path: path}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst := setupTestDB(t)
	out, err := Import(ctx, dst, cfg, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 2 || out.Skipped != 0 || len(out.Errors) != 0 {
		t.Errorf("Import = %+v", out)
	}

	list, err := List(ctx, dst, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list.Pagination.Total != 2 {
		t.Errorf("Total = %d, want 2", list.Pagination.Total)
	}
}

func TestImport_ModeError_RollsBackOnCollision(t *testing.T) {
	exports := withHome(t)
	database := setupTestDB(t)
	ctx := context.Background()
	existing := mustSave(t, database, SaveInput{Text: "Existing."})

	path := filepath.Join(exports, "collide.jsonl")
	writeLines(t, path,
		`{"_muse_export":true,"schema_version":"1.0","exported_at":1}`,
		recordLine(t, quote.ExportRecord{ID: "new1", Text: "New.", Category: "life", CreatedAt: 1, UpdatedAt: 1}),
		recordLine(t, quote.ExportRecord{ID: existing, Text: "Clash.", Category: "life", CreatedAt: 1, UpdatedAt: 1}),
	)

	out, err := Import(ctx, database, config.DefaultConfig(), ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 0 || len(out.Errors) != 1 || out.Errors[0].Code != "ID_COLLISION" {
		t.Errorf("Import = %+v, want one ID_COLLISION", out)
	}
	if out.Errors[0].Line != 3 {
		t.Errorf("Line = %d, want 3", out.Errors[0].Line)
	}

	if _, err := Fetch(ctx, database, FetchInput{ID: "new1"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("new1 should have been rolled back, got %v", err)
	}
}

func TestImport_ModeReplace(t *testing.T) {
	exports := withHome(t)
	database := setupTestDB(t)
	ctx := context.Background()
	existing := mustSave(t, database, SaveInput{Text: "Existing."})

	path := filepath.Join(exports, "replace.jsonl")
	writeLines(t, path,
		recordLine(t, quote.ExportRecord{ID: existing, Text: "Replaced.", Category: "wisdom", CreatedAt: 5, UpdatedAt: 6}),
		`{not json`,
		recordLine(t, quote.ExportRecord{ID: "fresh", Text: "Fresh.", Category: "life", CreatedAt: 1, UpdatedAt: 1}),
	)

	out, err := Import(ctx, database, config.DefaultConfig(), ImportInput{Path: path, Mode: ImportModeReplace})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 2 || out.Skipped != 1 {
		t.Errorf("Import = %+v, want 2 imported, 1 skipped", out)
	}
	if out.Errors[0].Code != "PARSE_ERROR" || out.Errors[0].Line != 2 {
		t.Errorf("Errors = %+v", out.Errors)
	}

	q, err := Fetch(ctx, database, FetchInput{ID: existing})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if q.Text != "Replaced." || q.Category != "wisdom" || q.CreatedAt != 5 {
		t.Errorf("replaced quote = %+v", q)
	}
}

func TestImport_ModeError_InvalidRecords(t *testing.T) {
	exports := withHome(t)
	database := setupTestDB(t)
	cfg := config.DefaultConfig()
	cfg.QuoteMaxChars = 5

	path := filepath.Join(exports, "bad.jsonl")
	writeLines(t, path,
		recordLine(t, quote.ExportRecord{Text: "no id"}),
		recordLine(t, quote.ExportRecord{ID: "a", Text: "   "}),
		recordLine(t, quote.ExportRecord{ID: "b", Text: "too long"}),
		recordLine(t, quote.ExportRecord{ID: "c", Text: "ok", Category: "sports"}),
		recordLine(t, quote.ExportRecord{ID: "d", Text: "ok"}),
		recordLine(t, quote.ExportRecord{ID: "d", Text: "ok"}),
	)

	out, err := Import(context.Background(), database, cfg, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 0 {
		t.Errorf("Imported = %d, want 0", out.Imported)
	}

	codes := make([]string, len(out.Errors))
	for i, e := range out.Errors {
		codes[i] = e.Code
	}
	want := []string{"INVALID_RECORD", "INVALID_REQUEST", "QUOTE_TOO_LARGE", "INVALID_REQUEST", "DUPLICATE_ID"}
	if strings.Join(codes, ",") != strings.Join(want, ",") {
		t.Errorf("codes = %v, want %v", codes, want)
	}
}

func TestImport_Validation(t *testing.T) {
	exports := withHome(t)
	database := setupTestDB(t)
	cfg := config.DefaultConfig()

	if _, err := Import(context.Background(), database, cfg, ImportInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty path: expected ErrInvalidRequest, got %v", err)
	}

	path := filepath.Join(exports, "x.jsonl")
	writeLines(t, path, `{"_muse_export":true}`)
	if _, err := Import(context.Background(), database, cfg, ImportInput{Path: path, Mode: "rename"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad mode: expected ErrInvalidRequest, got %v", err)
	}

	missing := filepath.Join(exports, "missing.jsonl")
	if _, err := Import(context.Background(), database, cfg, ImportInput{Path: missing}); !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("missing file: expected ErrFileNotFound, got %v", err)
	}
}
