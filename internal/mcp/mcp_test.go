package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/generate"
)

// testSetup creates a temporary database, config and quote service for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, *generate.Service) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	svc, err := generate.NewService(generate.NewStatic("\"**Act boldly.**\""), 0, nil)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return database, cfg, svc
}

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	database, cfg, svc := testSetup(t)
	return NewHandlers(database, cfg, svc)
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// saveQuote stores a quote through the tool and returns its ID.
func saveQuote(t *testing.T, h *Handlers, text string) string {
	t.Helper()
	result, err := h.HandleSave(context.Background(), makeRequest(map[string]any{
		"text":     text,
		"category": "wisdom",
	}))
	if err != nil {
		t.Fatalf("HandleSave error: %v", err)
	}
	return parseOutput(t, result)["id"].(string)
}

func TestHandleGenerate(t *testing.T) {
	h := newTestHandlers(t)

	tests := []struct {
		name     string
		args     map[string]any
		wantErr  string
		wantCat  string
		wantText string
	}{
		{
			name:     "default category",
			args:     map[string]any{},
			wantCat:  "motivation",
			wantText: "Act boldly.",
		},
		{
			name:     "explicit category normalized",
			args:     map[string]any{"category": " Success "},
			wantCat:  "success",
			wantText: "Act boldly.",
		},
		{
			name:    "unknown category",
			args:    map[string]any{"category": "astrology"},
			wantErr: "INVALID_REQUEST",
		},
		{
			name:    "wrong type",
			args:    map[string]any{"category": 7},
			wantErr: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleGenerate(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != "" {
				if !result.IsError {
					t.Fatal("expected error result")
				}
				assertErrorCode(t, result, tt.wantErr)
				return
			}
			out := parseOutput(t, result)
			if out["category"] != tt.wantCat {
				t.Errorf("category = %v, want %v", out["category"], tt.wantCat)
			}
			if out["quote"] != tt.wantText {
				t.Errorf("quote = %v, want %v", out["quote"], tt.wantText)
			}
			if out["model"] != "static" {
				t.Errorf("model = %v, want static", out["model"])
			}
		})
	}
}

func TestHandleNormalize(t *testing.T) {
	h := newTestHandlers(t)

	tests := []struct {
		name        string
		text        string
		wantText    string
		wantChanged bool
	}{
		{"clean text", "Stay hungry.", "Stay hungry.", false},
		{"bold and label", "**Option 1:** Stay hungry.", "Stay hungry.", true},
		{"multi-line", "# Title\nShort.\nThe longest line wins here.", "The longest line wins here.", true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleNormalize(context.Background(), makeRequest(map[string]any{"text": tt.text}))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			out := parseOutput(t, result)
			if out["text"] != tt.wantText {
				t.Errorf("text = %q, want %q", out["text"], tt.wantText)
			}
			if out["changed"] != tt.wantChanged {
				t.Errorf("changed = %v, want %v", out["changed"], tt.wantChanged)
			}
		})
	}
}

func TestHandleSave(t *testing.T) {
	h := newTestHandlers(t)

	tests := []struct {
		name       string
		args       map[string]any
		wantErr    string
		wantAuthor string
	}{
		{
			name:       "custom quote",
			args:       map[string]any{"text": "Know thyself."},
			wantAuthor: "Anonymous",
		},
		{
			name:       "generated quote",
			args:       map[string]any{"text": "Act boldly.", "is_ai_generated": true},
			wantAuthor: "AI Generated",
		},
		{
			name:       "explicit author",
			args:       map[string]any{"text": "Know thyself.", "author": "Socrates"},
			wantAuthor: "Socrates",
		},
		{
			name:    "missing text",
			args:    map[string]any{},
			wantErr: "INVALID_REQUEST",
		},
		{
			name:    "unknown category",
			args:    map[string]any{"text": "x", "category": "astrology"},
			wantErr: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleSave(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != "" {
				assertErrorCode(t, result, tt.wantErr)
				return
			}
			out := parseOutput(t, result)
			if out["id"] == "" {
				t.Error("expected id")
			}
			q := out["quote"].(map[string]any)
			if q["author"] != tt.wantAuthor {
				t.Errorf("author = %v, want %v", q["author"], tt.wantAuthor)
			}
		})
	}
}

func TestHandleFetchUpdateDelete(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()
	id := saveQuote(t, h, "Know thyself.")

	result, _ := h.HandleFetch(ctx, makeRequest(map[string]any{"id": id}))
	out := parseOutput(t, result)
	if out["text"] != "Know thyself." || out["category"] != "wisdom" {
		t.Errorf("fetch = %v", out)
	}

	result, _ = h.HandleUpdate(ctx, makeRequest(map[string]any{"id": id, "author": "Socrates"}))
	out = parseOutput(t, result)
	if q := out["quote"].(map[string]any); q["author"] != "Socrates" || q["text"] != "Know thyself." {
		t.Errorf("update = %v", q)
	}

	result, _ = h.HandleUpdate(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleDelete(ctx, makeRequest(map[string]any{"id": id}))
	out = parseOutput(t, result)
	if out["deleted"] != true {
		t.Errorf("delete = %v", out)
	}

	result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{"id": id, "include_deleted": true}))
	out = parseOutput(t, result)
	if out["deleted_at"] == nil {
		t.Error("expected deleted_at on soft-deleted quote")
	}

	result, _ = h.HandleDelete(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleList(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		saveQuote(t, h, fmt.Sprintf("Quote %d", i))
	}

	result, _ := h.HandleList(ctx, makeRequest(map[string]any{"limit": 2}))
	out := parseOutput(t, result)
	items := out["items"].([]any)
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
	pag := out["pagination"].(map[string]any)
	if pag["total"] != float64(3) || pag["has_more"] != true {
		t.Errorf("pagination = %v", pag)
	}

	result, _ = h.HandleList(ctx, makeRequest(map[string]any{"category": "love"}))
	out = parseOutput(t, result)
	if items := out["items"].([]any); len(items) != 0 {
		t.Errorf("love items = %d, want 0", len(items))
	}
}

func TestHandlePurge(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()
	id := saveQuote(t, h, "Ephemeral.")
	_, _ = h.HandleDelete(ctx, makeRequest(map[string]any{"id": id}))

	result, _ := h.HandlePurge(ctx, makeRequest(map[string]any{"older_than_days": -1}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandlePurge(ctx, makeRequest(map[string]any{}))
	out := parseOutput(t, result)
	if out["purged"] != float64(1) {
		t.Errorf("purged = %v, want 1", out["purged"])
	}
}

func TestHandleExportImport(t *testing.T) {
	src := newTestHandlers(t)
	ctx := context.Background()
	saveQuote(t, src, "First.")
	saveQuote(t, src, "Second.")

	path := filepath.Join(t.TempDir(), "quotes.jsonl")
	result, _ := src.HandleExport(ctx, makeRequest(map[string]any{"path": path}))
	out := parseOutput(t, result)
	if out["count"] != float64(2) {
		t.Fatalf("export count = %v, want 2", out["count"])
	}

	dst := newTestHandlers(t)
	result, _ = dst.HandleImport(ctx, makeRequest(map[string]any{"path": path}))
	out = parseOutput(t, result)
	if out["imported"] != float64(2) {
		t.Errorf("imported = %v, want 2", out["imported"])
	}

	// Same file again collides in error mode, succeeds in replace mode.
	result, _ = dst.HandleImport(ctx, makeRequest(map[string]any{"path": path}))
	out = parseOutput(t, result)
	if out["imported"] != float64(0) {
		t.Errorf("collision imported = %v, want 0", out["imported"])
	}
	errs := out["errors"].([]any)
	if len(errs) != 1 || errs[0].(map[string]any)["code"] != "ID_COLLISION" {
		t.Errorf("collision errors = %v", errs)
	}

	result, _ = dst.HandleImport(ctx, makeRequest(map[string]any{"path": path, "mode": "replace"}))
	out = parseOutput(t, result)
	if out["imported"] != float64(2) {
		t.Errorf("replace imported = %v, want 2", out["imported"])
	}

	result, _ = dst.HandleImport(ctx, makeRequest(map[string]any{"path": path, "mode": "rename"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	database, cfg, svc := testSetup(t)

	s := NewServer(database, cfg, svc, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"quote_generate",
		"quote_normalize",
		"quote_save",
		"quote_fetch",
		"quote_update",
		"quote_delete",
		"quote_list",
		"quote_purge",
		"quote_export",
		"quote_import",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	database, cfg, svc := testSetup(t)

	cfg.DisabledTools = []string{"quote_purge", "quote_import", "quote_purge"}
	s := NewServer(database, cfg, svc, "test")
	tools := s.ListTools()

	if len(tools) != 8 {
		t.Errorf("registered tool count = %d, want 8", len(tools))
	}
	for _, name := range []string{"quote_purge", "quote_import"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	database, cfg, svc := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	s := NewServer(database, cfg, svc, "test")

	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"quote_purge", "quote_import"}, 0},
		{"one unknown", []string{"quote_purge", "fake_tool"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 10 {
		t.Errorf("AllToolNames() returned %d names, want 10", len(names))
	}
	if names[0] != "quote_delete" {
		t.Errorf("AllToolNames() not sorted: first = %q", names[0])
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedError(t *testing.T) {
	r := errorResult(fmt.Errorf("line 3: %w", errors.NewNotFound("abc")))

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Error("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	r := errorResult(fmt.Errorf("boom"))

	errObj := errorObject(t, r)
	if errObj["code"] != "INTERNAL" || errObj["message"] != "an internal error occurred" {
		t.Errorf("error = %v", errObj)
	}
}

// Helper functions

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if !result.IsError {
		t.Errorf("expected error result with code %q, got success", expectedCode)
		return
	}
	if code, _ := errorObject(t, result)["code"].(string); code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
