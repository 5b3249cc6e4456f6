package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/generate"
	"github.com/hpungsan/muse/internal/ops"
	"github.com/hpungsan/muse/internal/quote"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	quotes *generate.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, quotes *generate.Service) *Handlers {
	return &Handlers{db: db, cfg: cfg, quotes: quotes}
}

// Request types for each tool

// GenerateRequest represents the arguments for generate.
type GenerateRequest struct {
	Category string `json:"category,omitempty"`
}

// NormalizeRequest represents the arguments for normalize.
type NormalizeRequest struct {
	Text string `json:"text"`
}

// NormalizeResult is the output of normalize.
type NormalizeResult struct {
	Text    string `json:"text"`
	Chars   int    `json:"chars"`
	Changed bool   `json:"changed"`
}

// SaveRequest represents the arguments for save.
type SaveRequest struct {
	Text          string `json:"text"`
	Category      string `json:"category,omitempty"`
	Author        string `json:"author,omitempty"`
	IsAIGenerated bool   `json:"is_ai_generated,omitempty"`
}

// FetchRequest represents the arguments for fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// UpdateRequest represents the arguments for update.
type UpdateRequest struct {
	ID       string  `json:"id"`
	Text     *string `json:"text,omitempty"`
	Category *string `json:"category,omitempty"`
	Author   *string `json:"author,omitempty"`
}

// DeleteRequest represents the arguments for delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for list.
type ListRequest struct {
	Category       string `json:"category,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// PurgeRequest represents the arguments for purge.
type PurgeRequest struct {
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

// ExportRequest represents the arguments for export.
type ExportRequest struct {
	Path           string `json:"path,omitempty"`
	Category       string `json:"category,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ImportRequest represents the arguments for import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// Handler implementations

// HandleGenerate handles the generate tool call.
func (h *Handlers) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GenerateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Generate(ctx, h.quotes, h.cfg, ops.GenerateInput{Category: input.Category})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleNormalize handles the normalize tool call.
func (h *Handlers) HandleNormalize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NormalizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	text := quote.Normalize(input.Text)
	return successResult(NormalizeResult{
		Text:    text,
		Chars:   quote.CountChars(text),
		Changed: text != input.Text,
	})
}

// HandleSave handles the save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Save(ctx, h.db, h.cfg, ops.SaveInput{
		Text:        input.Text,
		Category:    input.Category,
		Author:      input.Author,
		AIGenerated: input.IsAIGenerated,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(ctx, h.db, h.cfg, ops.UpdateInput{
		ID:       input.ID,
		Text:     input.Text,
		Category: input.Category,
		Author:   input.Author,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Category:       input.Category,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePurge handles the purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.db, ops.PurgeInput{OlderThanDays: input.OlderThanDays})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:           input.Path,
		Category:       input.Category,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if qErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    qErr.Code,
			"message": qErr.Message,
			"status":  qErr.Status,
		}
		if qErr.Code != errors.ErrInternal && qErr.Details != nil {
			errorObj["details"] = qErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
