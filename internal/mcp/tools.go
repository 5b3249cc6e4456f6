package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/muse/internal/quote"
)

var generateToolDef = mcp.NewTool("quote_generate",
	mcp.WithDescription("Generate a new inspirational quote in a category. Returns the cleaned display text plus the raw model output."),
	mcp.WithString("category",
		mcp.Description("Quote category (default: motivation)"),
		mcp.Enum(quote.CategoryKeys()...),
	),
)

var normalizeToolDef = mcp.NewTool("quote_normalize",
	mcp.WithDescription("Clean raw language-model output into a single display line: strips bold markers, option labels, wrapping quotes, and heading/list/blockquote lines, then picks the longest remaining line."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Raw model output"),
	),
)

var saveToolDef = mcp.NewTool("quote_save",
	mcp.WithDescription("Save a quote to the collection."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Quote text"),
	),
	mcp.WithString("category",
		mcp.Description("Quote category (default: motivation)"),
		mcp.Enum(quote.CategoryKeys()...),
	),
	mcp.WithString("author",
		mcp.Description("Author (default: \"AI Generated\" for generated quotes, \"Anonymous\" otherwise)"),
	),
	mcp.WithBoolean("is_ai_generated",
		mcp.Description("True when the text came from quote_generate"),
	),
)

var fetchToolDef = mcp.NewTool("quote_fetch",
	mcp.WithDescription("Fetch a saved quote by ID."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Quote ID"),
	),
	mcp.WithBoolean("include_deleted",
		mcp.Description("Include soft-deleted quotes"),
	),
)

var updateToolDef = mcp.NewTool("quote_update",
	mcp.WithDescription("Edit a saved quote. Only the provided fields change."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Quote ID"),
	),
	mcp.WithString("text", mcp.Description("New quote text")),
	mcp.WithString("category",
		mcp.Description("New category"),
		mcp.Enum(quote.CategoryKeys()...),
	),
	mcp.WithString("author", mcp.Description("New author (empty restores the default)")),
)

var deleteToolDef = mcp.NewTool("quote_delete",
	mcp.WithDescription("Soft-delete a saved quote. Use quote_purge to remove it permanently."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Quote ID"),
	),
)

var listToolDef = mcp.NewTool("quote_list",
	mcp.WithDescription("List saved quotes, newest first."),
	mcp.WithString("category",
		mcp.Description("Only quotes in this category"),
		mcp.Enum(quote.CategoryKeys()...),
	),
	mcp.WithNumber("limit", mcp.Description("Max items (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted quotes")),
)

var purgeToolDef = mcp.NewTool("quote_purge",
	mcp.WithDescription("Permanently delete soft-deleted quotes."),
	mcp.WithNumber("older_than_days",
		mcp.Description("Only purge quotes deleted more than this many days ago"),
	),
)

var exportToolDef = mcp.NewTool("quote_export",
	mcp.WithDescription("Export saved quotes to a JSONL file (default: ~/.muse/exports/)."),
	mcp.WithString("path", mcp.Description("Output .jsonl path")),
	mcp.WithString("category",
		mcp.Description("Only quotes in this category"),
		mcp.Enum(quote.CategoryKeys()...),
	),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted quotes")),
)

var importToolDef = mcp.NewTool("quote_import",
	mcp.WithDescription("Import quotes from a JSONL export file."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Input .jsonl path"),
	),
	mcp.WithString("mode",
		mcp.Description("error: abort on any ID collision (default); replace: overwrite existing quotes"),
		mcp.Enum("error", "replace"),
	),
)
