package mcp

import (
	"database/sql"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/generate"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"quote_generate": {
		def:     generateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGenerate },
	},
	"quote_normalize": {
		def:     normalizeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNormalize },
	},
	"quote_save": {
		def:     saveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"quote_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"quote_update": {
		def:     updateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate },
	},
	"quote_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"quote_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"quote_purge": {
		def:     purgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge },
	},
	"quote_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"quote_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns the names of all tools, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the quote tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, quotes *generate.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"muse",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, quotes)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, quotes *generate.Service, version string) error {
	s := NewServer(db, cfg, quotes, version)
	return server.ServeStdio(s)
}
