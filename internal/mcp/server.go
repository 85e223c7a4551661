package mcp

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/config"
	"github.com/hpungsan/promptdeck/internal/ops"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "promptdeck"

// KnownTypes lists all valid type names.
var KnownTypes = []string{"library", "folder", "prompt", "settings", "profile"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"library_state": {
		def:     libraryStateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLibraryState },
	},
	"library_export": {
		def:     libraryExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLibraryExport },
	},
	"library_import": {
		def:     libraryImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLibraryImport },
	},
	"folder_upsert": {
		def:     folderUpsertToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFolderUpsert },
	},
	"folder_delete": {
		def:     folderDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFolderDelete },
	},
	"prompt_upsert": {
		def:     promptUpsertToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptUpsert },
	},
	"prompt_delete": {
		def:     promptDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptDelete },
	},
	"prompt_touch": {
		def:     promptTouchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptTouch },
	},
	"prompt_favorite": {
		def:     promptFavoriteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptFavorite },
	},
	"prompt_search": {
		def:     promptSearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptSearch },
	},
	"settings_get": {
		def:     settingsGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsGet },
	},
	"settings_set": {
		def:     settingsSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsSet },
	},
	"profile_build": {
		def:     profileBuildToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProfileBuild },
	},
	"profile_optimizer_request": {
		def:     profileOptimizerRequestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProfileOptimizerRequest },
	},
}

// AllToolNames returns every tool name, sorted.
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

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "prompt_upsert" → "prompt").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	sort.Strings(tools)
	return tools
}

// EnabledToolNames returns the sorted names of the tools NewServer registers for cfg.
func EnabledToolNames(cfg *config.Config) []string {
	disabled := disabledSet(cfg)
	names := make([]string, 0, len(toolRegistry))
	for _, name := range AllToolNames() {
		if !disabled[name] {
			names = append(names, name)
		}
	}
	return names
}

// disabledSet expands cfg.DisabledTypes and adds cfg.DisabledTools.
func disabledSet(cfg *config.Config) map[string]bool {
	disabled := make(map[string]bool)
	if cfg == nil {
		return disabled
	}
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}
	return disabled
}

// NewServer creates a new MCP server with the prompt library tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(repo *ops.Repo, cfg *config.Config, version string, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(repo, logger)
	for _, name := range EnabledToolNames(cfg) {
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server using stdio transport.
func Run(repo *ops.Repo, cfg *config.Config, version string, logger *zap.Logger) error {
	s := NewServer(repo, cfg, version, logger)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
