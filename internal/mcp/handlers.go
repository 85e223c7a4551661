package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/errors"
	"github.com/hpungsan/promptdeck/internal/library"
	"github.com/hpungsan/promptdeck/internal/ops"
	"github.com/hpungsan/promptdeck/internal/validation"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	repo     *ops.Repo
	validate *validation.Validator
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(repo *ops.Repo, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		repo:     repo,
		validate: validation.New(),
		logger:   logger,
	}
}

// IDRequest identifies a single folder or prompt.
type IDRequest struct {
	ID string `json:"id" validate:"notblank"`
}

// ExportRequest represents the arguments for library_export.
type ExportRequest struct {
	Path   string `json:"path,omitempty"`
	ToFile bool   `json:"to_file,omitempty"`
}

// ImportRequest represents the arguments for library_import.
type ImportRequest struct {
	Bundle   string `json:"bundle,omitempty" validate:"required_without=Path,excluded_with=Path"`
	Path     string `json:"path,omitempty"`
	Strategy string `json:"strategy" validate:"required,oneof=merge overwrite"`
}

// OptimizeRequest represents the arguments for profile_optimizer_request.
type OptimizeRequest struct {
	Draft string `json:"draft"`
}

// MutationResult acknowledges a mutation that has no entity to return.
type MutationResult struct {
	ID string `json:"id"`
	OK bool   `json:"ok"`
}

// decodeValid decodes the arguments and runs struct validation.
func decodeValid[T any](h *Handlers, req mcp.CallToolRequest) (T, error) {
	input, err := decode[T](req)
	if err != nil {
		return input, errors.NewInvalidRequest(err.Error())
	}
	if err := h.validate.Validate(input); err != nil {
		return input, err
	}
	return input, nil
}

// HandleLibraryState handles the library_state tool call.
func (h *Handlers) HandleLibraryState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.repo.GetState(ctx)
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleLibraryExport handles the library_export tool call.
func (h *Handlers) HandleLibraryExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeValid[ExportRequest](h, req)
	if err != nil {
		return h.fail(err), nil
	}

	if input.Path == "" && !input.ToFile {
		bundle, err := h.repo.ExportData(ctx)
		if err != nil {
			return h.fail(err), nil
		}
		return successResult(bundle)
	}

	result, err := h.repo.ExportToFile(ctx, input.Path)
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleLibraryImport handles the library_import tool call.
func (h *Handlers) HandleLibraryImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeValid[ImportRequest](h, req)
	if err != nil {
		return h.fail(err), nil
	}

	strategy := library.ImportStrategy(input.Strategy)
	if input.Path != "" {
		result, err := h.repo.ImportFromFile(ctx, input.Path, strategy)
		if err != nil {
			return h.fail(err), nil
		}
		return successResult(result)
	}

	result, err := h.repo.ImportJSON(ctx, input.Bundle, strategy)
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleFolderUpsert handles the folder_upsert tool call.
func (h *Handlers) HandleFolderUpsert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeValid[validation.FolderRequest](h, req)
	if err != nil {
		return h.fail(err), nil
	}

	result, err := h.repo.UpsertFolder(ctx, input.ToInput())
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleFolderDelete handles the folder_delete tool call.
func (h *Handlers) HandleFolderDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.mutateByID(ctx, req, h.repo.DeleteFolder)
}

// HandlePromptUpsert handles the prompt_upsert tool call.
func (h *Handlers) HandlePromptUpsert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeValid[validation.PromptRequest](h, req)
	if err != nil {
		return h.fail(err), nil
	}

	result, err := h.repo.UpsertPrompt(ctx, input.ToInput())
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandlePromptDelete handles the prompt_delete tool call.
func (h *Handlers) HandlePromptDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.mutateByID(ctx, req, h.repo.DeletePrompt)
}

// HandlePromptTouch handles the prompt_touch tool call.
func (h *Handlers) HandlePromptTouch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.mutateByID(ctx, req, h.repo.TouchUseStats)
}

// HandlePromptFavorite handles the prompt_favorite tool call.
func (h *Handlers) HandlePromptFavorite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.mutateByID(ctx, req, h.repo.ToggleFavorite)
}

// HandlePromptSearch handles the prompt_search tool call.
func (h *Handlers) HandlePromptSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeValid[validation.SearchRequest](h, req)
	if err != nil {
		return h.fail(err), nil
	}

	result, err := h.repo.SearchPrompts(ctx, input.ToInput())
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.repo.GetSettings(ctx)
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleSettingsSet handles the settings_set tool call.
func (h *Handlers) HandleSettingsSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeValid[validation.SettingsRequest](h, req)
	if err != nil {
		return h.fail(err), nil
	}

	result, err := h.repo.SetSettings(ctx, input.ToPatch())
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleProfileBuild handles the profile_build tool call.
func (h *Handlers) HandleProfileBuild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.repo.BuildProfile(ctx)
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleProfileOptimizerRequest handles the profile_optimizer_request tool call.
func (h *Handlers) HandleProfileOptimizerRequest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeValid[OptimizeRequest](h, req)
	if err != nil {
		return h.fail(err), nil
	}

	result, err := h.repo.OptimizerRequest(ctx, input.Draft)
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// mutateByID runs an id-only mutation. Unknown ids succeed without changes.
func (h *Handlers) mutateByID(ctx context.Context, req mcp.CallToolRequest, fn func(context.Context, string) error) (*mcp.CallToolResult, error) {
	input, err := decodeValid[IDRequest](h, req)
	if err != nil {
		return h.fail(err), nil
	}
	if err := fn(ctx, input.ID); err != nil {
		return h.fail(err), nil
	}
	return successResult(MutationResult{ID: input.ID, OK: true})
}

// Result helpers

// fail logs unexpected errors and converts err into a tool error result.
func (h *Handlers) fail(err error) *mcp.CallToolResult {
	if deckErr, ok := errors.As(err); !ok || deckErr.Code == errors.ErrInternal {
		h.logger.Error("tool call failed", zap.Error(err))
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if deckErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    deckErr.Code,
			"message": deckErr.Message,
			"status":  deckErr.Status,
		}
		// Internal details may carry file paths or SQL errors
		if deckErr.Code != errors.ErrInternal && deckErr.Details != nil {
			errorObj["details"] = deckErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
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
