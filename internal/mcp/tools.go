package mcp

import "github.com/mark3labs/mcp-go/mcp"

var libraryStateToolDef = mcp.NewTool("library_state",
	mcp.WithDescription("Return the whole prompt library: folders, prompts, and settings."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var libraryExportToolDef = mcp.NewTool("library_export",
	mcp.WithDescription("Export the library as a bundle. Without path or to_file the bundle is returned inline; "+
		"otherwise it is written to path (default <base>/exports/promptdeck-<timestamp>.json)."),
	mcp.WithString("path",
		mcp.Description("Destination .json file. Must sit in the exports dir or an allowed path."),
	),
	mcp.WithBoolean("to_file",
		mcp.Description("Write to the default export path when no path is given."),
	),
)

var libraryImportToolDef = mcp.NewTool("library_import",
	mcp.WithDescription("Import a bundle, given inline as JSON text or read from a .json file. "+
		"merge appends with fresh ids; overwrite replaces the library."),
	mcp.WithString("bundle",
		mcp.Description("Export bundle JSON text. Mutually exclusive with path."),
	),
	mcp.WithString("path",
		mcp.Description("Bundle file to read. Mutually exclusive with bundle."),
	),
	mcp.WithString("strategy",
		mcp.Required(),
		mcp.Enum("merge", "overwrite"),
		mcp.Description("How to combine the bundle with the stored library."),
	),
	mcp.WithDestructiveHintAnnotation(true),
)

var folderUpsertToolDef = mcp.NewTool("folder_upsert",
	mcp.WithDescription("Create a folder, or rename/move an existing one when id is given."),
	mcp.WithString("id", mcp.Description("Existing folder id. Omit to create.")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Folder name.")),
	mcp.WithString("parentId", mcp.Description("Parent folder id. Omit for a root folder.")),
)

var folderDeleteToolDef = mcp.NewTool("folder_delete",
	mcp.WithDescription("Delete a folder. Its prompts move to the root; subfolders are left in place."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Folder id.")),
	mcp.WithDestructiveHintAnnotation(true),
)

var promptUpsertToolDef = mcp.NewTool("prompt_upsert",
	mcp.WithDescription("Create a prompt, or update an existing one when id is given. "+
		"An update replaces the prompt: omitted tags, favorite, and usage fields reset to their defaults; createdAt is kept."),
	mcp.WithString("id", mcp.Description("Existing prompt id. Omit to create.")),
	mcp.WithString("title", mcp.Required(), mcp.Description("Prompt title.")),
	mcp.WithString("content", mcp.Description("Prompt body.")),
	mcp.WithString("folderId", mcp.Description("Folder id. Omit for the root.")),
	mcp.WithArray("tags",
		mcp.Description("Tags, compared case-insensitively."),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithBoolean("favorite", mcp.Description("Favorite flag.")),
)

var promptDeleteToolDef = mcp.NewTool("prompt_delete",
	mcp.WithDescription("Delete a prompt. Unknown ids are ignored."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id.")),
	mcp.WithDestructiveHintAnnotation(true),
)

var promptTouchToolDef = mcp.NewTool("prompt_touch",
	mcp.WithDescription("Record a use of a prompt: increments useCount and sets lastUsedAt."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id.")),
)

var promptFavoriteToolDef = mcp.NewTool("prompt_favorite",
	mcp.WithDescription("Flip the favorite flag of a prompt."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id.")),
)

var promptSearchToolDef = mcp.NewTool("prompt_search",
	mcp.WithDescription("Search prompts by title, content, and tags."),
	mcp.WithString("query", mcp.Description("Case-insensitive search term.")),
	mcp.WithString("filter",
		mcp.Enum("all", "favorites", "recent"),
		mcp.Description("favorites keeps favorites; recent keeps prompts used at least once."),
	),
	mcp.WithString("folderId", mcp.Description("Restrict to one folder.")),
	mcp.WithString("sort",
		mcp.Enum("title", "use", "updated"),
		mcp.Description("Result order. Omit to keep library order."),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var settingsGetToolDef = mcp.NewTool("settings_get",
	mcp.WithDescription("Return the library settings."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var settingsSetToolDef = mcp.NewTool("settings_set",
	mcp.WithDescription("Patch the library settings. Omitted fields are left unchanged; an empty string clears a field."),
	mcp.WithString("preferredLanguage", mcp.Description("Preferred output language.")),
	mcp.WithString("tone", mcp.Description("Preferred tone.")),
	mcp.WithString("qualityBar", mcp.Description("Quality expectations.")),
	mcp.WithString("defaultGoal", mcp.Description("Default goal for new prompts.")),
	mcp.WithString("uiLanguage", mcp.Enum("zh", "en"), mcp.Description("Interface language.")),
	mcp.WithObject("iconPosition",
		mcp.Description("Floating icon position."),
		mcp.Properties(map[string]any{
			"x": map[string]any{"type": "number"},
			"y": map[string]any{"type": "number"},
		}),
	),
)

var profileBuildToolDef = mcp.NewTool("profile_build",
	mcp.WithDescription("Summarize the user's preferences and most used tags as a preference profile."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var profileOptimizerRequestToolDef = mcp.NewTool("profile_optimizer_request",
	mcp.WithDescription("Wrap a draft prompt and the preference profile into an optimization request."),
	mcp.WithString("draft", mcp.Required(), mcp.Description("Draft prompt text.")),
	mcp.WithReadOnlyHintAnnotation(true),
)
