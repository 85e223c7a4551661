// Package library defines the prompt library document: folders, prompts, settings and the
// export bundle. JSON field names match the browser extension's storage format.
package library

// StorageKey is the fixed key under which the whole library document is persisted.
const StorageKey = "promptManagerState"

// SchemaVersion is written into every export bundle.
const SchemaVersion = 1

// Folder is a named grouping node. Folders form a tree via ParentID.
type Folder struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parentId,omitempty"`
	CreatedAt int64   `json:"createdAt"`
}

// Prompt is a saved reusable text entry.
type Prompt struct {
	ID         string   `json:"id"`
	FolderID   *string  `json:"folderId,omitempty"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Favorite   bool     `json:"favorite"`
	UseCount   int      `json:"useCount"`
	LastUsedAt *int64   `json:"lastUsedAt,omitempty"`
	CreatedAt  int64    `json:"createdAt"`
	UpdatedAt  int64    `json:"updatedAt"`
}

// IconPosition is the floating widget's last screen position.
type IconPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Settings holds the user's generation preferences.
type Settings struct {
	IconPosition      *IconPosition `json:"iconPosition,omitempty" yaml:"iconPosition,omitempty"`
	PreferredLanguage string        `json:"preferredLanguage,omitempty" yaml:"preferredLanguage,omitempty"`
	Tone              string        `json:"tone,omitempty" yaml:"tone,omitempty"`
	QualityBar        string        `json:"qualityBar,omitempty" yaml:"qualityBar,omitempty"`
	DefaultGoal       string        `json:"defaultGoal,omitempty" yaml:"defaultGoal,omitempty"`
	UILanguage        string        `json:"uiLanguage,omitempty" yaml:"uiLanguage,omitempty"`
}

// SettingsPatch is a partial settings update. Nil fields are absent; a non-nil
// empty string clears the stored value.
type SettingsPatch struct {
	IconPosition      *IconPosition `json:"iconPosition,omitempty"`
	PreferredLanguage *string       `json:"preferredLanguage,omitempty"`
	Tone              *string       `json:"tone,omitempty"`
	QualityBar        *string       `json:"qualityBar,omitempty"`
	DefaultGoal       *string       `json:"defaultGoal,omitempty"`
	UILanguage        *string       `json:"uiLanguage,omitempty"`
}

// State is the single persisted document.
type State struct {
	Folders  []Folder `json:"folders"`
	Prompts  []Prompt `json:"prompts"`
	Settings Settings `json:"settings"`
}

// ExportBundle is State plus export metadata.
type ExportBundle struct {
	SchemaVersion int      `json:"schemaVersion"`
	ExportedAt    string   `json:"exportedAt"`
	Folders       []Folder `json:"folders"`
	Prompts       []Prompt `json:"prompts"`
	Settings      Settings `json:"settings"`

	// SettingsKeys records which settings keys were present when the bundle was decoded
	// from JSON. Nil means unknown, and only non-blank settings are merged.
	SettingsKeys *SettingsPatch `json:"-"`
}

// ImportStrategy controls how an imported bundle is combined with existing data.
type ImportStrategy string

const (
	ImportMerge     ImportStrategy = "merge"     // append with id remapping
	ImportOverwrite ImportStrategy = "overwrite" // replace wholesale
)

// Valid reports whether s is a known strategy.
func (s ImportStrategy) Valid() bool {
	return s == ImportMerge || s == ImportOverwrite
}

// Filter narrows a prompt search.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterFavorites Filter = "favorites"
	FilterRecent    Filter = "recent"
)

// Valid reports whether f is a known filter. The empty filter means "all".
func (f Filter) Valid() bool {
	return f == "" || f == FilterAll || f == FilterFavorites || f == FilterRecent
}

// SortOrder orders search results after filtering.
type SortOrder string

const (
	SortNone    SortOrder = ""
	SortTitle   SortOrder = "title"   // ascending title
	SortUse     SortOrder = "use"     // descending useCount
	SortUpdated SortOrder = "updated" // descending updatedAt
)

// Valid reports whether o is a known sort order.
func (o SortOrder) Valid() bool {
	return o == SortNone || o == SortTitle || o == SortUse || o == SortUpdated
}
