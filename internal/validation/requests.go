package validation

import (
	"encoding/json"

	"github.com/hpungsan/promptdeck/internal/library"
	"github.com/hpungsan/promptdeck/internal/ops"
)

// PromptRequest is the payload for creating or updating a prompt.
type PromptRequest struct {
	ID         string   `json:"id,omitempty" validate:"max=128"`
	FolderID   *string  `json:"folderId,omitempty" validate:"omitempty,max=128"`
	Title      string   `json:"title" validate:"notblank,max=500"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags,omitempty" validate:"max=50,dive,max=64"`
	Favorite   *bool    `json:"favorite,omitempty"`
	UseCount   *int     `json:"useCount,omitempty" validate:"omitempty,gte=0"`
	LastUsedAt *int64   `json:"lastUsedAt,omitempty" validate:"omitempty,gte=0"`
	CreatedAt  *int64   `json:"createdAt,omitempty" validate:"omitempty,gte=0"`
}

// ToInput converts the request into repository input.
func (r PromptRequest) ToInput() ops.PromptInput {
	return ops.PromptInput{
		ID:         r.ID,
		FolderID:   emptyToNil(r.FolderID),
		Title:      r.Title,
		Content:    r.Content,
		Tags:       r.Tags,
		Favorite:   r.Favorite,
		UseCount:   r.UseCount,
		LastUsedAt: r.LastUsedAt,
		CreatedAt:  r.CreatedAt,
	}
}

// FolderRequest is the payload for creating or renaming a folder.
type FolderRequest struct {
	ID        string  `json:"id,omitempty" validate:"max=128"`
	Name      string  `json:"name" validate:"notblank,max=200"`
	ParentID  *string `json:"parentId,omitempty" validate:"omitempty,max=128"`
	CreatedAt *int64  `json:"createdAt,omitempty" validate:"omitempty,gte=0"`
}

// ToInput converts the request into repository input.
func (r FolderRequest) ToInput() ops.FolderInput {
	return ops.FolderInput{
		ID:        r.ID,
		Name:      r.Name,
		ParentID:  emptyToNil(r.ParentID),
		CreatedAt: r.CreatedAt,
	}
}

// SearchRequest is the payload for a prompt search.
type SearchRequest struct {
	Query    string  `json:"query,omitempty"`
	Filter   string  `json:"filter,omitempty" validate:"omitempty,oneof=all favorites recent"`
	FolderID *string `json:"folderId,omitempty"`
	Sort     string  `json:"sort,omitempty" validate:"omitempty,oneof=title use updated"`
}

// ToInput converts the request into repository input.
func (r SearchRequest) ToInput() ops.SearchInput {
	return ops.SearchInput{
		Term:     r.Query,
		Filter:   library.Filter(r.Filter),
		FolderID: emptyToNil(r.FolderID),
		Sort:     library.SortOrder(r.Sort),
	}
}

// SettingsRequest is a settings patch. Omitted fields are left unchanged; an empty
// string clears the field. uiLanguage cannot be cleared.
type SettingsRequest struct {
	IconPosition      *library.IconPosition `json:"iconPosition,omitempty"`
	PreferredLanguage *string               `json:"preferredLanguage,omitempty" validate:"omitempty,max=100"`
	Tone              *string               `json:"tone,omitempty" validate:"omitempty,max=200"`
	QualityBar        *string               `json:"qualityBar,omitempty" validate:"omitempty,max=200"`
	DefaultGoal       *string               `json:"defaultGoal,omitempty" validate:"omitempty,max=500"`
	UILanguage        *string               `json:"uiLanguage,omitempty" validate:"omitempty,oneof=zh en"`
}

// ToPatch converts the request into a settings patch.
func (r SettingsRequest) ToPatch() library.SettingsPatch {
	return library.SettingsPatch{
		IconPosition:      r.IconPosition,
		PreferredLanguage: r.PreferredLanguage,
		Tone:              r.Tone,
		QualityBar:        r.QualityBar,
		DefaultGoal:       r.DefaultGoal,
		UILanguage:        r.UILanguage,
	}
}

// ImportRequest is the body of an HTTP import: a bundle plus a strategy.
type ImportRequest struct {
	Bundle   json.RawMessage `json:"bundle" validate:"required"`
	Strategy string          `json:"strategy" validate:"required,oneof=merge overwrite"`
}

// emptyToNil treats an empty id as "no folder".
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
