package library

import "strings"

// DefaultSettings returns the settings a fresh library starts with.
func DefaultSettings() Settings {
	return Settings{
		PreferredLanguage: "English",
		Tone:              "Concise and friendly",
		QualityBar:        "Structured, testable, and specific outputs",
		UILanguage:        "zh",
	}
}

// EmptyState returns a document with no folders or prompts and default settings.
func EmptyState() State {
	return State{
		Folders:  []Folder{},
		Prompts:  []Prompt{},
		Settings: DefaultSettings(),
	}
}

// NormalizeState fills missing collections and settings keys.
// A nil state becomes EmptyState.
func NormalizeState(s *State) State {
	if s == nil {
		return EmptyState()
	}

	out := State{
		Folders:  s.Folders,
		Prompts:  s.Prompts,
		Settings: DefaultSettings().Merge(s.Settings),
	}
	if out.Folders == nil {
		out.Folders = []Folder{}
	}
	if out.Prompts == nil {
		out.Prompts = []Prompt{}
	}
	for i := range out.Prompts {
		if out.Prompts[i].Tags == nil {
			out.Prompts[i].Tags = []string{}
		}
	}
	return out
}

// Merge overlays the non-blank fields of patch onto s. Used to fill defaults under
// stored values, where a blank stored field means "unset".
func (s Settings) Merge(patch Settings) Settings {
	if patch.IconPosition != nil {
		pos := *patch.IconPosition
		s.IconPosition = &pos
	}
	if strings.TrimSpace(patch.PreferredLanguage) != "" {
		s.PreferredLanguage = patch.PreferredLanguage
	}
	if strings.TrimSpace(patch.Tone) != "" {
		s.Tone = patch.Tone
	}
	if strings.TrimSpace(patch.QualityBar) != "" {
		s.QualityBar = patch.QualityBar
	}
	if strings.TrimSpace(patch.DefaultGoal) != "" {
		s.DefaultGoal = patch.DefaultGoal
	}
	if strings.TrimSpace(patch.UILanguage) != "" {
		s.UILanguage = patch.UILanguage
	}
	return s
}

// Apply returns s with every field present in patch overwritten, including fields
// set to the empty string.
func (s Settings) Apply(patch SettingsPatch) Settings {
	if patch.IconPosition != nil {
		pos := *patch.IconPosition
		s.IconPosition = &pos
	}
	setIf(&s.PreferredLanguage, patch.PreferredLanguage)
	setIf(&s.Tone, patch.Tone)
	setIf(&s.QualityBar, patch.QualityBar)
	setIf(&s.DefaultGoal, patch.DefaultGoal)
	setIf(&s.UILanguage, patch.UILanguage)
	return s
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// IsZero reports whether no settings field is set.
func (s Settings) IsZero() bool {
	return s.IconPosition == nil && s.PreferredLanguage == "" && s.Tone == "" &&
		s.QualityBar == "" && s.DefaultGoal == "" && s.UILanguage == ""
}

// Clone returns a deep copy of the state so callers can mutate it freely.
func (s State) Clone() State {
	out := State{
		Folders:  make([]Folder, len(s.Folders)),
		Prompts:  make([]Prompt, len(s.Prompts)),
		Settings: s.Settings,
	}
	for i, f := range s.Folders {
		f.ParentID = clonePtr(f.ParentID)
		out.Folders[i] = f
	}
	for i, p := range s.Prompts {
		out.Prompts[i] = p.Clone()
	}
	if s.Settings.IconPosition != nil {
		pos := *s.Settings.IconPosition
		out.Settings.IconPosition = &pos
	}
	return out
}

// Clone returns a deep copy of the prompt.
func (p Prompt) Clone() Prompt {
	p.FolderID = clonePtr(p.FolderID)
	p.LastUsedAt = clonePtr(p.LastUsedAt)
	tags := make([]string, len(p.Tags))
	copy(tags, p.Tags)
	p.Tags = tags
	return p
}

// FindFolder returns the index of the folder with the given id, or -1.
func (s *State) FindFolder(id string) int {
	for i := range s.Folders {
		if s.Folders[i].ID == id {
			return i
		}
	}
	return -1
}

// FindPrompt returns the index of the prompt with the given id, or -1.
func (s *State) FindPrompt(id string) int {
	for i := range s.Prompts {
		if s.Prompts[i].ID == id {
			return i
		}
	}
	return -1
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
