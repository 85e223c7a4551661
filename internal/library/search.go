package library

import (
	"sort"
	"strings"
)

// Query describes a prompt search over an in-memory prompt list.
type Query struct {
	Term     string
	Filter   Filter
	FolderID *string
	Sort     SortOrder
}

// NormalizeTerm trims and lowercases a search term.
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Matches reports whether p contains the normalized term in its title, content, or
// space-joined tags. An empty term matches everything.
func Matches(p Prompt, term string) bool {
	if term == "" {
		return true
	}
	tags := strings.ToLower(strings.Join(p.Tags, " "))
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Content), term) ||
		strings.Contains(tags, term)
}

// Search filters, matches, and orders prompts. The input slice is not modified.
//
// FilterRecent keeps only prompts with a non-zero LastUsedAt and orders them newest first.
// Sort, when set, is applied last and is stable.
func Search(prompts []Prompt, q Query) []Prompt {
	out := make([]Prompt, 0, len(prompts))
	for _, p := range prompts {
		switch q.Filter {
		case FilterFavorites:
			if !p.Favorite {
				continue
			}
		case FilterRecent:
			if p.LastUsedAt == nil || *p.LastUsedAt == 0 {
				continue
			}
		}
		out = append(out, p)
	}

	if q.Filter == FilterRecent {
		sort.SliceStable(out, func(i, j int) bool {
			return *out[i].LastUsedAt > *out[j].LastUsedAt
		})
	}

	if q.FolderID != nil {
		kept := out[:0]
		for _, p := range out {
			if p.FolderID != nil && *p.FolderID == *q.FolderID {
				kept = append(kept, p)
			}
		}
		out = kept
	}

	if term := NormalizeTerm(q.Term); term != "" {
		kept := out[:0]
		for _, p := range out {
			if Matches(p, term) {
				kept = append(kept, p)
			}
		}
		out = kept
	}

	switch q.Sort {
	case SortTitle:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	case SortUse:
		sort.SliceStable(out, func(i, j int) bool { return out[i].UseCount > out[j].UseCount })
	case SortUpdated:
		sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	}

	return out
}
