// Package profile summarizes a user's settings and tag usage into a preference profile
// that can be prepended to prompt-optimization requests.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hpungsan/promptdeck/internal/library"
)

// TopTagCount is the number of tags included in the profile summary.
const TopTagCount = 5

// Fallbacks used when a setting is empty.
const (
	FallbackLanguage = "English"
	FallbackTone     = "Concise, friendly, and direct"
	FallbackQuality  = "Structured, verifiable, and outcome-focused"
)

// NoTagsLine is emitted when no tag scored.
const NoTagsLine = "No dominant tags yet."

var styleDirectives = []string{
	"Output style: prefers numbered steps, clear acceptance criteria, and bullet point highlights.",
	"Avoid filler; prioritize concise instructions and explicit delimiters for inputs/outputs.",
}

// TagScore is a tag's weighted usage total.
type TagScore struct {
	Tag   string `json:"tag"`
	Score int    `json:"score"`
}

// TagScores ranks tags by weighted usage. Each prompt contributes max(1, useCount) to
// every one of its tags (trimmed, lowercased, empty skipped). Results are ordered by
// descending score, ties broken by ascending tag.
func TagScores(prompts []library.Prompt) []TagScore {
	totals := make(map[string]int)
	for _, p := range prompts {
		weight := max(1, p.UseCount)
		for _, tag := range p.Tags {
			key := strings.ToLower(strings.TrimSpace(tag))
			if key == "" {
				continue
			}
			totals[key] += weight
		}
	}

	scores := make([]TagScore, 0, len(totals))
	for tag, score := range totals {
		scores = append(scores, TagScore{Tag: tag, Score: score})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Tag < scores[j].Tag
	})
	return scores
}

// TopTags returns up to n highest-scoring tag names.
func TopTags(prompts []library.Prompt, n int) []string {
	scores := TagScores(prompts)
	if len(scores) > n {
		scores = scores[:n]
	}
	tags := make([]string, len(scores))
	for i, s := range scores {
		tags[i] = s.Tag
	}
	return tags
}

// Build renders the preference profile text. It is a pure function of its inputs.
func Build(settings library.Settings, prompts []library.Prompt) string {
	language := orDefault(settings.PreferredLanguage, FallbackLanguage)
	tone := orDefault(settings.Tone, FallbackTone)
	quality := orDefault(settings.QualityBar, FallbackQuality)

	tagLine := NoTagsLine
	if top := TopTags(prompts, TopTagCount); len(top) > 0 {
		tagLine = fmt.Sprintf("Frequently used domains/tags: %s.", strings.Join(top, ", "))
	}

	lines := []string{
		fmt.Sprintf("Language preference: %s.", language),
		fmt.Sprintf("Tone: %s.", tone),
		fmt.Sprintf("Quality bar: %s.", quality),
		tagLine,
	}
	lines = append(lines, styleDirectives...)
	return strings.Join(lines, "\n")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
