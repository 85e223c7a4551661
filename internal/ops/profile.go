package ops

import (
	"context"

	"github.com/hpungsan/promptdeck/internal/profile"
)

// ProfileOutput is the preference profile plus the tag ranking behind it.
type ProfileOutput struct {
	Profile string             `json:"profile"`
	TopTags []profile.TagScore `json:"top_tags"`
}

// OptimizerOutput is an optimization request built around a draft.
type OptimizerOutput struct {
	Profile string `json:"profile"`
	Request string `json:"request"`
}

// BuildProfile summarizes the stored settings and prompts.
func (r *Repo) BuildProfile(ctx context.Context) (*ProfileOutput, error) {
	state, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	scores := profile.TagScores(state.Prompts)
	if len(scores) > profile.TopTagCount {
		scores = scores[:profile.TopTagCount]
	}
	return &ProfileOutput{
		Profile: profile.Build(state.Settings, state.Prompts),
		TopTags: scores,
	}, nil
}

// OptimizerRequest wraps draft with the current preference profile.
func (r *Repo) OptimizerRequest(ctx context.Context, draft string) (*OptimizerOutput, error) {
	p, err := r.BuildProfile(ctx)
	if err != nil {
		return nil, err
	}
	return &OptimizerOutput{
		Profile: p.Profile,
		Request: profile.OptimizerRequest(p.Profile, draft),
	}, nil
}
