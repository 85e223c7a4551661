package profile

import "strings"

// OptimizerRequest wraps a draft prompt and a preference profile into an instruction
// block asking a model to optimize the draft. An empty draft renders as "[empty]".
func OptimizerRequest(profile, draft string) string {
	body := strings.TrimSpace(draft)
	if body == "" {
		body = "[empty]"
	}
	return strings.Join([]string{
		"You are a prompt optimizer. Improve the provided draft using the preferences.",
		"Preference profile: " + profile,
		"Draft to optimize:",
		"---",
		body,
		"---",
		"Return only the optimized prompt. Keep the user intent intact, enhance structure, and clarify inputs/outputs.",
	}, "\n")
}
