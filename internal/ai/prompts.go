package ai

import (
	"fmt"
	"strings"
)

// maxPromptInput caps interpolated values so a single oversized finding
// cannot blow past model context limits.
const maxPromptInput = 8000

// Default prompt set. Entries can be overridden per-key through the
// ai.custom_prompts configuration block.
var defaultPrompts = map[string]string{
	"architecture_review": `Review the architecture for security vulnerabilities and suggest improvements:
1. Identify potential security weaknesses
2. Suggest architectural improvements
3. Recommend security best practices
Analysis:`,

	"fix_generation": `Generate secure fixes for the following vulnerability:
%s in file %s
Consider:
1. Security best practices
2. Performance impact
3. Maintainability
Proposed fix:`,

	"pr_description": `Create a detailed pull request description for these security changes:
%s

Please include:
1. Summary of Security Changes
2. Security Impact Analysis
3. Testing & Validation
4. Implementation Notes

Description:`,
}

// Prompts resolves prompt templates, applying any configured overrides.
type Prompts struct {
	prompts map[string]string
}

func NewPrompts(custom map[string]string) *Prompts {
	prompts := make(map[string]string, len(defaultPrompts))
	for k, v := range defaultPrompts {
		prompts[k] = v
	}
	for k, v := range custom {
		prompts[k] = v
	}
	return &Prompts{prompts: prompts}
}

// Get returns the formatted prompt for the given type.
func (p *Prompts) Get(promptType string, args ...any) (string, error) {
	tmpl, ok := p.prompts[promptType]
	if !ok {
		return "", fmt.Errorf("unknown prompt type: %s", promptType)
	}
	if len(args) == 0 {
		return tmpl, nil
	}
	return fmt.Sprintf(tmpl, args...), nil
}

// Sanitize makes a value safe for interpolation into an AI prompt:
// shell-significant characters are escaped and length is capped.
func Sanitize(input string) string {
	s := strings.NewReplacer(
		`"`, `\"`,
		"$", `\$`,
		"`", "\\`",
	).Replace(input)

	if len(s) > maxPromptInput {
		s = s[:maxPromptInput] + "..."
	}
	return s
}
