package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeroaltitude/openclaw/internal/skills"
)

// ============================================================
// skill_search
// ============================================================

// SkillSearchTool looks up full skill bodies by name or keyword. Used
// instead of inlining every skill's description in the system prompt once
// the set grows past resolveSkillsSummary's inline budget.
type SkillSearchTool struct {
	loader *skills.Loader
}

func NewSkillSearchTool(loader *skills.Loader) *SkillSearchTool {
	return &SkillSearchTool{loader: loader}
}

func (t *SkillSearchTool) Name() string { return "skill_search" }

func (t *SkillSearchTool) Description() string {
	return "Search available skills by name or keyword and retrieve the full instructions for a matching one."
}

func (t *SkillSearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Skill name or keywords describing what you need to do",
			},
		},
		"required": []string{"query"},
	}
}

func (t *SkillSearchTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	query, _ := args["query"].(string)
	if query == "" {
		return ErrorResult("skill_search requires a 'query' argument")
	}

	if skill, ok := t.loader.Get(query); ok {
		return NewResult(fmt.Sprintf("# %s\n\n%s", skill.Name, skill.Body))
	}

	terms := strings.Fields(strings.ToLower(query))
	var matches []skills.Skill
	for _, s := range t.loader.ListSkills() {
		haystack := strings.ToLower(s.Name + " " + s.Description)
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				matches = append(matches, s)
				break
			}
		}
	}

	if len(matches) == 0 {
		return NewResult(fmt.Sprintf("No skills matched %q.", query))
	}
	if len(matches) == 1 {
		s := matches[0]
		return NewResult(fmt.Sprintf("# %s\n\n%s", s.Name, s.Body))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Multiple skills matched %q — search again with the exact name:\n", query))
	for _, s := range matches {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", s.Name, s.Description))
	}
	return NewResult(sb.String())
}
