// Package skills loads per-agent markdown "skill" files — short, named
// capability snippets an agent can fold into its system prompt, or look up
// on demand via the skill_search tool once the set grows too large to inline.
package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Skill is one loaded skill file: a short name/description pair (used for
// the inline summary and search) plus the full body (used once a skill is
// actually invoked).
type Skill struct {
	Name        string
	Description string
	Body        string
	Source      string // absolute path, for reload/debugging
	Global      bool   // loaded from the shared skills dir, not the workspace
}

type skillFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Loader discovers skill files under a workspace-local directory and a
// shared global directory, merging them (workspace wins on name collision).
// extraDir is an optional third search path (e.g. a team-shared skills
// mount); pass "" when unused.
type Loader struct {
	workspaceDir string
	globalDir    string
	extraDir     string

	mu     sync.RWMutex
	skills map[string]Skill
}

// NewLoader creates a Loader and performs an initial scan. Missing
// directories are not an error — a freshly bootstrapped workspace has no
// skills yet.
func NewLoader(workspaceDir, globalDir, extraDir string) *Loader {
	l := &Loader{
		workspaceDir: workspaceDir,
		globalDir:    globalDir,
		extraDir:     extraDir,
		skills:       make(map[string]Skill),
	}
	l.Reload()
	return l
}

// skillsSubdir is where skill files live under each search root, matching
// the workspace layout used by bootstrap's context files.
const skillsSubdir = "skills"

// Reload rescans every search directory, replacing the in-memory skill set.
// Safe to call concurrently with ListSkills/FilterSkills/BuildSummary.
func (l *Loader) Reload() {
	found := make(map[string]Skill)

	// Global first, then workspace, then extra — later wins on name clash,
	// so a workspace skill can deliberately override a global default.
	l.scanDir(l.globalDir, true, found)
	l.scanDir(l.workspaceDir, false, found)
	if l.extraDir != "" {
		l.scanDir(l.extraDir, false, found)
	}

	l.mu.Lock()
	l.skills = found
	l.mu.Unlock()
}

func (l *Loader) scanDir(root string, global bool, into map[string]Skill) {
	if root == "" {
		return
	}
	dir := filepath.Join(root, skillsSubdir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			// SKILL.md inside a named subdirectory is also a valid layout.
			sub := filepath.Join(dir, name, "SKILL.md")
			if skill, err := parseSkillFile(sub); err == nil {
				skill.Global = global
				into[skill.Name] = skill
			}
			continue
		}
		if !strings.HasSuffix(name, ".md") {
			continue
		}
		skill, err := parseSkillFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		skill.Global = global
		into[skill.Name] = skill
	}
}

// parseSkillFile reads a skill markdown file with a leading YAML
// frontmatter block (--- ... ---) naming the skill, followed by its body.
func parseSkillFile(path string) (Skill, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, err
	}

	content := string(raw)
	fm, body := splitFrontmatter(content)

	var meta skillFrontmatter
	if fm != "" {
		if err := yaml.Unmarshal([]byte(fm), &meta); err != nil {
			return Skill{}, fmt.Errorf("skill %s: invalid frontmatter: %w", path, err)
		}
	}

	name := meta.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if meta.Description == "" {
		return Skill{}, fmt.Errorf("skill %s: missing description", path)
	}

	return Skill{
		Name:        name,
		Description: meta.Description,
		Body:        strings.TrimSpace(body),
		Source:      path,
	}, nil
}

func splitFrontmatter(content string) (frontmatter, body string) {
	const delim = "---"
	if !strings.HasPrefix(content, delim) {
		return "", content
	}
	rest := content[len(delim):]
	end := strings.Index(rest, delim)
	if end == -1 {
		return "", content
	}
	return strings.TrimSpace(rest[:end]), strings.TrimSpace(rest[end+len(delim):])
}

// ListSkills returns every loaded skill, sorted by name.
func (l *Loader) ListSkills() []Skill {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Skill, 0, len(l.skills))
	for _, s := range l.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FilterSkills returns the loaded skills, restricted to allowList when it's
// non-empty (a nil/empty allowList means "all skills allowed", matching
// AgentSpec.Skills' documented zero value).
func (l *Loader) FilterSkills(allowList []string) []Skill {
	all := l.ListSkills()
	if len(allowList) == 0 {
		return all
	}
	allow := make(map[string]bool, len(allowList))
	for _, name := range allowList {
		allow[name] = true
	}
	var filtered []Skill
	for _, s := range all {
		if allow[s.Name] {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Get returns a single skill by exact name.
func (l *Loader) Get(name string) (Skill, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.skills[name]
	return s, ok
}

// BuildSummary renders the allowed skills as an XML-ish block suitable for
// inlining in the system prompt, one <skill> entry per name/description pair.
func (l *Loader) BuildSummary(allowList []string) string {
	filtered := l.FilterSkills(allowList)
	if len(filtered) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("<available_skills>\n")
	for _, s := range filtered {
		sb.WriteString(fmt.Sprintf("<skill name=%q>%s</skill>\n", s.Name, s.Description))
	}
	sb.WriteString("</available_skills>\n")
	return sb.String()
}
