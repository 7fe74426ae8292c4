package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxCharsPerFile is the per-file truncation limit applied when an
// agent doesn't configure agents.defaults.bootstrapMaxChars.
const DefaultMaxCharsPerFile = 20000

// DefaultTotalMaxChars is the combined budget across every context file
// applied when an agent doesn't configure agents.defaults.bootstrapTotalMaxChars.
const DefaultTotalMaxChars = 24000

// workspaceContextFileNames lists the files LoadWorkspaceFiles reads, in the
// order they should appear in the assembled system prompt.
var workspaceContextFileNames = []string{
	AgentsFile,
	SoulFile,
	ToolsFile,
	IdentityFile,
	UserFile,
	HeartbeatFile,
}

// LoadWorkspaceFiles reads the standard bootstrap files out of a workspace
// directory. Missing or empty files are skipped. BOOTSTRAP.md, if present,
// is read and then deleted — it is shown only on a workspace's first run.
func LoadWorkspaceFiles(workspaceDir string) []ContextFile {
	var files []ContextFile

	for _, name := range workspaceContextFileNames {
		content, err := os.ReadFile(filepath.Join(workspaceDir, name))
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(string(content)); trimmed != "" {
			files = append(files, ContextFile{Path: name, Content: trimmed})
		}
	}

	bootstrapPath := filepath.Join(workspaceDir, BootstrapFile)
	if content, err := os.ReadFile(bootstrapPath); err == nil {
		if trimmed := strings.TrimSpace(string(content)); trimmed != "" {
			files = append(files, ContextFile{Path: BootstrapFile, Content: trimmed})
		}
		_ = os.Remove(bootstrapPath)
	}

	return files
}

// TruncateConfig bounds how much of each bootstrap file (and the set as a
// whole) gets spent from the agent's context window.
type TruncateConfig struct {
	MaxCharsPerFile int
	TotalMaxChars   int
}

// BuildContextFiles truncates each file to MaxCharsPerFile, then drops or
// trims trailing files once the running total would exceed TotalMaxChars.
// Earlier files in the slice are preferred — callers should order files
// from most to least important.
func BuildContextFiles(raw []ContextFile, cfg TruncateConfig) []ContextFile {
	if cfg.MaxCharsPerFile <= 0 {
		cfg.MaxCharsPerFile = DefaultMaxCharsPerFile
	}
	if cfg.TotalMaxChars <= 0 {
		cfg.TotalMaxChars = DefaultTotalMaxChars
	}

	var out []ContextFile
	remaining := cfg.TotalMaxChars
	for _, f := range raw {
		if remaining <= 0 {
			break
		}
		content := f.Content
		if len(content) > cfg.MaxCharsPerFile {
			content = content[:cfg.MaxCharsPerFile] + "\n...[truncated]"
		}
		if len(content) > remaining {
			content = content[:remaining] + "\n...[truncated]"
		}
		out = append(out, ContextFile{Path: f.Path, Content: content})
		remaining -= len(content)
	}
	return out
}
