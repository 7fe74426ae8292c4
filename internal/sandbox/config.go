// Package sandbox runs tool execution inside a Docker container instead of
// directly on the host, when an agent's config.json opts in.
package sandbox

import "fmt"

// Mode controls which tool calls get sandboxed.
type Mode string

const (
	ModeOff     Mode = "off"      // never sandbox, run everything on the host
	ModeNonMain Mode = "non-main" // sandbox everything except the primary shell/exec path
	ModeAll     Mode = "all"      // sandbox every exec-capable tool call
)

// Access controls how much of the agent workspace the container can see.
type Access string

const (
	AccessNone Access = "none"
	AccessRO   Access = "ro"
	AccessRW   Access = "rw"
)

// Scope controls how containers are shared across sessions of one agent.
type Scope string

const (
	ScopeSession Scope = "session" // one container per session, torn down when the session ends
	ScopeAgent   Scope = "agent"   // one container shared by all of an agent's sessions
	ScopeShared  Scope = "shared"  // one container shared across every agent on this host
)

// Config is the resolved sandbox configuration for one agent, derived from
// config.SandboxConfig by (*config.SandboxConfig).ToSandboxConfig.
type Config struct {
	Mode            Mode
	Image           string
	WorkspaceAccess Access
	Scope           Scope
	MemoryMB        int
	CPUs            float64
	TimeoutSec      int
	NetworkEnabled  bool
	ReadOnlyRoot    bool
	SetupCommand    string
	Env             map[string]string

	User           string
	TmpfsSizeMB    int
	MaxOutputBytes int

	IdleHours        int
	MaxAgeDays       int
	PruneIntervalMin int
}

// DefaultConfig returns the configuration applied when an agent sets no
// sandbox block at all, or leaves individual fields unset.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeOff,
		Image:            "openclaw-sandbox:bookworm-slim",
		WorkspaceAccess:  AccessRW,
		Scope:            ScopeSession,
		MemoryMB:         512,
		CPUs:             1.0,
		TimeoutSec:       300,
		NetworkEnabled:   false,
		ReadOnlyRoot:     true,
		MaxOutputBytes:   1 << 20,
		IdleHours:        24,
		MaxAgeDays:       7,
		PruneIntervalMin: 5,
	}
}

// ContainerWorkdir is the in-container mount point the agent's workspace is
// bound to, scoped so sibling containers sharing a Scope never collide.
func (c Config) ContainerWorkdir() string {
	return "/workspace"
}

func (c Config) String() string {
	return fmt.Sprintf("sandbox(mode=%s, scope=%s, access=%s)", c.Mode, c.Scope, c.WorkspaceAccess)
}
