package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// ErrSandboxDisabled is returned by Manager.Get when no sandbox should be
// used for this call — callers fall back to host execution.
var ErrSandboxDisabled = errors.New("sandbox: disabled for this agent")

// ExecResult is the outcome of a command run inside a sandbox container.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Sandbox is one live container a tool call can be routed into.
type Sandbox interface {
	// ID returns the Docker container ID backing this sandbox.
	ID() string
	// Exec runs cmd inside the container, rooted at cwd.
	Exec(ctx context.Context, cmd []string, cwd string) (ExecResult, error)
}

// Manager hands out Sandboxes keyed by session/agent/shared scope and prunes
// idle containers in the background.
type Manager interface {
	// Get returns the sandbox for sandboxKey, creating a container if one
	// doesn't exist yet for this key's scope. Returns ErrSandboxDisabled if
	// mode is "off".
	Get(ctx context.Context, sandboxKey, workspace string) (Sandbox, error)
	// Stop halts the background idle-pruning loop.
	Stop()
	// ReleaseAll stops and removes every container this manager created.
	ReleaseAll(ctx context.Context) error
}

// CheckDockerAvailable verifies a Docker daemon is reachable before the
// sandbox is wired in; callers fall back to host execution if this fails.
func CheckDockerAvailable(ctx context.Context) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("create docker client: %w", err)
	}
	defer cli.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		return fmt.Errorf("ping docker daemon: %w", err)
	}
	return nil
}

// dockerSandbox wraps one running container.
type dockerSandbox struct {
	id       string
	mgr      *DockerManager
	lastUsed time.Time
}

func (s *dockerSandbox) ID() string { return s.id }

func (s *dockerSandbox) Exec(ctx context.Context, cmd []string, cwd string) (ExecResult, error) {
	s.mgr.touch(s.id)

	execConfig := container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   cwd,
		AttachStdout: true,
		AttachStderr: true,
	}
	resp, err := s.mgr.cli.ContainerExecCreate(ctx, s.id, execConfig)
	if err != nil {
		return ExecResult{}, fmt.Errorf("create exec: %w", err)
	}

	attach, err := s.mgr.cli.ContainerExecAttach(ctx, resp.ID, container.ExecStartOptions{})
	if err != nil {
		return ExecResult{}, fmt.Errorf("attach exec: %w", err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil && !errors.Is(err, io.EOF) {
		return ExecResult{}, fmt.Errorf("read exec output: %w", err)
	}

	inspect, err := s.mgr.cli.ContainerExecInspect(ctx, resp.ID)
	if err != nil {
		return ExecResult{}, fmt.Errorf("inspect exec: %w", err)
	}

	return ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: inspect.ExitCode,
	}, nil
}

// DockerManager implements Manager by running one container per sandbox
// scope key, bind-mounting the agent workspace into it.
type DockerManager struct {
	cli *client.Client
	cfg Config

	mu         sync.Mutex
	containers map[string]*dockerSandbox // scope key -> container

	pruneDone chan struct{}
	pruneOnce sync.Once
}

// NewDockerManager creates a Docker-backed Manager from a resolved sandbox
// Config. The caller is expected to have already confirmed Docker is
// reachable via CheckDockerAvailable.
func NewDockerManager(cfg Config) Manager {
	m := &DockerManager{cfg: cfg, containers: make(map[string]*dockerSandbox), pruneDone: make(chan struct{})}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		slog.Error("sandbox: failed to create docker client", "error", err)
	}
	m.cli = cli

	interval := time.Duration(cfg.PruneIntervalMin) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go m.pruneLoop(interval)

	return m
}

// scopeKey maps a tool-call's sandboxKey down to the container-sharing unit
// implied by cfg.Scope — session-scoped sandboxes get one container each,
// agent/shared scopes collapse many sessions onto a single container.
func (m *DockerManager) scopeKey(sandboxKey string) string {
	switch m.cfg.Scope {
	case ScopeShared:
		return "shared"
	case ScopeAgent:
		// sandboxKey is "<agent>:<session>" by convention; agent scope
		// collapses to just the agent portion.
		if idx := strings.Index(sandboxKey, ":"); idx >= 0 {
			return sandboxKey[:idx]
		}
		return sandboxKey
	default: // ScopeSession
		return sandboxKey
	}
}

func (m *DockerManager) Get(ctx context.Context, sandboxKey, workspace string) (Sandbox, error) {
	if m.cfg.Mode == "" || m.cfg.Mode == ModeOff {
		return nil, ErrSandboxDisabled
	}
	if m.cli == nil {
		return nil, fmt.Errorf("sandbox: docker client unavailable")
	}

	key := m.scopeKey(sandboxKey)

	m.mu.Lock()
	defer m.mu.Unlock()

	if sb, ok := m.containers[key]; ok {
		running, err := m.isRunning(ctx, sb.id)
		if err == nil && running {
			sb.lastUsed = time.Now()
			return sb, nil
		}
		delete(m.containers, key)
	}

	id, err := m.createContainer(ctx, key, workspace)
	if err != nil {
		return nil, err
	}
	sb := &dockerSandbox{id: id, mgr: m, lastUsed: time.Now()}
	m.containers[key] = sb
	return sb, nil
}

func (m *DockerManager) createContainer(ctx context.Context, key, workspace string) (string, error) {
	name := fmt.Sprintf("openclaw-sandbox-%s", sanitizeContainerName(key))

	if inspect, err := m.cli.ContainerInspect(ctx, name); err == nil {
		if inspect.State.Running {
			return inspect.ID, nil
		}
		if startErr := m.cli.ContainerStart(ctx, inspect.ID, container.StartOptions{}); startErr == nil {
			return inspect.ID, nil
		}
		_ = m.cli.ContainerRemove(ctx, inspect.ID, container.RemoveOptions{Force: true})
	}

	var mounts []mount.Mount
	if m.cfg.WorkspaceAccess != AccessNone && workspace != "" {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   workspace,
			Target:   m.cfg.ContainerWorkdir(),
			ReadOnly: m.cfg.WorkspaceAccess == AccessRO,
		})
	}

	env := make([]string, 0, len(m.cfg.Env))
	for k, v := range m.cfg.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	networkMode := container.NetworkMode("none")
	if m.cfg.NetworkEnabled {
		networkMode = container.NetworkMode("bridge")
	}

	cfg := &container.Config{
		Image:      m.cfg.Image,
		WorkingDir: m.cfg.ContainerWorkdir(),
		Tty:        false,
		Cmd:        []string{"sleep", "infinity"},
		Env:        env,
	}

	var tmpfs map[string]string
	if m.cfg.TmpfsSizeMB > 0 {
		tmpfs = map[string]string{"/tmp": fmt.Sprintf("size=%dm", m.cfg.TmpfsSizeMB)}
	}

	hostCfg := &container.HostConfig{
		NetworkMode:   networkMode,
		Mounts:        mounts,
		ReadonlyRootfs: m.cfg.ReadOnlyRoot,
		Tmpfs:         tmpfs,
		Resources: container.Resources{
			Memory:   int64(m.cfg.MemoryMB) * 1024 * 1024,
			CPUQuota: int64(m.cfg.CPUs * 100000),
		},
	}

	resp, err := m.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		return "", fmt.Errorf("create sandbox container: %w", err)
	}
	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = m.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("start sandbox container: %w", err)
	}

	if m.cfg.SetupCommand != "" {
		setupExec := container.ExecOptions{Cmd: []string{"sh", "-c", m.cfg.SetupCommand}, WorkingDir: m.cfg.ContainerWorkdir()}
		if execResp, execErr := m.cli.ContainerExecCreate(ctx, resp.ID, setupExec); execErr == nil {
			if attach, attachErr := m.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{}); attachErr == nil {
				_, _ = io.Copy(io.Discard, attach.Reader)
				attach.Close()
			}
		}
	}

	slog.Info("sandbox: container created", "name", name, "id", resp.ID, "image", m.cfg.Image)
	return resp.ID, nil
}

func (m *DockerManager) isRunning(ctx context.Context, id string) (bool, error) {
	inspect, err := m.cli.ContainerInspect(ctx, id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return inspect.State.Running, nil
}

func (m *DockerManager) touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sb := range m.containers {
		if sb.id == id {
			sb.lastUsed = time.Now()
			return
		}
	}
}

// pruneLoop releases containers idle longer than cfg.IdleHours.
func (m *DockerManager) pruneLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.pruneDone:
			return
		case <-ticker.C:
			m.pruneIdle()
		}
	}
}

func (m *DockerManager) pruneIdle() {
	idleFor := time.Duration(m.cfg.IdleHours) * time.Hour
	if idleFor <= 0 {
		return
	}

	m.mu.Lock()
	var stale []string
	for key, sb := range m.containers {
		if time.Since(sb.lastUsed) > idleFor {
			stale = append(stale, key)
		}
	}
	m.mu.Unlock()

	for _, key := range stale {
		m.mu.Lock()
		sb, ok := m.containers[key]
		delete(m.containers, key)
		m.mu.Unlock()
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		m.removeContainer(ctx, sb.id)
		cancel()
		slog.Info("sandbox: pruned idle container", "key", key, "id", sb.id)
	}
}

func (m *DockerManager) removeContainer(ctx context.Context, id string) {
	timeout := 10
	_ = m.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout})
	if err := m.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
		slog.Warn("sandbox: failed to remove container", "id", id, "error", err)
	}
}

func (m *DockerManager) Stop() {
	m.pruneOnce.Do(func() { close(m.pruneDone) })
}

func (m *DockerManager) ReleaseAll(ctx context.Context) error {
	m.mu.Lock()
	containers := make([]*dockerSandbox, 0, len(m.containers))
	for _, sb := range m.containers {
		containers = append(containers, sb)
	}
	m.containers = make(map[string]*dockerSandbox)
	m.mu.Unlock()

	for _, sb := range containers {
		m.removeContainer(ctx, sb.id)
	}
	if m.cli != nil {
		return m.cli.Close()
	}
	return nil
}

func sanitizeContainerName(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
