// Package node implements the Node RPC Host (C11): a registry of device-node
// peers (companion apps) that publish capabilities and serve node.invoke
// requests for system.run, canvas.*, camera.*, screen.record, and
// location.get, gated by scene phase and per-capability permission status.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// ScenePhase reports whether a node's UI is currently visible to the user.
// canvas/camera/screen capabilities require ScenePhaseForeground.
type ScenePhase string

const (
	ScenePhaseForeground ScenePhase = "foreground"
	ScenePhaseBackground ScenePhase = "background"
)

// PermissionStatus mirrors an OS-level capability grant (iOS TCC, Android
// runtime permissions, …).
type PermissionStatus string

const (
	PermissionGranted       PermissionStatus = "granted"
	PermissionDenied        PermissionStatus = "denied"
	PermissionNotDetermined PermissionStatus = "not-determined"
)

// ErrorCode enumerates the node.invoke error taxonomy.
type ErrorCode string

const (
	ErrInvalidRequest            ErrorCode = "INVALID_REQUEST"
	ErrUnavailable               ErrorCode = "UNAVAILABLE"
	ErrPermissionMissing         ErrorCode = "PERMISSION_MISSING"
	ErrNodeBackgroundUnavailable ErrorCode = "NODE_BACKGROUND_UNAVAILABLE"
	ErrCameraDisabled            ErrorCode = "CAMERA_DISABLED"
	ErrLocationDisabled          ErrorCode = "LOCATION_DISABLED"
	ErrLocationPermissionRequired ErrorCode = "LOCATION_PERMISSION_REQUIRED"
	ErrA2UIHostNotConfigured     ErrorCode = "A2UI_HOST_NOT_CONFIGURED"
	ErrA2UIHostUnavailable       ErrorCode = "A2UI_HOST_UNAVAILABLE"
)

// Error is the typed error node.invoke returns; callers match on Code, not
// on the message text.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func newError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NodeDescriptor is what node.list/node.describe report about a connected
// peer: its capability set and the permission status backing each of them.
type NodeDescriptor struct {
	NodeID       string
	Name         string
	Platform     string
	Capabilities map[string]bool
	Permissions  map[string]PermissionStatus
	ScenePhase   ScenePhase
	ConnectedAt  time.Time
}

// HasCapability reports whether the node advertised cap.
func (d *NodeDescriptor) HasCapability(cap string) bool {
	return d.Capabilities != nil && d.Capabilities[cap]
}

// requiresForeground lists the capability namespaces gated on scene phase.
var requiresForeground = map[string]bool{
	"canvas":        true,
	"camera":        true,
	"screen.record": true,
}

// Handler implements one capability's server-side behavior. params is the
// raw JSON the peer sent; the returned value is marshaled back as `result`.
type Handler func(ctx context.Context, node *NodeDescriptor, params json.RawMessage) (interface{}, error)

// Host is the Node RPC Host: the registry of connected nodes plus the
// capability handlers that back node.invoke.
type Host struct {
	mu       sync.RWMutex
	nodes    map[string]*NodeDescriptor
	handlers map[string]Handler
}

// NewHost creates an empty Host. Register handlers with RegisterCapability
// before any node connects.
func NewHost() *Host {
	return &Host{
		nodes:    make(map[string]*NodeDescriptor),
		handlers: make(map[string]Handler),
	}
}

// RegisterCapability wires a server-side handler for a capability name
// (e.g. "system.run", "canvas.render"). Capabilities without a registered
// handler are reported by NodeDescriptor but Invoke fails with UNAVAILABLE.
func (h *Host) RegisterCapability(cap string, fn Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[cap] = fn
}

// Connect registers a node peer and returns its descriptor for node.list.
func (h *Host) Connect(nodeID, name, platform string, caps []string) *NodeDescriptor {
	capSet := make(map[string]bool, len(caps))
	for _, c := range caps {
		capSet[c] = true
	}
	d := &NodeDescriptor{
		NodeID:       nodeID,
		Name:         name,
		Platform:     platform,
		Capabilities: capSet,
		Permissions:  make(map[string]PermissionStatus),
		ScenePhase:   ScenePhaseForeground,
		ConnectedAt:  time.Now(),
	}
	h.mu.Lock()
	h.nodes[nodeID] = d
	h.mu.Unlock()
	return d
}

// Disconnect removes a node from the registry.
func (h *Host) Disconnect(nodeID string) {
	h.mu.Lock()
	delete(h.nodes, nodeID)
	h.mu.Unlock()
}

// UpdateScenePhase records a foreground/background transition reported by
// the node (e.g. the companion app was backgrounded by the OS).
func (h *Host) UpdateScenePhase(nodeID string, phase ScenePhase) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.nodes[nodeID]; ok {
		d.ScenePhase = phase
	}
}

// UpdatePermission records a capability's OS-level grant status.
func (h *Host) UpdatePermission(nodeID, cap string, status PermissionStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.nodes[nodeID]; ok {
		d.Permissions[cap] = status
	}
}

// Describe returns a snapshot of one node's descriptor, or nil if unknown.
func (h *Host) Describe(nodeID string) *NodeDescriptor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	d, ok := h.nodes[nodeID]
	if !ok {
		return nil
	}
	cp := *d
	return &cp
}

// List returns descriptors for every connected node.
func (h *Host) List() []*NodeDescriptor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*NodeDescriptor, 0, len(h.nodes))
	for _, d := range h.nodes {
		cp := *d
		out = append(out, &cp)
	}
	return out
}

// capabilityNamespace maps "camera.capture" -> "camera", "screen.record" ->
// "screen.record" (itself, since it has no dotted method suffix to strip
// for this one capability family).
func capabilityNamespace(cmd string) string {
	for i := 0; i < len(cmd); i++ {
		if cmd[i] == '.' {
			prefix := cmd[:i]
			if prefix == "screen" {
				return "screen.record"
			}
			return prefix
		}
	}
	return cmd
}

// Invoke dispatches cmd (e.g. "system.run", "canvas.render") to nodeID,
// enforcing capability existence, scene-phase gating, and permission status
// before calling the registered handler.
func (h *Host) Invoke(ctx context.Context, nodeID, cmd string, params json.RawMessage) (interface{}, error) {
	if cmd == "" {
		return nil, newError(ErrInvalidRequest, "cmd is required")
	}

	h.mu.RLock()
	d, ok := h.nodes[nodeID]
	h.mu.RUnlock()
	if !ok {
		return nil, newError(ErrUnavailable, "node %q is not connected", nodeID)
	}
	if !d.HasCapability(cmd) {
		return nil, newError(ErrUnavailable, "node %q does not publish capability %q", nodeID, cmd)
	}

	ns := capabilityNamespace(cmd)
	if requiresForeground[ns] && d.ScenePhase != ScenePhaseForeground {
		return nil, newError(ErrNodeBackgroundUnavailable, "%q requires the node to be in the foreground", cmd)
	}

	if status, tracked := d.Permissions[ns]; tracked && status != PermissionGranted {
		switch ns {
		case "camera":
			if status == PermissionDenied {
				return nil, newError(ErrCameraDisabled, "camera permission denied on node %q", nodeID)
			}
			return nil, newError(ErrPermissionMissing, "camera permission not yet determined on node %q", nodeID)
		case "location":
			if status == PermissionDenied {
				return nil, newError(ErrLocationDisabled, "location services disabled on node %q", nodeID)
			}
			return nil, newError(ErrLocationPermissionRequired, "location permission not yet granted on node %q", nodeID)
		default:
			return nil, newError(ErrPermissionMissing, "%s permission missing on node %q", ns, nodeID)
		}
	}

	h.mu.RLock()
	fn, ok := h.handlers[cmd]
	h.mu.RUnlock()
	if !ok {
		return nil, newError(ErrUnavailable, "no handler registered for capability %q", cmd)
	}

	return fn(ctx, d, params)
}
