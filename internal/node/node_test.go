package node

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/zeroaltitude/openclaw/internal/policy"
	"github.com/zeroaltitude/openclaw/internal/supervisor"
)

func TestInvoke_UnknownNodeIsUnavailable(t *testing.T) {
	h := NewHost()
	_, err := h.Invoke(context.Background(), "no-such-node", "system.run", nil)
	assertCode(t, err, ErrUnavailable)
}

func TestInvoke_UnpublishedCapabilityIsUnavailable(t *testing.T) {
	h := NewHost()
	h.Connect("node-1", "phone", "ios", []string{"location.get"})
	_, err := h.Invoke(context.Background(), "node-1", "camera.capture", nil)
	assertCode(t, err, ErrUnavailable)
}

func TestInvoke_BackgroundBlocksCanvasAndCamera(t *testing.T) {
	h := NewHost()
	h.RegisterCapability("canvas.render", func(ctx context.Context, n *NodeDescriptor, p json.RawMessage) (interface{}, error) {
		return "ok", nil
	})
	h.Connect("node-1", "phone", "ios", []string{"canvas.render"})
	h.UpdateScenePhase("node-1", ScenePhaseBackground)

	_, err := h.Invoke(context.Background(), "node-1", "canvas.render", json.RawMessage(`{}`))
	assertCode(t, err, ErrNodeBackgroundUnavailable)
}

func TestInvoke_CameraDeniedPermission(t *testing.T) {
	h := NewHost()
	h.RegisterCapability("camera.capture", NewMediaPostProcessHandler())
	h.Connect("node-1", "phone", "ios", []string{"camera.capture"})
	h.UpdatePermission("node-1", "camera", PermissionDenied)

	_, err := h.Invoke(context.Background(), "node-1", "camera.capture", json.RawMessage(`{}`))
	assertCode(t, err, ErrCameraDisabled)
}

func TestInvoke_LocationNotYetGranted(t *testing.T) {
	h := NewHost()
	h.RegisterCapability("location.get", func(ctx context.Context, n *NodeDescriptor, p json.RawMessage) (interface{}, error) {
		return map[string]float64{"lat": 0, "lng": 0}, nil
	})
	h.Connect("node-1", "phone", "ios", []string{"location.get"})
	h.UpdatePermission("node-1", "location", PermissionNotDetermined)

	_, err := h.Invoke(context.Background(), "node-1", "location.get", nil)
	assertCode(t, err, ErrLocationPermissionRequired)
}

func TestInvoke_SystemRunRoutesThroughPolicy(t *testing.T) {
	h := NewHost()
	engine := policy.NewEngine(policy.SecurityDeny, policy.AskOff, policy.NewAllowlist(nil))
	sup := supervisor.New()
	h.RegisterCapability("system.run", NewSystemRunHandler(engine, sup, 2*time.Second))
	h.Connect("node-1", "mac", "macos", []string{"system.run"})

	params, _ := json.Marshal(SystemRunParams{Command: "echo hi"})
	_, err := h.Invoke(context.Background(), "node-1", "system.run", params)
	assertCode(t, err, ErrUnavailable)
}

func TestInvoke_SystemRunAllowedExecutes(t *testing.T) {
	h := NewHost()
	engine := policy.NewEngine(policy.SecurityFull, policy.AskOff, policy.NewAllowlist(nil))
	sup := supervisor.New()
	h.RegisterCapability("system.run", NewSystemRunHandler(engine, sup, 2*time.Second))
	h.Connect("node-1", "mac", "macos", []string{"system.run"})

	params, _ := json.Marshal(SystemRunParams{Command: "echo hi"})
	res, err := h.Invoke(context.Background(), "node-1", "system.run", params)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	result, ok := res.(SystemRunResult)
	if !ok {
		t.Fatalf("result type = %T, want SystemRunResult", res)
	}
	if result.ExitCode != 0 {
		t.Errorf("exitCode = %d, want 0", result.ExitCode)
	}
}

func assertCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("err = nil, want code %s", want)
	}
	var nerr *Error
	if !errors.As(err, &nerr) {
		t.Fatalf("err = %v (%T), want *node.Error", err, err)
	}
	if nerr.Code != want {
		t.Errorf("code = %s, want %s", nerr.Code, want)
	}
}
