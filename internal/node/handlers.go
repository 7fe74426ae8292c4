package node

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/zeroaltitude/openclaw/internal/policy"
	"github.com/zeroaltitude/openclaw/internal/supervisor"
)

// SystemRunParams is the params shape for the "system.run" capability.
type SystemRunParams struct {
	Command string `json:"command"`
	AgentID string `json:"agentId,omitempty"`
}

// SystemRunResult is the result shape for "system.run".
type SystemRunResult struct {
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// NewSystemRunHandler builds the "system.run" capability handler. It routes
// every command through the same policy engine as the local exec tool (§C2)
// before handing it to the supervisor, so a device node can never bypass the
// allowlist/approval rules the operator configured for shell access.
func NewSystemRunHandler(engine *policy.Engine, sup *supervisor.Supervisor, timeout time.Duration) Handler {
	return func(ctx context.Context, n *NodeDescriptor, raw json.RawMessage) (interface{}, error) {
		var p SystemRunParams
		if err := json.Unmarshal(raw, &p); err != nil || p.Command == "" {
			return nil, newError(ErrInvalidRequest, "command is required")
		}

		decision := engine.Decide(policy.Request{Command: p.Command, AgentID: p.AgentID})
		if !decision.Allowed {
			msg := decision.ErrorMessage
			if msg == "" {
				msg = "command blocked by exec policy"
			}
			// The node error taxonomy has no dedicated "policy denied" code;
			// UNAVAILABLE is the closest fit (the capability exists but this
			// particular invocation cannot proceed).
			return nil, newError(ErrUnavailable, "%s", msg)
		}

		exit, err := sup.Run(ctx, supervisor.RunOptions{
			Argv:           []string{"sh", "-c", p.Command},
			OverallTimeout: timeout,
			CaptureOutput:  true,
			ScopeKey:       "node:" + n.NodeID + ":system.run",
		})
		if err != nil {
			return nil, newError(ErrUnavailable, "%v", err)
		}
		return SystemRunResult{ExitCode: exit.ExitCode, Stdout: exit.Stdout, Stderr: exit.Stderr}, nil
	}
}

// CanvasRenderParams is the params shape for the "canvas.render" capability.
type CanvasRenderParams struct {
	HTML   string `json:"html"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// A2UIHost renders canvas content on the host's behalf when the device node
// itself has no canvas surface (the "A2UI" fallback named in the node error
// taxonomy). nil disables the fallback entirely.
type A2UIHost struct {
	browser *rod.Browser
}

// NewA2UIHost wires an already-connected rod.Browser as the canvas fallback
// renderer. Pass nil to leave canvas.render unavailable.
func NewA2UIHost(browser *rod.Browser) *A2UIHost {
	if browser == nil {
		return nil
	}
	return &A2UIHost{browser: browser}
}

// NewCanvasRenderHandler builds the "canvas.render" capability handler,
// backed by a headless browser page as the rendering surface.
func NewCanvasRenderHandler(host *A2UIHost) Handler {
	return func(ctx context.Context, n *NodeDescriptor, raw json.RawMessage) (interface{}, error) {
		if host == nil || host.browser == nil {
			return nil, newError(ErrA2UIHostNotConfigured, "no canvas fallback renderer configured")
		}
		var p CanvasRenderParams
		if err := json.Unmarshal(raw, &p); err != nil || p.HTML == "" {
			return nil, newError(ErrInvalidRequest, "html is required")
		}
		width, height := p.Width, p.Height
		if width <= 0 {
			width = 800
		}
		if height <= 0 {
			height = 600
		}

		page, err := host.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			return nil, newError(ErrA2UIHostUnavailable, "open page: %v", err)
		}
		defer page.Close()

		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:  width,
			Height: height,
		}); err != nil {
			return nil, newError(ErrA2UIHostUnavailable, "set viewport: %v", err)
		}
		if err := page.SetDocumentContent(p.HTML); err != nil {
			return nil, newError(ErrA2UIHostUnavailable, "render html: %v", err)
		}
		shot, err := page.Screenshot(true, nil)
		if err != nil {
			return nil, newError(ErrA2UIHostUnavailable, "screenshot: %v", err)
		}
		return map[string]string{"pngBase64": base64.StdEncoding.EncodeToString(shot)}, nil
	}
}

// MediaPostProcessParams is the params shape shared by "camera.capture" and
// "screen.record": the node has already produced raw media bytes and wants
// the host to resize/normalize them before they're attached to a turn.
type MediaPostProcessParams struct {
	DataBase64 string `json:"dataBase64"`
	MaxWidth   int    `json:"maxWidth"`
}

// NewMediaPostProcessHandler builds a handler that decodes an image the
// node captured, downsamples it to maxWidth (preserving aspect ratio), and
// re-encodes it as PNG — shared by the camera.capture and screen.record
// capabilities, which differ only in the device-side source of the bytes.
func NewMediaPostProcessHandler() Handler {
	return func(ctx context.Context, n *NodeDescriptor, raw json.RawMessage) (interface{}, error) {
		var p MediaPostProcessParams
		if err := json.Unmarshal(raw, &p); err != nil || p.DataBase64 == "" {
			return nil, newError(ErrInvalidRequest, "dataBase64 is required")
		}
		data, err := base64.StdEncoding.DecodeString(p.DataBase64)
		if err != nil {
			return nil, newError(ErrInvalidRequest, "dataBase64 is not valid base64: %v", err)
		}
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, newError(ErrInvalidRequest, "unrecognized image data: %v", err)
		}

		maxWidth := p.MaxWidth
		if maxWidth <= 0 {
			maxWidth = 1280
		}
		if img.Bounds().Dx() > maxWidth {
			img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
		}

		var out bytes.Buffer
		if err := imaging.Encode(&out, img, imaging.PNG); err != nil {
			return nil, newError(ErrUnavailable, "encode: %v", err)
		}
		return map[string]string{"pngBase64": base64.StdEncoding.EncodeToString(out.Bytes())}, nil
	}
}
