package tools

import (
	"context"

	"github.com/zeroaltitude/openclaw/internal/bus"
	"github.com/zeroaltitude/openclaw/internal/store"
)

// PathAllowable is implemented by tools that restrict filesystem access to a
// workspace but can be extended to read from additional directories (e.g.
// skills directories outside the workspace).
type PathAllowable interface {
	AllowPaths(prefixes ...string)
}

// SessionStoreAware is implemented by tools that need a session store wired
// in after construction, once the gateway has picked standalone or managed
// storage.
type SessionStoreAware interface {
	SetSessionStore(s store.SessionStore)
}

// BusAware is implemented by tools that publish or subscribe to the message
// bus once it exists.
type BusAware interface {
	SetMessageBus(b *bus.MessageBus)
}

// ApprovalAware is implemented by tools whose commands must pass through an
// exec approval manager before running.
type ApprovalAware interface {
	SetApprovalManager(mgr *ExecApprovalManager, agentID string)
}

// ChannelSenderAware is implemented by tools that deliver content to a
// channel by name (e.g. the message tool), wired once a channel manager
// exists.
type ChannelSenderAware interface {
	SetChannelSender(send func(ctx context.Context, channel, chatID, content string) error)
}
