package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BaseModel holds the fields common to every row-backed store record.
type BaseModel struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenNewID returns a fresh random identifier for a new store record.
func GenNewID() uuid.UUID {
	return uuid.New()
}

type ctxKey int

const (
	ctxKeyAgentID ctxKey = iota
	ctxKeyUserID
	ctxKeyAgentType
	ctxKeySenderID
)

// WithAgentID attaches the running agent's identifier to ctx so tools and
// the delegation manager can look up "who am I" without a parameter
// threaded through every call.
func WithAgentID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyAgentID, id)
}

// AgentIDFromContext returns the running agent's identifier, or uuid.Nil
// if none was set (e.g. the agent has no configured UUID, as in plain
// config-driven standalone agents).
func AgentIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKeyAgentID).(uuid.UUID)
	return id
}

// WithUserID attaches the originating user's identifier to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// UserIDFromContext returns the originating user's identifier, or "" if none was set.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyUserID).(string)
	return v
}

// WithAgentType attaches the agent's type ("open" or "predefined") to ctx,
// letting tools like the context-file interceptor vary behavior per type.
func WithAgentType(ctx context.Context, agentType string) context.Context {
	return context.WithValue(ctx, ctxKeyAgentType, agentType)
}

// AgentTypeFromContext returns the running agent's type, or "" if unset.
func AgentTypeFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyAgentType).(string)
	return v
}

// WithSenderID attaches the original message sender's identifier to ctx,
// distinct from UserID when a group chat's sender differs from the
// session's owning user (e.g. a non-owner posting in a shared group).
func WithSenderID(ctx context.Context, senderID string) context.Context {
	return context.WithValue(ctx, ctxKeySenderID, senderID)
}

// SenderIDFromContext returns the original message sender's identifier, or "" if unset.
func SenderIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeySenderID).(string)
	return v
}
