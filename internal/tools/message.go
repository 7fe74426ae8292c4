package tools

import (
	"context"
	"fmt"
)

// MessageTool lets the agent proactively send a message to a channel/chat,
// independent of replying to the turn that's currently running (e.g. a
// subagent announcing progress, or a cron run notifying a different chat
// than the one it was scheduled against).
type MessageTool struct {
	send func(ctx context.Context, channel, chatID, content string) error
}

func NewMessageTool() *MessageTool { return &MessageTool{} }

func (t *MessageTool) SetChannelSender(send func(ctx context.Context, channel, chatID, content string) error) {
	t.send = send
}

func (t *MessageTool) Name() string { return "message" }

func (t *MessageTool) Description() string {
	return "Send a message to a channel and chat, independent of the current conversation's reply. " +
		"Use this to notify a different chat, or to send a message outside the normal turn/reply flow."
}

func (t *MessageTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"channel": map[string]interface{}{
				"type":        "string",
				"description": "Channel to send on (e.g. telegram, discord, whatsapp)",
			},
			"chat_id": map[string]interface{}{
				"type":        "string",
				"description": "Destination chat/channel ID",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Message content",
			},
		},
		"required": []string{"channel", "chat_id", "content"},
	}
}

func (t *MessageTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	if t.send == nil {
		return ErrorResult("message tool not wired to a channel sender")
	}
	channel, _ := args["channel"].(string)
	chatID, _ := args["chat_id"].(string)
	content, _ := args["content"].(string)

	if channel == "" || chatID == "" {
		return ErrorResult("message requires 'channel' and 'chat_id'")
	}
	if content == "" {
		return ErrorResult("message requires non-empty 'content'")
	}

	if err := t.send(ctx, channel, chatID, content); err != nil {
		return ErrorResult(fmt.Sprintf("message send failed: %s", err))
	}
	return SilentResult(fmt.Sprintf(`{"status":"sent","channel":"%s","chat_id":"%s"}`, channel, chatID))
}
