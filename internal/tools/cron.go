package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zeroaltitude/openclaw/internal/store"
)

// CronTool lets the agent manage its own scheduled jobs: list, add,
// disable, and remove recurring or one-shot reminders/automations.
type CronTool struct {
	cron store.CronStore
}

func NewCronTool(cron store.CronStore) *CronTool {
	return &CronTool{cron: cron}
}

func (t *CronTool) Name() string { return "cron" }

func (t *CronTool) Description() string {
	return "Manage scheduled jobs. action=list shows jobs for this agent; action=add schedules a " +
		"new recurring (cron expression) or one-shot job; action=remove deletes a job; action=disable/enable " +
		"toggles whether a job fires."
}

func (t *CronTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"list", "add", "remove", "enable", "disable"},
				"description": "Operation to perform",
			},
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Job ID (required for remove/enable/disable)",
			},
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Human-readable job name (for add)",
			},
			"schedule": map[string]interface{}{
				"type":        "string",
				"description": "Cron expression, e.g. '0 9 * * *' (for add; omit for a one-shot job)",
			},
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Message to run through the agent when the job fires (for add)",
			},
			"channel": map[string]interface{}{
				"type":        "string",
				"description": "Channel to deliver the result to (for add, optional)",
			},
			"to": map[string]interface{}{
				"type":        "string",
				"description": "Chat/recipient ID to deliver the result to (for add, optional)",
			},
		},
		"required": []string{"action"},
	}
}

func (t *CronTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	if t.cron == nil {
		return ErrorResult("cron store not available")
	}
	action, _ := args["action"].(string)
	agentID := resolveAgentIDString(ctx)

	switch action {
	case "list":
		jobs, err := t.cron.List(agentID)
		if err != nil {
			return ErrorResult(fmt.Sprintf("cron list failed: %s", err))
		}
		data, _ := json.Marshal(jobs)
		return NewResult(string(data))

	case "add":
		name, _ := args["name"].(string)
		schedule, _ := args["schedule"].(string)
		message, _ := args["message"].(string)
		channel, _ := args["channel"].(string)
		to, _ := args["to"].(string)
		if message == "" {
			return ErrorResult("add requires 'message'")
		}
		job := &store.CronJob{
			Name:     name,
			AgentID:  agentID,
			Schedule: schedule,
			Payload: store.CronJobPayload{
				Message: message,
				Channel: channel,
				To:      to,
				Deliver: channel != "" && to != "",
			},
		}
		if err := t.cron.Add(job); err != nil {
			return ErrorResult(fmt.Sprintf("cron add failed: %s", err))
		}
		return NewResult(fmt.Sprintf(`{"status":"scheduled","id":"%s"}`, job.ID))

	case "remove":
		id, _ := args["id"].(string)
		if id == "" {
			return ErrorResult("remove requires 'id'")
		}
		if err := t.cron.Delete(id); err != nil {
			return ErrorResult(fmt.Sprintf("cron remove failed: %s", err))
		}
		return SilentResult(`{"status":"removed"}`)

	case "enable", "disable":
		id, _ := args["id"].(string)
		if id == "" {
			return ErrorResult(fmt.Sprintf("%s requires 'id'", action))
		}
		if err := t.cron.SetDisabled(id, action == "disable"); err != nil {
			return ErrorResult(fmt.Sprintf("cron %s failed: %s", action, err))
		}
		return SilentResult(fmt.Sprintf(`{"status":"%sd"}`, action))

	default:
		return ErrorResult(fmt.Sprintf("unknown cron action %q", action))
	}
}
