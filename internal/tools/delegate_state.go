package tools

import (
	"log/slog"
	"time"
)

// Cancel cancels a running delegation by ID.
func (dm *DelegateManager) Cancel(delegationID string) bool {
	val, ok := dm.active.Load(delegationID)
	if !ok {
		return false
	}
	task := val.(*DelegationTask)
	if task.cancelFunc != nil {
		task.cancelFunc()
	}
	task.Status = "cancelled"
	now := time.Now()
	task.CompletedAt = &now
	dm.active.Delete(delegationID)
	dm.emitEvent("delegation.cancelled", task)
	slog.Info("delegation cancelled", "id", delegationID, "target", task.TargetAgentKey)
	return true
}

// ListActive returns all active delegations originated by sourceAgentKey.
func (dm *DelegateManager) ListActive(sourceAgentKey string) []*DelegationTask {
	var tasks []*DelegationTask
	dm.active.Range(func(_, val any) bool {
		t := val.(*DelegationTask)
		if t.SourceAgentKey == sourceAgentKey && t.Status == "running" {
			tasks = append(tasks, t)
		}
		return true
	})
	return tasks
}

// ActiveCountForTarget counts running delegations targeting a specific agent from all sources.
func (dm *DelegateManager) ActiveCountForTarget(targetAgentKey string) int {
	count := 0
	dm.active.Range(func(_, val any) bool {
		t := val.(*DelegationTask)
		if t.TargetAgentKey == targetAgentKey && t.Status == "running" {
			count++
		}
		return true
	})
	return count
}

// trackCompleted deletes a finished delegation's scratch session — a
// delegate session only exists to carry one task's conversation, so once
// the task is done it has no further use.
func (dm *DelegateManager) trackCompleted(task *DelegationTask) {
	if dm.sessionStore == nil {
		return
	}
	if err := dm.sessionStore.Delete(task.SessionKey); err != nil {
		slog.Warn("delegate: session cleanup failed", "session", task.SessionKey, "error", err)
	}
}
