package tools

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// AnnounceQueueItem is one completed subagent result waiting to be reported
// back to its parent session.
type AnnounceQueueItem struct {
	SubagentID string
	Label      string
	Status     string
	Result     string
	Runtime    time.Duration
	Iterations int
}

// AnnounceMetadata carries the routing/tracing context needed to deliver a
// batch of announces to the right session.
type AnnounceMetadata struct {
	ParentAgent      string
	OriginChatID     string
	OriginUserID     string
	OriginChannel    string
	OriginPeerKind   string
	OriginTraceID    string
	OriginRootSpanID string
}

type announceBatch struct {
	items []AnnounceQueueItem
	meta  AnnounceMetadata
	timer *time.Timer
}

// AnnounceQueue debounces subagent completions so several subagents that
// finish close together are reported to the user as one message instead of
// one notification per subagent. Deliveries are grouped by sessionKey (the
// parent agent + originating chat).
type AnnounceQueue struct {
	mu             sync.Mutex
	batches        map[string]*announceBatch
	maxSize        int
	debounceMs     int
	deliver        func(sessionKey string, items []AnnounceQueueItem, meta AnnounceMetadata)
	countRunningFn func(parentID string) int
}

// NewAnnounceQueue creates an announce queue. deliver is called once per
// session when a batch's debounce window elapses or it hits maxSize items.
// countRunningFn is stored on the queue but not called by it; a deliver
// callback that wants a "still running" count computes it itself.
func NewAnnounceQueue(maxSize, debounceMs int, deliver func(sessionKey string, items []AnnounceQueueItem, meta AnnounceMetadata), countRunningFn func(parentID string) int) *AnnounceQueue {
	return &AnnounceQueue{
		batches:        make(map[string]*announceBatch),
		maxSize:        maxSize,
		debounceMs:     debounceMs,
		deliver:        deliver,
		countRunningFn: countRunningFn,
	}
}

// Enqueue adds a completed subagent's result to the batch for sessionKey,
// (re)starting the debounce timer unless the batch is now full, in which
// case it flushes immediately.
func (q *AnnounceQueue) Enqueue(sessionKey string, item AnnounceQueueItem, meta AnnounceMetadata) {
	q.mu.Lock()
	defer q.mu.Unlock()

	b, ok := q.batches[sessionKey]
	if !ok {
		b = &announceBatch{meta: meta}
		q.batches[sessionKey] = b
	}
	b.items = append(b.items, item)
	b.meta = meta

	if b.timer != nil {
		b.timer.Stop()
	}
	if len(b.items) >= q.maxSize {
		q.flushLocked(sessionKey)
		return
	}
	b.timer = time.AfterFunc(time.Duration(q.debounceMs)*time.Millisecond, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.flushLocked(sessionKey)
	})
}

// flushLocked delivers and clears the batch for sessionKey. Caller must hold q.mu.
func (q *AnnounceQueue) flushLocked(sessionKey string) {
	b, ok := q.batches[sessionKey]
	if !ok || len(b.items) == 0 {
		return
	}
	delete(q.batches, sessionKey)

	if q.deliver != nil {
		q.deliver(sessionKey, b.items, b.meta)
	}
}

// FormatBatchedAnnounce renders a set of subagent results as a single
// message body, noting how many subagents (if any) are still running.
func FormatBatchedAnnounce(items []AnnounceQueueItem, remainingActive int) string {
	var sb strings.Builder
	if len(items) == 1 {
		it := items[0]
		fmt.Fprintf(&sb, "Subagent '%s' %s in %d iterations (%s).\n\n%s",
			it.Label, statusVerb(it.Status), it.Iterations, it.Runtime.Round(time.Second), it.Result)
	} else {
		fmt.Fprintf(&sb, "%d subagents finished:\n", len(items))
		for _, it := range items {
			fmt.Fprintf(&sb, "\n### %s (%s, %d iterations, %s)\n%s\n",
				it.Label, statusVerb(it.Status), it.Iterations, it.Runtime.Round(time.Second), it.Result)
		}
	}
	if remainingActive > 0 {
		fmt.Fprintf(&sb, "\n\n(%d more subagent(s) still running)", remainingActive)
	}
	return sb.String()
}

func statusVerb(status string) string {
	switch status {
	case TaskStatusFailed:
		return "failed"
	case TaskStatusCancelled:
		return "was cancelled"
	default:
		return "completed"
	}
}
