// Package scheduler dispatches agent turns onto per-session lanes: each
// session key serializes its own turns (by default one running at a time,
// extras queued FIFO), while a handful of named lanes (cron, subagent,
// delegate, main) cap how much cross-session work runs concurrently.
package scheduler

import (
	"container/list"
	"context"
	"sync"

	"github.com/zeroaltitude/openclaw/internal/agent"
)

// Lane groups scheduled work for a shared concurrency cap, independent of
// the per-session serialization every run also gets.
type Lane string

const (
	LaneMain     Lane = "main"
	LaneCron     Lane = "cron"
	LaneSubagent Lane = "subagent"
	LaneDelegate Lane = "delegate"
)

// LaneConfig caps concurrency for one lane.
type LaneConfig struct {
	MaxConcurrent int
}

// LanesConfig maps each lane to its concurrency cap.
type LanesConfig map[Lane]LaneConfig

// DefaultLanes returns sane defaults: cron and delegate run a handful of jobs
// at once, subagents get more headroom since they're usually short-lived,
// and main is uncapped (0 means no lane-wide limit).
func DefaultLanes() LanesConfig {
	return LanesConfig{
		LaneMain:     {MaxConcurrent: 0},
		LaneCron:     {MaxConcurrent: 4},
		LaneSubagent: {MaxConcurrent: 8},
		LaneDelegate: {MaxConcurrent: 4},
	}
}

// QueueConfig tunes per-session queueing behavior.
type QueueConfig struct {
	// DefaultSessionConcurrency is how many turns may run at once for a
	// single session key before extras queue (spec default: 1).
	DefaultSessionConcurrency int
	// MaxQueueDepth caps how many queued turns a session may accumulate
	// before Schedule rejects new ones (0 = unlimited).
	MaxQueueDepth int
}

// DefaultQueueConfig matches spec's documented per-session serialization.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		DefaultSessionConcurrency: 1,
		MaxQueueDepth:             50,
	}
}

// RunFunc actually executes one agent turn. Schedulers never construct an
// agent.Loop themselves — they're handed a closure that already knows how
// to resolve req.SessionKey to the right agent/provider/tools.
type RunFunc func(ctx context.Context, req agent.RunRequest) (*agent.RunResult, error)

// Outcome is delivered on the channel Schedule/ScheduleWithOpts returns.
type Outcome struct {
	Result *agent.RunResult
	Err    error
}

// ScheduleOpts overrides per-call scheduling behavior.
type ScheduleOpts struct {
	// MaxConcurrent overrides QueueConfig.DefaultSessionConcurrency for this
	// session key (e.g. group chats allow a few turns in flight at once).
	MaxConcurrent int
}

type queuedRun struct {
	ctx    context.Context
	req    agent.RunRequest
	outCh  chan Outcome
	maxCnc int
}

type sessionLane struct {
	mu      sync.Mutex
	active  int
	maxCnc  int
	queue   *list.List // of *queuedRun
	cancels []context.CancelFunc
}

// Scheduler is the dispatch core: one goroutine pool per lane plus one
// sessionLane bookkeeping entry per active session key.
type Scheduler struct {
	laneCfg LanesConfig
	qCfg    QueueConfig
	run     RunFunc

	laneSem map[Lane]chan struct{} // nil entry = uncapped

	mu       sync.Mutex
	sessions map[string]*sessionLane

	tokenEstimateFn func(sessionKey string) (int, int)

	stopped bool
}

// NewScheduler builds a Scheduler. lanes/queueCfg may be zero-valued to use
// DefaultLanes/DefaultQueueConfig.
func NewScheduler(lanes LanesConfig, queueCfg QueueConfig, runFn RunFunc) *Scheduler {
	if lanes == nil {
		lanes = DefaultLanes()
	}
	if queueCfg.DefaultSessionConcurrency == 0 {
		queueCfg = DefaultQueueConfig()
	}
	s := &Scheduler{
		laneCfg:  lanes,
		qCfg:     queueCfg,
		run:      runFn,
		laneSem:  make(map[Lane]chan struct{}),
		sessions: make(map[string]*sessionLane),
	}
	for lane, cfg := range lanes {
		if cfg.MaxConcurrent > 0 {
			s.laneSem[lane] = make(chan struct{}, cfg.MaxConcurrent)
		}
	}
	return s
}

// SetTokenEstimateFunc wires a hook used by callers that want to throttle
// based on estimated prompt size (e.g. to back off before a huge session
// would blow the context window). Scheduler itself does not yet call this;
// it is exposed for adaptive callers layered on top.
func (s *Scheduler) SetTokenEstimateFunc(fn func(sessionKey string) (int, int)) {
	s.mu.Lock()
	s.tokenEstimateFn = fn
	s.mu.Unlock()
}

// Schedule queues req on lane using the default per-session concurrency.
func (s *Scheduler) Schedule(ctx context.Context, lane Lane, req agent.RunRequest) <-chan Outcome {
	return s.ScheduleWithOpts(ctx, lane, req, ScheduleOpts{})
}

// ScheduleWithOpts queues req on lane, honoring opts.MaxConcurrent as a
// per-session-key override of the default concurrency.
func (s *Scheduler) ScheduleWithOpts(ctx context.Context, lane Lane, req agent.RunRequest, opts ScheduleOpts) <-chan Outcome {
	outCh := make(chan Outcome, 1)

	maxCnc := opts.MaxConcurrent
	if maxCnc <= 0 {
		maxCnc = s.qCfg.DefaultSessionConcurrency
	}

	runCtx, cancel := context.WithCancel(ctx)
	qr := &queuedRun{ctx: runCtx, req: req, outCh: outCh, maxCnc: maxCnc}

	sl := s.sessionLaneFor(req.SessionKey)
	sl.mu.Lock()
	sl.cancels = append(sl.cancels, cancel)
	if s.qCfg.MaxQueueDepth > 0 && sl.queue.Len() >= s.qCfg.MaxQueueDepth {
		sl.mu.Unlock()
		cancel()
		outCh <- Outcome{Err: errQueueFull(req.SessionKey)}
		close(outCh)
		return outCh
	}
	sl.maxCnc = maxCnc
	sl.queue.PushBack(qr)
	s.drainLocked(sl, lane)
	sl.mu.Unlock()

	return outCh
}

func (s *Scheduler) sessionLaneFor(sessionKey string) *sessionLane {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.sessions[sessionKey]
	if !ok {
		sl = &sessionLane{queue: list.New(), maxCnc: s.qCfg.DefaultSessionConcurrency}
		s.sessions[sessionKey] = sl
	}
	return sl
}

// drainLocked starts queued runs up to sl.maxCnc. Caller holds sl.mu.
func (s *Scheduler) drainLocked(sl *sessionLane, lane Lane) {
	for sl.active < sl.maxCnc && sl.queue.Len() > 0 {
		front := sl.queue.Front()
		qr := sl.queue.Remove(front).(*queuedRun)
		sl.active++
		go s.execute(sl, lane, qr)
	}
}

func (s *Scheduler) execute(sl *sessionLane, lane Lane, qr *queuedRun) {
	if sem, ok := s.laneSem[lane]; ok {
		sem <- struct{}{}
		defer func() { <-sem }()
	}

	result, err := s.run(qr.ctx, qr.req)
	qr.outCh <- Outcome{Result: result, Err: err}
	close(qr.outCh)

	sl.mu.Lock()
	sl.active--
	s.drainLocked(sl, lane)
	sl.mu.Unlock()
}

// CancelSession cancels every queued and in-flight run for sessionKey.
// Returns false if the session key has no known lane.
func (s *Scheduler) CancelSession(sessionKey string) bool {
	s.mu.Lock()
	sl, ok := s.sessions[sessionKey]
	s.mu.Unlock()
	if !ok {
		return false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	for e := sl.queue.Front(); e != nil; {
		next := e.Next()
		qr := sl.queue.Remove(e).(*queuedRun)
		qr.outCh <- Outcome{Err: errCanceled(sessionKey)}
		close(qr.outCh)
		e = next
	}
	for _, cancel := range sl.cancels {
		cancel()
	}
	sl.cancels = nil
	return true
}

// CancelOneSession cancels only the currently-running turn for sessionKey
// (leaving any queued follow-ups to run), used by a single "/stop" as
// opposed to "/stopall".
func (s *Scheduler) CancelOneSession(sessionKey string) bool {
	s.mu.Lock()
	sl, ok := s.sessions[sessionKey]
	s.mu.Unlock()
	if !ok {
		return false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if len(sl.cancels) == 0 {
		return false
	}
	sl.cancels[0]()
	sl.cancels = sl.cancels[1:]
	return true
}

// Stop is a no-op placeholder for symmetry with store.CronStore's
// Start/Stop lifecycle; the scheduler has no background goroutines to tear
// down beyond the per-run goroutines, which exit on their own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}
