package store

import "time"

// CronJobPayload is the message a cron job delivers to the agent runner,
// and optionally forwards on to a channel once the run completes.
type CronJobPayload struct {
	Message string `json:"message"`
	Channel string `json:"channel,omitempty"`
	To      string `json:"to,omitempty"`
	Deliver bool   `json:"deliver,omitempty"`
}

// ScheduleKind identifies which of CronJob's three mutually-exclusive
// schedule encodings is active: a fixed-interval timer, a cron expression,
// or a one-shot timestamp.
type ScheduleKind string

const (
	ScheduleEvery ScheduleKind = "every"
	ScheduleCron  ScheduleKind = "cron"
	ScheduleAt    ScheduleKind = "at"
)

// CronJob is one scheduled or one-shot job definition. Exactly one of
// (EveryMs, Schedule, RunAt) determines the job's ScheduleKind: EveryMs>0
// means "every", else Schedule!="" means "cron", else RunAt!=nil means "at".
type CronJob struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	AgentID  string         `json:"agentId,omitempty"`
	UserID   string         `json:"userId,omitempty"`
	Schedule string         `json:"schedule,omitempty"` // cron expression (ScheduleCron)
	Timezone string         `json:"timezone,omitempty"` // IANA tz for Schedule, default UTC
	EveryMs  int64          `json:"everyMs,omitempty"`  // fixed interval in ms (ScheduleEvery)
	AnchorMs int64          `json:"anchorMs,omitempty"` // epoch-ms anchor for EveryMs ticks
	RunAt    *time.Time     `json:"runAt,omitempty"`    // one-shot fire time (ScheduleAt)
	Payload  CronJobPayload `json:"payload"`
	Disabled bool           `json:"disabled,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt,omitempty"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`
	NextRunAt *time.Time `json:"nextRunAt,omitempty"`
	// RunningAtMs is non-zero only while a reserved run is in flight; cleared
	// when the handler returns and the result is applied.
	RunningAtMs        int64  `json:"runningAtMs,omitempty"`
	LastError          string `json:"lastError,omitempty"`
	LastDeliveryStatus string `json:"lastDeliveryStatus,omitempty"`
	LastDurationMs     int64  `json:"lastDurationMs,omitempty"`
}

// Kind reports which schedule encoding this job uses.
func (j *CronJob) Kind() ScheduleKind {
	switch {
	case j.EveryMs > 0:
		return ScheduleEvery
	case j.Schedule != "":
		return ScheduleCron
	default:
		return ScheduleAt
	}
}

// CronJobResult is what a job handler returns after a successful run.
type CronJobResult struct {
	Content      string `json:"content"`
	InputTokens  int64  `json:"inputTokens,omitempty"`
	OutputTokens int64  `json:"outputTokens,omitempty"`
}

// CronJobHandler runs one due job and returns its result.
type CronJobHandler func(job *CronJob) (*CronJobResult, error)

// CronRunOutcome is returned by a manual/forced Run call.
type CronRunOutcome struct {
	Ran    bool   `json:"ran"`
	Reason string `json:"reason,omitempty"` // set when Ran=false, e.g. "already-running"
}

// CronEvent is a scheduler lifecycle notification: added|removed|started|finished.
type CronEvent struct {
	Kind      string     `json:"kind"`
	JobID     string     `json:"jobId"`
	NextRunAt *time.Time `json:"nextRunAt,omitempty"`
}

// CronStore owns scheduled job definitions and drives their execution.
type CronStore interface {
	Add(job *CronJob) error
	Get(id string) (*CronJob, error)
	List(agentID string) ([]CronJob, error)
	Delete(id string) error
	SetDisabled(id string, disabled bool) error

	// SetOnJob registers the handler invoked when a job comes due. Must be
	// called before Start.
	SetOnJob(handler CronJobHandler)

	Start() error
	Stop()
}
