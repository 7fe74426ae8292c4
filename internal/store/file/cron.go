package file

import (
	"github.com/zeroaltitude/openclaw/internal/cron"
	"github.com/zeroaltitude/openclaw/internal/store"
)

// FileCronStore wraps cron.Service to implement store.CronStore. cron.Service
// already satisfies the interface directly; this thin wrapper exists so
// standalone wiring matches the managed-mode pg.NewPGCronStore call shape.
type FileCronStore struct {
	svc *cron.Service
}

func NewFileCronStore(svc *cron.Service) *FileCronStore {
	return &FileCronStore{svc: svc}
}

func (f *FileCronStore) Add(job *store.CronJob) error                { return f.svc.Add(job) }
func (f *FileCronStore) Get(id string) (*store.CronJob, error)       { return f.svc.Get(id) }
func (f *FileCronStore) List(agentID string) ([]store.CronJob, error) { return f.svc.List(agentID) }
func (f *FileCronStore) Delete(id string) error                      { return f.svc.Delete(id) }
func (f *FileCronStore) SetDisabled(id string, disabled bool) error {
	return f.svc.SetDisabled(id, disabled)
}
func (f *FileCronStore) SetOnJob(h store.CronJobHandler) { f.svc.SetOnJob(h) }
func (f *FileCronStore) Start() error                    { return f.svc.Start() }
func (f *FileCronStore) Stop()                           { f.svc.Stop() }

// SetRetryConfig forwards to the underlying service; gateway.go type-asserts
// for this optional method.
func (f *FileCronStore) SetRetryConfig(rc cron.RetryConfig) { f.svc.SetRetryConfig(rc) }

// Run forwards a manual/forced job run; callers type-assert for this
// optional method (e.g. the cron.run RPC method and the cron agent tool).
func (f *FileCronStore) Run(jobID string) (*store.CronRunOutcome, error) { return f.svc.Run(jobID) }

// Events forwards the scheduler's lifecycle event stream; callers
// type-assert for this optional method (e.g. gateway event broadcast).
func (f *FileCronStore) Events() <-chan store.CronEvent { return f.svc.Events() }
