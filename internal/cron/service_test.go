package cron

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/zeroaltitude/openclaw/internal/store"
)

func TestAddGetList(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "jobs.json"), nil)

	job := &store.CronJob{Name: "daily report", AgentID: "default", Schedule: "0 9 * * *"}
	if err := s.Add(job); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected Add to assign an ID")
	}

	got, err := s.Get(job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "daily report" {
		t.Errorf("got name %q, want %q", got.Name, "daily report")
	}

	all, err := s.List("default")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 job, got %d", len(all))
	}

	if err := s.Delete(job.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(job.ID); err == nil {
		t.Error("expected error getting deleted job")
	}
}

func TestAdd_RejectsInvalidSchedule(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "jobs.json"), nil)
	err := s.Add(&store.CronJob{Name: "bad", Schedule: "not a schedule"})
	if err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestRunAtJob_RunsOnceAndRemoves(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "jobs.json"), nil)
	past := time.Now().Add(-time.Minute)
	job := &store.CronJob{Name: "one-shot", RunAt: &past}
	if err := s.Add(job); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ran := make(chan struct{}, 1)
	s.SetOnJob(func(j *store.CronJob) (*store.CronJobResult, error) {
		ran <- struct{}{}
		return &store.CronJobResult{Content: "done"}, nil
	})

	s.tick(time.Now())

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("expected due job to run")
	}

	if _, err := s.Get(job.ID); err == nil {
		t.Error("expected one-shot job to be removed after running")
	}
}

func TestPersistence_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	s1 := NewService(path, nil)
	if err := s1.Add(&store.CronJob{Name: "persisted", Schedule: "0 0 * * *"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	s2 := NewService(path, nil)
	all, err := s2.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].Name != "persisted" {
		t.Errorf("expected reloaded job to persist, got %+v", all)
	}
}

// every(60000, anchor=60000) at now=60000 with no prior run: the slot is
// due right now but must be preserved, not advanced, until it actually
// fires. Once run, the schedule advances to the next tick (120000).
func TestEveryJob_PreservesPastDueSlotThenAdvances(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "jobs.json"), nil)
	job := &store.CronJob{Name: "ticker", EveryMs: 60000, AnchorMs: 60000}
	if err := s.Add(job); err != nil {
		t.Fatalf("Add: %v", err)
	}

	now := time.UnixMilli(60000).UTC()
	s.mu.Lock()
	s.recomputeNextRuns(now)
	next := job.NextRunAt
	s.mu.Unlock()
	if next == nil || next.UnixMilli() != 60000 {
		t.Fatalf("expected past-due slot preserved at 60000, got %v", next)
	}

	ran := make(chan struct{}, 1)
	s.SetOnJob(func(j *store.CronJob) (*store.CronJobResult, error) {
		ran <- struct{}{}
		return &store.CronJobResult{Content: "tick"}, nil
	})

	outcome := s.run(job, runModeForced)
	if !outcome.Ran {
		t.Fatalf("expected run to fire, got %+v", outcome)
	}
	<-ran

	s.mu.Lock()
	advanced := job.NextRunAt
	s.mu.Unlock()
	if advanced == nil || advanced.UnixMilli() != 120000 {
		t.Fatalf("expected schedule to advance to 120000 after run, got %v", advanced)
	}
}

// Two concurrent Run calls for the same job must result in exactly one
// execution; the loser is told the job is already running.
func TestRun_SingleFireUnderConcurrency(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "jobs.json"), nil)
	job := &store.CronJob{Name: "concurrent", Schedule: "* * * * *"}
	if err := s.Add(job); err != nil {
		t.Fatalf("Add: %v", err)
	}

	release := make(chan struct{})
	var runs int
	var runsMu sync.Mutex
	s.SetOnJob(func(j *store.CronJob) (*store.CronJobResult, error) {
		runsMu.Lock()
		runs++
		runsMu.Unlock()
		<-release
		return &store.CronJobResult{}, nil
	})

	var wg sync.WaitGroup
	outcomes := make([]*store.CronRunOutcome, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], _ = s.Run(job.ID)
		}(i)
	}

	// Give the first goroutine a chance to reserve the run before releasing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	ranCount := 0
	alreadyRunning := 0
	for _, o := range outcomes {
		if o.Ran {
			ranCount++
		} else if o.Reason == "already-running" {
			alreadyRunning++
		}
	}
	if ranCount != 1 || alreadyRunning != 1 {
		t.Fatalf("expected exactly one run and one already-running rejection, got ran=%d rejected=%d", ranCount, alreadyRunning)
	}
	runsMu.Lock()
	defer runsMu.Unlock()
	if runs != 1 {
		t.Fatalf("expected handler invoked exactly once, got %d", runs)
	}
}

func TestRunMissedJobs_FiresOverdueJobAtStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	s := NewService(path, nil)
	past := time.Now().Add(-time.Hour)
	job := &store.CronJob{Name: "overdue", RunAt: &past}
	if err := s.Add(job); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ran := make(chan struct{}, 1)
	s.SetOnJob(func(j *store.CronJob) (*store.CronJobResult, error) {
		ran <- struct{}{}
		return &store.CronJobResult{}, nil
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("expected overdue one-shot job to run at startup")
	}
}
