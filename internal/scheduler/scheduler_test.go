package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zeroaltitude/openclaw/internal/agent"
)

func TestSchedule_RunsSingleRequest(t *testing.T) {
	s := NewScheduler(DefaultLanes(), DefaultQueueConfig(), func(ctx context.Context, req agent.RunRequest) (*agent.RunResult, error) {
		return &agent.RunResult{Content: "ok:" + req.Message}, nil
	})

	out := <-s.Schedule(context.Background(), LaneMain, agent.RunRequest{SessionKey: "s1", Message: "hi"})
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Result.Content != "ok:hi" {
		t.Errorf("got %q, want %q", out.Result.Content, "ok:hi")
	}
}

func TestSchedule_SerializesPerSession(t *testing.T) {
	var running int32
	var maxSeen int32
	release := make(chan struct{})

	s := NewScheduler(DefaultLanes(), DefaultQueueConfig(), func(ctx context.Context, req agent.RunRequest) (*agent.RunResult, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&maxSeen)
			if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&running, -1)
		return &agent.RunResult{Content: req.Message}, nil
	})

	var wg sync.WaitGroup
	outs := make([]<-chan Outcome, 3)
	for i := 0; i < 3; i++ {
		outs[i] = s.Schedule(context.Background(), LaneMain, agent.RunRequest{SessionKey: "same-session", Message: "m"})
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	for _, ch := range outs {
		<-ch
	}
	wg.Wait()

	if atomic.LoadInt32(&maxSeen) != 1 {
		t.Errorf("expected at most 1 concurrent run per session, saw %d", maxSeen)
	}
}

func TestScheduleWithOpts_AllowsGroupConcurrency(t *testing.T) {
	release := make(chan struct{})
	var concurrent int32
	var maxSeen int32

	s := NewScheduler(DefaultLanes(), DefaultQueueConfig(), func(ctx context.Context, req agent.RunRequest) (*agent.RunResult, error) {
		n := atomic.AddInt32(&concurrent, 1)
		for {
			old := atomic.LoadInt32(&maxSeen)
			if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&concurrent, -1)
		return &agent.RunResult{}, nil
	})

	outs := make([]<-chan Outcome, 3)
	for i := 0; i < 3; i++ {
		outs[i] = s.ScheduleWithOpts(context.Background(), LaneMain, agent.RunRequest{SessionKey: "group"}, ScheduleOpts{MaxConcurrent: 3})
	}
	time.Sleep(30 * time.Millisecond)
	close(release)
	for _, ch := range outs {
		<-ch
	}

	if atomic.LoadInt32(&maxSeen) < 2 {
		t.Errorf("expected group concurrency > 1, saw max %d", maxSeen)
	}
}

func TestCancelSession_DrainsQueue(t *testing.T) {
	block := make(chan struct{})
	s := NewScheduler(DefaultLanes(), DefaultQueueConfig(), func(ctx context.Context, req agent.RunRequest) (*agent.RunResult, error) {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &agent.RunResult{}, nil
	})

	first := s.Schedule(context.Background(), LaneMain, agent.RunRequest{SessionKey: "s"})
	queued := s.Schedule(context.Background(), LaneMain, agent.RunRequest{SessionKey: "s"})

	time.Sleep(10 * time.Millisecond) // let first start and second queue
	if !s.CancelSession("s") {
		t.Fatal("CancelSession returned false for known session")
	}

	out := <-queued
	if out.Err == nil {
		t.Error("expected queued run to be canceled")
	}
	close(block)
	<-first
}
