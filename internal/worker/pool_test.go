package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type testJob struct {
	id      int
	ran     *atomic.Int64
	fail    bool
	sleepMs int
}

type testResult struct {
	id  int
	err error
}

func (r *testResult) GetError() error { return r.err }

func (j *testJob) Execute(ctx context.Context) Result {
	if j.sleepMs > 0 {
		select {
		case <-ctx.Done():
			return &testResult{id: j.id, err: ctx.Err()}
		case <-time.After(time.Duration(j.sleepMs) * time.Millisecond):
		}
	}
	j.ran.Add(1)
	if j.fail {
		return &testResult{id: j.id, err: errors.New("job failed")}
	}
	return &testResult{id: j.id}
}

func TestPool_RunsAllJobs(t *testing.T) {
	var ran atomic.Int64
	pool := NewPool(context.Background(), 3)
	pool.Start()

	for i := 0; i < 10; i++ {
		pool.Submit(&testJob{id: i, ran: &ran})
	}

	pool.Close()
	results := pool.Wait()
	if len(results) != 10 {
		t.Errorf("Expected 10 results, got %d", len(results))
	}
	if ran.Load() != 10 {
		t.Errorf("Expected 10 executions, got %d", ran.Load())
	}
}

func TestPool_CollectsFailures(t *testing.T) {
	var ran atomic.Int64
	pool := NewPool(context.Background(), 2)
	pool.Start()

	pool.Submit(&testJob{id: 0, ran: &ran})
	pool.Submit(&testJob{id: 1, ran: &ran, fail: true})
	pool.Submit(&testJob{id: 2, ran: &ran})

	pool.Close()
	results := pool.Wait()
	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("Expected 1 failure, got %d", failures)
	}
}

func TestPool_ZeroWorkersDefaultsToOne(t *testing.T) {
	var ran atomic.Int64
	pool := NewPool(context.Background(), 0)
	pool.Start()

	pool.Submit(&testJob{id: 0, ran: &ran})
	pool.Close()
	results := pool.Wait()
	if len(results) != 1 || ran.Load() != 1 {
		t.Errorf("Expected single job to run, got %d results", len(results))
	}
}

func TestPool_ManyJobsExceedBuffers(t *testing.T) {
	var ran atomic.Int64
	pool := NewPool(context.Background(), 2)
	pool.Start()

	const jobs = 100
	go func() {
		for i := 0; i < jobs; i++ {
			pool.Submit(&testJob{id: i, ran: &ran})
		}
		pool.Close()
	}()

	results := pool.Wait()
	if len(results) != jobs {
		t.Errorf("Expected %d results, got %d", jobs, len(results))
	}
	if ran.Load() != jobs {
		t.Errorf("Expected %d executions, got %d", jobs, ran.Load())
	}
}

func TestPool_ParentContextCancelAbortsJobs(t *testing.T) {
	var ran atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	pool.Submit(&testJob{id: 0, ran: &ran, sleepMs: 5000})
	pool.Close()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after parent context cancellation")
	}
	if ran.Load() != 0 {
		t.Errorf("Cancelled job should not complete, ran %d", ran.Load())
	}
}

func TestPool_ShutdownStopsWorkers(t *testing.T) {
	var ran atomic.Int64
	pool := NewPool(context.Background(), 1)
	pool.Start()

	pool.Submit(&testJob{id: 0, ran: &ran, sleepMs: 5000})
	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return promptly")
	}
}
