package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/Andres337939/libros-front/internal/model"
)

func TestRunAll(t *testing.T) {
	var running, peak int32
	jobs := make([]model.Job, 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		jobs = append(jobs, model.Job{
			ID:     i,
			BookID: string(rune('A' + i)),
			Type:   "reserve",
			Run: func(ctx context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				if i%3 == 0 {
					return errors.New("boom")
				}
				return nil
			},
		})
	}

	done := RunAll(context.Background(), 3, jobs)
	if done.Len() != 10 {
		t.Fatalf("expected 10 finished jobs, got %d", done.Len())
	}
	for i, job := range done {
		if job.ID != i {
			t.Fatalf("jobs out of order: position %d has job %d", i, job.ID)
		}
	}
	if failed := done.Failed(); failed.Len() != 4 {
		t.Fatalf("expected 4 failed jobs, got %d", failed.Len())
	}
	if p := atomic.LoadInt32(&peak); p > 3 {
		t.Fatalf("pool ran %d jobs at once with 3 workers", p)
	}
}

func TestWorkerRecoversPanicsAndMissingRun(t *testing.T) {
	done := RunAll(context.Background(), 1, []model.Job{
		{ID: 1, Run: func(context.Context) error { panic("bad") }},
		{ID: 2},
	})
	for _, job := range done {
		if job.Status != model.JobStatusFailed || job.Err == nil {
			t.Fatalf("job %d should have failed: %+v", job.ID, job)
		}
	}
}

func TestCanceledContextSkipsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran int32
	done := RunAll(ctx, 2, []model.Job{
		{ID: 1, Run: func(context.Context) error { atomic.AddInt32(&ran, 1); return nil }},
	})
	if ran != 0 {
		t.Fatalf("job ran with a canceled context")
	}
	if !errors.Is(done[0].Err, context.Canceled) {
		t.Fatalf("unexpected error: %v", done[0].Err)
	}
}
