package worker // import "github.com/Andres337939/libros-front/internal/worker"

import (
	"context"
	"sort"
	"sync"

	"github.com/Andres337939/libros-front/internal/model"
)

// MutationPool runs jobs on a fixed number of workers.
type MutationPool struct {
	queue   chan model.Job
	results chan model.Job
	wg      sync.WaitGroup
	once    sync.Once
}

func NewMutationPool(ctx context.Context, size int) *MutationPool {
	if size < 1 {
		size = 1
	}
	pool := &MutationPool{
		queue:   make(chan model.Job),
		results: make(chan model.Job, size),
	}

	for i := 0; i < size; i++ {
		worker := &MutationWorker{id: i, ctx: ctx, results: pool.results}
		pool.wg.Add(1)
		go func() {
			defer pool.wg.Done()
			worker.Run(pool.queue)
		}()
	}

	return pool
}

// Push queues job and blocks until a worker takes it.
func (p *MutationPool) Push(job model.Job) {
	job.Status = model.JobStatusPending
	p.queue <- job
}

func (p *MutationPool) Results() <-chan model.Job {
	return p.results
}

// Close stops accepting jobs. Results is closed once every worker is done.
func (p *MutationPool) Close() {
	p.once.Do(func() {
		close(p.queue)
		go func() {
			p.wg.Wait()
			close(p.results)
		}()
	})
}

// RunAll runs jobs on a pool of size workers and returns them finished,
// ordered by ID.
func RunAll(ctx context.Context, size int, jobs []model.Job) model.JobList {
	pool := NewMutationPool(ctx, size)
	go func() {
		for _, job := range jobs {
			pool.Push(job)
		}
		pool.Close()
	}()

	done := make(model.JobList, 0, len(jobs))
	for job := range pool.Results() {
		done = append(done, job)
	}
	sort.Slice(done, func(i, j int) bool {
		return done[i].ID < done[j].ID
	})
	return done
}
