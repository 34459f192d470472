package worker

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Andres337939/libros-front/internal/log"
	"github.com/Andres337939/libros-front/internal/model"
)

type MutationWorker struct {
	id      int
	ctx     context.Context
	results chan<- model.Job
}

// Run executes jobs until c is closed.
func (w *MutationWorker) Run(c <-chan model.Job) {
	log.Debug("MutationWorker is running", zap.Int("worker_id", w.id))

	for job := range c {
		log.Debug("Job received by worker",
			zap.Int("worker_id", w.id),
			zap.Int("job_id", job.ID),
			zap.String("book_id", job.BookID),
			zap.String("type", job.Type))

		job.Status = model.JobStatusRunning
		job.Err = w.run(job)
		if job.Err != nil {
			job.Status = model.JobStatusFailed
			log.Debug("Job failed", zap.Int("job_id", job.ID), zap.Error(job.Err))
		} else {
			job.Status = model.JobStatusDone
		}
		w.results <- job
	}
}

func (w *MutationWorker) run(job model.Job) (err error) {
	if job.Run == nil {
		return errors.Errorf("job %d has nothing to run", job.ID)
	}
	if err := w.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("job %d panicked: %v", job.ID, r)
		}
	}()
	return job.Run(w.ctx)
}
