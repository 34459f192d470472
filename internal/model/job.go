package model // import "github.com/Andres337939/libros-front/internal/model"

import "context"

const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Job is one mutation dispatched to the worker pool.
type Job struct {
	ID     int
	BookID string
	Type   string
	Status string
	Err    error
	Run    func(ctx context.Context) error `json:"-"`
}

type JobList []Job

func (j JobList) Len() int {
	return len(j)
}

// Failed returns the jobs that finished with an error.
func (j JobList) Failed() JobList {
	var failed JobList
	for _, job := range j {
		if job.Status == JobStatusFailed {
			failed = append(failed, job)
		}
	}
	return failed
}
