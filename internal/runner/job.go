package runner

import (
	"context"
	"sync"

	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
)

// Result is the outcome of one run.
type Result struct {
	Passed int
	Total  int
	Status domain.SubmissionStatus
	Score  float64
	// ExecutionTime is in milliseconds.
	ExecutionTime float64
	Output        string
	Title         string
	// Submission is nil when nobody was logged in to attribute the run to.
	Submission *domain.Submission
}

// Job is a handle to a scheduled run.
type Job struct {
	id          string
	challengeID string

	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	finished bool
	canceled bool
	res      *Result
	err      error
}

func newJob(id, challengeID string, cancel context.CancelFunc) *Job {
	return &Job{
		id:          id,
		challengeID: challengeID,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

func (j *Job) ID() string          { return j.id }
func (j *Job) ChallengeID() string { return j.challengeID }

// Done is closed once the job has a result, failed or was canceled.
func (j *Job) Done() <-chan struct{} { return j.done }

// Status is Pending until the job has a result.
func (j *Job) Status() domain.SubmissionStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.res == nil {
		return domain.StatusPending
	}
	return j.res.Status
}

// Wait blocks until the job finishes or ctx is done. A done ctx does not cancel the job.
func (j *Job) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-j.done:
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.res, j.err
}

// Cancel releases the pending run. Once Cancel returns, the job will not record a submission.
func (j *Job) Cancel() {
	j.mu.Lock()
	if j.finished {
		j.mu.Unlock()
		return
	}
	j.canceled = true
	j.mu.Unlock()

	j.cancel()
}

// complete runs record under the job lock unless the job was canceled first.
func (j *Job) complete(res *Result, record func(*Result)) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.canceled {
		j.err = errors.New(errors.CodeCanceled, errors.WithMessagef("run canceled: job=%s", j.id))
	} else {
		if record != nil {
			record(res)
		}
		j.res = res
	}
	j.finish()
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.canceled {
		err = errors.New(errors.CodeCanceled, errors.WithMessagef("run canceled: job=%s", j.id), errors.WithCause(err))
	}
	j.err = err
	j.finish()
}

func (j *Job) finish() {
	j.finished = true
	j.cancel()
	close(j.done)
}
