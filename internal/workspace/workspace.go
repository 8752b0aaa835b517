package workspace

import (
	"context"
	"sync"

	"github.com/victornm/codechallenge/internal/countdown"
	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
	"github.com/victornm/codechallenge/internal/runner"
)

type Runner interface {
	Run(ctx context.Context, req runner.RunRequest) (*runner.Job, error)
}

// Workspace is one open attempt at a challenge: the code being edited, the attempt countdown and the runs in flight.
// Close tears it down and cancels everything it scheduled.
type Workspace struct {
	challenge domain.Challenge
	runner    Runner
	timer     *countdown.Timer

	mu       sync.Mutex
	language string
	code     string
	job      *runner.Job
	last     *runner.Result
	closed   bool
}

type Config struct {
	Challenge domain.Challenge
	Runner    Runner
	// Countdown.Seconds is derived from the challenge time limit.
	Countdown countdown.Config
}

func Open(c Config) *Workspace {
	cd := c.Countdown
	cd.Seconds = c.Challenge.TimeLimit * 60

	return &Workspace{
		challenge: c.Challenge,
		runner:    c.Runner,
		timer:     countdown.Start(cd),
		language:  c.Challenge.Language,
		code:      runner.Template(c.Challenge.Language),
	}
}

type State struct {
	ChallengeID    string
	Language       string
	EditorLanguage string
	Code           string
	// Remaining is the remaining attempt time in seconds.
	Remaining     int
	RemainingText string
	Expired       bool
	Running       bool
	Last          *runner.Result
	Closed        bool
}

func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	rem := w.timer.Remaining()
	return State{
		ChallengeID:    w.challenge.ID,
		Language:       w.language,
		EditorLanguage: runner.EditorLanguage(w.language),
		Code:           w.code,
		Remaining:      rem,
		RemainingText:  countdown.Format(rem),
		Expired:        rem == 0,
		Running:        w.job != nil,
		Last:           w.last,
		Closed:         w.closed,
	}
}

func (w *Workspace) Challenge() domain.Challenge {
	return w.challenge
}

func (w *Workspace) SetCode(code string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errClosed(w.challenge.ID)
	}

	w.code = code
	return nil
}

// SetLanguage switches the language and replaces the code with that language's template.
func (w *Workspace) SetLanguage(language string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errClosed(w.challenge.ID)
	}

	if language == w.language {
		return nil
	}

	w.language = language
	w.code = runner.Template(language)
	return nil
}

// Run runs the current code and waits for the result. If ctx is done first, the run is canceled.
func (w *Workspace) Run(ctx context.Context) (*runner.Result, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, errClosed(w.challenge.ID)
	}
	if w.job != nil {
		w.mu.Unlock()
		return nil, errors.FailedPrecondition("a run is already in progress: challenge=%s", w.challenge.ID)
	}

	j, err := w.runner.Run(ctx, runner.RunRequest{
		ChallengeID: w.challenge.ID,
		Code:        w.code,
		Language:    w.language,
	})
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.job = j
	w.mu.Unlock()

	res, err := j.Wait(ctx)
	if err != nil {
		j.Cancel()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.job == j {
		w.job = nil
	}
	if err != nil {
		return nil, err
	}

	w.last = res
	return res, nil
}

// Close stops the countdown and cancels the pending run. It is safe to call more than once.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	j := w.job
	w.job = nil
	w.mu.Unlock()

	if j != nil {
		j.Cancel()
	}
	w.timer.Stop()
}

func errClosed(challengeID string) error {
	return errors.FailedPrecondition("workspace is closed: challenge=%s", challengeID)
}
