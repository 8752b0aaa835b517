package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
	"github.com/victornm/codechallenge/internal/event"
	"github.com/victornm/codechallenge/internal/telemetry"
)

type Store interface {
	GetChallengeByID(id string) (domain.Challenge, bool)
	AddSubmission(s domain.Submission)
	CurrentUser() (domain.User, bool)
}

type Config struct {
	Store    Store
	EventBus *event.Bus
	Executor Executor
	Now      func() time.Time
}

type Service struct {
	store Store
	eb    *event.Bus
	exec  Executor
	now   func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store: c.Store,
		eb:    c.EventBus,
		exec:  c.Executor,
		now:   c.Now,
	}

	if s.exec == nil {
		s.exec = NewSimulatedExecutor(DefaultDelay)
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

type RunRequest struct {
	ChallengeID string
	Code        string
	// Language defaults to the challenge's language.
	Language string
}

// Run schedules a run of the code against the challenge's test cases and returns its handle.
// The run does not depend on ctx; use Job.Cancel to abandon it.
func (s *Service) Run(ctx context.Context, req RunRequest) (*Job, error) {
	c, ok := s.store.GetChallengeByID(req.ChallengeID)
	if !ok {
		return nil, errors.NotFound("challenge not found: id=%s", req.ChallengeID)
	}

	if strings.TrimSpace(req.Code) == "" {
		return nil, errors.InvalidArgument("please write some code before running")
	}

	if len(c.TestCases) == 0 {
		return nil, errors.FailedPrecondition("challenge has no test cases: id=%s", c.ID)
	}

	if req.Language == "" {
		req.Language = c.Language
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate job ID: %w", err)
	}

	// The run belongs to whoever started it, even if the session changes before it finishes.
	var candidate *domain.User
	if u, ok := s.store.CurrentUser(); ok {
		candidate = &u
	}

	jctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := newJob(id.String(), c.ID, cancel)

	slog.InfoContext(ctx, "runner: run scheduled", "job", j.ID(), "challenge", c.ID, "language", req.Language)

	go s.execute(jctx, j, c, req, candidate)

	return j, nil
}

func (s *Service) execute(ctx context.Context, j *Job, c domain.Challenge, req RunRequest, candidate *domain.User) {
	start := time.Now()

	res, err := s.exec.Execute(ctx, ExecuteRequest{
		Code:      req.Code,
		Language:  req.Language,
		TestCases: c.TestCases,
		TimeLimit: time.Duration(c.TimeLimit) * time.Minute,
	})
	if err != nil && ctx.Err() != nil {
		slog.InfoContext(ctx, "runner: run canceled", "job", j.ID())
		telemetry.ObserveRun("canceled", time.Since(start))
		j.fail(err)
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "runner: run failed", "job", j.ID(), "error", err)
		telemetry.ObserveRun("failed", time.Since(start))
		j.fail(fmt.Errorf("execute: %w", err))
		return
	}

	r := &Result{
		Passed:        res.Passed,
		Total:         res.Total,
		Status:        res.Status,
		Score:         Score(res.Passed, res.Total),
		ExecutionTime: res.ExecutionTime,
		Output:        fmt.Sprintf("Execution completed!\nTest cases passed: %d/%d", res.Passed, res.Total),
		Title:         "Partial Success",
	}
	if r.Status == domain.StatusAccepted {
		r.Title = "Success!"
	}

	var recorded *domain.Submission
	j.complete(r, func(r *Result) {
		if candidate == nil {
			return
		}

		sub := domain.Submission{
			ID:            j.ID(),
			CandidateID:   candidate.ID,
			ChallengeID:   c.ID,
			Code:          req.Code,
			Language:      req.Language,
			Status:        r.Status,
			Score:         r.Score,
			SubmittedAt:   s.now(),
			ExecutionTime: r.ExecutionTime,
		}
		s.store.AddSubmission(sub)
		r.Submission = &sub
		recorded = &sub
	})

	if _, err := j.Wait(context.Background()); err != nil {
		telemetry.ObserveRun("canceled", time.Since(start))
		return
	}
	telemetry.ObserveRun(string(r.Status), time.Since(start))

	if recorded == nil {
		return
	}

	slog.InfoContext(ctx, "runner: submission recorded",
		"submission", recorded.ID,
		"candidate", recorded.CandidateID,
		"status", recorded.Status,
		"score", recorded.Score,
	)

	s.eb.Publish(ctx, domain.EventSubmissionCreated{
		Submission: *recorded,
		Passed:     r.Passed,
		Total:      r.Total,
	})
}

// Score is the percentage of passed test cases. It is kept unrounded; reports round when rendering.
func Score(passed, total int) float64 {
	if total <= 0 {
		return 0
	}

	return decimal.NewFromInt(int64(passed)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		InexactFloat64()
}
