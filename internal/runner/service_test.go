package runner_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
	"github.com/victornm/codechallenge/internal/event"
	"github.com/victornm/codechallenge/internal/runner"
	"github.com/victornm/codechallenge/internal/store"
)

var submittedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestService_Run(t *testing.T) {
	type outputs struct {
		res   *runner.Result
		err   error
		store *store.Store
	}

	tests := map[string]struct {
		loggedIn bool
		executed runner.ExecuteResult
		assert   func(t *testing.T, out outputs)
	}{
		"all test cases passed is accepted and recorded": {
			loggedIn: true,
			executed: runner.ExecuteResult{Passed: 2, Total: 2, Status: domain.StatusAccepted, ExecutionTime: 12.5},
			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				assert.Equal(t, domain.StatusAccepted, out.res.Status)
				assert.Equal(t, 100.0, out.res.Score)
				assert.Equal(t, "Success!", out.res.Title)
				assert.Equal(t, "Execution completed!\nTest cases passed: 2/2", out.res.Output)

				require.NotNil(t, out.res.Submission)
				subs := out.store.Submissions()
				require.Len(t, subs, 1)
				assert.Equal(t, *out.res.Submission, subs[0])
				assert.Equal(t, domain.Submission{
					ID:            subs[0].ID,
					CandidateID:   "u1",
					ChallengeID:   "c1",
					Code:          "print(1)",
					Language:      "python",
					Status:        domain.StatusAccepted,
					Score:         100,
					SubmittedAt:   submittedAt,
					ExecutionTime: 12.5,
				}, subs[0])
			},
		},

		"partially passed is a wrong answer": {
			loggedIn: true,
			executed: runner.ExecuteResult{Passed: 1, Total: 3, Status: domain.StatusWrongAnswer},
			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				assert.Equal(t, domain.StatusWrongAnswer, out.res.Status)
				assert.InDelta(t, 100.0/3, out.res.Score, 1e-9)
				assert.Equal(t, "Partial Success", out.res.Title)
				assert.Len(t, out.store.Submissions(), 1)
			},
		},

		"nothing is recorded without a logged in user": {
			executed: runner.ExecuteResult{Passed: 2, Total: 2, Status: domain.StatusAccepted},
			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				assert.Nil(t, out.res.Submission)
				assert.Empty(t, out.store.Submissions())
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			st := makeStore(tt.loggedIn)
			exec := &fakeExecutor{result: tt.executed}
			s := makeService(st, exec, event.NewBus())

			j, err := s.Run(context.Background(), runner.RunRequest{ChallengeID: "c1", Code: "print(1)"})
			require.NoError(t, err)

			res, err := j.Wait(context.Background())
			tt.assert(t, outputs{res: res, err: err, store: st})
		})
	}
}

func TestService_RunRejected(t *testing.T) {
	st := makeStore(true)
	st.AddChallenge(domain.Challenge{ID: "empty", Language: "python"})
	s := makeService(st, &fakeExecutor{}, event.NewBus())

	tests := map[string]struct {
		req  runner.RunRequest
		code errors.Code
	}{
		"unknown challenge":  {req: runner.RunRequest{ChallengeID: "nonexistent", Code: "x"}, code: errors.CodeNotFound},
		"blank code":         {req: runner.RunRequest{ChallengeID: "c1", Code: " \n\t"}, code: errors.CodeInvalidArgument},
		"without test cases": {req: runner.RunRequest{ChallengeID: "empty", Code: "x"}, code: errors.CodeFailedPrecondition},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Run(context.Background(), tt.req)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}

	assert.Empty(t, st.Submissions())
}

func TestService_RunCancel(t *testing.T) {
	st := makeStore(true)
	exec := &fakeExecutor{result: runner.ExecuteResult{Passed: 2, Total: 2, Status: domain.StatusAccepted}, block: make(chan struct{})}
	s := makeService(st, exec, event.NewBus())

	canceledBefore := runsTotal(t, "canceled")
	failedBefore := runsTotal(t, "failed")

	j, err := s.Run(context.Background(), runner.RunRequest{ChallengeID: "c1", Code: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, j.Status())

	j.Cancel()

	select {
	case <-j.Done():
	case <-time.After(time.Second):
		t.Fatal("canceled job should finish")
	}

	_, err = j.Wait(context.Background())
	assert.True(t, errors.Is(err, errors.CodeCanceled), "got %v", err)
	assert.Empty(t, st.Submissions(), "canceled run must not record a submission")
	assert.Equal(t, canceledBefore+1, runsTotal(t, "canceled"))
	assert.Equal(t, failedBefore, runsTotal(t, "failed"))

	j.Cancel()
}

func TestService_RunKeepsCandidateOfRequest(t *testing.T) {
	st := makeStore(true)
	exec := &fakeExecutor{result: runner.ExecuteResult{Passed: 2, Total: 2, Status: domain.StatusAccepted}, block: make(chan struct{})}
	s := makeService(st, exec, event.NewBus())

	j, err := s.Run(context.Background(), runner.RunRequest{ChallengeID: "c1", Code: "x"})
	require.NoError(t, err)

	st.SetCurrentUser(&domain.User{ID: "u2", Name: "Bob", Email: "bob@example.com", Role: domain.RoleCandidate})
	close(exec.block)

	res, err := j.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Submission)
	assert.Equal(t, "u1", res.Submission.CandidateID)

	subs := st.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "u1", subs[0].CandidateID)
}

func TestService_RunWithoutUserAtRequest(t *testing.T) {
	st := makeStore(false)
	exec := &fakeExecutor{result: runner.ExecuteResult{Passed: 2, Total: 2, Status: domain.StatusAccepted}, block: make(chan struct{})}
	s := makeService(st, exec, event.NewBus())

	j, err := s.Run(context.Background(), runner.RunRequest{ChallengeID: "c1", Code: "x"})
	require.NoError(t, err)

	st.SetCurrentUser(&domain.User{ID: "u2", Name: "Bob", Email: "bob@example.com", Role: domain.RoleCandidate})
	close(exec.block)

	res, err := j.Wait(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Submission)
	assert.Empty(t, st.Submissions())
}

func TestService_RunIgnoresCallerContext(t *testing.T) {
	st := makeStore(true)
	s := makeService(st, &fakeExecutor{result: runner.ExecuteResult{Passed: 1, Total: 2, Status: domain.StatusWrongAnswer}}, event.NewBus())

	ctx, cancel := context.WithCancel(context.Background())
	j, err := s.Run(ctx, runner.RunRequest{ChallengeID: "c1", Code: "x", Language: "go"})
	require.NoError(t, err)
	cancel()

	res, err := j.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "go", res.Submission.Language)
}

func TestService_PublishSubmissionCreated(t *testing.T) {
	st := makeStore(true)
	eb := event.NewBus()

	var (
		mu  sync.Mutex
		got []domain.EventSubmissionCreated
	)
	eb.Subscribe(domain.EventNameSubmissionCreated, func(_ context.Context, e event.Event) error {
		mu.Lock()
		got = append(got, e.(domain.EventSubmissionCreated))
		mu.Unlock()
		return nil
	})

	s := makeService(st, &fakeExecutor{result: runner.ExecuteResult{Passed: 1, Total: 2, Status: domain.StatusWrongAnswer}}, eb)

	j, err := s.Run(context.Background(), runner.RunRequest{ChallengeID: "c1", Code: "x"})
	require.NoError(t, err)
	_, err = j.Wait(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)
	eb.Stop()

	assert.Equal(t, 1, got[0].Passed)
	assert.Equal(t, 2, got[0].Total)
	assert.Equal(t, 50.0, got[0].Submission.Score)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 100.0, runner.Score(3, 3))
	assert.InDelta(t, 200.0/3, runner.Score(2, 3), 1e-9)
	assert.Equal(t, 50.0, runner.Score(1, 2))
	assert.Equal(t, 0.0, runner.Score(0, 0))
}

func runsTotal(t *testing.T, outcome string) float64 {
	t.Helper()

	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != "codechallenge_runner_runs_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func makeStore(loggedIn bool) *store.Store {
	st := store.NewWithChallenges(domain.Challenge{
		ID:       "c1",
		Title:    "Sum",
		Language: "python",
		TestCases: []domain.TestCase{
			{ID: "1", Input: "1 2", ExpectedOutput: "3"},
			{ID: "2", Input: "2 2", ExpectedOutput: "4"},
		},
		TimeLimit: 30,
	})

	if loggedIn {
		st.SetCurrentUser(&domain.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: domain.RoleCandidate})
	}

	return st
}

func makeService(st *store.Store, exec runner.Executor, eb *event.Bus) *runner.Service {
	return runner.NewService(runner.Config{
		Store:    st,
		EventBus: eb,
		Executor: exec,
		Now:      func() time.Time { return submittedAt },
	})
}

type fakeExecutor struct {
	result runner.ExecuteResult
	// block, when set, holds the run until the context is done.
	block chan struct{}
}

func (f *fakeExecutor) Execute(ctx context.Context, _ runner.ExecuteRequest) (*runner.ExecuteResult, error) {
	if f.block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.block:
		}
	}

	res := f.result
	return &res, nil
}
