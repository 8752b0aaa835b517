package runner

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/victornm/codechallenge/internal/domain"
)

const DefaultDelay = 2 * time.Second

// maxExecutionTime bounds the simulated execution time, in milliseconds.
const maxExecutionTime = 1000

// Executor runs code against a challenge's test cases.
type Executor interface {
	Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error)
}

type ExecuteRequest struct {
	Code      string
	Language  string
	TestCases []domain.TestCase
	TimeLimit time.Duration
}

type ExecuteResult struct {
	Passed int
	Total  int
	Status domain.SubmissionStatus
	// ExecutionTime is in milliseconds.
	ExecutionTime float64
}

// RandFunc returns a uniform random number in [0, n).
type RandFunc func(n int64) (int64, error)

// SimulatedExecutor pretends to run code: it waits for a fixed delay and reports a random number of passed test cases.
type SimulatedExecutor struct {
	Delay time.Duration
	Rand  RandFunc
}

func NewSimulatedExecutor(delay time.Duration) *SimulatedExecutor {
	return &SimulatedExecutor{
		Delay: delay,
		Rand:  cryptoRand,
	}
}

func (e *SimulatedExecutor) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	total := len(req.TestCases)
	if total == 0 {
		return nil, fmt.Errorf("execute: no test cases")
	}

	t := time.NewTimer(e.Delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
	}

	rnd := e.Rand
	if rnd == nil {
		rnd = cryptoRand
	}

	// At least one test case always passes.
	n, err := rnd(int64(total))
	if err != nil {
		return nil, fmt.Errorf("execute: random passed count: %w", err)
	}
	passed := int(n) + 1

	micros, err := rnd(maxExecutionTime * 1000)
	if err != nil {
		return nil, fmt.Errorf("execute: random execution time: %w", err)
	}

	status := domain.StatusWrongAnswer
	if passed == total {
		status = domain.StatusAccepted
	}

	return &ExecuteResult{
		Passed:        passed,
		Total:         total,
		Status:        status,
		ExecutionTime: decimal.New(micros, -3).InexactFloat64(),
	}, nil
}

func cryptoRand(n int64) (int64, error) {
	r, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return r.Int64(), nil
}
