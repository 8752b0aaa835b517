package domain

import (
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCandidate Role = "candidate"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCandidate
}

type SubmissionStatus string

const (
	StatusPending           SubmissionStatus = "Pending"
	StatusAccepted          SubmissionStatus = "Accepted"
	StatusWrongAnswer       SubmissionStatus = "Wrong Answer"
	StatusTimeLimitExceeded SubmissionStatus = "Time Limit Exceeded"
	StatusRuntimeError      SubmissionStatus = "Runtime Error"
)

// Challenge represents an authored coding problem. It is never modified once added to the store.
type Challenge struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	Language    string     `json:"language"`
	TestCases   []TestCase `json:"test_cases"`
	// TimeLimit is in minutes.
	TimeLimit int       `json:"time_limit"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// VisibleTestCases returns the test cases a candidate is allowed to see.
func (c Challenge) VisibleTestCases() []TestCase {
	out := make([]TestCase, 0, len(c.TestCases))
	for _, tc := range c.TestCases {
		if !tc.Hidden {
			out = append(out, tc)
		}
	}
	return out
}

type TestCase struct {
	ID             string `json:"id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Hidden         bool   `json:"hidden"`
}

// Candidate is a logged-in user attempting a challenge. ID is the user's ID.
type Candidate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	LoginTime   time.Time `json:"login_time"`
	ChallengeID string    `json:"challenge_id"`
}

// Submission is one recorded run of a candidate's code.
type Submission struct {
	ID          string           `json:"id"`
	CandidateID string           `json:"candidate_id"`
	ChallengeID string           `json:"challenge_id"`
	Code        string           `json:"code"`
	Language    string           `json:"language"`
	Status      SubmissionStatus `json:"status"`
	// Score is within [0, 100].
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
	// ExecutionTime is in milliseconds.
	ExecutionTime float64 `json:"execution_time"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
