package store

import (
	"slices"
	"sync"
	"time"

	"github.com/victornm/codechallenge/internal/domain"
)

// Store is the in-memory state of one assessment session.
//
// Challenges, candidates and submissions are append-only and keep insertion order.
// Every read returns a copy, so callers can never mutate what the store holds.
type Store struct {
	mu          sync.RWMutex
	challenges  []domain.Challenge
	candidates  []domain.Candidate
	submissions []domain.Submission
	currentUser *domain.User
}

// New creates a store seeded with the sample challenge.
func New() *Store {
	return NewWithChallenges(SampleChallenge(time.Now()))
}

// NewWithChallenges creates a store seeded with the given challenges instead of the sample one.
func NewWithChallenges(seed ...domain.Challenge) *Store {
	s := &Store{
		challenges:  make([]domain.Challenge, 0, len(seed)),
		candidates:  make([]domain.Candidate, 0),
		submissions: make([]domain.Submission, 0),
	}
	for _, c := range seed {
		s.challenges = append(s.challenges, cloneChallenge(c))
	}
	return s
}

// SampleChallenge is the built-in "Two Sum" challenge every session starts with.
func SampleChallenge(createdAt time.Time) domain.Challenge {
	return domain.Challenge{
		ID:          "1",
		Title:       "Two Sum",
		Description: "Given an array of integers nums and an integer target, return indices of the two numbers such that they add up to target.",
		Difficulty:  domain.DifficultyEasy,
		Language:    "python",
		TestCases: []domain.TestCase{
			{
				ID:             "1",
				Input:          "[2,7,11,15]\n9",
				ExpectedOutput: "[0,1]",
				Hidden:         false,
			},
		},
		TimeLimit: 30,
		CreatedAt: createdAt,
		CreatedBy: "admin",
	}
}

func (s *Store) AddChallenge(c domain.Challenge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges = append(s.challenges, cloneChallenge(c))
}

func (s *Store) AddCandidate(c domain.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candidates = append(s.candidates, c)
}

func (s *Store) AddSubmission(sub domain.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submissions = append(s.submissions, sub)
}

// SetCurrentUser replaces the session holder. A nil user logs out, which is a no-op when nobody is logged in.
func (s *Store) SetCurrentUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u == nil {
		s.currentUser = nil
		return
	}

	cp := *u
	s.currentUser = &cp
}

func (s *Store) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentUser == nil {
		return domain.User{}, false
	}
	return *s.currentUser, true
}

// GetChallengeByID returns the first challenge added with the given ID.
func (s *Store) GetChallengeByID(id string) (domain.Challenge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.challenges {
		if c.ID == id {
			return cloneChallenge(c), true
		}
	}
	return domain.Challenge{}, false
}

// GetCandidatesByChallenge returns the candidates attempting the challenge, in login order.
// The result is empty, never nil, when nobody matches.
func (s *Store) GetCandidatesByChallenge(challengeID string) []domain.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Candidate, 0)
	for _, c := range s.candidates {
		if c.ChallengeID == challengeID {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) Challenges() []domain.Challenge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Challenge, 0, len(s.challenges))
	for _, c := range s.challenges {
		out = append(out, cloneChallenge(c))
	}
	return out
}

func (s *Store) Candidates() []domain.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.candidates)
}

func (s *Store) Submissions() []domain.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.submissions)
}

// SubmissionsByCandidate returns the candidate's submissions in submission order.
func (s *Store) SubmissionsByCandidate(candidateID string) []domain.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Submission, 0)
	for _, sub := range s.submissions {
		if sub.CandidateID == candidateID {
			out = append(out, sub)
		}
	}
	return out
}

func cloneChallenge(c domain.Challenge) domain.Challenge {
	c.TestCases = slices.Clone(c.TestCases)
	return c
}
