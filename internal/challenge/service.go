package challenge

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
	"github.com/victornm/codechallenge/internal/event"
)

const (
	DefaultLanguage  = "python"
	DefaultTimeLimit = 30
	MinTimeLimit     = 5
	MaxTimeLimit     = 180

	unknownCreator = "unknown"
)

type Store interface {
	AddChallenge(c domain.Challenge)
	GetChallengeByID(id string) (domain.Challenge, bool)
	Challenges() []domain.Challenge
	CurrentUser() (domain.User, bool)
}

type Config struct {
	Store    Store
	EventBus *event.Bus
	// BaseURL is the public address candidates open challenge links on.
	BaseURL string
	Now     func() time.Time
}

type Service struct {
	store   Store
	eb      *event.Bus
	baseURL string
	now     func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store:   c.Store,
		eb:      c.EventBus,
		baseURL: strings.TrimSuffix(c.BaseURL, "/"),
		now:     c.Now,
	}

	if s.now == nil {
		s.now = time.Now
	}

	return s
}

type CreateRequest struct {
	Title       string
	Description string
	Difficulty  domain.Difficulty
	Language    string
	// TimeLimit is in minutes, zero means DefaultTimeLimit.
	TimeLimit int
	TestCases []domain.TestCase
}

// Create validates the request and adds the challenge to the store.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Challenge, error) {
	req = withDefaults(req)
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate challenge ID: %w", err)
	}

	createdBy := unknownCreator
	if u, ok := s.store.CurrentUser(); ok {
		createdBy = u.ID
	}

	c := domain.Challenge{
		ID:          id.String(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Language:    req.Language,
		TestCases:   make([]domain.TestCase, 0, len(req.TestCases)),
		TimeLimit:   req.TimeLimit,
		CreatedAt:   s.now(),
		CreatedBy:   createdBy,
	}

	for _, tc := range req.TestCases {
		if tc.ID == "" {
			tcID, err := uuid.NewV7()
			if err != nil {
				return nil, fmt.Errorf("generate test case ID: %w", err)
			}
			tc.ID = tcID.String()
		}
		c.TestCases = append(c.TestCases, tc)
	}

	s.store.AddChallenge(c)

	slog.InfoContext(ctx, "challenge: created", "challenge", c.ID, "test_cases", len(c.TestCases), "created_by", c.CreatedBy)

	s.eb.Publish(ctx, domain.EventChallengeCreated{Challenge: c})

	return &c, nil
}

// CreateFromDraft creates a challenge from an authoring draft. The draft is reset, or left as it was if
// the challenge is rejected.
func (s *Service) CreateFromDraft(ctx context.Context, d *Draft) (*domain.Challenge, error) {
	req := d.take()

	c, err := s.Create(ctx, req)
	if err != nil {
		d.restore(req)
		return nil, err
	}

	return c, nil
}

type GetRequest struct {
	ID string
	// CandidateView strips hidden test cases.
	CandidateView bool
}

func (s *Service) Get(_ context.Context, req GetRequest) (*domain.Challenge, error) {
	c, ok := s.store.GetChallengeByID(req.ID)
	if !ok {
		return nil, errors.NotFound("challenge not found: id=%s", req.ID)
	}

	if req.CandidateView {
		c.TestCases = c.VisibleTestCases()
	}

	return &c, nil
}

func (s *Service) List(_ context.Context) []domain.Challenge {
	return s.store.Challenges()
}

// ShareLink returns the link candidates use to open the challenge.
func (s *Service) ShareLink(_ context.Context, id string) (string, error) {
	if _, ok := s.store.GetChallengeByID(id); !ok {
		return "", errors.NotFound("challenge not found: id=%s", id)
	}

	return s.baseURL + "/challenge/" + url.PathEscape(id), nil
}

func withDefaults(req CreateRequest) CreateRequest {
	if req.Difficulty == "" {
		req.Difficulty = domain.DifficultyEasy
	}
	if strings.TrimSpace(req.Language) == "" {
		req.Language = DefaultLanguage
	}
	if req.TimeLimit == 0 {
		req.TimeLimit = DefaultTimeLimit
	}
	return req
}

func validate(req CreateRequest) error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return errors.InvalidArgument("please fill in all required fields and test cases")
	}

	if !req.Difficulty.Valid() {
		return errors.InvalidArgument("unknown difficulty: %s", req.Difficulty)
	}

	if req.TimeLimit < MinTimeLimit || req.TimeLimit > MaxTimeLimit {
		return errors.InvalidArgument("time limit must be between %d and %d minutes: got %d", MinTimeLimit, MaxTimeLimit, req.TimeLimit)
	}

	if len(req.TestCases) == 0 {
		return errors.InvalidArgument("at least one test case is required")
	}

	seen := make(map[string]struct{}, len(req.TestCases))
	for i, tc := range req.TestCases {
		if tc.Input == "" || tc.ExpectedOutput == "" {
			return errors.InvalidArgument("test case %d: input and expected output are required", i+1)
		}

		if tc.ID == "" {
			continue
		}
		if _, ok := seen[tc.ID]; ok {
			return errors.InvalidArgument("duplicate test case id: %s", tc.ID)
		}
		seen[tc.ID] = struct{}{}
	}

	return nil
}
