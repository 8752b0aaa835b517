package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/event"
	"github.com/victornm/codechallenge/internal/telemetry"
)

const maxConcurrent = 100

type Notification struct {
	Event       string `json:"event"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Data        any    `json:"data"`
}

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
}

// Service relays store activity to Redis channels: one channel per user, plus an admin feed.
type Service struct {
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	c.EventBus.Subscribe(domain.EventNameUserLoggedIn, func(ctx context.Context, e event.Event) error {
		return s.UserLoggedIn(ctx, e.(domain.EventUserLoggedIn))
	})
	c.EventBus.Subscribe(domain.EventNameChallengeCreated, func(ctx context.Context, e event.Event) error {
		return s.ChallengeCreated(ctx, e.(domain.EventChallengeCreated))
	})
	c.EventBus.Subscribe(domain.EventNameSubmissionCreated, func(ctx context.Context, e event.Event) error {
		return s.SubmissionCreated(ctx, e.(domain.EventSubmissionCreated))
	})

	return s
}

func (s *Service) UserLoggedIn(ctx context.Context, e domain.EventUserLoggedIn) error {
	u := e.User

	return s.publish(ctx, e.Name(), Notification{
		Event:       e.Name(),
		Title:       "Success",
		Description: fmt.Sprintf("Welcome %s! You are logged in as %s.", u.Name, u.Role),
		Data:        u,
	}, s.UserChannel(u.ID))
}

func (s *Service) ChallengeCreated(ctx context.Context, e domain.EventChallengeCreated) error {
	c := e.Challenge

	return s.publish(ctx, e.Name(), Notification{
		Event:       e.Name(),
		Title:       "Success",
		Description: "Challenge created successfully!",
		Data: struct {
			ID         string            `json:"id"`
			Title      string            `json:"title"`
			Difficulty domain.Difficulty `json:"difficulty"`
		}{c.ID, c.Title, c.Difficulty},
	}, s.UserChannel(c.CreatedBy), s.AdminChannel())
}

// SubmissionCreated notifies the candidate of the run result and adds it to the admin feed.
func (s *Service) SubmissionCreated(ctx context.Context, e domain.EventSubmissionCreated) error {
	sub := e.Submission

	title := "Partial Success"
	if sub.Status == domain.StatusAccepted {
		title = "Success!"
	}

	return s.publish(ctx, e.Name(), Notification{
		Event:       e.Name(),
		Title:       title,
		Description: fmt.Sprintf("%d/%d test cases passed", e.Passed, e.Total),
		Data: struct {
			ID          string                  `json:"id"`
			CandidateID string                  `json:"candidate_id"`
			ChallengeID string                  `json:"challenge_id"`
			Status      domain.SubmissionStatus `json:"status"`
			Score       float64                 `json:"score"`
		}{sub.ID, sub.CandidateID, sub.ChallengeID, sub.Status, sub.Score},
	}, s.UserChannel(sub.CandidateID), s.AdminChannel())
}

func (s *Service) UserChannel(userID string) string {
	return fmt.Sprintf("%s:user:%s", s.prefix, userID)
}

func (s *Service) AdminChannel() string {
	return fmt.Sprintf("%s:admin", s.prefix)
}

func (s *Service) publish(ctx context.Context, name string, n Notification, channels ...string) error {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal %s: %w", name, err)
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, ch := range channels {
		eg.Go(func() error {
			if err := s.redis.Publish(ctx, ch, b).Err(); err != nil {
				return fmt.Errorf("notify: publish %s to %s: %w", name, ch, err)
			}
			return nil
		})
	}

	err = eg.Wait()
	telemetry.ObserveNotification(name, err)
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "notify: published", "event", name, "channels", channels)
	return nil
}
