package report

import (
	"cmp"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
)

const (
	StatusCompleted  = "Completed"
	StatusInProgress = "In Progress"

	BadgeDefault     = "default"
	BadgeSecondary   = "secondary"
	BadgeDestructive = "destructive"

	MailSubject = "Your Coding Challenge Results"
	MailBody    = "Thank you for participating in our coding challenge. Your results are attached."
)

type Store interface {
	Challenges() []domain.Challenge
	Candidates() []domain.Candidate
	Submissions() []domain.Submission
	GetChallengeByID(id string) (domain.Challenge, bool)
}

type Config struct {
	Store Store
}

// Service computes reports from the current store content. Nothing is cached: every call reads the store again.
type Service struct {
	store Store
}

func NewService(c Config) *Service {
	return &Service{store: c.Store}
}

type Dashboard struct {
	Challenges   int     `json:"challenges"`
	Candidates   int     `json:"candidates"`
	Submissions  int     `json:"submissions"`
	AverageScore float64 `json:"average_score"`
}

func (s *Service) Dashboard(_ context.Context) Dashboard {
	subs := s.store.Submissions()

	return Dashboard{
		Challenges:   len(s.store.Challenges()),
		Candidates:   len(s.store.Candidates()),
		Submissions:  len(subs),
		AverageScore: AverageScore(subs),
	}
}

type CandidateResult struct {
	CandidateID    string    `json:"candidate_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	LoginTime      time.Time `json:"login_time"`
	ChallengeID    string    `json:"challenge_id"`
	ChallengeTitle string    `json:"challenge_title"`
	Submissions    int       `json:"submissions"`
	BestScore      float64   `json:"best_score"`
	Status         string    `json:"status"`
	Badge          string    `json:"badge"`
}

// CandidateResults returns one row per candidate in login order.
func (s *Service) CandidateResults(_ context.Context) []CandidateResult {
	subs := groupByCandidate(s.store.Submissions())
	cands := s.store.Candidates()

	rows := make([]CandidateResult, 0, len(cands))
	for _, c := range cands {
		own := subs[c.ID]
		best := BestScore(own)

		title := "N/A"
		if ch, ok := s.store.GetChallengeByID(c.ChallengeID); ok {
			title = ch.Title
		}

		status := StatusInProgress
		if len(own) > 0 {
			status = StatusCompleted
		}

		rows = append(rows, CandidateResult{
			CandidateID:    c.ID,
			Name:           c.Name,
			Email:          c.Email,
			LoginTime:      c.LoginTime,
			ChallengeID:    c.ChallengeID,
			ChallengeTitle: title,
			Submissions:    len(own),
			BestScore:      best,
			Status:         status,
			Badge:          Badge(best),
		})
	}

	return rows
}

type Bucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type LanguageShare struct {
	Language string  `json:"language"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
}

type Summary struct {
	TotalSubmissions int             `json:"total_submissions"`
	AverageScore     float64         `json:"average_score"`
	Distribution     []Bucket        `json:"distribution"`
	Languages        []LanguageShare `json:"languages"`
}

var buckets = []struct {
	label string
	upper float64
}{
	{"0-20", 20},
	{"21-40", 40},
	{"41-60", 60},
	{"61-80", 80},
	{"81-100", 100},
}

// Summary aggregates every submission: score distribution and language usage.
// Languages are ordered by count, then by name.
func (s *Service) Summary(_ context.Context) Summary {
	subs := s.store.Submissions()

	dist := make([]Bucket, len(buckets))
	for i, b := range buckets {
		dist[i].Range = b.label
	}
	for _, sub := range subs {
		dist[bucketOf(sub.Score)].Count++
	}

	counts := make(map[string]int)
	for _, sub := range subs {
		counts[sub.Language]++
	}

	langs := make([]LanguageShare, 0, len(counts))
	for lang, n := range counts {
		langs = append(langs, LanguageShare{
			Language: lang,
			Count:    n,
			Percent:  percent(n, len(subs)),
		})
	}
	slices.SortFunc(langs, func(a, b LanguageShare) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Language, b.Language))
	})

	return Summary{
		TotalSubmissions: len(subs),
		AverageScore:     AverageScore(subs),
		Distribution:     dist,
		Languages:        langs,
	}
}

var csvHeader = []string{"Name", "Email", "Challenge", "Login Time", "Submissions", "Best Score", "Status"}

// WriteCSV writes the candidate results as CSV.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range s.CandidateResults(ctx) {
		rec := []string{
			r.Name,
			r.Email,
			r.ChallengeTitle,
			r.LoginTime.Format(time.RFC3339),
			strconv.Itoa(r.Submissions),
			displayScore(r.BestScore),
			r.Status,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write candidate %s: %w", r.CandidateID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// MailtoLink returns a mailto: link addressed to the candidate with the results message prefilled.
func (s *Service) MailtoLink(_ context.Context, candidateID string) (string, error) {
	for _, c := range s.store.Candidates() {
		if c.ID != candidateID {
			continue
		}

		q := url.Values{}
		q.Set("subject", MailSubject)
		q.Set("body", MailBody)

		u := url.URL{
			Scheme:   "mailto",
			Opaque:   c.Email,
			RawQuery: q.Encode(),
		}
		return u.String(), nil
	}

	return "", errors.NotFound("candidate not found: id=%s", candidateID)
}

// BestScore is the highest score among subs, 0 when there are none.
func BestScore(subs []domain.Submission) float64 {
	best := 0.0
	for _, s := range subs {
		best = max(best, s.Score)
	}
	return best
}

// AverageScore is the mean score of subs, 0 when there are none.
func AverageScore(subs []domain.Submission) float64 {
	if len(subs) == 0 {
		return 0
	}

	sum := decimal.Zero
	for _, s := range subs {
		sum = sum.Add(decimal.NewFromFloat(s.Score))
	}

	return sum.Div(decimal.NewFromInt(int64(len(subs)))).InexactFloat64()
}

// displayScore renders a score with at most two decimals.
func displayScore(score float64) string {
	return decimal.NewFromFloat(score).Round(2).String()
}

func Badge(score float64) string {
	switch {
	case score >= 80:
		return BadgeDefault
	case score >= 60:
		return BadgeSecondary
	default:
		return BadgeDestructive
	}
}

func bucketOf(score float64) int {
	for i, b := range buckets {
		if score <= b.upper {
			return i
		}
	}
	return len(buckets) - 1
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(n)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()
}

func groupByCandidate(subs []domain.Submission) map[string][]domain.Submission {
	m := make(map[string][]domain.Submission)
	for _, s := range subs {
		m[s.CandidateID] = append(m[s.CandidateID], s)
	}
	return m
}
