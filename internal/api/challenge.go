package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/codechallenge/internal/challenge"
	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
)

type TestCase struct {
	ID             string `json:"id"`
	Input          string `json:"input" binding:"required"`
	ExpectedOutput string `json:"expected_output" binding:"required"`
	Hidden         bool   `json:"hidden"`
}

type CreateChallengeRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description" binding:"required"`
	Difficulty  domain.Difficulty `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
	Language    string            `json:"language"`
	TimeLimit   int               `json:"time_limit" binding:"omitempty,min=5,max=180"`
	TestCases   []TestCase        `json:"test_cases" binding:"required,min=1,dive"`
}

func (a *API) ListChallenges(c *gin.Context) {
	c.JSON(http.StatusOK, a.cs.List(c.Request.Context()))
}

func (a *API) CreateChallenge(c *gin.Context) {
	var req CreateChallengeRequest
	if !bind(c, &req) {
		return
	}

	tcs := make([]domain.TestCase, 0, len(req.TestCases))
	for _, tc := range req.TestCases {
		tcs = append(tcs, domain.TestCase(tc))
	}

	ch, err := a.cs.Create(c.Request.Context(), challenge.CreateRequest{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Language:    req.Language,
		TimeLimit:   req.TimeLimit,
		TestCases:   tcs,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, ch)
}

// GetChallenge hides hidden test cases from everyone but admins.
func (a *API) GetChallenge(c *gin.Context) {
	admin := false
	if u, err := a.ss.CurrentUser(c.Request.Context()); err == nil {
		admin = u.Role == domain.RoleAdmin
	}

	ch, err := a.cs.Get(c.Request.Context(), challenge.GetRequest{
		ID:            c.Param("id"),
		CandidateView: !admin,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ch)
}

func (a *API) ListCandidates(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.GetCandidatesByChallenge(c.Param("id")))
}

func (a *API) ShareChallenge(c *gin.Context) {
	link, err := a.cs.ShareLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"link": link})
}

type ListSubmissionsRequest struct {
	CandidateID string `form:"candidate_id"`
}

func (a *API) ListSubmissions(c *gin.Context) {
	var req ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abort(c, errors.InvalidArgument("invalid query: %v", err))
		return
	}

	if req.CandidateID != "" {
		c.JSON(http.StatusOK, a.store.SubmissionsByCandidate(req.CandidateID))
		return
	}

	c.JSON(http.StatusOK, a.store.Submissions())
}
