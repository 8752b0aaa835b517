package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/codechallenge/internal/challenge"
	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
)

type Draft struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Difficulty  domain.Difficulty `json:"difficulty"`
	Language    string            `json:"language"`
	TimeLimit   int               `json:"time_limit"`
	TestCases   []domain.TestCase `json:"test_cases"`
}

type UpdateDraftRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Difficulty  *domain.Difficulty `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
	Language    *string            `json:"language"`
	TimeLimit   *int               `json:"time_limit" binding:"omitempty,min=5,max=180"`
}

type UpdateDraftTestCaseRequest struct {
	Input          *string `json:"input"`
	ExpectedOutput *string `json:"expected_output"`
	Hidden         *bool   `json:"hidden"`
}

// draft returns the logged in user's authoring form, creating it on first use.
func (a *API) draft(c *gin.Context) (*challenge.Draft, bool) {
	u, ok := a.currentUser(c)
	if !ok {
		return nil, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	d, ok := a.drafts[u.ID]
	if !ok {
		d = challenge.NewDraft()
		a.drafts[u.ID] = d
	}
	return d, true
}

func (a *API) dropDraft(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.drafts, userID)
}

func (a *API) GetDraft(c *gin.Context) {
	d, ok := a.draft(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, toDraft(d))
}

func (a *API) UpdateDraft(c *gin.Context) {
	var req UpdateDraftRequest
	if !bind(c, &req) {
		return
	}

	d, ok := a.draft(c)
	if !ok {
		return
	}

	d.Update(challenge.DraftFields{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Language:    req.Language,
		TimeLimit:   req.TimeLimit,
	})

	c.JSON(http.StatusOK, toDraft(d))
}

func (a *API) ResetDraft(c *gin.Context) {
	d, ok := a.draft(c)
	if !ok {
		return
	}

	d.Reset()
	c.JSON(http.StatusOK, toDraft(d))
}

func (a *API) AddDraftTestCase(c *gin.Context) {
	d, ok := a.draft(c)
	if !ok {
		return
	}

	tc, err := d.AddTestCase()
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, tc)
}

func (a *API) UpdateDraftTestCase(c *gin.Context) {
	var req UpdateDraftTestCaseRequest
	if !bind(c, &req) {
		return
	}

	d, ok := a.draft(c)
	if !ok {
		return
	}

	if !d.UpdateTestCase(c.Param("tc"), challenge.TestCaseFields{
		Input:          req.Input,
		ExpectedOutput: req.ExpectedOutput,
		Hidden:         req.Hidden,
	}) {
		abort(c, errors.NotFound("test case not found: id=%s", c.Param("tc")))
		return
	}

	c.JSON(http.StatusOK, toDraft(d))
}

// RemoveDraftTestCase refuses to remove the last row of the form.
func (a *API) RemoveDraftTestCase(c *gin.Context) {
	d, ok := a.draft(c)
	if !ok {
		return
	}

	if !d.RemoveTestCase(c.Param("tc")) {
		abort(c, errors.FailedPrecondition("cannot remove test case: id=%s", c.Param("tc")))
		return
	}

	c.JSON(http.StatusOK, toDraft(d))
}

func (a *API) SubmitDraft(c *gin.Context) {
	d, ok := a.draft(c)
	if !ok {
		return
	}

	ch, err := a.cs.CreateFromDraft(c.Request.Context(), d)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, ch)
}

func toDraft(d *challenge.Draft) Draft {
	r := d.Request()
	return Draft{
		Title:       r.Title,
		Description: r.Description,
		Difficulty:  r.Difficulty,
		Language:    r.Language,
		TimeLimit:   r.TimeLimit,
		TestCases:   r.TestCases,
	}
}
