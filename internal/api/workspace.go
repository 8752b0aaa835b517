package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
	"github.com/victornm/codechallenge/internal/runner"
	"github.com/victornm/codechallenge/internal/workspace"
)

type Workspace struct {
	ChallengeID    string     `json:"challenge_id"`
	Language       string     `json:"language"`
	EditorLanguage string     `json:"editor_language"`
	Code           string     `json:"code"`
	Remaining      int        `json:"remaining"`
	RemainingText  string     `json:"remaining_text"`
	Expired        bool       `json:"expired"`
	Running        bool       `json:"running"`
	LastRun        *RunResult `json:"last_run,omitempty"`
}

type RunResult struct {
	Title         string                  `json:"title"`
	Output        string                  `json:"output"`
	Status        domain.SubmissionStatus `json:"status"`
	Passed        int                     `json:"passed"`
	Total         int                     `json:"total"`
	Score         float64                 `json:"score"`
	ExecutionTime float64                 `json:"execution_time"`
	Submission    *domain.Submission      `json:"submission,omitempty"`
}

type UpdateCodeRequest struct {
	Code string `json:"code"`
}

type UpdateLanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// workspace returns the logged in user's open workspace for the challenge in the path.
func (a *API) workspace(c *gin.Context) (*workspace.Workspace, bool) {
	u, ok := a.currentUser(c)
	if !ok {
		return nil, false
	}

	w, err := a.wm.Get(c.Request.Context(), u.ID, c.Param("id"))
	if err != nil {
		abort(c, err)
		return nil, false
	}
	return w, true
}

func (a *API) OpenWorkspace(c *gin.Context) {
	u, ok := a.currentUser(c)
	if !ok {
		return
	}

	w, err := a.wm.Open(c.Request.Context(), u.ID, c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspace(w.State()))
}

func (a *API) GetWorkspace(c *gin.Context) {
	w, ok := a.workspace(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, toWorkspace(w.State()))
}

func (a *API) CloseWorkspace(c *gin.Context) {
	u, ok := a.currentUser(c)
	if !ok {
		return
	}

	a.wm.Close(c.Request.Context(), u.ID, c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (a *API) UpdateWorkspaceCode(c *gin.Context) {
	var req UpdateCodeRequest
	if !bind(c, &req) {
		return
	}

	w, ok := a.workspace(c)
	if !ok {
		return
	}

	if err := w.SetCode(req.Code); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspace(w.State()))
}

// UpdateWorkspaceLanguage switches the language and loads its starter template.
func (a *API) UpdateWorkspaceLanguage(c *gin.Context) {
	var req UpdateLanguageRequest
	if !bind(c, &req) {
		return
	}

	if a.languages != nil && !a.languages[req.Language] {
		abort(c, errors.InvalidArgument("unsupported language: %s", req.Language))
		return
	}

	w, ok := a.workspace(c)
	if !ok {
		return
	}

	if err := w.SetLanguage(req.Language); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspace(w.State()))
}

// RunWorkspace blocks until the run finishes. A client that disconnects cancels the run.
func (a *API) RunWorkspace(c *gin.Context) {
	w, ok := a.workspace(c)
	if !ok {
		return
	}

	res, err := w.Run(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toRunResult(res))
}

func toWorkspace(s workspace.State) Workspace {
	return Workspace{
		ChallengeID:    s.ChallengeID,
		Language:       s.Language,
		EditorLanguage: s.EditorLanguage,
		Code:           s.Code,
		Remaining:      s.Remaining,
		RemainingText:  s.RemainingText,
		Expired:        s.Expired,
		Running:        s.Running,
		LastRun:        toRunResult(s.Last),
	}
}

func toRunResult(r *runner.Result) *RunResult {
	if r == nil {
		return nil
	}

	return &RunResult{
		Title:         r.Title,
		Output:        r.Output,
		Status:        r.Status,
		Passed:        r.Passed,
		Total:         r.Total,
		Score:         r.Score,
		ExecutionTime: r.ExecutionTime,
		Submission:    r.Submission,
	}
}
