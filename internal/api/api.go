package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/victornm/codechallenge/internal/challenge"
	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
	"github.com/victornm/codechallenge/internal/event"
	"github.com/victornm/codechallenge/internal/report"
	"github.com/victornm/codechallenge/internal/session"
	"github.com/victornm/codechallenge/internal/workspace"
)

type Config struct {
	Router    gin.IRouter
	EventBus  *event.Bus
	Store     Store
	Session   *session.Service
	Challenge *challenge.Service
	Workspace *workspace.Manager
	Report    *report.Service

	// Languages a workspace may switch to. Empty allows any language.
	Languages []string
	// RunLimit and RunBurst bound run requests per client. A zero RunLimit disables the limit.
	RunLimit rate.Limit
	RunBurst int
}

type Store interface {
	GetCandidatesByChallenge(challengeID string) []domain.Candidate
	Submissions() []domain.Submission
	SubmissionsByCandidate(candidateID string) []domain.Submission
}

type API struct {
	store Store
	ss    *session.Service
	cs    *challenge.Service
	wm    *workspace.Manager
	rs    *report.Service

	languages map[string]bool

	mu     sync.Mutex
	drafts map[string]*challenge.Draft
}

func New(c Config) *API {
	a := &API{
		store:  c.Store,
		ss:     c.Session,
		cs:     c.Challenge,
		wm:     c.Workspace,
		rs:     c.Report,
		drafts: make(map[string]*challenge.Draft),
	}

	if len(c.Languages) > 0 {
		a.languages = make(map[string]bool, len(c.Languages))
		for _, l := range c.Languages {
			a.languages[l] = true
		}
	}

	limit := c.RunLimit
	if limit == 0 {
		limit = rate.Inf
	}
	runLimiter := newClientLimiter(limit, max(c.RunBurst, 1))

	r := c.Router
	r.POST("/login", a.Login)
	r.POST("/logout", a.Logout)
	r.GET("/me", a.Me)

	r.GET("/challenges", a.ListChallenges)
	r.POST("/challenges", a.CreateChallenge)
	r.GET("/challenges/:id", a.GetChallenge)
	r.GET("/challenges/:id/candidates", a.ListCandidates)
	r.GET("/challenges/:id/share", a.ShareChallenge)

	r.GET("/draft", a.GetDraft)
	r.PATCH("/draft", a.UpdateDraft)
	r.DELETE("/draft", a.ResetDraft)
	r.POST("/draft/test-cases", a.AddDraftTestCase)
	r.PATCH("/draft/test-cases/:tc", a.UpdateDraftTestCase)
	r.DELETE("/draft/test-cases/:tc", a.RemoveDraftTestCase)
	r.POST("/draft/submit", a.SubmitDraft)

	r.POST("/challenges/:id/workspace", a.OpenWorkspace)
	r.GET("/challenges/:id/workspace", a.GetWorkspace)
	r.DELETE("/challenges/:id/workspace", a.CloseWorkspace)
	r.PUT("/challenges/:id/workspace/code", a.UpdateWorkspaceCode)
	r.PUT("/challenges/:id/workspace/language", a.UpdateWorkspaceLanguage)
	r.POST("/challenges/:id/workspace/run", rateLimit(runLimiter), a.RunWorkspace)

	r.GET("/submissions", a.ListSubmissions)

	r.GET("/dashboard", a.Dashboard)
	r.GET("/reports/candidates", a.CandidateResults)
	r.GET("/reports/summary", a.Summary)
	r.GET("/reports/export", a.ExportReport)
	r.GET("/reports/candidates/:id/mail", a.MailCandidate)

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNameUserLoggedOut, func(_ context.Context, e event.Event) error {
		a.dropDraft(e.(domain.EventUserLoggedOut).User.ID)
		return nil
	})

	return a
}

// currentUser aborts the request with 401 when nobody is logged in.
func (a *API) currentUser(c *gin.Context) (*domain.User, bool) {
	u, err := a.ss.CurrentUser(c.Request.Context())
	if err != nil {
		abort(c, err)
		return nil, false
	}
	return u, true
}

// abort writes err as {"code","message"} with the matching HTTP status.
func abort(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed", "path", c.FullPath(), "error", err)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abort(c, errors.InvalidArgument("invalid request: %v", err))
		return false
	}
	return true
}
