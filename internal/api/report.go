package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (a *API) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, a.rs.Dashboard(c.Request.Context()))
}

func (a *API) CandidateResults(c *gin.Context) {
	c.JSON(http.StatusOK, a.rs.CandidateResults(c.Request.Context()))
}

func (a *API) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, a.rs.Summary(c.Request.Context()))
}

func (a *API) ExportReport(c *gin.Context) {
	name := fmt.Sprintf("candidate-report-%s.csv", time.Now().Format("2006-01-02"))

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)

	if err := a.rs.WriteCSV(c.Request.Context(), c.Writer); err != nil {
		slog.ErrorContext(c.Request.Context(), "api: export report failed", "error", err)
	}
}

func (a *API) MailCandidate(c *gin.Context) {
	link, err := a.rs.MailtoLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"link": link})
}
