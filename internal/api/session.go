package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/session"
)

type LoginRequest struct {
	Name        string      `json:"name" binding:"required"`
	Email       string      `json:"email" binding:"required,email"`
	Role        domain.Role `json:"role"`
	ChallengeID string      `json:"challenge_id"`
}

type LoginResponse struct {
	User      domain.User       `json:"user"`
	Candidate *domain.Candidate `json:"candidate,omitempty"`
	Message   string            `json:"message"`
}

func (a *API) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	resp, err := a.ss.Login(c.Request.Context(), session.LoginRequest{
		Name:        req.Name,
		Email:       req.Email,
		Role:        req.Role,
		ChallengeID: req.ChallengeID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		User:      resp.User,
		Candidate: resp.Candidate,
		Message:   resp.Message,
	})
}

func (a *API) Logout(c *gin.Context) {
	a.ss.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (a *API) Me(c *gin.Context) {
	u, ok := a.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, u)
}
