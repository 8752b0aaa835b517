package workspace

import (
	"context"
	"log/slog"
	"sync"

	"github.com/victornm/codechallenge/internal/countdown"
	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
	"github.com/victornm/codechallenge/internal/event"
)

type Store interface {
	GetChallengeByID(id string) (domain.Challenge, bool)
}

type ManagerConfig struct {
	Store     Store
	Runner    Runner
	EventBus  *event.Bus
	Countdown countdown.Config
}

// Manager keeps the open workspaces, one per user and challenge.
type Manager struct {
	store     Store
	runner    Runner
	countdown countdown.Config

	mu     sync.Mutex
	open   map[key]*Workspace
	closed bool
}

type key struct {
	userID      string
	challengeID string
}

func NewManager(c ManagerConfig) *Manager {
	m := &Manager{
		store:     c.Store,
		runner:    c.Runner,
		countdown: c.Countdown,
		open:      make(map[key]*Workspace),
	}

	// Leaving the session tears down every view the user had open.
	c.EventBus.Subscribe(domain.EventNameUserLoggedOut, func(ctx context.Context, e event.Event) error {
		m.CloseUser(ctx, e.(domain.EventUserLoggedOut).User.ID)
		return nil
	})

	return m
}

// Open returns the user's workspace for the challenge, opening it on first use.
func (m *Manager) Open(ctx context.Context, userID, challengeID string) (*Workspace, error) {
	c, ok := m.store.GetChallengeByID(challengeID)
	if !ok {
		return nil, errors.NotFound("challenge not found: id=%s", challengeID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.FailedPrecondition("workspaces are shutting down")
	}

	k := key{userID: userID, challengeID: challengeID}
	if w, ok := m.open[k]; ok {
		return w, nil
	}

	w := Open(Config{
		Challenge: c,
		Runner:    m.runner,
		Countdown: m.countdown,
	})
	m.open[k] = w

	slog.InfoContext(ctx, "workspace: opened", "user", userID, "challenge", challengeID, "remaining", w.State().Remaining)

	return w, nil
}

// Get returns an already open workspace.
func (m *Manager) Get(_ context.Context, userID, challengeID string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.open[key{userID: userID, challengeID: challengeID}]
	if !ok {
		return nil, errors.NotFound("workspace not open: challenge=%s", challengeID)
	}
	return w, nil
}

// Close tears down the user's workspace for the challenge. Closing a workspace that is not open is a no-op.
func (m *Manager) Close(ctx context.Context, userID, challengeID string) {
	k := key{userID: userID, challengeID: challengeID}

	m.mu.Lock()
	w, ok := m.open[k]
	delete(m.open, k)
	m.mu.Unlock()

	if !ok {
		return
	}

	w.Close()
	slog.InfoContext(ctx, "workspace: closed", "user", userID, "challenge", challengeID)
}

func (m *Manager) CloseUser(ctx context.Context, userID string) {
	m.mu.Lock()
	var ws []*Workspace
	for k, w := range m.open {
		if k.userID == userID {
			ws = append(ws, w)
			delete(m.open, k)
		}
	}
	m.mu.Unlock()

	for _, w := range ws {
		w.Close()
	}

	if len(ws) > 0 {
		slog.InfoContext(ctx, "workspace: closed all for user", "user", userID, "count", len(ws))
	}
}

// Shutdown closes every workspace and refuses to open new ones.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	ws := m.open
	m.open = make(map[key]*Workspace)
	m.mu.Unlock()

	for _, w := range ws {
		w.Close()
	}
}
