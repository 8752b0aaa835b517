package domain

const (
	EventNameUserLoggedIn      = "user.logged_in"
	EventNameUserLoggedOut     = "user.logged_out"
	EventNameChallengeCreated  = "challenge.created"
	EventNameSubmissionCreated = "submission.created"
)

type EventUserLoggedIn struct {
	User User
}

func (EventUserLoggedIn) Name() string { return EventNameUserLoggedIn }

type EventUserLoggedOut struct {
	User User
}

func (EventUserLoggedOut) Name() string { return EventNameUserLoggedOut }

type EventChallengeCreated struct {
	Challenge Challenge
}

func (EventChallengeCreated) Name() string { return EventNameChallengeCreated }

// EventSubmissionCreated is published after a run has been recorded.
type EventSubmissionCreated struct {
	Submission Submission
	Passed     int
	Total      int
}

func (EventSubmissionCreated) Name() string { return EventNameSubmissionCreated }
