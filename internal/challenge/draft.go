package challenge

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/victornm/codechallenge/internal/domain"
)

const firstTestCaseID = "1"

// Draft is the state of the challenge authoring form. It always holds at least one test case row.
type Draft struct {
	mu sync.Mutex

	title       string
	description string
	difficulty  domain.Difficulty
	language    string
	timeLimit   int
	testCases   []domain.TestCase
}

func NewDraft() *Draft {
	d := &Draft{}
	d.Reset()
	return d
}

// Reset puts the draft back to an empty form with a single blank test case.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reset()
}

func (d *Draft) reset() {
	d.title = ""
	d.description = ""
	d.difficulty = domain.DifficultyEasy
	d.language = DefaultLanguage
	d.timeLimit = DefaultTimeLimit
	d.testCases = []domain.TestCase{{ID: firstTestCaseID}}
}

// DraftFields holds the form fields to change; nil fields are left as they are.
type DraftFields struct {
	Title       *string
	Description *string
	Difficulty  *domain.Difficulty
	Language    *string
	TimeLimit   *int
}

func (d *Draft) Update(f DraftFields) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if f.Title != nil {
		d.title = *f.Title
	}
	if f.Description != nil {
		d.description = *f.Description
	}
	if f.Difficulty != nil {
		d.difficulty = *f.Difficulty
	}
	if f.Language != nil {
		d.language = *f.Language
	}
	if f.TimeLimit != nil {
		d.timeLimit = *f.TimeLimit
	}
}

// AddTestCase appends a blank test case row and returns it.
func (d *Draft) AddTestCase() (domain.TestCase, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.TestCase{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tc := domain.TestCase{ID: id.String()}
	d.testCases = append(d.testCases, tc)
	return tc, nil
}

// TestCaseFields holds the row fields to change; nil fields are left as they are.
type TestCaseFields struct {
	Input          *string
	ExpectedOutput *string
	Hidden         *bool
}

// UpdateTestCase changes a row, reporting false when no row has the ID.
func (d *Draft) UpdateTestCase(id string, f TestCaseFields) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexOf(id)
	if i < 0 {
		return false
	}

	tc := &d.testCases[i]
	if f.Input != nil {
		tc.Input = *f.Input
	}
	if f.ExpectedOutput != nil {
		tc.ExpectedOutput = *f.ExpectedOutput
	}
	if f.Hidden != nil {
		tc.Hidden = *f.Hidden
	}
	return true
}

// RemoveTestCase drops a row. The last remaining row is never removed.
func (d *Draft) RemoveTestCase(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.testCases) <= 1 {
		return false
	}

	i := d.indexOf(id)
	if i < 0 {
		return false
	}

	d.testCases = slices.Delete(d.testCases, i, i+1)
	return true
}

// Request returns the draft as a create request.
func (d *Draft) Request() CreateRequest {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.request()
}

// take returns the draft as a create request and resets it in the same step.
func (d *Draft) take() CreateRequest {
	d.mu.Lock()
	defer d.mu.Unlock()

	req := d.request()
	d.reset()
	return req
}

// restore puts a taken request back into the draft.
func (d *Draft) restore(req CreateRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.title = req.Title
	d.description = req.Description
	d.difficulty = req.Difficulty
	d.language = req.Language
	d.timeLimit = req.TimeLimit
	d.testCases = req.TestCases
}

func (d *Draft) request() CreateRequest {
	return CreateRequest{
		Title:       d.title,
		Description: d.description,
		Difficulty:  d.difficulty,
		Language:    d.language,
		TimeLimit:   d.timeLimit,
		TestCases:   slices.Clone(d.testCases),
	}
}

func (d *Draft) indexOf(id string) int {
	return slices.IndexFunc(d.testCases, func(tc domain.TestCase) bool {
		return tc.ID == id
	})
}
