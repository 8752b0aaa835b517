package challenge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/codechallenge/internal/challenge"
	"github.com/victornm/codechallenge/internal/domain"
)

func TestDraft_TestCaseRows(t *testing.T) {
	d := challenge.NewDraft()

	req := d.Request()
	require.Len(t, req.TestCases, 1)
	assert.Equal(t, "1", req.TestCases[0].ID)
	assert.Equal(t, domain.DifficultyEasy, req.Difficulty)
	assert.Equal(t, "python", req.Language)
	assert.Equal(t, 30, req.TimeLimit)

	assert.False(t, d.RemoveTestCase("1"), "the only row cannot be removed")

	added, err := d.AddTestCase()
	require.NoError(t, err)
	assert.NotEqual(t, "1", added.ID)
	assert.Len(t, d.Request().TestCases, 2)

	hidden := true
	assert.True(t, d.UpdateTestCase(added.ID, challenge.TestCaseFields{Hidden: &hidden}))
	assert.False(t, d.UpdateTestCase("missing", challenge.TestCaseFields{Hidden: &hidden}))

	assert.True(t, d.RemoveTestCase("1"))
	rows := d.Request().TestCases
	require.Len(t, rows, 1)
	assert.Equal(t, added.ID, rows[0].ID)
	assert.True(t, rows[0].Hidden)

	assert.False(t, d.RemoveTestCase(added.ID), "the last row stays")
	assert.False(t, d.RemoveTestCase("missing"))
}

func TestDraft_RequestIsACopy(t *testing.T) {
	d := challenge.NewDraft()

	req := d.Request()
	req.TestCases[0].Input = "changed"

	assert.Empty(t, d.Request().TestCases[0].Input)
}

func TestDraft_Update(t *testing.T) {
	d := challenge.NewDraft()

	lang, limit := "go", 60
	diff := domain.DifficultyHard
	d.Update(challenge.DraftFields{Language: &lang, TimeLimit: &limit, Difficulty: &diff})

	req := d.Request()
	assert.Equal(t, "go", req.Language)
	assert.Equal(t, 60, req.TimeLimit)
	assert.Equal(t, domain.DifficultyHard, req.Difficulty)
	assert.Empty(t, req.Title, "untouched fields keep their values")
}
