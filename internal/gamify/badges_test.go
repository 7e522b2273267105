package gamify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asteroid-belt/gitquest/internal/models"
)

func badgeIDs(badges []Badge) []string {
	ids := make([]string, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestCatalogue_KindsAreKnown(t *testing.T) {
	seen := map[string]bool{}
	for _, b := range Catalogue() {
		assert.False(t, seen[b.ID], "duplicate badge id %s", b.ID)
		seen[b.ID] = true
		_, err := b.Condition.Value(BadgeContext{})
		assert.NoError(t, err, "badge %s", b.ID)
		assert.Positive(t, b.Condition.Threshold, "badge %s", b.ID)
	}
}

func TestCondition_UnknownKind(t *testing.T) {
	c := Condition{Kind: "karma", Threshold: 1}
	_, err := c.Value(BadgeContext{})
	assert.Error(t, err)
	assert.False(t, c.Met(BadgeContext{}))
}

func TestNewlyEarned_Century(t *testing.T) {
	state := models.UserStats{SubjectID: "octocat", TotalCommits: 90, CurrentLevel: 5}
	earned := map[string]bool{}
	for _, b := range NewlyEarned(BadgeContext{State: state}, earned) {
		earned[b.ID] = true
	}
	assert.False(t, earned["century"])

	state.TotalCommits = 105
	got := NewlyEarned(BadgeContext{State: state}, earned)
	assert.Equal(t, []string{"century"}, badgeIDs(got))
	for _, b := range got {
		earned[b.ID] = true
	}

	state.TotalCommits = 110
	assert.Empty(t, NewlyEarned(BadgeContext{State: state}, earned))
}

func TestNewlyEarned_AuxiliaryCounters(t *testing.T) {
	ctx := BadgeContext{Languages: 6, Stars: 150}
	ids := badgeIDs(NewlyEarned(ctx, map[string]bool{}))
	assert.Contains(t, ids, "polyglot")
	assert.Contains(t, ids, "stargazer")
}

func TestProgressFor_ClampedDisplayRawRatio(t *testing.T) {
	century, ok := BadgeByID("century")
	assert.True(t, ok)

	near := ProgressFor(century, BadgeContext{State: models.UserStats{TotalCommits: 85}}, false)
	assert.InDelta(t, 0.85, near.Ratio, 1e-9)
	assert.InDelta(t, 85.0, near.Percent, 1e-9)
	assert.True(t, near.NearCompletion)

	over := ProgressFor(century, BadgeContext{State: models.UserStats{TotalCommits: 250}}, true)
	assert.InDelta(t, 2.5, over.Ratio, 1e-9)
	assert.Equal(t, 100.0, over.Percent)
	assert.False(t, over.NearCompletion)

	far := ProgressFor(century, BadgeContext{State: models.UserStats{TotalCommits: 10}}, false)
	assert.False(t, far.NearCompletion)
}

func TestAllProgress_CoversCatalogue(t *testing.T) {
	got := AllProgress(BadgeContext{}, map[string]bool{"first_commit": true})
	assert.Len(t, got, len(Catalogue()))
	assert.True(t, got[0].Earned)
}
