package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/gitquest/internal/models"
)

func randomSnapshot(r *rand.Rand) models.StatsSnapshot {
	return models.StatsSnapshot{
		Subject:       "octocat",
		Commits:       r.Int63n(100000),
		PRsCreated:    r.Int63n(5000),
		PRsMerged:     r.Int63n(5000),
		IssuesCreated: r.Int63n(5000),
		IssuesClosed:  r.Int63n(5000),
		Reviews:       r.Int63n(5000),
		Stars:         r.Int63n(100000),
		Contributions: r.Int63n(10000),
		Languages:     r.Intn(30),
	}
}

func TestDiff_FirstSyncIsZero(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		s := randomSnapshot(r)
		d := Diff(nil, s)
		assert.True(t, d.IsZero(), "Diff(nil, %+v) = %+v", s, d)
	}

	huge := models.StatsSnapshot{Subject: "octocat", Commits: 1 << 40, Stars: 1 << 40}
	assert.Equal(t, models.StatsDelta{}, Diff(nil, huge))
}

func TestDiff_NeverNegative(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		a := randomSnapshot(r)
		b := randomSnapshot(r)
		d := Diff(&a, b)
		require.NoError(t, ValidateDelta(d), "Diff(%+v, %+v)", a, b)
	}
}

func TestDiff_Fields(t *testing.T) {
	prev := &models.StatsSnapshot{
		Subject: "octocat", Commits: 90, PRsCreated: 10, PRsMerged: 8,
		IssuesCreated: 5, IssuesClosed: 3, Reviews: 7, Stars: 40, Contributions: 300,
	}
	cur := models.StatsSnapshot{
		Subject: "octocat", Commits: 105, PRsCreated: 9, PRsMerged: 9,
		IssuesCreated: 5, IssuesClosed: 4, Reviews: 9, Stars: 38, Contributions: 320,
	}

	d := Diff(prev, cur)

	assert.Equal(t, models.StatsDelta{
		Commits:       15,
		PRsCreated:    0, // deleted PR floors at zero
		PRsMerged:     1,
		IssuesCreated: 0,
		IssuesClosed:  1,
		Reviews:       2,
		Stars:         0,
		Contributions: 20,
	}, d)
	assert.True(t, d.HasActivity())
}

func TestDiff_SameSnapshot(t *testing.T) {
	s := models.StatsSnapshot{Subject: "octocat", Commits: 3, Stars: 1}
	d := Diff(&s, s)
	assert.True(t, d.IsZero())
	assert.False(t, d.HasActivity())
}

func TestDelta_StarsAloneAreNotActivity(t *testing.T) {
	d := models.StatsDelta{Stars: 4}
	assert.False(t, d.IsZero())
	assert.False(t, d.HasActivity())
}

func TestDelta_Add(t *testing.T) {
	a := models.StatsDelta{Commits: 1, Reviews: 2}
	b := models.StatsDelta{Commits: 3, Stars: 1}
	assert.Equal(t, models.StatsDelta{Commits: 4, Reviews: 2, Stars: 1}, a.Add(b))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		snap    models.StatsSnapshot
		wantErr bool
	}{
		{"valid", models.StatsSnapshot{Subject: "octocat", Commits: 1}, false},
		{"missing subject", models.StatsSnapshot{Commits: 1}, true},
		{"negative commits", models.StatsSnapshot{Subject: "octocat", Commits: -1}, true},
		{"negative contributions", models.StatsSnapshot{Subject: "octocat", Contributions: -5}, true},
		{"negative languages", models.StatsSnapshot{Subject: "octocat", Languages: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.snap)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
