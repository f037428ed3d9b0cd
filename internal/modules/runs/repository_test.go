package runs

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/internal/modules/pipeline"
	"github.com/aristath/valuescreen/internal/modules/screening"
	testingpkg "github.com/aristath/valuescreen/internal/testing"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	db := testingpkg.NewTestDB(t, "runs")
	return NewRepository(db.Conn(), zerolog.Nop())
}

func sampleRun(id string, started time.Time) *pipeline.Run {
	return &pipeline.Run{
		ID:            id,
		StartedAt:     started,
		FinishedAt:    started.Add(2 * time.Second),
		SecurityCount: 3,
		Results: []screening.Result{
			{
				SecurityID:     "AAA",
				CompositeScore: 0.8,
				Classification: screening.Buy,
				ComponentScores: screening.Components{
					Technical:   domain.Defined(0.5),
					Fundamental: domain.Undefined(),
					Sentiment:   domain.Defined(0),
				},
				Computed: screening.Computed{Technical: true},
				Rank:     1,
			},
			{SecurityID: "BBB", CompositeScore: 0.1, Classification: screening.Hold, Rank: 2},
		},
		InsufficientData: []screening.Exclusion{{SecurityID: "CCC", Reason: "no signal"}},
		Config:           screening.DefaultConfig(),
	}
}

func TestRepository_SaveAndGet(t *testing.T) {
	repo := setupRepo(t)
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	run := sampleRun("run-1", started)

	require.NoError(t, repo.Save(run))

	got, err := repo.Get("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
	require.Len(t, got.Results, 2)
	assert.Equal(t, screening.Buy, got.Results[0].Classification)
	assert.False(t, got.Results[0].ComponentScores.Fundamental.Valid)
	assert.True(t, got.Results[0].ComponentScores.Sentiment.Valid)
	assert.Equal(t, run.InsufficientData, got.InsufficientData)
	assert.Equal(t, run.Config.Weights, got.Config.Weights)
}

func TestRepository_GetMissing(t *testing.T) {
	repo := setupRepo(t)
	got, err := repo.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_SaveReplaces(t *testing.T) {
	repo := setupRepo(t)
	run := sampleRun("run-1", time.Now().UTC())
	require.NoError(t, repo.Save(run))

	run.InsufficientData = nil
	require.NoError(t, repo.Save(run))

	list, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 0, list[0].InsufficientCount)
}

func TestRepository_ListNewestFirst(t *testing.T) {
	repo := setupRepo(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(sampleRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	list, err := repo.List(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, 3, list[0].SecurityCount)
	assert.Equal(t, 2, list[0].RankedCount)
	assert.Equal(t, 1, list[0].InsufficientCount)

	all, err := repo.List(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepository_SaveRequiresID(t *testing.T) {
	repo := setupRepo(t)
	assert.Error(t, repo.Save(&pipeline.Run{}))
	assert.Error(t, repo.Save(nil))
}
