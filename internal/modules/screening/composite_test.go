package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/valuescreen/internal/domain"
)

func TestComposite(t *testing.T) {
	w := Weights{Technical: 0.3, Fundamental: 0.45, Sentiment: 0.25}
	undef := domain.Undefined()

	tests := []struct {
		name      string
		c         Components
		want      float64
		effective Weights
	}{
		{
			name:      "all defined",
			c:         Components{domain.Defined(1), domain.Defined(0.5), domain.Defined(-1)},
			want:      0.3 + 0.225 - 0.25,
			effective: w,
		},
		{
			name:      "technical missing",
			c:         Components{undef, domain.Defined(1), domain.Defined(0)},
			want:      0.45 / 0.7,
			effective: Weights{Fundamental: 0.45 / 0.7, Sentiment: 0.25 / 0.7},
		},
		{
			name:      "only sentiment",
			c:         Components{undef, undef, domain.Defined(-0.4)},
			want:      -0.4,
			effective: Weights{Sentiment: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, eff := Composite(tt.c, w)
			require.True(t, got.Valid)
			assert.InDelta(t, tt.want, got.Float64, 1e-12)
			assert.InDelta(t, tt.effective.Technical, eff.Technical, 1e-12)
			assert.InDelta(t, tt.effective.Fundamental, eff.Fundamental, 1e-12)
			assert.InDelta(t, tt.effective.Sentiment, eff.Sentiment, 1e-12)
			assert.InDelta(t, 1.0, eff.Sum(), 1e-12)
		})
	}
}

func TestComposite_NothingDefined(t *testing.T) {
	got, eff := Composite(Components{}, Weights{Technical: 0.5, Fundamental: 0.5})
	assert.False(t, got.Valid)
	assert.Zero(t, eff.Sum())

	got, _ = Composite(Components{Sentiment: domain.Defined(1)}, Weights{Technical: 0.5, Fundamental: 0.5})
	assert.False(t, got.Valid)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  Classification
	}{
		{0.8, Buy},
		{0.6, Buy},
		{0.59, Hold},
		{0, Hold},
		{-0.3, Avoid},
		{-0.9, Avoid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score, 0.6, -0.3), "score %v", tt.score)
	}
}

func TestRank_DenseTies(t *testing.T) {
	results := []Result{
		{SecurityID: "C", CompositeScore: 0.5},
		{SecurityID: "A", CompositeScore: 0.8},
		{SecurityID: "B", CompositeScore: 0.5 + 1e-12},
		{SecurityID: "D", CompositeScore: -0.1},
	}
	Rank(results)

	ids := make([]string, len(results))
	ranks := make([]int, len(results))
	for i, r := range results {
		ids[i] = r.SecurityID
		ranks[i] = r.Rank
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids)
	assert.Equal(t, []int{1, 2, 2, 3}, ranks)
}

func TestRank_TiesWithinTolerance(t *testing.T) {
	results := []Result{
		{SecurityID: "Z", CompositeScore: 0.5 + 0.49e-9},
		{SecurityID: "Y", CompositeScore: 0.5 + 0.51e-9},
		{SecurityID: "X", CompositeScore: 0.5 + 2.5e-9},
		{SecurityID: "W", CompositeScore: 0.5},
	}
	Rank(results)

	ranks := make(map[string]int, len(results))
	ids := make([]string, len(results))
	for i, r := range results {
		ranks[r.SecurityID] = r.Rank
		ids[i] = r.SecurityID
	}
	// W, Y and Z sit within 1e-9 of each other; X is 2e-9 above Y.
	assert.Equal(t, map[string]int{"X": 1, "W": 2, "Y": 2, "Z": 2}, ranks)
	assert.Equal(t, []string{"X", "W", "Y", "Z"}, ids)
}
