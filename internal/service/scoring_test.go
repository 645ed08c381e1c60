package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finchoice/backend/internal/model"
)

func TestScoreValues(t *testing.T) {
	t.Parallel()

	th := defaultThresholds()

	tests := []struct {
		name   string
		values []model.Value
		pol    Polarity
		want   []float64
	}{
		{
			name:   "lower is better rescales linearly",
			values: []model.Value{model.Number(10), model.Number(12), model.Number(14)},
			pol:    LowerIsBetter,
			want:   []float64{100, 50, 0},
		},
		{
			name:   "higher is better inverts polarity",
			values: []model.Value{model.Number(10), model.Number(12), model.Number(14)},
			pol:    HigherIsBetter,
			want:   []float64{0, 50, 100},
		},
		{
			name:   "identical values score neutral",
			values: []model.Value{model.Number(9.5), model.Number(9.5), model.Number(9.5)},
			pol:    LowerIsBetter,
			want:   []float64{50, 50, 50},
		},
		{
			name:   "absent values score zero and do not shape the range",
			values: []model.Value{model.Number(10), model.None, model.Number(20)},
			pol:    LowerIsBetter,
			want:   []float64{100, 0, 0},
		},
		{
			name:   "booleans score all or nothing",
			values: []model.Value{model.Boolean(true), model.Boolean(false)},
			want:   []float64{100, 0},
		},
		{
			name:   "text scores neutral",
			values: []model.Value{model.Text("Alfa"), model.Text("Beta")},
			want:   []float64{50, 50},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := scoreValues(tt.values, tt.pol, th)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBestWorstMasks(t *testing.T) {
	t.Parallel()

	t.Run("ties flag every extremum holder", func(t *testing.T) {
		t.Parallel()
		values := []model.Value{model.Number(9.5), model.Number(9.5), model.Number(9.5)}
		best, worst := bestWorstMasks(values, LowerIsBetter)
		assert.Equal(t, []bool{true, true, true}, best)
		assert.Equal(t, []bool{true, true, true}, worst)
	})

	t.Run("absent values are never flagged", func(t *testing.T) {
		t.Parallel()
		values := []model.Value{model.Number(5), model.None, model.Number(8)}
		best, worst := bestWorstMasks(values, LowerIsBetter)
		assert.Equal(t, []bool{true, false, false}, best)
		assert.Equal(t, []bool{false, false, true}, worst)
	})

	t.Run("boolean best is true worst is false", func(t *testing.T) {
		t.Parallel()
		values := []model.Value{model.Boolean(true), model.Boolean(false)}
		best, worst := bestWorstMasks(values, HigherIsBetter)
		assert.Equal(t, []bool{true, false}, best)
		assert.Equal(t, []bool{false, true}, worst)
	})
}

func TestClampScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, clampScore(-3))
	assert.Equal(t, 100.0, clampScore(104.2))
	assert.Equal(t, 73.5, clampScore(73.5))
}
