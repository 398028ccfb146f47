package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointsTiers(t *testing.T) {
	r := Rubric{ExactScore: 10, CorrectDifference: 5, CorrectResult: 3, WrongPrediction: 0}

	tests := []struct {
		name                   string
		predHome, predAway     int
		actualHome, actualAway int
		want                   int
	}{
		{"exact score", 2, 1, 2, 1, 10},
		{"exact draw", 1, 1, 1, 1, 10},
		{"exact goalless", 0, 0, 0, 0, 10},
		{"same difference same winner", 2, 0, 3, 1, 5},
		{"same difference away winner", 0, 2, 1, 3, 5},
		{"correct winner different difference", 1, 0, 2, 0, 3},
		{"correct away winner different difference", 0, 1, 1, 4, 3},
		{"draw vs draw different score", 0, 0, 1, 1, 3},
		{"draw vs draw different score reversed", 2, 2, 0, 0, 3},
		{"wrong winner", 2, 0, 0, 2, 0},
		{"predicted draw got home win", 1, 1, 2, 1, 0},
		{"predicted home win got draw", 2, 1, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Points(tt.predHome, tt.predAway, tt.actualHome, tt.actualAway, r)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPointsLegacyRubric(t *testing.T) {
	// The 3/1/0 schedule early pools used: goal difference is not rewarded
	// separately from the plain correct result.
	r := Rubric{ExactScore: 3, CorrectDifference: 1, CorrectResult: 1, WrongPrediction: 0}

	assert.Equal(t, 3, Points(2, 1, 2, 1, r))
	assert.Equal(t, 1, Points(2, 0, 3, 1, r))
	assert.Equal(t, 1, Points(1, 0, 2, 0, r))
	assert.Equal(t, 1, Points(0, 0, 1, 1, r))
	assert.Equal(t, 0, Points(2, 0, 0, 2, r))
}

func TestExactScoreAlwaysWinsTopTier(t *testing.T) {
	r := DefaultRubric()
	for home := 0; home <= 5; home++ {
		for away := 0; away <= 5; away++ {
			assert.Equal(t, r.ExactScore, Points(home, away, home, away, r),
				"exact prediction %d-%d must take the top tier", home, away)
		}
	}
}

func TestDrawVsDrawNeverHitsDifferenceTier(t *testing.T) {
	// Any two draws share a goal difference of zero; only identical scores
	// may reach the exact tier, everything else is the result tier.
	r := DefaultRubric()
	for pred := 0; pred <= 4; pred++ {
		for actual := 0; actual <= 4; actual++ {
			got := Points(pred, pred, actual, actual, r)
			if pred == actual {
				assert.Equal(t, r.ExactScore, got)
			} else {
				assert.Equal(t, r.CorrectResult, got)
			}
		}
	}
}

func TestPointsDeterministic(t *testing.T) {
	r := DefaultRubric()
	first := Points(1, 0, 3, 2, r)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Points(1, 0, 3, 2, r))
	}
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, HomeWin, OutcomeOf(2, 0))
	assert.Equal(t, AwayWin, OutcomeOf(0, 1))
	assert.Equal(t, Draw, OutcomeOf(2, 2))
}
