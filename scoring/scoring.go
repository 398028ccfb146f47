// Package scoring converts score predictions into points. It is pure
// computation: the services layer decides when to call it and where the
// results are stored.
package scoring

// Rubric is the four-tier point schedule of a pool.
type Rubric struct {
	ExactScore        int `json:"exact_score"`
	CorrectDifference int `json:"correct_difference"`
	CorrectResult     int `json:"correct_result"`
	WrongPrediction   int `json:"wrong_prediction"`
}

// DefaultRubric returns the point values pools are created with.
func DefaultRubric() Rubric {
	return Rubric{
		ExactScore:        10,
		CorrectDifference: 5,
		CorrectResult:     3,
		WrongPrediction:   0,
	}
}

// Outcome is the win/draw/loss result of a score, seen from the home side.
type Outcome int

const (
	AwayWin Outcome = -1
	Draw    Outcome = 0
	HomeWin Outcome = 1
)

func OutcomeOf(home, away int) Outcome {
	switch {
	case home > away:
		return HomeWin
	case home < away:
		return AwayWin
	default:
		return Draw
	}
}

// Points scores a single bet against the final result, first matching tier
// wins: exact score, correct goal difference, correct outcome, wrong.
//
// Two draws with different scores (say 1-1 predicted as 0-0) must land on the
// correct-result tier. Without the explicit draw check they would satisfy the
// goal-difference equation (0 == 0) and be over-rewarded.
func Points(predictedHome, predictedAway, actualHome, actualAway int, r Rubric) int {
	if predictedHome == actualHome && predictedAway == actualAway {
		return r.ExactScore
	}

	actual := OutcomeOf(actualHome, actualAway)
	predicted := OutcomeOf(predictedHome, predictedAway)

	if actual == Draw && predicted == Draw {
		return r.CorrectResult
	}

	if actualHome-actualAway == predictedHome-predictedAway {
		return r.CorrectDifference
	}

	if actual == predicted {
		return r.CorrectResult
	}

	return r.WrongPrediction
}
