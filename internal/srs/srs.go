// Package srs implements the interval policy for the flashcard scheduler:
// a fixed ladder of day-intervals indexed by the card's stage.
package srs

import (
	"time"

	"github.com/ultiflow/ultiflow/internal/domain"
)

// Ladder is the fixed ascending sequence of day-intervals, 1-indexed by
// stage: a card at stage n is next due Ladder[n-1] days after a successful
// review. Stage 0 has no ladder entry; it is the brand-new / just-failed
// state.
var Ladder = [5]int{1, 3, 7, 14, 30}

// MaxStage is the stage reached when the ladder is exhausted. Further
// successes keep the maximum interval.
const MaxStage = len(Ladder)

// Transition applies a review outcome to a card's stage and returns the
// new stage and next due date. On success the stage climbs one rung,
// capped at MaxStage, and the interval is the ladder entry for the stage
// just reached. On failure the stage resets to 0 and the card is due
// tomorrow, whatever the prior stage was.
//
// The due date is derived with local-calendar arithmetic on reviewedAt,
// never instant arithmetic, so the result cannot shift across a day
// boundary near midnight or a DST transition.
func Transition(stage int, success bool, reviewedAt time.Time) (newStage int, nextDue string) {
	days := 1
	newStage = 0
	if success {
		newStage = stage + 1
		if newStage > MaxStage {
			newStage = MaxStage
		}
		days = Ladder[newStage-1]
	}
	return newStage, addDays(reviewedAt, days)
}

// addDays returns the calendar date days after t, in t's location.
func addDays(t time.Time, days int) string {
	y, m, d := t.Date()
	return domain.DateKey(time.Date(y, m, d+days, 0, 0, 0, 0, t.Location()))
}
