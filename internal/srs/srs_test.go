package srs

import (
	"testing"
	"time"
)

var reviewDate = time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)

func TestTransitionSuccess(t *testing.T) {
	tests := []struct {
		name      string
		stage     int
		wantStage int
		wantDue   string
	}{
		{"new card climbs to stage 1", 0, 1, "2024-06-02"},
		{"stage 1 climbs to stage 2", 1, 2, "2024-06-04"},
		{"stage 2 climbs to stage 3", 2, 3, "2024-06-08"},
		{"stage 4 reaches the top", 4, 5, "2024-07-01"},
		{"stage 5 stays clamped at max", 5, 5, "2024-07-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStage, gotDue := Transition(tt.stage, true, reviewDate)
			if gotStage != tt.wantStage {
				t.Errorf("stage: got %d, want %d", gotStage, tt.wantStage)
			}
			if gotDue != tt.wantDue {
				t.Errorf("due: got %s, want %s", gotDue, tt.wantDue)
			}
		})
	}
}

func TestTransitionFailureResets(t *testing.T) {
	for stage := 0; stage <= MaxStage; stage++ {
		gotStage, gotDue := Transition(stage, false, reviewDate)
		if gotStage != 0 {
			t.Errorf("stage %d: failure should reset to 0, got %d", stage, gotStage)
		}
		if gotDue != "2024-06-02" {
			t.Errorf("stage %d: failure should be due tomorrow, got %s", stage, gotDue)
		}
	}
}

func TestLadderMonotonic(t *testing.T) {
	prev := 0
	for i, days := range Ladder {
		if days < prev {
			t.Fatalf("ladder entry %d (%d days) is shorter than the previous (%d days)", i, days, prev)
		}
		prev = days
	}

	// Repeated successes never shorten the interval, even past the top rung.
	stage := 0
	prevDue := ""
	for i := 0; i < 10; i++ {
		var due string
		stage, due = Transition(stage, true, reviewDate)
		if due < prevDue {
			t.Fatalf("success %d: due date went backwards from %s to %s", i, prevDue, due)
		}
		prevDue = due
	}
	if stage != MaxStage {
		t.Errorf("after 10 successes stage should be %d, got %d", MaxStage, stage)
	}
}

func TestTransitionCrossesMonthAndYear(t *testing.T) {
	dec := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)
	_, due := Transition(0, false, dec)
	if due != "2025-01-01" {
		t.Errorf("due across year boundary: got %s, want 2025-01-01", due)
	}
}

func TestTransitionUsesLocalCalendar(t *testing.T) {
	// 23:30 in a UTC+10 zone is still the local date; adding a day must not
	// be affected by the instant falling on a different UTC date.
	loc := time.FixedZone("UTC+10", 10*60*60)
	late := time.Date(2024, 6, 1, 23, 30, 0, 0, loc)
	_, due := Transition(0, true, late)
	if due != "2024-06-02" {
		t.Errorf("late-night review: got %s, want 2024-06-02", due)
	}
}
