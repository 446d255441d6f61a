package talent

import (
	"slices"
	"testing"
)

func TestProgressTracker_ForwardOnly(t *testing.T) {
	var events []Progress
	tr := newProgressTracker(func(p Progress) { events = append(events, p) })

	tr.advance(StageInterpreting, 10, "a")
	tr.advance(StageSearchingDB, 50, "b")
	tr.advance(StageInterpreting, 20, "backwards")
	tr.advance(StageAIAnalysis, 80, "skip osint")
	tr.complete("done")

	if len(events) != 5 {
		t.Fatalf("got %d events", len(events))
	}
	if events[2].Stage != StageSearchingDB || events[2].Progress != 50 {
		t.Errorf("regression accepted: %+v", events[2])
	}
	final := tr.snapshot()
	want := []Stage{StageInterpreting, StageSearchingDB, StageAIAnalysis}
	if !slices.Equal(final.StagesCompleted, want) {
		t.Errorf("stages completed = %v, want %v", final.StagesCompleted, want)
	}
	if final.Progress != 100 || final.Stage != StageCompleted {
		t.Errorf("final = %+v", final)
	}
}

func TestProgressTracker_SnapshotIsCopy(t *testing.T) {
	tr := newProgressTracker(nil)
	tr.advance(StageInterpreting, 10, "a")
	tr.advance(StageSearchingDB, 30, "b")
	s := tr.snapshot()
	s.StagesCompleted[0] = "mutated"
	if tr.snapshot().StagesCompleted[0] != StageInterpreting {
		t.Error("snapshot shares state with the tracker")
	}
}

func TestProgressTracker_CapsAt100(t *testing.T) {
	tr := newProgressTracker(nil)
	tr.advance(StageAIAnalysis, 140, "x")
	if got := tr.snapshot().Progress; got != 100 {
		t.Errorf("progress = %d", got)
	}
}
