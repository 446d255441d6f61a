package talent

// Stage is one step of the talent search pipeline.
type Stage string

const (
	StageInterpreting   Stage = "interpreting"
	StageSearchingDB    Stage = "searching_db"
	StageOSINTDiscovery Stage = "osint_discovery"
	StageAIAnalysis     Stage = "ai_analysis"
	StageCompleted      Stage = "completed"
)

// stageOrder is the fixed forward order of pipeline stages.
var stageOrder = []Stage{StageInterpreting, StageSearchingDB, StageOSINTDiscovery, StageAIAnalysis, StageCompleted}

func stageIndex(s Stage) int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Progress is one progress event of a pipeline run.
type Progress struct {
	Stage            Stage   `json:"stage"`
	Progress         int     `json:"progress"`
	CurrentOperation string  `json:"currentOperation"`
	StagesCompleted  []Stage `json:"stagesCompleted"`
}

// ProgressFunc receives progress events synchronously at each transition.
type ProgressFunc func(Progress)

// progressTracker is the single writer of a run's Progress.
// Stages only move forward and the percentage never decreases.
// StagesCompleted lists, in stage order, the stages that actually ran
// before the current one; skipped stages are never listed.
type progressTracker struct {
	cb        ProgressFunc
	cur       Progress
	started   bool
	completed []Stage
}

func newProgressTracker(cb ProgressFunc) *progressTracker {
	return &progressTracker{cb: cb}
}

// advance moves to stage at pct and emits an event.
func (t *progressTracker) advance(stage Stage, pct int, op string) {
	if t.started && stageIndex(stage) < stageIndex(t.cur.Stage) {
		stage = t.cur.Stage
	}
	if t.started && stage != t.cur.Stage {
		t.completed = append(t.completed, t.cur.Stage)
	}
	if pct < t.cur.Progress {
		pct = t.cur.Progress
	}
	if pct > 100 {
		pct = 100
	}
	t.started = true
	t.cur = Progress{
		Stage:            stage,
		Progress:         pct,
		CurrentOperation: op,
		StagesCompleted:  append([]Stage(nil), t.completed...),
	}
	if t.cb != nil {
		t.cb(t.cur)
	}
}

// complete moves to the completed stage at 100%.
func (t *progressTracker) complete(op string) {
	t.advance(StageCompleted, 100, op)
}

// snapshot returns a copy of the current progress.
func (t *progressTracker) snapshot() Progress {
	p := t.cur
	p.StagesCompleted = append([]Stage(nil), t.cur.StagesCompleted...)
	return p
}
