package talent

import (
	"context"
	"errors"
	"sync"
	"time"
)

// countingRecorder counts events by name.
type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
	stages map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: map[string]int{}, stages: map[string]int{}}
}

func (r *countingRecorder) Incr(name string) { r.Add(name, 1) }

func (r *countingRecorder) Add(name string, n int) {
	r.mu.Lock()
	r.counts[name] += n
	r.mu.Unlock()
}

func (r *countingRecorder) Observe(stage string, _ time.Duration) {
	r.mu.Lock()
	r.stages[stage]++
	r.mu.Unlock()
}

func (r *countingRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// stubService is an InterpretationService returning fixed values.
type stubService struct {
	spec       JobSpecification
	confidence float64
	err        error
	delay      time.Duration
	calls      int
}

func (s *stubService) Interpret(ctx context.Context, _ string) (JobSpecification, float64, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return JobSpecification{}, 0, ctx.Err()
		}
	}
	return s.spec, s.confidence, s.err
}

var errServiceDown = errors.New("service down")

// stubSearcher is an InternalSearcher returning a fixed result.
type stubSearcher struct {
	result SearchResult
	calls  int
}

func (s *stubSearcher) Search(_ context.Context, interp Interpretation) SearchResult {
	s.calls++
	r := s.result
	r.Query = interp.Query
	return r
}

// stubDiscoverer records calls and returns fixed candidates.
type stubDiscoverer struct {
	cands []Candidate
	calls int
	hook  func(ctx context.Context)
}

func (d *stubDiscoverer) Discover(ctx context.Context, _ Interpretation, _ SearchPlan) ([]Candidate, DiscoveryStats) {
	d.calls++
	if d.hook != nil {
		d.hook(ctx)
	}
	return d.cands, DiscoveryStats{Probes: 1, Calls: 1, Profiles: len(d.cands)}
}

// funcCollector adapts a function to Collector.
type funcCollector struct {
	name string
	fn   func(ctx context.Context, req CollectRequest) ([]PlatformProfile, error)
}

func (f funcCollector) Name() string { return f.name }

func (f funcCollector) Collect(ctx context.Context, req CollectRequest) ([]PlatformProfile, error) {
	return f.fn(ctx, req)
}

// failingAnalyzer fails for the listed candidate ids.
type failingAnalyzer struct {
	fail map[string]bool
}

func (f failingAnalyzer) Analyze(ctx context.Context, c Candidate, interp Interpretation) (Analysis, error) {
	if f.fail[c.ID] {
		return Analysis{}, errors.New("analysis unavailable")
	}
	return HeuristicAnalyzer{}.Analyze(ctx, c, interp)
}

func candidate(id, email string, score float64, skills ...string) Candidate {
	return Candidate{
		ID:                  id,
		Name:                "Candidate " + id,
		Email:               email,
		Skills:              skills,
		MatchScore:          score,
		TechnicalDepthScore: 5,
		SourceDetails:       SourceDetails{Type: SourceInternal, Platform: PlatformInternal},
	}
}

func intPtr(n int) *int { return &n }
