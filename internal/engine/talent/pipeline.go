package talent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

// QueryInterpreter turns a query into an interpretation. It never fails.
type QueryInterpreter interface {
	Interpret(ctx context.Context, query string) Interpretation
}

// Deps are the collaborators of a Pipeline. Interpreter and Store are
// required; the rest are optional.
type Deps struct {
	Interpreter QueryInterpreter
	Store       InternalSearcher
	Discovery   Discoverer      // nil skips OSINT discovery
	Analyzer    Analyzer        // nil uses HeuristicAnalyzer
	Writer      CandidateWriter // receives discovered candidates when PersistDiscovered
	History     HistoryStore
	Recorder    Recorder
	Logger      *slog.Logger
}

// Options tune a Pipeline. Zero values mean defaults.
type Options struct {
	ShortCircuitAt     int
	AnalysisLimit      int
	AnalyzeTimeout     time.Duration
	AnalyzeConcurrency int
	PersistDiscovered  bool
}

// Pipeline runs the staged talent search: interpret, internal search,
// OSINT discovery, merge, analysis and ranking. One run at a time per instance.
type Pipeline struct {
	deps     Deps
	opts     Options
	rec      Recorder
	log      *slog.Logger
	progress ProgressFunc
	now      func() time.Time
}

// NewPipeline builds a Pipeline.
func NewPipeline(deps Deps, opts Options) *Pipeline {
	if opts.ShortCircuitAt <= 0 {
		opts.ShortCircuitAt = ShortCircuitThreshold
	}
	if opts.AnalysisLimit <= 0 {
		opts.AnalysisLimit = AnalysisLimit
	}
	if opts.AnalyzeConcurrency <= 0 {
		opts.AnalyzeConcurrency = 3
	}
	if deps.Analyzer == nil {
		deps.Analyzer = HeuristicAnalyzer{}
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{deps: deps, opts: opts, rec: recorderOrNop(deps.Recorder), log: log, now: time.Now}
}

// SetProgressCallback registers the single progress subscriber. nil removes it.
func (p *Pipeline) SetProgressCallback(fn ProgressFunc) {
	p.progress = fn
}

// Search runs the pipeline. It always returns a result: failures degrade to
// fallback values and a panic anywhere yields the sample fallback result.
func (p *Pipeline) Search(ctx context.Context, query string) (res *SearchResult) {
	runID := uuid.NewString()
	start := p.now()
	tr := newProgressTracker(p.progress)
	p.rec.Incr(engine.MetricSearches)

	defer func() {
		if r := recover(); r != nil {
			p.rec.Incr(engine.MetricPipelineFallbacks)
			p.log.Error("talent pipeline panicked, returning fallback result",
				slog.String("run_id", runID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			res = p.fallbackResult(query, tr)
		}
		res.RunID = runID
		res.Progress = tr.snapshot()
		p.rec.Observe("pipeline", time.Since(start))
		p.recordRun(ctx, res, time.Since(start))
	}()

	return p.run(ctx, query, tr)
}

func (p *Pipeline) run(ctx context.Context, query string, tr *progressTracker) *SearchResult {
	if ctx.Err() != nil {
		interp := FallbackInterpretation(query)
		tr.advance(StageInterpreting, 10, "Search cancelled before start")
		return p.cancelled(&SearchResult{Query: query, AIInterpretation: interp.InterpretedIntent, Interpretation: &interp}, tr)
	}

	tr.advance(StageInterpreting, 10, "Interpreting search query")
	interp := p.deps.Interpreter.Interpret(ctx, query)
	tr.advance(StageInterpreting, 20, "Query interpreted: "+engine.TruncateRunes(interp.InterpretedIntent, 80, "..."))

	res := &SearchResult{
		Query:            query,
		AIInterpretation: interp.InterpretedIntent,
		Interpretation:   &interp,
		Fallback:         interp.Fallback,
	}
	if ctx.Err() != nil {
		return p.cancelled(res, tr)
	}

	tr.advance(StageSearchingDB, 30, "Searching internal candidate database")
	internal := p.deps.Store.Search(ctx, interp)
	tr.advance(StageSearchingDB, 50, fmt.Sprintf("Found %d internal candidates", len(internal.Candidates)))

	res.Candidates = internal.Candidates
	res.TotalFound = internal.TotalFound
	res.SearchQualityScore = internal.SearchQualityScore
	res.SuggestedRefinements = internal.SuggestedRefinements
	res.DiversityMetrics = internal.DiversityMetrics

	if len(internal.Candidates) >= p.opts.ShortCircuitAt {
		res.ShortCircuited = true
		p.rec.Incr(engine.MetricShortCircuits)
		tr.complete(fmt.Sprintf("Found %d candidates in the internal database", len(internal.Candidates)))
		return res
	}
	if ctx.Err() != nil {
		return p.cancelled(res, tr)
	}

	plan := GeneratePlan(interp.Requirements)
	res.Plan = &plan

	var discovered []Candidate
	if p.deps.Discovery != nil {
		tr.advance(StageOSINTDiscovery, 50, "Discovering candidates on public platforms")
		var stats DiscoveryStats
		discovered, stats = p.deps.Discovery.Discover(ctx, interp, plan)
		res.Discovery = &stats
		tr.advance(StageOSINTDiscovery, 70, fmt.Sprintf("Discovered %d public profiles", len(discovered)))
	}

	combined := Combine(internal.Candidates, discovered)
	res.TotalFound = internal.TotalFound + len(combined) - len(internal.Candidates)
	if ctx.Err() != nil {
		p.finish(res, Rank(combined, nil), interp)
		return p.cancelled(res, tr)
	}
	p.persist(ctx, combined)

	tr.advance(StageAIAnalysis, 80, fmt.Sprintf("Analyzing top %d candidates", min(len(combined), p.opts.AnalysisLimit)))
	analyses := p.analyze(ctx, combined, interp)
	tr.advance(StageAIAnalysis, 90, "Ranking candidates")

	p.finish(res, Rank(combined, analyses), interp)
	if ctx.Err() != nil {
		return p.cancelled(res, tr)
	}
	tr.complete(fmt.Sprintf("Search completed: %d candidates", len(res.Candidates)))
	return res
}

// finish stores the ranked set and recomputes the set-level metrics.
func (p *Pipeline) finish(res *SearchResult, ranked []Candidate, interp Interpretation) {
	res.Candidates = ranked
	res.SearchQualityScore = qualityScore(ranked)
	res.DiversityMetrics = Diversity(ranked, BuildFilters(interp).Skills)
	if res.TotalFound < len(ranked) {
		res.TotalFound = len(ranked)
	}
}

func (p *Pipeline) cancelled(res *SearchResult, tr *progressTracker) *SearchResult {
	res.Cancelled = true
	p.rec.Incr(engine.MetricCancelled)
	tr.complete("Search cancelled")
	return res
}

// analyze runs the analyzer over the first AnalysisLimit candidates.
// Failures are isolated: that candidate keeps its pre-analysis score.
func (p *Pipeline) analyze(ctx context.Context, cands []Candidate, interp Interpretation) map[string]Analysis {
	start := time.Now()
	defer func() { p.rec.Observe(string(StageAIAnalysis), time.Since(start)) }()

	top := cands[:min(len(cands), p.opts.AnalysisLimit)]
	out := make(map[string]Analysis, len(top))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.opts.AnalyzeConcurrency)

	for _, c := range top {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			a, err := p.analyzeOne(ctx, c, interp)
			if err != nil {
				p.rec.Incr(engine.MetricAnalysisFailures)
				p.log.Warn("candidate analysis failed",
					slog.String("candidate", c.ID),
					slog.Any("error", err))
				return nil
			}
			mu.Lock()
			out[c.ID] = a
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Pipeline) analyzeOne(ctx context.Context, c Candidate, interp Interpretation) (a Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer panicked: %v", r)
		}
	}()
	if p.opts.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.AnalyzeTimeout)
		defer cancel()
	}
	return p.deps.Analyzer.Analyze(ctx, c, interp)
}

// persist writes discovered and enriched candidates back to the store. Best effort.
func (p *Pipeline) persist(ctx context.Context, combined []Candidate) {
	if !p.opts.PersistDiscovered || p.deps.Writer == nil {
		return
	}
	var fresh []Candidate
	for _, c := range combined {
		if !c.OSINTLastFetched.IsZero() && c.SourceDetails.Platform != PlatformSample {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return
	}
	if err := p.deps.Writer.Upsert(ctx, fresh); err != nil {
		p.log.Warn("persist discovered candidates failed", slog.Int("count", len(fresh)), slog.Any("error", err))
	}
}

// fallbackResult is the guaranteed-valid result for a run that blew up.
func (p *Pipeline) fallbackResult(query string, tr *progressTracker) *SearchResult {
	interp := minimalInterpretation(query)
	samples := SampleCandidates()
	res := &SearchResult{
		Query:              query,
		Candidates:         samples,
		TotalFound:         len(samples),
		SearchQualityScore: qualityScore(samples),
		AIInterpretation:   interp.InterpretedIntent,
		DiversityMetrics:   Diversity(samples, nil),
		Interpretation:     &interp,
		Fallback:           true,
	}
	func() {
		// A panicking subscriber must not escape the fallback path.
		defer func() {
			if recover() != nil {
				tr.cb = nil
				tr.complete("Search completed with fallback results")
			}
		}()
		tr.complete("Search completed with fallback results")
	}()
	return res
}

func (p *Pipeline) recordRun(ctx context.Context, res *SearchResult, d time.Duration) {
	if p.deps.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	err := p.deps.History.RecordRun(ctx, RunRecord{
		RunID:          res.RunID,
		Query:          res.Query,
		TotalFound:     res.TotalFound,
		ShortCircuited: res.ShortCircuited,
		Cancelled:      res.Cancelled,
		Fallback:       res.Fallback,
		Duration:       d,
		CreatedAt:      p.now().UTC(),
	})
	if err != nil {
		p.rec.Incr(engine.MetricHistoryWriteErrors)
		p.log.Debug("run history write failed", slog.Any("error", err))
	}
}
