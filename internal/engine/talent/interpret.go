package talent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

// Requirement importance weights for mapped job specifications.
const (
	weightMustHave   = 0.9
	weightNiceToHave = 0.6
	weightExperience = 0.8
	weightLocation   = 0.7
	weightIndustry   = 0.7

	fallbackConfidence = 0.6
)

const defaultSearchStrategy = "hybrid: internal candidate database first, OSINT discovery on LinkedIn, GitHub and StackOverflow when fewer than 5 matches"

// InterpretationService turns a free-text query into a job specification and
// a confidence score. Implementations call out to an external service.
type InterpretationService interface {
	Interpret(ctx context.Context, query string) (JobSpecification, float64, error)
}

// Interpreter produces an Interpretation for a query, falling back to local
// keyword matching when the service is missing, slow or failing.
type Interpreter struct {
	svc     InterpretationService
	history HistoryStore
	rec     Recorder
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// InterpreterConfig configures NewInterpreter. Every field is optional.
type InterpreterConfig struct {
	Service  InterpretationService
	History  HistoryStore
	Recorder Recorder
	Logger   *slog.Logger
	Timeout  time.Duration
}

// NewInterpreter builds an Interpreter.
func NewInterpreter(c InterpreterConfig) *Interpreter {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Interpreter{
		svc:     c.Service,
		history: c.History,
		rec:     recorderOrNop(c.Recorder),
		log:     log,
		timeout: c.Timeout,
		now:     time.Now,
	}
}

// Interpret never fails: any service error yields the local fallback.
func (in *Interpreter) Interpret(ctx context.Context, query string) Interpretation {
	start := in.now()
	defer func() { in.rec.Observe(string(StageInterpreting), time.Since(start)) }()

	query = strings.TrimSpace(query)
	interp, err := in.interpretRemote(ctx, query)
	if err != nil {
		in.rec.Incr(engine.MetricInterpretFallbacks)
		in.log.Warn("interpretation service failed, using keyword fallback",
			slog.String("query", engine.TruncateRunes(query, 120, "...")),
			slog.Any("error", err))
		return FallbackInterpretation(query)
	}

	in.recordHistory(ctx, interp)
	return interp
}

func (in *Interpreter) interpretRemote(ctx context.Context, query string) (Interpretation, error) {
	if query == "" {
		return Interpretation{}, ErrEmptyQuery
	}
	if in.svc == nil {
		return Interpretation{}, fmt.Errorf("%w: no service configured", ErrInterpretationFailed)
	}
	if in.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.timeout)
		defer cancel()
	}
	spec, confidence, err := in.svc.Interpret(ctx, query)
	if err != nil {
		return Interpretation{}, fmt.Errorf("%w: %w", ErrInterpretationFailed, err)
	}
	return FromJobSpec(query, spec, clamp(confidence, 0, 1)), nil
}

// recordHistory logs a successful interpretation. Best effort.
func (in *Interpreter) recordHistory(ctx context.Context, interp Interpretation) {
	if in.history == nil {
		return
	}
	err := in.history.RecordInterpretation(ctx, QueryRecord{
		Query:        interp.Query,
		Intent:       interp.InterpretedIntent,
		Confidence:   interp.Confidence,
		Fallback:     interp.Fallback,
		Requirements: len(interp.Requirements),
		CreatedAt:    in.now().UTC(),
	})
	if err != nil {
		in.rec.Incr(engine.MetricHistoryWriteErrors)
		in.log.Debug("query history write failed", slog.Any("error", err))
	}
}

// FromJobSpec maps a job specification into requirements and builds the
// interpretation around them.
func FromJobSpec(query string, spec JobSpecification, confidence float64) Interpretation {
	var reqs []Requirement
	add := func(c Category, values []string, w float64, src RequirementSource) {
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				reqs = append(reqs, Requirement{Category: c, Value: v, Importance: w, Source: src})
			}
		}
	}
	add(CategorySkills, spec.MustHaveSkills, weightMustHave, SourceExplicit)
	add(CategorySkills, spec.NiceToHaveSkills, weightNiceToHave, SourceInferred)
	if spec.YearsOfExperience != "" {
		add(CategoryExperience, []string{spec.YearsOfExperience}, weightExperience, SourceExplicit)
	}
	add(CategoryLocation, spec.Locations, weightLocation, SourceExplicit)
	add(CategoryIndustry, spec.Industries, weightIndustry, SourceExplicit)

	return Interpretation{
		Query:             query,
		InterpretedIntent: describeIntent(spec),
		Requirements:      reqs,
		SearchStrategy:    defaultSearchStrategy,
		Confidence:        confidence,
		JobSpec:           spec,
	}
}

// describeIntent renders a one-sentence summary of the hiring intent.
func describeIntent(spec JobSpecification) string {
	title := spec.JobTitle
	if title == "" {
		title = "Software Engineer"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Looking for a %s", title)
	if len(spec.MustHaveSkills) > 0 {
		fmt.Fprintf(&sb, " skilled in %s", strings.Join(spec.MustHaveSkills, ", "))
	}
	if spec.YearsOfExperience != "" {
		fmt.Fprintf(&sb, " with %s of experience", spec.YearsOfExperience)
	}
	if len(spec.Locations) > 0 {
		fmt.Fprintf(&sb, " in %s", strings.Join(spec.Locations, " or "))
	}
	if len(spec.Industries) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(spec.Industries, ", "))
	}
	return sb.String()
}

// minimalInterpretation is used when the whole pipeline has to bail out.
func minimalInterpretation(query string) Interpretation {
	return Interpretation{
		Query:             query,
		InterpretedIntent: "Searching for: " + query,
		SearchStrategy:    "fallback: sample candidates",
		Confidence:        0.3,
		Fallback:          true,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
