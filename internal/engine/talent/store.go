package talent

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

// ShortCircuitThreshold is the internal result count at which OSINT discovery is skipped.
const ShortCircuitThreshold = 5

// Filters narrows a candidate store query.
type Filters struct {
	Skills             []string `json:"skills,omitempty"`
	MinExperienceYears *int     `json:"experience_years,omitempty"`
	Location           string   `json:"location,omitempty"`
}

// StoreQuery is a request to the candidate store.
type StoreQuery struct {
	Query   string  `json:"query"`
	Filters Filters `json:"filters"`
	Limit   int     `json:"limit"`
}

// StoreResult is what a candidate store returns.
type StoreResult struct {
	Candidates         []Candidate `json:"candidates"`
	TotalFound         int         `json:"total_found"`
	SearchQualityScore float64     `json:"search_quality_score"`
}

// CandidateStore is the persistence backend searched before OSINT discovery.
type CandidateStore interface {
	Search(ctx context.Context, q StoreQuery) (StoreResult, error)
}

// CandidateWriter persists candidates. Optional capability of a store.
type CandidateWriter interface {
	Upsert(ctx context.Context, cands []Candidate) error
}

// InternalSearcher runs the internal store stage of the pipeline.
type InternalSearcher interface {
	Search(ctx context.Context, interp Interpretation) SearchResult
}

// BuildFilters derives store filters from an interpretation. "Remote" is a
// working model rather than a place and is not used as a location filter.
func BuildFilters(interp Interpretation) Filters {
	var f Filters
	for _, r := range interp.ByCategory(CategorySkills) {
		f.Skills = append(f.Skills, r.Value)
	}
	for _, r := range interp.ByCategory(CategoryExperience) {
		if n := parseMinYears(r.Value); n > 0 {
			f.MinExperienceYears = &n
			break
		}
	}
	for _, r := range interp.ByCategory(CategoryLocation) {
		if !strings.EqualFold(r.Value, "remote") {
			f.Location = r.Value
			break
		}
	}
	return f
}

// InternalSearch queries the candidate store and substitutes sample
// candidates when the store fails or finds nothing.
type InternalSearch struct {
	store CandidateStore
	limit int
	rec   Recorder
	log   *slog.Logger
}

// NewInternalSearch builds the internal search stage. store may be nil.
func NewInternalSearch(store CandidateStore, limit int, rec Recorder, log *slog.Logger) *InternalSearch {
	if limit <= 0 {
		limit = 20
	}
	if log == nil {
		log = slog.Default()
	}
	return &InternalSearch{store: store, limit: limit, rec: recorderOrNop(rec), log: log}
}

// Search implements InternalSearcher.
func (s *InternalSearch) Search(ctx context.Context, interp Interpretation) SearchResult {
	start := time.Now()
	defer func() { s.rec.Observe(string(StageSearchingDB), time.Since(start)) }()

	filters := BuildFilters(interp)
	res, err := s.query(ctx, StoreQuery{Query: interp.Query, Filters: filters, Limit: s.limit})
	if err != nil || len(res.Candidates) == 0 {
		s.rec.Incr(engine.MetricStoreFallbacks)
		if err != nil {
			s.log.Warn("candidate store search failed, using sample candidates", slog.Any("error", err))
		} else {
			s.log.Info("candidate store returned no rows, using sample candidates",
				slog.String("query", engine.TruncateRunes(interp.Query, 120, "...")))
		}
		samples := SampleCandidates()
		res = StoreResult{Candidates: samples, TotalFound: len(samples)}
	}

	quality := res.SearchQualityScore
	if quality <= 0 {
		quality = qualityScore(res.Candidates)
	}
	return SearchResult{
		Query:                interp.Query,
		Candidates:           res.Candidates,
		TotalFound:           max(res.TotalFound, len(res.Candidates)),
		SearchQualityScore:   quality,
		AIInterpretation:     interp.InterpretedIntent,
		SuggestedRefinements: suggestRefinements(interp, filters, len(res.Candidates)),
		DiversityMetrics:     Diversity(res.Candidates, filters.Skills),
	}
}

func (s *InternalSearch) query(ctx context.Context, q StoreQuery) (StoreResult, error) {
	if s.store == nil {
		return StoreResult{}, ErrStoreUnavailable
	}
	res, err := s.store.Search(ctx, q)
	if err != nil {
		return StoreResult{}, fmt.Errorf("candidate store: %w", err)
	}
	return res, nil
}

// qualityScore is the mean match score of a result set on a 0–1 scale.
func qualityScore(cands []Candidate) float64 {
	if len(cands) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cands {
		sum += c.MatchScore
	}
	return math.Round(sum/float64(len(cands))) / 100
}

func suggestRefinements(interp Interpretation, f Filters, found int) []string {
	var out []string
	if found >= ShortCircuitThreshold {
		return out
	}
	if f.Location != "" {
		out = append(out, fmt.Sprintf("Include remote candidates or widen the location beyond %s", f.Location))
	}
	if len(f.Skills) > 3 {
		out = append(out, "Move some must-have skills to nice-to-have to widen the pool")
	}
	if f.MinExperienceYears != nil && *f.MinExperienceYears >= 5 {
		out = append(out, "Consider candidates with fewer years of experience and strong growth signals")
	}
	if len(f.Skills) == 0 {
		out = append(out, "Add specific skills or technologies to the query")
	}
	if len(interp.ByCategory(CategoryIndustry)) > 0 {
		out = append(out, "Drop the industry requirement to include adjacent domains")
	}
	if len(out) == 0 {
		out = append(out, "Add related technologies as nice-to-have skills to widen the pool")
	}
	return out
}

// Diversity computes distinct-value counts for a result set and how many of
// the required skills at least one candidate covers.
func Diversity(cands []Candidate, required []string) DiversityMetrics {
	locs, companies, platforms, skills := map[string]bool{}, map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, c := range cands {
		if c.Location != "" {
			locs[strings.ToLower(c.Location)] = true
		}
		if c.CurrentCompany != "" {
			companies[strings.ToLower(c.CurrentCompany)] = true
		}
		if c.SourceDetails.Platform != "" {
			platforms[string(c.SourceDetails.Platform)] = true
		}
		for _, s := range c.Skills {
			skills[strings.ToLower(s)] = true
		}
	}
	m := DiversityMetrics{Locations: len(locs), Companies: len(companies), Platforms: len(platforms), Skills: len(skills)}
	if len(required) > 0 {
		covered := 0
		for _, r := range required {
			if skills[strings.ToLower(r)] {
				covered++
			}
		}
		m.SkillCoverage = math.Round(float64(covered)/float64(len(required))*100) / 100
	}
	return m
}

// SampleCandidates returns the fixed fallback set shown when the store has
// nothing. Every call returns fresh copies.
func SampleCandidates() []Candidate {
	return []Candidate{
		{
			ID: "sample-1", Name: "Alex Morgan", Handle: "alexmorgan", Email: "alex.morgan@example.com",
			Location: "San Francisco, CA", CurrentTitle: "Senior Frontend Engineer", CurrentCompany: "Example Corp",
			ExperienceYears: 7, Skills: []string{"React", "TypeScript", "Node.js"},
			Bio:                 "Frontend engineer focused on design systems and performance.",
			TechnicalDepthScore: 8, CommunityInfluenceScore: 6, LearningVelocityScore: 7, MatchScore: 82,
			AvailabilityStatus: AvailabilityPassive,
			SourceDetails:      SourceDetails{Type: SourceInternal, Platform: PlatformSample, ConfidenceScore: 0.5},
		},
		{
			ID: "sample-2", Name: "Priya Raman", Handle: "praman", Email: "priya.raman@example.com",
			Location: "Remote", CurrentTitle: "Backend Engineer", CurrentCompany: "Sample Labs",
			ExperienceYears: 5, Skills: []string{"Python", "Go", "PostgreSQL"},
			Bio:                 "Backend engineer building data-heavy APIs.",
			TechnicalDepthScore: 7, CommunityInfluenceScore: 5, LearningVelocityScore: 8, MatchScore: 76,
			AvailabilityStatus: AvailabilityActive, AvailabilitySignals: []string{"open to new opportunities"},
			SourceDetails:      SourceDetails{Type: SourceInternal, Platform: PlatformSample, ConfidenceScore: 0.5},
		},
		{
			ID: "sample-3", Name: "Jordan Lee", Handle: "jlee", Email: "jordan.lee@example.com",
			Location: "London, UK", CurrentTitle: "Machine Learning Engineer", CurrentCompany: "Demo AI",
			ExperienceYears: 4, Skills: []string{"Python", "Machine Learning", "PyTorch"},
			Bio:                 "ML engineer shipping recommendation models.",
			TechnicalDepthScore: 7, CommunityInfluenceScore: 4, LearningVelocityScore: 9, MatchScore: 71,
			AvailabilityStatus: AvailabilityPassive,
			SourceDetails:      SourceDetails{Type: SourceInternal, Platform: PlatformSample, ConfidenceScore: 0.5},
		},
	}
}

// MemoryStore is an in-memory CandidateStore, used when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	cands []Candidate
}

// NewMemoryStore builds a store holding the given candidates.
func NewMemoryStore(cands ...Candidate) *MemoryStore {
	return &MemoryStore{cands: append([]Candidate(nil), cands...)}
}

// Search implements CandidateStore with the same filter semantics as PGStore.
func (m *MemoryStore) Search(_ context.Context, q StoreQuery) (StoreResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Candidate
	for _, c := range m.cands {
		if matchesFilters(c, q.Filters) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	total := len(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return StoreResult{Candidates: out, TotalFound: total}, nil
}

// Upsert implements CandidateWriter, keyed by normalized email (or id).
func (m *MemoryStore) Upsert(_ context.Context, cands []Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range cands {
		replaced := false
		for i := range m.cands {
			if dedupKey(m.cands[i]) == dedupKey(c) {
				m.cands[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			m.cands = append(m.cands, c)
		}
	}
	return nil
}

// matchesFilters applies skills-overlap, minimum-years and location-substring filters.
func matchesFilters(c Candidate, f Filters) bool {
	if len(f.Skills) > 0 && !skillsOverlap(c.Skills, f.Skills) {
		return false
	}
	if f.MinExperienceYears != nil && c.ExperienceYears < *f.MinExperienceYears {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(c.Location), strings.ToLower(f.Location)) {
		return false
	}
	return true
}

func skillsOverlap(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
