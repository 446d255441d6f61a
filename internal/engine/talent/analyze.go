package talent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

// Analyzer produces an Analysis for one candidate against an interpretation.
type Analyzer interface {
	Analyze(ctx context.Context, c Candidate, interp Interpretation) (Analysis, error)
}

// staleProfileAge marks a profile as stale in risk flags.
const staleProfileAge = 18 * 30 * 24 * time.Hour

// HeuristicAnalyzer scores candidates from profile data alone.
type HeuristicAnalyzer struct {
	Now func() time.Time
}

// Analyze implements Analyzer. Deterministic for a fixed clock.
func (h HeuristicAnalyzer) Analyze(_ context.Context, c Candidate, interp Interpretation) (Analysis, error) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	required := requiredSkills(interp)
	covered := coveredSkills(c.Skills, required)

	coverage := 1.0
	if len(required) > 0 {
		coverage = float64(len(covered)) / float64(len(required))
	}

	o := c.OSINTProfile
	social := 5 +
		math.Min(float64(o.LinkedIn.Connections)/500, 2) +
		math.Min(float64(o.Twitter.Followers)/1000, 1) +
		math.Min(float64(o.StackOverflow.Reputation)/5000, 1)
	if c.SourceDetails.Verified {
		social++
	}

	var risks []string
	if strings.TrimSpace(c.Email) == "" {
		risks = append(risks, "no contact email")
	}
	if len(required) > 0 && len(covered) == 0 {
		risks = append(risks, "none of the required skills listed")
	}
	if f := BuildFilters(interp); f.MinExperienceYears != nil && c.ExperienceYears < *f.MinExperienceYears {
		risks = append(risks, fmt.Sprintf("%d years of experience, %d+ requested", c.ExperienceYears, *f.MinExperienceYears))
	}
	if !c.ProfileLastUpdated.IsZero() && now().Sub(c.ProfileLastUpdated) > staleProfileAge {
		risks = append(risks, "profile not updated in over 18 months")
	}

	return Analysis{
		CandidateID:              c.ID,
		AISummary:                heuristicSummary(c, covered, required),
		TechnicalDepthScore:      round1(clamp(c.TechnicalDepthScore*0.8+coverage*2, 0, 10)),
		SocialCredibilityScore:   round1(clamp(social, 0, 10)),
		CommunityEngagementScore: round1(clamp(c.CommunityInfluenceScore, 0, 10)),
		AvailabilitySignals:      append([]string(nil), c.AvailabilitySignals...),
		RiskFlags:                risks,
	}, nil
}

func heuristicSummary(c Candidate, covered, required []string) string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	if c.CurrentTitle != "" {
		sb.WriteString(", " + c.CurrentTitle)
		if c.CurrentCompany != "" {
			sb.WriteString(" at " + c.CurrentCompany)
		}
	}
	fmt.Fprintf(&sb, ". %d years of experience", c.ExperienceYears)
	if len(required) > 0 {
		fmt.Fprintf(&sb, ", covers %d of %d required skills", len(covered), len(required))
		if len(covered) > 0 {
			sb.WriteString(" (" + strings.Join(covered, ", ") + ")")
		}
	}
	sb.WriteString(".")
	if c.AvailabilityStatus == AvailabilityActive {
		sb.WriteString(" Actively looking.")
	}
	return sb.String()
}

// requiredSkills are the explicit skill requirements of an interpretation.
func requiredSkills(interp Interpretation) []string {
	var out []string
	for _, r := range interp.ByCategory(CategorySkills) {
		if r.Source == SourceExplicit {
			out = append(out, r.Value)
		}
	}
	return out
}

func coveredSkills(have, want []string) []string {
	var out []string
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

const analyzePrompt = `You are a senior technical recruiter. Assess how well this candidate fits the hiring request.

Hiring request: %s
Requirements: %s

Candidate:
%s

Return a JSON object with this exact structure:
{
  "aiSummary": "<2-3 sentence assessment>",
  "technicalDepthScore": <0-10>,
  "socialCredibilityScore": <0-10>,
  "communityEngagementScore": <0-10>,
  "availabilitySignals": [<evidence the candidate is open to a move>],
  "riskFlags": [<concrete concerns, empty if none>]
}

Return ONLY the JSON object, no markdown, no explanation.`

// LLMAnalyzer asks an LLM for the analysis.
type LLMAnalyzer struct {
	complete CompleteFunc
}

// NewLLMAnalyzer builds an LLM analyzer. A nil complete uses engine.CallLLM.
func NewLLMAnalyzer(complete CompleteFunc) *LLMAnalyzer {
	if complete == nil {
		complete = engine.CallLLM
	}
	return &LLMAnalyzer{complete: complete}
}

// analysisView is the candidate subset sent to the LLM.
type analysisView struct {
	Name            string       `json:"name"`
	Title           string       `json:"title,omitempty"`
	Company         string       `json:"company,omitempty"`
	Location        string       `json:"location,omitempty"`
	ExperienceYears int          `json:"experience_years"`
	Skills          []string     `json:"skills"`
	Bio             string       `json:"bio,omitempty"`
	Signals         []string     `json:"availability_signals,omitempty"`
	OSINT           OSINTProfile `json:"osint_profile"`
}

// Analyze implements Analyzer.
func (l *LLMAnalyzer) Analyze(ctx context.Context, c Candidate, interp Interpretation) (Analysis, error) {
	view, err := json.MarshalIndent(analysisView{
		Name:            c.Name,
		Title:           c.CurrentTitle,
		Company:         c.CurrentCompany,
		Location:        c.Location,
		ExperienceYears: c.ExperienceYears,
		Skills:          c.Skills,
		Bio:             engine.TruncateAtWord(c.Bio, 500),
		Signals:         c.AvailabilitySignals,
		OSINT:           c.OSINTProfile,
	}, "", "  ")
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze: encode candidate: %w", err)
	}
	reqs := make([]string, 0, len(interp.Requirements))
	for _, r := range interp.Requirements {
		reqs = append(reqs, fmt.Sprintf("%s=%s", r.Category, r.Value))
	}

	raw, err := l.complete(ctx, fmt.Sprintf(analyzePrompt, interp.Query, strings.Join(reqs, "; "), view))
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze llm: %w", err)
	}
	a, err := engine.DecodeLLMJSON[Analysis](raw)
	if err != nil {
		return Analysis{}, err
	}
	a.CandidateID = c.ID
	a.TechnicalDepthScore = clamp(a.TechnicalDepthScore, 0, 10)
	a.SocialCredibilityScore = clamp(a.SocialCredibilityScore, 0, 10)
	a.CommunityEngagementScore = clamp(a.CommunityEngagementScore, 0, 10)
	return a, nil
}

// FallbackAnalyzer tries primary and falls back to secondary on error.
type FallbackAnalyzer struct {
	Primary   Analyzer
	Secondary Analyzer
}

// Analyze implements Analyzer.
func (f FallbackAnalyzer) Analyze(ctx context.Context, c Candidate, interp Interpretation) (Analysis, error) {
	a, err := f.Primary.Analyze(ctx, c, interp)
	if err == nil || f.Secondary == nil || ctx.Err() != nil {
		return a, err
	}
	return f.Secondary.Analyze(ctx, c, interp)
}
