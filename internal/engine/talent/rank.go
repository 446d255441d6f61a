package talent

import (
	"math"
	"sort"
)

// AnalysisLimit is how many combined candidates get an analysis pass.
const AnalysisLimit = 5

// FinalScore recomputes a match score from an analysis:
// base + 0.3*technical + 0.2*social + 0.2*community + 10 when availability
// signals exist, minus 5 per risk flag, clamped to [0,100].
func FinalScore(base float64, a Analysis) float64 {
	s := base +
		0.3*a.TechnicalDepthScore +
		0.2*a.SocialCredibilityScore +
		0.2*a.CommunityEngagementScore
	if len(a.AvailabilitySignals) > 0 {
		s += 10
	}
	s -= 5 * float64(len(a.RiskFlags))
	return math.Round(clamp(s, 0, 100)*10) / 10
}

// Rank applies analyses (keyed by candidate id) to match scores and sorts
// descending. Candidates without an analysis keep their score. Ties keep
// input order. The input slice is not modified.
func Rank(cands []Candidate, analyses map[string]Analysis) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	for i := range out {
		c := &out[i]
		if a, ok := analyses[c.ID]; ok {
			c.MatchScore = FinalScore(c.MatchScore, a)
			c.AvailabilitySignals = unionSkills(c.AvailabilitySignals, a.AvailabilitySignals)
			c.AvailabilityStatus = availabilityStatus(c.AvailabilitySignals)
		}
		c.MatchScore = clamp(c.MatchScore, 0, 100)
		c.TechnicalDepthScore = clamp(c.TechnicalDepthScore, 0, 10)
		c.CommunityInfluenceScore = clamp(c.CommunityInfluenceScore, 0, 10)
		c.LearningVelocityScore = clamp(c.LearningVelocityScore, 0, 10)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out
}
