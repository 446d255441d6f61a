package talent

import (
	"math"
	"strings"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

// dedupKey is the lower-cased email, or the id for records without one.
func dedupKey(c Candidate) string {
	if e := engine.NormalizeEmail(c.Email); e != "" {
		return e
	}
	return "id:" + c.ID
}

// Combine deduplicates internal and discovered candidates by email.
// Internal records come first and act as the base; any later record with the
// same key is merged into the earlier one rather than appended.
func Combine(internal, osint []Candidate) []Candidate {
	out := make([]Candidate, 0, len(internal)+len(osint))
	index := make(map[string]int, len(internal)+len(osint))
	add := func(c Candidate) {
		key := dedupKey(c)
		if i, ok := index[key]; ok {
			out[i] = mergeCandidate(out[i], c)
			return
		}
		index[key] = len(out)
		c.Skills = unionSkills(nil, c.Skills)
		out = append(out, c)
	}
	for _, c := range internal {
		add(c)
	}
	for _, c := range osint {
		add(c)
	}
	return out
}

// mergeCandidate folds other into base. Scores take the max of both sides,
// skills and availability signals are unioned, blank base fields are filled,
// and OSINT data is overwritten by the fresher side.
func mergeCandidate(base, other Candidate) Candidate {
	base.TechnicalDepthScore = math.Max(base.TechnicalDepthScore, other.TechnicalDepthScore)
	base.CommunityInfluenceScore = math.Max(base.CommunityInfluenceScore, other.CommunityInfluenceScore)
	base.LearningVelocityScore = math.Max(base.LearningVelocityScore, other.LearningVelocityScore)
	base.MatchScore = math.Max(base.MatchScore, other.MatchScore)
	base.Skills = unionSkills(base.Skills, other.Skills)
	base.AvailabilitySignals = unionSkills(base.AvailabilitySignals, other.AvailabilitySignals)
	base.AvailabilityStatus = availabilityStatus(base.AvailabilitySignals)
	if base.ExperienceYears == 0 {
		base.ExperienceYears = other.ExperienceYears
	}

	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fill(&base.Name, other.Name)
	fill(&base.Handle, other.Handle)
	fill(&base.Email, other.Email)
	fill(&base.Location, other.Location)
	fill(&base.CurrentTitle, other.CurrentTitle)
	fill(&base.CurrentCompany, other.CurrentCompany)
	fill(&base.Bio, other.Bio)

	fresher := other.SourceDetails.Type == SourceOSINT || other.OSINTLastFetched.After(base.OSINTLastFetched)
	if fresher {
		base.OSINTProfile = overlayOSINT(base.OSINTProfile, other.OSINTProfile)
		if other.OSINTLastFetched.After(base.OSINTLastFetched) {
			base.OSINTLastFetched = other.OSINTLastFetched
		}
	}
	return base
}

// overlayOSINT replaces every platform sub-record that other populates.
func overlayOSINT(base, other OSINTProfile) OSINTProfile {
	if other.GitHub != (GitHubProfile{}) {
		base.GitHub = other.GitHub
	}
	if other.LinkedIn != (LinkedInProfile{}) {
		base.LinkedIn = other.LinkedIn
	}
	if other.StackOverflow != (StackOverflowProfile{}) {
		base.StackOverflow = other.StackOverflow
	}
	if other.Twitter != (TwitterProfile{}) {
		base.Twitter = other.Twitter
	}
	if other.Reddit != (RedditProfile{}) {
		base.Reddit = other.Reddit
	}
	if other.DevTo != (DevToProfile{}) {
		base.DevTo = other.DevTo
	}
	if other.Kaggle != (KaggleProfile{}) {
		base.Kaggle = other.Kaggle
	}
	if other.Medium != (MediumProfile{}) {
		base.Medium = other.Medium
	}
	return base
}

// unionSkills appends the values of extra not already in base, compared
// case-insensitively. Blank values are dropped. Base order is kept.
func unionSkills(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			k := strings.ToLower(s)
			if s == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, s)
		}
	}
	return out
}
