// Package talent implements AI talent discovery: query interpretation,
// per-platform search plans, internal candidate search, OSINT profile
// discovery, merge/dedup, analysis and ranking, and the staged pipeline
// that ties them together with progress reporting.
package talent

import (
	"errors"
	"time"
)

var (
	// ErrEmptyQuery is returned when a search is requested with a blank query.
	ErrEmptyQuery = errors.New("talent: empty query")
	// ErrInterpretationFailed wraps failures of the external interpretation service.
	ErrInterpretationFailed = errors.New("talent: interpretation failed")
	// ErrStoreUnavailable is returned when no candidate store is configured.
	ErrStoreUnavailable = errors.New("talent: candidate store unavailable")
	// ErrNoProfiles is returned by collectors that found nothing for a probe.
	ErrNoProfiles = errors.New("talent: no profiles found")
	// ErrUnknownPlatform is returned for profile payloads with an unrecognized platform tag.
	ErrUnknownPlatform = errors.New("talent: unknown platform")
)

// Category groups extracted requirements.
type Category string

const (
	CategorySkills     Category = "skills"
	CategoryExperience Category = "experience"
	CategoryLocation   Category = "location"
	CategoryIndustry   Category = "industry"
	CategoryCulture    Category = "culture"
)

// RequirementSource tells whether a requirement was stated or inferred.
type RequirementSource string

const (
	SourceExplicit RequirementSource = "explicit"
	SourceInferred RequirementSource = "inferred"
)

// Requirement is one structured fact extracted from a free-text hiring query.
type Requirement struct {
	Category   Category          `json:"category"`
	Value      string            `json:"value"`
	Importance float64           `json:"importance"`
	Source     RequirementSource `json:"source"`
}

// JobSpecification is the structured job description produced by interpretation.
type JobSpecification struct {
	JobTitle          string   `json:"job_title"`
	MustHaveSkills    []string `json:"must_have_skills"`
	NiceToHaveSkills  []string `json:"nice_to_have_skills"`
	YearsOfExperience string   `json:"years_of_experience"`
	Locations         []string `json:"locations"`
	Industries        []string `json:"industries"`
	WorkingModel      string   `json:"working_model,omitempty"`
}

// Interpretation is the immutable result of interpreting a query.
type Interpretation struct {
	Query             string           `json:"query"`
	InterpretedIntent string           `json:"interpreted_intent"`
	Requirements      []Requirement    `json:"extracted_requirements"`
	SearchStrategy    string           `json:"search_strategy"`
	Confidence        float64          `json:"confidence"`
	JobSpec           JobSpecification `json:"job_specification"`
	Fallback          bool             `json:"fallback,omitempty"`
}

// ByCategory returns the requirements of one category in their original order.
func (in Interpretation) ByCategory(c Category) []Requirement {
	var out []Requirement
	for _, r := range in.Requirements {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// Platform identifies a profile source.
type Platform string

const (
	PlatformLinkedIn      Platform = "linkedin"
	PlatformGitHub        Platform = "github"
	PlatformStackOverflow Platform = "stackoverflow"
	PlatformTwitter       Platform = "twitter"
	PlatformReddit        Platform = "reddit"
	PlatformDevTo         Platform = "devto"
	PlatformKaggle        Platform = "kaggle"
	PlatformMedium        Platform = "medium"
	PlatformInternal      Platform = "internal"
	PlatformSample        Platform = "sample"
)

// QueryType is the specificity level of a platform query.
type QueryType string

const (
	QueryBroad    QueryType = "broad"
	QueryTargeted QueryType = "targeted"
	QueryPrecise  QueryType = "precise"
)

// PlatformQuery is one generated search string for a platform.
type PlatformQuery struct {
	Type            QueryType `json:"type"`
	Query           string    `json:"query"`
	ExpectedResults string    `json:"expected_results"`
}

// SearchPlan holds per-platform queries derived from requirements.
type SearchPlan struct {
	Platforms            map[Platform][]PlatformQuery `json:"platforms"`
	TotalExpectedResults int                          `json:"totalExpectedResults"`
	ConfidenceScore      float64                      `json:"confidenceScore"`
}

// Query returns the query string of the given type for a platform, or "".
func (p SearchPlan) Query(platform Platform, t QueryType) string {
	for _, q := range p.Platforms[platform] {
		if q.Type == t {
			return q.Query
		}
	}
	return ""
}

// GitHubProfile is the GitHub slice of an OSINT profile.
type GitHubProfile struct {
	Username  string `json:"username,omitempty"`
	Repos     int    `json:"repos"`
	Stars     int    `json:"stars"`
	Commits   int    `json:"commits"`
	Followers int    `json:"followers"`
}

// LinkedInProfile is the LinkedIn slice of an OSINT profile.
type LinkedInProfile struct {
	Connections int    `json:"connections"`
	URL         string `json:"url,omitempty"`
}

// StackOverflowProfile is the StackOverflow slice of an OSINT profile.
type StackOverflowProfile struct {
	Username   string `json:"username,omitempty"`
	Reputation int    `json:"reputation"`
}

// TwitterProfile is the Twitter/X slice of an OSINT profile.
type TwitterProfile struct {
	Handle    string `json:"handle,omitempty"`
	Followers int    `json:"followers"`
	Tweets    int    `json:"tweets"`
}

// RedditProfile is the Reddit slice of an OSINT profile.
type RedditProfile struct {
	Username string `json:"username,omitempty"`
	Karma    int    `json:"karma"`
}

// DevToProfile is the dev.to slice of an OSINT profile.
type DevToProfile struct {
	Username  string `json:"username,omitempty"`
	Posts     int    `json:"posts"`
	Followers int    `json:"followers"`
}

// KaggleProfile is the Kaggle slice of an OSINT profile.
type KaggleProfile struct {
	Username string `json:"username,omitempty"`
	Tier     string `json:"tier,omitempty"`
	Medals   int    `json:"medals"`
}

// MediumProfile is the Medium slice of an OSINT profile.
type MediumProfile struct {
	Username  string `json:"username,omitempty"`
	Posts     int    `json:"posts"`
	Followers int    `json:"followers"`
}

// OSINTProfile aggregates public platform data. Absent platforms are zeroed.
type OSINTProfile struct {
	GitHub        GitHubProfile        `json:"github"`
	LinkedIn      LinkedInProfile      `json:"linkedin"`
	StackOverflow StackOverflowProfile `json:"stackoverflow"`
	Twitter       TwitterProfile       `json:"twitter"`
	Reddit        RedditProfile        `json:"reddit"`
	DevTo         DevToProfile         `json:"devto"`
	Kaggle        KaggleProfile        `json:"kaggle"`
	Medium        MediumProfile        `json:"medium"`
}

// SourceType tells where a candidate record came from.
type SourceType string

const (
	SourceInternal SourceType = "internal"
	SourceOSINT    SourceType = "osint"
)

// SourceDetails describes the provenance of a candidate record.
type SourceDetails struct {
	Type            SourceType `json:"type"`
	Platform        Platform   `json:"platform"`
	Verified        bool       `json:"verified"`
	ConfidenceScore float64    `json:"confidence_score"`
}

// AvailabilityStatus is derived from availability signals.
type AvailabilityStatus string

const (
	AvailabilityActive  AvailabilityStatus = "active"
	AvailabilityPassive AvailabilityStatus = "passive"
)

// Candidate is the canonical candidate record. Email is the dedup key.
type Candidate struct {
	ID                      string             `json:"id"`
	Name                    string             `json:"name"`
	Handle                  string             `json:"handle,omitempty"`
	Email                   string             `json:"email,omitempty"`
	Location                string             `json:"location,omitempty"`
	CurrentTitle            string             `json:"current_title,omitempty"`
	CurrentCompany          string             `json:"current_company,omitempty"`
	ExperienceYears         int                `json:"experience_years"`
	Skills                  []string           `json:"skills"`
	Bio                     string             `json:"bio,omitempty"`
	TechnicalDepthScore     float64            `json:"technical_depth_score"`
	CommunityInfluenceScore float64            `json:"community_influence_score"`
	LearningVelocityScore   float64            `json:"learning_velocity_score"`
	MatchScore              float64            `json:"match_score"`
	AvailabilityStatus      AvailabilityStatus `json:"availability_status,omitempty"`
	AvailabilitySignals     []string           `json:"availability_signals,omitempty"`
	OSINTProfile            OSINTProfile       `json:"osint_profile"`
	SourceDetails           SourceDetails      `json:"source_details"`
	ProfileLastUpdated      time.Time          `json:"profile_last_updated"`
	OSINTLastFetched        time.Time          `json:"osint_last_fetched"`
}

// Analysis is the per-candidate AI analysis. Computed per search, never persisted.
// Scores are on the same 0–10 scale as candidate scores.
type Analysis struct {
	CandidateID              string   `json:"candidateId"`
	AISummary                string   `json:"aiSummary"`
	TechnicalDepthScore      float64  `json:"technicalDepthScore"`
	SocialCredibilityScore   float64  `json:"socialCredibilityScore"`
	CommunityEngagementScore float64  `json:"communityEngagementScore"`
	AvailabilitySignals      []string `json:"availabilitySignals"`
	RiskFlags                []string `json:"riskFlags"`
}

// DiversityMetrics summarizes how varied a result set is.
type DiversityMetrics struct {
	Locations     int     `json:"locations"`
	Companies     int     `json:"companies"`
	Platforms     int     `json:"platforms"`
	Skills        int     `json:"skills"`
	SkillCoverage float64 `json:"skill_coverage"`
}

// DiscoveryStats reports what OSINT discovery did.
type DiscoveryStats struct {
	Probes    int  `json:"probes"`
	Calls     int  `json:"calls"`
	Failures  int  `json:"failures"`
	Profiles  int  `json:"profiles"`
	Cancelled bool `json:"cancelled,omitempty"`
}

// SearchResult is what a pipeline run (or the internal search stage alone) returns.
type SearchResult struct {
	RunID                string           `json:"run_id,omitempty"`
	Query                string           `json:"query,omitempty"`
	Candidates           []Candidate      `json:"candidates"`
	TotalFound           int              `json:"total_found"`
	SearchQualityScore   float64          `json:"search_quality_score"`
	AIInterpretation     string           `json:"ai_interpretation"`
	SuggestedRefinements []string         `json:"suggested_refinements"`
	DiversityMetrics     DiversityMetrics `json:"diversity_metrics"`
	Interpretation       *Interpretation  `json:"interpretation,omitempty"`
	Plan                 *SearchPlan      `json:"plan,omitempty"`
	Discovery            *DiscoveryStats  `json:"discovery,omitempty"`
	ShortCircuited       bool             `json:"short_circuited,omitempty"`
	Cancelled            bool             `json:"cancelled,omitempty"`
	Fallback             bool             `json:"fallback,omitempty"`
	Progress             Progress         `json:"progress"`
}
