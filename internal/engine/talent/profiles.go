package talent

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProfileCommon holds the fields every platform payload carries.
type ProfileCommon struct {
	Name                string
	Handle              string
	Email               string
	Location            string
	Title               string
	Company             string
	Bio                 string
	Skills              []string
	ConfidenceScore     float64
	Verified            bool
	AvailabilitySignals []string
	// Experience is the stated years of experience; nil when unknown.
	Experience *int
	// JoinDate is the account creation time; zero when unknown.
	JoinDate time.Time
	// TechnicalHint and InfluenceHint are collector-supplied scores (0–10).
	TechnicalHint float64
	InfluenceHint float64
}

// Base returns the common part of a payload.
func (c ProfileCommon) Base() ProfileCommon { return c }

// PlatformProfile is a discovered profile. Each platform has its own
// concrete payload type; NormalizeProfile switches over all of them.
type PlatformProfile interface {
	Platform() Platform
	Base() ProfileCommon
}

type GitHubPayload struct {
	ProfileCommon
	Repos     int
	Stars     int
	Commits   int
	Followers int
}

type LinkedInPayload struct {
	ProfileCommon
	Connections int
	URL         string
}

type StackOverflowPayload struct {
	ProfileCommon
	Reputation int
	Answers    int
}

type TwitterPayload struct {
	ProfileCommon
	Followers int
	Tweets    int
}

type RedditPayload struct {
	ProfileCommon
	Karma int
}

type DevToPayload struct {
	ProfileCommon
	Posts     int
	Followers int
}

type KagglePayload struct {
	ProfileCommon
	Tier   string
	Medals int
}

type MediumPayload struct {
	ProfileCommon
	Posts     int
	Followers int
}

func (GitHubPayload) Platform() Platform        { return PlatformGitHub }
func (LinkedInPayload) Platform() Platform      { return PlatformLinkedIn }
func (StackOverflowPayload) Platform() Platform { return PlatformStackOverflow }
func (TwitterPayload) Platform() Platform       { return PlatformTwitter }
func (RedditPayload) Platform() Platform        { return PlatformReddit }
func (DevToPayload) Platform() Platform         { return PlatformDevTo }
func (KagglePayload) Platform() Platform        { return PlatformKaggle }
func (MediumPayload) Platform() Platform        { return PlatformMedium }

// profileMetrics are the platform-neutral counters the score formulas read.
type profileMetrics struct {
	repos, followers, reputation, connections, posts, commits int
}

// adapt extracts metrics and the OSINT sub-record from a payload.
func adapt(p PlatformProfile) (profileMetrics, OSINTProfile, error) {
	var m profileMetrics
	var o OSINTProfile
	switch v := p.(type) {
	case GitHubPayload:
		m = profileMetrics{repos: v.Repos, followers: v.Followers, commits: v.Commits}
		o.GitHub = GitHubProfile{Username: v.Handle, Repos: v.Repos, Stars: v.Stars, Commits: v.Commits, Followers: v.Followers}
	case LinkedInPayload:
		m = profileMetrics{connections: v.Connections}
		o.LinkedIn = LinkedInProfile{Connections: v.Connections, URL: v.URL}
	case StackOverflowPayload:
		m = profileMetrics{reputation: v.Reputation}
		o.StackOverflow = StackOverflowProfile{Username: v.Handle, Reputation: v.Reputation}
	case TwitterPayload:
		m = profileMetrics{followers: v.Followers}
		o.Twitter = TwitterProfile{Handle: v.Handle, Followers: v.Followers, Tweets: v.Tweets}
	case RedditPayload:
		o.Reddit = RedditProfile{Username: v.Handle, Karma: v.Karma}
	case DevToPayload:
		m = profileMetrics{followers: v.Followers, posts: v.Posts}
		o.DevTo = DevToProfile{Username: v.Handle, Posts: v.Posts, Followers: v.Followers}
	case KagglePayload:
		o.Kaggle = KaggleProfile{Username: v.Handle, Tier: v.Tier, Medals: v.Medals}
	case MediumPayload:
		m = profileMetrics{followers: v.Followers, posts: v.Posts}
		o.Medium = MediumProfile{Username: v.Handle, Posts: v.Posts, Followers: v.Followers}
	default:
		return m, o, fmt.Errorf("%w: %T", ErrUnknownPlatform, p)
	}
	return m, o, nil
}

// NormalizeProfile converts a platform payload into a candidate record.
func NormalizeProfile(p PlatformProfile, now time.Time) (Candidate, error) {
	if p == nil {
		return Candidate{}, fmt.Errorf("%w: nil profile", ErrUnknownPlatform)
	}
	m, osint, err := adapt(p)
	if err != nil {
		return Candidate{}, err
	}
	b := p.Base()

	c := Candidate{
		ID:                      candidateID(p.Platform(), b.Handle),
		Name:                    strings.TrimSpace(b.Name),
		Handle:                  b.Handle,
		Email:                   strings.TrimSpace(b.Email),
		Location:                b.Location,
		CurrentTitle:            b.Title,
		CurrentCompany:          b.Company,
		ExperienceYears:         experienceYears(b, now),
		Skills:                  unionSkills(nil, b.Skills),
		Bio:                     b.Bio,
		TechnicalDepthScore:     math.Max(technicalDepth(m), clamp(b.TechnicalHint, 0, 10)),
		CommunityInfluenceScore: math.Max(communityInfluence(m), clamp(b.InfluenceHint, 0, 10)),
		LearningVelocityScore:   learningVelocity(m),
		MatchScore:              osintMatchScore(m, b.AvailabilitySignals),
		AvailabilityStatus:      availabilityStatus(b.AvailabilitySignals),
		AvailabilitySignals:     append([]string(nil), b.AvailabilitySignals...),
		OSINTProfile:            osint,
		SourceDetails: SourceDetails{
			Type:            SourceOSINT,
			Platform:        p.Platform(),
			Verified:        b.Verified,
			ConfidenceScore: clamp(b.ConfidenceScore, 0, 1),
		},
		ProfileLastUpdated: now,
		OSINTLastFetched:   now,
	}
	if c.Name == "" {
		c.Name = b.Handle
	}
	return c, nil
}

func candidateID(p Platform, handle string) string {
	if handle = strings.TrimSpace(handle); handle == "" {
		return "osint:" + uuid.NewString()
	}
	return "osint:" + string(p) + ":" + strings.ToLower(handle)
}

// experienceYears prefers the stated value, then account age clamped to
// [1,15], then 5.
func experienceYears(b ProfileCommon, now time.Time) int {
	if b.Experience != nil && *b.Experience >= 0 {
		return *b.Experience
	}
	if !b.JoinDate.IsZero() && b.JoinDate.Before(now) {
		years := int(now.Sub(b.JoinDate).Hours() / 24 / 365)
		return min(max(years, 1), 15)
	}
	return 5
}

func technicalDepth(m profileMetrics) float64 {
	s := 5 +
		math.Min(float64(m.repos)/10, 2) +
		math.Min(float64(m.followers)/50, 2) +
		math.Min(float64(m.reputation)/1000, 3)
	return math.Min(s, 10)
}

func communityInfluence(m profileMetrics) float64 {
	s := 5 +
		math.Min(float64(m.followers)/100, 2) +
		math.Min(float64(m.connections)/200, 2) +
		math.Min(float64(m.posts)/50, 1)
	return math.Min(s, 10)
}

// learningVelocity rewards recent output: commits and published posts.
func learningVelocity(m profileMetrics) float64 {
	s := 5 + math.Min(float64(m.commits)/200, 3) + math.Min(float64(m.posts)/25, 2)
	return math.Min(s, 10)
}

func osintMatchScore(m profileMetrics, signals []string) float64 {
	s := 70.0
	if m.repos > 10 {
		s += 10
	}
	if m.reputation > 1000 {
		s += 10
	}
	if len(signals) > 0 {
		s += 10
	}
	return math.Min(s, 100)
}

func availabilityStatus(signals []string) AvailabilityStatus {
	if len(signals) > 0 {
		return AvailabilityActive
	}
	return AvailabilityPassive
}

// WireProfile is one profile in a collector response.
type WireProfile struct {
	Name                string   `json:"name"`
	Handle              string   `json:"handle"`
	Email               string   `json:"email"`
	Location            string   `json:"location"`
	Title               string   `json:"title"`
	Company             string   `json:"company"`
	Bio                 string   `json:"bio"`
	Skills              []string `json:"skills"`
	Platform            Platform `json:"platform"`
	ConfidenceScore     float64  `json:"confidenceScore"`
	TechnicalScore      float64  `json:"technicalScore,omitempty"`
	InfluenceScore      float64  `json:"influenceScore,omitempty"`
	SkillsMatch         float64  `json:"skillsMatch,omitempty"`
	AvailabilitySignals []string `json:"availabilitySignals,omitempty"`
	Verified            bool     `json:"verified,omitempty"`
	Experience          *int     `json:"experience,omitempty"`
	JoinDate            string   `json:"joinDate,omitempty"`

	Repos       int    `json:"repos,omitempty"`
	Stars       int    `json:"stars,omitempty"`
	Commits     int    `json:"commits,omitempty"`
	Followers   int    `json:"followers,omitempty"`
	Connections int    `json:"connections,omitempty"`
	URL         string `json:"url,omitempty"`
	Reputation  int    `json:"reputation,omitempty"`
	Answers     int    `json:"answers,omitempty"`
	Posts       int    `json:"posts,omitempty"`
	Tweets      int    `json:"tweets,omitempty"`
	Karma       int    `json:"karma,omitempty"`
	Tier        string `json:"tier,omitempty"`
	Medals      int    `json:"medals,omitempty"`
}

// joinDateLayouts are the accepted joinDate formats.
var joinDateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01"}

func parseJoinDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range joinDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Typed converts a wire profile into its platform payload.
func (w WireProfile) Typed() (PlatformProfile, error) {
	common := ProfileCommon{
		Name:                w.Name,
		Handle:              w.Handle,
		Email:               w.Email,
		Location:            w.Location,
		Title:               w.Title,
		Company:             w.Company,
		Bio:                 w.Bio,
		Skills:              w.Skills,
		ConfidenceScore:     w.ConfidenceScore,
		Verified:            w.Verified,
		AvailabilitySignals: w.AvailabilitySignals,
		Experience:          w.Experience,
		JoinDate:            parseJoinDate(w.JoinDate),
		TechnicalHint:       w.TechnicalScore,
		InfluenceHint:       w.InfluenceScore,
	}
	switch Platform(strings.ToLower(string(w.Platform))) {
	case PlatformGitHub:
		return GitHubPayload{ProfileCommon: common, Repos: w.Repos, Stars: w.Stars, Commits: w.Commits, Followers: w.Followers}, nil
	case PlatformLinkedIn:
		return LinkedInPayload{ProfileCommon: common, Connections: w.Connections, URL: w.URL}, nil
	case PlatformStackOverflow:
		return StackOverflowPayload{ProfileCommon: common, Reputation: w.Reputation, Answers: w.Answers}, nil
	case PlatformTwitter:
		return TwitterPayload{ProfileCommon: common, Followers: w.Followers, Tweets: w.Tweets}, nil
	case PlatformReddit:
		return RedditPayload{ProfileCommon: common, Karma: w.Karma}, nil
	case PlatformDevTo:
		return DevToPayload{ProfileCommon: common, Posts: w.Posts, Followers: w.Followers}, nil
	case PlatformKaggle:
		return KagglePayload{ProfileCommon: common, Tier: w.Tier, Medals: w.Medals}, nil
	case PlatformMedium:
		return MediumPayload{ProfileCommon: common, Posts: w.Posts, Followers: w.Followers}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, w.Platform)
}
