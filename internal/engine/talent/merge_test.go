package talent

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestCombine_MergePrecedence(t *testing.T) {
	internal := candidate("int-1", "a@x.com", 60, "React")
	internal.TechnicalDepthScore = 5

	fetched := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	osint := candidate("osint:github:a", "A@X.com", 80, "Node.js")
	osint.TechnicalDepthScore = 8
	osint.CommunityInfluenceScore = 7
	osint.SourceDetails = SourceDetails{Type: SourceOSINT, Platform: PlatformGitHub}
	osint.OSINTProfile.GitHub = GitHubProfile{Username: "a", Repos: 30}
	osint.OSINTLastFetched = fetched

	out := Combine([]Candidate{internal}, []Candidate{osint})
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	c := out[0]
	if c.ID != "int-1" {
		t.Errorf("internal record must stay the base, got id %q", c.ID)
	}
	if !slices.Equal(c.Skills, []string{"React", "Node.js"}) {
		t.Errorf("skills = %v", c.Skills)
	}
	if c.TechnicalDepthScore != 8 {
		t.Errorf("technical = %v, want 8", c.TechnicalDepthScore)
	}
	if c.CommunityInfluenceScore != 7 {
		t.Errorf("influence = %v, want 7", c.CommunityInfluenceScore)
	}
	if c.OSINTProfile.GitHub.Repos != 30 || !c.OSINTLastFetched.Equal(fetched) {
		t.Errorf("osint data not overwritten: %+v %v", c.OSINTProfile.GitHub, c.OSINTLastFetched)
	}
	if c.SourceDetails.Type != SourceInternal {
		t.Errorf("source = %s", c.SourceDetails.Type)
	}
}

func TestCombine_OneEntryPerEmail(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	emails := []string{"a@x.com", "B@x.com", "c@x.com", "d@y.org", "e@y.org"}
	pick := func() string {
		e := emails[r.IntN(len(emails))]
		if r.IntN(2) == 0 {
			return strings.ToUpper(e)
		}
		return e
	}
	for round := range 50 {
		var internal, osint []Candidate
		for i := range r.IntN(6) {
			internal = append(internal, candidate(fmt.Sprintf("i%d", i), pick(), float64(r.IntN(100))))
		}
		for i := range r.IntN(6) {
			osint = append(osint, candidate(fmt.Sprintf("o%d", i), pick(), float64(r.IntN(100))))
		}

		distinct := map[string]bool{}
		for _, c := range append(slices.Clone(internal), osint...) {
			distinct[strings.ToLower(c.Email)] = true
		}
		out := Combine(internal, osint)
		if len(out) != len(distinct) {
			t.Fatalf("round %d: got %d entries, want %d", round, len(out), len(distinct))
		}
		seen := map[string]bool{}
		for _, c := range out {
			k := strings.ToLower(c.Email)
			if seen[k] {
				t.Fatalf("round %d: duplicate %s", round, k)
			}
			seen[k] = true
		}
	}
}

func TestCombine_NoEmailKeyedByID(t *testing.T) {
	out := Combine(
		[]Candidate{candidate("x", "", 10), candidate("y", "", 20)},
		[]Candidate{candidate("x", "", 30, "Go")},
	)
	if len(out) != 2 {
		t.Fatalf("got %d, want 2", len(out))
	}
	if out[0].MatchScore != 30 || !slices.Equal(out[0].Skills, []string{"Go"}) {
		t.Errorf("id duplicate not merged: %+v", out[0])
	}
}

func TestCombine_OSINTOnlyDuplicatesMerge(t *testing.T) {
	gh := candidate("osint:github:z", "z@x.com", 70, "Go")
	gh.SourceDetails.Type = SourceOSINT
	gh.OSINTProfile.GitHub = GitHubProfile{Username: "z", Repos: 12}
	so := candidate("osint:stackoverflow:9", "z@x.com", 80, "Rust")
	so.SourceDetails.Type = SourceOSINT
	so.OSINTProfile.StackOverflow = StackOverflowProfile{Username: "9", Reputation: 3000}
	so.AvailabilitySignals = []string{"open to work"}

	out := Combine(nil, []Candidate{gh, so})
	if len(out) != 1 {
		t.Fatalf("got %d", len(out))
	}
	c := out[0]
	if c.OSINTProfile.GitHub.Repos != 12 || c.OSINTProfile.StackOverflow.Reputation != 3000 {
		t.Errorf("platform records lost: %+v", c.OSINTProfile)
	}
	if c.AvailabilityStatus != AvailabilityActive {
		t.Errorf("status = %s", c.AvailabilityStatus)
	}
	if c.MatchScore != 80 {
		t.Errorf("match = %v", c.MatchScore)
	}
}

func TestCombine_FillsBlankFields(t *testing.T) {
	base := candidate("a", "a@x.com", 50)
	other := candidate("b", "a@x.com", 40)
	other.Location, other.CurrentTitle = "Lisbon", "Staff Engineer"
	base.CurrentTitle = "Engineer"

	c := Combine([]Candidate{base}, []Candidate{other})[0]
	if c.Location != "Lisbon" {
		t.Errorf("location = %q", c.Location)
	}
	if c.CurrentTitle != "Engineer" {
		t.Errorf("base title overwritten: %q", c.CurrentTitle)
	}
}

func TestUnionSkills(t *testing.T) {
	got := unionSkills([]string{"React", "node.js"}, []string{"Node.js", "Go", "react", ""})
	want := []string{"React", "node.js", "Go"}
	if !slices.Equal(got, want) {
		t.Errorf("unionSkills = %v, want %v", got, want)
	}
}
