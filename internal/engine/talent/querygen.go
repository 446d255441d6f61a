package talent

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// planPlatforms are the platforms a search plan targets, in output order.
var planPlatforms = []Platform{PlatformLinkedIn, PlatformGitHub, PlatformStackOverflow}

// expected result ranges per specificity level.
var expectedRanges = map[QueryType][2]int{
	QueryBroad:    {100, 500},
	QueryTargeted: {20, 100},
	QueryPrecise:  {5, 20},
}

var minYearsRe = regexp.MustCompile(`(\d+)\s*\+`)

// planInput is the normalized view of requirements a plan is built from.
type planInput struct {
	skills     []string
	locations  []string
	industries []string
	minYears   int
}

// GeneratePlan turns requirements into per-platform search queries.
// Pure: identical input always yields identical output.
func GeneratePlan(reqs []Requirement) SearchPlan {
	in := normalizePlanInput(reqs)

	plan := SearchPlan{Platforms: make(map[Platform][]PlatformQuery, len(planPlatforms))}
	for _, p := range planPlatforms {
		var qs [3]string
		switch p {
		case PlatformLinkedIn:
			qs = linkedInQueries(in)
		case PlatformGitHub:
			qs = gitHubQueries(in)
		case PlatformStackOverflow:
			qs = stackOverflowQueries(in)
		}
		for i, t := range []QueryType{QueryBroad, QueryTargeted, QueryPrecise} {
			r := expectedRanges[t]
			plan.Platforms[p] = append(plan.Platforms[p], PlatformQuery{
				Type:            t,
				Query:           qs[i],
				ExpectedResults: fmt.Sprintf("%d-%d", r[0], r[1]),
			})
			plan.TotalExpectedResults += (r[0] + r[1]) / 2
		}
	}
	plan.ConfidenceScore = planConfidence(reqs)
	return plan
}

func normalizePlanInput(reqs []Requirement) planInput {
	sorted := make([]Requirement, len(reqs))
	copy(sorted, reqs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Importance > sorted[j].Importance })

	var in planInput
	seen := make(map[string]bool)
	for _, r := range sorted {
		v := strings.TrimSpace(r.Value)
		key := string(r.Category) + "|" + strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		switch r.Category {
		case CategorySkills:
			in.skills = append(in.skills, v)
		case CategoryLocation:
			if !strings.EqualFold(v, "remote") {
				in.locations = append(in.locations, v)
			}
		case CategoryIndustry:
			in.industries = append(in.industries, v)
		case CategoryExperience:
			if in.minYears == 0 {
				in.minYears = parseMinYears(v)
			}
		}
	}
	return in
}

// parseMinYears extracts N from "N+ years"; other forms give 0.
func parseMinYears(v string) int {
	m := minYearsRe.FindStringSubmatch(v)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func quoteAll(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = strconv.Quote(v)
	}
	return out
}

// slug turns a display skill into a platform tag: "Machine Learning" → "machine-learning".
func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func linkedInQueries(in planInput) [3]string {
	skills := in.skills
	if len(skills) == 0 {
		skills = []string{"software engineer"}
	}
	broad := strings.Join(quoteAll(firstN(skills, 2)), " OR ")

	targeted := "(" + strings.Join(quoteAll(firstN(skills, 3)), " OR ") + ")"
	if in.minYears >= 5 {
		targeted += ` AND ("senior" OR "lead")`
	}
	if len(in.locations) > 0 {
		targeted += " AND " + strconv.Quote(in.locations[0])
	}

	parts := quoteAll(firstN(skills, 4))
	if in.minYears >= 5 {
		parts = append(parts, `"senior"`)
	}
	parts = append(parts, quoteAll(firstN(in.locations, 1))...)
	parts = append(parts, quoteAll(firstN(in.industries, 1))...)
	precise := strings.Join(parts, " AND ")
	return [3]string{broad, targeted, precise}
}

func gitHubQueries(in planInput) [3]string {
	if len(in.skills) == 0 {
		return [3]string{"type:user repos:>5", "type:user repos:>20 followers:>20", "type:user repos:>50 followers:>100"}
	}
	broad := fmt.Sprintf("language:%s stars:>10", slug(in.skills[0]))

	var targeted []string
	for _, s := range firstN(in.skills, 2) {
		targeted = append(targeted, "language:"+slug(s))
	}
	targeted = append(targeted, "stars:>50")
	if len(in.locations) > 0 {
		targeted = append(targeted, "location:"+strconv.Quote(in.locations[0]))
	}

	var precise []string
	for _, s := range firstN(in.skills, 3) {
		precise = append(precise, "language:"+slug(s))
	}
	precise = append(precise, "stars:>100", "followers:>50")
	if len(in.locations) > 0 {
		precise = append(precise, "location:"+strconv.Quote(in.locations[0]))
	}
	return [3]string{broad, strings.Join(targeted, " "), strings.Join(precise, " ")}
}

func stackOverflowQueries(in planInput) [3]string {
	skills := in.skills
	if len(skills) == 0 {
		skills = []string{"programming"}
	}
	tags := func(n int) string {
		var b []string
		for _, s := range firstN(skills, n) {
			b = append(b, "["+slug(s)+"]")
		}
		return strings.Join(b, " ")
	}
	broad := tags(1) + " reputation:>500"
	targeted := tags(2) + " reputation:>2000"
	precise := tags(3) + " reputation:>5000"
	if len(in.locations) > 0 {
		precise += " location:" + strconv.Quote(in.locations[0])
	}
	return [3]string{broad, targeted, precise}
}

// planConfidence is the mean requirement importance, 0.5 with no requirements.
func planConfidence(reqs []Requirement) float64 {
	if len(reqs) == 0 {
		return 0.5
	}
	var sum float64
	for _, r := range reqs {
		sum += r.Importance
	}
	return math.Round(sum/float64(len(reqs))*100) / 100
}
