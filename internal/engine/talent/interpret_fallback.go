package talent

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

// keyword maps query aliases to a canonical display value.
type keyword struct {
	value   string
	aliases []string
}

// skillSynonyms is scanned in order; output order follows this table.
var skillSynonyms = []keyword{
	{"JavaScript", []string{"javascript", "js", "es6"}},
	{"TypeScript", []string{"typescript", "ts"}},
	{"React", []string{"react", "reactjs", "react.js"}},
	{"Vue.js", []string{"vue", "vuejs", "vue.js"}},
	{"Angular", []string{"angular", "angularjs"}},
	{"Next.js", []string{"nextjs", "next.js"}},
	{"Node.js", []string{"node", "nodejs", "node.js"}},
	{"Python", []string{"python", "py"}},
	{"Django", []string{"django"}},
	{"Flask", []string{"flask"}},
	{"Java", []string{"java"}},
	{"Spring", []string{"spring", "spring boot"}},
	{"Go", []string{"golang", "go developer", "go engineer"}},
	{"Rust", []string{"rust"}},
	{"C++", []string{"c++", "cpp"}},
	{"C#", []string{"c#", "csharp", ".net", "dotnet"}},
	{"Ruby", []string{"ruby", "rails", "ruby on rails"}},
	{"PHP", []string{"php", "laravel"}},
	{"Swift", []string{"swift"}},
	{"Kotlin", []string{"kotlin"}},
	{"SQL", []string{"sql"}},
	{"PostgreSQL", []string{"postgres", "postgresql"}},
	{"MongoDB", []string{"mongodb", "mongo"}},
	{"GraphQL", []string{"graphql"}},
	{"AWS", []string{"aws", "amazon web services"}},
	{"GCP", []string{"gcp", "google cloud"}},
	{"Azure", []string{"azure"}},
	{"Docker", []string{"docker"}},
	{"Kubernetes", []string{"kubernetes", "k8s"}},
	{"Terraform", []string{"terraform"}},
	{"Machine Learning", []string{"ml", "machine learning"}},
	{"Deep Learning", []string{"deep learning"}},
	{"Data Science", []string{"data science", "data scientist"}},
	{"TensorFlow", []string{"tensorflow"}},
	{"PyTorch", []string{"pytorch"}},
	{"DevOps", []string{"devops"}},
}

// experienceLevels is scanned in order; the first hit wins.
var experienceLevels = []keyword{
	{"10+ years", []string{"principal", "staff", "distinguished", "10+ years"}},
	{"5+ years", []string{"senior", "sr.", "sr", "lead", "5+ years"}},
	{"3-5 years", []string{"mid level", "mid", "intermediate", "3+ years"}},
	{"0-2 years", []string{"junior", "jr.", "jr", "entry level", "graduate", "new grad", "intern"}},
}

var (
	// Queries are normalized before matching, so "3-5" and "3–5" arrive as "3 5".
	yearsRangeRe = regexp.MustCompile(`(\d{1,2})\s*(?:[-–]|\s|\sto\s)\s*(\d{1,2})\s*(?:years?|yrs?)`)
	yearsRe      = regexp.MustCompile(`(\d{1,2})\s*\+?\s*(?:years?|yrs?)`)
)

// titleKeywords infers a job title from domain words.
var titleKeywords = []keyword{
	{"Full Stack Developer", []string{"full stack", "fullstack"}},
	{"Frontend Developer", []string{"frontend", "front end"}},
	{"Backend Engineer", []string{"backend", "back end"}},
	{"Machine Learning Engineer", []string{"machine learning", "ml engineer", "ml"}},
	{"Data Scientist", []string{"data scientist", "data science"}},
	{"Data Engineer", []string{"data engineer", "data engineering"}},
	{"DevOps Engineer", []string{"devops", "sre", "site reliability", "platform engineer"}},
	{"Mobile Developer", []string{"mobile", "ios", "android"}},
	{"Security Engineer", []string{"security engineer", "appsec", "cybersecurity"}},
	{"Product Designer", []string{"designer", "ux", "ui"}},
	{"Product Manager", []string{"product manager"}},
}

var locationKeywords = []string{
	"remote", "new york", "san francisco", "bay area", "los angeles", "seattle",
	"austin", "boston", "chicago", "denver", "toronto", "vancouver", "london",
	"berlin", "amsterdam", "paris", "dublin", "lisbon", "warsaw", "barcelona",
	"tel aviv", "singapore", "bangalore", "sydney", "tokyo",
}

var industryKeywords = []keyword{
	{"Fintech", []string{"fintech", "banking", "payments"}},
	{"Healthcare", []string{"healthcare", "healthtech", "medtech"}},
	{"E-commerce", []string{"e commerce", "ecommerce", "retail"}},
	{"SaaS", []string{"saas", "b2b"}},
	{"Gaming", []string{"gaming", "games"}},
	{"EdTech", []string{"edtech", "education"}},
	{"Web3", []string{"crypto", "blockchain", "web3", "defi"}},
	{"Artificial Intelligence", []string{"ai", "llm", "genai"}},
	{"Cybersecurity", []string{"cybersecurity", "infosec"}},
	{"Logistics", []string{"logistics", "supply chain"}},
}

// normalizeQuery lower-cases q, keeps characters meaningful in tech names
// (+ # .) and pads with spaces so phrase lookups can match whole words.
func normalizeQuery(q string) string {
	var b strings.Builder
	b.WriteByte(' ')
	for _, r := range strings.ToLower(q) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '+', r == '#', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	b.WriteByte(' ')
	// Collapse runs of spaces and trailing sentence dots.
	fields := strings.Fields(b.String())
	for i, f := range fields {
		if f != "sr." && f != "jr." && !strings.HasPrefix(f, ".") {
			fields[i] = strings.TrimRight(f, ".")
		}
	}
	return " " + strings.Join(fields, " ") + " "
}

func containsPhrase(padded, phrase string) bool {
	return strings.Contains(padded, " "+phrase+" ")
}

func matchKeyword(padded string, k keyword) bool {
	for _, a := range k.aliases {
		if containsPhrase(padded, a) {
			return true
		}
	}
	return false
}

// FallbackJobSpec extracts a job specification from a query with fixed
// keyword tables. Deterministic; no external calls.
func FallbackJobSpec(query string) JobSpecification {
	padded := normalizeQuery(query)

	var spec JobSpecification
	for _, k := range skillSynonyms {
		if matchKeyword(padded, k) {
			spec.MustHaveSkills = append(spec.MustHaveSkills, k.value)
		}
	}

	spec.YearsOfExperience = inferExperience(padded)

	title := ""
	for _, k := range titleKeywords {
		if matchKeyword(padded, k) {
			title = k.value
			break
		}
	}
	if title == "" {
		if len(spec.MustHaveSkills) > 0 {
			title = spec.MustHaveSkills[0] + " Developer"
		} else {
			title = "Software Engineer"
		}
	}
	if spec.YearsOfExperience == "5+ years" || spec.YearsOfExperience == "10+ years" {
		title = "Senior " + title
	}
	spec.JobTitle = title

	for _, loc := range locationKeywords {
		if containsPhrase(padded, loc) {
			spec.Locations = append(spec.Locations, engine.TitleCase(loc))
		}
	}
	for _, k := range industryKeywords {
		if matchKeyword(padded, k) {
			spec.Industries = append(spec.Industries, k.value)
		}
	}
	switch {
	case containsPhrase(padded, "remote"):
		spec.WorkingModel = "remote"
	case containsPhrase(padded, "hybrid"):
		spec.WorkingModel = "hybrid"
	case containsPhrase(padded, "onsite"), containsPhrase(padded, "on site"), containsPhrase(padded, "in office"):
		spec.WorkingModel = "onsite"
	}
	return spec
}

// inferExperience maps level words or an explicit "N-M years" or "N years"
// phrase to a range. A range keeps both bounds.
func inferExperience(padded string) string {
	if m := yearsRangeRe.FindStringSubmatch(padded); m != nil {
		return m[1] + "-" + m[2] + " years"
	}
	if m := yearsRe.FindStringSubmatch(padded); m != nil {
		return m[1] + "+ years"
	}
	for _, k := range experienceLevels {
		if matchKeyword(padded, k) {
			return k.value
		}
	}
	return ""
}

// FallbackInterpretation builds an interpretation without any external service.
func FallbackInterpretation(query string) Interpretation {
	interp := FromJobSpec(query, FallbackJobSpec(query), fallbackConfidence)
	interp.SearchStrategy = "keyword fallback: " + defaultSearchStrategy
	interp.Fallback = true
	return interp
}
