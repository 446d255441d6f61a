package talent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

func TestBuildFilters(t *testing.T) {
	interp := FromJobSpec("q", JobSpecification{
		MustHaveSkills:    []string{"Go", "PostgreSQL"},
		YearsOfExperience: "5+ years",
		Locations:         []string{"Remote", "London"},
	}, 0.8)

	f := BuildFilters(interp)
	if len(f.Skills) != 2 {
		t.Errorf("skills = %v", f.Skills)
	}
	if f.MinExperienceYears == nil || *f.MinExperienceYears != 5 {
		t.Errorf("min years = %v", f.MinExperienceYears)
	}
	if f.Location != "London" {
		t.Errorf("location = %q, want London", f.Location)
	}
}

func TestBuildFilters_RangeHasNoMinimum(t *testing.T) {
	interp := FromJobSpec("q", JobSpecification{YearsOfExperience: "3-5 years"}, 0.8)
	if f := BuildFilters(interp); f.MinExperienceYears != nil {
		t.Errorf("expected no minimum, got %d", *f.MinExperienceYears)
	}
}

func TestMemoryStore_Filters(t *testing.T) {
	a := candidate("a", "a@x.com", 80, "Go", "SQL")
	a.ExperienceYears, a.Location = 7, "London, UK"
	b := candidate("b", "b@x.com", 90, "React")
	b.ExperienceYears, b.Location = 3, "London"
	c := candidate("c", "c@x.com", 70, "go")
	c.ExperienceYears, c.Location = 9, "Paris"
	store := NewMemoryStore(a, b, c)

	res, err := store.Search(context.Background(), StoreQuery{
		Filters: Filters{Skills: []string{"Go"}, MinExperienceYears: intPtr(5), Location: "london"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].ID != "a" {
		t.Fatalf("got %+v", res.Candidates)
	}

	all, _ := store.Search(context.Background(), StoreQuery{Limit: 2})
	if all.TotalFound != 3 || len(all.Candidates) != 2 || all.Candidates[0].ID != "b" {
		t.Errorf("limit/sort wrong: total=%d %+v", all.TotalFound, all.Candidates)
	}
}

func TestMemoryStore_UpsertByEmail(t *testing.T) {
	store := NewMemoryStore(candidate("a", "A@x.com", 50))
	updated := candidate("a2", "a@X.com", 75)
	if err := store.Upsert(context.Background(), []Candidate{updated, candidate("n", "", 10)}); err != nil {
		t.Fatal(err)
	}
	res, _ := store.Search(context.Background(), StoreQuery{})
	if res.TotalFound != 2 {
		t.Fatalf("total = %d, want 2", res.TotalFound)
	}
	if res.Candidates[0].MatchScore != 75 {
		t.Errorf("upsert did not replace: %+v", res.Candidates[0])
	}
}

type errStore struct{}

func (errStore) Search(context.Context, StoreQuery) (StoreResult, error) {
	return StoreResult{}, errors.New("connection refused")
}

func TestInternalSearch_FallsBackToSamples(t *testing.T) {
	interp := FallbackInterpretation("senior react developer")
	tests := []struct {
		name  string
		store CandidateStore
	}{
		{"error", errStore{}},
		{"empty", NewMemoryStore()},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newCountingRecorder()
			res := NewInternalSearch(tt.store, 20, rec, nil).Search(context.Background(), interp)
			if len(res.Candidates) == 0 || res.TotalFound != len(res.Candidates) {
				t.Fatalf("got %d candidates, total %d", len(res.Candidates), res.TotalFound)
			}
			for _, c := range res.Candidates {
				if c.SourceDetails.Platform != PlatformSample {
					t.Errorf("%s: platform = %s, want sample", c.ID, c.SourceDetails.Platform)
				}
			}
			if res.SearchQualityScore <= 0 {
				t.Error("expected a quality score")
			}
			if rec.count(engine.MetricStoreFallbacks) != 1 {
				t.Errorf("store fallback counter = %d", rec.count(engine.MetricStoreFallbacks))
			}
		})
	}
}

func TestInternalSearch_Results(t *testing.T) {
	store := NewMemoryStore(
		candidate("a", "a@x.com", 80, "React"),
		candidate("b", "b@x.com", 60, "React", "Node.js"),
	)
	interp := FromJobSpec("react", JobSpecification{MustHaveSkills: []string{"React", "GraphQL"}}, 0.9)
	res := NewInternalSearch(store, 10, nil, nil).Search(context.Background(), interp)

	if res.TotalFound != 2 {
		t.Errorf("total = %d", res.TotalFound)
	}
	if res.SearchQualityScore != 0.7 {
		t.Errorf("quality = %v, want 0.7", res.SearchQualityScore)
	}
	if res.DiversityMetrics.SkillCoverage != 0.5 {
		t.Errorf("skill coverage = %v, want 0.5", res.DiversityMetrics.SkillCoverage)
	}
	if len(res.SuggestedRefinements) == 0 {
		t.Error("expected refinements for a small result set")
	}
	if res.AIInterpretation != interp.InterpretedIntent {
		t.Errorf("ai interpretation = %q", res.AIInterpretation)
	}
}

func TestSampleCandidates_FreshCopies(t *testing.T) {
	a := SampleCandidates()
	a[0].Skills[0] = "mutated"
	if SampleCandidates()[0].Skills[0] == "mutated" {
		t.Error("SampleCandidates shares backing arrays")
	}
}

func TestDecodeCandidateJSON(t *testing.T) {
	tests := []struct {
		name      string
		osint     string
		src       string
		wantErr   string
		wantType  SourceType
		wantRepos int
	}{
		{name: "null columns", wantType: SourceInternal},
		{name: "valid", osint: `{"github":{"repos":12}}`, src: `{"type":"osint","platform":"github"}`, wantType: SourceOSINT, wantRepos: 12},
		{name: "corrupt osint", osint: `{"github":`, wantErr: "osint_profile"},
		{name: "corrupt source", src: `not json`, wantErr: "source_details"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Candidate{ID: "c1"}
			var osint, src []byte
			if tt.osint != "" {
				osint = []byte(tt.osint)
			}
			if tt.src != "" {
				src = []byte(tt.src)
			}
			err := decodeCandidateJSON(&c, osint, src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) || !strings.Contains(err.Error(), "c1") {
					t.Fatalf("err = %v, want mention of %s and c1", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.SourceDetails.Type != tt.wantType {
				t.Errorf("source type = %q, want %q", c.SourceDetails.Type, tt.wantType)
			}
			if c.OSINTProfile.GitHub.Repos != tt.wantRepos {
				t.Errorf("repos = %d, want %d", c.OSINTProfile.GitHub.Repos, tt.wantRepos)
			}
		})
	}
}
