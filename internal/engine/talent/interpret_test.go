package talent

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

func TestFallbackJobSpec(t *testing.T) {
	tests := []struct {
		query      string
		experience string
		title      string
		skills     []string
		locations  []string
		industries []string
		model      string
	}{
		{
			query:      "junior python developer",
			experience: "0-2 years",
			title:      "Python Developer",
			skills:     []string{"Python"},
		},
		{
			query:      "senior react developer remote",
			experience: "5+ years",
			title:      "Senior React Developer",
			skills:     []string{"React"},
			locations:  []string{"Remote"},
			model:      "remote",
		},
		{
			query:      "Staff backend engineer with golang and postgres in san francisco, fintech",
			experience: "10+ years",
			title:      "Senior Backend Engineer",
			skills:     []string{"Go", "PostgreSQL"},
			locations:  []string{"San Francisco"},
			industries: []string{"Fintech"},
		},
		{
			query:      "react developer with 3-5 years experience",
			experience: "3-5 years",
			title:      "React Developer",
			skills:     []string{"React"},
		},
		{
			query:      "python developer 1–2 years",
			experience: "1-2 years",
			title:      "Python Developer",
			skills:     []string{"Python"},
		},
		{
			query:      "go engineer 4 to 6 yrs",
			experience: "4-6 years",
			title:      "Go Developer",
			skills:     []string{"Go"},
		},
		{
			query:      "go developer with 7 years",
			experience: "7+ years",
			title:      "Go Developer",
			skills:     []string{"Go"},
		},
		{
			query:      "someone to help",
			experience: "",
			title:      "Software Engineer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			spec := FallbackJobSpec(tt.query)
			if spec.YearsOfExperience != tt.experience {
				t.Errorf("experience = %q, want %q", spec.YearsOfExperience, tt.experience)
			}
			if spec.JobTitle != tt.title {
				t.Errorf("title = %q, want %q", spec.JobTitle, tt.title)
			}
			for _, s := range tt.skills {
				if !slices.Contains(spec.MustHaveSkills, s) {
					t.Errorf("skills %v missing %q", spec.MustHaveSkills, s)
				}
			}
			for _, l := range tt.locations {
				if !slices.Contains(spec.Locations, l) {
					t.Errorf("locations %v missing %q", spec.Locations, l)
				}
			}
			for _, i := range tt.industries {
				if !slices.Contains(spec.Industries, i) {
					t.Errorf("industries %v missing %q", spec.Industries, i)
				}
			}
			if spec.WorkingModel != tt.model {
				t.Errorf("working model = %q, want %q", spec.WorkingModel, tt.model)
			}
		})
	}
}

func TestFallbackInterpretation_Confidence(t *testing.T) {
	interp := FallbackInterpretation("junior python developer")
	if interp.Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6", interp.Confidence)
	}
	if !interp.Fallback {
		t.Error("expected Fallback flag")
	}
	if interp.JobSpec.YearsOfExperience != "0-2 years" {
		t.Errorf("years_of_experience = %q", interp.JobSpec.YearsOfExperience)
	}
}

func TestFromJobSpec_Weights(t *testing.T) {
	spec := JobSpecification{
		JobTitle:          "Backend Engineer",
		MustHaveSkills:    []string{"Go"},
		NiceToHaveSkills:  []string{"Kubernetes"},
		YearsOfExperience: "5+ years",
		Locations:         []string{"Berlin"},
		Industries:        []string{"Fintech"},
	}
	interp := FromJobSpec("q", spec, 0.85)

	want := map[string]struct {
		importance float64
		source     RequirementSource
	}{
		"Go":         {0.9, SourceExplicit},
		"Kubernetes": {0.6, SourceInferred},
		"5+ years":   {0.8, SourceExplicit},
		"Berlin":     {0.7, SourceExplicit},
		"Fintech":    {0.7, SourceExplicit},
	}
	if len(interp.Requirements) != len(want) {
		t.Fatalf("got %d requirements, want %d", len(interp.Requirements), len(want))
	}
	for _, r := range interp.Requirements {
		w, ok := want[r.Value]
		if !ok {
			t.Errorf("unexpected requirement %q", r.Value)
			continue
		}
		if r.Importance != w.importance || r.Source != w.source {
			t.Errorf("%s: got (%v, %s), want (%v, %s)", r.Value, r.Importance, r.Source, w.importance, w.source)
		}
	}
	if interp.Confidence != 0.85 {
		t.Errorf("confidence = %v", interp.Confidence)
	}
}

func TestInterpreter_ServiceSuccessRecordsHistory(t *testing.T) {
	svc := &stubService{spec: JobSpecification{JobTitle: "Data Engineer", MustHaveSkills: []string{"Python"}}, confidence: 0.9}
	hist := NewMemoryHistory()
	in := NewInterpreter(InterpreterConfig{Service: svc, History: hist})

	interp := in.Interpret(context.Background(), "  data engineer python ")
	if interp.Fallback {
		t.Fatal("unexpected fallback")
	}
	if interp.Query != "data engineer python" {
		t.Errorf("query not trimmed: %q", interp.Query)
	}
	recs, _ := hist.RecentQueries(context.Background(), 10)
	if len(recs) != 1 || recs[0].Confidence != 0.9 {
		t.Fatalf("history = %+v", recs)
	}
}

func TestInterpreter_ServiceErrorFallsBack(t *testing.T) {
	rec := newCountingRecorder()
	hist := NewMemoryHistory()
	in := NewInterpreter(InterpreterConfig{Service: &stubService{err: errServiceDown}, History: hist, Recorder: rec})

	interp := in.Interpret(context.Background(), "junior python developer")
	if !interp.Fallback || interp.Confidence != 0.6 {
		t.Fatalf("expected fallback interpretation, got %+v", interp)
	}
	if rec.count(engine.MetricInterpretFallbacks) != 1 {
		t.Errorf("fallback counter = %d", rec.count(engine.MetricInterpretFallbacks))
	}
	if recs, _ := hist.RecentQueries(context.Background(), 10); len(recs) != 0 {
		t.Errorf("fallback should not be logged as a service interpretation: %+v", recs)
	}
}

func TestInterpreter_TimeoutFallsBack(t *testing.T) {
	svc := &stubService{spec: JobSpecification{JobTitle: "x"}, confidence: 1, delay: time.Second}
	in := NewInterpreter(InterpreterConfig{Service: svc, Timeout: 20 * time.Millisecond})

	start := time.Now()
	interp := in.Interpret(context.Background(), "senior react developer")
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("timeout not applied, took %v", time.Since(start))
	}
	if !interp.Fallback {
		t.Error("expected fallback after timeout")
	}
}

func TestInterpreter_NoServiceFallsBack(t *testing.T) {
	interp := NewInterpreter(InterpreterConfig{}).Interpret(context.Background(), "react")
	if !interp.Fallback {
		t.Error("expected fallback without a service")
	}
}

type failingHistory struct{ MemoryHistory }

func (failingHistory) RecordInterpretation(context.Context, QueryRecord) error {
	return errors.New("disk full")
}

func TestInterpreter_HistoryFailureIgnored(t *testing.T) {
	rec := newCountingRecorder()
	svc := &stubService{spec: JobSpecification{JobTitle: "QA", MustHaveSkills: []string{"Java"}}, confidence: 0.7}
	in := NewInterpreter(InterpreterConfig{Service: svc, History: &failingHistory{}, Recorder: rec})

	interp := in.Interpret(context.Background(), "qa java")
	if interp.Fallback {
		t.Error("history failure must not fail interpretation")
	}
	if rec.count(engine.MetricHistoryWriteErrors) != 1 {
		t.Errorf("history error counter = %d", rec.count(engine.MetricHistoryWriteErrors))
	}
}

func TestLLMInterpreter(t *testing.T) {
	raw := "```json\n{\"job_specification\":{\"job_title\":\"Go Developer\",\"must_have_skills\":[\"Go\"]},\"confidence\":1.4}\n```"
	l := NewLLMInterpreter(func(context.Context, string) (string, error) { return raw, nil }, nil)

	spec, conf, err := l.Interpret(context.Background(), "go dev uncached "+t.Name())
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if spec.JobTitle != "Go Developer" || conf != 1 {
		t.Errorf("got %+v, confidence %v", spec, conf)
	}
}

func TestLLMInterpreter_RejectsEmptySpec(t *testing.T) {
	l := NewLLMInterpreter(func(context.Context, string) (string, error) { return `{"job_specification":{}}`, nil }, nil)
	if _, _, err := l.Interpret(context.Background(), "empty "+t.Name()); err == nil {
		t.Error("expected error for empty specification")
	}
}
