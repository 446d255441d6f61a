package talent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

const interpretPrompt = `You are a technical recruiter. Convert the hiring request below into a structured job specification.

Hiring request: %s

Return a JSON object with this exact structure:
{
  "job_specification": {
    "job_title": "<concise job title>",
    "must_have_skills": [<skills the request requires>],
    "nice_to_have_skills": [<skills that would help but are not required>],
    "years_of_experience": "<range like \"0-2 years\", \"3-5 years\", \"5+ years\", or empty>",
    "locations": [<cities, countries or \"Remote\">],
    "industries": [<industries or domains mentioned>],
    "working_model": "<remote|hybrid|onsite or empty>"
  },
  "confidence": <0.0-1.0, how well the request specifies the role>
}

Return ONLY the JSON object, no markdown, no explanation.`

// llmInterpretation is the JSON structure expected from the LLM.
type llmInterpretation struct {
	JobSpecification JobSpecification `json:"job_specification"`
	Confidence       float64          `json:"confidence"`
}

// CompleteFunc sends a prompt to an LLM and returns the raw text response.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// LLMInterpreter implements InterpretationService on top of an LLM.
// Parsed specifications are cached by normalized query.
type LLMInterpreter struct {
	complete CompleteFunc
	rec      Recorder
}

// NewLLMInterpreter builds an LLM-backed interpretation service.
// A nil complete uses engine.CallLLMCold.
func NewLLMInterpreter(complete CompleteFunc, rec Recorder) *LLMInterpreter {
	if complete == nil {
		complete = func(ctx context.Context, prompt string) (string, error) {
			return engine.CallLLMCold(ctx, prompt, 800)
		}
	}
	return &LLMInterpreter{complete: complete, rec: recorderOrNop(rec)}
}

// Interpret implements InterpretationService.
func (l *LLMInterpreter) Interpret(ctx context.Context, query string) (JobSpecification, float64, error) {
	key := engine.CacheKey("interpret", strings.ToLower(strings.TrimSpace(query)))
	if cached, ok := engine.CacheLoadJSON[llmInterpretation](ctx, key); ok {
		l.rec.Incr(engine.MetricInterpretCacheHits)
		return cached.JobSpecification, cached.Confidence, nil
	}

	raw, err := l.complete(ctx, fmt.Sprintf(interpretPrompt, query))
	if err != nil {
		return JobSpecification{}, 0, fmt.Errorf("interpret llm: %w", err)
	}
	out, err := engine.DecodeLLMJSON[llmInterpretation](raw)
	if err != nil {
		return JobSpecification{}, 0, err
	}
	spec := out.JobSpecification
	if spec.JobTitle == "" && len(spec.MustHaveSkills) == 0 {
		return JobSpecification{}, 0, errors.New("interpret llm: specification has neither title nor skills")
	}
	out.Confidence = clamp(out.Confidence, 0, 1)

	engine.CacheStoreJSON(ctx, key, out)
	return spec, out.Confidence, nil
}
