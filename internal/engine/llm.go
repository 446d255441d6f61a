package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
)

// ErrLLMDisabled is returned when no LLM client is configured.
var ErrLLMDisabled = errors.New("llm client not configured")

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// CallLLM sends a prompt using the configured temperature and max_tokens.
func CallLLM(ctx context.Context, prompt string) (string, error) {
	if cfg.LLMClient == nil {
		return "", ErrLLMDisabled
	}
	reg.Incr(MetricLLMCalls)
	resp, err := cfg.LLMClient.Complete(ctx, "", prompt)
	if err != nil {
		reg.Incr(MetricLLMErrors)
		return "", err
	}
	return stripFences(resp), nil
}

// CallLLMCold sends a prompt with a low temperature for extraction-style tasks.
func CallLLMCold(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if cfg.LLMClient == nil {
		return "", ErrLLMDisabled
	}
	reg.Incr(MetricLLMCalls)
	raw, err := cfg.LLMClient.Complete(ctx, "", prompt,
		llm.WithChatTemperature(0.1),
		llm.WithChatMaxTokens(maxTokens),
	)
	if err != nil {
		reg.Incr(MetricLLMErrors)
		return "", err
	}
	return stripFences(raw), nil
}

// ExtractJSONObject returns the outermost {...} span of raw, or raw unchanged
// when no object is found. LLMs sometimes wrap JSON in prose.
func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}

// DecodeLLMJSON strips fences and prose around an LLM response and decodes it into T.
func DecodeLLMJSON[T any](raw string) (T, error) {
	var out T
	body := ExtractJSONObject(stripFences(raw))
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, fmt.Errorf("llm json: %w (raw: %s)", err, TruncateRunes(raw, 200, "..."))
	}
	return out, nil
}
