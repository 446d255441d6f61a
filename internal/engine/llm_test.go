package engine

import (
	"context"
	"errors"
	"testing"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", "[1,2]"},
		{"no fence", `  {"a":1} `, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.raw); got != tt.want {
				t.Errorf("stripFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"prose around", `Here you go: {"a":{"b":2}} hope it helps`, `{"a":{"b":2}}`},
		{"no object", `nothing here`, `nothing here`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONObject(tt.raw); got != tt.want {
				t.Errorf("ExtractJSONObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	type out struct {
		Title string `json:"title"`
	}
	got, err := DecodeLLMJSON[out]("```json\n{\"title\": \"Staff Engineer\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Staff Engineer" {
		t.Errorf("Title = %q", got.Title)
	}

	if _, err := DecodeLLMJSON[out]("not json at all"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestCallLLMDisabled(t *testing.T) {
	Init(Config{})
	_, err := CallLLM(context.Background(), "hello")
	if !errors.Is(err, ErrLLMDisabled) {
		t.Errorf("expected ErrLLMDisabled, got %v", err)
	}
	if LLMEnabled() {
		t.Error("LLMEnabled() should be false without a client")
	}
}
