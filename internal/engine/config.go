package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	twitter "github.com/anatolykoptev/go-twitter"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey            string
	LLMAPIKeyFallbacks   []string
	LLMAPIBase           string
	LLMModel             string
	LLMTemperature       float64
	LLMMaxTokens         int
	LLMClient            *llm.Client // nil = LLM stages run on local fallbacks
	DatabaseURL          string      // candidate store; empty = in-memory store
	HistoryDBPath        string      // query history; empty = ~/.go_talent/history.db
	CollectorURL         string      // external profile collector; empty = disabled
	GithubToken          string
	StackExchangeKey     string
	InterpretTimeout     time.Duration
	CollectTimeout       time.Duration
	AnalyzeTimeout       time.Duration
	OSINTConcurrency     int
	StoreLimit           int
	PersistDiscovered    bool // upsert discovered OSINT candidates into the store
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
	TwitterClient        *twitter.Client // nil = Twitter collector disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}

// LLMEnabled reports whether an LLM client is configured.
func LLMEnabled() bool {
	return cfg.LLMClient != nil && cfg.LLMAPIKey != ""
}
