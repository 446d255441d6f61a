// go_talent is a talent search MCP server.
//
// Exposes four MCP tools: talent_search, talent_interpret, talent_search_plan
// and talent_history. Internal candidates come from PostgreSQL (or an
// in-memory store), external profiles from GitHub, StackOverflow, Twitter and
// an optional HTTP profile collector.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	twitter "github.com/anatolykoptev/go-twitter"
	"github.com/anatolykoptev/go_talent/internal/engine"
	"github.com/anatolykoptev/go_talent/internal/engine/talent"
	"github.com/anatolykoptev/go_talent/internal/talentserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	c := initEngine()
	svc, closeAll := buildServices(c)
	defer closeAll()

	slog.Info("starting go_talent",
		slog.String("port", mcpPort),
		slog.Bool("llm", engine.LLMEnabled()),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_talent",
		Version: version,
	}, nil)

	talentserver.RegisterTools(server, svc)
	slog.Info("tools registered", slog.Int("count", 4))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_talent",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 300 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() engine.Config {
	c := engine.Config{
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 4096),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		HistoryDBPath:        env.Str("HISTORY_DB_PATH", ""),
		CollectorURL:         env.Str("COLLECTOR_URL", ""),
		GithubToken:          env.Str("GITHUB_TOKEN", ""),
		StackExchangeKey:     env.Str("STACKEXCHANGE_KEY", ""),
		InterpretTimeout:     env.Duration("INTERPRET_TIMEOUT", 10*time.Second),
		CollectTimeout:       env.Duration("COLLECT_TIMEOUT", 30*time.Second),
		AnalyzeTimeout:       env.Duration("ANALYZE_TIMEOUT", 20*time.Second),
		OSINTConcurrency:     env.Int("OSINT_CONCURRENCY", 3),
		StoreLimit:           env.Int("STORE_LIMIT", 20),
		PersistDiscovered:    env.Str("PERSIST_DISCOVERED", "") == "true",
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	// Twitter client (optional, collector disabled without accounts)
	if accounts := twitter.ParseAccounts(env.Str("TWITTER_ACCOUNTS", "")); len(accounts) > 0 {
		tw, err := twitter.NewClient(twitter.ClientConfig{Accounts: accounts})
		if err != nil {
			slog.Warn("twitter client init failed", slog.Any("error", err))
		} else {
			c.TwitterClient = tw
			slog.Info("twitter client ready", slog.Int("pool_size", tw.Pool().Size()))
		}
	}

	if c.LLMAPIKey != "" {
		c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
			llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		)
	}

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
	return c
}

func buildServices(c engine.Config) (*talentserver.Services, func()) {
	log := slog.Default()
	rec := talent.EngineRecorder{}
	var closers []func()

	// Query history (SQLite, in-memory when the file cannot be opened)
	var history talent.HistoryStore
	if h, err := talent.OpenSQLiteHistory(c.HistoryDBPath); err != nil {
		slog.Warn("history DB init failed, keeping history in memory", slog.Any("error", err))
		history = talent.NewMemoryHistory()
	} else {
		history = h
		closers = append(closers, func() { _ = h.Close() })
		slog.Info("history DB initialized")
	}

	// Candidate store (PostgreSQL, in-memory without DATABASE_URL)
	var store talent.CandidateStore
	var writer talent.CandidateWriter
	if c.DatabaseURL != "" {
		pg, err := talent.ConnectPGStore(context.Background(), c.DatabaseURL)
		if err != nil {
			slog.Warn("candidate DB init failed, using in-memory store", slog.Any("error", err))
		} else {
			store, writer = pg, pg
			closers = append(closers, pg.Close)
			slog.Info("candidate DB initialized")
		}
	}
	if store == nil {
		mem := talent.NewMemoryStore()
		store, writer = mem, mem
	}

	var service talent.InterpretationService
	analyzer := talent.Analyzer(talent.HeuristicAnalyzer{})
	if engine.LLMEnabled() {
		service = talent.NewLLMInterpreter(nil, rec)
		analyzer = talent.FallbackAnalyzer{Primary: talent.NewLLMAnalyzer(nil), Secondary: talent.HeuristicAnalyzer{}}
	}

	svc := &talentserver.Services{
		Interpreter: talent.NewInterpreter(talent.InterpreterConfig{
			Service:  service,
			History:  history,
			Recorder: rec,
			Logger:   log,
			Timeout:  c.InterpretTimeout,
		}),
		Store: talent.NewInternalSearch(store, c.StoreLimit, rec, log),
		Discovery: talent.NewDiscovery(talent.DiscoveryConfig{
			Collectors:  buildCollectors(c, rec, log),
			Concurrency: c.OSINTConcurrency,
			Timeout:     c.CollectTimeout,
			Recorder:    rec,
			Logger:      log,
		}),
		Analyzer: analyzer,
		Writer:   writer,
		History:  history,
		Recorder: rec,
		Options: talent.Options{
			AnalyzeTimeout:    c.AnalyzeTimeout,
			PersistDiscovered: c.PersistDiscovered,
		},
		Logger: log,
	}

	return svc, func() {
		for _, fn := range closers {
			fn()
		}
	}
}

func buildCollectors(c engine.Config, rec talent.Recorder, log *slog.Logger) []talent.Collector {
	cols := []talent.Collector{
		talent.NewGitHubCollector("", c.GithubToken, c.HTTPClient, talent.GitHubRateLimit(c.GithubToken), rec, log),
		talent.NewStackOverflowCollector("", c.StackExchangeKey, c.HTTPClient, talent.StackExchangeRateLimit(), rec, log),
	}
	if c.CollectorURL != "" {
		cols = append(cols, talent.NewHTTPCollector(c.CollectorURL, c.HTTPClient, rec, log))
	}
	if c.TwitterClient != nil {
		cols = append(cols, talent.NewTwitterCollector(talent.TwitterSearch(c.TwitterClient), rec, log))
	}
	names := make([]string, 0, len(cols))
	for _, col := range cols {
		names = append(names, col.Name())
	}
	slog.Info("profile collectors ready", slog.Any("collectors", names))
	return cols
}
