package talentserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_talent/internal/engine"
	"github.com/anatolykoptev/go_talent/internal/engine/talent"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Services holds the long-lived collaborators shared by every tool call.
// A fresh Pipeline is built per talent_search call so progress subscribers
// never cross requests.
type Services struct {
	Interpreter talent.QueryInterpreter
	Store       talent.InternalSearcher
	Discovery   talent.Discoverer
	Analyzer    talent.Analyzer
	Writer      talent.CandidateWriter
	History     talent.HistoryStore
	Recorder    talent.Recorder
	Options     talent.Options
	Logger      *slog.Logger
}

func (s *Services) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// NewPipeline builds a pipeline over the shared services.
func (s *Services) NewPipeline() *talent.Pipeline {
	return talent.NewPipeline(talent.Deps{
		Interpreter: s.Interpreter,
		Store:       s.Store,
		Discovery:   s.Discovery,
		Analyzer:    s.Analyzer,
		Writer:      s.Writer,
		History:     s.History,
		Recorder:    s.Recorder,
		Logger:      s.Logger,
	}, s.Options)
}

// SearchInput is the talent_search tool input.
type SearchInput struct {
	Query   string `json:"query" jsonschema:"Free-text hiring query, e.g. 'senior react developer remote'"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum candidates to return (default: all ranked candidates)"`
	NoCache bool   `json:"no_cache,omitempty" jsonschema:"Bypass the result cache"`
}

// QueryInput is the input of the single-query tools.
type QueryInput struct {
	Query string `json:"query" jsonschema:"Free-text hiring query"`
}

// PlanOutput is the talent_search_plan tool output.
type PlanOutput struct {
	Interpretation talent.Interpretation `json:"interpretation"`
	Plan           talent.SearchPlan     `json:"plan"`
	Probes         []talent.Probe        `json:"probes"`
}

// HistoryInput is the talent_history tool input.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Number of recent queries to return (default 20, max 200)"`
}

// HistoryOutput is the talent_history tool output.
type HistoryOutput struct {
	Queries []talent.QueryRecord `json:"queries"`
}

// RegisterTools registers the talent tools on the given MCP server:
// talent_search, talent_interpret, talent_search_plan, talent_history.
func RegisterTools(server *mcp.Server, svc *Services) {
	registerSearch(server, svc)
	registerInterpret(server, svc)
	registerSearchPlan(server, svc)
	registerHistory(server, svc)
}

func registerSearch(server *mcp.Server, svc *Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "talent_search",
		Description: "Find candidates for a free-text hiring query. Searches the internal candidate database first and, when fewer than 5 strong matches exist, discovers public profiles on GitHub, StackOverflow, Twitter and the configured profile collector. Returns ranked candidates with scores, availability signals, diversity metrics and suggested refinements.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, talent.SearchResult, error) {
		query := strings.TrimSpace(input.Query)
		if query == "" {
			return nil, talent.SearchResult{}, fmt.Errorf("query is required")
		}

		cacheKey := engine.CacheKey("talent_search", strings.ToLower(query))
		if !input.NoCache {
			if out, ok := engine.CacheLoadJSON[talent.SearchResult](ctx, cacheKey); ok {
				return nil, limitCandidates(out, input.Limit), nil
			}
		}

		p := svc.NewPipeline()
		p.SetProgressCallback(logProgress(svc.logger()))
		res := p.Search(ctx, query)

		// Degraded results are not cached so the next call can recover.
		if !res.Fallback && !res.Cancelled {
			engine.CacheStoreJSON(ctx, cacheKey, *res)
		}
		return nil, limitCandidates(*res, input.Limit), nil
	})
}

// logProgress reports pipeline progress at debug level.
func logProgress(log *slog.Logger) talent.ProgressFunc {
	return func(pr talent.Progress) {
		log.Debug("talent search progress",
			slog.String("stage", string(pr.Stage)),
			slog.Int("progress", pr.Progress),
			slog.String("operation", pr.CurrentOperation))
	}
}

func limitCandidates(res talent.SearchResult, limit int) talent.SearchResult {
	if limit > 0 && len(res.Candidates) > limit {
		res.Candidates = res.Candidates[:limit]
	}
	return res
}

func registerInterpret(server *mcp.Server, svc *Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "talent_interpret",
		Description: "Interpret a free-text hiring query into a structured job specification: title, must-have and nice-to-have skills, experience, locations, industries, weighted requirements and a confidence score. Falls back to local keyword matching when the LLM is unavailable.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, talent.Interpretation, error) {
		query := strings.TrimSpace(input.Query)
		if query == "" {
			return nil, talent.Interpretation{}, fmt.Errorf("query is required")
		}
		return nil, svc.Interpreter.Interpret(ctx, query), nil
	})
}

func registerSearchPlan(server *mcp.Server, svc *Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "talent_search_plan",
		Description: "Build the multi-platform search plan for a hiring query without running it: LinkedIn, GitHub and StackOverflow queries at broad, targeted and precise levels, plus the discovery probes the pipeline would send to profile collectors.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, PlanOutput, error) {
		query := strings.TrimSpace(input.Query)
		if query == "" {
			return nil, PlanOutput{}, fmt.Errorf("query is required")
		}
		interp := svc.Interpreter.Interpret(ctx, query)
		plan := talent.GeneratePlan(interp.Requirements)
		return nil, PlanOutput{
			Interpretation: interp,
			Plan:           plan,
			Probes:         talent.BuildProbes(interp, plan),
		}, nil
	})
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

func registerHistory(server *mcp.Server, svc *Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "talent_history",
		Description: "List recently interpreted hiring queries, newest first, with intent, confidence and whether the local fallback was used.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
		out, err := recentQueries(ctx, svc, input.Limit)
		return nil, out, err
	})
}

func recentQueries(ctx context.Context, svc *Services, limit int) (HistoryOutput, error) {
	if svc.History == nil {
		return HistoryOutput{Queries: []talent.QueryRecord{}}, nil
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	qs, err := svc.History.RecentQueries(ctx, limit)
	if err != nil {
		return HistoryOutput{}, fmt.Errorf("history: %w", err)
	}
	if qs == nil {
		qs = []talent.QueryRecord{}
	}
	return HistoryOutput{Queries: qs}, nil
}
