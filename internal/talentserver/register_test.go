package talentserver

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_talent/internal/engine/talent"
)

type fixedService struct{ spec talent.JobSpecification }

func (f fixedService) Interpret(context.Context, string) (talent.JobSpecification, float64, error) {
	return f.spec, 0.9, nil
}

func testServices() *Services {
	hist := talent.NewMemoryHistory()
	store := talent.NewMemoryStore(talent.SampleCandidates()...)
	svc := fixedService{spec: talent.JobSpecification{
		JobTitle:       "Python Developer",
		MustHaveSkills: []string{"Python"},
		Locations:      []string{"Berlin"},
	}}
	return &Services{
		Interpreter: talent.NewInterpreter(talent.InterpreterConfig{Service: svc, History: hist}),
		Store:       talent.NewInternalSearch(store, 20, nil, nil),
		History:     hist,
	}
}

func connect(t *testing.T, svc *Services) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := mcp.NewServer(&mcp.Implementation{Name: "go_talent", Version: "test"}, nil)
	RegisterTools(server, svc)

	ct, st := mcp.NewInMemoryTransports()
	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool[T any](t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (T, *mcp.CallToolResult) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	var out T
	if !res.IsError {
		raw, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return out, res
}

func TestTools_Listed(t *testing.T) {
	cs := connect(t, testServices())
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"talent_search", "talent_interpret", "talent_search_plan", "talent_history"}, names)
}

func TestTalentSearch(t *testing.T) {
	cs := connect(t, testServices())
	out, res := callTool[talent.SearchResult](t, cs, "talent_search", map[string]any{"query": "senior react developer", "limit": 1, "no_cache": true})
	require.False(t, res.IsError)
	assert.Len(t, out.Candidates, 1)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, talent.StageCompleted, out.Progress.Stage)
}

func TestTalentSearch_EmptyQuery(t *testing.T) {
	cs := connect(t, testServices())
	_, res := callTool[talent.SearchResult](t, cs, "talent_search", map[string]any{"query": "  "})
	assert.True(t, res.IsError)
}

func TestTalentInterpretAndHistory(t *testing.T) {
	cs := connect(t, testServices())
	interp, res := callTool[talent.Interpretation](t, cs, "talent_interpret", map[string]any{"query": "python developer in Berlin"})
	require.False(t, res.IsError)
	assert.Contains(t, interp.JobSpec.MustHaveSkills, "Python")

	hist, res := callTool[HistoryOutput](t, cs, "talent_history", map[string]any{})
	require.False(t, res.IsError)
	require.Len(t, hist.Queries, 1)
	assert.Equal(t, "python developer in Berlin", hist.Queries[0].Query)
}

func TestTalentSearchPlan(t *testing.T) {
	cs := connect(t, testServices())
	out, res := callTool[PlanOutput](t, cs, "talent_search_plan", map[string]any{"query": "go developer"})
	require.False(t, res.IsError)
	assert.Len(t, out.Plan.Platforms, 3)
	assert.NotEmpty(t, out.Probes)
}

func TestRecentQueries_Limits(t *testing.T) {
	out, err := recentQueries(context.Background(), &Services{}, 5)
	require.NoError(t, err)
	assert.NotNil(t, out.Queries)

	hist := talent.NewMemoryHistory()
	for range 250 {
		require.NoError(t, hist.RecordInterpretation(context.Background(), talent.QueryRecord{Query: "q"}))
	}
	out, err = recentQueries(context.Background(), &Services{History: hist}, 1000)
	require.NoError(t, err)
	assert.Len(t, out.Queries, maxHistoryLimit)

	out, err = recentQueries(context.Background(), &Services{History: hist}, 0)
	require.NoError(t, err)
	assert.Len(t, out.Queries, defaultHistoryLimit)
}

func TestLimitCandidates(t *testing.T) {
	res := talent.SearchResult{Candidates: talent.SampleCandidates()}
	assert.Len(t, limitCandidates(res, 0).Candidates, len(res.Candidates))
	assert.Len(t, limitCandidates(res, 1).Candidates, 1)
}

func TestLogProgress(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	svc := testServices()
	svc.Logger = log
	p := svc.NewPipeline()
	p.SetProgressCallback(logProgress(log))
	res := p.Search(context.Background(), "python developer")
	require.Equal(t, talent.StageCompleted, res.Progress.Stage)

	var ops []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] != "talent search progress" {
			continue
		}
		assert.Contains(t, rec, "stage")
		assert.Contains(t, rec, "progress")
		op, _ := rec["operation"].(string)
		ops = append(ops, op)
	}
	require.NotEmpty(t, ops)
	assert.NotEmpty(t, ops[len(ops)-1], "each event carries the current operation")
}
