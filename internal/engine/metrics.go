package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metric names shared by the engine and the talent pipeline.
const (
	MetricLLMCalls            = "llm_calls"
	MetricLLMErrors           = "llm_errors"
	MetricSearches            = "talent_searches"
	MetricShortCircuits       = "talent_short_circuits"
	MetricCancelled           = "talent_cancelled"
	MetricPipelineFallbacks   = "talent_pipeline_fallbacks"
	MetricInterpretFallbacks  = "interpret_fallbacks"
	MetricStoreFallbacks      = "store_fallbacks"
	MetricCollectRequests     = "collect_requests"
	MetricCollectFailures     = "collect_failures"
	MetricAnalysisFailures    = "analysis_failures"
	MetricHistoryWriteErrors  = "history_write_errors"
	MetricInterpretCacheHits  = "interpret_cache_hits"
	MetricGitHubRequests      = "github_requests"
	MetricStackExchangeCalls  = "stackexchange_requests"
	MetricTwitterSearches     = "twitter_searches"
	MetricCollectorHTTPCalls  = "collector_http_requests"
	MetricCollectedCandidates = "collected_candidates"
	MetricSlowOperations      = "slow_operations"
)

// slowOperationThreshold is the duration above which TrackOperation warns.
var slowOperationThreshold = 5 * time.Second

// registry holds named counters and per-stage latency totals.
type registry struct {
	counters sync.Map // name → *atomic.Int64
	latency  sync.Map // stage → *stageLatency
}

type stageLatency struct {
	count atomic.Int64
	nanos atomic.Int64
}

var reg = &registry{}

// Incr increments a named counter.
func (r *registry) Incr(name string) {
	r.Add(name, 1)
}

// Add adds n to a named counter.
func (r *registry) Add(name string, n int64) {
	v, _ := r.counters.LoadOrStore(name, &atomic.Int64{})
	v.(*atomic.Int64).Add(n)
}

// Observe records one latency sample for a stage.
func (r *registry) Observe(stage string, d time.Duration) {
	v, _ := r.latency.LoadOrStore(stage, &stageLatency{})
	sl := v.(*stageLatency)
	sl.count.Add(1)
	sl.nanos.Add(int64(d))
}

// Incr increments a named engine counter.
func Incr(name string) { reg.Incr(name) }

// Add adds n to a named engine counter.
func Add(name string, n int64) { reg.Add(name, n) }

// Observe records a stage latency sample.
func Observe(stage string, d time.Duration) { reg.Observe(stage, d) }

// Counter returns the current value of a named counter.
func Counter(name string) int64 {
	v, ok := reg.counters.Load(name)
	if !ok {
		return 0
	}
	return v.(*atomic.Int64).Load()
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	m := make(map[string]int64)
	reg.counters.Range(func(k, v any) bool {
		m[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	reg.latency.Range(func(k, v any) bool {
		sl := v.(*stageLatency)
		stage := k.(string)
		m["stage_"+stage+"_count"] = sl.count.Load()
		if n := sl.count.Load(); n > 0 {
			m["stage_"+stage+"_avg_ms"] = time.Duration(sl.nanos.Load() / n).Milliseconds()
		}
		return true
	})
	hits, misses := CacheStats()
	m["cache_hits"] = hits
	m["cache_misses"] = misses
	return m
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// TrackOperation runs fn, records its latency under name and counts it as
// slow when it exceeds slowOperationThreshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	Observe(name, elapsed)
	if elapsed > slowOperationThreshold {
		Incr(MetricSlowOperations)
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
