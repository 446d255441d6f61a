package talent

import (
	"time"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

// Recorder receives structured pipeline events: counters for fallback paths
// and failures, and per-stage latency.
type Recorder interface {
	Incr(name string)
	Add(name string, n int)
	Observe(stage string, d time.Duration)
}

// EngineRecorder forwards events to the engine metrics registry.
type EngineRecorder struct{}

func (EngineRecorder) Incr(name string)                      { engine.Incr(name) }
func (EngineRecorder) Add(name string, n int)                { engine.Add(name, int64(n)) }
func (EngineRecorder) Observe(stage string, d time.Duration) { engine.Observe(stage, d) }

type nopRecorder struct{}

func (nopRecorder) Incr(string)                   {}
func (nopRecorder) Add(string, int)               {}
func (nopRecorder) Observe(string, time.Duration) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
