package talent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

// MaxProbes caps the candidate queries sent to collectors per search.
const MaxProbes = 5

// Handles are known platform identities for a probe.
type Handles struct {
	GitHub        []string
	LinkedIn      []string
	StackOverflow []string
}

// Probe is one candidate query: a role focus with target skills.
type Probe struct {
	Name     string
	Skills   []string
	Location string
	Queries  map[Platform][]string
	Handles  Handles
}

// HandleSource supplies known handles for a probe (for example from a
// referral list). Optional.
type HandleSource interface {
	Handles(ctx context.Context, p Probe) Handles
}

// Discoverer runs OSINT discovery for an interpretation and plan.
type Discoverer interface {
	Discover(ctx context.Context, interp Interpretation, plan SearchPlan) ([]Candidate, DiscoveryStats)
}

// BuildProbes derives at most MaxProbes probes from the requirements: one per
// top skill by importance, each also carrying the next most important skills.
// With no skills a single probe for the job title is returned.
func BuildProbes(interp Interpretation, plan SearchPlan) []Probe {
	in := normalizePlanInput(interp.Requirements)
	queries := make(map[Platform][]string, len(plan.Platforms))
	for _, p := range planPlatforms {
		for _, q := range plan.Platforms[p] {
			queries[p] = append(queries[p], q.Query)
		}
	}
	location := ""
	if len(in.locations) > 0 {
		location = in.locations[0]
	}

	if len(in.skills) == 0 {
		title := interp.JobSpec.JobTitle
		if title == "" {
			title = "Software Engineer"
		}
		return []Probe{{Name: title, Location: location, Queries: queries}}
	}

	probes := make([]Probe, 0, min(len(in.skills), MaxProbes))
	for i, skill := range firstN(in.skills, MaxProbes) {
		skills := []string{skill}
		for j, other := range in.skills {
			if j != i && len(skills) < 3 {
				skills = append(skills, other)
			}
		}
		probes = append(probes, Probe{
			Name:     skill + " Developer",
			Skills:   skills,
			Location: location,
			Queries:  queries,
		})
	}
	return probes
}

// Discovery fans probes out to collectors with bounded concurrency.
type Discovery struct {
	collectors  []Collector
	handles     HandleSource
	concurrency int
	timeout     time.Duration
	rec         Recorder
	log         *slog.Logger
	now         func() time.Time
}

// DiscoveryConfig configures NewDiscovery.
type DiscoveryConfig struct {
	Collectors  []Collector
	Handles     HandleSource
	Concurrency int
	Timeout     time.Duration
	Recorder    Recorder
	Logger      *slog.Logger
}

// NewDiscovery builds a Discovery. Concurrency defaults to 3.
func NewDiscovery(c DiscoveryConfig) *Discovery {
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return &Discovery{
		collectors:  c.Collectors,
		handles:     c.Handles,
		concurrency: c.Concurrency,
		timeout:     c.Timeout,
		rec:         recorderOrNop(c.Recorder),
		log:         c.Logger,
		now:         time.Now,
	}
}

// Discover implements Discoverer. A failing collector call is logged and
// counted; it never cancels the others. Once ctx is done no further calls
// start. Output order is probe order, then collector order.
func (d *Discovery) Discover(ctx context.Context, interp Interpretation, plan SearchPlan) ([]Candidate, DiscoveryStats) {
	start := time.Now()
	defer func() { d.rec.Observe(string(StageOSINTDiscovery), time.Since(start)) }()

	probes := BuildProbes(interp, plan)
	stats := DiscoveryStats{Probes: len(probes)}
	if len(d.collectors) == 0 {
		return nil, stats
	}

	slots := make([][]PlatformProfile, len(probes)*len(d.collectors))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(d.concurrency)

launch:
	for i, p := range probes {
		if d.handles != nil {
			p.Handles = d.handles.Handles(ctx, p)
		}
		req := CollectRequest{
			Name:                   p.Name,
			Skills:                 p.Skills,
			GitHubUsernames:        p.Handles.GitHub,
			LinkedInURLs:           p.Handles.LinkedIn,
			StackOverflowUsernames: p.Handles.StackOverflow,
			Location:               p.Location,
			Queries:                p.Queries,
		}
		for j, col := range d.collectors {
			if ctx.Err() != nil {
				break launch
			}
			slot := i*len(d.collectors) + j
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				mu.Lock()
				stats.Calls++
				mu.Unlock()

				profiles, err := d.collect(ctx, col, req)
				if err != nil {
					if !IsNoProfiles(err) {
						mu.Lock()
						stats.Failures++
						mu.Unlock()
						d.rec.Incr(engine.MetricCollectFailures)
						d.log.Warn("profile collection failed",
							slog.String("collector", col.Name()),
							slog.String("probe", req.Name),
							slog.Any("error", err))
					}
					return nil
				}
				slots[slot] = profiles
				return nil
			})
		}
	}
	_ = g.Wait()

	now := d.now().UTC()
	var out []Candidate
	for _, profiles := range slots {
		for _, p := range profiles {
			c, err := NormalizeProfile(p, now)
			if err != nil {
				d.log.Debug("profile normalization failed", slog.Any("error", err))
				continue
			}
			out = append(out, c)
		}
	}
	stats.Profiles = len(out)
	stats.Cancelled = ctx.Err() != nil
	d.rec.Add(engine.MetricCollectedCandidates, len(out))
	return out, stats
}

// collect runs one collector call under the per-call timeout and turns a
// panic into an error.
func (d *Discovery) collect(ctx context.Context, col Collector, req CollectRequest) (profiles []PlatformProfile, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collector %s panicked: %v", col.Name(), r)
		}
	}()
	d.rec.Incr(engine.MetricCollectRequests)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	err = engine.TrackOperation(ctx, "collect_"+col.Name(), func(ctx context.Context) error {
		var cerr error
		profiles, cerr = col.Collect(ctx, req)
		return cerr
	})
	return profiles, err
}
