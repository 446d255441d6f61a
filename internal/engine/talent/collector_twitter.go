package talent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	twitter "github.com/anatolykoptev/go-twitter"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

const (
	twitterSearchLimit  = 30
	twitterAuthorsLimit = 3
)

// TweetHit is one tweet returned by a timeline search.
type TweetHit struct {
	ID           string
	AuthorID     string
	AuthorHandle string
	AuthorName   string
	Text         string
	Likes     int
	Retweets  int
	CreatedAt time.Time
}

// TweetSearchFunc searches the Twitter/X timeline.
type TweetSearchFunc func(ctx context.Context, query string, limit int) ([]TweetHit, error)

// TwitterSearch adapts a go-twitter client to TweetSearchFunc.
func TwitterSearch(tw *twitter.Client) TweetSearchFunc {
	return func(ctx context.Context, query string, limit int) ([]TweetHit, error) {
		tweets, err := tw.SearchTimeline(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("twitter search: %w", err)
		}
		out := make([]TweetHit, 0, len(tweets))
		for _, t := range tweets {
			out = append(out, TweetHit{
				ID:           t.ID,
				AuthorID:     t.AuthorID,
				AuthorHandle: t.AuthorHandle,
				AuthorName:   t.AuthorName,
				Text:         t.Text,
				Likes:        t.Likes,
				Retweets:     t.Retweets,
				CreatedAt:    t.CreatedAt,
			})
		}
		return out, nil
	}
}

// TwitterCollector finds people tweeting about the probe's skills together
// with open-to-work phrases. Matching tweets become availability signals.
type TwitterCollector struct {
	search TweetSearchFunc
	rec    Recorder
	log    *slog.Logger
}

// NewTwitterCollector builds a Twitter collector over search.
func NewTwitterCollector(search TweetSearchFunc, rec Recorder, log *slog.Logger) *TwitterCollector {
	if log == nil {
		log = slog.Default()
	}
	return &TwitterCollector{search: search, rec: recorderOrNop(rec), log: log}
}

func (t *TwitterCollector) Name() string { return string(PlatformTwitter) }

// twitterAvailabilityTerms is appended to skill terms in every search.
const twitterAvailabilityTerms = `("open to work" OR "looking for a new role" OR "available for hire" OR #opentowork)`

func twitterQuery(skills []string) string {
	terms := quoteAll(firstN(skills, 3))
	if len(terms) == 0 {
		return twitterAvailabilityTerms + " developer"
	}
	return "(" + strings.Join(terms, " OR ") + ") " + twitterAvailabilityTerms
}

type tweetAuthor struct {
	id      string
	handle  string
	name    string
	tweets  int
	signals []string
	skills  []string
}

// Collect implements Collector.
func (t *TwitterCollector) Collect(ctx context.Context, req CollectRequest) ([]PlatformProfile, error) {
	if t.search == nil {
		return nil, errors.New("twitter client not configured")
	}
	q := twitterQuery(req.Skills)
	t.rec.Incr(engine.MetricTwitterSearches)
	hits, err := t.search(ctx, q, twitterSearchLimit)
	if err != nil {
		return nil, err
	}
	t.log.Info("twitter talent search", slog.Int("tweets", len(hits)), slog.String("query", q))

	byAuthor := make(map[string]*tweetAuthor)
	var order []string
	for _, h := range hits {
		if h.AuthorID == "" {
			continue
		}
		a, ok := byAuthor[h.AuthorID]
		if !ok {
			a = &tweetAuthor{id: h.AuthorID}
			byAuthor[h.AuthorID] = a
			order = append(order, h.AuthorID)
		}
		if a.handle == "" {
			a.handle = strings.TrimPrefix(h.AuthorHandle, "@")
		}
		if a.name == "" {
			a.name = strings.TrimSpace(h.AuthorName)
		}
		a.tweets++
		if bioSignalsAvailability(h.Text) || strings.Contains(strings.ToLower(h.Text), "available for hire") {
			a.signals = append(a.signals, "tweet: "+engine.TruncateAtWord(strings.TrimSpace(h.Text), 120))
		}
		lower := strings.ToLower(h.Text)
		for _, s := range req.Skills {
			if strings.Contains(lower, strings.ToLower(s)) {
				a.skills = append(a.skills, s)
			}
		}
	}
	if len(order) == 0 {
		return nil, ErrNoProfiles
	}

	// Most active authors first; ties keep search order.
	sort.SliceStable(order, func(i, j int) bool {
		return byAuthor[order[i]].tweets > byAuthor[order[j]].tweets
	})

	out := make([]PlatformProfile, 0, twitterAuthorsLimit)
	for _, id := range firstN(order, twitterAuthorsLimit) {
		a := byAuthor[id]
		// Without a screen name the numeric author id is the only stable handle.
		handle := a.handle
		if handle == "" {
			handle = a.id
		}
		out = append(out, TwitterPayload{
			ProfileCommon: ProfileCommon{
				Name:                a.name,
				Handle:              handle,
				Skills:              unionSkills(nil, a.skills),
				ConfidenceScore:     0.4,
				AvailabilitySignals: unionSkills(nil, a.signals),
			},
			Tweets: a.tweets,
		})
	}
	return out, nil
}
