package crawler

import (
	"context"
	"time"

	"github.com/alvmarrod/page-weaver/internal/config"
	"github.com/alvmarrod/page-weaver/internal/memory"
	"github.com/alvmarrod/page-weaver/internal/metrics"
	"github.com/alvmarrod/page-weaver/internal/seed"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Termination reasons reported in Result.Reason
const (
	ReasonFrontierEmpty = "frontier_empty"
	ReasonBudgetReached = "budget_reached"
	ReasonInterrupted   = "interrupted"
)

// Crawler orchestrates the bounded crawl of one domain
type Crawler struct {
	cfg     *config.Config
	fetcher Fetcher
	tracker *metrics.Tracker
}

// Result is the finished crawl, owned by the caller
type Result struct {
	Visited  []NormalizedURL
	Frontier []NormalizedURL
	Dropped  []NormalizedURL
	Graph    *memory.LinkGraph
	Reason   string
}

// Snapshot returns the node/edge view of the crawled graph
func (r *Result) Snapshot() memory.Snapshot {
	return r.Graph.Snapshot()
}

// NewCrawler creates a new crawler instance. tracker may be nil.
func NewCrawler(cfg *config.Config, fetcher Fetcher, tracker *metrics.Tracker) *Crawler {
	if tracker == nil {
		tracker = metrics.NewTracker("")
	}
	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		tracker: tracker,
	}
}

// Run crawls from the seeds until the frontier is empty, the budget is spent or ctx is done.
// On cancellation the partial result is returned together with ctx.Err().
func (c *Crawler) Run(ctx context.Context, sc *seed.Config) (*Result, error) {
	scope := NewScope(sc.Domain)
	state := NewState(sc.MaxNodes, scope)

	c.admitSeeds(state, sc.Seeds)

	logrus.Infof("Starting crawl on domain %s with %d seeds (max %d nodes, depth %d, %d workers)",
		scope.Domain, len(sc.Seeds), sc.MaxNodes, c.cfg.MaxDepth, c.cfg.ConcurrentWorkers)

	runErr := c.dispatch(ctx, state)

	result := &Result{
		Visited:  state.Visited(),
		Frontier: state.Frontier(),
		Dropped:  state.Dropped(),
		Graph:    state.Graph(),
	}

	switch {
	case runErr != nil:
		result.Reason = ReasonInterrupted
	case len(result.Visited) >= sc.MaxNodes:
		result.Reason = ReasonBudgetReached
	default:
		result.Reason = ReasonFrontierEmpty
	}

	nodes, edges := result.Graph.GetStats()
	logrus.Infof("Crawl finished (%s): %d visited, %d queued, %d dropped | graph: %d nodes, %d edges",
		result.Reason, len(result.Visited), len(result.Frontier), len(result.Dropped), nodes, edges)

	return result, runErr
}

// admitSeeds puts the normalized seeds into the frontier at depth 0
func (c *Crawler) admitSeeds(state *State, seeds []string) {
	for _, raw := range seeds {
		u := Normalize(raw, "")
		if state.TryAdmitToFrontier(u, 0) {
			logrus.Debugf("Seed admitted: %s", u)
			continue
		}

		domain, _ := ExtractDomain(raw)
		logrus.Warnf("Seed %s rejected (domain=%q, normalized=%q)", raw, domain, u)
	}
}

// dispatch claims frontier entries and fetches them with bounded concurrency.
// A single coordinator claims; workers report back through state and wake it.
func (c *Crawler) dispatch(ctx context.Context, state *State) error {
	limiter := newDispatchLimiter(c.cfg.DownloadDelay())

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.ConcurrentWorkers)

	wake := make(chan struct{}, 1)
	notify := func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	}

	var runErr error
	for runErr == nil {
		entry, status := state.Claim()
		if status == Done {
			break
		}

		if status == Wait {
			select {
			case <-wake:
			case <-ctx.Done():
				runErr = ctx.Err()
			}
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			runErr = err
			break
		}

		g.Go(func() error {
			defer notify()
			c.process(ctx, state, entry)
			return nil
		})
	}

	if runErr != nil {
		logrus.Warnf("Crawl interrupted: %v, waiting for %d in-flight fetches", runErr, state.InFlight())
	}

	// Workers never return errors
	_ = g.Wait()
	return runErr
}

// process fetches one entry and folds the outcome into state
func (c *Crawler) process(ctx context.Context, state *State, entry Entry) {
	logrus.Debugf("Fetching %s (depth=%d)", entry.URL, entry.Depth)

	start := time.Now()
	res, err := c.fetcher.Fetch(ctx, entry.URL.String())
	c.tracker.RecordFetchTime(time.Since(start))

	if err != nil {
		logrus.Warnf("Fetch failed for %s: %v", entry.URL, err)
		state.Drop(entry.URL)
		c.tracker.IncrementPagesFailed()
		return
	}

	if !res.IsHTML {
		logrus.Infof("Dropping %s: not HTML (content-type %q)", entry.URL, res.ContentType)
		state.Drop(entry.URL)
		c.tracker.IncrementPagesNotHTML()
		return
	}
	c.tracker.IncrementPagesFetched()

	base := entry.URL.String()
	if res.URL != "" {
		base = res.URL
	}
	links := c.filterLinks(state.scope, base, res.Links)

	admit := c.cfg.MaxDepth == 0 || entry.Depth+1 <= c.cfg.MaxDepth
	stats := state.Visit(entry, links, admit)
	if !stats.Visited {
		return
	}

	visited, _, _ := state.Counts()
	logrus.Infof("[%d/%d] Visiting: %s", visited, state.MaxNodes(), entry.URL)

	c.tracker.IncrementNodesVisited()
	c.tracker.AddLinksAdmitted(stats.Admitted)
	c.tracker.AddEdgesRecorded(stats.Edges)
}

// filterLinks normalizes raw links against base and keeps the in-scope ones
func (c *Crawler) filterLinks(scope Scope, base string, raw []string) []NormalizedURL {
	links := make([]NormalizedURL, 0, len(raw))
	for _, link := range raw {
		u := Normalize(link, base)
		if !u.Valid() || !scope.IsEligible(u) {
			continue
		}
		links = append(links, u)
	}
	return links
}

// newDispatchLimiter allows one dispatch per delay; zero means unlimited
func newDispatchLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
