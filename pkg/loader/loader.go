// Package loader fetches per-domain task hierarchy documents, indexes them
// and caches the result for the lifetime of the Loader.
package loader

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/tasktree/pkg/debug"
	"github.com/vanderheijden86/tasktree/pkg/metrics"
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load progress and failures.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader loads and caches indexed datasets keyed by domain.
//
// The cache only grows: a dataset, once built, is returned for every later
// request for the same domain. Concurrent requests for a domain that is not
// cached yet share a single fetch-and-build.
type Loader struct {
	fetcher Fetcher
	logger  *log.Logger

	mu    sync.RWMutex
	cache map[string]*Dataset
	group singleflight.Group
}

// NewLoader creates a Loader that reads documents through f.
func NewLoader(f Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher: f,
		// Silence by default. Callers can opt-in via WithLogger.
		logger: log.New(io.Discard),
		cache:  make(map[string]*Dataset),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadDomain returns the indexed dataset for domain, fetching and indexing it
// on first use. A cache hit returns the same *Dataset every time.
//
// Errors are *ValidationError for a bad domain identifier and *LoadError for
// fetch or parse failures. A failed load leaves the cache untouched and can
// be retried by calling LoadDomain again.
//
// Concurrent callers for the same domain share one fetch. The shared fetch
// runs detached from every caller's cancellation: a caller whose ctx is done
// returns ctx.Err() without waiting, and the fetch continues for the others.
// Context values are still passed through to the Fetcher.
func (l *Loader) LoadDomain(ctx context.Context, domain string) (*Dataset, error) {
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}
	if ds, ok := l.Cached(domain); ok {
		metrics.DatasetCache.Hit()
		l.logger.Debug("dataset cache hit", "domain", domain)
		return ds, nil
	}
	metrics.DatasetCache.Miss()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(domain, func() (any, error) {
		// A previous flight may have finished between Cached and DoChan.
		if ds, ok := l.Cached(domain); ok {
			return ds, nil
		}
		return l.build(shared, domain)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	}
}

func (l *Loader) build(ctx context.Context, domain string) (*Dataset, error) {
	defer debug.LogEnterExit("loader.build " + domain)()
	if l.fetcher == nil {
		return nil, &LoadError{Domain: domain, Reason: "no fetcher configured"}
	}

	start := time.Now()
	stopFetch := metrics.Timer(metrics.Fetch)
	data, err := l.fetcher.Fetch(ctx, domain)
	stopFetch()
	debug.LogTiming("fetch "+domain, time.Since(start))
	if err != nil {
		l.logger.Error("fetch failed", "domain", domain, "err", err)
		return nil, &LoadError{Domain: domain, Reason: "fetch failed", Err: err}
	}

	doc, err := ParseDocument(data)
	if err != nil {
		l.logger.Error("invalid hierarchy document", "domain", domain, "err", err)
		return nil, &LoadError{Domain: domain, Reason: "invalid document", Err: err}
	}

	ds := BuildIndex(domain, doc)
	for _, c := range ds.Collisions {
		l.logger.Warn("task name collision, keeping last", "domain", domain, "key", c.Key, "kept", c.Kept)
	}

	l.mu.Lock()
	l.cache[domain] = ds
	l.mu.Unlock()

	l.logger.Info("loaded domain",
		"domain", domain,
		"tasks", ds.TotalTasks,
		"bytes", len(data),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return ds, nil
}

// Cached returns the dataset for domain if it has already been built.
func (l *Loader) Cached(domain string) (*Dataset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ds, ok := l.cache[domain]
	return ds, ok
}

// Domains lists the cached domains in lexical order.
func (l *Loader) Domains() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.cache))
	for d := range l.cache {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
