// Package session ties a Loader, a tree Renderer and an Inspector together
// for one interactive browsing session over a sequence of domains.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/vanderheijden86/tasktree/pkg/debug"
	"github.com/vanderheijden86/tasktree/pkg/inspector"
	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/model"
	"github.com/vanderheijden86/tasktree/pkg/tree"
)

// ErrStale is returned by Open when a newer Open started before this one
// finished. The late result is discarded.
var ErrStale = errors.New("domain load superseded by a newer request")

// ErrNoDomain is returned by operations that need a loaded domain.
var ErrNoDomain = errors.New("no domain loaded")

// Session is the current domain with its tree and detail state.
//
// Open may be called from any goroutine. The remaining methods share a
// mutex with Open, so a view can call them while a load is in flight.
type Session struct {
	loader *loader.Loader

	mu        sync.Mutex
	gen       uint64
	domain    string
	ds        *loader.Dataset
	renderer  *tree.Renderer
	inspector *inspector.Inspector
}

// New creates a Session. Selecting a node in the renderer shows it in the
// inspector before opts.OnSelect runs.
//
// opts.OnSelect runs while the session lock is held (from SelectTask,
// Navigate and With). It must not call back into the Session.
func New(l *loader.Loader, opts tree.Options) *Session {
	s := &Session{
		loader:    l,
		inspector: inspector.New(nil),
	}
	userSelect := opts.OnSelect
	opts.OnSelect = func(t *model.Task) {
		s.inspector.Show(t)
		if userSelect != nil {
			userSelect(t)
		}
	}
	s.renderer = tree.New(opts)
	return s
}

// Open loads domain and makes it current. The tree is rebuilt with the
// expansion state carried over, the selection is cleared and the inspector
// is hidden.
//
// If another Open starts while this one is loading, this call returns
// ErrStale and leaves the newer state in place. A failed load leaves the
// current domain untouched.
func (s *Session) Open(ctx context.Context, domain string) (*loader.Dataset, error) {
	debug.Section("open " + domain)
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	ds, err := s.loader.LoadDomain(ctx, domain)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		debug.Log("discarding stale load of %q (generation %d, current %d)", domain, gen, s.gen)
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}

	s.domain = domain
	s.ds = ds
	s.renderer.Build(ds)
	s.renderer.ClearSelection()
	s.inspector.SetIndex(ds)
	debug.Log("session switched to %q (%d tasks, %d nodes)", domain, ds.Len(), s.renderer.NodeCount())
	return ds, nil
}

// Domain returns the current domain id, or "" before the first Open.
func (s *Session) Domain() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domain
}

// Dataset returns the current dataset, or nil before the first Open.
func (s *Session) Dataset() *loader.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ds
}

// Renderer returns the tree renderer. Callers must not use it while an Open
// may be running; use With instead.
func (s *Session) Renderer() *tree.Renderer { return s.renderer }

// Inspector returns the detail inspector. The same restriction as Renderer
// applies.
func (s *Session) Inspector() *inspector.Inspector { return s.inspector }

// With runs fn with the renderer and inspector while holding the session
// lock, so it never overlaps a domain switch. fn must not call back into
// the Session.
func (s *Session) With(fn func(r *tree.Renderer, in *inspector.Inspector)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.renderer, s.inspector)
}

// SelectTask selects the named task, shows it in the inspector and expands
// its ancestors so it is visible. It reports false for unknown names.
func (s *Session) SelectTask(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.renderer.Select(name) {
		return false
	}
	s.renderer.ExpandPath(name)
	return true
}

// Navigate selects the named task and runs a tree search for its name, so
// the task and its ancestors are the only nodes left visible. It is used to
// jump to a related task from the detail view.
func (s *Session) Navigate(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.renderer.Select(name) {
		return false
	}
	s.renderer.HighlightSearch(name)
	return true
}

// Deselect clears the selection and hides the inspector.
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer.ClearSelection()
	s.inspector.Hide()
}

// Highlight runs a tree search and returns the match count.
func (s *Session) Highlight(query string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.HighlightSearch(query)
}

// Search runs a ranked index search over the current domain.
func (s *Session) Search(query string) ([]loader.SearchResult, error) {
	ds := s.Dataset()
	if ds == nil {
		return nil, ErrNoDomain
	}
	return ds.Search(query), nil
}

// Top returns the limit most popular tasks of the current domain.
func (s *Session) Top(limit int) ([]loader.PopularityEntry, error) {
	ds := s.Dataset()
	if ds == nil {
		return nil, ErrNoDomain
	}
	return ds.TopByPopularity(limit), nil
}

// Stats summarizes the current domain.
func (s *Session) Stats() (loader.Stats, error) {
	ds := s.Dataset()
	if ds == nil {
		return loader.Stats{}, ErrNoDomain
	}
	return ds.Stats(), nil
}

// Details returns the detail view of the displayed task.
func (s *Session) Details() (inspector.Details, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspector.CurrentDetails()
}
