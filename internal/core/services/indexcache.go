package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
	"github.com/evidentlabs/answercore/internal/logger"
)

// Handle is a live, queryable reference to a built similarity index for one
// scope. Handles are created and swapped only by the IndexCache; at most one
// live handle exists per scope at any instant.
type Handle struct {
	scope      domain.Scope
	generation uint64
	provider   driven.IndexProvider
}

// Scope returns the namespace this handle serves.
func (h *Handle) Scope() domain.Scope { return h.scope }

// Generation returns the build generation. It increases strictly with every
// rebuild of the scope and never resets, even across invalidation.
func (h *Handle) Generation() uint64 { return h.generation }

// Query returns the k nearest entries for the query text. In-flight queries
// on a superseded handle are allowed to finish; they simply read the
// provider's previous persisted index state.
func (h *Handle) Query(ctx context.Context, text string, k int) ([]driven.IndexHit, error) {
	return h.provider.Query(ctx, h.scope, text, k)
}

// cacheEntry is the per-scope registry slot.
type cacheEntry struct {
	handle     *Handle
	rebuilding bool
	lastAccess time.Time
}

// IndexCache keeps at most one live index handle per scope in memory,
// loads persisted indexes on demand, swaps in rebuilds atomically, and
// bounds memory via idle eviction.
//
// Concurrency contract: Get may proceed concurrently for any scope.
// Rebuilds of the same scope are mutually exclusive - the second caller is
// rejected with domain.ErrRebuildInProgress rather than queued, so the
// caller decides whether to retry. Rebuilds of different scopes never block
// each other; the only shared critical section is the registry map itself.
type IndexCache struct {
	provider driven.IndexProvider

	mu      sync.RWMutex
	entries map[domain.Scope]*cacheEntry
	gens    map[domain.Scope]uint64
	now     func() time.Time
}

// NewIndexCache creates an index cache over the given provider.
func NewIndexCache(provider driven.IndexProvider) *IndexCache {
	return &IndexCache{
		provider: provider,
		entries:  make(map[domain.Scope]*cacheEntry),
		gens:     make(map[domain.Scope]uint64),
		now:      time.Now,
	}
}

// Get returns a ready-to-query handle for the scope. If no handle is cached
// it attempts to load a previously persisted index. Returns
// domain.ErrNotFound when no persisted index exists; callers must treat
// that as "no document evidence available", not as a failure.
func (c *IndexCache) Get(ctx context.Context, scope domain.Scope) (*Handle, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("index cache get: %w", domain.ErrInvalidInput)
	}

	c.mu.RLock()
	entry, ok := c.entries[scope]
	var cached *Handle
	if ok {
		cached = entry.handle
	}
	c.mu.RUnlock()

	if cached != nil {
		c.touch(scope)
		return cached, nil
	}

	// Nothing cached - probe the provider for a persisted index.
	exists, err := c.provider.Exists(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("probe index for scope %q: %w", scope, err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have loaded or rebuilt while we probed.
	// Only one handle per scope may ever be live. The existing slot is
	// reused, never replaced: it may carry a rebuilding mark that must
	// survive this load.
	entry, ok = c.entries[scope]
	if !ok {
		entry = &cacheEntry{}
		c.entries[scope] = entry
	}
	if entry.handle != nil {
		entry.lastAccess = c.now()
		return entry.handle, nil
	}
	if entry.rebuilding {
		// A rebuild owns this slot and installs its handle on
		// completion; loading the superseded persisted state here
		// would hand out an index known to be going stale.
		return nil, domain.ErrNotFound
	}

	c.gens[scope]++
	handle := &Handle{scope: scope, generation: c.gens[scope], provider: c.provider}
	entry.handle = handle
	entry.lastAccess = c.now()
	logger.Debug("Index cache: loaded persisted index for scope %q (generation %d)", scope, handle.generation)
	return handle, nil
}

// Rebuild builds a new index for the scope from the given entries (a full
// replacement set), persists it, atomically swaps it into the cache, and
// increments the generation counter. In-flight reads of the old handle
// finish undisturbed; reads after the swap observe only the new handle.
func (c *IndexCache) Rebuild(ctx context.Context, scope domain.Scope, entries []driven.IndexEntry) (*Handle, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("index cache rebuild: %w", domain.ErrInvalidInput)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("rebuild scope %q: no embeddable content: %w", scope, domain.ErrIndexBuild)
	}

	if err := c.beginRebuild(scope); err != nil {
		return nil, err
	}

	logger.Section("Index Rebuild")
	logger.Info("Rebuilding index for scope %q from %d entries", scope, len(entries))

	// The provider build runs outside the registry lock so reads and
	// rebuilds of other scopes proceed freely.
	if err := c.provider.Build(ctx, scope, entries); err != nil {
		c.abortRebuild(scope)
		if errors.Is(err, domain.ErrIndexBuild) || errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, fmt.Errorf("rebuild scope %q: %w", scope, err)
		}
		return nil, fmt.Errorf("rebuild scope %q: %w: %w", scope, domain.ErrIndexBuild, err)
	}

	handle := c.completeRebuild(scope)
	logger.Info("Index rebuilt for scope %q (generation %d)", scope, handle.generation)
	return handle, nil
}

// Invalidate drops the cached handle for a scope, typically after the
// scope's documents were deleted. Subsequent Get calls return
// domain.ErrNotFound until a rebuild occurs. An in-flight rebuild of the
// scope is not cancelled; it installs its handle on completion.
func (c *IndexCache) Invalidate(scope domain.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[scope]
	if !ok {
		return
	}
	if entry.rebuilding {
		entry.handle = nil
		return
	}
	delete(c.entries, scope)
	logger.Debug("Index cache: invalidated scope %q", scope)
}

// EvictIdle drops handles that have not been accessed for longer than
// maxAge and returns the number evicted. A scope that is mid-rebuild is
// never evicted.
func (c *IndexCache) EvictIdle(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-maxAge)
	evicted := 0
	for scope, entry := range c.entries {
		if entry.rebuilding {
			continue
		}
		if entry.lastAccess.Before(cutoff) {
			delete(c.entries, scope)
			evicted++
		}
	}
	if evicted > 0 {
		logger.Debug("Index cache: evicted %d idle handle(s)", evicted)
	}
	return evicted
}

// Len returns the number of cached handles. Intended for housekeeping logs.
func (c *IndexCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *IndexCache) touch(scope domain.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[scope]; ok {
		entry.lastAccess = c.now()
	}
}

func (c *IndexCache) beginRebuild(scope domain.Scope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[scope]
	if !ok {
		entry = &cacheEntry{lastAccess: c.now()}
		c.entries[scope] = entry
	}
	if entry.rebuilding {
		return fmt.Errorf("scope %q: %w", scope, domain.ErrRebuildInProgress)
	}
	entry.rebuilding = true
	return nil
}

func (c *IndexCache) abortRebuild(scope domain.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[scope]
	if !ok {
		return
	}
	entry.rebuilding = false
	if entry.handle == nil {
		delete(c.entries, scope)
	}
}

func (c *IndexCache) completeRebuild(scope domain.Scope) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[scope]++
	handle := &Handle{scope: scope, generation: c.gens[scope], provider: c.provider}
	entry, ok := c.entries[scope]
	if !ok {
		entry = &cacheEntry{}
		c.entries[scope] = entry
	}
	entry.handle = handle
	entry.rebuilding = false
	entry.lastAccess = c.now()
	return handle
}
