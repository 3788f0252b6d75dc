// Package cache holds the in-memory denormalized entity store for catalog
// data and the read-model projections derived from it. All mutation goes
// through Update; queries are synchronous pure reads that fail with
// domain.ErrCacheMiss when required data has not been loaded yet.
package cache

import (
	"log/slog"
	"sync"

	"github.com/razeware/emitron/internal/domain"
)

// DataCache is the single shared entity store. One mutex guards every map;
// the multi-step merge in Update must never expose torn state to a reader.
type DataCache struct {
	mu     sync.Mutex
	logger *slog.Logger

	contents     map[int]domain.Content
	bookmarks    map[int]domain.Bookmark    // keyed by content id
	progressions map[int]domain.Progression // keyed by content id

	groups        map[int]domain.Group   // group id -> group
	contentGroups map[int][]domain.Group // owning content id -> groups

	contentDomains    map[int][]domain.ContentDomain
	contentCategories map[int][]domain.ContentCategory

	bus *bus
}

// NewDataCache creates an empty cache
func NewDataCache(logger *slog.Logger) *DataCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataCache{
		logger:            logger,
		contents:          make(map[int]domain.Content),
		bookmarks:         make(map[int]domain.Bookmark),
		progressions:      make(map[int]domain.Progression),
		groups:            make(map[int]domain.Group),
		contentGroups:     make(map[int][]domain.Group),
		contentDomains:    make(map[int][]domain.ContentDomain),
		contentCategories: make(map[int][]domain.ContentCategory),
		bus:               newBus(),
	}
}

// Update applies a batch of upserts and deletions atomically, then notifies
// subscribers. The operation cannot fail: join rows whose content id matches
// nothing are accepted and simply leave downstream queries treating that id
// as having no known value.
//
// The general changed signal fires even for an empty batch; consumers dedupe
// on their own projected value, not on the signal.
func (c *DataCache) Update(u domain.CacheUpdate) {
	c.mu.Lock()

	var inv Invalidation
	if len(u.Bookmarks) > 0 || len(u.BookmarkDeletionContentIDs) > 0 {
		inv |= InvalidationBookmarks
	}
	if len(u.Progressions) > 0 || len(u.ProgressionDeletionContentIDs) > 0 {
		inv |= InvalidationProgressions
	}

	for _, b := range u.Bookmarks {
		c.bookmarks[b.ContentID] = b
	}
	for _, p := range u.Progressions {
		c.progressions[p.ContentID] = p
	}

	for _, in := range u.Contents {
		// Group membership is sometimes omitted by partial server responses
		// and must not be clobbered.
		if existing, ok := c.contents[in.ID]; ok && in.GroupID == nil {
			in.GroupID = existing.GroupID
		}
		c.contents[in.ID] = in
	}

	if len(u.Groups) > 0 {
		grouped := make(map[int][]domain.Group)
		for _, g := range u.Groups {
			c.groups[g.ID] = g
			grouped[g.ContentID] = append(grouped[g.ContentID], g)
		}
		// Last batch wins per owning content id, not a union.
		for contentID, gs := range grouped {
			c.contentGroups[contentID] = gs
		}
	}

	if len(u.ContentDomains) > 0 {
		grouped := make(map[int][]domain.ContentDomain)
		for _, d := range u.ContentDomains {
			grouped[d.ContentID] = append(grouped[d.ContentID], d)
		}
		for contentID, ds := range grouped {
			c.contentDomains[contentID] = ds
		}
	}

	if len(u.ContentCategories) > 0 {
		grouped := make(map[int][]domain.ContentCategory)
		for _, cc := range u.ContentCategories {
			grouped[cc.ContentID] = append(grouped[cc.ContentID], cc)
		}
		for contentID, cs := range grouped {
			c.contentCategories[contentID] = cs
		}
	}

	for _, id := range u.BookmarkDeletionContentIDs {
		delete(c.bookmarks, id)
	}
	for _, id := range u.ProgressionDeletionContentIDs {
		delete(c.progressions, id)
	}

	c.mu.Unlock()

	c.logger.Debug("cache updated",
		"contents", len(u.Contents),
		"bookmarks", len(u.Bookmarks),
		"progressions", len(u.Progressions),
		"groups", len(u.Groups))

	c.bus.broadcast(inv)
}

// Subscribe registers a new change subscriber. Callers must Close the
// subscription when done.
func (c *DataCache) Subscribe() *Subscription {
	return c.bus.subscribe()
}

// Stats summarizes current cache population
type Stats struct {
	Contents     int
	Bookmarks    int
	Progressions int
	Groups       int
}

// Stats returns current entity counts
func (c *DataCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Contents:     len(c.contents),
		Bookmarks:    len(c.bookmarks),
		Progressions: len(c.progressions),
		Groups:       len(c.groups),
	}
}

// AllContents returns a copy of every cached content row. Used by search.
func (c *DataCache) AllContents() []domain.Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Content, 0, len(c.contents))
	for _, content := range c.contents {
		out = append(out, content)
	}
	return out
}
