package cache

import (
	"sort"

	"github.com/razeware/emitron/internal/domain"
)

// ContentSummaryState projects a single content enriched with its join rows
// and resolved parent. Fails with domain.ErrCacheMiss when the content or its
// domain rows are absent; categories are optional metadata and default to
// empty.
func (c *DataCache) ContentSummaryState(contentID int) (domain.CachedContentSummaryState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contentSummaryLocked(contentID)
}

// ContentSummaryStates is the batch form of ContentSummaryState. Any missing
// element makes the whole batch a cache miss.
func (c *DataCache) ContentSummaryStates(contentIDs []int) ([]domain.CachedContentSummaryState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CachedContentSummaryState, 0, len(contentIDs))
	for _, id := range contentIDs {
		state, err := c.contentSummaryLocked(id)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	return out, nil
}

// ChildContentsState projects a collection's groups and child contents in
// playback order. Non-collections have no children and project empty; a
// collection with no known groups projects empty too, but groups whose child
// contents are absent from the store mean the collection has not finished
// loading and the call is a cache miss.
func (c *DataCache) ChildContentsState(contentID int) (domain.CachedChildContentsState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.childContentsLocked(contentID)
}

// DynamicContentState projects the volatile per-content state: progression
// and bookmark. It cannot miss; absence of either is a valid "not started /
// not bookmarked" value.
func (c *DataCache) DynamicContentState(contentID int) domain.CachedDynamicContentState {
	c.mu.Lock()
	defer c.mu.Unlock()

	var state domain.CachedDynamicContentState
	if p, ok := c.progressions[contentID]; ok {
		state.Progression = &p
	}
	if b, ok := c.bookmarks[contentID]; ok {
		state.Bookmark = &b
	}
	return state
}

// PersistableState projects the fully denormalized snapshot of a content
// subtree for durable offline storage. Episodes inherit their domain from
// the parent collection, so they are exempt from the domain-rows
// requirement.
func (c *DataCache) PersistableState(contentID int) (domain.ContentPersistableState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	content, ok := c.contents[contentID]
	if !ok {
		return domain.ContentPersistableState{}, domain.ErrCacheMiss
	}

	domains := c.contentDomains[contentID]
	if content.ContentType != domain.ContentTypeEpisode && len(domains) == 0 {
		return domain.ContentPersistableState{}, domain.ErrCacheMiss
	}

	parent, err := c.parentContentLocked(content)
	if err != nil {
		return domain.ContentPersistableState{}, err
	}

	state := domain.ContentPersistableState{
		Content:       content,
		ParentContent: parent,
		Domains:       append([]domain.ContentDomain(nil), domains...),
		Categories:    append([]domain.ContentCategory(nil), c.contentCategories[contentID]...),
	}
	if b, ok := c.bookmarks[contentID]; ok {
		state.Bookmark = &b
	}
	if p, ok := c.progressions[contentID]; ok {
		state.Progression = &p
	}

	groups := append([]domain.Group(nil), c.contentGroups[contentID]...)
	sortGroupsByOrdinal(groups)
	state.Groups = groups
	state.ChildContents = c.childrenOfGroupsLocked(groups)

	return state, nil
}

func (c *DataCache) contentSummaryLocked(contentID int) (domain.CachedContentSummaryState, error) {
	content, ok := c.contents[contentID]
	if !ok {
		return domain.CachedContentSummaryState{}, domain.ErrCacheMiss
	}
	domains := c.contentDomains[contentID]
	if len(domains) == 0 {
		return domain.CachedContentSummaryState{}, domain.ErrCacheMiss
	}

	parent, err := c.parentContentLocked(content)
	if err != nil {
		return domain.CachedContentSummaryState{}, err
	}

	return domain.CachedContentSummaryState{
		Content:       content,
		Domains:       append([]domain.ContentDomain(nil), domains...),
		Categories:    append([]domain.ContentCategory(nil), c.contentCategories[contentID]...),
		ParentContent: parent,
	}, nil
}

func (c *DataCache) childContentsLocked(contentID int) (domain.CachedChildContentsState, error) {
	content, ok := c.contents[contentID]
	if !ok {
		return domain.CachedChildContentsState{}, domain.ErrCacheMiss
	}
	if content.ContentType != domain.ContentTypeCollection {
		return domain.CachedChildContentsState{
			Contents: []domain.Content{},
			Groups:   []domain.Group{},
		}, nil
	}

	groups := append([]domain.Group(nil), c.contentGroups[contentID]...)
	if len(groups) == 0 {
		// Genuinely no groups known: an empty collection, not a miss.
		return domain.CachedChildContentsState{
			Contents: []domain.Content{},
			Groups:   []domain.Group{},
		}, nil
	}
	sortGroupsByOrdinal(groups)

	children := c.childrenOfGroupsLocked(groups)
	if len(children) == 0 {
		// Groups exist but none of their children resolved: the collection
		// has not been loaded yet.
		return domain.CachedChildContentsState{}, domain.ErrCacheMiss
	}

	return domain.CachedChildContentsState{Contents: children, Groups: groups}, nil
}

// parentContentLocked resolves content -> group -> owning content. A group
// id that does not resolve to a Group is a cache miss; a group whose owning
// content is absent simply yields no parent.
func (c *DataCache) parentContentLocked(content domain.Content) (*domain.Content, error) {
	if content.GroupID == nil {
		return nil, nil
	}
	group, ok := c.groups[*content.GroupID]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if parent, ok := c.contents[group.ContentID]; ok {
		return &parent, nil
	}
	return nil, nil
}

// childrenOfGroupsLocked collects every cached content belonging to one of
// the given groups, in ordinal order.
func (c *DataCache) childrenOfGroupsLocked(groups []domain.Group) []domain.Content {
	groupIDs := make(map[int]struct{}, len(groups))
	for _, g := range groups {
		groupIDs[g.ID] = struct{}{}
	}

	var children []domain.Content
	for _, content := range c.contents {
		if content.GroupID == nil {
			continue
		}
		if _, ok := groupIDs[*content.GroupID]; ok {
			children = append(children, content)
		}
	}
	sortContentsByOrdinal(children)
	return children
}

func sortGroupsByOrdinal(groups []domain.Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Ordinal != groups[j].Ordinal {
			return groups[i].Ordinal < groups[j].Ordinal
		}
		return groups[i].ID < groups[j].ID
	})
}

// sortContentsByOrdinal orders children ascending by ordinal. A child
// lacking an ordinal sorts before one that has one. Ties break on content
// id: the children are collected from a map, so without a total order the
// projection would reshuffle between evaluations and defeat
// dedup-on-output.
func sortContentsByOrdinal(contents []domain.Content) {
	sort.SliceStable(contents, func(i, j int) bool {
		oi, oj := contents[i].Ordinal, contents[j].Ordinal
		switch {
		case oi == nil && oj == nil:
			return contents[i].ID < contents[j].ID
		case oi == nil:
			return true
		case oj == nil:
			return false
		case *oi != *oj:
			return *oi < *oj
		default:
			return contents[i].ID < contents[j].ID
		}
	})
}
