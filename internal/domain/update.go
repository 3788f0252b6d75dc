package domain

// CacheUpdate is the inbound contract between data-fetching collaborators and
// the cache: a batch of entity upserts plus deletion-id lists, applied
// atomically. Adapters build one from a server response; the persistence
// layer builds one when rehydrating the cache at session start.
type CacheUpdate struct {
	Contents     []Content
	Bookmarks    []Bookmark
	Progressions []Progression
	Groups       []Group

	ContentDomains    []ContentDomain
	ContentCategories []ContentCategory

	BookmarkDeletionContentIDs    []int
	ProgressionDeletionContentIDs []int
}

// IsEmpty reports whether the batch carries no upserts and no deletions
func (u CacheUpdate) IsEmpty() bool {
	return len(u.Contents) == 0 &&
		len(u.Bookmarks) == 0 &&
		len(u.Progressions) == 0 &&
		len(u.Groups) == 0 &&
		len(u.ContentDomains) == 0 &&
		len(u.ContentCategories) == 0 &&
		len(u.BookmarkDeletionContentIDs) == 0 &&
		len(u.ProgressionDeletionContentIDs) == 0
}

// Merge appends another batch onto this one. Used by the persistence layer
// to assemble a full hydration update from per-table reads.
func (u *CacheUpdate) Merge(other CacheUpdate) {
	u.Contents = append(u.Contents, other.Contents...)
	u.Bookmarks = append(u.Bookmarks, other.Bookmarks...)
	u.Progressions = append(u.Progressions, other.Progressions...)
	u.Groups = append(u.Groups, other.Groups...)
	u.ContentDomains = append(u.ContentDomains, other.ContentDomains...)
	u.ContentCategories = append(u.ContentCategories, other.ContentCategories...)
	u.BookmarkDeletionContentIDs = append(u.BookmarkDeletionContentIDs, other.BookmarkDeletionContentIDs...)
	u.ProgressionDeletionContentIDs = append(u.ProgressionDeletionContentIDs, other.ProgressionDeletionContentIDs...)
}
