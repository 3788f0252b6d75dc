package domain

// CachedContentSummaryState is a content row enriched with its join rows and
// resolved parent, ready for display in lists and detail headers.
type CachedContentSummaryState struct {
	Content       Content
	Domains       []ContentDomain
	Categories    []ContentCategory
	ParentContent *Content
}

// CachedChildContentsState lists a collection's groups and their child
// contents in playback order.
type CachedChildContentsState struct {
	Contents []Content
	Groups   []Group
}

// CachedDynamicContentState is the lightweight per-content state that can
// change independently of catalog data. Absence of either field is a valid
// "not started / not bookmarked" state, never a cache miss.
type CachedDynamicContentState struct {
	Progression *Progression
	Bookmark    *Bookmark
}

// Equal reports whether two dynamic states project the same value
func (s CachedDynamicContentState) Equal(o CachedDynamicContentState) bool {
	switch {
	case (s.Progression == nil) != (o.Progression == nil):
		return false
	case s.Progression != nil && *s.Progression != *o.Progression:
		return false
	case (s.Bookmark == nil) != (o.Bookmark == nil):
		return false
	case s.Bookmark != nil && *s.Bookmark != *o.Bookmark:
		return false
	}
	return true
}

// CachedVideoPlaybackState is one playlist entry: the content to play along
// with its current progression.
type CachedVideoPlaybackState struct {
	Content     Content
	Progression *Progression
}

// ContentPersistableState is the fully denormalized snapshot of a content
// subtree written to durable storage for offline use.
type ContentPersistableState struct {
	Content       Content
	Bookmark      *Bookmark
	Progression   *Progression
	Groups        []Group
	ChildContents []Content
	ParentContent *Content
	Domains       []ContentDomain
	Categories    []ContentCategory
}

// Equal reports whether two groups are the same record
func (g Group) Equal(o Group) bool {
	return g.ID == o.ID &&
		g.Name == o.Name &&
		equalStringPtr(g.Description, o.Description) &&
		g.Ordinal == o.Ordinal &&
		g.ContentID == o.ContentID
}

// EqualContents reports element-wise equality of two content slices
func EqualContents(a, b []Content) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// EqualGroups reports element-wise equality of two group slices
func EqualGroups(a, b []Group) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two summary states project the same value
func (s CachedContentSummaryState) Equal(o CachedContentSummaryState) bool {
	if !s.Content.Equal(o.Content) {
		return false
	}
	if len(s.Domains) != len(o.Domains) || len(s.Categories) != len(o.Categories) {
		return false
	}
	for i := range s.Domains {
		if s.Domains[i] != o.Domains[i] {
			return false
		}
	}
	for i := range s.Categories {
		if s.Categories[i] != o.Categories[i] {
			return false
		}
	}
	if (s.ParentContent == nil) != (o.ParentContent == nil) {
		return false
	}
	if s.ParentContent != nil && !s.ParentContent.Equal(*o.ParentContent) {
		return false
	}
	return true
}

// Equal reports whether two child-contents states project the same value
func (s CachedChildContentsState) Equal(o CachedChildContentsState) bool {
	return EqualContents(s.Contents, o.Contents) && EqualGroups(s.Groups, o.Groups)
}

// Equal reports whether two playback entries project the same value
func (s CachedVideoPlaybackState) Equal(o CachedVideoPlaybackState) bool {
	if !s.Content.Equal(o.Content) {
		return false
	}
	if (s.Progression == nil) != (o.Progression == nil) {
		return false
	}
	return s.Progression == nil || *s.Progression == *o.Progression
}

// EqualPlaybackStates reports element-wise equality of two playlists
func EqualPlaybackStates(a, b []CachedVideoPlaybackState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
