package cache

import "github.com/razeware/emitron/internal/domain"

// VideoPlaybackState resolves the playlist for a content:
//
//   - screencast: just the screencast itself;
//   - episode: the episode and everything after it in its parent collection;
//   - collection: the next unfinished episode and everything after it;
//   - anything else: an empty playlist.
func (c *DataCache) VideoPlaybackState(contentID int) ([]domain.CachedVideoPlaybackState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	content, ok := c.contents[contentID]
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	switch content.ContentType {
	case domain.ContentTypeScreencast:
		return c.playbackStatesLocked([]domain.Content{content}), nil

	case domain.ContentTypeEpisode:
		parent, err := c.parentContentLocked(content)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, domain.ErrCacheMiss
		}
		siblings, err := c.childContentsLocked(parent.ID)
		if err != nil {
			return nil, err
		}
		start := -1
		for i, sibling := range siblings.Contents {
			if sibling.ID == content.ID {
				start = i
				break
			}
		}
		if start < 0 {
			return nil, domain.ErrCacheMiss
		}
		return c.playbackStatesLocked(siblings.Contents[start:]), nil

	case domain.ContentTypeCollection:
		children, err := c.childContentsLocked(contentID)
		if err != nil {
			return nil, err
		}
		start, err := c.nextToPlayLocked(children.Contents)
		if err != nil {
			return nil, err
		}
		return c.playbackStatesLocked(children.Contents[start:]), nil

	default:
		return []domain.CachedVideoPlaybackState{}, nil
	}
}

// NextToPlay picks the first content in the list whose progression is absent
// or unfinished. When everything is finished the list restarts at the
// beginning. An empty list is a cache miss: there is nothing to choose from.
func (c *DataCache) NextToPlay(contents []domain.Content) (domain.Content, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := c.nextToPlayLocked(contents)
	if err != nil {
		return domain.Content{}, err
	}
	return contents[i], nil
}

func (c *DataCache) nextToPlayLocked(contents []domain.Content) (int, error) {
	if len(contents) == 0 {
		return 0, domain.ErrCacheMiss
	}
	for i, content := range contents {
		p, ok := c.progressions[content.ID]
		if !ok || !p.Finished() {
			return i, nil
		}
	}
	return 0, nil
}

func (c *DataCache) playbackStatesLocked(contents []domain.Content) []domain.CachedVideoPlaybackState {
	states := make([]domain.CachedVideoPlaybackState, 0, len(contents))
	for _, content := range contents {
		state := domain.CachedVideoPlaybackState{Content: content}
		if p, ok := c.progressions[content.ID]; ok {
			state.Progression = &p
		}
		states = append(states, state)
	}
	return states
}
