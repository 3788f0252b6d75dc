package cache

import (
	"context"
	"errors"

	"github.com/razeware/emitron/internal/domain"
)

// Result carries one projected value or the cache miss that stood in for it
type Result[T any] struct {
	Value T
	Err   error
}

// Watch re-evaluates project after every cache change and pushes the result
// whenever it differs from the previously pushed one. Deduplication happens
// on the projected output, so an update to an unrelated entity does not
// reach the consumer. The current value is pushed immediately on subscribe.
//
// The returned channel closes when ctx is cancelled.
func Watch[T any](ctx context.Context, c *DataCache, project func() (T, error), eq func(a, b T) bool) <-chan Result[T] {
	out := make(chan Result[T], 1)
	sub := c.Subscribe()

	go func() {
		defer close(out)
		defer sub.Close()

		var last Result[T]
		have := false

		emit := func() bool {
			value, err := project()
			next := Result[T]{Value: value, Err: err}
			if have && sameResult(last, next, eq) {
				return true
			}
			last, have = next, true
			select {
			case out <- next:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Notify():
				if !emit() {
					return
				}
			}
		}
	}()

	return out
}

func sameResult[T any](a, b Result[T], eq func(x, y T) bool) bool {
	if a.Err != nil || b.Err != nil {
		return errors.Is(a.Err, b.Err) || errors.Is(b.Err, a.Err)
	}
	return eq(a.Value, b.Value)
}

// WatchContentSummaryState streams the summary projection for a content
func (c *DataCache) WatchContentSummaryState(ctx context.Context, contentID int) <-chan Result[domain.CachedContentSummaryState] {
	return Watch(ctx, c,
		func() (domain.CachedContentSummaryState, error) { return c.ContentSummaryState(contentID) },
		domain.CachedContentSummaryState.Equal)
}

// WatchChildContentsState streams the child listing projection for a content
func (c *DataCache) WatchChildContentsState(ctx context.Context, contentID int) <-chan Result[domain.CachedChildContentsState] {
	return Watch(ctx, c,
		func() (domain.CachedChildContentsState, error) { return c.ChildContentsState(contentID) },
		domain.CachedChildContentsState.Equal)
}

// WatchDynamicContentState streams the progression/bookmark projection for a
// content. The Err field is always nil; dynamic state cannot miss.
func (c *DataCache) WatchDynamicContentState(ctx context.Context, contentID int) <-chan Result[domain.CachedDynamicContentState] {
	return Watch(ctx, c,
		func() (domain.CachedDynamicContentState, error) { return c.DynamicContentState(contentID), nil },
		domain.CachedDynamicContentState.Equal)
}

// WatchVideoPlaybackState streams the playlist projection for a content
func (c *DataCache) WatchVideoPlaybackState(ctx context.Context, contentID int) <-chan Result[[]domain.CachedVideoPlaybackState] {
	return Watch(ctx, c,
		func() ([]domain.CachedVideoPlaybackState, error) { return c.VideoPlaybackState(contentID) },
		domain.EqualPlaybackStates)
}
