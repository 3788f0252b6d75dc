package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/razeware/emitron/internal/adapter"
	"github.com/razeware/emitron/internal/cache"
	"github.com/razeware/emitron/internal/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	c := cache.NewDataCache(adapter.NullLogger())
	c.Update(domain.CacheUpdate{
		Contents: []domain.Content{
			named(1, "SwiftUI Fundamentals", domain.ContentTypeCollection),
			named(2, "Swift Concurrency", domain.ContentTypeScreencast),
			named(3, "Kotlin Coroutines", domain.ContentTypeCollection),
		},
	})
	return NewService(c, adapter.NullLogger())
}

func named(id int, name string, ct domain.ContentType) domain.Content {
	return domain.Content{
		ID:          id,
		URI:         "rw://content/search",
		Name:        name,
		ReleasedAt:  time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC),
		ContentType: ct,
		Duration:    300,
	}
}

func resultIDs(results []Result) []int {
	ids := make([]int, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Content.ID)
	}
	return ids
}

func TestFilterMatchesCaseInsensitively(t *testing.T) {
	s := newTestService(t)

	results := s.Filter("swift", nil)
	require.ElementsMatch(t, []int{1, 2}, resultIDs(results))
}

func TestFilterNarrowsByType(t *testing.T) {
	s := newTestService(t)

	results := s.Filter("swift", []domain.ContentType{domain.ContentTypeScreencast})
	require.Equal(t, []int{2}, resultIDs(results))
}

func TestFilterOrdersByDistance(t *testing.T) {
	s := newTestService(t)

	results := s.Filter("Swift Concurrency", nil)
	require.NotEmpty(t, results)
	require.Equal(t, 2, results[0].Content.ID)
	for i := 1; i < len(results); i++ {
		require.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestFilterEmptyQuery(t *testing.T) {
	s := newTestService(t)

	require.Nil(t, s.Filter("", nil))
	require.Nil(t, s.Filter("   ", nil))
}

func TestFilterNoMatches(t *testing.T) {
	s := newTestService(t)

	require.Empty(t, s.Filter("zzzzzz", nil))
}
