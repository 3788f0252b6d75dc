// Package search provides fuzzy title search over cached catalog content.
// It reads only the in-memory cache and never touches the network.
package search

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/razeware/emitron/internal/cache"
	"github.com/razeware/emitron/internal/domain"
)

// Result is one matched content with its match distance (lower = better)
type Result struct {
	Content  domain.Content
	Distance int
}

// Service handles fuzzy search across the cached catalog
type Service struct {
	cache  *cache.DataCache
	logger *slog.Logger
}

// NewService creates a new search service
func NewService(c *cache.DataCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cache: c, logger: logger}
}

// Filter searches cached content names. types narrows results to the given
// content types; nil means all types. Results are ordered by match quality.
func (s *Service) Filter(query string, types []domain.ContentType) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	typeSet := make(map[domain.ContentType]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	var candidates []domain.Content
	for _, content := range s.cache.AllContents() {
		if len(typeSet) > 0 {
			if _, ok := typeSet[content.ContentType]; !ok {
				continue
			}
		}
		candidates = append(candidates, content)
	}
	if len(candidates) == 0 {
		return nil
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	results := make([]Result, 0, len(ranks))
	for _, r := range ranks {
		results = append(results, Result{
			Content:  candidates[r.OriginalIndex],
			Distance: r.Distance,
		})
	}

	s.logger.Debug("search complete", "query", query, "matches", len(results))
	return results
}
