// Package outbox queues user mutations (bookmarks, progress, watch stats)
// for transmission to the server. Requests coalesce per (content, category)
// so at most one call per pair is ever pending, which keeps mutations from
// reaching the server duplicated or out of order.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/razeware/emitron/internal/domain"
	"github.com/razeware/emitron/internal/store"
)

// Transmitter sends one pending request to the server. Implemented by the
// network collaborator, which is out of scope here.
type Transmitter interface {
	Transmit(ctx context.Context, req domain.SyncRequest) error
}

// Engine records pending sync requests and drains them to a Transmitter
type Engine struct {
	store        *store.Store
	logger       *slog.Logger
	BatchSize    int
	PollInterval time.Duration

	now func() time.Time
}

// NewEngine creates a sync engine over the given store
func NewEngine(st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:        st,
		logger:       logger,
		BatchSize:    20,
		PollInterval: 5 * time.Second,
		now:          time.Now,
	}
}

// CreateBookmark queues a bookmark creation for the content
func (e *Engine) CreateBookmark(contentID int) error {
	return e.store.CoalesceSyncRequest(domain.SyncRequest{
		ContentID: contentID,
		Category:  domain.SyncCategoryBookmark,
		Type:      domain.SyncTypeCreateBookmark,
		Date:      e.now(),
	})
}

// DeleteBookmark queues a bookmark deletion for the content. A not-yet-sent
// creation for the same content collapses into the deletion.
func (e *Engine) DeleteBookmark(contentID int) error {
	return e.store.CoalesceSyncRequest(domain.SyncRequest{
		ContentID: contentID,
		Category:  domain.SyncCategoryBookmark,
		Type:      domain.SyncTypeDeleteBookmark,
		Date:      e.now(),
	})
}

// UpdateProgress queues a progress update; successive updates for the same
// content keep only the latest value.
func (e *Engine) UpdateProgress(contentID, progress int) error {
	return e.store.CoalesceSyncRequest(domain.SyncRequest{
		ContentID: contentID,
		Category:  domain.SyncCategoryProgress,
		Type:      domain.SyncTypeUpdateProgress,
		Date:      e.now(),
		Attributes: []domain.SyncAttribute{
			{Kind: domain.SyncAttributeProgress, Value: progress},
		},
	})
}

// MarkComplete queues a completion mark, superseding any pending progress
// update for the content.
func (e *Engine) MarkComplete(contentID int) error {
	return e.store.CoalesceSyncRequest(domain.SyncRequest{
		ContentID: contentID,
		Category:  domain.SyncCategoryProgress,
		Type:      domain.SyncTypeMarkComplete,
		Date:      e.now(),
	})
}

// RecordWatchTime accumulates watched seconds into the current calendar-hour
// bucket for the content.
func (e *Engine) RecordWatchTime(contentID, seconds int) error {
	return e.store.AccumulateWatchTime(contentID, seconds, e.now())
}

// Run drains pending requests to the transmitter on a fixed interval until
// the context is cancelled. Failed transmissions stay queued; the next tick
// retries them.
func (e *Engine) Run(ctx context.Context, t Transmitter) error {
	ticker := time.NewTicker(e.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := e.flushOnce(ctx, t); err != nil {
				e.logger.Warn("outbox flush failed", "error", err)
			}
		}
	}
}

func (e *Engine) flushOnce(ctx context.Context, t Transmitter) error {
	pending, err := e.store.PendingSyncRequests(e.BatchSize)
	if err != nil {
		return err
	}

	for _, req := range pending {
		if err := t.Transmit(ctx, req); err != nil {
			// Leave the request queued; ordering within a category is
			// preserved by stopping at the first failure.
			e.logger.Warn("sync request transmission failed",
				"contentID", req.ContentID, "category", req.Category.String(), "error", err)
			return nil
		}
		if err := e.store.DeleteSyncRequest(req.ID); err != nil {
			return err
		}
		e.logger.Debug("sync request transmitted",
			"contentID", req.ContentID, "type", req.Type.String())
	}
	return nil
}
