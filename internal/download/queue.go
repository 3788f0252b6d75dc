// Package download tracks download records through their state machine and
// exposes ordered queue views to the downloader collaborator. All rows live
// in the relational store; this manager validates transitions and pushes the
// live queue view to subscribers on every relevant write.
package download

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/razeware/emitron/internal/domain"
	"github.com/razeware/emitron/internal/store"
)

// DefaultViewLimit bounds the live queue view
const DefaultViewLimit = 10

// allowed enumerates legal state transitions. Only complete is terminal;
// interrupted downloads re-enter the queue via pending or readyForDownload.
var allowed = map[domain.DownloadState][]domain.DownloadState{
	domain.DownloadStatePending:          {domain.DownloadStateURLRequested, domain.DownloadStateCancelled, domain.DownloadStateError},
	domain.DownloadStateURLRequested:     {domain.DownloadStateReadyForDownload, domain.DownloadStateCancelled, domain.DownloadStateFailed, domain.DownloadStateError},
	domain.DownloadStateReadyForDownload: {domain.DownloadStateEnqueued, domain.DownloadStateCancelled, domain.DownloadStateError},
	domain.DownloadStateEnqueued:         {domain.DownloadStateInProgress, domain.DownloadStatePaused, domain.DownloadStateCancelled, domain.DownloadStateError},
	domain.DownloadStateInProgress:       {domain.DownloadStatePaused, domain.DownloadStateCancelled, domain.DownloadStateFailed, domain.DownloadStateComplete, domain.DownloadStateError},
	domain.DownloadStatePaused:           {domain.DownloadStatePending, domain.DownloadStateReadyForDownload, domain.DownloadStateEnqueued, domain.DownloadStateCancelled},
	domain.DownloadStateCancelled:        {domain.DownloadStatePending, domain.DownloadStateReadyForDownload},
	domain.DownloadStateFailed:           {domain.DownloadStatePending, domain.DownloadStateReadyForDownload},
	domain.DownloadStateError:            {domain.DownloadStatePending, domain.DownloadStateReadyForDownload},
	domain.DownloadStateComplete:         {},
}

// Manager owns the download queue. ViewLimit bounds the live queue view and
// may be adjusted from config before the first subscriber attaches.
type Manager struct {
	store  *store.Store
	logger *slog.Logger

	ViewLimit int

	mu   sync.Mutex
	subs map[chan []domain.Download]struct{}
}

// NewManager creates a queue manager over the given store
func NewManager(st *store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:     st,
		logger:    logger,
		ViewLimit: DefaultViewLimit,
		subs:      make(map[chan []domain.Download]struct{}),
	}
}

// Request creates pending download rows for a content. A collection gets a
// synthetic aggregate row plus one row per child episode; any content that
// already has a download keeps its existing row. The content subtree must
// already be persisted: download rows are foreign-keyed to contents.
func (m *Manager) Request(content domain.Content, children []domain.Content) ([]domain.Download, error) {
	now := time.Now()
	targets := append([]domain.Content{content}, children...)

	downloads := make([]domain.Download, 0, len(targets))
	for _, target := range targets {
		existing, err := m.store.DownloadForContent(target.ID)
		switch {
		case err == nil:
			downloads = append(downloads, existing)
			continue
		case !errors.Is(err, domain.ErrNotFound):
			// A store failure must not replace an in-flight row via upsert.
			return nil, fmt.Errorf("failed to look up download for content %d: %w", target.ID, err)
		}
		d := domain.NewDownload(target.ID, now)
		if err := m.store.SaveDownload(d); err != nil {
			return nil, fmt.Errorf("failed to request download for content %d: %w", target.ID, err)
		}
		downloads = append(downloads, d)
	}

	m.logger.Info("download requested", "contentID", content.ID, "rows", len(downloads))
	m.push()
	return downloads, nil
}

// Transition moves a download to a new state, enforcing the state machine
func (m *Manager) Transition(id uuid.UUID, next domain.DownloadState) error {
	d, err := m.store.Download(id)
	if err != nil {
		return err
	}
	if !canTransition(d.State, next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, d.State, next)
	}
	if err := m.store.UpdateDownloadState(id, next); err != nil {
		return err
	}

	m.logger.Debug("download transitioned", "id", id, "from", d.State.String(), "to", next.String())
	m.push()
	return nil
}

// SetProgress records download progress as a 0-1 fraction
func (m *Manager) SetProgress(id uuid.UUID, progress float64) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	if err := m.store.UpdateDownloadProgress(id, progress); err != nil {
		return err
	}
	m.push()
	return nil
}

// MarkValidated stamps the time the stored asset was last checked against
// the server
func (m *Manager) MarkValidated(id uuid.UUID, at time.Time) error {
	d, err := m.store.Download(id)
	if err != nil {
		return err
	}
	d.LastValidatedAt = &at
	return m.store.SaveDownload(d)
}

// NextRequested returns the oldest download waiting for a URL
func (m *Manager) NextRequested() (domain.Download, error) {
	return m.store.NextRequested()
}

// ActiveQueue returns the current bounded queue view
func (m *Manager) ActiveQueue() ([]domain.Download, error) {
	return m.store.ActiveQueue(m.ViewLimit)
}

// Delete removes a download row entirely
func (m *Manager) Delete(id uuid.UUID) error {
	if err := m.store.DeleteDownload(id); err != nil {
		return err
	}
	m.push()
	return nil
}

// Subscribe registers for live queue view pushes. The current view is
// delivered immediately; subsequent views are pushed after every relevant
// write, with stale views dropped for slow consumers. The returned cancel
// func unregisters the subscriber.
func (m *Manager) Subscribe() (<-chan []domain.Download, func()) {
	ch := make(chan []domain.Download, 1)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	if view, err := m.store.ActiveQueue(m.ViewLimit); err == nil {
		ch <- view
	}

	cancel := func() {
		m.mu.Lock()
		delete(m.subs, ch)
		m.mu.Unlock()
	}
	return ch, cancel
}

func (m *Manager) push() {
	view, err := m.store.ActiveQueue(m.ViewLimit)
	if err != nil {
		m.logger.Error("failed to compute queue view", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- view:
		default:
			// Replace the stale undelivered view
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- view:
			default:
			}
		}
	}
}

func canTransition(from, to domain.DownloadState) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
