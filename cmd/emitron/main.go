package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/razeware/emitron/internal/adapter"
	"github.com/razeware/emitron/internal/cache"
	"github.com/razeware/emitron/internal/download"
	"github.com/razeware/emitron/internal/offline"
	"github.com/razeware/emitron/internal/outbox"
	"github.com/razeware/emitron/internal/search"
	"github.com/razeware/emitron/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	var query string
	var pinID, bookmarkID int
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&query, "search", "", "search cached content names")
	flag.IntVar(&pinID, "pin", 0, "snapshot a cached content for offline use and queue its download")
	flag.IntVar(&bookmarkID, "bookmark", 0, "bookmark a content and queue the sync request")
	flag.Parse()

	if showVersion {
		fmt.Printf("emitron %s\n", Version)
		return
	}

	if err := run(query, pinID, bookmarkID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(query string, pinID, bookmarkID int) error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)
	logger.Info("starting emitron", "version", Version)

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.Open(filepath.Join(cfg.Data.Dir, "emitron.db"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	snapshots, err := offline.NewSnapshotStore(filepath.Join(cfg.Data.Dir, "snapshots"))
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer snapshots.Close()

	dataCache := cache.NewDataCache(logger)

	// Rehydrate the cache from the durable mirror, then let snapshots fill
	// in any pinned content the relational store does not have yet.
	update, err := st.LoadCacheUpdate()
	if err != nil {
		return fmt.Errorf("failed to load cached data: %w", err)
	}
	known := make(map[int]struct{}, len(update.Contents))
	for _, c := range update.Contents {
		known[c.ID] = struct{}{}
	}
	boot, err := snapshots.BootUpdate(func(id int) bool {
		_, ok := known[id]
		return ok
	})
	if err != nil {
		return fmt.Errorf("failed to read snapshots: %w", err)
	}
	update.Merge(boot)
	dataCache.Update(update)

	stats := dataCache.Stats()
	fmt.Printf("contents: %d  groups: %d  bookmarks: %d  progressions: %d\n",
		stats.Contents, stats.Groups, stats.Bookmarks, stats.Progressions)

	if bookmarkID > 0 {
		sync := outbox.NewEngine(st, logger)
		sync.BatchSize = cfg.Sync.BatchSize
		sync.PollInterval = time.Duration(cfg.Sync.PollSeconds) * time.Second
		if err := sync.CreateBookmark(bookmarkID); err != nil {
			return fmt.Errorf("failed to queue bookmark: %w", err)
		}
		fmt.Printf("bookmark queued for content %d\n", bookmarkID)
		return nil
	}

	if pinID > 0 {
		return pinContent(dataCache, st, snapshots, cfg, logger, pinID)
	}

	if query != "" {
		results := search.NewService(dataCache, logger).Filter(query, nil)
		for _, r := range results {
			fmt.Printf("%6d  %-10s  %s\n", r.Content.ID, r.Content.ContentType, r.Content.Name)
		}
		return nil
	}

	queue, err := queueManager(st, cfg, logger).ActiveQueue()
	if err != nil {
		return fmt.Errorf("failed to read download queue: %w", err)
	}
	for _, d := range queue {
		fmt.Printf("%s  content=%d  %s  %3.0f%%\n", d.ID, d.ContentID, d.State, d.Progress*100)
	}

	return nil
}

// pinContent persists a content subtree to both the relational mirror and the
// snapshot store, then queues its downloads.
func pinContent(dataCache *cache.DataCache, st *store.Store, snapshots *offline.SnapshotStore, cfg *adapter.Config, logger *slog.Logger, contentID int) error {
	state, err := dataCache.PersistableState(contentID)
	if err != nil {
		return fmt.Errorf("content %d is not fully cached: %w", contentID, err)
	}
	if err := st.SaveContentState(state); err != nil {
		return fmt.Errorf("failed to persist content %d: %w", contentID, err)
	}
	if err := snapshots.Save(state); err != nil {
		return fmt.Errorf("failed to snapshot content %d: %w", contentID, err)
	}

	downloads, err := queueManager(st, cfg, logger).Request(state.Content, state.ChildContents)
	if err != nil {
		return fmt.Errorf("failed to queue downloads: %w", err)
	}
	fmt.Printf("pinned content %d: %d download rows\n", contentID, len(downloads))
	return nil
}

func queueManager(st *store.Store, cfg *adapter.Config, logger *slog.Logger) *download.Manager {
	m := download.NewManager(st, logger)
	if cfg.Download.QueueLimit > 0 {
		m.ViewLimit = cfg.Download.QueueLimit
	}
	return m
}
