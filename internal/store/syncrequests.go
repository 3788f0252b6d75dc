package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/razeware/emitron/internal/domain"
)

// CoalesceSyncRequest inserts a pending sync request, or folds it into the
// existing row for the same (content id, category): type, date and
// attributes are replaced rather than a second row appended. This keeps at
// most one network call pending per pair.
func (s *Store) CoalesceSyncRequest(req domain.SyncRequest) error {
	progress, hasProgress := req.Attribute(domain.SyncAttributeProgress)
	seconds, hasSeconds := req.Attribute(domain.SyncAttributeSeconds)

	_, err := s.db.Exec(`
		INSERT INTO sync_requests (content_id, category, type, date, progress, seconds)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_id, category) DO UPDATE SET
			type=excluded.type,
			date=excluded.date,
			progress=excluded.progress,
			seconds=excluded.seconds`,
		req.ContentID, req.Category.String(), req.Type.String(), req.Date,
		nullableInt(progress, hasProgress), nullableInt(seconds, hasSeconds))
	if err != nil {
		return fmt.Errorf("failed to coalesce sync request: %w", err)
	}
	return nil
}

// AccumulateWatchTime coalesces a watch-stat request for the content. Within
// one calendar-hour bucket the watched seconds accumulate; a new hour starts
// a fresh bucket and discards the transmitted-superseded count.
func (s *Store) AccumulateWatchTime(contentID, seconds int, at time.Time) error {
	bucket := at.UTC().Truncate(time.Hour)
	_, err := s.db.Exec(`
		INSERT INTO sync_requests (content_id, category, type, date, progress, seconds)
		VALUES (?, ?, ?, ?, NULL, ?)
		ON CONFLICT(content_id, category) DO UPDATE SET
			type=excluded.type,
			progress=NULL,
			seconds=CASE WHEN date = excluded.date
				THEN seconds + excluded.seconds
				ELSE excluded.seconds END,
			date=excluded.date`,
		contentID, domain.SyncCategoryWatchStat.String(),
		domain.SyncTypeRecordWatchTime.String(), bucket, seconds)
	if err != nil {
		return fmt.Errorf("failed to accumulate watch time: %w", err)
	}
	return nil
}

// SyncRequestFor returns the pending request for a (content id, category)
// pair
func (s *Store) SyncRequestFor(contentID int, category domain.SyncRequestCategory) (domain.SyncRequest, error) {
	row := s.db.QueryRow(
		syncRequestSelect+" WHERE content_id = ? AND category = ?",
		contentID, category.String())
	return scanSyncRequest(row)
}

// PendingSyncRequests returns up to limit pending requests, oldest first
func (s *Store) PendingSyncRequests(limit int) ([]domain.SyncRequest, error) {
	rows, err := s.db.Query(syncRequestSelect+" ORDER BY date ASC, id ASC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync requests: %w", err)
	}
	defer rows.Close()

	var out []domain.SyncRequest
	for rows.Next() {
		req, err := scanSyncRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// DeleteSyncRequest removes a transmitted request
func (s *Store) DeleteSyncRequest(id int64) error {
	_, err := s.db.Exec("DELETE FROM sync_requests WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete sync request: %w", err)
	}
	return nil
}

const syncRequestSelect = `
	SELECT id, content_id, category, type, date, progress, seconds
	FROM sync_requests`

func scanSyncRequest(row rowScanner) (domain.SyncRequest, error) {
	var req domain.SyncRequest
	var category, reqType string
	var progress, seconds sql.NullInt64

	err := row.Scan(&req.ID, &req.ContentID, &category, &reqType, &req.Date, &progress, &seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return req, domain.ErrNotFound
	}
	if err != nil {
		return req, fmt.Errorf("failed to scan sync request: %w", err)
	}

	req.Category, err = parseSyncCategory(category)
	if err != nil {
		return req, err
	}
	req.Type, err = parseSyncType(reqType)
	if err != nil {
		return req, err
	}
	if progress.Valid {
		req.Attributes = append(req.Attributes, domain.SyncAttribute{
			Kind: domain.SyncAttributeProgress, Value: int(progress.Int64),
		})
	}
	if seconds.Valid {
		req.Attributes = append(req.Attributes, domain.SyncAttribute{
			Kind: domain.SyncAttributeSeconds, Value: int(seconds.Int64),
		})
	}
	return req, nil
}

func parseSyncCategory(s string) (domain.SyncRequestCategory, error) {
	for c := domain.SyncCategoryBookmark; c <= domain.SyncCategoryWatchStat; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown sync request category %q", s)
}

func parseSyncType(s string) (domain.SyncRequestType, error) {
	for t := domain.SyncTypeCreateBookmark; t <= domain.SyncTypeRecordWatchTime; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown sync request type %q", s)
}

func nullableInt(v int, ok bool) any {
	if !ok {
		return nil
	}
	return v
}
