package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/razeware/emitron/internal/domain"
)

// SaveDownload inserts or replaces a download row. The unique content_id
// constraint keeps at most one download per content.
func (s *Store) SaveDownload(d domain.Download) error {
	_, err := s.db.Exec(`
		INSERT INTO downloads (
			id, requested_at, last_validated_at, file_name, local_url,
			remote_url, progress, state, content_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_id) DO UPDATE SET
			id=excluded.id,
			requested_at=excluded.requested_at,
			last_validated_at=excluded.last_validated_at,
			file_name=excluded.file_name,
			local_url=excluded.local_url,
			remote_url=excluded.remote_url,
			progress=excluded.progress,
			state=excluded.state`,
		d.ID.String(), d.RequestedAt, nullTimePtr(d.LastValidatedAt),
		nullStringPtr(d.FileName), nullStringPtr(d.LocalURL), nullStringPtr(d.RemoteURL),
		d.Progress, d.State.String(), d.ContentID)
	if err != nil {
		return fmt.Errorf("failed to save download %s: %w", d.ID, err)
	}
	return nil
}

// UpdateDownloadState writes a new state for a download
func (s *Store) UpdateDownloadState(id uuid.UUID, state domain.DownloadState) error {
	res, err := s.db.Exec("UPDATE downloads SET state = ? WHERE id = ?", state.String(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update download state: %w", err)
	}
	return requireRow(res)
}

// UpdateDownloadProgress writes a new progress fraction for a download
func (s *Store) UpdateDownloadProgress(id uuid.UUID, progress float64) error {
	res, err := s.db.Exec("UPDATE downloads SET progress = ? WHERE id = ?", progress, id.String())
	if err != nil {
		return fmt.Errorf("failed to update download progress: %w", err)
	}
	return requireRow(res)
}

// DownloadForContent returns the download row for a content id
func (s *Store) DownloadForContent(contentID int) (domain.Download, error) {
	row := s.db.QueryRow(downloadSelect+" WHERE content_id = ?", contentID)
	return scanDownload(row)
}

// Download returns a download row by id
func (s *Store) Download(id uuid.UUID) (domain.Download, error) {
	row := s.db.QueryRow(downloadSelect+" WHERE id = ?", id.String())
	return scanDownload(row)
}

// NextRequested returns the oldest download waiting for a URL, the one the
// downloader collaborator should service next.
func (s *Store) NextRequested() (domain.Download, error) {
	row := s.db.QueryRow(
		downloadSelect+" WHERE state = ? ORDER BY requested_at ASC, id ASC LIMIT 1",
		domain.DownloadStateURLRequested.String())
	return scanDownload(row)
}

// ActiveQueue returns the bounded live queue view: inProgress strictly
// before enqueued, FIFO by request time within each state.
func (s *Store) ActiveQueue(limit int) ([]domain.Download, error) {
	rows, err := s.db.Query(
		downloadSelect+`
		WHERE state IN (?, ?)
		ORDER BY CASE state WHEN ? THEN 0 ELSE 1 END, requested_at ASC, id ASC
		LIMIT ?`,
		domain.DownloadStateInProgress.String(), domain.DownloadStateEnqueued.String(),
		domain.DownloadStateInProgress.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query active queue: %w", err)
	}
	defer rows.Close()

	var out []domain.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AllDownloads returns every download row ordered by request time
func (s *Store) AllDownloads() ([]domain.Download, error) {
	rows, err := s.db.Query(downloadSelect + " ORDER BY requested_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var out []domain.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDownload removes a download row
func (s *Store) DeleteDownload(id uuid.UUID) error {
	_, err := s.db.Exec("DELETE FROM downloads WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete download: %w", err)
	}
	return nil
}

const downloadSelect = `
	SELECT id, requested_at, last_validated_at, file_name, local_url,
	       remote_url, progress, state, content_id
	FROM downloads`

func scanDownload(row rowScanner) (domain.Download, error) {
	var d domain.Download
	var id, state string
	var lastValidated sql.NullTime
	var fileName, localURL, remoteURL sql.NullString

	err := row.Scan(&id, &d.RequestedAt, &lastValidated, &fileName, &localURL,
		&remoteURL, &d.Progress, &state, &d.ContentID)
	if errors.Is(err, sql.ErrNoRows) {
		return d, domain.ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("failed to scan download: %w", err)
	}

	d.ID, err = uuid.Parse(id)
	if err != nil {
		return d, fmt.Errorf("invalid download id %q: %w", id, err)
	}
	if lastValidated.Valid {
		d.LastValidatedAt = &lastValidated.Time
	}
	if fileName.Valid {
		d.FileName = &fileName.String
	}
	if localURL.Valid {
		d.LocalURL = &localURL.String
	}
	if remoteURL.Valid {
		d.RemoteURL = &remoteURL.String
	}
	d.State, err = parseDownloadState(state)
	if err != nil {
		return d, err
	}
	return d, nil
}

func parseDownloadState(s string) (domain.DownloadState, error) {
	for state := domain.DownloadStatePending; state <= domain.DownloadStateError; state++ {
		if state.String() == s {
			return state, nil
		}
	}
	return 0, fmt.Errorf("unknown download state %q", s)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
