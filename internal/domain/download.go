package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadState tracks a download record through its lifecycle. Only
// DownloadStateComplete is terminal; paused, cancelled, failed and error
// downloads may re-enter pending or readyForDownload on retry.
type DownloadState int

const (
	DownloadStatePending DownloadState = iota
	DownloadStateURLRequested
	DownloadStateReadyForDownload
	DownloadStateEnqueued
	DownloadStateInProgress
	DownloadStatePaused
	DownloadStateCancelled
	DownloadStateFailed
	DownloadStateComplete
	DownloadStateError
)

// String returns the storage name of the download state
func (s DownloadState) String() string {
	switch s {
	case DownloadStatePending:
		return "pending"
	case DownloadStateURLRequested:
		return "urlRequested"
	case DownloadStateReadyForDownload:
		return "readyForDownload"
	case DownloadStateEnqueued:
		return "enqueued"
	case DownloadStateInProgress:
		return "inProgress"
	case DownloadStatePaused:
		return "paused"
	case DownloadStateCancelled:
		return "cancelled"
	case DownloadStateFailed:
		return "failed"
	case DownloadStateComplete:
		return "complete"
	case DownloadStateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state permits no further transitions
func (s DownloadState) Terminal() bool {
	return s == DownloadStateComplete
}

// Download is one row of the download queue. Each content id maps to at most
// one download; a collection additionally gets a synthetic aggregate row
// distinct from its episodes' rows.
type Download struct {
	ID              uuid.UUID
	RequestedAt     time.Time
	LastValidatedAt *time.Time
	FileName        *string
	LocalURL        *string
	RemoteURL       *string
	Progress        float64 // 0-1 fraction
	State           DownloadState
	ContentID       int
}

// NewDownload creates a pending download for a content
func NewDownload(contentID int, requestedAt time.Time) Download {
	return Download{
		ID:          uuid.New(),
		RequestedAt: requestedAt,
		State:       DownloadStatePending,
		ContentID:   contentID,
	}
}
