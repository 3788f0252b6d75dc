package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/razeware/emitron/internal/domain"
)

func saveDownloadAt(t *testing.T, s *Store, contentID int, state domain.DownloadState, at time.Time) domain.Download {
	t.Helper()
	require.NoError(t, s.SaveContentState(domain.ContentPersistableState{
		Content: testContent(contentID, domain.ContentTypeScreencast),
		Domains: []domain.ContentDomain{{ContentID: contentID, DomainID: 100}},
	}))
	d := domain.NewDownload(contentID, at)
	d.State = state
	require.NoError(t, s.SaveDownload(d))
	return d
}

func TestSaveDownloadKeepsOnePerContent(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	first := saveDownloadAt(t, s, 1, domain.DownloadStatePending, base)
	second := domain.NewDownload(1, base.Add(time.Minute))
	require.NoError(t, s.SaveDownload(second))

	got, err := s.DownloadForContent(1)
	require.NoError(t, err)
	require.Equal(t, second.ID, got.ID)

	_, err = s.Download(first.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateDownloadStateAndProgress(t *testing.T) {
	s := openTestStore(t)
	d := saveDownloadAt(t, s, 1, domain.DownloadStateEnqueued,
		time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, s.UpdateDownloadState(d.ID, domain.DownloadStateInProgress))
	require.NoError(t, s.UpdateDownloadProgress(d.ID, 0.5))

	got, err := s.Download(d.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DownloadStateInProgress, got.State)
	require.InDelta(t, 0.5, got.Progress, 1e-9)
}

func TestUpdateUnknownDownloadIsNotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.UpdateDownloadState(uuid.New(), domain.DownloadStateEnqueued)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNextRequestedIsOldest(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	saveDownloadAt(t, s, 1, domain.DownloadStateURLRequested, base.Add(time.Minute))
	oldest := saveDownloadAt(t, s, 2, domain.DownloadStateURLRequested, base)
	saveDownloadAt(t, s, 3, domain.DownloadStatePending, base.Add(-time.Minute))

	got, err := s.NextRequested()
	require.NoError(t, err)
	require.Equal(t, oldest.ID, got.ID)
}

func TestNextRequestedEmptyIsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.NextRequested()
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestActiveQueueOrdersInProgressFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	enqueuedOld := saveDownloadAt(t, s, 1, domain.DownloadStateEnqueued, base)
	inProgress := saveDownloadAt(t, s, 2, domain.DownloadStateInProgress, base.Add(time.Minute))
	enqueuedNew := saveDownloadAt(t, s, 3, domain.DownloadStateEnqueued, base.Add(2*time.Minute))
	saveDownloadAt(t, s, 4, domain.DownloadStateComplete, base)

	queue, err := s.ActiveQueue(10)
	require.NoError(t, err)
	require.Len(t, queue, 3)
	require.Equal(t, inProgress.ID, queue[0].ID)
	require.Equal(t, enqueuedOld.ID, queue[1].ID)
	require.Equal(t, enqueuedNew.ID, queue[2].ID)
}

func TestActiveQueueHonorsLimit(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		saveDownloadAt(t, s, i, domain.DownloadStateEnqueued, base.Add(time.Duration(i)*time.Minute))
	}

	queue, err := s.ActiveQueue(3)
	require.NoError(t, err)
	require.Len(t, queue, 3)
}

func TestDownloadDeletedWithContent(t *testing.T) {
	s := openTestStore(t)
	d := saveDownloadAt(t, s, 1, domain.DownloadStateComplete,
		time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, s.DeleteContent(1))
	_, err := s.Download(d.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
