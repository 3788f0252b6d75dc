package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProgressionFinishedThreshold(t *testing.T) {
	p := Progression{Target: 100, Progress: 90}
	require.False(t, p.Finished(), "90 percent is not past the threshold")

	p.Progress = 91
	require.True(t, p.Finished(), "91 percent is past the threshold")

	p = Progression{Target: 0, Progress: 10}
	require.False(t, p.Finished(), "zero target can never finish")
}

func TestProgressionPercentComplete(t *testing.T) {
	require.Equal(t, 50.0, Progression{Target: 200, Progress: 100}.PercentComplete())
	require.Equal(t, 100.0, Progression{Target: 100, Progress: 150}.PercentComplete())
	require.Equal(t, 0.0, Progression{}.PercentComplete())
}

func TestContentEqualIgnoresSubSecondPrecision(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	a := Content{ID: 1, Name: "Intro", ReleasedAt: base}
	b := Content{ID: 1, Name: "Intro", ReleasedAt: base.Add(300 * time.Millisecond)}
	require.True(t, a.Equal(b))

	b.ReleasedAt = base.Add(time.Second)
	require.False(t, a.Equal(b))
}

func TestContentEqualOptionalFields(t *testing.T) {
	groupFive := 5
	groupSix := 6

	a := Content{ID: 1, GroupID: &groupFive}
	b := Content{ID: 1, GroupID: &groupFive}
	require.True(t, a.Equal(b))

	b.GroupID = &groupSix
	require.False(t, a.Equal(b))

	b.GroupID = nil
	require.False(t, a.Equal(b))
}

func TestParseContentTypeRoundTrip(t *testing.T) {
	for _, ct := range []ContentType{
		ContentTypeCollection, ContentTypeEpisode, ContentTypeScreencast,
		ContentTypeArticle, ContentTypeProduct,
	} {
		parsed, err := ParseContentType(ct.String())
		require.NoError(t, err)
		require.Equal(t, ct, parsed)
	}

	_, err := ParseContentType("mixtape")
	require.Error(t, err)
}

func TestSyncRequestTypeCategory(t *testing.T) {
	require.Equal(t, SyncCategoryBookmark, SyncTypeCreateBookmark.Category())
	require.Equal(t, SyncCategoryBookmark, SyncTypeDeleteBookmark.Category())
	require.Equal(t, SyncCategoryProgress, SyncTypeUpdateProgress.Category())
	require.Equal(t, SyncCategoryProgress, SyncTypeMarkComplete.Category())
	require.Equal(t, SyncCategoryWatchStat, SyncTypeRecordWatchTime.Category())
}

func TestDownloadStateTerminal(t *testing.T) {
	require.True(t, DownloadStateComplete.Terminal())
	require.False(t, DownloadStateCancelled.Terminal())
	require.False(t, DownloadStateError.Terminal())
}
