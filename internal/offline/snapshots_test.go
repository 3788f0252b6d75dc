package offline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/razeware/emitron/internal/domain"
)

func snapshotFixture(id int) domain.ContentPersistableState {
	return domain.ContentPersistableState{
		Content: domain.Content{
			ID:          id,
			URI:         "rw://content/snapshot",
			Name:        "Snapshot Content",
			ReleasedAt:  time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC),
			ContentType: domain.ContentTypeScreencast,
			Duration:    300,
		},
		Domains: []domain.ContentDomain{{ContentID: id, DomainID: 100}},
	}
}

func TestSaveAndGet(t *testing.T) {
	s, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(snapshotFixture(1)))

	state, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, 1, state.Content.ID)
	require.Equal(t, "Snapshot Content", state.Content.Name)
	require.Len(t, state.Domains, 1)

	_, ok = s.Get(2)
	require.False(t, ok)
}

func TestSnapshotsSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewSnapshotStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(snapshotFixture(1)))
	require.NoError(t, s.Close())

	reopened, err := NewSnapshotStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	state, ok := reopened.Get(1)
	require.True(t, ok)
	require.Equal(t, 1, state.Content.ID)
}

func TestContentIDs(t *testing.T) {
	s, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(snapshotFixture(1)))
	require.NoError(t, s.Save(snapshotFixture(2)))

	ids, err := s.ContentIDs()
	require.NoError(t, err)
	require.ElementsMatch(t, []int{1, 2}, ids)
}

func TestDeleteAndClear(t *testing.T) {
	s, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(snapshotFixture(1)))
	require.NoError(t, s.Save(snapshotFixture(2)))

	s.Delete(1)
	_, ok := s.Get(1)
	require.False(t, ok)
	_, ok = s.Get(2)
	require.True(t, ok)

	s.Clear()
	_, ok = s.Get(2)
	require.False(t, ok)

	ids, err := s.ContentIDs()
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestBootUpdateFlattensSnapshots(t *testing.T) {
	s, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	pinned := snapshotFixture(1)
	pinned.Progression = &domain.Progression{ID: 5, Target: 100, Progress: 40, ContentID: 1}
	pinned.Bookmark = &domain.Bookmark{ID: 6, CreatedAt: pinned.Content.ReleasedAt, ContentID: 1}
	require.NoError(t, s.Save(pinned))
	require.NoError(t, s.Save(snapshotFixture(2)))

	update, err := s.BootUpdate(nil)
	require.NoError(t, err)
	require.Len(t, update.Contents, 2)
	require.Len(t, update.Progressions, 1)
	require.Len(t, update.Bookmarks, 1)
	require.Len(t, update.ContentDomains, 2)
}

func TestBootUpdateSkipsKnownContents(t *testing.T) {
	s, err := NewSnapshotStore("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(snapshotFixture(1)))
	require.NoError(t, s.Save(snapshotFixture(2)))

	update, err := s.BootUpdate(func(id int) bool { return id == 2 })
	require.NoError(t, err)
	require.Len(t, update.Contents, 1)
	require.Equal(t, 1, update.Contents[0].ID)
}

func TestMemoryOnlyMode(t *testing.T) {
	s, err := NewSnapshotStore("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(snapshotFixture(1)))

	state, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, 1, state.Content.ID)

	ids, err := s.ContentIDs()
	require.NoError(t, err)
	require.Equal(t, []int{1}, ids)
}
