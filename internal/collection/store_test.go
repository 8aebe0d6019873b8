package collection

import (
	"errors"
	"testing"
	"time"

	"github.com/raine/telegram-stamp-bot/internal/stamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockKV struct {
	mock.Mock
}

func (m *mockKV) GetValue(key string) (string, bool, error) {
	args := m.Called(key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockKV) PutValue(key, value string) error {
	args := m.Called(key, value)
	return args.Error(0)
}

func newTestStore(kv KeyValueStore) *Store {
	s := Open(kv)
	n := 0
	s.newID = func() string {
		n++
		return []string{"id1", "id2", "id3", "id4"}[n-1]
	}
	s.now = func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) }
	return s
}

func printing(s string) *string { return &s }

func TestOpen_Defaults(t *testing.T) {
	s := Open(NewMemoryKV())
	assert.Empty(t, s.All())
	assert.Equal(t, DefaultAlbums, s.Albums())
}

func TestOpen_CorruptStorageFallsBackToDefaults(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.PutValue(CollectionKey, "{not json"))
	require.NoError(t, kv.PutValue(AlbumsKey, `["Nur", "Dieses"]`))

	s := Open(kv)
	assert.Empty(t, s.All())
	assert.Equal(t, []string{"Nur", "Dieses"}, s.Albums(), "keys are loaded independently")
}

func TestOpen_ReadErrorFallsBackToDefaults(t *testing.T) {
	kv := new(mockKV)
	kv.On("GetValue", CollectionKey).Return("", false, errors.New("disk gone"))
	kv.On("GetValue", AlbumsKey).Return(`{"wrong":"shape"}`, true, nil)

	s := Open(kv)
	assert.Empty(t, s.All())
	assert.Equal(t, DefaultAlbums, s.Albums())
	kv.AssertExpectations(t)
}

func TestAdd_PrependsAndFillsDefaults(t *testing.T) {
	s := newTestStore(NewMemoryKV())

	first, err := s.Add(stamp.Stamp{Name: "Erste"})
	require.NoError(t, err)
	assert.Equal(t, "id1", first.ID)
	assert.Equal(t, stamp.StatusNone, first.ExpertStatus)
	assert.Equal(t, "Allgemein", first.Album)
	assert.False(t, first.DateAdded.IsZero())

	second, err := s.Add(stamp.Stamp{Name: "Zweite", Album: "Europa"})
	require.NoError(t, err)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "most recent first")
	assert.Equal(t, first.ID, all[1].ID)
}

func TestAdd_SkipsCollidingIDs(t *testing.T) {
	s := newTestStore(NewMemoryKV())
	_, err := s.Add(stamp.Stamp{ID: "id1"})
	require.NoError(t, err)

	added, err := s.Add(stamp.Stamp{})
	require.NoError(t, err)
	assert.Equal(t, "id2", added.ID)
}

func TestAdd_RejectsDuplicateExplicitID(t *testing.T) {
	s := newTestStore(NewMemoryKV())
	_, err := s.Add(stamp.Stamp{ID: "abc"})
	require.NoError(t, err)
	_, err = s.Add(stamp.Stamp{ID: "abc"})
	assert.Error(t, err)
	assert.Len(t, s.All(), 1)
}

func TestPersistenceRoundTrip(t *testing.T) {
	kv := NewMemoryKV()
	s := newTestStore(kv)
	added, err := s.Add(stamp.Stamp{
		Image:           "data:image/jpeg;base64,AAAA",
		Name:            "Penny Black",
		Origin:          "Großbritannien",
		Year:            "1840",
		EstimatedValue:  "€300",
		ExpertStatus:    stamp.StatusAppraised,
		ExpertValuation: "€500",
		ExpertNote:      "Attest",
		PrintingMethod:  printing("Stichtiefdruck"),
	})
	require.NoError(t, err)
	_, err = s.AddAlbum("Britannien")
	require.NoError(t, err)

	restored := Open(kv)
	got, ok := restored.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, added, got)
	assert.Nil(t, got.PaperType)
	assert.Contains(t, restored.Albums(), "Britannien")
}

func TestUpdate(t *testing.T) {
	s := newTestStore(NewMemoryKV())
	added, err := s.Add(stamp.Stamp{Name: "Alt", Image: "data:image/jpeg;base64,AAAA"})
	require.NoError(t, err)

	changed := added
	changed.Name = "Neu"
	changed.Image = "data:image/jpeg;base64,BBBB"
	changed.DateAdded = time.Time{}
	require.NoError(t, s.Update(changed))

	got, _ := s.Get(added.ID)
	assert.Equal(t, "Neu", got.Name)
	assert.Equal(t, added.Image, got.Image, "image is immutable")
	assert.Equal(t, added.DateAdded, got.DateAdded, "dateAdded is immutable")
}

func TestUpdate_NotFound(t *testing.T) {
	s := newTestStore(NewMemoryKV())
	err := s.Update(stamp.Stamp{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	kv := NewMemoryKV()
	s := newTestStore(kv)
	a, _ := s.Add(stamp.Stamp{Name: "A"})
	b, _ := s.Add(stamp.Stamp{Name: "B"})

	require.NoError(t, s.Remove(a.ID))
	assert.ErrorIs(t, s.Remove(a.ID), ErrNotFound)

	restored := Open(kv)
	all := restored.All()
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)
}

func TestAddAlbum(t *testing.T) {
	s := newTestStore(NewMemoryKV())

	added, err := s.AddAlbum("Schweiz")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddAlbum("Schweiz")
	require.NoError(t, err)
	assert.False(t, added)

	added, err = s.AddAlbum("")
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, append(DefaultAlbums[:4:4], "Schweiz"), s.Albums())
	assert.True(t, s.HasAlbum("Schweiz"))
}

func TestWriteFailureIsReturned(t *testing.T) {
	kv := new(mockKV)
	kv.On("GetValue", mock.Anything).Return("", false, nil)
	kv.On("PutValue", CollectionKey, mock.Anything).Return(errors.New("read-only"))

	s := Open(kv)
	_, err := s.Add(stamp.Stamp{Name: "A"})
	assert.ErrorContains(t, err, "failed to save collection")
	assert.Len(t, s.All(), 1, "in-memory state keeps the mutation")
}

func TestAllReturnsCopy(t *testing.T) {
	s := newTestStore(NewMemoryKV())
	_, _ = s.Add(stamp.Stamp{Name: "A"})
	all := s.All()
	all[0].Name = "changed"
	got, _ := s.Get(all[0].ID)
	assert.Equal(t, "A", got.Name)
}
