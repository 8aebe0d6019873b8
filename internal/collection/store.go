// Package collection owns the stamp collection and the album list and keeps
// both persisted in a key-value store.
package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raine/telegram-stamp-bot/internal/stamp"
	"github.com/rs/zerolog/log"
)

// Storage keys. Each holds one JSON document.
const (
	CollectionKey = "stamp_collection"
	AlbumsKey     = "stamp_albums"
)

// DefaultAlbums is the album list of a fresh collection.
var DefaultAlbums = []string{"Allgemein", "Europa", "Übersee", "Seltenheiten"}

// ErrNotFound is returned for operations on an unknown stamp id.
var ErrNotFound = errors.New("stamp not found")

// KeyValueStore is the durable storage the collection persists to.
type KeyValueStore interface {
	// GetValue returns the stored value and whether the key exists.
	GetValue(key string) (string, bool, error)
	PutValue(key, value string) error
}

// Store is the in-memory collection, most recent stamp first. Every mutation
// is written through to the KeyValueStore before the call returns.
type Store struct {
	mu     sync.RWMutex
	kv     KeyValueStore
	stamps []stamp.Stamp
	albums []string

	now   func() time.Time
	newID func() string
}

// Open loads the collection and album list from kv. A missing or unreadable
// key leaves that part at its default; errors are logged, never returned.
func Open(kv KeyValueStore) *Store {
	s := &Store{
		kv:     kv,
		stamps: []stamp.Stamp{},
		albums: slices.Clone(DefaultAlbums),
		now:    time.Now,
		newID:  shortID,
	}

	var stamps []stamp.Stamp
	if ok := s.load(CollectionKey, &stamps); ok && stamps != nil {
		s.stamps = stamps
	}
	var albums []string
	if ok := s.load(AlbumsKey, &albums); ok && albums != nil {
		s.albums = albums
	}

	log.Info().Int("stamps", len(s.stamps)).Int("albums", len(s.albums)).Msg("collection loaded")
	return s
}

func (s *Store) load(key string, dst any) bool {
	raw, ok, err := s.kv.GetValue(key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to read collection storage")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to decode collection storage, using defaults")
		return false
	}
	return true
}

func shortID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// All returns a copy of the collection, most recent first.
func (s *Store) All() []stamp.Stamp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.stamps)
}

// Albums returns a copy of the album names in creation order.
func (s *Store) Albums() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.albums)
}

// Get returns the stamp with the given id.
func (s *Store) Get(id string) (stamp.Stamp, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.stamps[i], true
	}
	return stamp.Stamp{}, false
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.stamps, func(st stamp.Stamp) bool { return st.ID == id })
}

// Add prepends a stamp. A missing id, date, status or album is filled in;
// the stored record is returned.
func (s *Store) Add(st stamp.Stamp) (stamp.Stamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = s.uniqueID()
	} else if s.indexOf(st.ID) >= 0 {
		return stamp.Stamp{}, fmt.Errorf("stamp %s already exists", st.ID)
	}
	if st.DateAdded.IsZero() {
		st.DateAdded = s.now()
	}
	if !st.ExpertStatus.Valid() {
		st.ExpertStatus = stamp.StatusNone
	}
	if st.Album == "" && len(s.albums) > 0 {
		st.Album = s.albums[0]
	}

	s.stamps = append([]stamp.Stamp{st}, s.stamps...)
	return st, s.saveStamps()
}

func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

// Update replaces the stamp with the same id. The image and creation date of
// the stored record cannot be changed.
func (s *Store) Update(st stamp.Stamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(st.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, st.ID)
	}
	st.Image = s.stamps[i].Image
	st.DateAdded = s.stamps[i].DateAdded
	s.stamps[i] = st
	return s.saveStamps()
}

// Remove deletes the stamp with the given id. Callers confirm with the user
// first; removal cannot be undone.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.stamps = slices.Delete(s.stamps, i, i+1)
	return s.saveStamps()
}

// AddAlbum appends a new album name. Empty or existing names are ignored and
// reported as not added.
func (s *Store) AddAlbum(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" || slices.Contains(s.albums, name) {
		return false, nil
	}
	s.albums = append(s.albums, name)
	return true, s.saveAlbums()
}

// HasAlbum reports whether name is a known album.
func (s *Store) HasAlbum(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.albums, name)
}

func (s *Store) saveStamps() error {
	data, err := json.Marshal(s.stamps)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}
	if err := s.kv.PutValue(CollectionKey, string(data)); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

func (s *Store) saveAlbums() error {
	data, err := json.Marshal(s.albums)
	if err != nil {
		return fmt.Errorf("failed to marshal albums: %w", err)
	}
	if err := s.kv.PutValue(AlbumsKey, string(data)); err != nil {
		return fmt.Errorf("failed to save albums: %w", err)
	}
	return nil
}
