package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

// ErrNotFound is returned when no snapshot has been persisted yet.
var ErrNotFound = errors.New("cache: snapshot not found")

var latestKey = []byte("snapshot:latest")

// Entry is the persisted form of a successful reload.
type Entry struct {
	Drop    thread.Drop     `json:"drop"`
	Threads []thread.Thread `json:"threads"`
	SavedAt time.Time       `json:"savedAt"`
}

// Snapshots keeps the last good thread set on disk so a cold start without
// network access can still render real data.
type Snapshots struct {
	db *pebble.DB
}

// Open creates or opens the pebble database rooted at dir.
func Open(dir string) (*Snapshots, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open snapshot cache: %w", err)
	}
	return &Snapshots{db: db}, nil
}

// Close releases the database.
func (s *Snapshots) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save overwrites the latest snapshot and keeps a per-drop copy.
func (s *Snapshots) Save(drop thread.Drop, threads []thread.Thread, at time.Time) error {
	payload, err := json.Marshal(Entry{Drop: drop, Threads: threads, SavedAt: at.UTC()})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(latestKey, payload, nil); err != nil {
		return err
	}
	if drop.ID != "" {
		if err := batch.Set(dropKey(drop.ID), payload, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

// Latest returns the most recently saved snapshot.
func (s *Snapshots) Latest() (Entry, error) {
	return s.get(latestKey)
}

// ForDrop returns the last snapshot saved for dropID.
func (s *Snapshots) ForDrop(dropID string) (Entry, error) {
	return s.get(dropKey(dropID))
}

func (s *Snapshots) get(key []byte) (Entry, error) {
	v, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()

	var entry Entry
	if err := json.Unmarshal(v, &entry); err != nil {
		return Entry{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return entry, nil
}

func dropKey(id string) []byte {
	return []byte("snapshot:drop:" + id)
}
