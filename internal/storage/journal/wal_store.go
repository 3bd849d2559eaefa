// Package journal records accepted view transitions in a WAL so operator
// tooling can audit or replay a session's path through the frame.
package journal

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/vaultframe/internal/domain"
)

const (
	defaultJournalDir   = "./data/journal"
	journalSegmentLimit = 1000
	journalMaxSegments  = 100
	transitionKeyPrefix = "transition_"
)

// Entry is one accepted transition of one session.
type Entry struct {
	ID        string      `json:"id"`
	SessionID uint64      `json:"session_id"`
	Vault     string      `json:"vault"`
	From      domain.View `json:"from"`
	To        domain.View `json:"to"`
	Button    int         `json:"button"`
	Time      time.Time   `json:"ts"`
}

// EntryRecord bundles an entry with its WAL index.
type EntryRecord struct {
	Index uint64
	Entry Entry
}

// WALStore persists transition entries in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed journal under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultJournalDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: journalSegmentLimit,
		MaxSegments:      journalMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init transition journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Record appends the entry, assigning it a fresh id and timestamp when the
// caller left them empty.
func (s *WALStore) Record(entry Entry) error {
	if s == nil || s.wal == nil {
		return errors.New("transition journal is not initialized")
	}
	if entry.Vault == "" {
		return fmt.Errorf("transition journal entry vault is required")
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal transition entry")
	}

	key := fmt.Sprintf("%s%s_%d", transitionKeyPrefix, entry.Vault, entry.SessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EntriesAfter returns all transition entries written after the provided
// WAL index.
func (s *WALStore) EntriesAfter(index uint64) ([]EntryRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("transition journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]EntryRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, transitionKeyPrefix) {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, errors.Wrap(err, "decode transition entry")
		}
		records = append(records, EntryRecord{Index: idx, Entry: entry})
	}

	return records, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("transition journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
