package game

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	// HistoryKey is the storage key of the recency list.
	HistoryKey = "read_word_history"
	// RetentionWindow is how long a shown word keeps being excluded.
	RetentionWindow = 24 * time.Hour
)

// RecencyRecord marks a word as shown at a point in time.
type RecencyRecord struct {
	Word      string `json:"word"`
	Timestamp int64  `json:"timestamp"` // epoch millis
}

// RecencyStore remembers recently shown words so they are not repeated.
// Storage failures never reach the caller: reads degrade to an empty
// history and writes are logged.
type RecencyStore struct {
	mu      sync.Mutex
	storage Storage
	now     func() time.Time
}

// RecencyOption configures a RecencyStore.
type RecencyOption func(*RecencyStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) RecencyOption {
	return func(s *RecencyStore) { s.now = now }
}

// NewRecencyStore returns a store persisting into storage.
func NewRecencyStore(storage Storage, opts ...RecencyOption) *RecencyStore {
	s := &RecencyStore{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exclusions returns the words seen within the retention window in insertion
// order. Expired records are purged from storage as a side effect.
func (s *RecencyStore) Exclusions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load()
	if err != nil {
		log.Printf("[recency] history unreadable, continuing without exclusions: %v", err)
		return []string{}
	}

	nowMillis := s.now().UnixMilli()
	valid := lo.Filter(history, func(r RecencyRecord, _ int) bool {
		return nowMillis-r.Timestamp < RetentionWindow.Milliseconds()
	})

	if len(valid) != len(history) {
		if err := s.save(valid); err != nil {
			log.Printf("[recency] failed to write pruned history: %v", err)
		}
	}

	return lo.Map(valid, func(r RecencyRecord, _ int) string {
		return r.Word
	})
}

// Record appends word with the current timestamp.
func (s *RecencyStore) Record(word string) {
	word = strings.TrimSpace(word)
	if word == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load()
	if err != nil {
		log.Printf("[recency] history unreadable, starting a new one: %v", err)
		history = nil
	}

	history = append(history, RecencyRecord{Word: word, Timestamp: s.now().UnixMilli()})
	if err := s.save(history); err != nil {
		log.Printf("[recency] storage error: %v", err)
	}
}

func (s *RecencyStore) load() ([]RecencyRecord, error) {
	raw, err := s.storage.Get(HistoryKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var history []RecencyRecord
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *RecencyStore) save(history []RecencyRecord) error {
	if history == nil {
		history = []RecencyRecord{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.storage.Set(HistoryKey, data)
}
