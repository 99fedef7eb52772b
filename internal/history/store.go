// Package history persists the movie search history as a single JSON file.
//
// The file is the whole collection: every read loads it fully and every
// mutation rewrites it fully. A missing or malformed file reads as an empty
// history; write failures propagate to the caller.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Timestamp layouts used for history records. Dates are string-ordered, so
// a date-only prefix matches every record from that day.
const (
	DateTimeLayout = "02-01-2006 15:04:05"
	DateLayout     = "02-01-2006"
)

// Record is one persisted snapshot of a movie surfaced to the user.
// IDs are catalog-assigned and not unique across repeated searches;
// duplicates are expected and retained.
type Record struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
	Year        int     `json:"year"`
	Genre       string  `json:"genre"`
	AgeRating   string  `json:"age_rating"`
	Poster      string  `json:"poster,omitempty"`
	Watched     bool    `json:"watched"`
}

// Store is the process-wide history collection. All operations perform a
// full load-mutate-persist cycle under one mutex, which is the serialization
// boundary for concurrent conversations.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a Store backed by the file at path. The file does not
// need to exist yet.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: store path is required")
	}
	return &Store{path: path}, nil
}

// Append adds a record to the end of the collection.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	records = append(records, rec)
	return s.save(records)
}

// QueryByDatePrefix returns records whose date field starts with prefix,
// in insertion order. A date-only prefix like "02-01-2006" matches every
// record from that day.
func (s *Store) QueryByDatePrefix(prefix string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Record
	for _, rec := range s.load() {
		if strings.HasPrefix(rec.Date, prefix) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// MarkWatched sets the watched flag on the first record with a matching id.
// Later duplicates of the same id are not touched. A missing id is a no-op,
// and repeating the call is harmless.
func (s *Store) MarkWatched(id int64, watched bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	for i := range records {
		if records[i].ID == id {
			records[i].Watched = watched
			break
		}
	}
	return s.save(records)
}

// load reads the full collection. Absent or malformed files are treated as
// an empty history — the forgiving default applies to reads only.
func (s *Store) load() []Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

// save rewrites the full collection. There is no partial-write guarantee
// beyond what the filesystem offers.
func (s *Store) save(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("history: write %s: %w", s.path, err)
	}
	return nil
}
