// Package store persists vehicle records for the booking path in a single
// JSON file. Every mutation rewrites the file through a temp file and an
// atomic rename, so readers never see a partial write.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// HistoryEntry is one service event on a vehicle.
type HistoryEntry struct {
	Date   string `json:"date"`
	Issue  string `json:"issue"`
	Action string `json:"action"`
}

// Vehicle is a stored vehicle record keyed by registration or fleet id.
type Vehicle struct {
	Owner   string         `json:"owner"`
	Phone   string         `json:"phone"`
	Model   string         `json:"model"`
	Status  string         `json:"status"`
	History []HistoryEntry `json:"history"`
}

const entryDateLayout = "2006-01-02 15:04:05"

// Defaults returns the records a new or unreadable database starts with.
func Defaults() map[string]Vehicle {
	return map[string]Vehicle{
		"MH-01-AB-1234": {Owner: "Mr. Sharma", Phone: "555-0199", Model: "XUV700", Status: "Healthy", History: []HistoryEntry{}},
		"DL-04-XY-9999": {Owner: "Ms. Priya", Phone: "555-2342", Model: "Thar", Status: "Healthy", History: []HistoryEntry{}},
	}
}

// DB is the vehicle database. All methods are safe for concurrent use.
type DB struct {
	path string
	now  func() time.Time
	data map[string]Vehicle
	mu   sync.Mutex
}

type Option func(*DB)

// WithClock overrides the history entry timestamp source.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// Open loads the database at cfg.Path. A missing or corrupt file is replaced
// by the default records.
func Open(cfg *Config, opts ...Option) (*DB, error) {
	db := &DB{path: cfg.Path, now: time.Now}
	for _, opt := range opts {
		opt(db)
	}

	raw, err := os.ReadFile(db.path)
	switch {
	case err == nil:
		if jerr := json.Unmarshal(raw, &db.data); jerr == nil && db.data != nil {
			return db, nil
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, db.path, err)
	}

	db.data = Defaults()
	if err := db.save(db.data); err != nil {
		return nil, err
	}
	return db, nil
}

// GetVehicle returns a copy of the record for id.
func (db *DB) GetVehicle(_ context.Context, id string) (Vehicle, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	v, ok := db.data[id]
	if !ok {
		return Vehicle{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	v.History = slices.Clone(v.History)
	return v, nil
}

// ListVehicles returns every vehicle id in sorted order.
func (db *DB) ListVehicles(_ context.Context) []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return slices.Sorted(maps.Keys(db.data))
}

// UpdateVehicleHistory appends a history entry and saves. Unknown ids get a
// minimal "Unknown" record first. A non-empty action becomes the status.
func (db *DB) UpdateVehicleHistory(_ context.Context, id, issue, action string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	v, ok := db.data[id]
	if !ok {
		v = Vehicle{Owner: "Unknown", Status: "Unknown", History: []HistoryEntry{}}
	}
	v.History = append(slices.Clone(v.History), HistoryEntry{
		Date:   db.now().Format(entryDateLayout),
		Issue:  issue,
		Action: action,
	})
	switch {
	case action != "":
		v.Status = action
	case v.Status == "":
		v.Status = "Updated"
	}
	return db.commit(id, v)
}

// SetStatus changes the status of a known vehicle. Unknown ids are ignored.
func (db *DB) SetStatus(_ context.Context, id, status string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	v, ok := db.data[id]
	if !ok {
		return nil
	}
	v.Status = status
	return db.commit(id, v)
}

// commit saves the database with id set to v and only then replaces the
// in-memory copy. Must be called with mu held.
func (db *DB) commit(id string, v Vehicle) error {
	next := maps.Clone(db.data)
	next[id] = v
	if err := db.save(next); err != nil {
		return err
	}
	db.data = next
	return nil
}

// save must be called with mu held.
func (db *DB) save(vehicles map[string]Vehicle) error {
	data, err := json.MarshalIndent(vehicles, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	dir := filepath.Dir(db.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, db.path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, db.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, db.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, db.path, err)
	}
	if err := os.Rename(tmpName, db.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, db.path, err)
	}
	return nil
}
