// Package draft persists in-progress create-form state so an admin can
// pick up where they left off after closing the session. The slot is
// best-effort: persistence failures are logged and never surfaced as
// operation failures.
package draft

import (
	"encoding/json/v2"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	"github.com/bloomeryapp/bloomery-admin/internal/store"
)

// DefaultRetention is how long an unsaved draft survives.
const DefaultRetention = 7 * 24 * time.Hour

const slotKey = "draft:product_form"

// Record is the persisted draft payload.
type Record struct {
	ID      string           `json:"id"`
	Form    domain.FormState `json:"form"`
	SavedAt int64            `json:"saved_at"` // epoch milliseconds
}

// Store is a single-slot draft store backed by the catalog database.
type Store struct {
	db        *store.Store
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time
}

// New creates a draft store. A zero retention falls back to DefaultRetention.
func New(db *store.Store, logger *slog.Logger, retention time.Duration) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		db:        db,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
}

// Save writes the form into the draft slot, replacing any previous draft.
func (s *Store) Save(form domain.FormState) {
	rec := Record{
		ID:      uuid.NewString(),
		Form:    form,
		SavedAt: s.now().UnixMilli(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		s.warn("failed to encode draft", err)
		return
	}
	if err := s.db.SetRaw(slotKey, data, s.retention); err != nil {
		s.warn("failed to persist draft", err)
	}
}

// Load returns the stored draft, or nil when there is none or it has
// gone stale. Stale and unreadable drafts are removed.
func (s *Store) Load() *Record {
	data, err := s.db.GetRaw(slotKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.warn("failed to read draft", err)
		}
		return nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.warn("discarding unreadable draft", err)
		s.Clear()
		return nil
	}

	// Badger's TTL already expires the entry, but the clock there is the
	// write clock; re-check against the saved timestamp as well.
	savedAt := time.UnixMilli(rec.SavedAt)
	if s.now().Sub(savedAt) > s.retention {
		s.Clear()
		return nil
	}

	return &rec
}

// Exists reports whether a usable draft is present.
func (s *Store) Exists() bool {
	return s.Load() != nil
}

// Clear removes the draft slot.
func (s *Store) Clear() {
	if err := s.db.DeleteRaw(slotKey); err != nil {
		s.warn("failed to clear draft", err)
	}
}

func (s *Store) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, "error", err)
	}
}
