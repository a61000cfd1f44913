package repository

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Leganyst/event-series/internal/model"
)

type instanceKey struct {
	parent uuid.UUID
	date   civil.Date
}

// MemorySeriesStore keeps everything in process memory. It is the store used
// by tests and by dry-run tooling. WithinTx restores a snapshot when fn fails;
// transactions are serialized, but writes made outside one while it runs are
// lost on rollback.
type MemorySeriesStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	events   map[uuid.UUID]model.Event
	byOrig   map[instanceKey]uuid.UUID
	rules    map[uuid.UUID]model.RecurrenceRule // keyed by series ID
	modified map[instanceKey]model.ModifiedOccurrence
	audit    []model.AuditEntry
}

func NewMemorySeriesStore() *MemorySeriesStore {
	return &MemorySeriesStore{
		events:   make(map[uuid.UUID]model.Event),
		byOrig:   make(map[instanceKey]uuid.UUID),
		rules:    make(map[uuid.UUID]model.RecurrenceRule),
		modified: make(map[instanceKey]model.ModifiedOccurrence),
	}
}

func (s *MemorySeriesStore) CreateEvent(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if _, ok := s.events[ev.ID]; ok {
		return ErrDuplicate
	}
	stamp(ev)
	s.put(*ev)
	return nil
}

func (s *MemorySeriesStore) GetEvent(_ context.Context, id uuid.UUID) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ev, nil
}

func (s *MemorySeriesStore) UpdateEvent(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.events[ev.ID]
	if !ok {
		return ErrNotFound
	}
	if k, ok := keyOf(old); ok {
		delete(s.byOrig, k)
	}
	ev.UpdatedAt = time.Now().UTC()
	s.put(*ev)
	return nil
}

func (s *MemorySeriesStore) DeleteEvent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	if k, ok := keyOf(ev); ok {
		delete(s.byOrig, k)
	}
	delete(s.events, id)
	return nil
}

func (s *MemorySeriesStore) ListStandalone(_ context.Context, from, to time.Time) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Event
	for _, ev := range s.events {
		if ev.Kind == model.EventKindStandalone && ev.Overlaps(from, to) {
			out = append(out, ev)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *MemorySeriesStore) ListSeries(_ context.Context, statuses ...model.SeriesStatus) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Event
	for _, ev := range s.events {
		if ev.Kind != model.EventKindSeries {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, ev.SeriesStatus) {
			continue
		}
		out = append(out, ev)
	}
	sortByStart(out)
	return out, nil
}

func (s *MemorySeriesStore) CreateSeries(ctx context.Context, template *model.Event, rule *model.RecurrenceRule) error {
	if err := s.CreateEvent(ctx, template); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rule.EventID = template.ID
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	s.rules[template.ID] = *rule
	return nil
}

func (s *MemorySeriesStore) GetRule(_ context.Context, seriesID uuid.UUID) (*model.RecurrenceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[seriesID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rule, nil
}

func (s *MemorySeriesStore) SaveRule(_ context.Context, rule *model.RecurrenceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule.UpdatedAt = time.Now().UTC()
	s.rules[rule.EventID] = *rule
	return nil
}

func (s *MemorySeriesStore) InsertInstance(_ context.Context, inst *model.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[inst.ID]; ok {
		return false, nil
	}
	if k, ok := keyOf(*inst); ok {
		if _, taken := s.byOrig[k]; taken {
			return false, nil
		}
	}
	stamp(inst)
	s.put(*inst)
	return true, nil
}

func (s *MemorySeriesStore) ListInstances(_ context.Context, seriesID uuid.UUID, from, to time.Time) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Event
	for _, ev := range s.events {
		if ev.Kind != model.EventKindInstance || ev.ParentEventID == nil || *ev.ParentEventID != seriesID {
			continue
		}
		if !to.IsZero() && ev.StartsAt.After(to) {
			continue
		}
		if !from.IsZero() && ev.EndsAt.Before(from) {
			continue
		}
		out = append(out, ev)
	}
	sortByStart(out)
	return out, nil
}

func (s *MemorySeriesStore) DeleteUnmodifiedInstances(_ context.Context, seriesID uuid.UUID, ids []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range ids {
		ev, ok := s.events[id]
		if !ok || ev.IsModified || ev.Kind != model.EventKindInstance {
			continue
		}
		if ev.ParentEventID == nil || *ev.ParentEventID != seriesID {
			continue
		}
		if k, ok := keyOf(ev); ok {
			delete(s.byOrig, k)
		}
		delete(s.events, id)
		n++
	}
	return n, nil
}

func (s *MemorySeriesStore) PutModifiedOccurrence(_ context.Context, m *model.ModifiedOccurrence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.modified[instanceKey{m.ParentEventID, model.CivilDate(m.OccurrenceDate)}] = *m
	return nil
}

func (s *MemorySeriesStore) ListModifiedOccurrences(_ context.Context, seriesID uuid.UUID) ([]model.ModifiedOccurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ModifiedOccurrence
	for k, m := range s.modified {
		if k.parent == seriesID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b model.ModifiedOccurrence) int {
		return time.Time(a.OccurrenceDate).Compare(time.Time(b.OccurrenceDate))
	})
	return out, nil
}

func (s *MemorySeriesStore) DeleteModifiedOccurrence(_ context.Context, instanceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, m := range s.modified {
		if m.InstanceID == instanceID {
			delete(s.modified, k)
		}
	}
	return nil
}

func (s *MemorySeriesStore) AppendAudit(_ context.Context, e *model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.audit = append(s.audit, *e)
	return nil
}

func (s *MemorySeriesStore) ListAudit(_ context.Context, seriesID uuid.UUID) ([]model.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.AuditEntry
	for _, e := range s.audit {
		if e.SeriesID == seriesID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemorySeriesStore) WithinTx(_ context.Context, fn func(SeriesStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	events   map[uuid.UUID]model.Event
	byOrig   map[instanceKey]uuid.UUID
	rules    map[uuid.UUID]model.RecurrenceRule
	modified map[instanceKey]model.ModifiedOccurrence
	audit    []model.AuditEntry
}

// Stored values are replaced on write, never mutated in place, so shallow
// copies are enough.
func (s *MemorySeriesStore) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return memorySnapshot{
		events:   maps.Clone(s.events),
		byOrig:   maps.Clone(s.byOrig),
		rules:    maps.Clone(s.rules),
		modified: maps.Clone(s.modified),
		audit:    slices.Clone(s.audit),
	}
}

func (s *MemorySeriesStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = snap.events
	s.byOrig = snap.byOrig
	s.rules = snap.rules
	s.modified = snap.modified
	s.audit = snap.audit
}

// put stores ev and indexes its original date; callers hold mu.
func (s *MemorySeriesStore) put(ev model.Event) {
	s.events[ev.ID] = ev
	if k, ok := keyOf(ev); ok {
		s.byOrig[k] = ev.ID
	}
}

func keyOf(ev model.Event) (instanceKey, bool) {
	if ev.ParentEventID == nil {
		return instanceKey{}, false
	}
	d, ok := ev.OriginalDate()
	if !ok {
		return instanceKey{}, false
	}
	return instanceKey{parent: *ev.ParentEventID, date: d}, true
}

func stamp(ev *model.Event) {
	now := time.Now().UTC()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	ev.UpdatedAt = now
}

func sortByStart(events []model.Event) {
	slices.SortFunc(events, func(a, b model.Event) int {
		if c := a.StartsAt.Compare(b.StartsAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
}
