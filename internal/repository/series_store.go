package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/event-series/internal/model"
)

var (
	ErrNotFound  = errors.New("repository: record not found")
	ErrDuplicate = errors.New("repository: duplicate record")
)

// SeriesStore is the persistence capability the series service depends on.
// Implementations: GormSeriesStore (postgres/sqlite) and MemorySeriesStore
// (tests and dry runs). The implementation is chosen by the caller.
type SeriesStore interface {
	// Создать обычное событие или шаблон серии.
	CreateEvent(ctx context.Context, ev *model.Event) error
	// Найти событие любого вида по ID.
	GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error)
	// Сохранить все поля события.
	UpdateEvent(ctx context.Context, ev *model.Event) error
	// Удалить событие.
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	// Standalone events overlapping [from, to].
	ListStandalone(ctx context.Context, from, to time.Time) ([]model.Event, error)
	// Series templates, optionally filtered by status.
	ListSeries(ctx context.Context, statuses ...model.SeriesStatus) ([]model.Event, error)

	// CreateSeries stores the template and its rule atomically.
	CreateSeries(ctx context.Context, template *model.Event, rule *model.RecurrenceRule) error
	GetRule(ctx context.Context, seriesID uuid.UUID) (*model.RecurrenceRule, error)
	SaveRule(ctx context.Context, rule *model.RecurrenceRule) error

	// InsertInstance writes inst unless a row with the same ID or the same
	// (parent, original date) already exists. created is false for the no-op.
	InsertInstance(ctx context.Context, inst *model.Event) (created bool, err error)
	// Instances of a series overlapping [from, to]; zero bounds mean unbounded.
	ListInstances(ctx context.Context, seriesID uuid.UUID, from, to time.Time) ([]model.Event, error)
	// DeleteUnmodifiedInstances removes the given instances of a series,
	// leaving modified ones in place.
	DeleteUnmodifiedInstances(ctx context.Context, seriesID uuid.UUID, ids []uuid.UUID) (int64, error)

	// PutModifiedOccurrence inserts or replaces the mapping for (parent, date).
	PutModifiedOccurrence(ctx context.Context, m *model.ModifiedOccurrence) error
	ListModifiedOccurrences(ctx context.Context, seriesID uuid.UUID) ([]model.ModifiedOccurrence, error)
	DeleteModifiedOccurrence(ctx context.Context, instanceID uuid.UUID) error

	AppendAudit(ctx context.Context, e *model.AuditEntry) error
	ListAudit(ctx context.Context, seriesID uuid.UUID) ([]model.AuditEntry, error)

	// WithinTx runs fn against a store bound to one transaction where the
	// implementation supports it.
	WithinTx(ctx context.Context, fn func(SeriesStore) error) error
}
