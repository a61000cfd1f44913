package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/event-series/internal/model"
)

// Реализация на GORM.
type GormSeriesStore struct {
	db *gorm.DB
}

func NewGormSeriesStore(db *gorm.DB) *GormSeriesStore {
	return &GormSeriesStore{db: db}
}

func (r *GormSeriesStore) CreateEvent(ctx context.Context, ev *model.Event) error {
	normalizeTimes(ev)
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(ev).Error)
}

func (r *GormSeriesStore) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var ev model.Event
	if err := r.db.WithContext(ctx).First(&ev, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ev, nil
}

func (r *GormSeriesStore) UpdateEvent(ctx context.Context, ev *model.Event) error {
	normalizeTimes(ev)
	res := r.db.WithContext(ctx).Model(ev).Select("*").Omit("created_at").Updates(ev)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormSeriesStore) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Event{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormSeriesStore) ListStandalone(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("kind = ?", model.EventKindStandalone).
		Where("starts_at <= ? AND ends_at >= ?", to.UTC(), from.UTC()).
		Order("starts_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormSeriesStore) ListSeries(ctx context.Context, statuses ...model.SeriesStatus) ([]model.Event, error) {
	q := r.db.WithContext(ctx).Where("kind = ?", model.EventKindSeries)
	if len(statuses) > 0 {
		q = q.Where("series_status IN ?", statuses)
	}

	var events []model.Event
	if err := q.Order("starts_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormSeriesStore) CreateSeries(ctx context.Context, template *model.Event, rule *model.RecurrenceRule) error {
	normalizeTimes(template)
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(template).Error; err != nil {
			return translate(err)
		}
		rule.EventID = template.ID
		return tx.Omit(clause.Associations).Create(rule).Error
	})
}

func (r *GormSeriesStore) GetRule(ctx context.Context, seriesID uuid.UUID) (*model.RecurrenceRule, error) {
	var rule model.RecurrenceRule
	if err := r.db.WithContext(ctx).First(&rule, "event_id = ?", seriesID).Error; err != nil {
		return nil, translate(err)
	}
	return &rule, nil
}

func (r *GormSeriesStore) SaveRule(ctx context.Context, rule *model.RecurrenceRule) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(rule).Error
}

func (r *GormSeriesStore) InsertInstance(ctx context.Context, inst *model.Event) (bool, error) {
	normalizeTimes(inst)
	// ON CONFLICT DO NOTHING covers both the primary key and the
	// (parent_event_id, original_start_date) unique index.
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(inst)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormSeriesStore) ListInstances(ctx context.Context, seriesID uuid.UUID, from, to time.Time) ([]model.Event, error) {
	q := r.db.WithContext(ctx).
		Where("kind = ? AND parent_event_id = ?", model.EventKindInstance, seriesID)
	if !to.IsZero() {
		q = q.Where("starts_at <= ?", to.UTC())
	}
	if !from.IsZero() {
		q = q.Where("ends_at >= ?", from.UTC())
	}

	var events []model.Event
	if err := q.Order("starts_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormSeriesStore) DeleteUnmodifiedInstances(ctx context.Context, seriesID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("kind = ? AND parent_event_id = ?", model.EventKindInstance, seriesID).
		Where("is_modified = ?", false).
		Where("id IN ?", ids).
		Delete(&model.Event{})
	return res.RowsAffected, translate(res.Error)
}

// PutModifiedOccurrence inserts the mapping or repoints an existing one for
// the same (series, date) at m.InstanceID.
func (r *GormSeriesStore) PutModifiedOccurrence(ctx context.Context, m *model.ModifiedOccurrence) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "parent_event_id"}, {Name: "occurrence_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"instance_id"}),
		}).
		Create(m).Error)
}

func (r *GormSeriesStore) ListModifiedOccurrences(ctx context.Context, seriesID uuid.UUID) ([]model.ModifiedOccurrence, error) {
	var out []model.ModifiedOccurrence
	err := r.db.WithContext(ctx).
		Where("parent_event_id = ?", seriesID).
		Order("occurrence_date ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormSeriesStore) DeleteModifiedOccurrence(ctx context.Context, instanceID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Delete(&model.ModifiedOccurrence{}).Error
	return translate(err)
}

func (r *GormSeriesStore) AppendAudit(ctx context.Context, e *model.AuditEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(e).Error)
}

func (r *GormSeriesStore) ListAudit(ctx context.Context, seriesID uuid.UUID) ([]model.AuditEntry, error) {
	var out []model.AuditEntry
	err := r.db.WithContext(ctx).
		Where("series_id = ?", seriesID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormSeriesStore) WithinTx(ctx context.Context, fn func(SeriesStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormSeriesStore{db: tx})
	})
}

// всегда храним в UTC, дальше конвертим по TimeZone события
func normalizeTimes(ev *model.Event) {
	ev.StartsAt = ev.StartsAt.UTC()
	ev.EndsAt = ev.EndsAt.UTC()
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
