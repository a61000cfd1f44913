package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	seriesv1 "github.com/Leganyst/event-series/internal/api/series/v1"
	"github.com/Leganyst/event-series/internal/calendar"
	"github.com/Leganyst/event-series/internal/materializer"
	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/repository"
	"github.com/Leganyst/event-series/internal/series"
)

// MaxQueryWindow bounds the window of a single range query.
const MaxQueryWindow = 366 * 24 * time.Hour

type SeriesService struct {
	seriesv1.UnimplementedSeriesServiceServer

	svc *series.Service
	log zerolog.Logger
}

func NewSeriesService(svc *series.Service, log zerolog.Logger) *SeriesService {
	return &SeriesService{
		svc: svc,
		log: log.With().Str("component", "grpc").Logger(),
	}
}

// CreateSeries stores a draft series; "activate": true activates it in the
// same call.
func (s *SeriesService) CreateSeries(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	startsAt, err := optTime(req, "starts_at")
	if err != nil {
		return nil, err
	}
	endsAt, err := optTime(req, "ends_at")
	if err != nil {
		return nil, err
	}
	if startsAt == nil || endsAt == nil {
		return nil, status.Error(codes.InvalidArgument, "starts_at and ends_at are required")
	}
	rule, err := decodeRule(req.GetFields()["rule"].GetStructValue())
	if err != nil {
		return nil, err
	}

	tpl := &model.Event{
		Title:       str(req, "title"),
		Description: str(req, "description"),
		Location:    str(req, "location"),
		Color:       str(req, "color"),
		TimeZone:    str(req, "time_zone"),
		StartsAt:    *startsAt,
		EndsAt:      *endsAt,
	}
	tpl, err = s.svc.CreateSeries(ctx, tpl, rule)
	if err != nil {
		return nil, toStatus(err)
	}
	if req.GetFields()["activate"].GetBoolValue() {
		if tpl, err = s.svc.ActivateSeries(ctx, tpl.ID); err != nil {
			return nil, toStatus(err)
		}
	}

	return response(map[string]any{
		"series": encodeEvent(tpl),
		"rule":   encodeRule(rule),
	})
}

func (s *SeriesService) ActivateSeries(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "series_id")
	if err != nil {
		return nil, err
	}
	tpl, err := s.svc.ActivateSeries(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return response(map[string]any{"series": encodeEvent(tpl)})
}

// GenerateRecurringInstances returns the instances of one series in
// [start, end]. Dates that failed to persist are listed in "failed_dates".
func (s *SeriesService) GenerateRecurringInstances(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "series_id")
	if err != nil {
		return nil, err
	}
	window, err := parseWindow(req)
	if err != nil {
		return nil, err
	}

	instances, err := s.svc.GenerateRecurringInstances(ctx, id, window.Start, window.End)
	failed, err := s.partial(err)
	if err != nil {
		return nil, err
	}
	return response(map[string]any{
		"instances":    encodeEvents(instances),
		"failed_dates": failed,
	})
}

// FindInDateRange lists every event overlapping [start, end], one page at a
// time.
func (s *SeriesService) FindInDateRange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	window, err := parseWindow(req)
	if err != nil {
		return nil, err
	}
	pageNum, _, err := optInt(req, "page")
	if err != nil {
		return nil, err
	}
	pageSize, _, err := optInt(req, "page_size")
	if err != nil {
		return nil, err
	}

	events, err := s.svc.FindInDateRange(ctx, window.Start, window.End)
	failed, err := s.partial(err)
	if err != nil {
		return nil, err
	}

	page := calendar.Paginate(events, pageNum, pageSize)
	return response(map[string]any{
		"events":       encodeEvents(page.Items),
		"page":         page.Page,
		"page_size":    page.PageSize,
		"total":        page.Total,
		"has_next":     page.HasNext,
		"failed_dates": failed,
	})
}

func (s *SeriesService) EditOccurrence(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "series_id")
	if err != nil {
		return nil, err
	}
	d, err := requireDate(req, "date")
	if err != nil {
		return nil, err
	}
	patch := series.Patch{
		Title:       optStr(req, "title"),
		Description: optStr(req, "description"),
		Location:    optStr(req, "location"),
	}
	if patch.StartsAt, err = optTime(req, "starts_at"); err != nil {
		return nil, err
	}
	if patch.EndsAt, err = optTime(req, "ends_at"); err != nil {
		return nil, err
	}

	inst, err := s.svc.EditOccurrence(ctx, id, d, patch)
	if err != nil {
		return nil, toStatus(err)
	}
	return response(map[string]any{"instance": encodeEvent(inst)})
}

func (s *SeriesService) CancelOccurrence(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "series_id")
	if err != nil {
		return nil, err
	}
	d, err := requireDate(req, "date")
	if err != nil {
		return nil, err
	}
	if err := s.svc.CancelOccurrence(ctx, id, d); err != nil {
		return nil, toStatus(err)
	}
	return response(map[string]any{})
}

func (s *SeriesService) DeleteInstance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "instance_id")
	if err != nil {
		return nil, err
	}
	if err := s.svc.DeleteInstance(ctx, id); err != nil {
		return nil, toStatus(err)
	}
	return response(map[string]any{})
}

// CancelSeries cancels a series as of "as_of", defaulting to now.
func (s *SeriesService) CancelSeries(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "series_id")
	if err != nil {
		return nil, err
	}
	asOf, err := optTime(req, "as_of")
	if err != nil {
		return nil, err
	}
	var at time.Time
	if asOf != nil {
		at = *asOf
	}
	removed, err := s.svc.CancelSeries(ctx, id, at)
	if err != nil {
		return nil, toStatus(err)
	}
	return response(map[string]any{"removed": removed})
}

func (s *SeriesService) ExportICS(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "series_id")
	if err != nil {
		return nil, err
	}
	doc, err := s.svc.ExportICS(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return response(map[string]any{"ics": doc})
}

func parseWindow(req *structpb.Struct) (calendar.TimeRange, error) {
	window, err := calendar.ParseTimeRange(str(req, "start"), str(req, "end"))
	if err != nil {
		return calendar.TimeRange{}, status.Errorf(codes.InvalidArgument, "start and end: %v", err)
	}
	return window.Clamp(MaxQueryWindow), nil
}

// partial splits per-occurrence failures, which are reported in the
// response, from errors that fail the call.
func (s *SeriesService) partial(err error) ([]any, error) {
	if err == nil {
		return []any{}, nil
	}
	occ := materializer.Errors(err)
	if len(occ) == 0 {
		return nil, toStatus(err)
	}
	s.log.Warn().Err(err).Int("failed", len(occ)).Msg("occurrences not materialized")
	failed := make([]any, len(occ))
	for i, e := range occ {
		failed[i] = e.Date.String()
	}
	return failed, nil
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return status.Errorf(codes.NotFound, "%v", err)
	case errors.Is(err, series.ErrInvalidEvent),
		errors.Is(err, series.ErrInvalidRule),
		errors.Is(err, series.ErrNotOccurrence):
		return status.Errorf(codes.InvalidArgument, "%v", err)
	case errors.Is(err, series.ErrNotRecurring),
		errors.Is(err, series.ErrNotInstance),
		errors.Is(err, series.ErrSeriesCancelled),
		errors.Is(err, series.ErrSeriesDraft):
		return status.Errorf(codes.FailedPrecondition, "%v", err)
	case errors.Is(err, series.ErrIDConflict),
		errors.Is(err, repository.ErrDuplicate):
		return status.Errorf(codes.AlreadyExists, "%v", err)
	default:
		return status.Errorf(codes.Internal, "%v", err)
	}
}
