package service

import (
	"math"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/recurrence"
)

func field(in *structpb.Struct, key string) (*structpb.Value, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return nil, false
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return nil, false
	}
	return v, true
}

func str(in *structpb.Struct, key string) string {
	v, _ := field(in, key)
	return v.GetStringValue()
}

func optStr(in *structpb.Struct, key string) *string {
	v, ok := field(in, key)
	if !ok {
		return nil
	}
	s := v.GetStringValue()
	return &s
}

func integer(v *structpb.Value, key string) (int, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	return int(n.NumberValue), nil
}

func optInt(in *structpb.Struct, key string) (int, bool, error) {
	v, ok := field(in, key)
	if !ok {
		return 0, false, nil
	}
	n, err := integer(v, key)
	return n, err == nil, err
}

func intList(in *structpb.Struct, key string) ([]int, error) {
	v, ok := field(in, key)
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a list", key)
	}
	out := make([]int, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		n, err := integer(item, key)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func requireID(in *structpb.Struct, key string) (uuid.UUID, error) {
	raw := str(in, key)
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s: %v", key, err)
	}
	return id, nil
}

func optTime(in *structpb.Struct, key string) (*time.Time, error) {
	raw := str(in, key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s: %v", key, err)
	}
	return &t, nil
}

func parseDate(raw, key string) (civil.Date, error) {
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, status.Errorf(codes.InvalidArgument, "invalid %s: %v", key, err)
	}
	return d, nil
}

func requireDate(in *structpb.Struct, key string) (civil.Date, error) {
	raw := str(in, key)
	if raw == "" {
		return civil.Date{}, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return parseDate(raw, key)
}

// decodeRule reads the "rule" object of a request. A missing interval
// means 1.
func decodeRule(in *structpb.Struct) (recurrence.Rule, error) {
	if in == nil {
		return recurrence.Rule{}, status.Error(codes.InvalidArgument, "rule is required")
	}
	rule := recurrence.Rule{
		Frequency: recurrence.Frequency(str(in, "frequency")),
		Interval:  1,
	}

	var err error
	if n, ok, err := optInt(in, "interval"); err != nil {
		return recurrence.Rule{}, err
	} else if ok {
		rule.Interval = n
	}
	if rule.DaysOfWeek, err = intList(in, "days_of_week"); err != nil {
		return recurrence.Rule{}, err
	}
	if rule.DaysOfMonth, err = intList(in, "days_of_month"); err != nil {
		return recurrence.Rule{}, err
	}
	if rule.MonthsOfYear, err = intList(in, "months_of_year"); err != nil {
		return recurrence.Rule{}, err
	}
	if raw := str(in, "end_date"); raw != "" {
		d, err := parseDate(raw, "end_date")
		if err != nil {
			return recurrence.Rule{}, err
		}
		rule.EndDate = &d
	}
	if n, ok, err := optInt(in, "occurrence_count"); err != nil {
		return recurrence.Rule{}, err
	} else if ok {
		rule.OccurrenceCount = &n
	}
	if v, ok := field(in, "exceptions"); ok {
		for _, item := range v.GetListValue().GetValues() {
			d, err := parseDate(item.GetStringValue(), "exceptions")
			if err != nil {
				return recurrence.Rule{}, err
			}
			rule.Exceptions = append(rule.Exceptions, d)
		}
	}
	return rule, nil
}

func intsToList(v []int) []any {
	out := make([]any, len(v))
	for i, n := range v {
		out[i] = n
	}
	return out
}

func datesToList(v []civil.Date) []any {
	out := make([]any, len(v))
	for i, d := range v {
		out[i] = d.String()
	}
	return out
}

func encodeRule(r recurrence.Rule) map[string]any {
	m := map[string]any{
		"frequency":      string(r.Frequency),
		"interval":       r.Interval,
		"days_of_week":   intsToList(r.DaysOfWeek),
		"days_of_month":  intsToList(r.DaysOfMonth),
		"months_of_year": intsToList(r.MonthsOfYear),
		"exceptions":     datesToList(r.Exceptions),
	}
	if r.EndDate != nil {
		m["end_date"] = r.EndDate.String()
	}
	if r.OccurrenceCount != nil {
		m["occurrence_count"] = *r.OccurrenceCount
	}
	return m
}

func encodeEvent(ev *model.Event) map[string]any {
	m := map[string]any{
		"id":          ev.ID.String(),
		"kind":        string(ev.Kind),
		"title":       ev.Title,
		"description": ev.Description,
		"location":    ev.Location,
		"color":       ev.Color,
		"time_zone":   ev.TimeZone,
		"starts_at":   ev.StartsAt.UTC().Format(time.RFC3339),
		"ends_at":     ev.EndsAt.UTC().Format(time.RFC3339),
		"status":      string(ev.Status),
		"is_modified": ev.IsModified,
	}
	if ev.SeriesStatus != "" {
		m["series_status"] = string(ev.SeriesStatus)
	}
	if ev.ParentEventID != nil {
		m["parent_event_id"] = ev.ParentEventID.String()
	}
	if d, ok := ev.OriginalDate(); ok {
		m["original_start_date"] = d.String()
	}
	return m
}

func encodeEvents(events []model.Event) []any {
	out := make([]any, len(events))
	for i := range events {
		out[i] = encodeEvent(&events[i])
	}
	return out
}

func response(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
