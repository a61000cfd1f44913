package ics

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/event-series/internal/materializer"
	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/recurrence"
)

func intPtr(v int) *int { return &v }

func seriesTemplate(t *testing.T, tz string, y int, m time.Month, d, hour int) *model.Event {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	require.NoError(t, err)
	start := time.Date(y, m, d, hour, 0, 0, 0, loc)
	return &model.Event{
		ID:           uuid.New(),
		Kind:         model.EventKindSeries,
		Title:        "planning",
		Location:     "room 2",
		TimeZone:     tz,
		StartsAt:     start,
		EndsAt:       start.Add(time.Hour),
		SeriesStatus: model.SeriesStatusActive,
	}
}

func parse(t *testing.T, body string) []*ical.VEvent {
	t.Helper()
	cal, err := ical.ParseCalendar(strings.NewReader(body))
	require.NoError(t, err)
	return cal.Events()
}

func TestExportSeries_RRuleWithExdateAndOverride(t *testing.T) {
	tpl := seriesTemplate(t, "Europe/Berlin", 2024, time.January, 1, 9) // Monday
	rule := recurrence.Rule{
		Frequency:       recurrence.FreqWeekly,
		Interval:        1,
		DaysOfWeek:      []int{1, 3},
		OccurrenceCount: intPtr(6),
		Exceptions:      []civil.Date{{Year: 2024, Month: time.January, Day: 3}},
	}

	moved := materializer.Build(tpl, civil.Date{Year: 2024, Month: time.January, Day: 8})
	moved.StartsAt = moved.StartsAt.Add(2 * time.Hour)
	moved.EndsAt = moved.EndsAt.Add(2 * time.Hour)
	moved.Title = "planning (moved)"
	moved.IsModified = true
	plain := materializer.Build(tpl, civil.Date{Year: 2024, Month: time.January, Day: 10})

	out, err := ExportSeries(tpl, rule, []model.Event{*moved, *plain}, Options{})
	require.NoError(t, err)

	events := parse(t, out)
	require.Len(t, events, 2, "master plus one override")

	master := events[0]
	rr := master.GetProperty(ical.ComponentPropertyRrule)
	require.NotNil(t, rr)
	assert.Contains(t, rr.Value, "FREQ=WEEKLY")
	assert.Contains(t, rr.Value, "BYDAY=MO,WE")
	assert.Contains(t, rr.Value, "COUNT=6")

	start := master.GetProperty(ical.ComponentPropertyDtStart)
	require.NotNil(t, start)
	assert.Equal(t, "20240101T090000", start.Value)
	assert.Equal(t, []string{"Europe/Berlin"}, start.ICalParameters["TZID"])

	exdates := master.GetProperties(ical.ComponentPropertyExdate)
	require.Len(t, exdates, 1)
	assert.Equal(t, "20240103T090000", exdates[0].Value)

	override := events[1]
	assert.Equal(t, master.Id(), override.Id())
	rid := override.GetProperty("RECURRENCE-ID")
	require.NotNil(t, rid)
	assert.Equal(t, "20240108T090000", rid.Value)
	assert.Equal(t, "20240108T110000", override.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "planning (moved)", override.GetProperty(ical.ComponentPropertySummary).Value)
}

func TestExportSeries_DtstartIsFirstOccurrence(t *testing.T) {
	// Jan 10 2024 is a Wednesday; the first Monday/Friday is Jan 12.
	tpl := seriesTemplate(t, "UTC", 2024, time.January, 10, 9)
	rule := recurrence.Rule{Frequency: recurrence.FreqWeekly, Interval: 1, DaysOfWeek: []int{1, 5}}

	out, err := ExportSeries(tpl, rule, nil, Options{})
	require.NoError(t, err)

	events := parse(t, out)
	require.Len(t, events, 1)
	assert.Equal(t, "20240112T090000", events[0].GetProperty(ical.ComponentPropertyDtStart).Value)
}

func TestExportSeries_ClampedMonthlyIsExpanded(t *testing.T) {
	tpl := seriesTemplate(t, "UTC", 2024, time.January, 31, 8)
	rule := recurrence.Rule{
		Frequency:       recurrence.FreqMonthly,
		Interval:        1,
		DaysOfMonth:     []int{31},
		OccurrenceCount: intPtr(4),
		Exceptions:      []civil.Date{{Year: 2024, Month: time.March, Day: 31}},
	}

	out, err := ExportSeries(tpl, rule, nil, Options{})
	require.NoError(t, err)

	events := parse(t, out)
	require.Len(t, events, 3)
	var starts []string
	for _, ev := range events {
		assert.Nil(t, ev.GetProperty(ical.ComponentPropertyRrule))
		starts = append(starts, ev.GetProperty(ical.ComponentPropertyDtStart).Value)
	}
	assert.Equal(t, []string{"20240131T080000", "20240229T080000", "20240430T080000"}, starts)
}

func TestExportSeries_UnboundedExpansionIsCapped(t *testing.T) {
	tpl := seriesTemplate(t, "UTC", 2024, time.January, 30, 8)
	rule := recurrence.Rule{Frequency: recurrence.FreqMonthly, Interval: 1}

	out, err := ExportSeries(tpl, rule, nil, Options{MaxOccurrences: 12})
	require.NoError(t, err)
	assert.Len(t, parse(t, out), 12)
}

func TestExportSeries_Empty(t *testing.T) {
	tpl := seriesTemplate(t, "UTC", 2024, time.January, 1, 8)
	end := civil.Date{Year: 2023, Month: time.December, Day: 31}
	rule := recurrence.Rule{Frequency: recurrence.FreqDaily, Interval: 1, EndDate: &end}

	_, err := ExportSeries(tpl, rule, nil, Options{})
	require.ErrorIs(t, err, ErrEmptySeries)
}

func TestExportSeries_CancelledSeries(t *testing.T) {
	tpl := seriesTemplate(t, "UTC", 2024, time.January, 1, 8)
	tpl.SeriesStatus = model.SeriesStatusCancelled

	kept := materializer.Build(tpl, civil.Date{Year: 2024, Month: time.January, Day: 2})
	kept.Title = "kept"
	kept.IsModified = true

	out, err := ExportSeries(tpl, recurrence.Rule{Frequency: recurrence.FreqDaily, Interval: 1}, []model.Event{*kept}, Options{})
	require.NoError(t, err)
	events := parse(t, out)
	require.Len(t, events, 2)
	status := events[0].GetProperty(ical.ComponentPropertyStatus)
	require.NotNil(t, status, "master of a cancelled series carries STATUS")
	assert.Equal(t, "CANCELLED", status.Value)
	assert.Nil(t, events[1].GetProperty(ical.ComponentPropertyStatus), "modified instance keeps its own status")

	// expanded rules mark every generated occurrence
	monthly := recurrence.Rule{Frequency: recurrence.FreqMonthly, Interval: 1, DaysOfMonth: []int{31}, OccurrenceCount: intPtr(2)}
	tpl = seriesTemplate(t, "UTC", 2024, time.January, 31, 8)
	tpl.SeriesStatus = model.SeriesStatusCancelled
	out, err = ExportSeries(tpl, monthly, nil, Options{})
	require.NoError(t, err)
	for _, ev := range parse(t, out) {
		require.NotNil(t, ev.GetProperty(ical.ComponentPropertyStatus))
		assert.Equal(t, "CANCELLED", ev.GetProperty(ical.ComponentPropertyStatus).Value)
	}
}
