// Package ics renders series as iCalendar (RFC 5545) documents.
package ics

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"

	"github.com/Leganyst/event-series/internal/materializer"
	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/recurrence"
)

const (
	ProductID = "-//Leganyst//event-series//EN"

	localLayout = "20060102T150405"
	uidDomain   = "event-series"

	propRecurrenceID = ical.ComponentProperty("RECURRENCE-ID")
	statusCancelled  = "CANCELLED"
)

// ErrEmptySeries is returned when the rule yields no occurrence at all.
var ErrEmptySeries = errors.New("ics: series has no occurrences")

// Options of ExportSeries.
type Options struct {
	// Upper bound on VEVENTs written for rules that cannot be expressed as
	// an RRULE and have no terminator.
	MaxOccurrences int
	// DTSTAMP of every component; zero means now.
	Now time.Time
}

// ExportSeries renders the series template with its rule and materialized
// instances. Rules with an RFC 5545 equivalent become one master VEVENT with
// RRULE and EXDATE plus one override per modified instance. Other rules (day
// clamping past the 28th) are written as one VEVENT per occurrence. A
// cancelled series is exported with STATUS:CANCELLED on every generated
// component.
func ExportSeries(tpl *model.Event, rule recurrence.Rule, instances []model.Event, opts Options) (string, error) {
	if opts.MaxOccurrences <= 0 {
		opts.MaxOccurrences = 500
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	loc := tpl.Loc()
	tplStart := tpl.LocalStart()
	tplDate := civil.DateOf(tplStart)

	var first civil.Date
	found := false
	for d := range recurrence.Candidates(rule, tplDate) {
		first, found = d, true
		break
	}
	if !found {
		return "", ErrEmptySeries
	}

	modified := make(map[civil.Date]model.Event)
	for _, inst := range instances {
		if d, ok := inst.OriginalDate(); ok && inst.IsModified && !rule.IsException(d) {
			modified[d] = inst
		}
	}

	// Modified instances outlive a cancelled series and keep their own status.
	seriesCancelled := tpl.SeriesStatus == model.SeriesStatusCancelled

	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)

	if rule.RFCCompatible(tplDate) {
		masterStart := atDate(tplStart, first, loc)
		master := cal.AddEvent(uid(tpl.ID.String()))
		fill(master, tpl, masterStart, opts.Now)
		if seriesCancelled {
			master.SetProperty(ical.ComponentPropertyStatus, statusCancelled)
		}

		rr, err := rule.RRuleString(masterStart)
		if err != nil {
			return "", fmt.Errorf("render rrule: %w", err)
		}
		master.AddRrule(rr)
		for _, ex := range rule.Exceptions {
			master.AddExdate(atDate(tplStart, ex, loc).Format(localLayout), tzid(loc))
		}

		for _, d := range sortedDates(modified) {
			inst := modified[d]
			ov := cal.AddEvent(uid(tpl.ID.String()))
			fill(ov, &inst, inst.StartsAt.In(loc), opts.Now)
			ov.SetProperty(propRecurrenceID, atDate(tplStart, d, loc).Format(localLayout), tzid(loc))
		}
		return cal.Serialize(), nil
	}

	n := 0
	for d := range recurrence.Candidates(rule, tplDate) {
		if n >= opts.MaxOccurrences {
			break
		}
		n++
		if rule.IsException(d) {
			continue
		}
		occ := materializer.Build(tpl, d)
		inst, isModified := modified[d]
		if isModified {
			occ = &inst
		}
		ve := cal.AddEvent(uid(occ.ID.String()))
		fill(ve, occ, occ.StartsAt.In(loc), opts.Now)
		if seriesCancelled && !isModified {
			ve.SetProperty(ical.ComponentPropertyStatus, statusCancelled)
		}
	}
	return cal.Serialize(), nil
}

func fill(ve *ical.VEvent, ev *model.Event, start time.Time, now time.Time) {
	loc := start.Location()
	end := start.Add(ev.Duration())

	ve.SetDtStampTime(now.UTC())
	if !ev.UpdatedAt.IsZero() {
		ve.SetModifiedAt(ev.UpdatedAt.UTC())
	}
	ve.SetSummary(ev.Title)
	if ev.Description != "" {
		ve.SetDescription(ev.Description)
	}
	if ev.Location != "" {
		ve.SetLocation(ev.Location)
	}
	ve.SetProperty(ical.ComponentPropertyDtStart, start.Format(localLayout), tzid(loc))
	ve.SetProperty(ical.ComponentPropertyDtEnd, end.In(loc).Format(localLayout), tzid(loc))
	if ev.Status == model.EventStatusCancelled {
		ve.SetProperty(ical.ComponentPropertyStatus, statusCancelled)
	}
}

func atDate(tplStart time.Time, d civil.Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, tplStart.Hour(), tplStart.Minute(), tplStart.Second(), 0, loc)
}

func tzid(loc *time.Location) ical.PropertyParameter {
	return &ical.KeyValues{Key: string(ical.ParameterTzid), Value: []string{loc.String()}}
}

func uid(id string) string {
	return id + "@" + uidDomain
}

func sortedDates(m map[civil.Date]model.Event) []civil.Date {
	out := make([]civil.Date, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b civil.Date) int {
		switch {
		case a.Before(b):
			return -1
		case a.After(b):
			return 1
		}
		return 0
	})
	return out
}
