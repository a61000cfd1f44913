package calendar

import (
	"errors"
	"testing"
	"time"
)

func mustTime(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestParseTimeRange(t *testing.T) {
	tr, err := ParseTimeRange("2024-03-01T00:00:00Z", "2024-03-07T23:59:59+02:00")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !tr.Start.Equal(mustTime(t, 2024, 3, 1, 0, 0)) {
		t.Fatalf("unexpected start %v", tr.Start)
	}
	if tr.Empty() {
		t.Fatalf("expected non-empty range")
	}

	if _, err := ParseTimeRange("2024-03-01", "2024-03-07T00:00:00Z"); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestNewTimeRange_ReversedIsEmpty(t *testing.T) {
	tr, err := NewTimeRange(mustTime(t, 2024, 3, 2, 0, 0), mustTime(t, 2024, 3, 1, 0, 0))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !tr.Empty() {
		t.Fatalf("expected reversed range to be empty")
	}

	point, _ := NewTimeRange(mustTime(t, 2024, 3, 1, 0, 0), mustTime(t, 2024, 3, 1, 0, 0))
	if point.Empty() {
		t.Fatalf("expected zero-length range to be non-empty")
	}
}

func TestNewTimeRange_InvalidZero(t *testing.T) {
	if _, err := NewTimeRange(time.Time{}, mustTime(t, 2024, 3, 1, 0, 0)); err == nil {
		t.Fatalf("expected error for zero start, got nil")
	}
}

func TestClamp(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 2025, 1, 1, 10, 0), End: mustTime(t, 2025, 1, 1, 15, 0)}

	if got := tr.Clamp(2 * time.Hour).End.Sub(tr.Start); got != 2*time.Hour {
		t.Fatalf("expected duration 2h, got %v", got)
	}
	if got := tr.Clamp(0); !got.End.Equal(tr.End) {
		t.Fatalf("expected no clamp, got %v", got)
	}
}

func TestPaginate_Basic(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	page := Paginate(items, 1, 5)

	if len(page.Items) != 5 {
		t.Fatalf("expected 5 items on page 1, got %d", len(page.Items))
	}
	if page.HasPrev {
		t.Fatalf("expected HasPrev=false on first page")
	}
	if !page.HasNext {
		t.Fatalf("expected HasNext=true on first page")
	}
	if page.Total != len(items) {
		t.Fatalf("expected Total=%d, got %d", len(items), page.Total)
	}
}

func TestPaginate_LastPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	page := Paginate(items, 2, 4)

	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items on last page, got %d", len(page.Items))
	}
	if !page.HasPrev || page.HasNext {
		t.Fatalf("expected HasPrev=true HasNext=false, got %+v", page)
	}
}

func TestPaginate_PastEndAndDefaults(t *testing.T) {
	items := []int{1, 2, 3}
	page := Paginate(items, 5, 0)

	if len(page.Items) != 0 {
		t.Fatalf("expected 0 items, got %d", len(page.Items))
	}
	if page.PageSize != DefaultPageSize {
		t.Fatalf("expected default page size, got %d", page.PageSize)
	}

	var empty []int
	if p := Paginate(empty, 1, 10); p.HasNext || p.HasPrev {
		t.Fatalf("expected no prev/next for empty list")
	}
}
