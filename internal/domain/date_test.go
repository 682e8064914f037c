package domain

import (
	"testing"
	"time"
)

func TestDateTruncatesInLocation(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 23:30 UTC on 30 June is already 1 July in London (BST).
	ts := time.Date(2026, 6, 30, 23, 30, 0, 0, time.UTC)
	d := Date(ts, london)

	if got := DateKey(d); got != "2026-07-01" {
		t.Fatalf("Date = %s, want 2026-07-01", got)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Fatalf("Date not at midnight: %v", d)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-01-05", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Weekday() != time.Monday {
		t.Fatalf("2026-01-05 weekday = %v, want Monday", d.Weekday())
	}

	if _, err := ParseDate("05/01/2026", time.UTC); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestIsWeekend(t *testing.T) {
	sat := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	sun := sat.AddDate(0, 0, 1)
	mon := sat.AddDate(0, 0, 2)

	if !IsWeekend(sat) || !IsWeekend(sun) {
		t.Fatalf("expected Saturday and Sunday to be weekend")
	}
	if IsWeekend(mon) {
		t.Fatalf("expected Monday to be a weekday")
	}
}
