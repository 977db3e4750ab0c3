package services

import (
	"testing"
	"time"
)

func TestCanonicalDay(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "plain date", raw: "2024-03-05", want: "2024-03-05", wantOK: true},
		{name: "utc timestamp", raw: "2024-03-05T12:00:00Z", want: "2024-03-05", wantOK: true},
		{name: "late utc keeps own day", raw: "2024-03-05T23:59:59.999Z", want: "2024-03-05", wantOK: true},
		{name: "offset timestamp", raw: "2024-03-05T22:00:00-03:00", want: "2024-03-05", wantOK: true},
		{name: "empty", raw: "", wantOK: false},
		{name: "not a date", raw: "yesterday", wantOK: false},
		{name: "impossible day", raw: "2024-02-30", wantOK: false},
		{name: "garbage suffix", raw: "2024-03-05abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalDay(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("CanonicalDay(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDayRangeNormalizesToLocationMidnight(t *testing.T) {
	location, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	raw := time.Date(2026, 2, 1, 1, 35, 10, 0, time.UTC)
	start, end := DayRange(raw, location)

	if start.Format("2006-01-02 15:04") != "2026-01-31 00:00" {
		t.Fatalf("unexpected day start %s", start)
	}
	if !end.Equal(start.AddDate(0, 0, 1)) {
		t.Fatalf("expected end one day after start, got %s", end)
	}
}
