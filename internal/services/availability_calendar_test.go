package services

import (
	"testing"
	"time"

	"github.com/terraincognita07/comoestou/internal/models"
)

func TestComputeFilledDays(t *testing.T) {
	if filled := ComputeFilledDays(nil); len(filled) != 0 {
		t.Fatalf("expected empty set, got %v", filled)
	}

	filled := ComputeFilledDays([]models.MoodEntry{{Date: "2024-03-05T12:00:00Z"}})
	if len(filled) != 1 {
		t.Fatalf("expected one day, got %v", filled)
	}
	if _, ok := filled["2024-03-05"]; !ok {
		t.Fatalf("expected 2024-03-05 in set, got %v", filled)
	}

	filled = ComputeFilledDays([]models.MoodEntry{
		{Date: "2024-03-05"},
		{Date: "2024-03-05T23:00:00Z"},
		{Date: "not a date"},
		{Date: "2024-03-07T01:00:00-03:00"},
	})
	if len(filled) != 2 {
		t.Fatalf("expected two days, got %v", filled)
	}
}

func TestIsAvailableIsNegatedMembership(t *testing.T) {
	filled := map[string]struct{}{"2024-03-05": {}}
	taken := time.Date(2024, time.March, 5, 18, 0, 0, 0, time.UTC)
	free := time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)

	for attempt := 0; attempt < 2; attempt++ {
		if IsAvailable(taken, filled) {
			t.Fatalf("attempt %d: expected filled day to be unavailable", attempt)
		}
		if !IsAvailable(free, filled) {
			t.Fatalf("attempt %d: expected empty day to be available", attempt)
		}
	}
	if len(filled) != 1 {
		t.Fatalf("IsAvailable must not modify the set, got %v", filled)
	}
}

func TestSelectableDays(t *testing.T) {
	today := time.Date(2024, time.March, 10, 14, 0, 0, 0, time.UTC)
	filled := map[string]struct{}{
		"2024-03-10": {},
		"2024-03-08": {},
	}

	days := SelectableDays(filled, today, CalendarLookbackDays, "", weekdayInitial)
	if len(days) != CalendarLookbackDays {
		t.Fatalf("expected %d days, got %d", CalendarLookbackDays, len(days))
	}
	if days[0].Date != "2024-03-10" || days[len(days)-1].Date != "2024-02-10" {
		t.Fatalf("unexpected range %s..%s", days[0].Date, days[len(days)-1].Date)
	}

	first := days[0]
	if !first.Selected || first.Available || !first.Selectable {
		t.Fatalf("expected today to be selected, filled and selectable: %#v", first)
	}
	if first.Label != "Su" {
		t.Fatalf("expected Sunday label, got %q", first.Label)
	}
	if days[1].Selected || !days[1].Available || !days[1].Selectable {
		t.Fatalf("expected 2024-03-09 to be free: %#v", days[1])
	}
	if days[2].Available || days[2].Selectable {
		t.Fatalf("expected 2024-03-08 to be taken: %#v", days[2])
	}

	days = SelectableDays(filled, today, CalendarLookbackDays, "2024-03-08", nil)
	if !days[2].Selected || !days[2].Selectable {
		t.Fatalf("expected explicit selection to stay selectable: %#v", days[2])
	}
	if days[0].Selected || days[0].Selectable {
		t.Fatalf("expected today to lose the selection: %#v", days[0])
	}
}
