package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

func santiago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	return loc
}

func TestExpandRecurrenceNoRule(t *testing.T) {
	start := time.Date(2025, 5, 5, 13, 0, 0, 0, time.UTC)
	got, err := ExpandRecurrence(start, nil, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{start}, got)
}

func TestExpandRecurrenceWeekly(t *testing.T) {
	// Monday
	start := time.Date(2025, 5, 5, 13, 0, 0, 0, time.UTC)
	rule := &models.RecurrenceRule{Frequency: models.FrequencyWeekly, Days: []string{"Lun", "Mié"}, Occurrences: 5}

	got, err := ExpandRecurrence(start, rule, time.UTC)
	require.NoError(t, err)

	want := []time.Time{
		start,
		start.AddDate(0, 0, 2),
		start.AddDate(0, 0, 7),
		start.AddDate(0, 0, 9),
		start.AddDate(0, 0, 14),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("weekly expansion mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandRecurrenceWeeklyDefaultsToStartWeekday(t *testing.T) {
	start := time.Date(2025, 5, 8, 13, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC)
	rule := &models.RecurrenceRule{Frequency: models.FrequencyWeekly, EndDate: &end}

	got, err := ExpandRecurrence(start, rule, time.UTC)
	require.NoError(t, err)

	want := []time.Time{start, start.AddDate(0, 0, 7), start.AddDate(0, 0, 14), start.AddDate(0, 0, 21)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("end date is inclusive (-want +got):\n%s", diff)
	}
}

func TestExpandRecurrenceMonthlySkipsShortMonths(t *testing.T) {
	start := time.Date(2025, 1, 31, 13, 0, 0, 0, time.UTC)
	rule := &models.RecurrenceRule{Frequency: models.FrequencyMonthly, Occurrences: 4}

	got, err := ExpandRecurrence(start, rule, time.UTC)
	require.NoError(t, err)

	want := []time.Time{
		start,
		time.Date(2025, 3, 31, 13, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 31, 13, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 31, 13, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("monthly expansion mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandRecurrenceAnnuallySkipsFeb29(t *testing.T) {
	start := time.Date(2024, 2, 29, 13, 0, 0, 0, time.UTC)
	rule := &models.RecurrenceRule{Frequency: models.FrequencyAnnually, Occurrences: 2}

	got, err := ExpandRecurrence(start, rule, time.UTC)
	require.NoError(t, err)

	want := []time.Time{start, time.Date(2028, 2, 29, 13, 0, 0, 0, time.UTC)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("annual expansion mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandRecurrenceCapped(t *testing.T) {
	start := time.Date(2025, 5, 5, 13, 0, 0, 0, time.UTC)
	rule := &models.RecurrenceRule{Frequency: models.FrequencyWeekly, Days: []string{"monday", "tuesday", "wednesday"}, Occurrences: 500}

	got, err := ExpandRecurrence(start, rule, time.UTC)
	require.NoError(t, err)
	assert.Len(t, got, MaxOccurrences)
}

func TestExpandRecurrenceKeepsLocalClockAcrossDST(t *testing.T) {
	loc := santiago(t)
	// 13:00 local before and after the April change of offset.
	start := time.Date(2025, 3, 31, 13, 0, 0, 0, loc)
	rule := &models.RecurrenceRule{Frequency: models.FrequencyWeekly, Occurrences: 3}

	got, err := ExpandRecurrence(start, rule, loc)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, ts := range got {
		assert.Equal(t, 13, ts.In(loc).Hour())
		assert.Equal(t, time.UTC, ts.Location())
	}
}

func TestExpandRecurrenceInvalid(t *testing.T) {
	start := time.Date(2025, 5, 5, 13, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -3)

	cases := []*models.RecurrenceRule{
		{Frequency: "daily"},
		{Frequency: models.FrequencyWeekly, Days: []string{"funday"}},
		{Frequency: models.FrequencyMonthly, EndDate: &before},
		{Frequency: models.FrequencyMonthly, Occurrences: -1},
	}
	for _, rule := range cases {
		_, err := ExpandRecurrence(start, rule, time.UTC)
		assert.True(t, errors.Is(err, ErrInvalidInput), "%+v", rule)
	}
}
