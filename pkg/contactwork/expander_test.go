package contactwork

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func weeklyEntry(location *time.Location) Entry {
	return Entry{
		Id:           "entry-1",
		Person:       "Kasia",
		StartTime:    time.Date(2024, time.January, 1, 17, 0, 0, 0, location),
		EndTime:      time.Date(2024, time.January, 1, 19, 0, 0, 0, location),
		Location:     "Kawiarnia Relaks",
		Organization: OrganizationYL,
		IsRecurring:  true,
		RecurringPattern: &RecurringPattern{
			Frequency: FrequencyWeekly,
			Duration:  DurationThreeMonths,
		},
	}
}

func TestExpandNonRecurring(t *testing.T) {
	entry := Entry{
		Id:           "single-1",
		Person:       "Tomek",
		StartTime:    time.Date(2024, time.March, 5, 12, 0, 0, 0, time.Local),
		EndTime:      time.Date(2024, time.March, 5, 13, 30, 0, 0, time.Local),
		Organization: OrganizationUni,
		IsRecurring:  false,
	}

	occurrences := Expand(entry)

	assert.Len(t, occurrences, 1)
	assert.Equal(t, entry.StartTime, occurrences[0].Start)
	assert.Equal(t, entry.EndTime, occurrences[0].End)
	assert.Equal(t, "single-1", occurrences[0].Entry.Id)
}

func TestExpandWeeklyThreeMonths(t *testing.T) {
	location, _ := time.LoadLocation("Europe/Warsaw")
	entry := weeklyEntry(location)

	occurrences := Expand(entry)

	horizon := time.Date(2024, time.April, 1, 17, 0, 0, 0, location)

	assert.Equal(t, time.Date(2024, time.January, 1, 17, 0, 0, 0, location), occurrences[0].Start)
	assert.Equal(t, time.Date(2024, time.January, 1, 19, 0, 0, 0, location), occurrences[0].End)
	assert.Equal(t, time.Date(2024, time.January, 8, 17, 0, 0, 0, location), occurrences[1].Start)

	// Jan 1 + 3 calendar months lands exactly on an occurrence; the boundary
	// occurrence is included.
	last := occurrences[len(occurrences)-1]
	assert.Equal(t, horizon, last.Start)
	for _, o := range occurrences {
		assert.False(t, o.Start.After(horizon))
	}
	assert.Len(t, occurrences, 14)
}

func TestExpandConstantDuration(t *testing.T) {
	location, _ := time.LoadLocation("Europe/Warsaw")
	entry := weeklyEntry(location)
	baseLength := entry.EndTime.Sub(entry.StartTime)

	for _, o := range Expand(entry) {
		assert.Equal(t, baseLength, o.End.Sub(o.Start))
		assert.Equal(t, baseLength, o.Entry.EndTime.Sub(o.Entry.StartTime))
	}
}

func TestExpandOccurrencesEquallySpaced(t *testing.T) {
	location, _ := time.LoadLocation("Europe/Warsaw")

	t.Run("weekly occurrences are 7 days apart", func(t *testing.T) {
		occurrences := Expand(weeklyEntry(location))
		for i := 1; i < len(occurrences); i++ {
			assert.Equal(t, occurrences[i-1].Start.AddDate(0, 0, 7), occurrences[i].Start)
			assert.True(t, occurrences[i].Start.After(occurrences[i-1].Start))
		}
	})

	t.Run("biweekly occurrences are a flat 14 days apart", func(t *testing.T) {
		entry := weeklyEntry(location)
		entry.RecurringPattern.Frequency = FrequencyBiweekly
		occurrences := Expand(entry)
		assert.Len(t, occurrences, 7)
		for i := 1; i < len(occurrences); i++ {
			assert.Equal(t, occurrences[i-1].Start.AddDate(0, 0, 14), occurrences[i].Start)
		}
	})

	t.Run("weekly series keeps wall clock time across the DST transition", func(t *testing.T) {
		// Europe/Warsaw switches to summer time on 2024-03-31.
		occurrences := Expand(weeklyEntry(location))
		for _, o := range occurrences {
			assert.Equal(t, 17, o.Start.Hour())
		}
	})
}

func TestExpandDeletedOccurrences(t *testing.T) {
	location, _ := time.LoadLocation("Europe/Warsaw")

	t.Run("a deleted date is suppressed without shifting the rest of the series", func(t *testing.T) {
		entry := weeklyEntry(location)
		entry.DeletedOccurrences = []time.Time{
			time.Date(2024, time.January, 8, 0, 0, 0, 0, location),
		}

		occurrences := Expand(entry)

		assert.Len(t, occurrences, 13)
		starts := make([]time.Time, 0, len(occurrences))
		for _, o := range occurrences {
			starts = append(starts, o.Start)
		}
		assert.Contains(t, starts, time.Date(2024, time.January, 1, 17, 0, 0, 0, location))
		assert.NotContains(t, starts, time.Date(2024, time.January, 8, 17, 0, 0, 0, location))
		assert.Contains(t, starts, time.Date(2024, time.January, 15, 17, 0, 0, 0, location))
	})

	t.Run("deletion markers match on calendar date, not instant", func(t *testing.T) {
		entry := weeklyEntry(location)
		// Marker carries a time of day; it must still suppress the 17:00
		// occurrence on that date.
		entry.DeletedOccurrences = []time.Time{
			time.Date(2024, time.January, 15, 23, 45, 12, 0, location),
		}

		for _, o := range Expand(entry) {
			assert.NotEqual(t, "2024-01-15", o.Start.Format("2006-01-02"))
		}
	})
}

func TestExpandMonthlyMonthEndOverflow(t *testing.T) {
	location, _ := time.LoadLocation("Europe/Warsaw")
	entry := Entry{
		Id:           "monthly-31",
		Person:       "Ola",
		StartTime:    time.Date(2024, time.January, 31, 10, 0, 0, 0, location),
		EndTime:      time.Date(2024, time.January, 31, 11, 0, 0, 0, location),
		Organization: OrganizationWyld,
		IsRecurring:  true,
		RecurringPattern: &RecurringPattern{
			Frequency: FrequencyMonthly,
			Duration:  DurationThreeMonths,
		},
	}

	occurrences := Expand(entry)

	// AddDate normalizes Jan 31 + 1 month to Mar 2 in a leap year (Feb 31
	// does not exist).
	assert.Equal(t, time.Date(2024, time.March, 2, 10, 0, 0, 0, location), occurrences[1].Start)
}

func TestExpandCustomDuration(t *testing.T) {
	location, _ := time.LoadLocation("Europe/Warsaw")
	entry := weeklyEntry(location)
	entry.RecurringPattern.Duration = DurationCustom
	entry.RecurringPattern.CustomDuration = 2
	entry.RecurringPattern.CustomDurationUnit = DurationUnitWeeks

	occurrences := Expand(entry)

	// Horizon = start + 14 days, inclusive, so the occurrence landing exactly
	// on it is the last one.
	assert.Len(t, occurrences, 3)
	assert.Equal(t, time.Date(2024, time.January, 15, 17, 0, 0, 0, location), occurrences[2].Start)
}

func TestExpandSafetyCap(t *testing.T) {
	location, _ := time.LoadLocation("Europe/Warsaw")
	entry := weeklyEntry(location)
	entry.RecurringPattern.Duration = DurationCustom
	entry.RecurringPattern.CustomDuration = 2000
	entry.RecurringPattern.CustomDurationUnit = DurationUnitWeeks

	occurrences := Expand(entry)

	assert.Len(t, occurrences, maxOccurrences)
}

func TestExpandUnrecognizedValues(t *testing.T) {
	location, _ := time.LoadLocation("Europe/Warsaw")

	t.Run("unrecognized duration falls back to a six month horizon", func(t *testing.T) {
		entry := weeklyEntry(location)
		entry.RecurringPattern.Duration = Duration("forever")

		occurrences := Expand(entry)

		horizon := entry.StartTime.AddDate(0, 6, 0)
		assert.NotEmpty(t, occurrences)
		for _, o := range occurrences {
			assert.False(t, o.Start.After(horizon))
		}
		assert.Equal(t, horizon, occurrences[len(occurrences)-1].Start)
	})

	t.Run("unrecognized frequency yields only the first occurrence", func(t *testing.T) {
		entry := weeklyEntry(location)
		entry.RecurringPattern.Frequency = Frequency("daily")

		occurrences := Expand(entry)

		assert.Len(t, occurrences, 1)
		assert.Equal(t, entry.StartTime, occurrences[0].Start)
	})
}

func TestExpandIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	location, _ := time.LoadLocation("Europe/Warsaw")
	entry := weeklyEntry(location)
	entry.DeletedOccurrences = []time.Time{
		time.Date(2024, time.February, 5, 0, 0, 0, 0, location),
	}
	originalStart := entry.StartTime
	originalEnd := entry.EndTime
	originalPattern := *entry.RecurringPattern

	first := Expand(entry)
	second := Expand(entry)

	assert.Equal(t, first, second)
	assert.Equal(t, originalStart, entry.StartTime)
	assert.Equal(t, originalEnd, entry.EndTime)
	assert.Equal(t, originalPattern, *entry.RecurringPattern)
}
