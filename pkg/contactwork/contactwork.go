package contactwork

import "time"

// Organization is the sponsoring group a contact work meeting belongs to.
type Organization string

const (
	OrganizationUni  Organization = "uni"
	OrganizationWyld Organization = "wyld"
	OrganizationYL   Organization = "YL"
)

func (o Organization) IsValid() bool {
	switch o {
	case OrganizationUni, OrganizationWyld, OrganizationYL:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

type Duration string

const (
	DurationThreeMonths Duration = "3months"
	DurationSixMonths   Duration = "6months"
	DurationOneYear     Duration = "1year"
	DurationCustom      Duration = "custom"
)

func (d Duration) IsValid() bool {
	switch d {
	case DurationThreeMonths, DurationSixMonths, DurationOneYear, DurationCustom:
		return true
	}
	return false
}

type DurationUnit string

const (
	DurationUnitWeeks  DurationUnit = "weeks"
	DurationUnitMonths DurationUnit = "months"
)

// RecurringPattern describes how a recurring entry repeats and for how long.
// DayOfWeek and DayOfMonth are informational, derived from the entry's start
// time; occurrence generation advances by calendar arithmetic from the start
// time and never re-derives them.
type RecurringPattern struct {
	Frequency          Frequency
	DayOfWeek          time.Weekday
	DayOfMonth         int
	Duration           Duration
	CustomDuration     int
	CustomDurationUnit DurationUnit
}

// Entry is a persisted contact work meeting definition. For recurring entries
// StartTime/EndTime describe the first occurrence; the occurrence length
// (EndTime - StartTime) is constant across the whole series.
type Entry struct {
	Id           string
	Person       string
	StartTime    time.Time
	EndTime      time.Time
	Location     string
	Organization Organization
	IsRecurring  bool
	// RecurringPattern is set iff IsRecurring is true.
	RecurringPattern *RecurringPattern
	// DeletedOccurrences holds day-granularity dates of individually removed
	// occurrences.
	DeletedOccurrences []time.Time
	Description        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Occurrence is one concrete scheduled instance generated from an entry. It is
// ephemeral and never persisted. Entry is a snapshot of the owning entry with
// StartTime/EndTime substituted by this occurrence's times, so consumers can
// route edits back without re-deriving anything.
type Occurrence struct {
	Id    string
	Start time.Time
	End   time.Time
	Entry Entry
}
