package contactwork

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// maxOccurrences caps how many occurrences a single entry can expand to, so
// generation terminates even on pathological horizon/step combinations.
const maxOccurrences = 500

const dateKeyLayout = "2006-01-02"

// Expand generates the ordered list of concrete occurrences for an entry.
//
// It is a pure function: the input entry is not mutated and repeated calls
// with the same entry yield the same result. Non-recurring entries expand to
// exactly one occurrence with the base times. Recurring entries are walked
// from StartTime up to and including the horizon date derived from the
// pattern's duration, stepping 7 days (weekly), 14 days (biweekly) or one
// calendar month (monthly). Occurrences whose calendar date is listed in
// DeletedOccurrences are suppressed but still advance the cursor.
//
// Monthly steps use time.AddDate semantics: a series starting Jan 31 rolls
// over into early March because February has no day 31.
func Expand(entry Entry) []Occurrence {
	if !entry.IsRecurring || entry.RecurringPattern == nil {
		return []Occurrence{newOccurrence(entry, entry.StartTime, entry.EndTime)}
	}

	horizon := horizonEnd(entry.StartTime, entry.RecurringPattern)
	length := entry.EndTime.Sub(entry.StartTime)

	deleted := make(map[string]struct{}, len(entry.DeletedOccurrences))
	for _, d := range entry.DeletedOccurrences {
		deleted[dateKey(d)] = struct{}{}
	}

	occurrences := make([]Occurrence, 0, 16)
	cursor := entry.StartTime
	for !cursor.After(horizon) {
		if _, suppressed := deleted[dateKey(cursor)]; !suppressed {
			occurrences = append(occurrences, newOccurrence(entry, cursor, cursor.Add(length)))
			if len(occurrences) >= maxOccurrences {
				log.Warnf("expansion of entry %s truncated at %d occurrences", entry.Id, maxOccurrences)
				break
			}
		}

		next, ok := nextOccurrence(cursor, entry.RecurringPattern.Frequency)
		if !ok {
			// No step rule for an unrecognized frequency; the series ends
			// after the first occurrence instead of looping forever.
			log.Warnf("entry %s has unrecognized frequency %q, not expanding further",
				entry.Id, entry.RecurringPattern.Frequency)
			break
		}
		cursor = next
	}

	return occurrences
}

// horizonEnd computes the last date up to which occurrences are generated.
// An unrecognized duration falls back to six months; entries with such
// patterns are rejected at the service layer, so hitting the fallback means
// a validation gap upstream.
func horizonEnd(start time.Time, pattern *RecurringPattern) time.Time {
	switch pattern.Duration {
	case DurationThreeMonths:
		return start.AddDate(0, 3, 0)
	case DurationSixMonths:
		return start.AddDate(0, 6, 0)
	case DurationOneYear:
		return start.AddDate(1, 0, 0)
	case DurationCustom:
		custom := pattern.CustomDuration
		if custom <= 0 {
			custom = 3
		}
		if pattern.CustomDurationUnit == DurationUnitWeeks {
			return start.AddDate(0, 0, custom*7)
		}
		return start.AddDate(0, custom, 0)
	default:
		log.Warnf("unrecognized recurrence duration %q, falling back to 6 months", pattern.Duration)
		return start.AddDate(0, 6, 0)
	}
}

func nextOccurrence(cursor time.Time, frequency Frequency) (time.Time, bool) {
	switch frequency {
	case FrequencyWeekly:
		return cursor.AddDate(0, 0, 7), true
	case FrequencyBiweekly:
		// A flat 14-day step from the previous occurrence, not every other
		// weekly slot.
		return cursor.AddDate(0, 0, 14), true
	case FrequencyMonthly:
		return cursor.AddDate(0, 1, 0), true
	}
	return time.Time{}, false
}

func newOccurrence(entry Entry, start, end time.Time) Occurrence {
	snapshot := entry
	snapshot.StartTime = start
	snapshot.EndTime = end
	return Occurrence{
		Id:    fmt.Sprintf("%s-%d", entry.Id, start.UnixMilli()),
		Start: start,
		End:   end,
		Entry: snapshot,
	}
}

// dateKey reduces an instant to its calendar date in its own location,
// discarding time of day. Deletion markers and occurrence starts are both
// reduced this way before comparison.
func dateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}
