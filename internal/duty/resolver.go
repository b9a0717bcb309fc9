// Package duty resolves who is on duty for a task on a given day.
// Resolution is a pure function over the cache store; it performs no I/O
// and never mutates state.
package duty

import (
	"fmt"
	"strings"
	"time"

	"dutybot/internal/cache"
	"dutybot/internal/config"
)

// Kind classifies a resolution outcome.
type Kind int

const (
	// Resolved means a duty person was found and mapped to a chat handle.
	Resolved Kind = iota

	// NoDuty means the day exists in the calendar but intentionally has no
	// assignee (a holiday marker). Never escalated.
	NoDuty

	// Missing means required data is absent. Recoverable by design: the
	// task is considered handled for the day and may be escalated to the
	// admin channel.
	Missing
)

// Outcome is the result of resolving a task for a day.
type Outcome struct {
	Kind   Kind
	Handle string // chat handle, set only when Kind == Resolved
	Reason string // human-readable cause, set only when Kind == Missing

	softDayGap bool
}

// SoftDayGap reports whether the outcome is the "no data for this day" miss,
// which schedules commonly leave blank on weekends.
func (o Outcome) SoftDayGap() bool {
	return o.softDayGap
}

// ShouldNotify reports whether a Missing outcome warrants an admin
// notification for the given day. Soft day gaps on Saturday or Sunday are
// expected and suppressed; everything else Missing escalates.
func (o Outcome) ShouldNotify(today time.Time) bool {
	if o.Kind != Missing {
		return false
	}
	return !(o.softDayGap && IsWeekend(today))
}

// IsWeekend reports whether the day is an ISO weekday 6 or 7.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Resolve maps (task, today, caches) to the duty person's chat handle, a
// definitive "no duty today", or a data-missing outcome. Lookup order is
// strict: year, month, day, duty name, then the duty-name directory.
func Resolve(task *config.Task, today time.Time, store *cache.Store) Outcome {
	year, month, day := today.Date()

	cal := store.Calendars[task.TimetableHash()]
	months, ok := cal[year]
	if !ok {
		return missing(fmt.Sprintf("no timetable for year %d", year))
	}
	days, ok := months[int(month)]
	if !ok {
		return missing(fmt.Sprintf("no timetable for month %d", int(month)))
	}
	dutyName, ok := days[day]
	if !ok {
		out := missing(fmt.Sprintf("no timetable for day %d", day))
		out.softDayGap = true
		return out
	}

	if strings.TrimSpace(dutyName) == "" {
		return Outcome{Kind: NoDuty}
	}

	dir := store.DutyNames[task.UserSheetHash()]
	handle, ok := dir[dutyName]
	if !ok || handle == "" {
		return missing(fmt.Sprintf("user not found for name %q", dutyName))
	}

	return Outcome{Kind: Resolved, Handle: handle}
}

func missing(reason string) Outcome {
	return Outcome{Kind: Missing, Reason: reason}
}
