// Package cache holds the process-wide mutable state of the reconciliation
// engine: the four ingestion caches, the pending-topic-write buffer and the
// task list. The store is created once at startup and passed explicitly into
// every component that reads or writes it.
//
// Ownership discipline: each cache is mutated by exactly one logical owner
// (its ingestion adapter, or the topic synchronizer for PendingTopics), and
// the engine never runs two mutations of the same cache concurrently, so the
// store carries no locks.
package cache

import (
	"time"

	"dutybot/internal/config"
)

// OwnerKey is the reserved duty-name directory key under which the roster's
// owner alias is recorded.
const OwnerKey = "owner"

// Calendar is a sparse year → month → day-of-month → duty-name mapping.
// A missing key at any level means "no data for that period", which is
// distinct from a present day with an empty duty name (an explicit holiday).
type Calendar map[int]map[int]map[int]string

// Set records a duty name for a date, creating intermediate levels as needed.
func (c Calendar) Set(year int, month int, day int, dutyName string) {
	months, ok := c[year]
	if !ok {
		months = make(map[int]map[int]string)
		c[year] = months
	}
	days, ok := months[month]
	if !ok {
		days = make(map[int]string)
		months[month] = days
	}
	days[day] = dutyName
}

// Store is the cache context shared by the ingestion adapters and the topic
// synchronizer.
type Store struct {
	// Calendars maps timetable hash → calendar data.
	Calendars        map[string]Calendar
	CalendarsUpdated time.Time

	// DutyNames maps user-sheet hash → (duty name → chat handle).
	DutyNames        map[string]map[string]string
	DutyNamesUpdated time.Time

	// ChatUsers maps chat handle (display name) → chat user id.
	// Rebuilt wholesale on refresh so deactivated accounts drop out.
	ChatUsers        map[string]string
	ChatUsersUpdated time.Time

	// Conversations maps conversation name → channel id.
	Conversations        map[string]string
	ConversationsUpdated time.Time

	// PendingTopics maps conversation name → proposed new topic text,
	// staged during a cycle and drained by the commit pass.
	PendingTopics map[string]string

	// Tasks is the full configured task list, including disabled entries.
	Tasks []*config.Task
}

// New creates an empty store for the given task list.
func New(tasks []*config.Task) *Store {
	return &Store{
		Calendars:     make(map[string]Calendar),
		DutyNames:     make(map[string]map[string]string),
		ChatUsers:     make(map[string]string),
		Conversations: make(map[string]string),
		PendingTopics: make(map[string]string),
		Tasks:         tasks,
	}
}

// Calendar returns the calendar for a timetable hash, creating it if absent.
func (s *Store) Calendar(hash string) Calendar {
	cal, ok := s.Calendars[hash]
	if !ok {
		cal = make(Calendar)
		s.Calendars[hash] = cal
	}
	return cal
}

// DutyDirectory returns the duty-name directory for a user-sheet hash,
// creating it if absent.
func (s *Store) DutyDirectory(hash string) map[string]string {
	dir, ok := s.DutyNames[hash]
	if !ok {
		dir = make(map[string]string)
		s.DutyNames[hash] = dir
	}
	return dir
}

// ClearPending drops all staged topic writes so nothing bleeds into the
// next cycle.
func (s *Store) ClearPending() {
	s.PendingTopics = make(map[string]string)
}

// Fresh reports whether a cache stamped at lastUpdate is still within its
// freshness window at the given moment.
func Fresh(lastUpdate time.Time, window time.Duration, now time.Time) bool {
	if lastUpdate.IsZero() {
		return false
	}
	return lastUpdate.After(now.Add(-window))
}
