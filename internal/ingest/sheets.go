// Package ingest fills the cache store from the external collaborators.
// Each adapter gates on its cache's freshness window, so calling refresh
// every cycle is safe and bounds upstream call volume.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"dutybot/internal/cache"
	"dutybot/internal/config"
	"dutybot/internal/sheets"
	"dutybot/internal/snapshot"
)

const (
	// Calendar and duty-name data move slowly; half an hour is plenty.
	sheetFreshness = 30 * time.Minute

	// Chat directories are even more static.
	directoryFreshness = time.Hour

	// Upstream rate limits tolerate two overlapping fetches.
	fetchConcurrency = 2

	// Inter-page pause for cursor pagination.
	pageDelay = 3 * time.Second

	calendarRangeLimit = "A1:Z33"
	dutyRange          = "users!A1:V40"
)

// Sheets refreshes the calendar and duty-name caches from the tabular-data
// collaborator.
type Sheets struct {
	fetcher sheets.Fetcher
	store   *cache.Store
	snaps   snapshot.Store
	log     *slog.Logger

	now func() time.Time
}

// NewSheets creates the spreadsheet-side ingestion adapter.
func NewSheets(fetcher sheets.Fetcher, store *cache.Store, snaps snapshot.Store, log *slog.Logger) *Sheets {
	return &Sheets{
		fetcher: fetcher,
		store:   store,
		snaps:   snaps,
		log:     log,
		now:     time.Now,
	}
}

// RefreshCalendars updates the calendar cache for every unique timetable
// hash among enabled tasks. A no-op while the cache is fresh.
//
// On a mid-batch failure the cache may be left partially updated; entries
// for distinct hashes are independent, so that is accepted. The freshness
// stamp is only advanced when the whole batch succeeded.
func (s *Sheets) RefreshCalendars(ctx context.Context) error {
	if cache.Fresh(s.store.CalendarsUpdated, sheetFreshness, s.now()) {
		return nil
	}
	s.log.Debug("updating timetables")

	tasks := uniqueBy(s.store.Tasks, (*config.Task).TimetableHash)
	if err := s.fanOut(ctx, tasks, s.refreshCalendar); err != nil {
		return err
	}

	s.store.CalendarsUpdated = s.now()
	s.saveSnapshot(ctx, "timetables", s.store.Calendars)
	s.log.Info("timetables updated", "hashes", len(tasks))
	return nil
}

// RefreshDutyNames updates the duty-name directory for every unique
// user-sheet hash among enabled tasks.
func (s *Sheets) RefreshDutyNames(ctx context.Context) error {
	if cache.Fresh(s.store.DutyNamesUpdated, sheetFreshness, s.now()) {
		return nil
	}
	s.log.Debug("updating duty rosters")

	tasks := uniqueBy(s.store.Tasks, (*config.Task).UserSheetHash)
	if err := s.fanOut(ctx, tasks, s.refreshDutyNames); err != nil {
		return err
	}

	s.store.DutyNamesUpdated = s.now()
	s.saveSnapshot(ctx, "users", s.store.DutyNames)
	s.log.Info("duty rosters updated", "hashes", len(tasks))
	return nil
}

func (s *Sheets) refreshCalendar(ctx context.Context, task *config.Task) error {
	year := s.now().Year()
	rangeName := fmt.Sprintf("timetable_%s%d!%s", task.Prefix, year, calendarRangeLimit)

	rows, err := s.fetcher.FetchRange(ctx, task.SpreadsheetID, rangeName)
	if err != nil {
		return fmt.Errorf("calendar fetch for timetable '%s': %w", task.Name, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no calendar data in range %s for timetable '%s'", rangeName, task.Name)
	}

	parseCalendar(s.store.Calendar(task.TimetableHash()), year, rows)
	return nil
}

func (s *Sheets) refreshDutyNames(ctx context.Context, task *config.Task) error {
	rows, err := s.fetcher.FetchRange(ctx, task.SpreadsheetID, dutyRange)
	if err != nil {
		return fmt.Errorf("duty roster fetch for timetable '%s': %w", task.Name, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no duty roster data for timetable '%s'", task.Name)
	}

	parseDutyNames(s.store.DutyDirectory(task.UserSheetHash()), rows)
	return nil
}

// parseCalendar consumes transposed columns in (date, duty-name) pairs per
// month block, stopping at the first block whose header cell is empty.
// The first two cells of every column are the month header and the weekday
// header row; data starts below them. A date with an empty duty cell is a
// day not yet scheduled and is not recorded.
func parseCalendar(cal cache.Calendar, year int, rows [][]string) {
	if len(rows) <= 2 {
		return
	}
	cols := sheets.Transpose(rows)

	for block := 0; block*2+1 < len(cols); block++ {
		header := strings.TrimSpace(cols[block*2][0])
		if header == "" {
			break
		}
		month, err := strconv.Atoi(header)
		if err != nil {
			break
		}

		dateCol := cols[block*2][2:]
		dutyCol := cols[block*2+1][2:]
		for i, dateCell := range dateCol {
			day := strings.TrimSpace(dateCell)
			duty := strings.TrimSpace(dutyCol[i])
			if day == "" || duty == "" {
				continue
			}
			d, err := strconv.Atoi(day)
			if err != nil {
				continue
			}
			cal.Set(year, month, d, duty)
		}
	}
}

// parseDutyNames consumes (dutyName, chatHandle, optionalOwnerMarker) rows
// until the sentinel end-of-table: the first row missing either value.
// A third-column "owner" marker (case-insensitive) additionally records the
// row's handle under the reserved owner key.
func parseDutyNames(dir map[string]string, rows [][]string) {
	for _, row := range rows {
		var name, handle, marker string
		if len(row) > 0 {
			name = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			handle = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			marker = strings.TrimSpace(row[2])
		}

		if name == "" || handle == "" {
			break
		}
		dir[name] = handle
		if strings.EqualFold(marker, "owner") {
			dir[cache.OwnerKey] = handle
		}
	}
}

// fanOut runs fn for each task with bounded concurrency. Distinct hashes are
// independent, so failures do not cancel in-flight siblings; the first error
// is returned after all fetches settle.
func (s *Sheets) fanOut(ctx context.Context, tasks []*config.Task, fn func(context.Context, *config.Task) error) error {
	sem := make(chan struct{}, fetchConcurrency)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var firstErr error

	for _, task := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(task *config.Task) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := fn(ctx, task); err != nil {
				s.log.Error("sheet fetch failed", "task", task.Name, "error", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(task)
	}

	wg.Wait()
	return firstErr
}

func (s *Sheets) saveSnapshot(ctx context.Context, name string, v any) {
	if err := s.snaps.Save(ctx, name, v); err != nil {
		s.log.Warn("snapshot write failed", "name", name, "error", err)
	}
}

// uniqueBy returns enabled tasks deduplicated by the given hash, preserving
// configuration order. One fetch per unique hash.
func uniqueBy(tasks []*config.Task, key func(*config.Task) string) []*config.Task {
	seen := make(map[string]bool)
	var out []*config.Task
	for _, t := range tasks {
		if t.Disabled {
			continue
		}
		k := key(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}
