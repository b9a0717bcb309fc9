package duty

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dutybot/internal/cache"
	"dutybot/internal/config"
)

// Friday.
var today = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func fixtureTask() *config.Task {
	return &config.Task{Name: "backend", SpreadsheetID: "sheet-1", Prefix: "dev", Channel: "backend-duty"}
}

func fixtureStore(t *testing.T) *cache.Store {
	t.Helper()
	store := cache.New([]*config.Task{fixtureTask()})
	cal := store.Calendar("sheet-1dev")
	cal.Set(2024, 3, 15, "Иванов")
	store.DutyDirectory("sheet-1")["Иванов"] = "ivan.ivanov"
	return store
}

func TestResolve(t *testing.T) {
	t.Run("resolves a duty name to a chat handle", func(t *testing.T) {
		out := Resolve(fixtureTask(), today, fixtureStore(t))
		assert.Equal(t, Resolved, out.Kind)
		assert.Equal(t, "ivan.ivanov", out.Handle)
	})

	t.Run("missing year", func(t *testing.T) {
		store := fixtureStore(t)
		out := Resolve(fixtureTask(), today.AddDate(1, 0, 0), store)
		require.Equal(t, Missing, out.Kind)
		assert.Contains(t, out.Reason, "no timetable for year")
		assert.False(t, out.SoftDayGap())
	})

	t.Run("missing calendar entry behaves as missing year", func(t *testing.T) {
		store := cache.New(nil)
		out := Resolve(fixtureTask(), today, store)
		require.Equal(t, Missing, out.Kind)
		assert.Contains(t, out.Reason, "no timetable for year")
	})

	t.Run("missing month", func(t *testing.T) {
		out := Resolve(fixtureTask(), today.AddDate(0, 1, 0), fixtureStore(t))
		require.Equal(t, Missing, out.Kind)
		assert.Contains(t, out.Reason, "no timetable for month")
	})

	t.Run("missing day is a soft gap", func(t *testing.T) {
		out := Resolve(fixtureTask(), today.AddDate(0, 0, 1), fixtureStore(t))
		require.Equal(t, Missing, out.Kind)
		assert.Contains(t, out.Reason, "no timetable for day")
		assert.True(t, out.SoftDayGap())
	})

	t.Run("explicit empty duty name is a holiday, not a miss", func(t *testing.T) {
		store := fixtureStore(t)
		store.Calendars["sheet-1dev"].Set(2024, 3, 15, "")
		out := Resolve(fixtureTask(), today, store)
		assert.Equal(t, NoDuty, out.Kind)
		assert.Empty(t, out.Reason)
	})

	t.Run("duty name absent from directory", func(t *testing.T) {
		store := fixtureStore(t)
		store.Calendars["sheet-1dev"].Set(2024, 3, 15, "Призрак")
		out := Resolve(fixtureTask(), today, store)
		require.Equal(t, Missing, out.Kind)
		assert.Contains(t, out.Reason, `user not found for name "Призрак"`)
	})

	t.Run("empty directory entirely", func(t *testing.T) {
		store := fixtureStore(t)
		delete(store.DutyNames, "sheet-1")
		out := Resolve(fixtureTask(), today, store)
		require.Equal(t, Missing, out.Kind)
		assert.Contains(t, out.Reason, "user not found")
	})
}

func TestShouldNotify(t *testing.T) {
	saturday := time.Date(2024, time.March, 16, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, time.March, 17, 10, 0, 0, 0, time.UTC)

	softGap := Outcome{Kind: Missing, Reason: "no timetable for day 16", softDayGap: true}
	hardMiss := Outcome{Kind: Missing, Reason: "no timetable for month 3"}

	assert.False(t, softGap.ShouldNotify(saturday), "weekend gaps are expected")
	assert.False(t, softGap.ShouldNotify(sunday))
	assert.True(t, softGap.ShouldNotify(today), "weekday gaps escalate")

	assert.True(t, hardMiss.ShouldNotify(saturday), "structural misses escalate even on weekends")

	assert.False(t, Outcome{Kind: Resolved}.ShouldNotify(today))
	assert.False(t, Outcome{Kind: NoDuty}.ShouldNotify(today))
}

func TestIsWeekend(t *testing.T) {
	assert.False(t, IsWeekend(today)) // Friday
	assert.True(t, IsWeekend(today.AddDate(0, 0, 1)))
	assert.True(t, IsWeekend(today.AddDate(0, 0, 2)))
	assert.False(t, IsWeekend(today.AddDate(0, 0, 3)))
}
