package timespec

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeOfDay is a wall-clock time within an arbitrary day, used for the
// per-task update threshold. The zero value means "not set".
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Parse parses a time-of-day specification.
// Supports two formats:
//   - "HH:MM:SS" (e.g. "17:54:30")
//   - "HH:MM" (seconds default to zero)
func Parse(spec string) (TimeOfDay, error) {
	if spec == "" {
		return TimeOfDay{}, fmt.Errorf("empty time specification")
	}

	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, spec); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}

	return TimeOfDay{}, fmt.Errorf("invalid time specification: %s (use 'HH:MM:SS' like '17:54:30')", spec)
}

// On projects the time-of-day onto the calendar day of the given moment,
// in that moment's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, t.Second, 0, day.Location())
}

// IsZero reports whether the time-of-day was never set.
// Midnight ("00:00:00") is indistinguishable from unset, so configs must
// specify an explicit update_time for every timetable.
func (t TimeOfDay) IsZero() bool {
	return t.Hour == 0 && t.Minute == 0 && t.Second == 0
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// UnmarshalYAML parses a TimeOfDay from a scalar YAML node.
func (t *TimeOfDay) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}

	parsed, err := Parse(raw)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}
