package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dutybot/internal/timespec"
)

const defaultUpdateIntervalMinutes = 5

// Config represents the top-level dutybot.yml configuration.
// Credentials never live in the file; they are overlaid from the environment
// by Load (SLACK_TOKEN, SHEETS_TOKEN, REDIS_URL).
type Config struct {
	UpdateInterval int              `yaml:"update_interval,omitempty"` // minutes between cycles, default 5
	Admin          string           `yaml:"admin,omitempty"`           // chat handle for anomaly notifications
	Snapshots      *SnapshotsConfig `yaml:"snapshots,omitempty"`
	Timetables     []*Task          `yaml:"timetables"`

	SlackToken  string `yaml:"-"`
	SheetsToken string `yaml:"-"`
	RedisURL    string `yaml:"-"`
}

// SnapshotsConfig selects where diagnostic cache snapshots are written.
// When Dir is empty and REDIS_URL is unset, snapshots are discarded.
type SnapshotsConfig struct {
	Dir string `yaml:"dir,omitempty"` // directory of <name>.json files
}

// Task binds one rotation spreadsheet to one chat conversation.
type Task struct {
	Name          string             `yaml:"name"`
	SpreadsheetID string             `yaml:"spreadsheet_id"`
	Prefix        string             `yaml:"prefix,omitempty"`
	Channel       string             `yaml:"channel"`   // conversation name, resolved via the conversation directory
	DevIndex      int                `yaml:"dev_index"` // zero-based position of the target mention in the topic
	UpdateTime    timespec.TimeOfDay `yaml:"update_time"`
	Disabled      bool               `yaml:"disabled,omitempty"`

	// LastUpdate is stamped by the topic synchronizer after each cycle in
	// which the task was processed. Never persisted.
	LastUpdate time.Time `yaml:"-"`
}

// TimetableHash identifies the task's calendar data: tasks sharing a
// spreadsheet and prefix share one calendar fetch per cycle.
func (t *Task) TimetableHash() string {
	return t.SpreadsheetID + t.Prefix
}

// UserSheetHash identifies the task's duty-name roster: all tasks on the
// same spreadsheet share one roster regardless of prefix.
func (t *Task) UserSheetHash() string {
	return t.SpreadsheetID
}

// Validate performs strict validation on the configuration and applies
// defaults.
func (c *Config) Validate() error {
	if len(c.Timetables) == 0 {
		return fmt.Errorf("no timetables defined")
	}

	namesSeen := make(map[string]bool)
	for i, task := range c.Timetables {
		if err := task.Validate(i); err != nil {
			return err
		}
		if namesSeen[task.Name] {
			return fmt.Errorf("duplicate timetable name '%s'", task.Name)
		}
		namesSeen[task.Name] = true
	}

	if c.UpdateInterval == 0 {
		c.UpdateInterval = defaultUpdateIntervalMinutes
	}
	if c.UpdateInterval < 0 {
		return fmt.Errorf("update_interval must be positive, got %d", c.UpdateInterval)
	}

	return nil
}

// Validate performs validation on a single timetable entry.
func (t *Task) Validate(index int) error {
	if t.Name == "" {
		return fmt.Errorf("timetable %d: name is required", index)
	}
	if t.SpreadsheetID == "" {
		return fmt.Errorf("timetable '%s': spreadsheet_id is required", t.Name)
	}
	if t.Channel == "" {
		return fmt.Errorf("timetable '%s': channel is required", t.Name)
	}
	// Midnight is indistinguishable from unset, so an explicit update_time
	// is required; without this check an omitted field would silently make
	// the task due at the first cycle after midnight.
	if t.UpdateTime.IsZero() {
		return fmt.Errorf("timetable '%s': update_time is required", t.Name)
	}
	if t.DevIndex < 0 {
		return fmt.Errorf("timetable '%s': dev_index must be >= 0, got %d", t.Name, t.DevIndex)
	}
	return nil
}

// Interval returns the cycle period as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.UpdateInterval) * time.Minute
}

// EnabledTasks returns the tasks that participate in ingestion and topic
// synchronization. Disabled tasks are invisible to both.
func (c *Config) EnabledTasks() []*Task {
	var tasks []*Task
	for _, t := range c.Timetables {
		if !t.Disabled {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// Load reads dutybot.yml from the specified path, overlays credentials from
// the environment and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.SlackToken = os.Getenv("SLACK_TOKEN")
	config.SheetsToken = os.Getenv("SHEETS_TOKEN")
	config.RedisURL = os.Getenv("REDIS_URL")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
