package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir stores snapshots as <name>.json files in a local directory.
type Dir struct {
	dir string
}

// NewDir creates a directory-backed snapshot store, creating the directory
// if it does not exist.
func NewDir(dir string) (*Dir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Dir{dir: dir}, nil
}

func (d *Dir) path(name string) string {
	return filepath.Join(d.dir, name+".json")
}

func (d *Dir) Save(_ context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "   ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot %s: %w", name, err)
	}
	if err := os.WriteFile(d.path(name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	return nil
}

func (d *Dir) Load(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(d.path(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("snapshot %s: %w", name, errNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}
	return data, nil
}

func (d *Dir) Names(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
