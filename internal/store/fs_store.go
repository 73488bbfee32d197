package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// FSStore keeps runs on disk under <baseDir>/runs/<id>/.
//
// Writes go through a temp file and a rename, so concurrent callers never
// observe a half-written run.json and no locking is needed.
type FSStore struct {
	baseDir string
}

// NewFSStore creates the base directory if needed.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// BaseDir returns the root directory of the store.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

// RunDir returns the directory holding the artifacts of one run.
func (fs *FSStore) RunDir(id string) string {
	return runDir(fs.baseDir, id)
}

func runDir(baseDir, id string) string {
	return filepath.Join(baseDir, "runs", id)
}

func (fs *FSStore) runPath(id string) string {
	return filepath.Join(fs.RunDir(id), "run.json")
}

// SaveRun validates and atomically writes run.json.
func (fs *FSStore) SaveRun(run *Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if err := run.Validate(); err != nil {
		return err
	}

	dir := fs.RunDir(run.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}

	finalPath := fs.runPath(run.ID)
	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp run file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename run file: %w", err)
	}

	slog.Debug("Run saved", "run_id", run.ID, "path", finalPath)
	return nil
}

// LoadRun reads run.json for the given ID.
func (fs *FSStore) LoadRun(id string) (*Run, error) {
	if id == "" {
		return nil, fmt.Errorf("run id cannot be empty")
	}

	data, err := os.ReadFile(fs.runPath(id))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to deserialize run: %w", err)
	}

	slog.Debug("Run loaded", "run_id", id)
	return &run, nil
}

// ListRuns returns summaries sorted newest first.
func (fs *FSStore) ListRuns() ([]RunInfo, error) {
	runsDir := filepath.Join(fs.baseDir, "runs")

	entries, err := os.ReadDir(runsDir)
	if os.IsNotExist(err) {
		return []RunInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	infos := []RunInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		if _, err := os.Stat(fs.runPath(id)); os.IsNotExist(err) {
			continue
		}
		run, err := fs.LoadRun(id)
		if err != nil {
			slog.Warn("Failed to load run for listing", "run_id", id, "error", err)
			continue
		}
		infos = append(infos, run.ToInfo())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.After(infos[j].Timestamp)
	})

	slog.Debug("Listed runs", "count", len(infos))
	return infos, nil
}

// DeleteRun removes the run directory and everything in it.
func (fs *FSStore) DeleteRun(id string) error {
	if id == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	dir := fs.RunDir(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &NotFoundError{ID: id}
	} else if err != nil {
		return fmt.Errorf("failed to stat run directory: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}

	slog.Debug("Run deleted", "run_id", id, "path", dir)
	return nil
}
