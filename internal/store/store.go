package store

// Store persists finished descent runs.
// Implementations must be safe for concurrent use.
//
// Load and Delete return ErrNotFound for unknown IDs; other failures are
// wrapped with fmt.Errorf("context: %w", err).
type Store interface {
	// SaveRun writes the run under run.ID, replacing any previous copy.
	// Writes are atomic (temp file + rename).
	SaveRun(run *Run) error

	// LoadRun reads the run with the given ID.
	LoadRun(id string) (*Run, error)

	// ListRuns returns summaries of every readable run. Unreadable run
	// directories are skipped.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the run and all of its artifacts (run.json,
	// trace.jsonl).
	DeleteRun(id string) error
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return "run not found: " + e.ID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
