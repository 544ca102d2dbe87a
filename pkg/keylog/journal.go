package keylog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimeLayout is the second-resolution timestamp written at the start of each journal line.
const TimeLayout = "2006-01-02 15:04:05"

// Journal is an append-only line file. Appends are serialized; a failed write
// drops the handle so the next append reopens the file.
type Journal struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// OpenJournal prepares a journal at path and ensures the file exists. The journal is
// returned even when the file cannot be created so callers can keep retrying on append.
func OpenJournal(path string) (*Journal, error) {
	j := &Journal{path: path}
	if err := Touch(path); err != nil {
		return j, err
	}
	return j, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string { return j.path }

// Append writes "[timestamp] message" as a single line.
func (j *Journal) Append(ts time.Time, message string) error {
	line := fmt.Sprintf("[%s] %s\n", ts.Format(TimeLayout), message)

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		file, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open journal %s: %w", j.path, err)
		}
		j.file = file
	}
	if _, err := j.file.WriteString(line); err != nil {
		_ = j.file.Close()
		j.file = nil
		return fmt.Errorf("append journal %s: %w", j.path, err)
	}
	return nil
}

// Close releases the open handle, if any.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// Touch creates an empty file at path when it does not exist yet.
func Touch(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return file.Close()
}
