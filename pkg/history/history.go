// Package history persists transformation records for external review. The
// pipeline core never writes history itself; callers package records after
// a run completes.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Record captures one transformation run, successful or failed.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	UnitID      string    `json:"unit_id"`
	UnitName    string    `json:"unit_name"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	Instruction string    `json:"instruction,omitempty"`
	Input       string    `json:"input"`
	Output      string    `json:"output,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

// Store appends records to a JSON-lines file.
type Store struct {
	path string
}

// NewStore creates a store writing to the given file path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// DefaultStore creates a store under ~/.clipflow/history.jsonl.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(home, ".clipflow", "history.jsonl"))
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Append writes one record.
func (s *Store) Append(record Record) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// Recent returns the last n records, oldest first. Undecodable lines are
// skipped.
func (s *Store) Recent(n int) ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// Clear removes the history file.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
