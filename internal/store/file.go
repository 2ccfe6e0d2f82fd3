package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Kavirubc/gitscout/pkg/models"
)

// FileStore keeps the state as one JSON document
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the state. A missing file is replaced by a persisted default.
func (f *FileStore) Load(ctx context.Context) (*models.State, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		s := models.NewState()
		if err := f.Save(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	r, err := parseRecord(data)
	if err != nil {
		return nil, err
	}
	return fromRecord(r), nil
}

func parseRecord(data []byte) (record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return record{}, fmt.Errorf("failed to parse state file: %w", err)
	}
	return r, nil
}

// onDiskSeen returns the seen ids of the current record. A missing or
// unparsable file has none.
func (f *FileStore) onDiskSeen() ([]int64, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	r, err := parseRecord(data)
	if err != nil {
		return nil, nil
	}
	return r.KnownIssueIDs, nil
}

// Save writes the state to a temp file in the same directory and renames it
// over the previous record. Seen ids already on disk are kept, so a writer
// holding an older copy (another process, a CLI toggle) never drops ids
// committed since it loaded.
func (f *FileStore) Save(_ context.Context, s *models.State) error {
	rec := toRecord(s)
	onDisk, err := f.onDiskSeen()
	if err != nil {
		return err
	}
	rec.KnownIssueIDs = mergeIDs(rec.KnownIssueIDs, onDisk)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close state: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save
func (f *FileStore) Close() error {
	return nil
}
