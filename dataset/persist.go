package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"sales-dashboard/errors"
)

// PersistedFileName is the fixed name of the fallback file inside the data dir.
const PersistedFileName = "current_data.csv"

// FilePersister stores the dataset as a single CSV file.
type FilePersister struct {
	Path string
}

func NewFilePersister(dir string) *FilePersister {
	return &FilePersister{Path: filepath.Join(dir, PersistedFileName)}
}

func (p *FilePersister) Save(_ context.Context, f *Frame) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p.Path), ".upload-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := f.WriteCSV(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.Path); err != nil {
		return fmt.Errorf("replace dataset file: %w", err)
	}
	return nil
}

func (p *FilePersister) Load(_ context.Context) (*Frame, error) {
	file, err := os.Open(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}
