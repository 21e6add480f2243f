package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/wallet-analyzer/internal/errors"
	"github.com/wallet-analyzer/internal/models"
)

// FileStore persists each report as a pretty-printed JSON document in a
// directory, one file per address key.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageError("create reports directory", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(address string) string {
	return filepath.Join(s.dir, Key(address)+".json")
}

// Load reads a report file. Absence is not an error.
func (s *FileStore) Load(_ context.Context, address string) (*models.WalletReport, error) {
	data, err := os.ReadFile(s.path(address))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("read report", err)
	}

	var report models.WalletReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, apperrors.NewStorageError("decode report", err)
	}
	return &report, nil
}

// Save writes the report atomically: a temp file in the same directory is
// renamed over the target so readers never observe a partial document.
func (s *FileStore) Save(_ context.Context, report *models.WalletReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("encode report", err)
	}

	target := s.path(report.Address)
	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf(".%s-*.tmp", Key(report.Address)))
	if err != nil {
		return apperrors.NewStorageError("create temp report file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewStorageError("write temp report file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError("close temp report file", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError("replace report file", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
