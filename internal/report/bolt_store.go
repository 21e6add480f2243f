package report

import (
	"context"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	apperrors "github.com/wallet-analyzer/internal/errors"
	"github.com/wallet-analyzer/internal/models"
)

var reportsBucket = []byte("reports")

// BoltStore persists reports in a single-file bbolt database. Writes are
// transactional, which gives the same all-or-nothing guarantee as the file
// store's rename.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database and ensures the reports
// bucket exists.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, apperrors.NewStorageError("open report database", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(reportsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("create reports bucket", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load(_ context.Context, address string) (*models.WalletReport, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(reportsBucket).Get([]byte(Key(address))); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStorageError("read report", err)
	}
	if data == nil {
		return nil, nil
	}

	var report models.WalletReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, apperrors.NewStorageError("decode report", err)
	}
	return &report, nil
}

func (s *BoltStore) Save(_ context.Context, report *models.WalletReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return apperrors.NewStorageError("encode report", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(reportsBucket).Put([]byte(Key(report.Address)), data)
	})
	if err != nil {
		return apperrors.NewStorageError("write report", err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
