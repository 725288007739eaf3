package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	runBucketName  = "runs"
	hashBucketName = "run_hashes"
)

// ErrNotFound reports a run that is not in the registry. Callers that
// probe for previous runs need to tell absence apart from failure.
var ErrNotFound = errors.New("run not found")

// DB defines the interface for run registry operations
type DB interface {
	// SaveRun saves a run to the registry
	SaveRun(run *Run) error

	// GetRun retrieves a run by ID
	GetRun(id string) (*Run, error)

	// GetRunBySourceHash retrieves the run recorded for an input hash
	GetRunBySourceHash(hash string) (*Run, error)

	// ListRuns returns all runs
	ListRuns() ([]*Run, error)

	// DeleteRun removes a run from the registry
	DeleteRun(id string) error

	// Close closes the registry
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(hashBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveRun saves a run and indexes it by its source hash
func (b *BoltDB) SaveRun(run *Run) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshaling run: %w", err)
		}
		if err := tx.Bucket([]byte(runBucketName)).Put([]byte(run.ID), data); err != nil {
			return err
		}
		if run.SourceHash != "" {
			return tx.Bucket([]byte(hashBucketName)).Put([]byte(run.SourceHash), []byte(run.ID))
		}
		return nil
	})
}

// GetRun retrieves a run by ID
func (b *BoltDB) GetRun(id string) (*Run, error) {
	var run *Run
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(runBucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetRunBySourceHash retrieves the run recorded for an input hash
func (b *BoltDB) GetRunBySourceHash(hash string) (*Run, error) {
	var run *Run
	err := b.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(hashBucketName)).Get([]byte(hash))
		if id == nil {
			return fmt.Errorf("%w: hash %s", ErrNotFound, hash)
		}
		data := tx.Bucket([]byte(runBucketName)).Get(id)
		if data == nil {
			// Stale index entry, treat as absent
			return fmt.Errorf("%w: hash %s", ErrNotFound, hash)
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns all runs
func (b *BoltDB) ListRuns() ([]*Run, error) {
	runs := make([]*Run, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(runBucketName)).ForEach(func(k, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("unmarshaling run: %w", err)
			}
			runs = append(runs, &run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// DeleteRun removes a run and its hash index entry
func (b *BoltDB) DeleteRun(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(runBucketName))
		data := runs.Get([]byte(id))
		if data != nil {
			var run Run
			if err := json.Unmarshal(data, &run); err == nil && run.SourceHash != "" {
				hashes := tx.Bucket([]byte(hashBucketName))
				// Only drop the index entry if it still points at this run
				if string(hashes.Get([]byte(run.SourceHash))) == id {
					if err := hashes.Delete([]byte(run.SourceHash)); err != nil {
						return err
					}
				}
			}
		}
		return runs.Delete([]byte(id))
	})
}

// Close closes the registry
func (b *BoltDB) Close() error {
	return b.db.Close()
}
