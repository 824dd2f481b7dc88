package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/exrx-scraper/pkg/log"
	"github.com/Sriram-PR/exrx-scraper/pkg/models"
	"github.com/Sriram-PR/exrx-scraper/pkg/utils"
)

const (
	exerciseKeyPrefix = "ex:"           // Prefix for exercise URL keys
	runKeyPrefix      = "run:"          // Prefix for run records, keyed by run ID
	lastRunKey        = "meta:last_run" // Holds the ID of the latest run
	lastCatalogKey    = "catalog:last"  // Holds the latest catalog snapshot
	stateDBDir        = "state_db"      // Subdirectory name within stateDir for Badger DB files
)

// BadgerStore implements the StateStore interface using BadgerDB.
// State accumulates across runs; nothing in it is used to skip or resume work.
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	ctx      context.Context // Parent context, checked during scans
	keyCount atomic.Int64
}

// NewBadgerStore opens (or creates) the state database for siteHost under stateDir
func NewBadgerStore(ctx context.Context, stateDir, siteHost string, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{
		log: logger,
		ctx: ctx,
	}

	dbPath := filepath.Join(stateDir, utils.SanitizeFilename(siteHost)+"_"+stateDBDir)
	logger.Infof("Opening state database at: %s", dbPath)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(log.NewBadgerAdapter(logger.WithField("component", "badgerdb"))).
		WithNumVersionsToKeep(1)

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	count, err := store.countKeys()
	if err != nil {
		logger.Warnf("Failed to count existing keys: %v", err)
	} else {
		store.keyCount.Store(int64(count))
		logger.Debugf("State database holds %d keys", count)
	}
	return store, nil
}

// countKeys performs a one-time full key scan (used only when opening)
func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Conflicting MVCC transactions resolve in microseconds, so a tight loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// setJSON marshals value and stores it under key, counting newly created keys
func (s *BadgerStore) setJSON(key string, value any) error {
	if s.db == nil || s.db.IsClosed() {
		return fmt.Errorf("%w: state database not open", utils.ErrDatabase)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: marshal value for key '%s': %w", utils.ErrParsing, key, err)
	}

	isNew := false
	err = s.dbUpdate(func(txn *badger.Txn) error {
		if _, errGet := txn.Get([]byte(key)); errors.Is(errGet, badger.ErrKeyNotFound) {
			isNew = true
		}
		return txn.SetEntry(badger.NewEntry([]byte(key), data))
	})
	if err != nil {
		s.log.WithField("key", key).Errorf("DB Update error: %v", err)
		return fmt.Errorf("%w: setting key '%s': %w", utils.ErrDatabase, key, err)
	}
	if isNew {
		s.keyCount.Add(1)
	}
	return nil
}

// getJSON loads the value under key into dst. Returns false if the key does not exist.
func (s *BadgerStore) getJSON(key string, dst any) (bool, error) {
	if s.db == nil || s.db.IsClosed() {
		return false, fmt.Errorf("%w: state database not open", utils.ErrDatabase)
	}
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get([]byte(key))
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: getting key '%s': %w", utils.ErrDatabase, key, errGet)
		}
		return item.Value(func(val []byte) error {
			if errJSON := json.Unmarshal(val, dst); errJSON != nil {
				return fmt.Errorf("%w: decoding key '%s': %w", utils.ErrParsing, key, errJSON)
			}
			found = true
			return nil
		})
	})
	return found, err
}

// RecordExercise implements the ExerciseStore interface
func (s *BadgerStore) RecordExercise(exerciseURL string, entry *models.ExerciseDBEntry) error {
	if err := s.setJSON(exerciseKeyPrefix+exerciseURL, entry); err != nil {
		return err
	}
	s.log.Debugf("Recorded status '%s' for %s", entry.Status, exerciseURL)
	return nil
}

// CheckExercise implements the ExerciseStore interface
func (s *BadgerStore) CheckExercise(exerciseURL string) (models.ExerciseStatus, *models.ExerciseDBEntry, error) {
	var entry models.ExerciseDBEntry
	found, err := s.getJSON(exerciseKeyPrefix+exerciseURL, &entry)
	if err != nil {
		if errors.Is(err, utils.ErrParsing) {
			s.log.Warnf("Unreadable entry for %s, treating as not found: %v", exerciseURL, err)
			return models.ExerciseStatusNotFound, nil, nil
		}
		s.log.Errorf("DB View error in CheckExercise for %s: %v", exerciseURL, err)
		return models.ExerciseStatusDBError, nil, err
	}
	if !found {
		return models.ExerciseStatusNotFound, nil, nil
	}
	return entry.Status, &entry, nil
}

// ExercisesWithStatus implements the ExerciseStore interface
func (s *BadgerStore) ExercisesWithStatus(runID string, status models.ExerciseStatus) ([]ExerciseRecord, error) {
	var records []ExerciseRecord
	scanErrors := 0

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(exerciseKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-s.ctx.Done():
				return s.ctx.Err()
			default:
			}

			item := it.Item()
			exerciseURL := string(item.KeyCopy(nil)[len(prefix):])
			errValue := item.Value(func(val []byte) error {
				var entry models.ExerciseDBEntry
				if errJSON := json.Unmarshal(val, &entry); errJSON != nil {
					s.log.Warnf("Skipping unreadable entry for %s: %v", exerciseURL, errJSON)
					scanErrors++
					return nil
				}
				if entry.RunID == runID && entry.Status == status {
					records = append(records, ExerciseRecord{URL: exerciseURL, Entry: entry})
				}
				return nil
			})
			if errValue != nil {
				return errValue
			}
		}
		return nil
	})
	if err != nil {
		return records, fmt.Errorf("%w: scanning exercise entries: %w", utils.ErrDatabase, err)
	}
	if scanErrors > 0 {
		s.log.Warnf("Exercise scan finished with %d unreadable entries", scanErrors)
	}
	return records, nil
}

// SaveRun implements the RunStore interface
func (s *BadgerStore) SaveRun(record *models.RunRecord) error {
	if record.RunID == "" {
		return fmt.Errorf("%w: run record without ID", utils.ErrDatabase)
	}
	if err := s.setJSON(runKeyPrefix+record.RunID, record); err != nil {
		return err
	}
	if err := s.setJSON(lastRunKey, record.RunID); err != nil {
		return err
	}
	s.log.Infof("Saved run record %s", record.RunID)
	return nil
}

// LastRun implements the RunStore interface
func (s *BadgerStore) LastRun() (*models.RunRecord, error) {
	var runID string
	found, err := s.getJSON(lastRunKey, &runID)
	if err != nil || !found {
		return nil, err
	}

	var record models.RunRecord
	found, err = s.getJSON(runKeyPrefix+runID, &record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: latest run %s has no record", utils.ErrDatabase, runID)
	}
	return &record, nil
}

// SaveCatalog implements the RunStore interface
func (s *BadgerStore) SaveCatalog(catalog models.Catalog) error {
	return s.setJSON(lastCatalogKey, catalog)
}

// LastCatalog implements the RunStore interface
func (s *BadgerStore) LastCatalog() (models.Catalog, bool, error) {
	var catalog models.Catalog
	found, err := s.getJSON(lastCatalogKey, &catalog)
	return catalog, found, err
}

// KeyCount implements the StoreAdmin interface
func (s *BadgerStore) KeyCount() int {
	return int(s.keyCount.Load())
}

// RunGC runs BadgerDB's value log garbage collection periodically until ctx is done
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Debug("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				s.log.Debug("DB GC: Database is closed, skipping GC cycle.")
				continue
			}

			var err error
			for {
				// Rewrite while at least half of a value log file is reclaimable
				if err = s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB GC goroutine: %v", ctx.Err())
			return
		}
	}
}

// Close implements the StoreAdmin interface. Safe to call more than once.
func (s *BadgerStore) Close() error {
	if s.db == nil || s.db.IsClosed() {
		return nil
	}
	if err := s.db.Close(); err != nil {
		s.log.Errorf("Error closing state DB: %v", err)
		return fmt.Errorf("%w: closing state DB: %w", utils.ErrDatabase, err)
	}
	s.log.Info("State DB closed.")
	return nil
}
