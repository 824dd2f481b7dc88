package storage

import (
	"context"
	"time"

	"github.com/Sriram-PR/exrx-scraper/pkg/models"
)

// CatalogWriter persists the finished catalog as a single document
type CatalogWriter interface {
	// WriteCatalog serialises and writes the catalog.
	// Returns the path written and the SHA-256 digest of the bytes written.
	WriteCatalog(catalog models.Catalog) (path string, digest string, err error)
}

// ExerciseStore records the outcome of each exercise page fetch
type ExerciseStore interface {
	// RecordExercise stores the latest fetch outcome for an exercise URL
	RecordExercise(exerciseURL string, entry *models.ExerciseDBEntry) error

	// CheckExercise retrieves the stored outcome for an exercise URL
	// Returns ExerciseStatusNotFound when nothing was recorded, ExerciseStatusDBError on DB failure
	CheckExercise(exerciseURL string) (status models.ExerciseStatus, entry *models.ExerciseDBEntry, err error)

	// ExercisesWithStatus lists the exercises recorded by runID with the given status, ordered by URL
	ExercisesWithStatus(runID string, status models.ExerciseStatus) ([]ExerciseRecord, error)
}

// RunStore keeps run summaries and the last catalog snapshot
type RunStore interface {
	// SaveRun stores a run record and marks it as the latest run
	SaveRun(record *models.RunRecord) error

	// LastRun returns the latest run record, or nil if no run was recorded
	LastRun() (*models.RunRecord, error)

	// SaveCatalog replaces the stored catalog snapshot
	SaveCatalog(catalog models.Catalog) error

	// LastCatalog returns the stored catalog snapshot and whether one exists
	LastCatalog() (models.Catalog, bool, error)
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// KeyCount returns the number of keys written through this store since it was opened, plus those found on open
	KeyCount() int

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// StateStore combines all store interfaces for components that need full access
type StateStore interface {
	ExerciseStore
	RunStore
	StoreAdmin
}

// ExerciseRecord pairs an exercise URL with its stored outcome
type ExerciseRecord struct {
	URL   string
	Entry models.ExerciseDBEntry
}
