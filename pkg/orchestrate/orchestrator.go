package orchestrate

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Sriram-PR/exrx-scraper/pkg/config"
	"github.com/Sriram-PR/exrx-scraper/pkg/fetch"
	"github.com/Sriram-PR/exrx-scraper/pkg/models"
	"github.com/Sriram-PR/exrx-scraper/pkg/progress"
	"github.com/Sriram-PR/exrx-scraper/pkg/scrape"
	"github.com/Sriram-PR/exrx-scraper/pkg/storage"
	"github.com/Sriram-PR/exrx-scraper/pkg/utils"
)

// PageFetcher retrieves one page. Failures are reported in the Result, never as a panic.
type PageFetcher interface {
	FetchDocument(ctx context.Context, rawURL string) fetch.Result
}

// Reporter receives stage milestones for console output
type Reporter interface {
	CategoriesFound(n int)
	ExercisesFound(n int)
	Saving(path string)
}

type nopReporter struct{}

func (nopReporter) CategoriesFound(int) {}
func (nopReporter) ExercisesFound(int)  {}
func (nopReporter) Saving(string)       {}

// Options holds the optional collaborators of an Orchestrator. Nil fields are disabled.
type Options struct {
	Progress progress.Sink
	Reporter Reporter
	Writer   storage.CatalogWriter
	Store    storage.StateStore
}

// Orchestrator runs the three pipeline stages and hands the catalog to the writer
type Orchestrator struct {
	cfg       *config.AppConfig
	fetcher   PageFetcher
	extractor *scrape.Extractor
	progress  progress.Sink
	reporter  Reporter
	writer    storage.CatalogWriter
	store     storage.StateStore
	log       *logrus.Entry
}

// NewOrchestrator creates an Orchestrator from a validated configuration
func NewOrchestrator(cfg *config.AppConfig, fetcher PageFetcher, opts Options, log *logrus.Entry) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: scrape.NewExtractor(cfg, log.WithField("component", "extractor")),
		progress:  opts.Progress,
		reporter:  opts.Reporter,
		writer:    opts.Writer,
		store:     opts.Store,
		log:       log,
	}
	if o.progress == nil {
		o.progress = progress.Nop{}
	}
	if o.reporter == nil {
		o.reporter = nopReporter{}
	}
	return o
}

// Run executes discovery, harvesting and detail extraction, then persists the catalog.
// Individual page failures never abort the run. An error is returned only when ctx ends
// (cancellation or the global timeout), in which case nothing is written.
func (o *Orchestrator) Run(ctx context.Context) (models.Catalog, models.RunRecord, error) {
	if o.cfg.GlobalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.GlobalTimeout)
		defer cancel()
	}

	record := models.RunRecord{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	runLog := o.log.WithField("run_id", record.RunID)
	runLog.Info("Starting catalog scrape")

	var failed atomic.Int32

	// Stage 1: categories
	dirResult := o.fetcher.FetchDocument(ctx, o.cfg.DirectoryURL)
	if err := ctx.Err(); err != nil {
		return nil, record, err
	}
	if dirResult.Failure() != nil {
		failed.Add(1)
	}
	categories := o.extractor.Categories(dirResult.Doc)
	record.Categories = len(categories)
	o.reporter.CategoriesFound(len(categories))
	runLog.Infof("Found %d muscle group categories", len(categories))

	// Stage 2: exercise links, all categories concurrently
	catalog, total, err := o.harvest(ctx, categories, &failed)
	if err != nil {
		return nil, record, err
	}
	record.Exercises = total
	o.reporter.ExercisesFound(total)
	runLog.Infof("Harvested %d free exercise links", total)

	for _, group := range catalog {
		record.Warnings = append(record.Warnings, group.Warnings...)
	}
	if len(categories) == 0 {
		record.Warnings = append(record.Warnings, fmt.Sprintf("%v: no categories found on %s", utils.ErrStructureMismatch, o.cfg.DirectoryURL))
	}

	// Stage 3: exercise details
	if err := o.fillDetails(ctx, catalog, total, record.RunID, &failed); err != nil {
		return nil, record, err
	}

	record.FailedFetches = int(failed.Load())
	o.persist(catalog, &record, runLog)
	record.FinishedAt = time.Now()
	o.saveState(catalog, &record, runLog)
	o.logSummary(record, runLog)

	return catalog, record, nil
}

// harvest fetches every category page and extracts its subsections.
// Groups keep discovery order regardless of completion order.
func (o *Orchestrator) harvest(ctx context.Context, categories []string, failed *atomic.Int32) (models.Catalog, int, error) {
	catalog := make(models.Catalog, len(categories))
	counts := make([]int, len(categories))

	var g errgroup.Group
	if o.cfg.HarvestConcurrency > 0 {
		g.SetLimit(o.cfg.HarvestConcurrency)
	}
	for i, categoryURL := range categories {
		g.Go(func() error {
			res := o.fetcher.FetchDocument(ctx, categoryURL)
			if err := ctx.Err(); err != nil {
				return err
			}
			if res.Failure() != nil {
				failed.Add(1)
			}
			catalog[i], counts[i] = o.extractor.HarvestLinks(res.Doc, categoryURL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return catalog, total, nil
}

// fillDetails fetches every exercise page and writes its detail into the matching slot.
// Tasks are launched in nested document order; with a limit of 1 each fetch finishes
// before the next one starts.
func (o *Orchestrator) fillDetails(ctx context.Context, catalog models.Catalog, total int, runID string, failed *atomic.Int32) error {
	o.progress.Start(total)
	defer o.progress.Stop()

	var g errgroup.Group
	g.SetLimit(max(o.cfg.DetailConcurrency, 1))

launch:
	for gi := range catalog {
		for mi := range catalog[gi].Muscles {
			muscle := &catalog[gi].Muscles[mi]
			for ei, exerciseURL := range muscle.ExerciseURLs {
				if ctx.Err() != nil {
					break launch
				}
				g.Go(func() error {
					res := o.fetcher.FetchDocument(ctx, exerciseURL)
					if err := ctx.Err(); err != nil {
						return err
					}
					if res.Failure() != nil {
						failed.Add(1)
					}
					muscle.Exercises[ei] = o.extractor.ExerciseDetail(res.Doc, exerciseURL)
					o.recordExercise(exerciseURL, runID, res)
					o.progress.Increment()
					return nil
				})
			}
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// recordExercise stores the fetch outcome in the state DB, if one is configured
func (o *Orchestrator) recordExercise(exerciseURL, runID string, res fetch.Result) {
	if o.store == nil {
		return
	}
	entry := &models.ExerciseDBEntry{
		Status:      models.ExerciseStatusSuccess,
		RunID:       runID,
		LastAttempt: time.Now(),
	}
	if err := res.Failure(); err != nil {
		entry.Status = models.ExerciseStatusFailure
		entry.ErrorType = utils.CategorizeError(err)
	}
	if err := o.store.RecordExercise(exerciseURL, entry); err != nil {
		o.log.WithField("url", exerciseURL).Warnf("Could not record exercise status: %v", err)
	}
}

// persist hands the catalog to the writer. Write failures are logged and otherwise ignored.
func (o *Orchestrator) persist(catalog models.Catalog, record *models.RunRecord, runLog *logrus.Entry) {
	if o.writer == nil {
		return
	}
	o.reporter.Saving(o.cfg.OutputPath())

	path, digest, err := o.writer.WriteCatalog(catalog)
	if err != nil {
		runLog.WithField("error_type", utils.CategorizeError(err)).Errorf("Saving catalog failed: %v", err)
		return
	}
	record.OutputPath = path
	record.OutputSHA256 = digest
}

// saveState stores the run record and catalog snapshot. Failures are logged only.
func (o *Orchestrator) saveState(catalog models.Catalog, record *models.RunRecord, runLog *logrus.Entry) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveCatalog(catalog); err != nil {
		runLog.Warnf("Could not store catalog snapshot: %v", err)
	}
	if err := o.store.SaveRun(record); err != nil {
		runLog.Warnf("Could not store run record: %v", err)
	}
}

// logSummary logs a summary of the run
func (o *Orchestrator) logSummary(record models.RunRecord, runLog *logrus.Entry) {
	runLog.Info("============================================")
	runLog.Infof("Catalog scrape completed in %v", record.FinishedAt.Sub(record.StartedAt).Round(time.Millisecond))
	runLog.Infof("  Muscle groups: %d", record.Categories)
	runLog.Infof("  Exercises:     %d", record.Exercises)
	runLog.Infof("  Failed pages:  %d", record.FailedFetches)
	if len(record.Warnings) > 0 {
		runLog.Warnf("  Structure warnings: %d", len(record.Warnings))
		for _, w := range record.Warnings {
			runLog.Warnf("    %s", w)
		}
	}
	if record.OutputPath != "" {
		runLog.Infof("  Output: %s (sha256 %s)", record.OutputPath, record.OutputSHA256)
	}
	runLog.Info("============================================")
}
