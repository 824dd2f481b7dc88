package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/exrx-scraper/pkg/config"
	"github.com/Sriram-PR/exrx-scraper/pkg/fetch"
	"github.com/Sriram-PR/exrx-scraper/pkg/models"
	"github.com/Sriram-PR/exrx-scraper/pkg/orchestrate"
	"github.com/Sriram-PR/exrx-scraper/pkg/progress"
	"github.com/Sriram-PR/exrx-scraper/pkg/storage"
	"github.com/Sriram-PR/exrx-scraper/pkg/utils"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scrape":
		runScrape(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "version":
		fmt.Printf("exrx-scraper %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `exrx-scraper - Exercise catalog scraper for exrx.net

Usage:
  exrx-scraper <command> [options]

Commands:
  scrape      Scrape the full exercise catalog
  status      Show the last recorded run and its failed pages
  validate    Validate configuration file
  version     Show version info

Run 'exrx-scraper <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.WrapErrorf(err, "read config")
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, utils.WrapErrorf(err, "parse config %s", path)
	}

	return &cfg, nil
}

// loadConfigOrDefault is loadConfig, except that a missing file yields the built-in defaults
func loadConfigOrDefault(path string, log *logrus.Logger) (*config.AppConfig, error) {
	cfg, err := loadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Infof("Config file %s not found, using built-in defaults", path)
		return &config.AppConfig{}, nil
	}
	return cfg, err
}

// newLogger creates the process logger on stderr at the requested level
func newLogger(levelName string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", levelName, err)
	} else {
		log.SetLevel(level)
	}
	return log
}

// runScrape handles the scrape subcommand
func runScrape(args []string) {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file (defaults are used if it does not exist)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	quiet := fs.Bool("quiet", false, "Suppress console narration and the progress bar")
	format := fs.String("format", "", "Output format override (json, yaml)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: exrx-scraper scrape [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  exrx-scraper scrape\n")
		fmt.Fprintf(os.Stderr, "  exrx-scraper scrape -config exrx.yaml -format yaml -quiet\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(executeScrape(*configFile, *logLevel, *format, *quiet))
}

// executeScrape runs one full pipeline. Returns the process exit code.
func executeScrape(configFile, logLevel, format string, quiet bool) int {
	log := newLogger(logLevel)

	appCfg, err := loadConfigOrDefault(configFile, log)
	if err != nil {
		log.Errorf("Config error: %v", err)
		return 1
	}
	if format != "" {
		appCfg.OutputFormat = format
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Errorf("Invalid configuration: %v", err)
		return 1
	}
	logAppConfig(appCfg, log)

	// --- Context & signal handling ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Stopping scrape, nothing will be saved...", sig)
		cancel()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	// --- Components ---
	entry := logrus.NewEntry(log)
	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, entry.WithField("component", "http"))

	var robots *fetch.RobotsGate
	if appCfg.RespectRobots {
		robots = fetch.NewRobotsGate(httpClient, entry.WithField("component", "robots"))
	}
	fetcher := fetch.NewFetcher(httpClient, appCfg.UserAgent, robots, entry.WithField("component", "fetcher"))
	fetcher.SetFailOnHTTPError(appCfg.FailOnHTTPError)

	opts := orchestrate.Options{
		Writer: storage.NewFileWriter(appCfg, entry.WithField("component", "writer")),
	}

	if appCfg.EnableStateDB {
		store, err := storage.NewBadgerStore(ctx, appCfg.StateDir, siteHost(appCfg), entry.WithField("component", "state"))
		if err != nil {
			log.Errorf("State database unavailable, continuing without it: %v", err)
		} else {
			defer store.Close()
			go store.RunGC(ctx, 10*time.Minute)
			opts.Store = store
		}
	}

	var con *console
	if !quiet {
		con = newConsole(os.Stdout)
		opts.Reporter = con
		opts.Progress = progress.NewBar(os.Stdout)
		con.Begin()
	}

	o := orchestrate.NewOrchestrator(appCfg, fetcher, opts, entry.WithField("component", "orchestrator"))
	_, record, err := o.Run(ctx)
	if err != nil {
		if con != nil {
			con.Failed(err)
		}
		log.WithField("error_type", utils.CategorizeError(err)).Errorf("Scrape aborted: %v", err)
		return 1
	}

	if con != nil {
		con.Done()
	}
	log.Infof("Run %s finished: %d exercises, %d failed pages", record.RunID, record.Exercises, record.FailedFetches)
	return 0
}

// logAppConfig logs the effective configuration at startup
func logAppConfig(cfg *config.AppConfig, log *logrus.Logger) {
	log.Info("--- Effective Configuration ---")
	log.Infof("Site root:           %s", cfg.SiteRoot)
	log.Infof("Directory page:      %s", cfg.DirectoryURL)
	log.Infof("Category base:       %s", cfg.ListBaseURL)
	log.Infof("Output:              %s (%s)", cfg.OutputPath(), cfg.OutputFormat)
	log.Infof("Detail concurrency:  %d", cfg.DetailConcurrency)
	if cfg.HarvestConcurrency > 0 {
		log.Infof("Harvest concurrency: %d", cfg.HarvestConcurrency)
	} else {
		log.Info("Harvest concurrency: unbounded")
	}
	log.Infof("Respect robots.txt:  %v", cfg.RespectRobots)
	log.Infof("Fail on HTTP error:  %v", cfg.FailOnHTTPError)
	if cfg.HTTPClientSettings.Timeout > 0 {
		log.Infof("Request timeout:     %v", cfg.HTTPClientSettings.Timeout)
	}
	log.Infof("State DB:            %v", cfg.EnableStateDB)
	if cfg.GlobalTimeout > 0 {
		log.Infof("Global timeout:      %v", cfg.GlobalTimeout)
	}
	log.Debugf("Selectors: %+v", cfg.Selectors)
	log.Info("-------------------------------")
}

// siteHost names the state database after the configured site
func siteHost(cfg *config.AppConfig) string {
	u, err := url.Parse(cfg.SiteRoot)
	if err != nil || u.Host == "" {
		return "site"
	}
	return u.Host
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: exrx-scraper validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doValidate(*configFile, os.Stdout, os.Stderr))
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "OK: %s -> %s\n", appCfg.DirectoryURL, appCfg.OutputPath())
	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runStatus handles the status subcommand
func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file (defaults are used if it does not exist)")
	logLevel := fs.String("loglevel", "warn", "Log level (debug, info, warn, error, fatal)")
	exerciseURL := fs.String("url", "", "Show the recorded fetch outcome of a single exercise page")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: exrx-scraper status [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := newLogger(*logLevel)
	appCfg, err := loadConfigOrDefault(*configFile, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(doStatus(appCfg, *exerciseURL, logrus.NewEntry(log), os.Stdout, os.Stderr))
}

// doStatus prints the last recorded run, the catalog it produced and the exercise pages it
// failed to fetch. With exerciseURL set it prints only that page's recorded outcome.
// Returns exit code (0 = success, 1 = error).
func doStatus(appCfg *config.AppConfig, exerciseURL string, log *logrus.Entry, stdout, stderr io.Writer) int {
	if _, err := appCfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	if appCfg.StateDir == "" {
		appCfg.StateDir = config.DefaultStateDir
	}
	if _, err := os.Stat(appCfg.StateDir); err != nil {
		fmt.Fprintf(stderr, "Error: state directory %s not found; runs are only recorded with enable_state_db\n", appCfg.StateDir)
		return 1
	}

	store, err := storage.NewBadgerStore(context.Background(), appCfg.StateDir, siteHost(appCfg), log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	if exerciseURL != "" {
		status, entry, err := store.CheckExercise(exerciseURL)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		renderExercise(stdout, exerciseURL, status, entry)
		return 0
	}

	record, err := store.LastRun()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if record == nil {
		fmt.Fprintln(stdout, "No runs recorded yet.")
		return 0
	}

	renderRun(stdout, record, store.KeyCount())

	snapshot, found, err := store.LastCatalog()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if found {
		renderCatalog(stdout, snapshot)
	}

	failed, err := store.ExercisesWithStatus(record.RunID, models.ExerciseStatusFailure)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(failed) == 0 {
		fmt.Fprintln(stdout, "No failed exercise pages.")
		return 0
	}
	renderFailures(stdout, failed)
	return 0
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderRun(out io.Writer, record *models.RunRecord, keys int) {
	t := newTable(out)
	t.SetTitle("Last run")
	t.AppendRows([]table.Row{
		{"Run ID", record.RunID},
		{"Started", record.StartedAt.Format(time.RFC3339)},
		{"Duration", record.FinishedAt.Sub(record.StartedAt).Round(time.Millisecond)},
		{"Muscle groups", record.Categories},
		{"Exercises", record.Exercises},
		{"Failed pages", record.FailedFetches},
		{"Output", record.OutputPath},
		{"SHA-256", record.OutputSHA256},
		{"State keys", keys},
	})
	if len(record.Warnings) > 0 {
		t.AppendRow(table.Row{"Warnings", strings.Join(record.Warnings, "\n")})
	}
	t.Render()
}

// renderCatalog summarises the stored catalog snapshot per muscle group
func renderCatalog(out io.Writer, catalog models.Catalog) {
	t := newTable(out)
	t.SetTitle("Stored catalog")
	t.AppendHeader(table.Row{"Muscle group", "Muscles", "Exercises"})
	muscles := 0
	for _, group := range catalog {
		name := group.MuscleGroup
		if name == "" {
			name = "(unnamed)"
		}
		t.AppendRow(table.Row{name, len(group.Muscles), group.ExerciseCount()})
		muscles += len(group.Muscles)
	}
	t.AppendFooter(table.Row{"Total", muscles, catalog.ExerciseCount()})
	t.Render()
}

func renderExercise(out io.Writer, exerciseURL string, status models.ExerciseStatus, entry *models.ExerciseDBEntry) {
	t := newTable(out)
	t.SetTitle("Exercise page")
	t.AppendRows([]table.Row{
		{"URL", exerciseURL},
		{"Status", status},
	})
	if entry != nil {
		t.AppendRows([]table.Row{
			{"Run ID", entry.RunID},
			{"Error", entry.ErrorType},
			{"Last attempt", entry.LastAttempt.Format(time.RFC3339)},
		})
	}
	t.Render()
}

func renderFailures(out io.Writer, failed []storage.ExerciseRecord) {
	t := newTable(out)
	t.SetTitle("Failed exercise pages")
	t.AppendHeader(table.Row{"URL", "Error", "Last attempt"})
	for _, rec := range failed {
		t.AppendRow(table.Row{rec.URL, rec.Entry.ErrorType, rec.Entry.LastAttempt.Format(time.RFC3339)})
	}
	t.Render()
}
