package config

import (
	"path/filepath"
	"time"
)

// Output formats accepted by output_format
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// AppConfig holds the application configuration for a catalog scrape
type AppConfig struct {
	SiteRoot           string           `yaml:"site_root"`                     // Absolute https root every relative exercise link is resolved against
	DirectoryURL       string           `yaml:"directory_url,omitempty"`       // Page listing all muscle-group categories
	ListBaseURL        string           `yaml:"list_base_url,omitempty"`       // Prefix for relative category hrefs
	UserAgent          string           `yaml:"user_agent,omitempty"`          // Empty = Go default
	OutputBaseDir      string           `yaml:"output_base_dir"`               // Directory the catalog file is written into
	OutputFilename     string           `yaml:"output_filename,omitempty"`     // Fixed name of the catalog file
	OutputFormat       string           `yaml:"output_format,omitempty"`       // "json" or "yaml"
	OutputIndent       bool             `yaml:"output_indent,omitempty"`       // Pretty-print JSON output
	DetailConcurrency  int              `yaml:"detail_concurrency,omitempty"`  // In-flight exercise page fetches (1 = strictly sequential)
	HarvestConcurrency int              `yaml:"harvest_concurrency,omitempty"` // In-flight category page fetches (0 = unbounded)
	RespectRobots      bool             `yaml:"respect_robots,omitempty"`      // Consult robots.txt before each fetch
	FailOnHTTPError    bool             `yaml:"fail_on_http_error,omitempty"`  // Treat non-2xx responses as failed fetches instead of parsing them
	EnableStateDB      bool             `yaml:"enable_state_db,omitempty"`     // Record run and fetch outcomes in a Badger DB
	StateDir           string           `yaml:"state_dir,omitempty"`           // Badger DB location
	GlobalTimeout      time.Duration    `yaml:"global_timeout,omitempty"`      // Whole-run deadline (0 = none)
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	Selectors          SelectorConfig   `yaml:"selectors,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout (0 = none)
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// SelectorConfig holds the CSS selectors describing the source site's page layout.
// Empty fields fall back to the defaults below.
type SelectorConfig struct {
	CategoryAnchors     string `yaml:"category_anchors,omitempty"`
	PageTitle           string `yaml:"page_title,omitempty"`
	SubsectionHeadings  string `yaml:"subsection_headings,omitempty"`
	SubsectionBlocks    string `yaml:"subsection_blocks,omitempty"`
	ExerciseAnchors     string `yaml:"exercise_anchors,omitempty"` // Relative to each subsection block
	MusclePanel         string `yaml:"muscle_panel,omitempty"`
	MuscleItems         string `yaml:"muscle_items,omitempty"` // Relative to the muscle panel
	ClassificationCells string `yaml:"classification_cells,omitempty"`
}

// Defaults matching the layout of exrx.net
const (
	DefaultSiteRoot       = "https://exrx.net"
	DefaultOutputFilename = "data"
	DefaultStateDir       = "./scraper_state"

	DefaultCategoryAnchors     = ".col-sm-6 > ul > li > a"
	DefaultPageTitle           = "h1.page-title"
	DefaultSubsectionHeadings  = ".container h2"
	DefaultSubsectionBlocks    = "article .container:has(ul)"
	DefaultExerciseAnchors     = "li:not(.premium) > a"
	DefaultMusclePanel         = ".ad-banner-block .col-sm-6:last-of-type"
	DefaultMuscleItems         = "ul:first-of-type li"
	DefaultClassificationCells = ".ad-banner-block .col-sm-6:first-of-type table td:nth-of-type(even)"
)

// Default returns a validated configuration reproducing a plain run against exrx.net
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.Validate() // Defaults never fail validation
	return cfg
}

// OutputPath returns the full path of the catalog file
func (c *AppConfig) OutputPath() string {
	return filepath.Join(c.OutputBaseDir, c.OutputFilename)
}
