package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"

	"github.com/Sriram-PR/exrx-scraper/pkg/parse"
	"github.com/Sriram-PR/exrx-scraper/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// SiteRoot
	if c.SiteRoot == "" {
		c.SiteRoot = DefaultSiteRoot
	}
	root, err := canonicalHTTPSURL(c.SiteRoot, "site_root")
	if err != nil {
		return warnings, err
	}
	c.SiteRoot = root

	// DirectoryURL
	if c.DirectoryURL == "" {
		c.DirectoryURL = c.SiteRoot + "/Lists/Directory"
	} else if _, _, errParse := parse.ParseAndNormalize(c.DirectoryURL); errParse != nil {
		return warnings, fmt.Errorf("%w: invalid directory_url '%s': %v", utils.ErrConfigValidation, c.DirectoryURL, errParse)
	}

	// ListBaseURL keeps its trailing slash since hrefs are appended verbatim
	if c.ListBaseURL == "" {
		c.ListBaseURL = c.SiteRoot + "/Lists/"
	} else if !strings.HasSuffix(c.ListBaseURL, "/") {
		warnings = append(warnings, fmt.Sprintf("list_base_url '%s' has no trailing slash, appending one", c.ListBaseURL))
		c.ListBaseURL += "/"
	}

	// OutputFormat
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	switch c.OutputFormat {
	case "":
		c.OutputFormat = FormatJSON
	case FormatJSON, FormatYAML:
	default:
		return warnings, fmt.Errorf("%w: output_format must be '%s' or '%s', got '%s'",
			utils.ErrConfigValidation, FormatJSON, FormatYAML, c.OutputFormat)
	}

	// OutputBaseDir
	if c.OutputBaseDir == "" {
		c.OutputBaseDir = "."
	}

	// OutputFilename
	if c.OutputFilename == "" {
		c.OutputFilename = DefaultOutputFilename + "." + c.OutputFormat
	} else if sanitized := utils.SanitizeFilename(c.OutputFilename); sanitized != c.OutputFilename {
		warnings = append(warnings, fmt.Sprintf("output_filename '%s' sanitized to '%s'", c.OutputFilename, sanitized))
		c.OutputFilename = sanitized
	}

	// DetailConcurrency
	if c.DetailConcurrency <= 0 {
		c.DetailConcurrency = 1
	} else if c.DetailConcurrency > 1 {
		warnings = append(warnings, fmt.Sprintf(
			"detail_concurrency is %d; exercise pages will no longer be fetched strictly one at a time",
			c.DetailConcurrency))
	}

	// HarvestConcurrency
	if c.HarvestConcurrency < 0 {
		warnings = append(warnings, "harvest_concurrency cannot be negative, setting to 0 (unbounded)")
		c.HarvestConcurrency = 0
	}

	// StateDir
	if c.EnableStateDB && c.StateDir == "" {
		warnings = append(warnings, "enable_state_db is true but state_dir is empty, defaulting to '"+DefaultStateDir+"'")
		c.StateDir = DefaultStateDir
	}

	// GlobalTimeout
	if c.GlobalTimeout < 0 {
		warnings = append(warnings, "global_timeout cannot be negative, disabling timeout")
		c.GlobalTimeout = 0
	}

	c.validateHTTPClientSettings()

	if err := c.Selectors.validate(); err != nil {
		return warnings, err
	}

	return warnings, nil
}

// canonicalHTTPSURL parses raw, requires the https scheme and returns the normalized form
func canonicalHTTPSURL(raw, field string) (string, error) {
	normalized, parsed, err := parse.ParseAndNormalize(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid %s '%s': %v", utils.ErrConfigValidation, field, raw, err)
	}
	if parsed.Scheme != "https" || parsed.Host == "" {
		return "", fmt.Errorf("%w: %s must be an absolute https URL, got '%s'", utils.ErrConfigValidation, field, raw)
	}
	return normalized, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout < 0 {
		h.Timeout = 0
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}

// validate fills empty selectors with defaults and compiles every one of them.
// A selector that does not compile is fatal: goquery would silently match nothing.
func (s *SelectorConfig) validate() error {
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"category_anchors", &s.CategoryAnchors, DefaultCategoryAnchors},
		{"page_title", &s.PageTitle, DefaultPageTitle},
		{"subsection_headings", &s.SubsectionHeadings, DefaultSubsectionHeadings},
		{"subsection_blocks", &s.SubsectionBlocks, DefaultSubsectionBlocks},
		{"exercise_anchors", &s.ExerciseAnchors, DefaultExerciseAnchors},
		{"muscle_panel", &s.MusclePanel, DefaultMusclePanel},
		{"muscle_items", &s.MuscleItems, DefaultMuscleItems},
		{"classification_cells", &s.ClassificationCells, DefaultClassificationCells},
	}

	for _, f := range fields {
		if strings.TrimSpace(*f.value) == "" {
			*f.value = f.def
		}
		if _, err := cascadia.Compile(*f.value); err != nil {
			return fmt.Errorf("%w: selector %s '%s' does not compile: %v", utils.ErrConfigValidation, f.name, *f.value, err)
		}
	}
	return nil
}
