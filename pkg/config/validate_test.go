package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/exrx-scraper/pkg/utils"
)

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{} // Zero value
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "https://exrx.net", cfg.SiteRoot)
	assert.Equal(t, "https://exrx.net/Lists/Directory", cfg.DirectoryURL)
	assert.Equal(t, "https://exrx.net/Lists/", cfg.ListBaseURL)
	assert.Equal(t, ".", cfg.OutputBaseDir)
	assert.Equal(t, "data.json", cfg.OutputFilename)
	assert.Equal(t, FormatJSON, cfg.OutputFormat)
	assert.Equal(t, 1, cfg.DetailConcurrency)
	assert.Equal(t, 0, cfg.HarvestConcurrency)
	assert.Empty(t, cfg.StateDir)
	assert.False(t, cfg.FailOnHTTPError, "non-2xx pages are parsed by default")

	// HTTP client defaults; no per-request timeout unless configured
	assert.Equal(t, time.Duration(0), cfg.HTTPClientSettings.Timeout)
	assert.Equal(t, 100, cfg.HTTPClientSettings.MaxIdleConns)
	assert.Equal(t, 2, cfg.HTTPClientSettings.MaxIdleConnsPerHost)
	assert.Equal(t, 90*time.Second, cfg.HTTPClientSettings.IdleConnTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTPClientSettings.TLSHandshakeTimeout)
	assert.Equal(t, 1*time.Second, cfg.HTTPClientSettings.ExpectContinueTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTPClientSettings.DialerTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTPClientSettings.DialerKeepAlive)

	// Selector defaults
	assert.Equal(t, DefaultCategoryAnchors, cfg.Selectors.CategoryAnchors)
	assert.Equal(t, DefaultSubsectionBlocks, cfg.Selectors.SubsectionBlocks)
	assert.Equal(t, DefaultClassificationCells, cfg.Selectors.ClassificationCells)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "https://exrx.net", cfg.SiteRoot)
	assert.Equal(t, "data.json", cfg.OutputPath())
}

func TestAppConfig_Validate_SiteRoot(t *testing.T) {
	tests := []struct {
		name      string
		siteRoot  string
		wantRoot  string
		wantError bool
	}{
		{"trailing slash removed", "https://exrx.net/", "https://exrx.net", false},
		{"host lowercased", "https://ExRx.NET", "https://exrx.net", false},
		{"default port dropped", "https://exrx.net:443", "https://exrx.net", false},
		{"custom port kept", "https://127.0.0.1:8443", "https://127.0.0.1:8443", false},
		{"http rejected", "http://exrx.net", "", true},
		{"relative rejected", "exrx.net", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{SiteRoot: tt.siteRoot}
			_, err := cfg.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, utils.ErrConfigValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoot, cfg.SiteRoot)
			assert.Equal(t, tt.wantRoot+"/Lists/Directory", cfg.DirectoryURL)
			assert.Equal(t, tt.wantRoot+"/Lists/", cfg.ListBaseURL)
		})
	}
}

func TestAppConfig_Validate_ListBaseURLSlash(t *testing.T) {
	cfg := AppConfig{ListBaseURL: "https://exrx.net/Lists"}
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, "https://exrx.net/Lists/", cfg.ListBaseURL)
	assert.True(t, containsWarning(warnings, "no trailing slash"))
}

func TestAppConfig_Validate_OutputFormat(t *testing.T) {
	t.Run("yaml picks yaml filename", func(t *testing.T) {
		cfg := AppConfig{OutputFormat: "YAML"}
		_, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, FormatYAML, cfg.OutputFormat)
		assert.Equal(t, "data.yaml", cfg.OutputFilename)
	})

	t.Run("explicit filename kept", func(t *testing.T) {
		cfg := AppConfig{OutputFilename: "exercises.json", OutputBaseDir: "/tmp/out"}
		_, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/out/exercises.json", cfg.OutputPath())
	})

	t.Run("unsafe filename sanitized", func(t *testing.T) {
		cfg := AppConfig{OutputFilename: "a/b:c.json"}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, "a_b_c.json", cfg.OutputFilename)
		assert.True(t, containsWarning(warnings, "sanitized"))
	})

	t.Run("unknown format rejected", func(t *testing.T) {
		cfg := AppConfig{OutputFormat: "xml"}
		_, err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, utils.ErrConfigValidation))
	})
}

func TestAppConfig_Validate_Concurrency(t *testing.T) {
	t.Run("negative detail concurrency falls back to one", func(t *testing.T) {
		cfg := AppConfig{DetailConcurrency: -3}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.DetailConcurrency)
		assert.False(t, containsWarning(warnings, "detail_concurrency"))
	})

	t.Run("parallel detail fetches warn", func(t *testing.T) {
		cfg := AppConfig{DetailConcurrency: 3}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.DetailConcurrency)
		assert.True(t, containsWarning(warnings, "detail_concurrency is 3"))
	})

	t.Run("negative harvest concurrency becomes unbounded", func(t *testing.T) {
		cfg := AppConfig{HarvestConcurrency: -1}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.HarvestConcurrency)
		assert.True(t, containsWarning(warnings, "harvest_concurrency"))
	})
}

func TestAppConfig_Validate_StateDir(t *testing.T) {
	cfg := AppConfig{EnableStateDB: true}
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, "./scraper_state", cfg.StateDir)
	assert.True(t, containsWarning(warnings, "state_dir is empty"))
}

func TestAppConfig_Validate_NegativeTimeout(t *testing.T) {
	cfg := AppConfig{GlobalTimeout: -time.Second}
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.GlobalTimeout)
	assert.True(t, containsWarning(warnings, "global_timeout"))
}

func TestAppConfig_Validate_RequestTimeout(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"unset means none", 0, 0},
		{"negative clamped to none", -time.Second, 0},
		{"explicit kept", 30 * time.Second, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{HTTPClientSettings: HTTPClientConfig{Timeout: tt.in}}
			_, err := cfg.Validate()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.HTTPClientSettings.Timeout)
		})
	}
}

func TestAppConfig_Validate_Selectors(t *testing.T) {
	t.Run("custom selector kept", func(t *testing.T) {
		cfg := AppConfig{Selectors: SelectorConfig{PageTitle: "h1.title"}}
		_, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, "h1.title", cfg.Selectors.PageTitle)
		assert.Equal(t, DefaultMusclePanel, cfg.Selectors.MusclePanel)
	})

	t.Run("malformed selector is fatal", func(t *testing.T) {
		cfg := AppConfig{Selectors: SelectorConfig{SubsectionBlocks: "article .container:has("}}
		_, err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, utils.ErrConfigValidation))
		assert.Contains(t, err.Error(), "subsection_blocks")
	})
}

// containsWarning checks if any warning contains the given substring
func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
