package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/exrx-scraper/pkg/config"
	"github.com/Sriram-PR/exrx-scraper/pkg/models"
	"github.com/Sriram-PR/exrx-scraper/pkg/utils"
)

// FileWriter writes the catalog to a single file in JSON or YAML
type FileWriter struct {
	path   string
	format string
	indent bool
	log    *logrus.Entry
}

// NewFileWriter creates a FileWriter for the output settings of cfg
func NewFileWriter(cfg *config.AppConfig, log *logrus.Entry) *FileWriter {
	return &FileWriter{
		path:   cfg.OutputPath(),
		format: cfg.OutputFormat,
		indent: cfg.OutputIndent,
		log:    log,
	}
}

// WriteCatalog implements the CatalogWriter interface.
// The file is written to a temporary name first and renamed, so readers never see a partial document.
func (w *FileWriter) WriteCatalog(catalog models.Catalog) (string, string, error) {
	data, err := EncodeCatalog(catalog, w.format, w.indent)
	if err != nil {
		w.log.Errorf("Failed to encode catalog: %v", err)
		return w.path, "", err
	}

	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return w.path, "", fmt.Errorf("%w: creating output directory '%s': %w", utils.ErrFilesystem, dir, err)
		}
	}

	tmpPath := w.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		w.log.Errorf("Failed to write catalog file '%s': %v", tmpPath, err)
		return w.path, "", fmt.Errorf("%w: writing '%s': %w", utils.ErrFilesystem, tmpPath, err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		w.log.Errorf("Failed to move catalog file into place '%s': %v", w.path, err)
		return w.path, "", fmt.Errorf("%w: renaming '%s': %w", utils.ErrFilesystem, tmpPath, err)
	}

	digest := utils.CalculateSHA256(data)
	w.log.WithFields(logrus.Fields{
		"path":   w.path,
		"bytes":  len(data),
		"sha256": digest,
	}).Info("Catalog written")
	return w.path, digest, nil
}

// EncodeCatalog serialises the catalog. JSON output is compact unless indent is set.
// The encoding contains no timestamps or map iteration, so equal catalogs encode to equal bytes.
func EncodeCatalog(catalog models.Catalog, format string, indent bool) ([]byte, error) {
	if catalog == nil {
		catalog = models.Catalog{}
	}

	switch format {
	case config.FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if indent {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(catalog); err != nil {
			return nil, fmt.Errorf("%w: JSON encode: %w", utils.ErrParsing, err)
		}
		// Encoder terminates each value with a newline; the catalog file carries none
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil

	case config.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(catalog); err != nil {
			return nil, fmt.Errorf("%w: YAML encode: %w", utils.ErrParsing, err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("%w: YAML encode: %w", utils.ErrParsing, err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("%w: unsupported output format '%s'", utils.ErrConfigValidation, format)
	}
}
