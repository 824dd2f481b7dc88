package scrape

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/exrx-scraper/pkg/config"
	"github.com/Sriram-PR/exrx-scraper/pkg/fetch"
)

// Extractor turns fetched pages into catalog data using the configured selectors.
// All methods accept a nil document and then return empty values.
type Extractor struct {
	siteRoot  string
	listBase  string
	selectors config.SelectorConfig
	log       *logrus.Entry
}

// NewExtractor creates an Extractor from a validated configuration
func NewExtractor(cfg *config.AppConfig, log *logrus.Entry) *Extractor {
	return &Extractor{
		siteRoot:  cfg.SiteRoot,
		listBase:  cfg.ListBaseURL,
		selectors: cfg.Selectors,
		log:       log,
	}
}

// orEmpty substitutes the empty document for a missing one
func orEmpty(doc *goquery.Document) *goquery.Document {
	if doc == nil {
		return fetch.EmptyDocument()
	}
	return doc
}

// pageTitle returns the trimmed text of the first page title element
func (e *Extractor) pageTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find(e.selectors.PageTitle).First().Text())
}

// MuscleGroupName drops the trailing whitespace-delimited word of a category title.
// "Chest Exercises" becomes "Chest"; a single-word title becomes "".
func MuscleGroupName(title string) string {
	title = strings.TrimSpace(title)
	idx := strings.LastIndexFunc(title, unicode.IsSpace)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(title[:idx])
}
