package scrape

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/exrx-scraper/pkg/parse"
)

// Categories returns the absolute category URLs listed on the directory page, in document order.
// Duplicates are kept. Anchors without an href are skipped.
func (e *Extractor) Categories(doc *goquery.Document) []string {
	doc = orEmpty(doc)

	var links []string
	doc.Find(e.selectors.CategoryAnchors).Each(func(_ int, a *goquery.Selection) {
		href, exists := a.Attr("href")
		if !exists {
			e.log.Debug("Category anchor without href, skipping")
			return
		}
		links = append(links, parse.CategoryLink(e.listBase, href))
	})

	e.log.WithField("categories", len(links)).Debug("Discovered category links")
	return links
}
