package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/exrx-scraper/pkg/models"
)

// ExerciseDetail extracts name, target muscles and classification from an exercise page.
// Anything missing from the page stays empty; the URL is always set.
func (e *Extractor) ExerciseDetail(doc *goquery.Document, exerciseURL string) models.ExerciseDetail {
	doc = orEmpty(doc)

	detail := models.ExerciseDetail{
		URL:           exerciseURL,
		Name:          e.pageTitle(doc),
		TargetMuscles: e.targetMuscles(doc),
	}

	var cells []string
	doc.Find(e.selectors.ClassificationCells).Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(td.Text()))
	})
	detail.Classification = classify(cells)

	if len(cells) < 3 {
		e.log.WithField("url", exerciseURL).Debugf("Only %d classification cells found", len(cells))
	}
	return detail
}

// targetMuscles returns the list items of the muscle panel, trimmed and de-duplicated in order.
// A blank item is kept like any other text, so it appears at most once as "".
func (e *Extractor) targetMuscles(doc *goquery.Document) []string {
	muscles := []string{}
	seen := make(map[string]struct{})

	doc.Find(e.selectors.MusclePanel).Find(e.selectors.MuscleItems).Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		muscles = append(muscles, text)
	})
	return muscles
}

// classify maps the first three cells to utility, mechanics and force
func classify(cells []string) models.Classification {
	var c models.Classification
	fields := []*string{&c.Utility, &c.Mechanics, &c.Force}
	for i := 0; i < len(fields) && i < len(cells); i++ {
		*fields[i] = cells[i]
	}
	return c
}
