package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/exrx-scraper/pkg/models"
	"github.com/Sriram-PR/exrx-scraper/pkg/parse"
	"github.com/Sriram-PR/exrx-scraper/pkg/utils"
)

// HarvestLinks extracts the muscle subsections of one category page and their free exercise links.
// It returns the group together with the number of exercise links it holds.
//
// Headings and link blocks are paired by position. When their counts differ the pairing is kept
// as-is, a warning is recorded on the group and logged, and blocks without a heading get an empty name.
func (e *Extractor) HarvestLinks(doc *goquery.Document, categoryURL string) (models.ExerciseCategoryGroup, int) {
	doc = orEmpty(doc)
	harvestLog := e.log.WithField("url", categoryURL)

	group := models.ExerciseCategoryGroup{
		SourceURL:   categoryURL,
		MuscleGroup: MuscleGroupName(e.pageTitle(doc)),
		Muscles:     []models.MuscleSubsection{},
	}

	var names []string
	doc.Find(e.selectors.SubsectionHeadings).Each(func(_ int, h *goquery.Selection) {
		names = append(names, strings.TrimSpace(h.Text()))
	})

	blocks := doc.Find(e.selectors.SubsectionBlocks)
	if blocks.Length() != len(names) {
		mismatch := fmt.Errorf("%w: %d subsection headings vs %d link blocks on %s",
			utils.ErrStructureMismatch, len(names), blocks.Length(), categoryURL)
		group.Warnings = append(group.Warnings, mismatch.Error())
		harvestLog.WithFields(logrus.Fields{
			"headings": len(names),
			"blocks":   blocks.Length(),
		}).Warn("Subsection headings and link blocks do not line up, pairing by position")
	}

	count := 0
	blocks.Each(func(i int, block *goquery.Selection) {
		name := ""
		if i < len(names) {
			name = names[i]
		}

		urls := []string{}
		block.Find(e.selectors.ExerciseAnchors).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			link, ok := parse.ExerciseLink(e.siteRoot, href)
			if !ok {
				harvestLog.Debugf("Rejected exercise href %q", href)
				return
			}
			urls = append(urls, link)
		})

		count += len(urls)
		group.Muscles = append(group.Muscles, models.MuscleSubsection{
			Name:         name,
			ExerciseURLs: urls,
			Exercises:    make([]models.ExerciseDetail, len(urls)),
		})
	})

	harvestLog.WithFields(logrus.Fields{
		"muscle_group": group.MuscleGroup,
		"subsections":  len(group.Muscles),
		"exercises":    count,
	}).Debug("Harvested category")
	return group, count
}
