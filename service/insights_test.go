package services

import (
	"net/url"
	"testing"
	"time"

	model "github.com/opencivica/AccessPDF/models"

	"github.com/stretchr/testify/assert"
)

func createInsightsDocument(t *testing.T, s *DocumentService, site *model.Site, path, category, status string, year int) *model.Document {
	t.Helper()
	doc := createTestDocument(t, s, site, "https://www.slc.gov/docs/"+path)
	doc.DocumentCategory = category
	doc.Status = status
	if year > 0 {
		modified := time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC)
		doc.ModificationDate = &modified
	}
	if err := s.db.Save(doc).Error; err != nil {
		t.Fatalf("failed to update test document: %v", err)
	}
	return doc
}

func TestBuildSiteInsightsYearBinning(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	createInsightsDocument(t, s, site, "a.pdf", "Report", model.DefaultStatus, 1999)
	createInsightsDocument(t, s, site, "b.pdf", "Report", model.DefaultStatus, 2003)
	createInsightsDocument(t, s, site, "c.pdf", "Report", model.DefaultStatus, 2010)
	createInsightsDocument(t, s, site, "d.pdf", "Report", model.DefaultStatus, 2020)
	createInsightsDocument(t, s, site, "e.pdf", "Report", model.DefaultStatus, 2025)
	createInsightsDocument(t, s, site, "f.pdf", "Report", model.DefaultStatus, 0)

	insights, err := s.BuildSiteInsights(site, url.Values{})
	assert.NoError(t, err)

	byLabel := map[string]int{}
	total := 0
	for _, bin := range insights.Years {
		byLabel[bin.Label] = bin.Count
		total += bin.Count
	}
	assert.Equal(t, 1, byLabel["< 2000"])
	assert.Equal(t, 1, byLabel["2000-2005"])
	assert.Equal(t, 1, byLabel["2006-2011"])
	assert.Equal(t, 0, byLabel["2012-2017"])
	assert.Equal(t, 1, byLabel["2018-2023"])
	assert.Equal(t, 1, byLabel["> 2023"])
	assert.Equal(t, 1, byLabel["Unknown"])

	// Every document lands in exactly one bin.
	assert.Equal(t, 6, total)
}

func TestBuildSiteInsightsOmitsEmptyUnknownBucket(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)
	createInsightsDocument(t, s, site, "a.pdf", "Report", model.DefaultStatus, 2020)

	insights, err := s.BuildSiteInsights(site, url.Values{})
	assert.NoError(t, err)
	for _, bin := range insights.Years {
		assert.NotEqual(t, "Unknown", bin.Label)
	}
}

func TestBuildSiteInsightsCrossTab(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	createInsightsDocument(t, s, site, "a.pdf", "Report", model.DefaultStatus, 2020)
	createInsightsDocument(t, s, site, "b.pdf", "Report", model.AuditDoneStatus, 2020)
	createInsightsDocument(t, s, site, "c.pdf", "Agenda", model.DefaultStatus, 2020)

	insights, err := s.BuildSiteInsights(site, url.Values{})
	assert.NoError(t, err)
	assert.Len(t, insights.CategoryGroups, 2)

	// Rows come back sorted by category.
	assert.Equal(t, "Agenda", insights.CategoryGroups[0].Category)
	assert.Equal(t, "Report", insights.CategoryGroups[1].Category)

	report := insights.CategoryGroups[1]
	assert.Equal(t, 1, report.Counts[model.DefaultStatus])
	assert.Equal(t, 1, report.Counts[model.AuditDoneStatus])
	// Statuses with no documents are zero-filled, not missing.
	assert.Equal(t, 0, report.Counts[model.InReviewStatus])
	assert.Equal(t, 2, report.Total)

	agenda := insights.CategoryGroups[0]
	assert.Equal(t, 1, agenda.Total)
}

func TestBuildSiteInsightsLinksPreserveFilters(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	createInsightsDocument(t, s, site, "a.pdf", "Report", model.DefaultStatus, 1999)
	createInsightsDocument(t, s, site, "b.pdf", "Report", model.DefaultStatus, 2025)

	query := url.Values{}
	query.Set("category", "Report")

	insights, err := s.BuildSiteInsights(site, query)
	assert.NoError(t, err)

	// Complexity links carry both values and keep the active category filter.
	assert.Len(t, insights.Links.Complexity, 2)
	for _, link := range insights.Links.Complexity {
		assert.Equal(t, "Report", link.Params.Get("category"))
	}
	assert.Equal(t, model.SimpleComplexity, insights.Links.Complexity[0].Params.Get("complexity"))
	assert.Equal(t, model.ComplexComplexity, insights.Links.Complexity[1].Params.Get("complexity"))

	// Only nonempty year bins get links; open-ended bins omit the open bound.
	assert.Len(t, insights.Links.Years, 2)
	first := insights.Links.Years[0]
	assert.Equal(t, "< 2000", first.Title)
	assert.Equal(t, "", first.Params.Get("start_date"))
	assert.Equal(t, "1999-12-31", first.Params.Get("end_date"))

	last := insights.Links.Years[1]
	assert.Equal(t, "> 2023", last.Title)
	assert.Equal(t, "2024-01-01", last.Params.Get("start_date"))
	assert.Equal(t, "", last.Params.Get("end_date"))

	// Decision links cover the recommendations actually present.
	assert.Len(t, insights.Links.Decision, 1)
	assert.Equal(t, model.DefaultDecision, insights.Links.Decision[0].Title)
	assert.Equal(t, model.DefaultDecision, insights.Links.Decision[0].Params.Get("accessibility_recommendation"))

	// The caller's query is never mutated in place.
	assert.Equal(t, "", query.Get("complexity"))
}
