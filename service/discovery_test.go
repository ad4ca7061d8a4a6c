package services

import (
	"testing"
	"time"

	model "github.com/opencivica/AccessPDF/models"

	"github.com/stretchr/testify/assert"
)

func TestDiscoverDocumentsCreatesWithDefaults(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	modified := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	confidence := 0.92
	pages := 12
	items := []DiscoveredDocument{{
		URL:                         "https://www.slc.gov/docs/budget-2024.pdf",
		ModificationDate:            &modified,
		FileName:                    "budget-2024.pdf",
		PredictedCategory:           "Report",
		PredictedCategoryConfidence: &confidence,
		NumberOfPages:               &pages,
		Source:                      []string{"https://www.slc.gov/finance"},
	}}

	docs, err := s.DiscoverDocuments(site, items, true)
	assert.NoError(t, err)
	assert.Len(t, docs, 1)

	doc := docs[0]
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, site.ID, doc.SiteID)
	assert.Equal(t, model.DocumentStatusDiscovered, doc.DocumentStatus)
	assert.Equal(t, "Report", doc.DocumentCategory)
	assert.Equal(t, model.DefaultDecision, doc.AccessibilityRecommendation)
	assert.Equal(t, model.DefaultStatus, doc.Status)
	assert.Equal(t, model.SimpleComplexity, doc.Complexity)
	assert.Equal(t, "https://www.slc.gov/finance", doc.PrimarySource())
}

func TestDiscoverDocumentsIsIdempotent(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	modified := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	items := []DiscoveredDocument{{
		URL:              "https://www.slc.gov/docs/budget-2024.pdf",
		ModificationDate: &modified,
		FileName:         "budget-2024.pdf",
	}}

	first, err := s.DiscoverDocuments(site, items, true)
	assert.NoError(t, err)
	assert.Len(t, first, 1)

	// Same batch again: no new rows, no updates, no audit entries.
	second, err := s.DiscoverDocuments(site, items, true)
	assert.NoError(t, err)
	assert.Empty(t, second)
	assert.EqualValues(t, 1, countRows(t, s, &model.Document{}))
	assert.EqualValues(t, 0, countRows(t, s, &model.DocumentAuditEntry{}))
}

func TestDiscoverDocumentsUpdatesOnNewModificationDate(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	modified := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	items := []DiscoveredDocument{{
		URL:              "https://www.slc.gov/docs/budget-2024.pdf",
		ModificationDate: &modified,
		FileName:         "budget-2024.pdf",
	}}
	first, err := s.DiscoverDocuments(site, items, true)
	assert.NoError(t, err)

	later := modified.AddDate(0, 3, 0)
	items[0].ModificationDate = &later
	items[0].FileName = "budget-2024-amended.pdf"

	second, err := s.DiscoverDocuments(site, items, true)
	assert.NoError(t, err)
	assert.Len(t, second, 1)

	// The existing record is updated in place, never duplicated.
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "budget-2024-amended.pdf", second[0].FileName)
	assert.EqualValues(t, 1, countRows(t, s, &model.Document{}))

	// The update is audited as automated.
	entries, err := s.AuditTrail(first[0].ID)
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)
	for _, entry := range entries {
		assert.False(t, entry.IsHuman())
	}
}

func TestDiscoverDocumentsSkipsBadItems(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	items := []DiscoveredDocument{
		{URL: "not a url", FileName: "broken.pdf"},
		{URL: "https://www.slc.gov/docs/good.pdf", FileName: "good.pdf"},
	}

	docs, err := s.DiscoverDocuments(site, items, true)
	assert.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, "good.pdf", docs[0].FileName)
	assert.EqualValues(t, 1, countRows(t, s, &model.Document{}))
}

func TestDiscoverDocumentsFileNameFallback(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	items := []DiscoveredDocument{
		{URL: "https://www.slc.gov/docs/plan%20update.pdf"},
		{URL: "https://www.slc.gov"},
	}
	docs, err := s.DiscoverDocuments(site, items, true)
	assert.NoError(t, err)
	assert.Len(t, docs, 2)

	byURL := map[string]string{}
	for _, doc := range docs {
		byURL[doc.URL] = doc.FileName
	}
	assert.Equal(t, "plan update.pdf", byURL["https://www.slc.gov/docs/plan%20update.pdf"])
	assert.Equal(t, "unknown", byURL["https://www.slc.gov"])
}

func TestDiscoverDocumentsWithoutCollecting(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	items := []DiscoveredDocument{{URL: "https://www.slc.gov/docs/a.pdf", FileName: "a.pdf"}}
	docs, err := s.DiscoverDocuments(site, items, false)
	assert.NoError(t, err)
	assert.Nil(t, docs)
	assert.EqualValues(t, 1, countRows(t, s, &model.Document{}))
}

func TestDiscoverDocumentsPreservesCategoryWhenAbsent(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	modified := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	confidence := 0.8
	items := []DiscoveredDocument{{
		URL:                         "https://www.slc.gov/docs/a.pdf",
		ModificationDate:            &modified,
		FileName:                    "a.pdf",
		PredictedCategory:           "Form",
		PredictedCategoryConfidence: &confidence,
	}}
	_, err := s.DiscoverDocuments(site, items, true)
	assert.NoError(t, err)

	later := modified.AddDate(0, 1, 0)
	items[0].ModificationDate = &later
	items[0].PredictedCategory = ""
	items[0].PredictedCategoryConfidence = nil

	docs, err := s.DiscoverDocuments(site, items, true)
	assert.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, "Form", docs[0].DocumentCategory)
}
