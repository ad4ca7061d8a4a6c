package services

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/opencivica/AccessPDF/models"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/stretchr/testify/assert"
)

func TestUpdateStatusRecordsAuditEntry(t *testing.T) {
	patches := gomonkey.ApplyFunc(time.Now, func() time.Time {
		return FixedTime
	})
	defer patches.Reset()

	s := newTestService(t)
	site := createTestSite(t, s)
	doc := createTestDocument(t, s, site, "https://www.slc.gov/docs/a.pdf")

	updated, err := s.UpdateStatus(doc.ID, model.InReviewStatus, "reviewer@slc.gov")
	assert.NoError(t, err)
	assert.Equal(t, model.InReviewStatus, updated.Status)

	entries, err := s.AuditTrail(doc.ID)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "status", entry.Field)
	assert.Equal(t, "reviewer@slc.gov", entry.Actor)
	assert.True(t, entry.IsHuman())
	assert.True(t, entry.CreatedAt.Equal(FixedTime))

	var change map[string]string
	assert.NoError(t, json.Unmarshal(entry.Change, &change))
	assert.Equal(t, model.DefaultStatus, change["old"])
	assert.Equal(t, model.InReviewStatus, change["new"])
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)
	doc := createTestDocument(t, s, site, "https://www.slc.gov/docs/a.pdf")

	_, err := s.UpdateStatus(doc.ID, "Paused", "reviewer@slc.gov")
	assert.Error(t, err)
	_, err = s.UpdateDocumentCategory(doc.ID, "Novel", "reviewer@slc.gov")
	assert.Error(t, err)
	_, err = s.UpdateAccessibilityRecommendation(doc.ID, "Shred", "reviewer@slc.gov")
	assert.Error(t, err)

	// Failed updates leave no audit residue.
	assert.EqualValues(t, 0, countRows(t, s, &model.DocumentAuditEntry{}))
}

func TestUpdateAccessibilityRecommendationEmptyResets(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)
	doc := createTestDocument(t, s, site, "https://www.slc.gov/docs/a.pdf")

	updated, err := s.UpdateAccessibilityRecommendation(doc.ID, model.ArchiveDecision, "reviewer@slc.gov")
	assert.NoError(t, err)
	assert.Equal(t, model.ArchiveDecision, updated.AccessibilityRecommendation)

	reset, err := s.UpdateAccessibilityRecommendation(doc.ID, "", "reviewer@slc.gov")
	assert.NoError(t, err)
	assert.Equal(t, model.DefaultDecision, reset.AccessibilityRecommendation)
}

func TestLastChangedByHumanTracksLatestEntry(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)
	doc := createTestDocument(t, s, site, "https://www.slc.gov/docs/a.pdf")

	human, err := s.LastChangedByHuman(doc.ID, "accessibility_recommendation")
	assert.NoError(t, err)
	assert.False(t, human)

	_, err = s.UpdateAccessibilityRecommendation(doc.ID, model.ArchiveDecision, "reviewer@slc.gov")
	assert.NoError(t, err)
	human, err = s.LastChangedByHuman(doc.ID, "accessibility_recommendation")
	assert.NoError(t, err)
	assert.True(t, human)
}

func TestGetDocumentNotFound(t *testing.T) {
	s := newTestService(t)

	_, err := s.GetDocument("57e3b180-0000-0000-0000-000000000000")
	assert.Error(t, err)
	_, ok := err.(*NotFoundError)
	assert.True(t, ok)
}

func TestBatchUpdateStatusesIsAtomic(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)
	first := createTestDocument(t, s, site, "https://www.slc.gov/docs/a.pdf")
	second := createTestDocument(t, s, site, "https://www.slc.gov/docs/b.pdf")

	err := s.BatchUpdateStatuses([]DocumentStatusUpdate{
		{ID: first.ID, Status: model.AuditDoneStatus},
		{ID: second.ID, Status: "Paused"},
	}, "reviewer@slc.gov")
	assert.Error(t, err)

	// The valid first update must have been rolled back with the bad one.
	reloaded, err := s.GetDocument(first.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.DefaultStatus, reloaded.Status)
	assert.EqualValues(t, 0, countRows(t, s, &model.DocumentAuditEntry{}))
}

func TestBatchUpdateStatusesAppliesAll(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)
	first := createTestDocument(t, s, site, "https://www.slc.gov/docs/a.pdf")
	second := createTestDocument(t, s, site, "https://www.slc.gov/docs/b.pdf")

	err := s.BatchUpdateStatuses([]DocumentStatusUpdate{
		{ID: first.ID, Status: model.AuditDoneStatus},
		{ID: second.ID, Status: model.InReviewStatus},
	}, "reviewer@slc.gov")
	assert.NoError(t, err)

	reloaded, err := s.GetDocument(first.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.AuditDoneStatus, reloaded.Status)
	reloaded, err = s.GetDocument(second.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.InReviewStatus, reloaded.Status)
}

func TestListDocumentsFilters(t *testing.T) {
	s := newTestService(t)
	site := createTestSite(t, s)

	budget := createTestDocument(t, s, site, "https://www.slc.gov/docs/budget-2024.pdf")
	minutes := createTestDocument(t, s, site, "https://www.slc.gov/docs/minutes.pdf")
	createTestDocument(t, s, site, "https://www.slc.gov/docs/flyer.pdf")

	_, err := s.UpdateStatus(budget.ID, model.AuditDoneStatus, "reviewer@slc.gov")
	assert.NoError(t, err)
	_, err = s.UpdateAccessibilityRecommendation(budget.ID, model.ArchiveDecision, "reviewer@slc.gov")
	assert.NoError(t, err)
	_, err = s.UpdateAccessibilityRecommendation(minutes.ID, model.RemediateDecision, "reviewer@slc.gov")
	assert.NoError(t, err)

	t.Run("by status", func(t *testing.T) {
		docs, err := s.ListDocuments(site.ID, DocumentFilters{Status: model.AuditDoneStatus})
		assert.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.Equal(t, budget.ID, docs[0].ID)
	})

	t.Run("by filename fragment", func(t *testing.T) {
		docs, err := s.ListDocuments(site.ID, DocumentFilters{Filename: "minutes"})
		assert.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.Equal(t, minutes.ID, docs[0].ID)
	})

	t.Run("decision grouping expands", func(t *testing.T) {
		docs, err := s.ListDocuments(site.ID, DocumentFilters{Decision: model.DoneDecision})
		assert.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("department None matches unset", func(t *testing.T) {
		docs, err := s.ListDocuments(site.ID, DocumentFilters{Department: "None"})
		assert.NoError(t, err)
		assert.Len(t, docs, 3)
	})

	t.Run("no filters returns everything", func(t *testing.T) {
		docs, err := s.ListDocuments(site.ID, DocumentFilters{})
		assert.NoError(t, err)
		assert.Len(t, docs, 3)
	})
}

func TestSiteLifecycle(t *testing.T) {
	s := newTestService(t)

	site := &model.Site{Name: "Provo", Location: "Provo, UT", PrimaryURL: "https://www.provo.org"}
	assert.NoError(t, s.CreateSite(site))
	assert.NotEmpty(t, site.ID)

	doc := createTestDocument(t, s, site, "https://www.provo.org/docs/a.pdf")
	_, err := s.UpsertInference(doc.ID, model.IsArchivalInferenceType, "True", nil, "")
	assert.NoError(t, err)
	_, err = s.UpdateStatus(doc.ID, model.InReviewStatus, "reviewer@provo.org")
	assert.NoError(t, err)

	assert.NoError(t, s.DeleteSite(site.ID))

	_, err = s.GetSite(site.ID)
	assert.Error(t, err)
	assert.EqualValues(t, 0, countRows(t, s, &model.Document{}))
	assert.EqualValues(t, 0, countRows(t, s, &model.DocumentInference{}))
	assert.EqualValues(t, 0, countRows(t, s, &model.DocumentAuditEntry{}))
}
