package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	model "github.com/opencivica/AccessPDF/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// FixedTime pins time.Now in tests that assert on timestamps.
var FixedTime = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Site{},
		&model.Document{},
		&model.DocumentInference{},
		&model.DocumentAuditEntry{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// newTestService builds a service on the test database without external
// clients; S3, Elasticsearch and the inference backend stay nil.
func newTestService(t *testing.T) *DocumentService {
	t.Helper()
	return &DocumentService{
		db:      newTestDB(t),
		apiHost: "http://localhost:8080",
	}
}

func createTestSite(t *testing.T, s *DocumentService) *model.Site {
	t.Helper()
	site := &model.Site{
		Name:       "Salt Lake City " + strings.ReplaceAll(t.Name(), "/", " "),
		Location:   "Salt Lake City, UT",
		PrimaryURL: "https://www.slc.gov",
	}
	if err := s.db.Create(site).Error; err != nil {
		t.Fatalf("failed to create test site: %v", err)
	}
	return site
}

func createTestDocument(t *testing.T, s *DocumentService, site *model.Site, url string) *model.Document {
	t.Helper()
	doc := &model.Document{
		SiteID:   site.ID,
		URL:      url,
		FileName: fileNameFromURL(url),
	}
	if err := s.db.Create(doc).Error; err != nil {
		t.Fatalf("failed to create test document: %v", err)
	}
	return doc
}

func countRows(t *testing.T, s *DocumentService, value interface{}) int64 {
	t.Helper()
	var count int64
	if err := s.db.Model(value).Count(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}
