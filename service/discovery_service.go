package services

import (
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	model "github.com/opencivica/AccessPDF/models"

	"gorm.io/gorm"
)

// DiscoveredDocument is one crawler-reported entry: the URL where a PDF was
// found plus whatever metadata the crawler extracted.
type DiscoveredDocument struct {
	URL                         string     `json:"url" binding:"required"`
	ModificationDate            *time.Time `json:"modification_date"`
	FileName                    string     `json:"file_name"`
	FileSize                    *float64   `json:"file_size"`
	Author                      string     `json:"author"`
	Subject                     string     `json:"subject"`
	Keywords                    string     `json:"keywords"`
	Producer                    string     `json:"producer"`
	PDFVersion                  string     `json:"pdf_version"`
	CreationDate                *time.Time `json:"creation_date"`
	PredictedCategory           string     `json:"predicted_category"`
	PredictedCategoryConfidence *float64   `json:"predicted_category_confidence"`
	NumberOfPages               *int       `json:"number_of_pages"`
	NumberOfTables              *int       `json:"number_of_tables"`
	NumberOfImages              *int       `json:"number_of_images"`
	Source                      []string   `json:"source"`
}

// DiscoverDocuments ingests a crawl batch for a site, creating new documents
// and updating existing ones matched by exact URL. Items are processed one
// at a time, each in its own transaction, so a single bad item never aborts
// the batch or leaves a document and its audit entries inconsistent.
// Re-running an unchanged batch produces zero writes. When collect is false
// the created/updated records are not accumulated, keeping large batches
// memory-bounded.
func (s *DocumentService) DiscoverDocuments(site *model.Site, items []DiscoveredDocument, collect bool) ([]model.Document, error) {
	var collection []model.Document

	for _, item := range items {
		var saved *model.Document
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var existing model.Document
			err := tx.Where("site_id = ? AND url = ?", site.ID, item.URL).First(&existing).Error
			if err != nil && err != gorm.ErrRecordNotFound {
				return err
			}

			if err == nil {
				// Epoch-second comparison; sub-second drift is not a change.
				if timesEqual(existing.ModificationDate, item.ModificationDate) {
					return nil
				}
				before := existing
				// Blank incoming file names preserve the existing one.
				applyDiscoveredAttributes(&existing, item)
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				if err := recordChanges(tx, existing.ID, documentChanges(&before, &existing), ""); err != nil {
					return err
				}
				saved = &existing
				return nil
			}

			doc := model.Document{SiteID: site.ID}
			applyDiscoveredAttributes(&doc, item)
			if doc.FileName == "" {
				doc.FileName = fileNameFromURL(item.URL)
			}
			if err := tx.Create(&doc).Error; err != nil {
				return err
			}
			saved = &doc
			return nil
		})
		if err != nil {
			itemErr := &BatchItemError{URL: item.URL, Err: err}
			log.Printf("[DiscoverDocuments] %v", itemErr)
			continue
		}
		if saved != nil {
			s.indexDocument(saved)
			if collect {
				collection = append(collection, *saved)
			}
		}
	}

	if collect {
		if collection == nil {
			collection = []model.Document{}
		}
		return collection, nil
	}
	return nil, nil
}

// applyDiscoveredAttributes copies the crawler metadata onto the document.
// The predicted category is only applied when present so an update never
// clears an existing classification; every (re)discovery resets the pipeline
// state to discovered.
func applyDiscoveredAttributes(doc *model.Document, item DiscoveredDocument) {
	doc.URL = item.URL
	doc.ModificationDate = item.ModificationDate
	doc.CreationDate = item.CreationDate
	doc.FileSize = item.FileSize
	doc.Author = cleanString(item.Author)
	doc.Subject = cleanString(item.Subject)
	doc.Keywords = cleanString(item.Keywords)
	doc.Producer = cleanString(item.Producer)
	doc.PDFVersion = cleanString(item.PDFVersion)
	doc.NumberOfPages = item.NumberOfPages
	doc.NumberOfTables = item.NumberOfTables
	doc.NumberOfImages = item.NumberOfImages
	if item.PredictedCategory != "" {
		doc.DocumentCategory = item.PredictedCategory
		doc.DocumentCategoryConfidence = item.PredictedCategoryConfidence
	}
	if len(item.Source) > 0 {
		doc.SetSource(model.SourceFromURLs(item.Source))
	}
	if fileName := cleanString(item.FileName); fileName != "" {
		doc.FileName = fileName
	}
	doc.DocumentStatus = model.DocumentStatusDiscovered
}

// fileNameFromURL falls back to the URL's last path segment, or "unknown"
// when the URL cannot be parsed.
func fileNameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "/" || base == "" {
		return "unknown"
	}
	return base
}

// cleanString strips invalid UTF-8 and surrounding whitespace from crawler
// metadata.
func cleanString(value string) string {
	return strings.TrimSpace(strings.ToValidUTF8(value, ""))
}

func timesEqual(a, b *time.Time) bool {
	var au, bu int64
	if a != nil {
		au = a.Unix()
	}
	if b != nil {
		bu = b.Unix()
	}
	return au == bu
}
