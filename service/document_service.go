package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	model "github.com/opencivica/AccessPDF/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/elastic/go-elasticsearch/v8"
	"gorm.io/gorm"
)

// DocumentService owns the document lifecycle: discovery, human edits with
// audit capture, inference handling, storage access and reporting.
type DocumentService struct {
	db       *gorm.DB
	s3Client *s3.S3
	esClient *elasticsearch.Client
	backend  InferenceBackend
	bucket   string
	apiHost  string
}

// NewDocumentService initializes the service with the S3, Elasticsearch and
// inference backend clients.
func NewDocumentService(db *gorm.DB) (*DocumentService, error) {
	region := os.Getenv("AWS_REGION")
	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	bucket := os.Getenv("S3_BUCKET")

	if region == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("missing required S3 configuration environment variables")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(endpoint),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	// Initialize Elasticsearch client
	esURL := os.Getenv("ELASTICSEARCH_URL")
	var esClient *elasticsearch.Client
	if esURL != "" {
		esConfig := elasticsearch.Config{
			Addresses: []string{esURL},
		}
		esClient, err = elasticsearch.NewClient(esConfig)
		if err != nil {
			log.Printf("Warning: Failed to create Elasticsearch client: %v", err)
		}
	}

	backend, err := NewInferenceBackendFromEnv(sess)
	if err != nil {
		log.Printf("Warning: inference backend not configured: %v", err)
	}

	apiHost := os.Getenv("API_HOST")
	if apiHost == "" {
		apiHost = "http://localhost:8080"
	}

	return &DocumentService{
		db:       db,
		s3Client: s3.New(sess),
		esClient: esClient,
		backend:  backend,
		bucket:   bucket,
		apiHost:  apiHost,
	}, nil
}

// GetDocument fetches a document with its site association loaded.
func (s *DocumentService) GetDocument(id string) (*model.Document, error) {
	var doc model.Document
	if err := s.db.Preload("Site").First(&doc, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "document", ID: id}
		}
		log.Printf("[GetDocument] Error fetching document %s: %v", id, err)
		return nil, err
	}
	return &doc, nil
}

// updateDocument applies mutate to the document inside one transaction,
// saving it and appending audit entries for every changed field. Last write
// wins on concurrent edits; document review is single-assignee.
func (s *DocumentService) updateDocument(id string, actor string, mutate func(*model.Document)) (*model.Document, error) {
	var updated model.Document
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var doc model.Document
		if err := tx.First(&doc, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Resource: "document", ID: id}
			}
			return err
		}
		before := doc
		mutate(&doc)
		if err := tx.Save(&doc).Error; err != nil {
			return err
		}
		if err := recordChanges(tx, doc.ID, documentChanges(&before, &doc), actor); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.indexDocument(&updated)
	return &updated, nil
}

// UpdateDocumentCategory sets the content type. An empty value fails
// validation rather than silently clearing the field.
func (s *DocumentService) UpdateDocumentCategory(id, category, actor string) (*model.Document, error) {
	return s.updateDocument(id, actor, func(doc *model.Document) {
		doc.DocumentCategory = category
	})
}

// UpdateAccessibilityRecommendation sets the disposition decision; an empty
// value resets to the default decision.
func (s *DocumentService) UpdateAccessibilityRecommendation(id, decision, actor string) (*model.Document, error) {
	if decision == "" {
		decision = model.DefaultDecision
	}
	return s.updateDocument(id, actor, func(doc *model.Document) {
		doc.AccessibilityRecommendation = decision
	})
}

// UpdateNotes replaces the reviewer notes.
func (s *DocumentService) UpdateNotes(id, notes, actor string) (*model.Document, error) {
	return s.updateDocument(id, actor, func(doc *model.Document) {
		doc.Notes = notes
	})
}

// UpdateStatus moves the document to another workflow stage, backfilling the
// default recommendation for legacy rows that predate the default.
func (s *DocumentService) UpdateStatus(id, status, actor string) (*model.Document, error) {
	return s.updateDocument(id, actor, func(doc *model.Document) {
		doc.Status = status
		if doc.AccessibilityRecommendation == "" {
			doc.AccessibilityRecommendation = model.DefaultDecision
		}
	})
}

// DocumentStatusUpdate is one item of a bulk workflow-stage update.
type DocumentStatusUpdate struct {
	ID     string `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// BatchUpdateStatuses applies every update in one transaction. If any single
// document fails validation, none of the batch's changes are committed.
func (s *DocumentService) BatchUpdateStatuses(updates []DocumentStatusUpdate, actor string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			var doc model.Document
			if err := tx.First(&doc, "id = ?", update.ID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return &NotFoundError{Resource: "document", ID: update.ID}
				}
				return err
			}
			before := doc
			doc.Status = update.Status
			if doc.AccessibilityRecommendation == "" {
				doc.AccessibilityRecommendation = model.DefaultDecision
			}
			if err := tx.Save(&doc).Error; err != nil {
				return err
			}
			if err := recordChanges(tx, doc.ID, documentChanges(&before, &doc), actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[BatchUpdateStatuses] Batch rolled back: %v", err)
	}
	return err
}

// DocumentFilters narrows a site's document listing. Decision accepts a
// grouping key and expands it to the stored terminal decisions; Department
// and Complexity accept "None" to match unset values.
type DocumentFilters struct {
	Status     string
	Filename   string
	Category   string
	Decision   string
	Department string
	Complexity string
	StartDate  *time.Time
	EndDate    *time.Time
}

// ListDocuments returns a site's documents narrowed by filters.
func (s *DocumentService) ListDocuments(siteID string, filters DocumentFilters) ([]model.Document, error) {
	query := s.db.Where("site_id = ?", siteID)

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Filename != "" {
		pattern := "%" + filters.Filename + "%"
		query = query.Where("url LIKE ? OR file_name LIKE ?", pattern, pattern)
	}
	if filters.Category != "" {
		query = query.Where("document_category = ?", filters.Category)
	}
	if filters.Decision != "" {
		query = query.Where("accessibility_recommendation IN ?", model.ExpandDecision(filters.Decision))
	}
	if filters.Department != "" {
		if filters.Department == "None" {
			query = query.Where("department IS NULL OR department = ''")
		} else {
			query = query.Where("department = ?", filters.Department)
		}
	}
	if filters.Complexity != "" {
		if filters.Complexity == "None" {
			query = query.Where("complexity IS NULL OR complexity = ''")
		} else {
			query = query.Where("complexity = ?", filters.Complexity)
		}
	}
	if filters.StartDate != nil {
		query = query.Where("modification_date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("modification_date <= ?", *filters.EndDate)
	}

	var documents []model.Document
	if err := query.Order("document_category_confidence DESC").Find(&documents).Error; err != nil {
		log.Printf("[ListDocuments] Error fetching documents for site %s: %v", siteID, err)
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	return documents, nil
}

// FetchDocumentBody proxies the live PDF from its normalized URL for inline
// serving.
func (s *DocumentService) FetchDocumentBody(doc *model.Document) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(doc.NormalizedURL())
	if err != nil {
		log.Printf("[FetchDocumentBody] PDF fetch error for %s: %v", doc.ID, err)
		return nil, fmt.Errorf("failed to retrieve the PDF document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to retrieve the PDF document: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// FileVersionMetadata describes one stored version of a document's PDF.
type FileVersionMetadata struct {
	VersionID        string     `json:"version_id"`
	ModificationDate *time.Time `json:"modification_date"`
	Size             int64      `json:"size"`
	ETag             string     `json:"etag"`
}

// DocumentFileVersions lists the stored versions for a document's storage
// key, newest first.
func (s *DocumentService) DocumentFileVersions(doc *model.Document) ([]FileVersionMetadata, error) {
	out, err := s.s3Client.ListObjectVersions(&s3.ListObjectVersionsInput{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(doc.S3Path()),
	})
	if err != nil {
		log.Printf("[DocumentFileVersions] Error listing versions for %s: %v", doc.ID, err)
		return nil, fmt.Errorf("failed to list file versions: %w", err)
	}

	versions := make([]FileVersionMetadata, 0, len(out.Versions))
	for _, v := range out.Versions {
		versions = append(versions, FileVersionMetadata{
			VersionID:        aws.StringValue(v.VersionId),
			ModificationDate: v.LastModified,
			Size:             aws.Int64Value(v.Size),
			ETag:             aws.StringValue(v.ETag),
		})
	}
	return versions, nil
}

// DocumentFileVersion fetches one stored version of a document's PDF bytes.
func (s *DocumentService) DocumentFileVersion(doc *model.Document, versionID string) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(doc.S3Path()),
	}
	if versionID != "" {
		input.VersionId = aws.String(versionID)
	}
	out, err := s.s3Client.GetObject(input)
	if err != nil {
		log.Printf("[DocumentFileVersion] Error fetching version %s for %s: %v", versionID, doc.ID, err)
		return nil, fmt.Errorf("failed to fetch file version: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// indexDocument indexes the document's searchable fields in Elasticsearch.
// Indexing is best-effort and never fails the save.
func (s *DocumentService) indexDocument(doc *model.Document) {
	if s.esClient == nil {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"site_id":           doc.SiteID,
		"file_name":         doc.DisplayFileName(),
		"url":               doc.SecureURL(),
		"document_category": doc.DocumentCategory,
		"status":            doc.Status,
		"timestamp":         time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[indexDocument] Error marshaling document %s: %v", doc.ID, err)
		return
	}

	res, err := s.esClient.Index(
		"documents",
		bytes.NewReader(body),
		s.esClient.Index.WithDocumentID(doc.ID),
		s.esClient.Index.WithContext(context.Background()),
	)
	if err != nil {
		log.Printf("[indexDocument] Elasticsearch indexing error: %v", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("[indexDocument] Elasticsearch indexing failed: %s", res.String())
	}
}

// SearchDocuments searches indexed documents by file name, url or category.
func (s *DocumentService) SearchDocuments(query string) ([]map[string]interface{}, error) {
	if s.esClient == nil {
		return nil, fmt.Errorf("elasticsearch client is not initialized")
	}

	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"file_name", "url", "document_category"},
			},
		},
	}
	body, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(context.Background()),
		s.esClient.Search.WithIndex("documents"),
		s.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s", res.String())
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hitsMap, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits structure in search response")
	}
	hitsArray, ok := hitsMap["hits"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits array in search response")
	}

	var documents []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		documents = append(documents, source)
	}
	return documents, nil
}
