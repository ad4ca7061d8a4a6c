package services

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	model "github.com/opencivica/AccessPDF/models"

	"gorm.io/gorm"
)

// inferencePageLimit caps how many pages the backend reads per document.
const inferencePageLimit = 7

// UpsertInference creates the inference record for (document, type) or
// overwrites its value, confidence and reason in place. Duplicate rows for
// the same type are never created.
func (s *DocumentService) UpsertInference(documentID, inferenceType, value string, confidence *float64, reason string) (*model.DocumentInference, error) {
	var inference model.DocumentInference
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("document_id = ? AND inference_type = ?", documentID, inferenceType).
			First(&inference).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		if err == gorm.ErrRecordNotFound {
			inference = model.DocumentInference{
				DocumentID:    documentID,
				InferenceType: inferenceType,
			}
		}
		inference.InferenceValue = value
		inference.InferenceConfidence = confidence
		inference.InferenceReason = reason
		return tx.Save(&inference).Error
	})
	if err != nil {
		log.Printf("[UpsertInference] Error upserting %s for document %s: %v", inferenceType, documentID, err)
		return nil, err
	}
	return &inference, nil
}

// GetInference fetches the inference for (document, type), or nil when none
// has been recorded.
func (s *DocumentService) GetInference(documentID, inferenceType string) (*model.DocumentInference, error) {
	var inference model.DocumentInference
	err := s.db.Where("document_id = ? AND inference_type = ?", documentID, inferenceType).
		First(&inference).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &inference, nil
}

// Summary returns the document's summary inference text, or "" when no
// summary has landed yet.
func (s *DocumentService) Summary(documentID string) (string, error) {
	inference, err := s.GetInference(documentID, model.SummaryInferenceType)
	if err != nil || inference == nil {
		return "", err
	}
	return inference.InferenceValue, nil
}

// ListExceptions returns the document's exception inferences, optionally
// filtered to those that hold, ordered per the inference taxonomy. Unknown
// types sort last, stable otherwise.
func (s *DocumentService) ListExceptions(documentID string, requireTrue bool) ([]model.DocumentInference, error) {
	var inferences []model.DocumentInference
	if err := s.db.Where("document_id = ?", documentID).Find(&inferences).Error; err != nil {
		log.Printf("[ListExceptions] Error fetching inferences for document %s: %v", documentID, err)
		return nil, err
	}

	selected := make([]model.DocumentInference, 0, len(inferences))
	for _, inference := range inferences {
		if !inference.IsException() {
			continue
		}
		if requireTrue && !inference.IsTrue() {
			continue
		}
		selected = append(selected, inference)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return model.InferenceTypeRank(selected[i].InferenceType) < model.InferenceTypeRank(selected[j].InferenceType)
	})
	return selected, nil
}

// exceptionResultKeys are the report-back sub-field stems, in the order the
// backend emits them.
var exceptionResultKeys = []string{"individualized", "archival", "application", "third_party"}

// ReportInference handles the backend's asynchronous result report. Summary
// results upsert a single summary inference; exception results upsert one
// row per is_<x> sub-field present in the payload.
func (s *DocumentService) ReportInference(documentID, inferenceType string, result map[string]interface{}) error {
	switch inferenceType {
	case "summary":
		summary, _ := result["summary"].(string)
		_, err := s.UpsertInference(documentID, model.SummaryInferenceType, summary, nil, "")
		return err
	case "exception":
		for _, key := range exceptionResultKeys {
			flag, present := result["is_"+key]
			if !present || flag == nil {
				continue
			}
			value := "False"
			if truthy(flag) {
				value = "True"
			}
			var confidence *float64
			if c, ok := result["is_"+key+"_confidence"].(float64); ok {
				confidence = &c
			}
			reason, _ := result["why_"+key].(string)
			if _, err := s.UpsertInference(documentID, model.ExceptionInferencePrefix+"is_"+key, value, confidence, reason); err != nil {
				return err
			}
		}
		return nil
	default:
		verr := model.NewValidationError()
		verr.Add("inference_type", "is not included in the list")
		return verr
	}
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// RequestSummary asks the backend to summarize the document. Skipped when a
// summary already exists, so re-invoking while no result has landed creates
// no duplicate pending state.
func (s *DocumentService) RequestSummary(doc *model.Document) error {
	summary, err := s.Summary(doc.ID)
	if err != nil {
		return err
	}
	if summary != "" {
		return nil
	}

	payload := map[string]interface{}{
		"model": envOr("SUMMARY_MODEL", "gemini-2.0-flash"),
		"documents": []map[string]interface{}{{
			"id":      doc.ID,
			"title":   doc.DisplayFileName(),
			"url":     doc.NormalizedURL(),
			"purpose": doc.DocumentCategory,
		}},
		"page_limit":     inferencePageLimit,
		"inference_type": "summary",
		"callback_url":   fmt.Sprintf("%s/documents/%s/inference", s.apiHost, doc.ID),
	}
	return s.invokeBackend(payload)
}

// RequestExceptionReview asks the backend to evaluate the ADA exceptions.
// Skipped when any exception inference already exists.
func (s *DocumentService) RequestExceptionReview(doc *model.Document) error {
	recorded, err := s.ListExceptions(doc.ID, false)
	if err != nil {
		return err
	}
	if len(recorded) > 0 {
		return nil
	}

	documentPayload := map[string]interface{}{
		"id":      doc.ID,
		"title":   doc.DisplayFileName(),
		"url":     doc.NormalizedURL(),
		"purpose": doc.DocumentCategory,
	}
	if doc.CreationDate != nil {
		documentPayload["creation_date"] = doc.CreationDate
	}
	payload := map[string]interface{}{
		"model":          envOr("EXCEPTION_MODEL", "gemini-2.5-pro-preview-03-25"),
		"documents":      []map[string]interface{}{documentPayload},
		"page_limit":     inferencePageLimit,
		"inference_type": "exception",
		"callback_url":   fmt.Sprintf("%s/documents/%s/inference", s.apiHost, doc.ID),
	}
	return s.invokeBackend(payload)
}

// invokeBackend performs the bounded synchronous invocation. Transport
// errors and non-200 statuses surface as InferenceInvocationError; no
// inference record is written on failure.
func (s *DocumentService) invokeBackend(payload map[string]interface{}) error {
	if s.backend == nil {
		return &InferenceInvocationError{Err: fmt.Errorf("inference backend is not configured")}
	}
	status, body, err := s.backend.Invoke(payload)
	if err != nil {
		return &InferenceInvocationError{Err: err}
	}
	if status != 200 {
		return &InferenceInvocationError{StatusCode: status, Body: body}
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
