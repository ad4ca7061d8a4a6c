package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inference type keys. The exception keys correspond to the ADA web rule's
// remediation exceptions.
const (
	SummaryInferenceType          = "summary"
	IsArchivalInferenceType       = "exception:is_archival"
	IsApplicationInferenceType    = "exception:is_application"
	IsThirdPartyInferenceType     = "exception:is_third_party"
	IsIndividualizedInferenceType = "exception:is_individualized"
)

// ExceptionInferencePrefix marks the exception sub-types.
const ExceptionInferencePrefix = "exception:"

// InferenceTypeInfo describes one entry of the inference taxonomy.
type InferenceTypeInfo struct {
	Key   string
	Label string
	URL   string
}

// InferenceTypes is the ordered inference taxonomy. The order defines the
// display and tie-break order of exception inferences; new keys are appended,
// never inserted, to keep historical sort order stable.
var InferenceTypes = []InferenceTypeInfo{
	{Key: SummaryInferenceType, Label: "Summary"},
	{
		Key:   IsArchivalInferenceType,
		Label: "Archived web content",
		URL:   "https://www.ada.gov/resources/2024-03-08-web-rule/#1-archived-web-content",
	},
	{
		Key:   IsApplicationInferenceType,
		Label: "Preexisting documents",
		URL:   "https://www.ada.gov/resources/2024-03-08-web-rule/#2-preexisting-conventional-electronic-documents",
	},
	{
		Key:   IsThirdPartyInferenceType,
		Label: "Third party content",
		URL:   "https://www.ada.gov/resources/2024-03-08-web-rule/#3-content-posted-by-a-third-party-where-the-third-party-is-not-posting-due-to-contractual-licensing-or-other-arrangements-with-a-public-entity",
	},
	{
		Key:   IsIndividualizedInferenceType,
		Label: "Individualized documents",
		URL:   "https://www.ada.gov/resources/2024-03-08-web-rule/#4-individualized-documents-that-are-password-protected",
	},
}

// IsValidInferenceType reports whether key is in the taxonomy.
func IsValidInferenceType(key string) bool {
	for _, info := range InferenceTypes {
		if info.Key == key {
			return true
		}
	}
	return false
}

// InferenceTypeRank returns the taxonomy position of key; unknown keys rank
// last so sorts on historical data stay stable.
func InferenceTypeRank(key string) int {
	for i, info := range InferenceTypes {
		if info.Key == key {
			return i
		}
	}
	return len(InferenceTypes)
}

// InferenceTypeLabel returns the display label for key, or the key itself
// when unknown.
func InferenceTypeLabel(key string) string {
	for _, info := range InferenceTypes {
		if info.Key == key {
			return info.Label
		}
	}
	return key
}

// DocumentInference is one AI-derived fact about a document. At most one
// record exists per (document, inference type) pair; the store upserts in
// place.
type DocumentInference struct {
	// ID is a unique identifier for the inference, stored as a UUID.
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// DocumentID references the document the fact is about.
	DocumentID string `gorm:"type:uuid;not null;uniqueIndex:idx_document_inferences_doc_type" json:"document_id"`

	// InferenceType is one of the InferenceTypes keys.
	InferenceType string `gorm:"not null;uniqueIndex:idx_document_inferences_doc_type" json:"inference_type"`

	// InferenceValue is "True"/"False" for exceptions, free text for summary.
	InferenceValue string `gorm:"not null" json:"inference_value"`

	// InferenceConfidence is the model's confidence, when reported.
	InferenceConfidence *float64 `json:"inference_confidence,omitempty"`

	// InferenceReason is the model's explanation, when reported.
	InferenceReason string `json:"inference_reason,omitempty"`

	CreatedAt time.Time `json:"creation_date"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate assigns the UUID primary key.
func (i *DocumentInference) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave validates the inference type and value presence.
func (i *DocumentInference) BeforeSave(tx *gorm.DB) error {
	return i.Validate()
}

// Validate checks the type against the taxonomy and requires a value.
func (i *DocumentInference) Validate() error {
	verr := NewValidationError()
	if !IsValidInferenceType(i.InferenceType) {
		verr.Add("inference_type", "is not included in the list")
	}
	if i.InferenceValue == "" {
		verr.Add("inference_value", "can't be blank")
	}
	if verr.Any() {
		return verr
	}
	return nil
}

// IsException reports whether the inference is one of the exception
// sub-types.
func (i *DocumentInference) IsException() bool {
	return strings.HasPrefix(i.InferenceType, ExceptionInferencePrefix)
}

// IsTrue reports whether an exception inference holds, case-insensitively.
func (i *DocumentInference) IsTrue() bool {
	return strings.EqualFold(i.InferenceValue, "true")
}
