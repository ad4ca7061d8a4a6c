package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentAuditEntry is one immutable record of a prior document state
// transition: which field changed, its before/after values, and who changed
// it. An empty Actor means the change was automated (discovery, inference
// callbacks, batch corrections); a non-empty Actor is a human edit. Entries
// are append-only and never updated.
type DocumentAuditEntry struct {
	// ID is a unique identifier for the entry, stored as a UUID.
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// DocumentID references the document whose field changed.
	DocumentID string `gorm:"type:uuid;not null;index:idx_audit_doc_field_time,priority:1" json:"document_id"`

	// Field is the changed attribute's column name.
	Field string `gorm:"not null;index:idx_audit_doc_field_time,priority:2" json:"field"`

	// Change is a JSON object {"old": ..., "new": ...} preserving the typed
	// before/after values.
	Change datatypes.JSON `json:"change"`

	// Actor identifies who made the change; empty for automated writes.
	Actor string `json:"actor,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_audit_doc_field_time,priority:3" json:"created_at"`
}

// BeforeCreate assigns the UUID primary key.
func (e *DocumentAuditEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// NewAuditChange encodes a before/after pair for the Change column.
func NewAuditChange(oldValue, newValue interface{}) datatypes.JSON {
	encoded, err := json.Marshal(map[string]interface{}{
		"old": oldValue,
		"new": newValue,
	})
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(encoded)
}

// IsHuman reports whether the entry was made by an attributable actor.
func (e *DocumentAuditEntry) IsHuman() bool {
	return e.Actor != ""
}
