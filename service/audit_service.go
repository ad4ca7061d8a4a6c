package services

import (
	"log"
	"time"

	model "github.com/opencivica/AccessPDF/models"

	"gorm.io/gorm"
)

// fieldChange captures one attribute's before/after pair for the audit
// trail.
type fieldChange struct {
	Field    string
	OldValue interface{}
	NewValue interface{}
}

// recordChanges appends one audit entry per changed field inside the
// caller's transaction. An empty actor marks the change as automated.
func recordChanges(tx *gorm.DB, documentID string, changes []fieldChange, actor string) error {
	for _, change := range changes {
		entry := model.DocumentAuditEntry{
			DocumentID: documentID,
			Field:      change.Field,
			Change:     model.NewAuditChange(change.OldValue, change.NewValue),
			Actor:      actor,
			CreatedAt:  time.Now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			log.Printf("[recordChanges] Error recording audit entry for %s.%s: %v", documentID, change.Field, err)
			return err
		}
	}
	return nil
}

// documentChanges diffs the auditable document fields between two snapshots.
func documentChanges(before, after *model.Document) []fieldChange {
	var changes []fieldChange
	pairs := []struct {
		field    string
		oldValue string
		newValue string
	}{
		{"url", before.URL, after.URL},
		{"file_name", before.FileName, after.FileName},
		{"document_status", before.DocumentStatus, after.DocumentStatus},
		{"document_category", before.DocumentCategory, after.DocumentCategory},
		{"accessibility_recommendation", before.AccessibilityRecommendation, after.AccessibilityRecommendation},
		{"status", before.Status, after.Status},
		{"notes", before.Notes, after.Notes},
		{"department", before.Department, after.Department},
		{"source", before.RawSource, after.RawSource},
	}
	for _, pair := range pairs {
		if pair.oldValue != pair.newValue {
			changes = append(changes, fieldChange{Field: pair.field, OldValue: pair.oldValue, NewValue: pair.newValue})
		}
	}
	if !timesEqual(before.ModificationDate, after.ModificationDate) {
		changes = append(changes, fieldChange{Field: "modification_date", OldValue: before.ModificationDate, NewValue: after.ModificationDate})
	}
	return changes
}

// LastChangedByHuman answers whether the most recent audit entry for a
// document field carries an attributable actor. Any entry with a recorded
// actor counts as human; entries without one are automated.
func (s *DocumentService) LastChangedByHuman(documentID, field string) (bool, error) {
	var entry model.DocumentAuditEntry
	err := s.db.Where("document_id = ? AND field = ?", documentID, field).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		log.Printf("[LastChangedByHuman] Error fetching audit entries for %s.%s: %v", documentID, field, err)
		return false, err
	}
	return entry.IsHuman(), nil
}

// AuditTrail returns a document's audit entries, most recent first.
func (s *DocumentService) AuditTrail(documentID string) ([]model.DocumentAuditEntry, error) {
	var entries []model.DocumentAuditEntry
	if err := s.db.Where("document_id = ?", documentID).Order("created_at DESC").Find(&entries).Error; err != nil {
		log.Printf("[AuditTrail] Error fetching audit entries for %s: %v", documentID, err)
		return nil, err
	}
	return entries, nil
}
