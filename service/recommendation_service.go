package services

import (
	"fmt"

	model "github.com/opencivica/AccessPDF/models"
)

// AISuggestion computes the inference-derived recommendation for a document:
// "Might be exception" when any exception inference holds, "Likely not
// exception" when exception inferences exist but none hold, and "" when no
// exception inference has been recorded yet.
func (s *DocumentService) AISuggestion(documentID string) (string, error) {
	recorded, err := s.ListExceptions(documentID, false)
	if err != nil {
		return "", err
	}
	if len(recorded) == 0 {
		return "", nil
	}
	holding, err := s.ListExceptions(documentID, true)
	if err != nil {
		return "", err
	}
	if len(holding) > 0 {
		return model.AISuggestionException, nil
	}
	return model.AISuggestionNoException, nil
}

// EffectiveRecommendation reconciles human overrides with AI inference. A
// human-attributed change to the recommendation field permanently wins until
// a newer human edit supersedes it; otherwise the AI suggestion is shown,
// falling back to the stored value (the system default on untouched
// documents).
func (s *DocumentService) EffectiveRecommendation(doc *model.Document) (string, error) {
	human, err := s.LastChangedByHuman(doc.ID, "accessibility_recommendation")
	if err != nil {
		return "", err
	}
	if human {
		return doc.AccessibilityRecommendation, nil
	}
	suggestion, err := s.AISuggestion(doc.ID)
	if err != nil {
		return "", err
	}
	if suggestion != "" {
		return suggestion, nil
	}
	return doc.AccessibilityRecommendation, nil
}

// DisplayRecommendation renders the recommendation for the review UI. When a
// human override hides an AI suggestion, both are shown so reviewers can see
// what the model would have said.
func (s *DocumentService) DisplayRecommendation(doc *model.Document) (string, error) {
	human, err := s.LastChangedByHuman(doc.ID, "accessibility_recommendation")
	if err != nil {
		return "", err
	}
	suggestion, err := s.AISuggestion(doc.ID)
	if err != nil {
		return "", err
	}
	if human {
		if suggestion != "" {
			return fmt.Sprintf("%s (User override: %s)", suggestion, doc.AccessibilityRecommendation), nil
		}
		return doc.AccessibilityRecommendation, nil
	}
	if suggestion != "" {
		return suggestion, nil
	}
	return doc.AccessibilityRecommendation, nil
}
