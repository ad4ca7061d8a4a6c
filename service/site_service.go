package services

import (
	"log"

	model "github.com/opencivica/AccessPDF/models"

	"gorm.io/gorm"
)

// CreateSite validates and persists a new site.
func (s *DocumentService) CreateSite(site *model.Site) error {
	if err := s.db.Create(site).Error; err != nil {
		log.Printf("[CreateSite] Error saving site %s: %v", site.Name, err)
		return err
	}
	log.Printf("Site %s created successfully", site.Name)
	return nil
}

// GetAllSites lists every site.
func (s *DocumentService) GetAllSites() ([]model.Site, error) {
	var sites []model.Site
	if err := s.db.Order("name").Find(&sites).Error; err != nil {
		log.Printf("[GetAllSites] Error fetching sites: %v", err)
		return nil, err
	}
	return sites, nil
}

// GetSite fetches one site by id.
func (s *DocumentService) GetSite(id string) (*model.Site, error) {
	var site model.Site
	if err := s.db.First(&site, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "site", ID: id}
		}
		log.Printf("[GetSite] Error fetching site %s: %v", id, err)
		return nil, err
	}
	return &site, nil
}

// UpdateSite applies name/location/primary URL changes.
func (s *DocumentService) UpdateSite(id string, name, location, primaryURL string) (*model.Site, error) {
	site, err := s.GetSite(id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		site.Name = name
	}
	if location != "" {
		site.Location = location
	}
	if primaryURL != "" {
		site.PrimaryURL = primaryURL
	}
	if err := s.db.Save(site).Error; err != nil {
		log.Printf("[UpdateSite] Error updating site %s: %v", id, err)
		return nil, err
	}
	return site, nil
}

// DeleteSite removes a site; its documents, their inferences and audit
// entries cascade with it.
func (s *DocumentService) DeleteSite(id string) error {
	site, err := s.GetSite(id)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var documentIDs []string
		if err := tx.Model(&model.Document{}).Where("site_id = ?", site.ID).Pluck("id", &documentIDs).Error; err != nil {
			return err
		}
		if len(documentIDs) > 0 {
			if err := tx.Where("document_id IN ?", documentIDs).Delete(&model.DocumentInference{}).Error; err != nil {
				return err
			}
			if err := tx.Where("document_id IN ?", documentIDs).Delete(&model.DocumentAuditEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Where("site_id = ?", site.ID).Delete(&model.Document{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(site).Error
	})
}
