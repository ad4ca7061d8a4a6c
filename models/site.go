package models

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Site is one government website under accessibility audit. It owns the
// documents discovered on it; deleting a site cascades to them.
type Site struct {
	// ID is a unique identifier for the site, stored as a UUID.
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// Name is the site's display name, unique across the system.
	Name string `gorm:"not null;uniqueIndex" json:"name"`

	// Location is the governmental entity's location (e.g. "Salt Lake City, UT").
	Location string `gorm:"not null" json:"location"`

	// PrimaryURL is the site's canonical http/https URL, unique across the
	// system. The storage namespace is derived from its host.
	PrimaryURL string `gorm:"not null;uniqueIndex" json:"primary_url"`

	Documents []Document `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

var nonPrefixChars = regexp.MustCompile(`[^a-z0-9]+`)

// BeforeCreate assigns the UUID primary key.
func (s *Site) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave validates the site, reporting every invalid field at once.
func (s *Site) BeforeSave(tx *gorm.DB) error {
	return s.Validate()
}

// Validate checks presence of name/location and that the primary URL is a
// well-formed http or https URL.
func (s *Site) Validate() error {
	verr := NewValidationError()
	if strings.TrimSpace(s.Name) == "" {
		verr.Add("name", "can't be blank")
	}
	if strings.TrimSpace(s.Location) == "" {
		verr.Add("location", "can't be blank")
	}
	if strings.TrimSpace(s.PrimaryURL) == "" {
		verr.Add("primary_url", "can't be blank")
	} else {
		parsed, err := url.Parse(strings.TrimSpace(s.PrimaryURL))
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			verr.Add("primary_url", "must be a valid http or https URL")
		}
	}
	if verr.Any() {
		return verr
	}
	return nil
}

// Website is the primary URL without scheme or trailing slash, for display.
func (s *Site) Website() string {
	if s.PrimaryURL == "" {
		return ""
	}
	website := s.PrimaryURL
	website = strings.TrimPrefix(website, "https://")
	website = strings.TrimPrefix(website, "http://")
	return strings.TrimSuffix(website, "/")
}

// S3EndpointPrefix is the storage namespace derived from the primary URL's
// host: lowercased, non-alphanumeric runs collapsed to a single "-", leading
// and trailing "-" stripped. Stable for a given primary URL.
func (s *Site) S3EndpointPrefix() string {
	if s.PrimaryURL == "" {
		return ""
	}
	parsed, err := url.Parse(strings.TrimSpace(s.PrimaryURL))
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	prefix := nonPrefixChars.ReplaceAllString(host, "-")
	return strings.Trim(prefix, "-")
}

// DocumentS3Path is the storage key for a document's PDF bytes. The key is
// fully determined by site and document id, never by filename.
func (s *Site) DocumentS3Path(documentID string) string {
	return fmt.Sprintf("%s/%s/document.pdf", s.S3EndpointPrefix(), documentID)
}
