package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document status values for the discovery/download pipeline.
const (
	DocumentStatusDiscovered = "discovered"
	DocumentStatusDownloaded = "downloaded"
)

// Document represents one discovered PDF at a URL, scoped to a site.
type Document struct {
	// ID is a unique identifier for the document, stored as a UUID.
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// SiteID references the owning site.
	SiteID string `gorm:"type:uuid;index;not null" json:"site_id"`
	Site   *Site  `json:"-"`

	// URL is where the PDF was discovered, possibly URL-encoded at rest.
	URL string `gorm:"not null" json:"url"`

	// FileName may be URL-encoded at rest; DisplayFileName decodes it.
	FileName string `gorm:"not null" json:"file_name"`

	// DocumentStatus is the pipeline state: discovered or downloaded.
	DocumentStatus string `json:"document_status"`

	// DocumentCategory is the content type, one of ContentTypes.
	DocumentCategory string `json:"document_category"`

	// DocumentCategoryConfidence is the classifier's confidence for the
	// predicted category, 0..1.
	DocumentCategoryConfidence *float64 `json:"document_category_confidence,omitempty"`

	// AccessibilityRecommendation is the stored disposition decision, one of
	// the flattened decision taxonomy. The displayed value is derived; see
	// the recommendation derivation in the service layer.
	AccessibilityRecommendation string `json:"accessibility_recommendation"`

	// Status is the audit workflow stage, one of Statuses.
	Status string `json:"status"`

	// Complexity is derived before every save, never user-settable.
	Complexity string `json:"complexity"`

	Department string `json:"department,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Author     string `json:"author,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Keywords   string `json:"keywords,omitempty"`
	Producer   string `json:"producer,omitempty"`
	PDFVersion string `gorm:"column:pdf_version" json:"pdf_version,omitempty"`

	ModificationDate *time.Time `json:"modification_date,omitempty"`
	CreationDate     *time.Time `json:"creation_date,omitempty"`

	NumberOfPages  *int `json:"number_of_pages,omitempty"`
	NumberOfTables *int `json:"number_of_tables,omitempty"`
	NumberOfImages *int `json:"number_of_images,omitempty"`

	// RawSource holds the JSON-encoded origin value; use Source/SetSource.
	RawSource string `gorm:"column:source" json:"-"`

	FileSize *float64 `json:"file_size,omitempty"`

	Inferences []DocumentInference `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the UUID primary key.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave applies create-time defaults, recomputes complexity and
// validates the record. Runs before BeforeCreate, so a blank ID means the
// record is new.
func (d *Document) BeforeSave(tx *gorm.DB) error {
	if d.ID == "" {
		d.setDefaults()
	}
	d.SetComplexity()
	return d.Validate()
}

func (d *Document) setDefaults() {
	if d.DocumentStatus == "" {
		d.DocumentStatus = DocumentStatusDiscovered
	}
	if d.AccessibilityRecommendation == "" {
		d.AccessibilityRecommendation = DefaultDecision
	}
	if d.Status == "" {
		d.Status = DefaultStatus
	}
	if d.DocumentCategory == "" {
		d.DocumentCategory = DefaultCategory
	}
}

// SetComplexity derives the Simple/Complex flag: Complex when the document
// is a form or has any tables or images.
func (d *Document) SetComplexity() {
	tables := 0
	if d.NumberOfTables != nil {
		tables = *d.NumberOfTables
	}
	images := 0
	if d.NumberOfImages != nil {
		images = *d.NumberOfImages
	}
	if d.DocumentCategory == "Form" || tables > 0 || images > 0 {
		d.Complexity = ComplexComplexity
	} else {
		d.Complexity = SimpleComplexity
	}
}

// Validate checks every field rule and reports all failures at once.
func (d *Document) Validate() error {
	verr := NewValidationError()

	if strings.TrimSpace(d.DisplayFileName()) == "" {
		verr.Add("file_name", "can't be blank")
	}
	if strings.TrimSpace(d.URL) == "" {
		verr.Add("url", "can't be blank")
	} else {
		parsed, err := url.Parse(d.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			verr.Add("url", "is not a valid URL")
		}
	}
	if d.DocumentStatus == "" {
		verr.Add("document_status", "can't be blank")
	} else if d.DocumentStatus != DocumentStatusDiscovered && d.DocumentStatus != DocumentStatusDownloaded {
		verr.Add("document_status", "is not included in the list")
	}
	if !IsValidContentType(d.DocumentCategory) {
		verr.Add("document_category", "is not included in the list")
	}
	if d.DocumentCategoryConfidence != nil && (*d.DocumentCategoryConfidence < 0 || *d.DocumentCategoryConfidence > 1) {
		verr.Add("document_category_confidence", "must be between 0 and 1")
	}
	if !IsValidDecision(d.AccessibilityRecommendation) {
		verr.Add("accessibility_recommendation", "is not included in the list")
	}
	if !IsValidStatus(d.Status) {
		verr.Add("status", "is not included in the list")
	}
	if d.Complexity != "" && d.Complexity != SimpleComplexity && d.Complexity != ComplexComplexity {
		verr.Add("complexity", "is not included in the list")
	}
	for field, count := range map[string]*int{
		"number_of_pages":  d.NumberOfPages,
		"number_of_tables": d.NumberOfTables,
		"number_of_images": d.NumberOfImages,
	} {
		if count != nil && *count < 0 {
			verr.Add(field, "must be greater than or equal to 0")
		}
	}

	if verr.Any() {
		return verr
	}
	return nil
}

// DisplayFileName decodes the stored file name once and strips characters
// with URL meaning that would corrupt a download filename.
func (d *Document) DisplayFileName() string {
	if d.FileName == "" {
		return ""
	}
	decoded, err := url.PathUnescape(d.FileName)
	if err != nil {
		decoded = d.FileName
	}
	decoded = strings.ReplaceAll(decoded, "?", "")
	return strings.ReplaceAll(decoded, "/", "")
}

// SecureURL is the stored URL with an http scheme upgraded to https. This is
// the lightly-normalized form used for display.
func (d *Document) SecureURL() string {
	return strings.Replace(d.URL, "http://", "https://", 1)
}

// NormalizedURL fully normalizes the stored URL for use as a fetch target:
// percent-decoding to a fixed point (handles double-encoding), backslashes
// to forward slashes, "+" to space, then one re-encode. Idempotent under
// re-application.
func (d *Document) NormalizedURL() string {
	decoded := recursiveDecode(d.SecureURL())
	decoded = strings.ReplaceAll(decoded, "\\", "/")
	decoded = strings.ReplaceAll(decoded, "+", " ")
	return escapeURL(decoded)
}

func recursiveDecode(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil || decoded == raw {
		return raw
	}
	return recursiveDecode(decoded)
}

// escapeURL percent-encodes every byte outside the RFC 2396 unreserved and
// reserved sets, leaving an already-escaped URL's structure intact.
func escapeURL(raw string) string {
	const safe = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" +
		"-_.!~*'()" + ";/?:@&=+$,[]#"
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
		} else {
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

// ModificationYear is the modification date's year for binning, or
// "Unknown" when the date is absent.
func (d *Document) ModificationYear() string {
	if d.ModificationDate == nil {
		return "Unknown"
	}
	return strconv.Itoa(d.ModificationDate.Year())
}

// Source parses the stored origin value.
func (d *Document) Source() Source {
	return ParseSource(d.RawSource)
}

// SetSource stores the encoded origin value.
func (d *Document) SetSource(source Source) {
	d.RawSource = source.Encode()
}

// PrimarySource is the first origin URL, or "" when unknown.
func (d *Document) PrimarySource() string {
	return d.Source().Primary()
}

// S3Path is the storage key for the document's PDF bytes. Requires the Site
// association to be loaded.
func (d *Document) S3Path() string {
	if d.Site == nil {
		return ""
	}
	return d.Site.DocumentS3Path(d.ID)
}
