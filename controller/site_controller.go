package controller

import (
	"log"
	"net/http"

	"github.com/opencivica/AccessPDF/models"
	service "github.com/opencivica/AccessPDF/service"

	"github.com/gin-gonic/gin"
)

// GetAllSites lists every site under audit.
func (c *DocumentController) GetAllSites(ctx *gin.Context) {
	sites, err := c.service.GetAllSites()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"sites": sites})
}

// CreateSite registers a new government website for auditing.
func (c *DocumentController) CreateSite(ctx *gin.Context) {
	var site models.Site
	if err := ctx.ShouldBindJSON(&site); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.service.CreateSite(&site); err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, siteJSON(&site))
}

// GetSite returns one site with its storage namespace.
func (c *DocumentController) GetSite(ctx *gin.Context) {
	site, err := c.service.GetSite(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, siteJSON(site))
}

// UpdateSite changes a site's name, location or primary URL.
func (c *DocumentController) UpdateSite(ctx *gin.Context) {
	var req struct {
		Name       string `json:"name"`
		Location   string `json:"location"`
		PrimaryURL string `json:"primary_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	site, err := c.service.UpdateSite(ctx.Param("id"), req.Name, req.Location, req.PrimaryURL)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, siteJSON(site))
}

// DeleteSite removes a site and cascades to its documents.
func (c *DocumentController) DeleteSite(ctx *gin.Context) {
	if err := c.service.DeleteSite(ctx.Param("id")); err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Site deleted successfully"})
}

// GetSiteInsights builds the reporting views for a site's filtered
// documents.
func (c *DocumentController) GetSiteInsights(ctx *gin.Context) {
	site, err := c.service.GetSite(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	insights, err := c.service.BuildSiteInsights(site, ctx.Request.URL.Query())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, insights)
}

// DiscoverDocuments is the crawler report-in endpoint: it upserts the
// reported documents into the site and returns their identifiers and
// storage paths.
func (c *DocumentController) DiscoverDocuments(ctx *gin.Context) {
	site, err := c.service.GetSite(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	var req struct {
		Documents []service.DiscoveredDocument `json:"documents" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	documents, err := c.service.DiscoverDocuments(site, req.Documents, true)
	if err != nil {
		log.Printf("[DiscoverDocuments] Error discovering documents for site %s: %v", site.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := make([]gin.H, 0, len(documents))
	for _, doc := range documents {
		results = append(results, gin.H{
			"id":              doc.ID,
			"url":             doc.SecureURL(),
			"document_status": doc.DocumentStatus,
			"s3_path":         site.DocumentS3Path(doc.ID),
		})
	}
	ctx.JSON(http.StatusCreated, gin.H{"documents": results})
}

func siteJSON(site *models.Site) gin.H {
	return gin.H{
		"id":                 site.ID,
		"name":               site.Name,
		"location":           site.Location,
		"primary_url":        site.PrimaryURL,
		"website":            site.Website(),
		"s3_endpoint_prefix": site.S3EndpointPrefix(),
	}
}
