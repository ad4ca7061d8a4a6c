package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/opencivica/AccessPDF/models"
	service "github.com/opencivica/AccessPDF/service"

	"github.com/gin-gonic/gin"
)

// DocumentController exposes the audit workflow over HTTP. Handlers stay
// thin: bind, delegate to the service, map errors to status codes.
type DocumentController struct {
	service *service.DocumentService
}

func NewDocumentController(service *service.DocumentService) *DocumentController {
	return &DocumentController{service: service}
}

// handleServiceError maps service errors onto HTTP statuses: validation
// failures are 422, missing records 404, inference backend failures 502.
func handleServiceError(ctx *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.FullMessages()})
		return
	}
	var nferr *service.NotFoundError
	if errors.As(err, &nferr) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": nferr.Error()})
		return
	}
	var ierr *service.InferenceInvocationError
	if errors.As(err, &ierr) {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": ierr.Error()})
		return
	}
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// actor identifies who performed a change. Absent header means the change
// is automated and will not count as a human override.
func actor(ctx *gin.Context) string {
	return ctx.GetHeader("X-Actor")
}

// ListDocuments returns a site's documents narrowed by query filters.
func (c *DocumentController) ListDocuments(ctx *gin.Context) {
	filters := service.DocumentFilters{
		Status:     ctx.Query("status"),
		Filename:   ctx.Query("filename"),
		Category:   ctx.Query("category"),
		Decision:   ctx.Query("accessibility_recommendation"),
		Department: ctx.Query("department"),
		Complexity: ctx.Query("complexity"),
	}
	if start := ctx.Query("start_date"); start != "" {
		parsed, err := time.Parse("2006-01-02", start)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be formatted YYYY-MM-DD"})
			return
		}
		filters.StartDate = &parsed
	}
	if end := ctx.Query("end_date"); end != "" {
		parsed, err := time.Parse("2006-01-02", end)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be formatted YYYY-MM-DD"})
			return
		}
		filters.EndDate = &parsed
	}

	documents, err := c.service.ListDocuments(ctx.Param("id"), filters)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"documents": documents})
}

// GetDocument returns one document with its derived recommendation, summary
// and exception inferences.
func (c *DocumentController) GetDocument(ctx *gin.Context) {
	doc, err := c.service.GetDocument(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	display, err := c.service.DisplayRecommendation(doc)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summary, err := c.service.Summary(doc.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	exceptions, err := c.service.ListExceptions(doc.ID, false)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"document":               doc,
		"display_recommendation": display,
		"summary":                summary,
		"exceptions":             exceptions,
	})
}

// GetAuditTrail returns a document's change history, newest first.
func (c *DocumentController) GetAuditTrail(ctx *gin.Context) {
	doc, err := c.service.GetDocument(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	entries, err := c.service.AuditTrail(doc.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"audit_trail": entries})
}

type valueUpdateRequest struct {
	Value string `json:"value"`
}

// UpdateDocumentCategory sets the document's content type.
func (c *DocumentController) UpdateDocumentCategory(ctx *gin.Context) {
	var req valueUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := c.service.UpdateDocumentCategory(ctx.Param("id"), req.Value, actor(ctx))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"document": doc})
}

// UpdateAccessibilityRecommendation records a disposition decision for the
// document. Changes attributed via X-Actor count as human overrides.
func (c *DocumentController) UpdateAccessibilityRecommendation(ctx *gin.Context) {
	var req valueUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := c.service.UpdateAccessibilityRecommendation(ctx.Param("id"), req.Value, actor(ctx))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	display, err := c.service.DisplayRecommendation(doc)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"document": doc, "display_recommendation": display})
}

// UpdateNotes replaces the reviewer notes.
func (c *DocumentController) UpdateNotes(ctx *gin.Context) {
	var req valueUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := c.service.UpdateNotes(ctx.Param("id"), req.Value, actor(ctx))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"document": doc})
}

// UpdateStatus moves the document through the review workflow.
func (c *DocumentController) UpdateStatus(ctx *gin.Context) {
	var req valueUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := c.service.UpdateStatus(ctx.Param("id"), req.Value, actor(ctx))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"document": doc})
}

// BatchUpdateStatuses moves several documents at once. The batch is
// all-or-nothing: one invalid document rolls back every change.
func (c *DocumentController) BatchUpdateStatuses(ctx *gin.Context) {
	var req struct {
		Documents []service.DocumentStatusUpdate `json:"documents" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.service.BatchUpdateStatuses(req.Documents, actor(ctx)); err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%d documents updated successfully", len(req.Documents))})
}

// ServeDocumentFile proxies the live PDF inline so the review UI can embed
// it without exposing the origin server.
func (c *DocumentController) ServeDocumentFile(ctx *gin.Context) {
	doc, err := c.service.GetDocument(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	body, err := c.service.FetchDocumentBody(doc)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.DisplayFileName()))
	ctx.Data(http.StatusOK, "application/pdf", body)
}

// ListFileVersions lists the archived copies of a document's PDF.
func (c *DocumentController) ListFileVersions(ctx *gin.Context) {
	doc, err := c.service.GetDocument(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	versions, err := c.service.DocumentFileVersions(doc)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"versions": versions})
}

// GetFileVersion serves one archived copy of a document's PDF.
func (c *DocumentController) GetFileVersion(ctx *gin.Context) {
	doc, err := c.service.GetDocument(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	body, err := c.service.DocumentFileVersion(doc, ctx.Param("version_id"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.DisplayFileName()))
	ctx.Data(http.StatusOK, "application/pdf", body)
}

// SearchDocuments searches the indexed documents by file name, URL or
// category.
func (c *DocumentController) SearchDocuments(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}
	results, err := c.service.SearchDocuments(query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": results})
}
