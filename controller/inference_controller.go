package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReportInference is the callback endpoint the inference backend posts its
// asynchronous results to.
func (c *DocumentController) ReportInference(ctx *gin.Context) {
	doc, err := c.service.GetDocument(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	var req struct {
		InferenceType string                 `json:"inference_type" binding:"required"`
		Result        map[string]interface{} `json:"result" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.service.ReportInference(doc.ID, req.InferenceType, req.Result); err != nil {
		handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": "Inference recorded successfully"})
}

// RequestSummary triggers backend summarization for a document. A document
// that already has a summary is left alone.
func (c *DocumentController) RequestSummary(ctx *gin.Context) {
	doc, err := c.service.GetDocument(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	if err := c.service.RequestSummary(doc); err != nil {
		handleServiceError(ctx, err)
		return
	}
	summary, err := c.service.Summary(doc.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"summary": summary})
}

// RequestExceptionReview triggers backend evaluation of the ADA exception
// criteria. Skipped when exception inferences are already recorded.
func (c *DocumentController) RequestExceptionReview(ctx *gin.Context) {
	doc, err := c.service.GetDocument(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	if err := c.service.RequestExceptionReview(doc); err != nil {
		handleServiceError(ctx, err)
		return
	}
	exceptions, err := c.service.ListExceptions(doc.ID, false)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	suggestion, err := c.service.AISuggestion(doc.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"exceptions": exceptions, "suggestion": suggestion})
}
