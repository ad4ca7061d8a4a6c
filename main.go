package main

import (
	"log"
	"net/http"

	controller "github.com/opencivica/AccessPDF/controller"
	"github.com/opencivica/AccessPDF/initializers"
	middleware "github.com/opencivica/AccessPDF/middleware"
	service "github.com/opencivica/AccessPDF/service"

	"github.com/gin-gonic/gin"
)

func init() {
	if err := initializers.LoadEnv(); err != nil {
		log.Fatalf("[CRITICAL] Failed to load env: %s", err)
	}
	if err := initializers.ConnectDB(); err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
	}
	if err := initializers.Migrate(); err != nil {
		log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
	}
}

func main() {
	docService, err := service.NewDocumentService(initializers.DB)
	if err != nil {
		log.Fatalf("Failed to initialize document service: %s", err)
	}

	docController := controller.NewDocumentController(docService)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())

	// Global rate limiter for most routes
	router.Use(middleware.GlobalRateLimiter.Limit())

	// Sites
	router.GET("/sites", docController.GetAllSites)
	router.POST("/sites", docController.CreateSite)
	router.GET("/sites/:id", docController.GetSite)
	router.PUT("/sites/:id", docController.UpdateSite)
	router.DELETE("/sites/:id", docController.DeleteSite)
	router.GET("/sites/:id/insights", docController.GetSiteInsights)

	// Site documents: crawler report-in, listing and bulk workflow moves
	router.POST("/sites/:id/documents", docController.DiscoverDocuments)
	router.GET("/sites/:id/documents", docController.ListDocuments)
	router.POST("/sites/:id/documents/batch_update", docController.BatchUpdateStatuses)

	// Documents
	router.GET("/documents/:id", docController.GetDocument)
	router.GET("/documents/:id/audit_trail", docController.GetAuditTrail)
	router.PATCH("/documents/:id/category", docController.UpdateDocumentCategory)
	router.PATCH("/documents/:id/recommendation", docController.UpdateAccessibilityRecommendation)
	router.PATCH("/documents/:id/notes", docController.UpdateNotes)
	router.PATCH("/documents/:id/status", docController.UpdateStatus)
	router.GET("/documents/:id/file", docController.ServeDocumentFile)
	router.GET("/documents/:id/versions", docController.ListFileVersions)
	router.GET("/documents/:id/versions/:version_id", docController.GetFileVersion)

	// Inference: result report-in plus invocation triggers, rate limited
	// to protect the backend quota
	router.POST("/documents/:id/inference", docController.ReportInference)
	router.POST("/documents/:id/summarize",
		middleware.InferenceRateLimiter.Limit(),
		docController.RequestSummary)
	router.POST("/documents/:id/exception_review",
		middleware.InferenceRateLimiter.Limit(),
		docController.RequestExceptionReview)

	// Other endpoints
	router.GET("/search", docController.SearchDocuments)

	// Healthcheck endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.Run(":8080")
}
