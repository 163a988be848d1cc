package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/api"
	"github.com/RepettoEstates/listing_svc/internal/lifecycle"
	"github.com/RepettoEstates/listing_svc/internal/metrics"
	"github.com/RepettoEstates/listing_svc/internal/notifications"
	"github.com/RepettoEstates/listing_svc/internal/task"
)

const metricsRoutePath = "/metrics"

// buildRouter assembles the gin engine with middleware and all API routes.
func buildRouter(database *gorm.DB, logger *zap.Logger, dispatcher *notifications.Dispatcher, worker *task.DispatchWorker, serverConfig ServerConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger(logger))
	router.Use(metrics.RequestMetrics())

	corsConfiguration := cors.DefaultConfig()
	corsConfiguration.AllowAllOrigins = true
	corsConfiguration.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfiguration))

	coordinator := lifecycle.NewCoordinator(database, logger, coordinatorNotifier(dispatcher)).WithWorker(worker)

	catalogHandlers := api.NewCatalogHandlers(database, logger)
	blogHandlers := api.NewBlogHandlers(database, logger)
	publicHandlers := api.NewPublicHandlers(database, logger, intakeNotifier(dispatcher), worker, serverConfig.BusinessHours)
	adminHandlers := api.NewAdminHandlers(database, logger, coordinator)

	router.GET(metricsRoutePath, gin.WrapH(promhttp.Handler()))

	router.GET("/api/properties", catalogHandlers.ListProperties)
	router.GET("/api/properties/:property_id", catalogHandlers.GetProperty)
	router.GET("/api/sellers", catalogHandlers.ListSellers)
	router.GET("/api/blog/posts", blogHandlers.ListPosts)
	router.GET("/api/blog/posts/:slug", blogHandlers.GetPost)
	router.GET("/api/blog/categories", blogHandlers.ListCategories)

	router.POST("/api/contact", publicHandlers.CreateContactInquiry)
	router.POST("/api/properties/:property_id/contact", publicHandlers.CreatePropertyInquiry)
	router.POST("/api/properties/:property_id/visit-requests", publicHandlers.CreateVisitRequest)
	router.POST("/api/newsletter/subscribe", publicHandlers.CreateSubscription)
	router.GET("/api/newsletter/confirm/:token", publicHandlers.ConfirmSubscription)

	adminGroup := router.Group("/api/admin", api.AdminAuthMiddleware(serverConfig.AdminBearerToken))
	adminGroup.POST("/sellers", adminHandlers.CreateSeller)
	adminGroup.PUT("/sellers/:seller_id", adminHandlers.UpdateSeller)
	adminGroup.DELETE("/sellers/:seller_id", adminHandlers.DeleteSeller)
	adminGroup.POST("/properties", adminHandlers.CreateProperty)
	adminGroup.PUT("/properties/:property_id", adminHandlers.UpdateProperty)
	adminGroup.DELETE("/properties/:property_id", adminHandlers.DeleteProperty)
	adminGroup.POST("/blog/categories", adminHandlers.CreateBlogCategory)
	adminGroup.DELETE("/blog/categories/:category_id", adminHandlers.DeleteBlogCategory)
	adminGroup.POST("/blog/posts", adminHandlers.CreateBlogPost)
	adminGroup.PUT("/blog/posts/:post_id", adminHandlers.UpdateBlogPost)
	adminGroup.DELETE("/blog/posts/:post_id", adminHandlers.DeleteBlogPost)
	adminGroup.POST("/blog/posts/bulk", adminHandlers.BulkUpdateBlogPosts)
	adminGroup.GET("/inquiries", adminHandlers.ListInquiries)
	adminGroup.PATCH("/inquiries/:inquiry_id", adminHandlers.UpdateInquiry)
	adminGroup.GET("/visit-requests", adminHandlers.ListVisitRequests)
	adminGroup.PATCH("/visit-requests/:visit_request_id", adminHandlers.UpdateVisitRequest)
	adminGroup.GET("/subscribers", adminHandlers.ListSubscribers)

	router.NoRoute(func(ginContext *gin.Context) {
		ginContext.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return router
}
