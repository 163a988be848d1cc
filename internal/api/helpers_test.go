package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/api"
	"github.com/RepettoEstates/listing_svc/internal/lifecycle"
	"github.com/RepettoEstates/listing_svc/internal/model"
	"github.com/RepettoEstates/listing_svc/internal/testutil"
)

const testAdminBearerToken = "test-admin-token"

type recordingIntakeNotifier struct {
	inquiries     []model.Inquiry
	visits        []model.VisitRequest
	confirmations []model.Subscriber
	welcomes      []model.Subscriber
}

func (notifier *recordingIntakeNotifier) NotifyInquiryReceived(_ context.Context, inquiry model.Inquiry) bool {
	notifier.inquiries = append(notifier.inquiries, inquiry)
	return true
}

func (notifier *recordingIntakeNotifier) NotifyVisitRequestReceived(_ context.Context, visit model.VisitRequest) bool {
	notifier.visits = append(notifier.visits, visit)
	return true
}

func (notifier *recordingIntakeNotifier) SendSubscriptionConfirmation(_ context.Context, subscriber model.Subscriber) bool {
	notifier.confirmations = append(notifier.confirmations, subscriber)
	return true
}

func (notifier *recordingIntakeNotifier) SendSubscriptionWelcome(_ context.Context, subscriber model.Subscriber) bool {
	notifier.welcomes = append(notifier.welcomes, subscriber)
	return true
}

type recordingLifecycleNotifier struct {
	answered  []model.Inquiry
	confirmed []model.VisitRequest
	declined  []model.VisitRequest
}

func (notifier *recordingLifecycleNotifier) NotifyInquiryAnswered(_ context.Context, inquiry model.Inquiry) bool {
	notifier.answered = append(notifier.answered, inquiry)
	return true
}

func (notifier *recordingLifecycleNotifier) NotifyVisitConfirmed(_ context.Context, visit model.VisitRequest) bool {
	notifier.confirmed = append(notifier.confirmed, visit)
	return true
}

func (notifier *recordingLifecycleNotifier) NotifyVisitDeclined(_ context.Context, visit model.VisitRequest) bool {
	notifier.declined = append(notifier.declined, visit)
	return true
}

type testEnvironment struct {
	database          *gorm.DB
	router            *gin.Engine
	intakeNotifier    *recordingIntakeNotifier
	lifecycleNotifier *recordingLifecycleNotifier
}

func newTestEnvironment(testingT *testing.T) *testEnvironment {
	testingT.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.NewSQLiteTestDatabase(testingT).Open(testingT)
	logger := zap.NewNop()
	intakeNotifier := &recordingIntakeNotifier{}
	lifecycleNotifier := &recordingLifecycleNotifier{}

	publicHandlers := api.NewPublicHandlers(database, logger, intakeNotifier, nil, model.DefaultBusinessHours)
	catalogHandlers := api.NewCatalogHandlers(database, logger)
	blogHandlers := api.NewBlogHandlers(database, logger)
	coordinator := lifecycle.NewCoordinator(database, logger, lifecycleNotifier)
	adminHandlers := api.NewAdminHandlers(database, logger, coordinator)

	router := gin.New()
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

	adminGroup := router.Group("/api/admin", api.AdminAuthMiddleware(testAdminBearerToken))
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

	return &testEnvironment{
		database:          database,
		router:            router,
		intakeNotifier:    intakeNotifier,
		lifecycleNotifier: lifecycleNotifier,
	}
}

func (environment *testEnvironment) performJSON(testingT *testing.T, method string, path string, payload any, bearerToken string) *httptest.ResponseRecorder {
	testingT.Helper()

	var body *bytes.Buffer
	if payload != nil {
		encoded, marshalErr := json.Marshal(payload)
		require.NoError(testingT, marshalErr)
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	request := httptest.NewRequest(method, path, body)
	request.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		request.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	recorder := httptest.NewRecorder()
	environment.router.ServeHTTP(recorder, request)
	return recorder
}

func decodeJSONBody(testingT *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	testingT.Helper()
	var decoded map[string]any
	require.NoError(testingT, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return decoded
}

func (environment *testEnvironment) createSeller(testingT *testing.T, email string) model.Seller {
	testingT.Helper()
	seller, buildErr := model.NewSeller(model.SellerInput{
		FirstName: "Carla",
		LastName:  "Mendez",
		Phone:     "3764123456",
		Email:     email,
	})
	require.NoError(testingT, buildErr)
	require.NoError(testingT, environment.database.Create(&seller).Error)
	return seller
}

func (environment *testEnvironment) createProperty(testingT *testing.T, sellerID string) model.Property {
	testingT.Helper()
	property, buildErr := model.NewProperty(model.PropertyInput{
		Title:       "House with garden in the north district",
		Price:       250000,
		ImageURL:    "https://cdn.example/listings/house.jpg",
		Description: "Three-bedroom house with a large garden, quiet street, close to schools and public transport.",
		Bedrooms:    3,
		Bathrooms:   2,
		SellerID:    sellerID,
	})
	require.NoError(testingT, buildErr)
	require.NoError(testingT, environment.database.Create(&property).Error)
	return property
}

func tomorrowDate() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

func requireStatus(testingT *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	testingT.Helper()
	require.Equal(testingT, expected, recorder.Code, recorder.Body.String())
}
