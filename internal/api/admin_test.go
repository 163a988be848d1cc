package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RepettoEstates/listing_svc/internal/model"
)

func TestAdminEndpointsRequireBearerToken(testingT *testing.T) {
	environment := newTestEnvironment(testingT)

	missing := environment.performJSON(testingT, http.MethodGet, "/api/admin/inquiries", nil, "")
	requireStatus(testingT, missing, http.StatusUnauthorized)

	wrong := environment.performJSON(testingT, http.MethodGet, "/api/admin/inquiries", nil, "wrong-token")
	requireStatus(testingT, wrong, http.StatusForbidden)

	valid := environment.performJSON(testingT, http.MethodGet, "/api/admin/inquiries", nil, testAdminBearerToken)
	requireStatus(testingT, valid, http.StatusOK)
}

func TestCreateSellerValidatesPhone(testingT *testing.T) {
	environment := newTestEnvironment(testingT)

	recorder := environment.performJSON(testingT, http.MethodPost, "/api/admin/sellers", map[string]any{
		"first_name": "Carla",
		"last_name":  "Mendez",
		"phone":      "12345",
	}, testAdminBearerToken)

	requireStatus(testingT, recorder, http.StatusBadRequest)
}

func TestDeleteSellerDetachesListings(testingT *testing.T) {
	environment := newTestEnvironment(testingT)
	seller := environment.createSeller(testingT, "carla@repettoestates.example")
	property := environment.createProperty(testingT, seller.ID)

	recorder := environment.performJSON(testingT, http.MethodDelete, "/api/admin/sellers/"+seller.ID, nil, testAdminBearerToken)
	requireStatus(testingT, recorder, http.StatusOK)

	var storedProperty model.Property
	require.NoError(testingT, environment.database.First(&storedProperty, "id = ?", property.ID).Error)
	require.Nil(testingT, storedProperty.SellerID)

	var sellerCount int64
	require.NoError(testingT, environment.database.Model(&model.Seller{}).Count(&sellerCount).Error)
	require.Zero(testingT, sellerCount)
}

func TestCreatePropertyRejectsShortDescription(testingT *testing.T) {
	environment := newTestEnvironment(testingT)

	recorder := environment.performJSON(testingT, http.MethodPost, "/api/admin/properties", map[string]any{
		"title":       "Tiny listing",
		"price":       100000,
		"image_url":   "https://cdn.example/tiny.jpg",
		"description": "too short",
	}, testAdminBearerToken)

	requireStatus(testingT, recorder, http.StatusBadRequest)
}

func TestBlogPostAuthoringDerivesSlugAndSummary(testingT *testing.T) {
	environment := newTestEnvironment(testingT)

	recorder := environment.performJSON(testingT, http.MethodPost, "/api/admin/blog/posts", map[string]any{
		"title":  "Five Questions To Ask Before Buying",
		"body":   "<p>Buying a home is the largest purchase most families make.</p><p>Ask these questions first.</p>",
		"status": "published",
	}, testAdminBearerToken)

	requireStatus(testingT, recorder, http.StatusOK)

	var stored model.BlogPost
	require.NoError(testingT, environment.database.First(&stored, "slug = ?", "five-questions-to-ask-before-buying").Error)
	require.NotContains(testingT, stored.Summary, "<p>")
	require.Equal(testingT, model.BlogPostStatusPublished, stored.Status)
	require.GreaterOrEqual(testingT, stored.ReadTimeMinutes, 1)
}

func TestBulkUpdateBlogPostsPublishes(testingT *testing.T) {
	environment := newTestEnvironment(testingT)

	draftOne, buildErr := model.NewBlogPost(model.BlogPostInput{Title: "Draft one", Body: "Body of the first draft article."})
	require.NoError(testingT, buildErr)
	require.NoError(testingT, environment.database.Create(&draftOne).Error)
	draftTwo, buildErr := model.NewBlogPost(model.BlogPostInput{Title: "Draft two", Body: "Body of the second draft article."})
	require.NoError(testingT, buildErr)
	require.NoError(testingT, environment.database.Create(&draftTwo).Error)

	recorder := environment.performJSON(testingT, http.MethodPost, "/api/admin/blog/posts/bulk", map[string]any{
		"action":   "publish",
		"post_ids": []string{draftOne.ID, draftTwo.ID},
	}, testAdminBearerToken)

	requireStatus(testingT, recorder, http.StatusOK)
	body := decodeJSONBody(testingT, recorder)
	require.Equal(testingT, float64(2), body["updated"])

	var publishedCount int64
	require.NoError(testingT, environment.database.Model(&model.BlogPost{}).
		Where("status = ?", model.BlogPostStatusPublished).Count(&publishedCount).Error)
	require.Equal(testingT, int64(2), publishedCount)
}

func TestBulkUpdateBlogPostsRejectsUnknownAction(testingT *testing.T) {
	environment := newTestEnvironment(testingT)

	recorder := environment.performJSON(testingT, http.MethodPost, "/api/admin/blog/posts/bulk", map[string]any{
		"action":   "explode",
		"post_ids": []string{"some-id"},
	}, testAdminBearerToken)

	requireStatus(testingT, recorder, http.StatusBadRequest)
}

func TestUpdateInquiryAnswerNotifiesCustomerOnce(testingT *testing.T) {
	environment := newTestEnvironment(testingT)

	submit := environment.performJSON(testingT, http.MethodPost, "/api/contact", map[string]any{
		"name":    "Julia Romero",
		"email":   "julia@example.com",
		"message": "Is the office open on Saturdays?",
	}, "")
	requireStatus(testingT, submit, http.StatusOK)

	var stored model.Inquiry
	require.NoError(testingT, environment.database.First(&stored, "email = ?", "julia@example.com").Error)

	update := environment.performJSON(testingT, http.MethodPatch, "/api/admin/inquiries/"+stored.ID, map[string]any{
		"answered": true,
		"answer":   "Yes, from 09:00 to 13:00.",
	}, testAdminBearerToken)
	requireStatus(testingT, update, http.StatusOK)
	body := decodeJSONBody(testingT, update)
	require.Equal(testingT, "inquiry_answered", body["transition"])
	require.Len(testingT, environment.lifecycleNotifier.answered, 1)

	require.NoError(testingT, environment.database.First(&stored, "id = ?", stored.ID).Error)
	require.True(testingT, stored.Answered)
	require.NotNil(testingT, stored.AnsweredAt)

	// saving the same answer again is silent
	repeat := environment.performJSON(testingT, http.MethodPatch, "/api/admin/inquiries/"+stored.ID, map[string]any{
		"answer": "Yes, from 09:00 to 13:00.",
	}, testAdminBearerToken)
	requireStatus(testingT, repeat, http.StatusOK)
	require.Len(testingT, environment.lifecycleNotifier.answered, 1)
}

func TestVisitRequestConfirmationFlow(testingT *testing.T) {
	environment := newTestEnvironment(testingT)
	property := environment.createProperty(testingT, "")

	submit := environment.performJSON(testingT, http.MethodPost, "/api/properties/"+property.ID+"/visit-requests", map[string]any{
		"name":           "Sofia Gimenez",
		"email":          "sofia@example.com",
		"phone":          "3764990011",
		"preferred_date": tomorrowDate(),
		"preferred_time": "10:00",
	}, "")
	requireStatus(testingT, submit, http.StatusOK)

	var storedVisit model.VisitRequest
	require.NoError(testingT, environment.database.First(&storedVisit, "email = ?", "sofia@example.com").Error)
	require.Equal(testingT, model.VisitRequestStatusPending, storedVisit.Status)

	confirm := environment.performJSON(testingT, http.MethodPatch, "/api/admin/visit-requests/"+storedVisit.ID, map[string]any{
		"status":      model.VisitRequestStatusConfirmed,
		"agent_reply": "See you tomorrow at 10:00.",
	}, testAdminBearerToken)
	requireStatus(testingT, confirm, http.StatusOK)
	require.Len(testingT, environment.lifecycleNotifier.confirmed, 1)

	// re-confirming is a no-op and sends nothing
	reconfirm := environment.performJSON(testingT, http.MethodPatch, "/api/admin/visit-requests/"+storedVisit.ID, map[string]any{
		"status": model.VisitRequestStatusConfirmed,
	}, testAdminBearerToken)
	requireStatus(testingT, reconfirm, http.StatusOK)
	require.Len(testingT, environment.lifecycleNotifier.confirmed, 1)
	require.Empty(testingT, environment.lifecycleNotifier.declined)
}

func TestUpdateVisitRequestRejectsUnknownStatus(testingT *testing.T) {
	environment := newTestEnvironment(testingT)
	property := environment.createProperty(testingT, "")

	submit := environment.performJSON(testingT, http.MethodPost, "/api/properties/"+property.ID+"/visit-requests", map[string]any{
		"name":           "Sofia Gimenez",
		"email":          "sofia@example.com",
		"phone":          "3764990011",
		"preferred_date": tomorrowDate(),
		"preferred_time": "10:00",
	}, "")
	requireStatus(testingT, submit, http.StatusOK)

	var storedVisit model.VisitRequest
	require.NoError(testingT, environment.database.First(&storedVisit, "email = ?", "sofia@example.com").Error)

	recorder := environment.performJSON(testingT, http.MethodPatch, "/api/admin/visit-requests/"+storedVisit.ID, map[string]any{
		"status": "postponed",
	}, testAdminBearerToken)
	requireStatus(testingT, recorder, http.StatusBadRequest)
}

func TestListVisitRequestsFiltersByStatus(testingT *testing.T) {
	environment := newTestEnvironment(testingT)
	property := environment.createProperty(testingT, "")

	submit := environment.performJSON(testingT, http.MethodPost, "/api/properties/"+property.ID+"/visit-requests", map[string]any{
		"name":           "Sofia Gimenez",
		"email":          "sofia@example.com",
		"phone":          "3764990011",
		"preferred_date": tomorrowDate(),
		"preferred_time": "10:00",
	}, "")
	requireStatus(testingT, submit, http.StatusOK)

	pending := environment.performJSON(testingT, http.MethodGet, "/api/admin/visit-requests?status=pending", nil, testAdminBearerToken)
	requireStatus(testingT, pending, http.StatusOK)
	pendingBody := decodeJSONBody(testingT, pending)
	require.Len(testingT, pendingBody["visit_requests"], 1)

	confirmed := environment.performJSON(testingT, http.MethodGet, "/api/admin/visit-requests?status=confirmed", nil, testAdminBearerToken)
	requireStatus(testingT, confirmed, http.StatusOK)
	confirmedBody := decodeJSONBody(testingT, confirmed)
	require.Empty(testingT, confirmedBody["visit_requests"])
}
