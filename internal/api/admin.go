package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/lifecycle"
	"github.com/RepettoEstates/listing_svc/internal/model"
)

const (
	errorValueUnknownSeller       = "unknown_seller"
	errorValueUnknownInquiry      = "unknown_inquiry"
	errorValueUnknownVisitRequest = "unknown_visit_request"
	errorValueInvalidBulkAction   = "invalid_bulk_action"

	bulkActionPublish   = "publish"
	bulkActionDraft     = "draft"
	bulkActionArchive   = "archive"
	bulkActionFeature   = "feature"
	bulkActionUnfeature = "unfeature"
)

// AdminHandlers serves bearer-token protected staff endpoints.
type AdminHandlers struct {
	database    *gorm.DB
	logger      *zap.Logger
	coordinator *lifecycle.Coordinator
}

// NewAdminHandlers constructs an AdminHandlers instance.
func NewAdminHandlers(database *gorm.DB, logger *zap.Logger, coordinator *lifecycle.Coordinator) *AdminHandlers {
	return &AdminHandlers{database: database, logger: logger, coordinator: coordinator}
}

type sellerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	PhotoURL  string `json:"photo_url"`
}

type propertyRequest struct {
	Title        string `json:"title"`
	Price        int64  `json:"price"`
	ImageURL     string `json:"image_url"`
	Description  string `json:"description"`
	Bedrooms     int    `json:"bedrooms"`
	Bathrooms    int    `json:"bathrooms"`
	ParkingSpots int    `json:"parking_spots"`
	SellerID     string `json:"seller_id"`
	ListedOn     string `json:"listed_on"`
}

type blogCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type blogPostRequest struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Body            string `json:"body"`
	Summary         string `json:"summary"`
	Author          string `json:"author"`
	CategoryID      string `json:"category_id"`
	Status          string `json:"status"`
	Featured        bool   `json:"featured"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"`
}

type blogPostBulkRequest struct {
	Action  string   `json:"action"`
	PostIDs []string `json:"post_ids"`
}

type inquiryUpdateRequest struct {
	Answered      *bool   `json:"answered"`
	Answer        *string `json:"answer"`
	InternalNotes *string `json:"internal_notes"`
}

type visitRequestUpdateRequest struct {
	Status     *string `json:"status"`
	AgentReply *string `json:"agent_reply"`
}

// CreateSeller registers a seller.
func (h *AdminHandlers) CreateSeller(context *gin.Context) {
	var payload sellerRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	seller, buildErr := model.NewSeller(model.SellerInput{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
		Email:     payload.Email,
		PhotoURL:  payload.PhotoURL,
	})
	if buildErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": buildErr.Error()})
		return
	}

	if saveErr := h.database.Create(&seller).Error; saveErr != nil {
		h.logger.Warn("save_seller", zap.Error(saveErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"seller": seller})
}

// UpdateSeller replaces a seller's editable fields.
func (h *AdminHandlers) UpdateSeller(context *gin.Context) {
	sellerID := strings.TrimSpace(context.Param("seller_id"))

	var seller model.Seller
	if findErr := h.database.First(&seller, "id = ?", sellerID).Error; findErr != nil {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownSeller})
		return
	}

	var payload sellerRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	updated, buildErr := model.NewSeller(model.SellerInput{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
		Email:     payload.Email,
		PhotoURL:  payload.PhotoURL,
	})
	if buildErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": buildErr.Error()})
		return
	}

	seller.FirstName = updated.FirstName
	seller.LastName = updated.LastName
	seller.Phone = updated.Phone
	seller.Email = updated.Email
	seller.PhotoURL = updated.PhotoURL

	if saveErr := h.database.Save(&seller).Error; saveErr != nil {
		h.logger.Warn("save_seller", zap.Error(saveErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"seller": seller})
}

// DeleteSeller removes a seller and detaches their listings.
func (h *AdminHandlers) DeleteSeller(context *gin.Context) {
	sellerID := strings.TrimSpace(context.Param("seller_id"))

	var seller model.Seller
	if findErr := h.database.First(&seller, "id = ?", sellerID).Error; findErr != nil {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownSeller})
		return
	}

	transactionErr := h.database.Transaction(func(transaction *gorm.DB) error {
		if detachErr := transaction.Model(&model.Property{}).
			Where("seller_id = ?", seller.ID).
			Update("seller_id", nil).Error; detachErr != nil {
			return detachErr
		}
		return transaction.Delete(&seller).Error
	})
	if transactionErr != nil {
		h.logger.Warn("delete_seller", zap.Error(transactionErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateProperty registers a listing.
func (h *AdminHandlers) CreateProperty(context *gin.Context) {
	var payload propertyRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	listedOn, parseErr := parseOptionalDate(payload.ListedOn)
	if parseErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": fieldErrorUnparsableDate})
		return
	}

	if sellerID := strings.TrimSpace(payload.SellerID); sellerID != "" {
		var seller model.Seller
		if findErr := h.database.First(&seller, "id = ?", sellerID).Error; findErr != nil {
			context.JSON(http.StatusBadRequest, gin.H{"error": errorValueUnknownSeller})
			return
		}
	}

	property, buildErr := model.NewProperty(model.PropertyInput{
		Title:        payload.Title,
		Price:        payload.Price,
		ImageURL:     payload.ImageURL,
		Description:  payload.Description,
		Bedrooms:     payload.Bedrooms,
		Bathrooms:    payload.Bathrooms,
		ParkingSpots: payload.ParkingSpots,
		SellerID:     payload.SellerID,
		ListedOn:     listedOn,
	})
	if buildErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": buildErr.Error()})
		return
	}

	if saveErr := h.database.Create(&property).Error; saveErr != nil {
		h.logger.Warn("save_property", zap.Error(saveErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"property": property})
}

// UpdateProperty replaces a listing's editable fields.
func (h *AdminHandlers) UpdateProperty(context *gin.Context) {
	propertyID := strings.TrimSpace(context.Param("property_id"))

	var property model.Property
	if findErr := h.database.First(&property, "id = ?", propertyID).Error; findErr != nil {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownProperty})
		return
	}

	var payload propertyRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	listedOn, parseErr := parseOptionalDate(payload.ListedOn)
	if parseErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": fieldErrorUnparsableDate})
		return
	}
	if listedOn.IsZero() {
		listedOn = property.ListedOn
	}

	updated, buildErr := model.NewProperty(model.PropertyInput{
		Title:        payload.Title,
		Price:        payload.Price,
		ImageURL:     payload.ImageURL,
		Description:  payload.Description,
		Bedrooms:     payload.Bedrooms,
		Bathrooms:    payload.Bathrooms,
		ParkingSpots: payload.ParkingSpots,
		SellerID:     payload.SellerID,
		ListedOn:     listedOn,
	})
	if buildErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": buildErr.Error()})
		return
	}

	property.Title = updated.Title
	property.Price = updated.Price
	property.ImageURL = updated.ImageURL
	property.Description = updated.Description
	property.Bedrooms = updated.Bedrooms
	property.Bathrooms = updated.Bathrooms
	property.ParkingSpots = updated.ParkingSpots
	property.SellerID = updated.SellerID
	property.ListedOn = updated.ListedOn

	if saveErr := h.database.Save(&property).Error; saveErr != nil {
		h.logger.Warn("save_property", zap.Error(saveErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"property": property})
}

// DeleteProperty removes a listing.
func (h *AdminHandlers) DeleteProperty(context *gin.Context) {
	propertyID := strings.TrimSpace(context.Param("property_id"))

	deleted := h.database.Delete(&model.Property{}, "id = ?", propertyID)
	if deleted.Error != nil {
		h.logger.Warn("delete_property", zap.Error(deleted.Error))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}
	if deleted.RowsAffected == 0 {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownProperty})
		return
	}

	context.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateBlogCategory registers a blog category.
func (h *AdminHandlers) CreateBlogCategory(context *gin.Context) {
	var payload blogCategoryRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	category, buildErr := model.NewBlogCategory(model.BlogCategoryInput{
		Name:        payload.Name,
		Slug:        payload.Slug,
		Description: payload.Description,
	})
	if buildErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": buildErr.Error()})
		return
	}

	if saveErr := h.database.Create(&category).Error; saveErr != nil {
		h.logger.Warn("save_blog_category", zap.Error(saveErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteBlogCategory removes a category and detaches its posts.
func (h *AdminHandlers) DeleteBlogCategory(context *gin.Context) {
	categoryID := strings.TrimSpace(context.Param("category_id"))

	var category model.BlogCategory
	if findErr := h.database.First(&category, "id = ?", categoryID).Error; findErr != nil {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownBlogCategory})
		return
	}

	transactionErr := h.database.Transaction(func(transaction *gorm.DB) error {
		if detachErr := transaction.Model(&model.BlogPost{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; detachErr != nil {
			return detachErr
		}
		return transaction.Delete(&category).Error
	})
	if transactionErr != nil {
		h.logger.Warn("delete_blog_category", zap.Error(transactionErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateBlogPost authors a post.
func (h *AdminHandlers) CreateBlogPost(context *gin.Context) {
	var payload blogPostRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	post, buildErr := model.NewBlogPost(model.BlogPostInput{
		Title:           payload.Title,
		Slug:            payload.Slug,
		Body:            payload.Body,
		Summary:         payload.Summary,
		Author:          payload.Author,
		CategoryID:      payload.CategoryID,
		Status:          payload.Status,
		Featured:        payload.Featured,
		MetaDescription: payload.MetaDescription,
		MetaKeywords:    payload.MetaKeywords,
	})
	if buildErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": buildErr.Error()})
		return
	}

	if saveErr := h.database.Create(&post).Error; saveErr != nil {
		h.logger.Warn("save_blog_post", zap.Error(saveErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"post": post})
}

// UpdateBlogPost replaces a post's editable fields, re-deriving slug, summary
// and read time the way authoring does.
func (h *AdminHandlers) UpdateBlogPost(context *gin.Context) {
	postID := strings.TrimSpace(context.Param("post_id"))

	var post model.BlogPost
	if findErr := h.database.First(&post, "id = ?", postID).Error; findErr != nil {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownBlogPost})
		return
	}

	var payload blogPostRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	updated, buildErr := model.NewBlogPost(model.BlogPostInput{
		Title:           payload.Title,
		Slug:            payload.Slug,
		Body:            payload.Body,
		Summary:         payload.Summary,
		Author:          payload.Author,
		CategoryID:      payload.CategoryID,
		Status:          payload.Status,
		Featured:        payload.Featured,
		MetaDescription: payload.MetaDescription,
		MetaKeywords:    payload.MetaKeywords,
		PublishedAt:     post.PublishedAt,
	})
	if buildErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": buildErr.Error()})
		return
	}

	post.Title = updated.Title
	post.Slug = updated.Slug
	post.Body = updated.Body
	post.Summary = updated.Summary
	post.Author = updated.Author
	post.CategoryID = updated.CategoryID
	post.Status = updated.Status
	post.Featured = updated.Featured
	post.ReadTimeMinutes = updated.ReadTimeMinutes
	post.MetaDescription = updated.MetaDescription
	post.MetaKeywords = updated.MetaKeywords

	if saveErr := h.database.Save(&post).Error; saveErr != nil {
		h.logger.Warn("save_blog_post", zap.Error(saveErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"post": post})
}

// DeleteBlogPost removes a post.
func (h *AdminHandlers) DeleteBlogPost(context *gin.Context) {
	postID := strings.TrimSpace(context.Param("post_id"))

	deleted := h.database.Delete(&model.BlogPost{}, "id = ?", postID)
	if deleted.Error != nil {
		h.logger.Warn("delete_blog_post", zap.Error(deleted.Error))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}
	if deleted.RowsAffected == 0 {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownBlogPost})
		return
	}

	context.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// BulkUpdateBlogPosts applies one status or featured action to many posts.
func (h *AdminHandlers) BulkUpdateBlogPosts(context *gin.Context) {
	var payload blogPostBulkRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}
	if len(payload.PostIDs) == 0 {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidBulkAction})
		return
	}

	var updates map[string]interface{}
	switch strings.TrimSpace(payload.Action) {
	case bulkActionPublish:
		updates = map[string]interface{}{"status": model.BlogPostStatusPublished, "published_at": time.Now().UTC()}
	case bulkActionDraft:
		updates = map[string]interface{}{"status": model.BlogPostStatusDraft}
	case bulkActionArchive:
		updates = map[string]interface{}{"status": model.BlogPostStatusArchived}
	case bulkActionFeature:
		updates = map[string]interface{}{"featured": true}
	case bulkActionUnfeature:
		updates = map[string]interface{}{"featured": false}
	default:
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidBulkAction})
		return
	}

	result := h.database.Model(&model.BlogPost{}).Where("id IN ?", payload.PostIDs).Updates(updates)
	if result.Error != nil {
		h.logger.Warn("bulk_update_blog_posts", zap.Error(result.Error))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"status": "ok", "updated": result.RowsAffected})
}

// ListInquiries returns inquiries newest first, optionally filtered by the
// answered flag, origin and priority.
func (h *AdminHandlers) ListInquiries(context *gin.Context) {
	query := h.database.Model(&model.Inquiry{}).Order("created_at DESC")

	switch strings.TrimSpace(context.Query("answered")) {
	case "true":
		query = query.Where("answered = ?", true)
	case "false":
		query = query.Where("answered = ?", false)
	}
	if origin := strings.TrimSpace(context.Query("origin")); origin != "" {
		query = query.Where("origin = ?", origin)
	}
	if priority := strings.TrimSpace(context.Query("priority")); priority != "" {
		query = query.Where("priority = ?", priority)
	}

	var inquiries []model.Inquiry
	if listErr := query.Find(&inquiries).Error; listErr != nil {
		h.logger.Warn("list_inquiries", zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

// UpdateInquiry applies a staff edit through the lifecycle coordinator so the
// answered transition is detected and the customer notified.
func (h *AdminHandlers) UpdateInquiry(context *gin.Context) {
	inquiryID := strings.TrimSpace(context.Param("inquiry_id"))

	var payload inquiryUpdateRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	inquiry, event, applyErr := h.coordinator.ApplyInquiryUpdate(context.Request.Context(), inquiryID, lifecycle.InquiryUpdate{
		Answered:      payload.Answered,
		Answer:        payload.Answer,
		InternalNotes: payload.InternalNotes,
	})
	if applyErr != nil {
		if errors.Is(applyErr, lifecycle.ErrInquiryNotFound) {
			context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownInquiry})
			return
		}
		h.logger.Warn("update_inquiry", zap.Error(applyErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"inquiry": inquiry, "transition": string(event)})
}

// ListVisitRequests returns visit requests newest first, optionally filtered
// by status.
func (h *AdminHandlers) ListVisitRequests(context *gin.Context) {
	query := h.database.Model(&model.VisitRequest{}).Order("created_at DESC")

	if status := strings.TrimSpace(context.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var visits []model.VisitRequest
	if listErr := query.Find(&visits).Error; listErr != nil {
		h.logger.Warn("list_visit_requests", zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"visit_requests": visits})
}

// UpdateVisitRequest applies a staff decision through the lifecycle
// coordinator so genuine status changes notify the customer.
func (h *AdminHandlers) UpdateVisitRequest(context *gin.Context) {
	visitRequestID := strings.TrimSpace(context.Param("visit_request_id"))

	var payload visitRequestUpdateRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	visit, event, applyErr := h.coordinator.ApplyVisitRequestUpdate(context.Request.Context(), visitRequestID, lifecycle.VisitRequestUpdate{
		Status:     payload.Status,
		AgentReply: payload.AgentReply,
	})
	if applyErr != nil {
		switch {
		case errors.Is(applyErr, lifecycle.ErrVisitRequestNotFound):
			context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownVisitRequest})
		case errors.Is(applyErr, model.ErrInvalidVisitRequestStatus):
			context.JSON(http.StatusBadRequest, gin.H{"error": applyErr.Error()})
		default:
			h.logger.Warn("update_visit_request", zap.Error(applyErr))
			context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		}
		return
	}

	context.JSON(http.StatusOK, gin.H{"visit_request": visit, "transition": string(event)})
}

// ListSubscribers returns newsletter subscribers newest first.
func (h *AdminHandlers) ListSubscribers(context *gin.Context) {
	var subscribers []model.Subscriber
	if listErr := h.database.Order("created_at DESC").Find(&subscribers).Error; listErr != nil {
		h.logger.Warn("list_subscribers", zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{"error": errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusOK, gin.H{"subscribers": subscribers})
}

func parseOptionalDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	return time.Parse(requestDateLayout, trimmed)
}
