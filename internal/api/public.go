package api

import (
	stdcontext "context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/metrics"
	"github.com/RepettoEstates/listing_svc/internal/model"
	"github.com/RepettoEstates/listing_svc/internal/task"
)

// PublicHandlers serves unauthenticated public API endpoints.
type PublicHandlers struct {
	database                  *gorm.DB
	logger                    *zap.Logger
	notifier                  IntakeNotifier
	worker                    *task.DispatchWorker
	businessHours             model.BusinessHours
	rateWindow                time.Duration
	maxRequestsPerIPPerWindow int
	rateCountersByIP          map[string]int
	rateCountersMutex         sync.Mutex
}

const (
	errorValueInvalidJSON        = "invalid_json"
	errorValueRateLimited        = "rate_limited"
	errorValueUnknownProperty    = "unknown_property"
	errorValueUnknownToken       = "unknown_token"
	errorValueAlreadySubscribed  = "already_subscribed"
	errorValueSaveFailed         = "save_failed"
	errorValueValidationFailed   = "validation_failed"

	fieldErrorRequired          = "required"
	fieldErrorInvalid           = "invalid"
	fieldErrorDateInPast        = "date_in_past"
	fieldErrorTimeOutsideHours  = "outside_business_hours"
	fieldErrorUnparsableDate    = "unparsable_date"

	messageInquiryReceived       = "Thank you for your inquiry. We will contact you shortly."
	messageVisitRequestReceived  = "Your visit request was received. We will confirm the appointment by email."
	messageSubscriptionReceived  = "Please check your inbox to confirm your subscription."
	messageSubscriptionConfirmed = "Your subscription is confirmed."

	noticeJobInquiryReceived          = "inquiry_received_notice"
	noticeJobVisitRequestReceived     = "visit_request_received_notice"
	noticeJobSubscriptionConfirmation = "subscription_confirmation_notice"
	noticeJobSubscriptionWelcome      = "subscription_welcome_notice"

	inlineNoticeTimeout = 10 * time.Second

	requestDateLayout = "2006-01-02"
)

// NewPublicHandlers constructs a PublicHandlers instance with the provided
// dependencies. A nil worker makes notice dispatch run inline.
func NewPublicHandlers(database *gorm.DB, logger *zap.Logger, notifier IntakeNotifier, worker *task.DispatchWorker, businessHours model.BusinessHours) *PublicHandlers {
	if strings.TrimSpace(businessHours.Open) == "" || strings.TrimSpace(businessHours.Close) == "" {
		businessHours = model.DefaultBusinessHours
	}
	return &PublicHandlers{
		database:                  database,
		logger:                    logger,
		notifier:                  resolveIntakeNotifier(notifier),
		worker:                    worker,
		businessHours:             businessHours,
		rateWindow:                30 * time.Second,
		maxRequestsPerIPPerWindow: 6,
		rateCountersByIP:          make(map[string]int),
	}
}

type contactInquiryRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Budget   string `json:"budget"`
}

type visitRequestRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	PreferredDate string `json:"preferred_date"`
	PreferredTime string `json:"preferred_time"`
	Message       string `json:"message"`
}

type createSubscriptionRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateContactInquiry accepts general contact form submissions.
func (h *PublicHandlers) CreateContactInquiry(context *gin.Context) {
	h.createInquiry(context, model.InquiryOriginContact, "")
}

// CreatePropertyInquiry accepts contact form submissions tied to one listing.
func (h *PublicHandlers) CreatePropertyInquiry(context *gin.Context) {
	propertyID := strings.TrimSpace(context.Param("property_id"))
	if !h.propertyExists(propertyID) {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownProperty})
		return
	}
	h.createInquiry(context, model.InquiryOriginProperty, propertyID)
}

func (h *PublicHandlers) createInquiry(context *gin.Context, origin string, propertyID string) {
	clientIP := context.ClientIP()
	if h.isRateLimited(clientIP) {
		context.JSON(http.StatusTooManyRequests, gin.H{"error": errorValueRateLimited})
		return
	}

	var payload contactInquiryRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	inquiry, buildErr := model.NewInquiry(model.InquiryInput{
		Name:       payload.Name,
		Email:      payload.Email,
		Phone:      payload.Phone,
		Message:    payload.Message,
		Origin:     origin,
		Category:   payload.Category,
		PropertyID: propertyID,
		Subject:    payload.Subject,
		Budget:     payload.Budget,
	})
	if buildErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": errorValueValidationFailed,
			"errors":  inquiryFieldErrors(buildErr),
		})
		return
	}

	if saveErr := h.database.Create(&inquiry).Error; saveErr != nil {
		h.logger.Warn("save_inquiry", zap.Error(saveErr))
		context.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": errorValueSaveFailed})
		return
	}

	metrics.RecordInquirySubmitted(inquiry.Origin)
	persistedInquiry := inquiry
	h.dispatchNotice(noticeJobInquiryReceived, func(noticeCtx stdcontext.Context) bool {
		return h.notifier.NotifyInquiryReceived(noticeCtx, persistedInquiry)
	})

	context.JSON(http.StatusOK, gin.H{"success": true, "message": messageInquiryReceived, "inquiry_id": inquiry.ID})
}

// CreateVisitRequest accepts visit request submissions for one listing. The
// submission always records an inquiry; the visit request row is created only
// when the requested schedule is valid.
func (h *PublicHandlers) CreateVisitRequest(context *gin.Context) {
	clientIP := context.ClientIP()
	if h.isRateLimited(clientIP) {
		context.JSON(http.StatusTooManyRequests, gin.H{"error": errorValueRateLimited})
		return
	}

	propertyID := strings.TrimSpace(context.Param("property_id"))
	if !h.propertyExists(propertyID) {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownProperty})
		return
	}

	var payload visitRequestRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	inquiryMessage := strings.TrimSpace(payload.Message)
	if inquiryMessage == "" {
		inquiryMessage = fmt.Sprintf("Visit requested for %s at %s.",
			strings.TrimSpace(payload.PreferredDate), strings.TrimSpace(payload.PreferredTime))
	}

	inquiry, buildErr := model.NewInquiry(model.InquiryInput{
		Name:       payload.Name,
		Email:      payload.Email,
		Phone:      payload.Phone,
		Message:    inquiryMessage,
		Origin:     model.InquiryOriginProperty,
		Category:   "visit",
		PropertyID: propertyID,
	})
	if buildErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": errorValueValidationFailed,
			"errors":  inquiryFieldErrors(buildErr),
		})
		return
	}

	preferredDate, dateErr := time.Parse(requestDateLayout, strings.TrimSpace(payload.PreferredDate))
	if dateErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": errorValueValidationFailed,
			"errors":  gin.H{"preferred_date": fieldErrorUnparsableDate},
		})
		return
	}

	visit, visitErr := model.NewVisitRequest(model.VisitRequestInput{
		PropertyID:    propertyID,
		Name:          payload.Name,
		Email:         payload.Email,
		Phone:         payload.Phone,
		PreferredDate: preferredDate,
		PreferredTime: payload.PreferredTime,
		Message:       payload.Message,
		Hours:         h.businessHours,
	})
	if visitErr != nil {
		// The inquiry trail survives a rejected schedule so staff can follow up.
		if saveErr := h.database.Create(&inquiry).Error; saveErr != nil {
			h.logger.Warn("save_inquiry", zap.Error(saveErr))
		}
		context.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": errorValueValidationFailed,
			"errors":  visitScheduleFieldErrors(visitErr),
		})
		return
	}

	transactionErr := h.database.Transaction(func(transaction *gorm.DB) error {
		if saveErr := transaction.Create(&inquiry).Error; saveErr != nil {
			return saveErr
		}
		return transaction.Create(&visit).Error
	})
	if transactionErr != nil {
		h.logger.Warn("save_visit_request", zap.Error(transactionErr))
		context.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": errorValueSaveFailed})
		return
	}

	metrics.RecordInquirySubmitted(inquiry.Origin)
	metrics.RecordVisitRequestSubmitted()
	persistedVisit := visit
	h.dispatchNotice(noticeJobVisitRequestReceived, func(noticeCtx stdcontext.Context) bool {
		return h.notifier.NotifyVisitRequestReceived(noticeCtx, persistedVisit)
	})

	context.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          messageVisitRequestReceived,
		"inquiry_id":       inquiry.ID,
		"visit_request_id": visit.ID,
	})
}

// CreateSubscription registers a newsletter subscriber and sends the
// confirmation notice. Re-subscribing an inactive address reactivates it with
// a fresh token; an already active address is rejected.
func (h *PublicHandlers) CreateSubscription(context *gin.Context) {
	clientIP := context.ClientIP()
	if h.isRateLimited(clientIP) {
		context.JSON(http.StatusTooManyRequests, gin.H{"error": errorValueRateLimited})
		return
	}

	var payload createSubscriptionRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	candidate, buildErr := model.NewSubscriber(model.SubscriberInput{Email: payload.Email, Name: payload.Name})
	if buildErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": errorValueValidationFailed,
			"errors":  gin.H{"email": fieldErrorInvalid},
		})
		return
	}

	var existing model.Subscriber
	findErr := h.database.First(&existing, "email = ?", candidate.Email).Error
	switch {
	case findErr == nil && existing.Active:
		context.JSON(http.StatusConflict, gin.H{"success": false, "message": errorValueAlreadySubscribed})
		return
	case findErr == nil:
		existing.Active = true
		existing.Confirmed = false
		existing.Name = candidate.Name
		existing.ConfirmationToken = candidate.ConfirmationToken
		if saveErr := h.database.Save(&existing).Error; saveErr != nil {
			h.logger.Warn("save_subscriber", zap.Error(saveErr))
			context.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": errorValueSaveFailed})
			return
		}
		candidate = existing
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		if saveErr := h.database.Create(&candidate).Error; saveErr != nil {
			h.logger.Warn("save_subscriber", zap.Error(saveErr))
			context.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": errorValueSaveFailed})
			return
		}
	default:
		h.logger.Warn("load_subscriber", zap.Error(findErr))
		context.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": errorValueSaveFailed})
		return
	}

	metrics.RecordSubscriptionEvent("subscribed")
	persistedSubscriber := candidate
	h.dispatchNotice(noticeJobSubscriptionConfirmation, func(noticeCtx stdcontext.Context) bool {
		return h.notifier.SendSubscriptionConfirmation(noticeCtx, persistedSubscriber)
	})

	context.JSON(http.StatusOK, gin.H{"success": true, "message": messageSubscriptionReceived})
}

// ConfirmSubscription exchanges a one-time token for a confirmed subscription.
func (h *PublicHandlers) ConfirmSubscription(context *gin.Context) {
	token := strings.TrimSpace(context.Param("token"))
	if token == "" {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownToken})
		return
	}

	var subscriber model.Subscriber
	if findErr := h.database.First(&subscriber, "confirmation_token = ?", token).Error; findErr != nil {
		context.JSON(http.StatusNotFound, gin.H{"error": errorValueUnknownToken})
		return
	}

	subscriber.Confirmed = true
	subscriber.ConfirmationToken = ""
	subscriber.ConfirmedAt = time.Now().UTC()
	if saveErr := h.database.Save(&subscriber).Error; saveErr != nil {
		h.logger.Warn("save_subscriber", zap.Error(saveErr))
		context.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": errorValueSaveFailed})
		return
	}

	metrics.RecordSubscriptionEvent("confirmed")
	persistedSubscriber := subscriber
	h.dispatchNotice(noticeJobSubscriptionWelcome, func(noticeCtx stdcontext.Context) bool {
		return h.notifier.SendSubscriptionWelcome(noticeCtx, persistedSubscriber)
	})

	context.JSON(http.StatusOK, gin.H{"success": true, "message": messageSubscriptionConfirmed})
}

func (h *PublicHandlers) propertyExists(propertyID string) bool {
	if propertyID == "" {
		return false
	}
	var property model.Property
	return h.database.Select("id").First(&property, "id = ?", propertyID).Error == nil
}

func (h *PublicHandlers) dispatchNotice(jobName string, job task.Job) {
	wrapped := func(noticeCtx stdcontext.Context) bool {
		delivered := job(noticeCtx)
		metrics.RecordNoticeDispatched(jobName, delivered)
		return delivered
	}
	if h.worker != nil && h.worker.Enqueue(jobName, wrapped) {
		return
	}
	noticeCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), inlineNoticeTimeout)
	defer cancel()
	if !wrapped(noticeCtx) {
		h.logger.Warn("notice_undelivered", zap.String("job_name", jobName))
	}
}

func (h *PublicHandlers) isRateLimited(ip string) bool {
	nowBucket := time.Now().Unix() / int64(h.rateWindow.Seconds())
	key := fmt.Sprintf("%s:%d", ip, nowBucket)

	h.rateCountersMutex.Lock()
	defer h.rateCountersMutex.Unlock()

	h.rateCountersByIP[key]++
	return h.rateCountersByIP[key] > h.maxRequestsPerIPPerWindow
}

func inquiryFieldErrors(buildErr error) gin.H {
	switch {
	case errors.Is(buildErr, model.ErrInvalidInquiryName):
		return gin.H{"name": fieldErrorRequired}
	case errors.Is(buildErr, model.ErrInvalidInquiryEmail):
		return gin.H{"email": fieldErrorInvalid}
	case errors.Is(buildErr, model.ErrInvalidInquiryMessage):
		return gin.H{"message": fieldErrorRequired}
	case errors.Is(buildErr, model.ErrInvalidVisitRequestName):
		return gin.H{"name": fieldErrorRequired}
	case errors.Is(buildErr, model.ErrInvalidVisitRequestEmail):
		return gin.H{"email": fieldErrorInvalid}
	case errors.Is(buildErr, model.ErrInvalidVisitRequestPhone):
		return gin.H{"phone": fieldErrorRequired}
	default:
		return gin.H{"form": fieldErrorInvalid}
	}
}

func visitScheduleFieldErrors(visitErr error) gin.H {
	switch {
	case errors.Is(visitErr, model.ErrVisitDateInPast):
		return gin.H{"preferred_date": fieldErrorDateInPast}
	case errors.Is(visitErr, model.ErrVisitTimeOutsideHours):
		return gin.H{"preferred_time": fieldErrorTimeOutsideHours}
	case errors.Is(visitErr, model.ErrInvalidVisitSchedule):
		return gin.H{"preferred_time": fieldErrorInvalid}
	default:
		return inquiryFieldErrors(visitErr)
	}
}
