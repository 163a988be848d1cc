package notifications

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/model"
)

const (
	defaultAgencyName = "Repetto Estates"

	subscriptionConfirmationPathPattern = "%s/api/newsletter/confirm/%s"

	preferredDateLayout = "2006-01-02"

	logEventNoticeDeliveryFailed  = "notice_delivery_failed"
	logEventNoticeRecipientAbsent = "notice_recipient_absent"

	logFieldNoticeKind = "notice_kind"
	logFieldRecipient  = "recipient"
)

// DispatcherConfig captures the addressing settings for outbound notices.
type DispatcherConfig struct {
	AgencyName    string
	AgencyAddress string
	PublicBaseURL string
}

// Dispatcher renders and sends the notices domain events warrant. Delivery is
// best-effort: every method reports the outcome as a boolean and failures stay
// inside the dispatcher.
type Dispatcher struct {
	database      *gorm.DB
	sender        EmailSender
	logger        *zap.Logger
	agencyName    string
	agencyAddress string
	publicBaseURL string
}

// NewDispatcher constructs a Dispatcher with the provided dependencies.
func NewDispatcher(database *gorm.DB, sender EmailSender, logger *zap.Logger, configuration DispatcherConfig) *Dispatcher {
	agencyName := strings.TrimSpace(configuration.AgencyName)
	if agencyName == "" {
		agencyName = defaultAgencyName
	}

	return &Dispatcher{
		database:      database,
		sender:        sender,
		logger:        logger,
		agencyName:    agencyName,
		agencyAddress: strings.TrimSpace(configuration.AgencyAddress),
		publicBaseURL: strings.TrimRight(strings.TrimSpace(configuration.PublicBaseURL), "/"),
	}
}

// NotifyInquiryReceived tells staff about a freshly submitted inquiry. The
// notice goes to the listing's seller when one with an email is assigned,
// otherwise to the agency address.
func (dispatcher *Dispatcher) NotifyInquiryReceived(ctx context.Context, inquiry model.Inquiry) bool {
	recipient := dispatcher.agencyAddress
	propertyTitle := ""
	if inquiry.PropertyID != nil {
		property, seller := dispatcher.resolveProperty(ctx, *inquiry.PropertyID)
		if property != nil {
			propertyTitle = property.Title
		}
		if seller != nil && seller.Email != "" {
			recipient = seller.Email
		}
	}

	return dispatcher.deliver(ctx, KindInquiryReceived, recipient, MessageData{
		AgencyName:    dispatcher.agencyName,
		CustomerName:  inquiry.Name,
		CustomerEmail: inquiry.Email,
		CustomerPhone: inquiry.Phone,
		PropertyTitle: propertyTitle,
		Category:      inquiry.Category,
		Priority:      inquiry.Priority,
		Message:       inquiry.Message,
	})
}

// NotifyInquiryAnswered sends the stored answer to the customer.
func (dispatcher *Dispatcher) NotifyInquiryAnswered(ctx context.Context, inquiry model.Inquiry) bool {
	return dispatcher.deliver(ctx, KindInquiryAnswered, inquiry.Email, MessageData{
		AgencyName:   dispatcher.agencyName,
		CustomerName: inquiry.Name,
		Message:      inquiry.Message,
		Answer:       inquiry.Answer,
	})
}

// NotifyVisitRequestReceived tells staff about a freshly submitted visit
// request, addressed like NotifyInquiryReceived.
func (dispatcher *Dispatcher) NotifyVisitRequestReceived(ctx context.Context, visit model.VisitRequest) bool {
	recipient := dispatcher.agencyAddress
	property, seller := dispatcher.resolveProperty(ctx, visit.PropertyID)
	propertyTitle := ""
	if property != nil {
		propertyTitle = property.Title
	}
	if seller != nil && seller.Email != "" {
		recipient = seller.Email
	}

	return dispatcher.deliver(ctx, KindVisitRequestReceived, recipient, MessageData{
		AgencyName:    dispatcher.agencyName,
		CustomerName:  visit.Name,
		CustomerEmail: visit.Email,
		CustomerPhone: visit.Phone,
		PropertyTitle: propertyTitle,
		Message:       visit.Message,
		PreferredDate: visit.PreferredDate.Format(preferredDateLayout),
		PreferredTime: visit.PreferredTime,
	})
}

// NotifyVisitConfirmed tells the customer their visit was confirmed.
func (dispatcher *Dispatcher) NotifyVisitConfirmed(ctx context.Context, visit model.VisitRequest) bool {
	return dispatcher.deliverVisitDecision(ctx, KindVisitConfirmed, visit)
}

// NotifyVisitDeclined tells the customer their visit was declined.
func (dispatcher *Dispatcher) NotifyVisitDeclined(ctx context.Context, visit model.VisitRequest) bool {
	return dispatcher.deliverVisitDecision(ctx, KindVisitDeclined, visit)
}

// SendSubscriptionConfirmation sends the confirm-your-address notice with the
// subscriber's single-use token link.
func (dispatcher *Dispatcher) SendSubscriptionConfirmation(ctx context.Context, subscriber model.Subscriber) bool {
	return dispatcher.deliver(ctx, KindSubscriptionConfirmation, subscriber.Email, MessageData{
		AgencyName:      dispatcher.agencyName,
		CustomerName:    subscriber.Name,
		ConfirmationURL: fmt.Sprintf(subscriptionConfirmationPathPattern, dispatcher.publicBaseURL, subscriber.ConfirmationToken),
	})
}

// SendSubscriptionWelcome welcomes a subscriber whose address was just confirmed.
func (dispatcher *Dispatcher) SendSubscriptionWelcome(ctx context.Context, subscriber model.Subscriber) bool {
	return dispatcher.deliver(ctx, KindSubscriptionWelcome, subscriber.Email, MessageData{
		AgencyName:   dispatcher.agencyName,
		CustomerName: subscriber.Name,
	})
}

func (dispatcher *Dispatcher) deliverVisitDecision(ctx context.Context, kind Kind, visit model.VisitRequest) bool {
	property, _ := dispatcher.resolveProperty(ctx, visit.PropertyID)
	propertyTitle := ""
	if property != nil {
		propertyTitle = property.Title
	}

	return dispatcher.deliver(ctx, kind, visit.Email, MessageData{
		AgencyName:    dispatcher.agencyName,
		CustomerName:  visit.Name,
		PropertyTitle: propertyTitle,
		PreferredDate: visit.PreferredDate.Format(preferredDateLayout),
		PreferredTime: visit.PreferredTime,
		AgentReply:    visit.AgentReply,
	})
}

func (dispatcher *Dispatcher) resolveProperty(ctx context.Context, propertyID string) (*model.Property, *model.Seller) {
	trimmedID := strings.TrimSpace(propertyID)
	if trimmedID == "" {
		return nil, nil
	}

	var property model.Property
	if findErr := dispatcher.database.WithContext(ctx).First(&property, "id = ?", trimmedID).Error; findErr != nil {
		return nil, nil
	}
	if property.SellerID == nil {
		return &property, nil
	}

	var seller model.Seller
	if findErr := dispatcher.database.WithContext(ctx).First(&seller, "id = ?", *property.SellerID).Error; findErr != nil {
		return &property, nil
	}

	return &property, &seller
}

func (dispatcher *Dispatcher) deliver(ctx context.Context, kind Kind, recipient string, data MessageData) bool {
	trimmedRecipient := strings.TrimSpace(recipient)
	if trimmedRecipient == "" {
		dispatcher.logger.Warn(logEventNoticeRecipientAbsent,
			zap.String(logFieldNoticeKind, string(kind)))
		return false
	}

	subject, body, renderErr := RenderMessage(kind, data)
	if renderErr != nil {
		dispatcher.logger.Warn(logEventNoticeDeliveryFailed,
			zap.String(logFieldNoticeKind, string(kind)),
			zap.String(logFieldRecipient, trimmedRecipient),
			zap.Error(renderErr))
		return false
	}

	if sendErr := dispatcher.sender.SendEmail(ctx, trimmedRecipient, subject, body); sendErr != nil {
		dispatcher.logger.Warn(logEventNoticeDeliveryFailed,
			zap.String(logFieldNoticeKind, string(kind)),
			zap.String(logFieldRecipient, trimmedRecipient),
			zap.Error(sendErr))
		return false
	}

	return true
}
