package api

import (
	"context"

	"github.com/RepettoEstates/listing_svc/internal/model"
)

// IntakeNotifier dispatches the notices public form submissions warrant.
// Implementations are best-effort and report the outcome as a boolean.
type IntakeNotifier interface {
	NotifyInquiryReceived(ctx context.Context, inquiry model.Inquiry) bool
	NotifyVisitRequestReceived(ctx context.Context, visit model.VisitRequest) bool
	SendSubscriptionConfirmation(ctx context.Context, subscriber model.Subscriber) bool
	SendSubscriptionWelcome(ctx context.Context, subscriber model.Subscriber) bool
}

type noopIntakeNotifier struct{}

func (noopIntakeNotifier) NotifyInquiryReceived(context.Context, model.Inquiry) bool { return false }
func (noopIntakeNotifier) NotifyVisitRequestReceived(context.Context, model.VisitRequest) bool {
	return false
}
func (noopIntakeNotifier) SendSubscriptionConfirmation(context.Context, model.Subscriber) bool {
	return false
}
func (noopIntakeNotifier) SendSubscriptionWelcome(context.Context, model.Subscriber) bool {
	return false
}

func resolveIntakeNotifier(notifier IntakeNotifier) IntakeNotifier {
	if notifier == nil {
		return noopIntakeNotifier{}
	}
	return notifier
}
