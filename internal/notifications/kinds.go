package notifications

// Kind identifies one of the outbound email notices the service sends.
type Kind string

const (
	// KindInquiryReceived notifies staff that a customer submitted an inquiry.
	KindInquiryReceived Kind = "inquiry_received"
	// KindInquiryAnswered notifies the customer that staff answered their inquiry.
	KindInquiryAnswered Kind = "inquiry_answered"
	// KindVisitRequestReceived notifies staff that a customer requested a visit.
	KindVisitRequestReceived Kind = "visit_request_received"
	// KindVisitConfirmed notifies the customer that their visit was confirmed.
	KindVisitConfirmed Kind = "visit_confirmed"
	// KindVisitDeclined notifies the customer that their visit was declined.
	KindVisitDeclined Kind = "visit_declined"
	// KindSubscriptionConfirmation asks a new subscriber to confirm their address.
	KindSubscriptionConfirmation Kind = "subscription_confirmation"
	// KindSubscriptionWelcome welcomes a subscriber after confirmation.
	KindSubscriptionWelcome Kind = "subscription_welcome"
)
