package lifecycle

import (
	"strings"

	"github.com/RepettoEstates/listing_svc/internal/model"
)

// TransitionEvent identifies the notification a committed update warrants.
type TransitionEvent string

const (
	TransitionNone            TransitionEvent = ""
	TransitionInquiryAnswered TransitionEvent = "inquiry_answered"
	TransitionVisitConfirmed  TransitionEvent = "visit_confirmed"
	TransitionVisitDeclined   TransitionEvent = "visit_declined"
)

// InquiryTransitionResult is the outcome of evaluating an inquiry update
// against its snapshot.
type InquiryTransitionResult struct {
	Event         TransitionEvent
	ForceAnswered bool
}

// EvaluateInquiryTransition decides whether an inquiry update warrants the
// answered notification. A nil snapshot means the update is a creation and
// never notifies. Three cases are evaluated in order, first match wins:
//
//  1. the inquiry was marked answered for the first time with a non-empty answer;
//  2. an already-answered inquiry had its answer text changed;
//  3. the answer text changed without the answered flag being set, in which
//     case the flag is forced true so a staff edit is never silently lost.
func EvaluateInquiryTransition(snapshot *InquirySnapshot, updated model.Inquiry) InquiryTransitionResult {
	if snapshot == nil {
		return InquiryTransitionResult{Event: TransitionNone}
	}

	newAnswer := strings.TrimSpace(updated.Answer)
	priorAnswer := strings.TrimSpace(snapshot.Answer)

	if !snapshot.Answered && updated.Answered && newAnswer != "" {
		return InquiryTransitionResult{Event: TransitionInquiryAnswered}
	}

	if snapshot.Answered && updated.Answered && newAnswer != "" && newAnswer != priorAnswer {
		return InquiryTransitionResult{Event: TransitionInquiryAnswered}
	}

	if newAnswer != "" && newAnswer != priorAnswer {
		return InquiryTransitionResult{Event: TransitionInquiryAnswered, ForceAnswered: true}
	}

	return InquiryTransitionResult{Event: TransitionNone}
}

// EvaluateVisitRequestTransition decides whether a visit request update
// warrants a customer notice. A nil snapshot means creation; only genuine
// status changes into confirmed or declined notify. Returning to pending or
// completing a visit is silent.
func EvaluateVisitRequestTransition(snapshot *VisitRequestSnapshot, updated model.VisitRequest) TransitionEvent {
	if snapshot == nil {
		return TransitionNone
	}
	if snapshot.Status == updated.Status {
		return TransitionNone
	}

	switch updated.Status {
	case model.VisitRequestStatusConfirmed:
		return TransitionVisitConfirmed
	case model.VisitRequestStatusDeclined:
		return TransitionVisitDeclined
	default:
		return TransitionNone
	}
}
