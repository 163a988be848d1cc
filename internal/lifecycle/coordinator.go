package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/metrics"
	"github.com/RepettoEstates/listing_svc/internal/model"
	"github.com/RepettoEstates/listing_svc/internal/task"
)

const (
	logEventInquiryNotificationDropped      = "inquiry_notification_dropped"
	logEventVisitRequestNotificationDropped = "visit_request_notification_dropped"

	logFieldInquiryID      = "inquiry_id"
	logFieldVisitRequestID = "visit_request_id"
	logFieldTransition     = "transition"

	noticeJobInquiryAnswered = "inquiry_answered_notice"
	noticeJobVisitConfirmed  = "visit_confirmed_notice"
	noticeJobVisitDeclined   = "visit_declined_notice"

	defaultNoticeTimeout = 10 * time.Second
)

var (
	// ErrInquiryNotFound indicates the inquiry targeted by an update does not exist.
	ErrInquiryNotFound = errors.New("lifecycle: inquiry not found")
	// ErrVisitRequestNotFound indicates the visit request targeted by an update does not exist.
	ErrVisitRequestNotFound = errors.New("lifecycle: visit request not found")
)

// TransitionNotifier dispatches the notices a committed transition warrants.
// Implementations are best-effort: the boolean reports delivery, failures stay
// inside the notifier.
type TransitionNotifier interface {
	NotifyInquiryAnswered(ctx context.Context, inquiry model.Inquiry) bool
	NotifyVisitConfirmed(ctx context.Context, visit model.VisitRequest) bool
	NotifyVisitDeclined(ctx context.Context, visit model.VisitRequest) bool
}

type noopTransitionNotifier struct{}

func (noopTransitionNotifier) NotifyInquiryAnswered(context.Context, model.Inquiry) bool    { return false }
func (noopTransitionNotifier) NotifyVisitConfirmed(context.Context, model.VisitRequest) bool { return false }
func (noopTransitionNotifier) NotifyVisitDeclined(context.Context, model.VisitRequest) bool  { return false }

func resolveTransitionNotifier(notifier TransitionNotifier) TransitionNotifier {
	if notifier == nil {
		return noopTransitionNotifier{}
	}
	return notifier
}

// InquiryUpdate is the set of staff-editable inquiry fields. Nil fields are
// left untouched.
type InquiryUpdate struct {
	Answered      *bool
	Answer        *string
	InternalNotes *string
}

// VisitRequestUpdate is the set of staff-editable visit request fields. Nil
// fields are left untouched.
type VisitRequestUpdate struct {
	Status     *string
	AgentReply *string
}

// Coordinator applies staff updates to inquiries and visit requests as a
// single snapshot/apply/commit transaction, then dispatches transition
// notifications after the commit. Notification failure never affects the
// stored state.
type Coordinator struct {
	database      *gorm.DB
	logger        *zap.Logger
	notifier      TransitionNotifier
	worker        *task.DispatchWorker
	noticeTimeout time.Duration
	now           func() time.Time
}

// NewCoordinator constructs a Coordinator with the provided dependencies.
func NewCoordinator(database *gorm.DB, logger *zap.Logger, notifier TransitionNotifier) *Coordinator {
	return &Coordinator{
		database:      database,
		logger:        logger,
		notifier:      resolveTransitionNotifier(notifier),
		noticeTimeout: defaultNoticeTimeout,
		now:           time.Now,
	}
}

// WithClock overrides the coordinator's clock.
func (coordinator *Coordinator) WithClock(now func() time.Time) *Coordinator {
	if now != nil {
		coordinator.now = now
	}
	return coordinator
}

// WithWorker attaches a dispatch worker so transition notices run off the
// request goroutine.
func (coordinator *Coordinator) WithWorker(worker *task.DispatchWorker) *Coordinator {
	coordinator.worker = worker
	return coordinator
}

// WithNoticeTimeout overrides the bound applied to inline notice dispatch.
func (coordinator *Coordinator) WithNoticeTimeout(noticeTimeout time.Duration) *Coordinator {
	if noticeTimeout > 0 {
		coordinator.noticeTimeout = noticeTimeout
	}
	return coordinator
}

// dispatchNotice runs a transition notice through the worker when one is
// attached, otherwise inline under a bounded timeout, so a slow mail server
// never stalls the staff request. Delivery outcome is counted and a dropped
// notice logged either way.
func (coordinator *Coordinator) dispatchNotice(jobName string, droppedEvent string, fields []zap.Field, job task.Job) {
	wrapped := func(noticeCtx context.Context) bool {
		delivered := job(noticeCtx)
		metrics.RecordNoticeDispatched(jobName, delivered)
		if !delivered {
			coordinator.logger.Warn(droppedEvent, fields...)
		}
		return delivered
	}
	if coordinator.worker != nil && coordinator.worker.Enqueue(jobName, wrapped) {
		return
	}
	noticeCtx, cancel := context.WithTimeout(context.Background(), coordinator.noticeTimeout)
	defer cancel()
	wrapped(noticeCtx)
}

// ApplyInquiryUpdate loads the inquiry, applies the update inside one
// transaction and evaluates the answered-transition rules. When a notification
// is due, answered-at is set before the commit and the notice is dispatched
// after it.
func (coordinator *Coordinator) ApplyInquiryUpdate(ctx context.Context, inquiryID string, update InquiryUpdate) (model.Inquiry, TransitionEvent, error) {
	var committed model.Inquiry
	var result InquiryTransitionResult

	transactionErr := coordinator.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		snapshot, snapshotErr := LoadInquirySnapshot(ctx, transaction, inquiryID)
		if snapshotErr != nil {
			return snapshotErr
		}

		var inquiry model.Inquiry
		if findErr := transaction.First(&inquiry, "id = ?", strings.TrimSpace(inquiryID)).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrInquiryNotFound
			}
			return fmt.Errorf("lifecycle: load inquiry: %w", findErr)
		}

		if update.Answered != nil {
			inquiry.Answered = *update.Answered
		}
		if update.Answer != nil {
			inquiry.Answer = *update.Answer
		}
		if update.InternalNotes != nil {
			inquiry.InternalNotes = *update.InternalNotes
		}

		result = EvaluateInquiryTransition(snapshot, inquiry)
		if result.ForceAnswered {
			inquiry.Answered = true
		}
		if result.Event != TransitionNone && inquiry.AnsweredAt == nil {
			answeredAt := coordinator.now().UTC()
			inquiry.AnsweredAt = &answeredAt
		}

		if saveErr := transaction.Save(&inquiry).Error; saveErr != nil {
			return fmt.Errorf("lifecycle: save inquiry: %w", saveErr)
		}

		committed = inquiry
		return nil
	})
	if transactionErr != nil {
		return model.Inquiry{}, TransitionNone, transactionErr
	}

	if result.Event == TransitionInquiryAnswered {
		coordinator.dispatchNotice(noticeJobInquiryAnswered, logEventInquiryNotificationDropped,
			[]zap.Field{
				zap.String(logFieldInquiryID, committed.ID),
				zap.String(logFieldTransition, string(result.Event)),
			},
			func(noticeCtx context.Context) bool {
				return coordinator.notifier.NotifyInquiryAnswered(noticeCtx, committed)
			})
	}

	return committed, result.Event, nil
}

// ApplyVisitRequestUpdate loads the visit request, applies the update inside
// one transaction and dispatches the customer notice the status transition
// warrants after the commit.
func (coordinator *Coordinator) ApplyVisitRequestUpdate(ctx context.Context, visitRequestID string, update VisitRequestUpdate) (model.VisitRequest, TransitionEvent, error) {
	if update.Status != nil {
		if statusErr := model.ValidateVisitRequestStatus(strings.TrimSpace(*update.Status)); statusErr != nil {
			return model.VisitRequest{}, TransitionNone, statusErr
		}
	}

	var committed model.VisitRequest
	event := TransitionNone

	transactionErr := coordinator.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		snapshot, snapshotErr := LoadVisitRequestSnapshot(ctx, transaction, visitRequestID)
		if snapshotErr != nil {
			return snapshotErr
		}

		var visit model.VisitRequest
		if findErr := transaction.First(&visit, "id = ?", strings.TrimSpace(visitRequestID)).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrVisitRequestNotFound
			}
			return fmt.Errorf("lifecycle: load visit request: %w", findErr)
		}

		if update.Status != nil {
			visit.Status = strings.TrimSpace(*update.Status)
		}
		if update.AgentReply != nil {
			visit.AgentReply = *update.AgentReply
		}

		event = EvaluateVisitRequestTransition(snapshot, visit)

		if saveErr := transaction.Save(&visit).Error; saveErr != nil {
			return fmt.Errorf("lifecycle: save visit request: %w", saveErr)
		}

		committed = visit
		return nil
	})
	if transactionErr != nil {
		return model.VisitRequest{}, TransitionNone, transactionErr
	}

	droppedFields := []zap.Field{
		zap.String(logFieldVisitRequestID, committed.ID),
		zap.String(logFieldTransition, string(event)),
	}
	switch event {
	case TransitionVisitConfirmed:
		coordinator.dispatchNotice(noticeJobVisitConfirmed, logEventVisitRequestNotificationDropped, droppedFields,
			func(noticeCtx context.Context) bool {
				return coordinator.notifier.NotifyVisitConfirmed(noticeCtx, committed)
			})
	case TransitionVisitDeclined:
		coordinator.dispatchNotice(noticeJobVisitDeclined, logEventVisitRequestNotificationDropped, droppedFields,
			func(noticeCtx context.Context) bool {
				return coordinator.notifier.NotifyVisitDeclined(noticeCtx, committed)
			})
	}

	return committed, event, nil
}
