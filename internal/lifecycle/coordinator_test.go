package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/lifecycle"
	"github.com/RepettoEstates/listing_svc/internal/model"
	"github.com/RepettoEstates/listing_svc/internal/task"
	"github.com/RepettoEstates/listing_svc/internal/testutil"
)

type recordingTransitionNotifier struct {
	delivered            bool
	answeredInquiries    []model.Inquiry
	confirmedVisits      []model.VisitRequest
	declinedVisits       []model.VisitRequest
}

func newRecordingTransitionNotifier() *recordingTransitionNotifier {
	return &recordingTransitionNotifier{delivered: true}
}

func (notifier *recordingTransitionNotifier) NotifyInquiryAnswered(_ context.Context, inquiry model.Inquiry) bool {
	notifier.answeredInquiries = append(notifier.answeredInquiries, inquiry)
	return notifier.delivered
}

func (notifier *recordingTransitionNotifier) NotifyVisitConfirmed(_ context.Context, visit model.VisitRequest) bool {
	notifier.confirmedVisits = append(notifier.confirmedVisits, visit)
	return notifier.delivered
}

func (notifier *recordingTransitionNotifier) NotifyVisitDeclined(_ context.Context, visit model.VisitRequest) bool {
	notifier.declinedVisits = append(notifier.declinedVisits, visit)
	return notifier.delivered
}

func openCoordinatorTestDatabase(testingT *testing.T) *gorm.DB {
	testingT.Helper()
	return testutil.NewSQLiteTestDatabase(testingT).Open(testingT)
}

func createTestInquiry(testingT *testing.T, database *gorm.DB) model.Inquiry {
	testingT.Helper()

	inquiry, newErr := model.NewInquiry(model.InquiryInput{
		Name:    "Laura Benitez",
		Email:   "laura@example.com",
		Message: "Is the house on Alvear street still listed?",
		Origin:  model.InquiryOriginContact,
	})
	require.NoError(testingT, newErr)
	require.NoError(testingT, database.Create(&inquiry).Error)
	return inquiry
}

func createTestVisitRequest(testingT *testing.T, database *gorm.DB) model.VisitRequest {
	testingT.Helper()

	visit, newErr := model.NewVisitRequest(model.VisitRequestInput{
		PropertyID:    "property-1",
		Name:          "Marcos Duarte",
		Email:         "marcos@example.com",
		Phone:         "3764112233",
		PreferredDate: time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
		PreferredTime: "10:30",
		Now:           time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(testingT, newErr)
	require.NoError(testingT, database.Create(&visit).Error)
	return visit
}

func stringPointer(value string) *string { return &value }

func boolPointer(value bool) *bool { return &value }

func TestApplyInquiryUpdateFirstAnswerNotifiesAndStampsAnsweredAt(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	notifier := newRecordingTransitionNotifier()
	fixedNow := time.Date(2025, time.March, 11, 9, 30, 0, 0, time.UTC)
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier).WithClock(func() time.Time { return fixedNow })

	inquiry := createTestInquiry(testingT, database)

	committed, event, applyErr := coordinator.ApplyInquiryUpdate(context.Background(), inquiry.ID, lifecycle.InquiryUpdate{
		Answered: boolPointer(true),
		Answer:   stringPointer("Yes, it is still listed. Visits run on weekdays."),
	})
	require.NoError(testingT, applyErr)
	require.Equal(testingT, lifecycle.TransitionInquiryAnswered, event)
	require.True(testingT, committed.Answered)
	require.NotNil(testingT, committed.AnsweredAt)
	require.Equal(testingT, fixedNow, committed.AnsweredAt.UTC())
	require.Len(testingT, notifier.answeredInquiries, 1)
	require.Equal(testingT, inquiry.ID, notifier.answeredInquiries[0].ID)

	var stored model.Inquiry
	require.NoError(testingT, database.First(&stored, "id = ?", inquiry.ID).Error)
	require.True(testingT, stored.Answered)
	require.NotNil(testingT, stored.AnsweredAt)
}

func TestApplyInquiryUpdateAnswerTextOnlyForcesAnsweredAndNotifiesOnce(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	notifier := newRecordingTransitionNotifier()
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier)

	inquiry := createTestInquiry(testingT, database)

	committed, event, applyErr := coordinator.ApplyInquiryUpdate(context.Background(), inquiry.ID, lifecycle.InquiryUpdate{
		Answer: stringPointer("Reply typed without marking the inquiry answered."),
	})
	require.NoError(testingT, applyErr)
	require.Equal(testingT, lifecycle.TransitionInquiryAnswered, event)
	require.True(testingT, committed.Answered)
	require.Len(testingT, notifier.answeredInquiries, 1)
}

func TestApplyInquiryUpdateRevisedAnswerNotifiesAgainWithoutRestamping(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	notifier := newRecordingTransitionNotifier()
	firstNow := time.Date(2025, time.March, 11, 9, 30, 0, 0, time.UTC)
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier).WithClock(func() time.Time { return firstNow })

	inquiry := createTestInquiry(testingT, database)

	first, _, firstErr := coordinator.ApplyInquiryUpdate(context.Background(), inquiry.ID, lifecycle.InquiryUpdate{
		Answered: boolPointer(true),
		Answer:   stringPointer("First reply."),
	})
	require.NoError(testingT, firstErr)
	require.NotNil(testingT, first.AnsweredAt)

	coordinator.WithClock(func() time.Time { return firstNow.Add(48 * time.Hour) })

	revised, event, revisedErr := coordinator.ApplyInquiryUpdate(context.Background(), inquiry.ID, lifecycle.InquiryUpdate{
		Answer: stringPointer("Revised reply with the updated asking price."),
	})
	require.NoError(testingT, revisedErr)
	require.Equal(testingT, lifecycle.TransitionInquiryAnswered, event)
	require.Len(testingT, notifier.answeredInquiries, 2)
	require.NotNil(testingT, revised.AnsweredAt)
	require.Equal(testingT, first.AnsweredAt.UTC(), revised.AnsweredAt.UTC())
}

func TestApplyInquiryUpdateNoteOnlyEditIsSilent(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	notifier := newRecordingTransitionNotifier()
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier)

	inquiry := createTestInquiry(testingT, database)

	committed, event, applyErr := coordinator.ApplyInquiryUpdate(context.Background(), inquiry.ID, lifecycle.InquiryUpdate{
		InternalNotes: stringPointer("called back, left voicemail"),
	})
	require.NoError(testingT, applyErr)
	require.Equal(testingT, lifecycle.TransitionNone, event)
	require.False(testingT, committed.Answered)
	require.Empty(testingT, notifier.answeredInquiries)
}

func TestApplyInquiryUpdateUnchangedAnswerIsSilent(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	notifier := newRecordingTransitionNotifier()
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier)

	inquiry := createTestInquiry(testingT, database)

	_, _, firstErr := coordinator.ApplyInquiryUpdate(context.Background(), inquiry.ID, lifecycle.InquiryUpdate{
		Answered: boolPointer(true),
		Answer:   stringPointer("Stable reply."),
	})
	require.NoError(testingT, firstErr)

	_, event, secondErr := coordinator.ApplyInquiryUpdate(context.Background(), inquiry.ID, lifecycle.InquiryUpdate{
		Answer: stringPointer("  Stable reply.  "),
	})
	require.NoError(testingT, secondErr)
	require.Equal(testingT, lifecycle.TransitionNone, event)
	require.Len(testingT, notifier.answeredInquiries, 1)
}

func TestApplyInquiryUpdateFailedDeliveryKeepsCommittedState(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	notifier := newRecordingTransitionNotifier()
	notifier.delivered = false
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier)

	inquiry := createTestInquiry(testingT, database)

	committed, event, applyErr := coordinator.ApplyInquiryUpdate(context.Background(), inquiry.ID, lifecycle.InquiryUpdate{
		Answered: boolPointer(true),
		Answer:   stringPointer("This reply is stored even when delivery fails."),
	})
	require.NoError(testingT, applyErr)
	require.Equal(testingT, lifecycle.TransitionInquiryAnswered, event)
	require.True(testingT, committed.Answered)

	var stored model.Inquiry
	require.NoError(testingT, database.First(&stored, "id = ?", inquiry.ID).Error)
	require.True(testingT, stored.Answered)
	require.Equal(testingT, "This reply is stored even when delivery fails.", stored.Answer)
}

func TestApplyInquiryUpdateMissingInquiry(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), newRecordingTransitionNotifier())

	_, _, applyErr := coordinator.ApplyInquiryUpdate(context.Background(), "missing-id", lifecycle.InquiryUpdate{
		Answer: stringPointer("nobody to answer"),
	})
	require.ErrorIs(testingT, applyErr, lifecycle.ErrInquiryNotFound)
}

func TestApplyVisitRequestUpdateConfirmNotifies(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	notifier := newRecordingTransitionNotifier()
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier)

	visit := createTestVisitRequest(testingT, database)

	committed, event, applyErr := coordinator.ApplyVisitRequestUpdate(context.Background(), visit.ID, lifecycle.VisitRequestUpdate{
		Status:     stringPointer(model.VisitRequestStatusConfirmed),
		AgentReply: stringPointer("See you at the property at 10:30."),
	})
	require.NoError(testingT, applyErr)
	require.Equal(testingT, lifecycle.TransitionVisitConfirmed, event)
	require.Equal(testingT, model.VisitRequestStatusConfirmed, committed.Status)
	require.Len(testingT, notifier.confirmedVisits, 1)
	require.Empty(testingT, notifier.declinedVisits)
}

func TestApplyVisitRequestUpdateDeclineNotifies(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	notifier := newRecordingTransitionNotifier()
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier)

	visit := createTestVisitRequest(testingT, database)

	_, event, applyErr := coordinator.ApplyVisitRequestUpdate(context.Background(), visit.ID, lifecycle.VisitRequestUpdate{
		Status: stringPointer(model.VisitRequestStatusDeclined),
	})
	require.NoError(testingT, applyErr)
	require.Equal(testingT, lifecycle.TransitionVisitDeclined, event)
	require.Len(testingT, notifier.declinedVisits, 1)
}

func TestApplyVisitRequestUpdateRepeatedConfirmIsSilent(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	notifier := newRecordingTransitionNotifier()
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier)

	visit := createTestVisitRequest(testingT, database)

	_, _, firstErr := coordinator.ApplyVisitRequestUpdate(context.Background(), visit.ID, lifecycle.VisitRequestUpdate{
		Status: stringPointer(model.VisitRequestStatusConfirmed),
	})
	require.NoError(testingT, firstErr)

	_, event, secondErr := coordinator.ApplyVisitRequestUpdate(context.Background(), visit.ID, lifecycle.VisitRequestUpdate{
		Status:     stringPointer(model.VisitRequestStatusConfirmed),
		AgentReply: stringPointer("Reconfirming the same slot."),
	})
	require.NoError(testingT, secondErr)
	require.Equal(testingT, lifecycle.TransitionNone, event)
	require.Len(testingT, notifier.confirmedVisits, 1)
}

func TestApplyVisitRequestUpdateCompletionIsSilent(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	notifier := newRecordingTransitionNotifier()
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier)

	visit := createTestVisitRequest(testingT, database)

	_, event, applyErr := coordinator.ApplyVisitRequestUpdate(context.Background(), visit.ID, lifecycle.VisitRequestUpdate{
		Status: stringPointer(model.VisitRequestStatusCompleted),
	})
	require.NoError(testingT, applyErr)
	require.Equal(testingT, lifecycle.TransitionNone, event)
	require.Empty(testingT, notifier.confirmedVisits)
	require.Empty(testingT, notifier.declinedVisits)
}

func TestApplyVisitRequestUpdateRejectsUnknownStatus(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), newRecordingTransitionNotifier())

	visit := createTestVisitRequest(testingT, database)

	_, _, applyErr := coordinator.ApplyVisitRequestUpdate(context.Background(), visit.ID, lifecycle.VisitRequestUpdate{
		Status: stringPointer("postponed"),
	})
	require.ErrorIs(testingT, applyErr, model.ErrInvalidVisitRequestStatus)
}

func TestApplyVisitRequestUpdateMissingVisitRequest(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), newRecordingTransitionNotifier())

	_, _, applyErr := coordinator.ApplyVisitRequestUpdate(context.Background(), "missing-id", lifecycle.VisitRequestUpdate{
		Status: stringPointer(model.VisitRequestStatusConfirmed),
	})
	require.ErrorIs(testingT, applyErr, lifecycle.ErrVisitRequestNotFound)
}

type hangingTransitionNotifier struct{}

func (hangingTransitionNotifier) NotifyInquiryAnswered(ctx context.Context, _ model.Inquiry) bool {
	<-ctx.Done()
	return false
}

func (hangingTransitionNotifier) NotifyVisitConfirmed(ctx context.Context, _ model.VisitRequest) bool {
	<-ctx.Done()
	return false
}

func (hangingTransitionNotifier) NotifyVisitDeclined(ctx context.Context, _ model.VisitRequest) bool {
	<-ctx.Done()
	return false
}

func TestApplyVisitRequestUpdateHangingNotifierReturnsWithinBound(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	visit := createTestVisitRequest(testingT, database)

	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), hangingTransitionNotifier{}).
		WithNoticeTimeout(50 * time.Millisecond)

	startedAt := time.Now()
	committed, event, applyErr := coordinator.ApplyVisitRequestUpdate(context.Background(), visit.ID, lifecycle.VisitRequestUpdate{
		Status: stringPointer(model.VisitRequestStatusConfirmed),
	})
	require.NoError(testingT, applyErr)
	require.Equal(testingT, lifecycle.TransitionVisitConfirmed, event)
	require.Less(testingT, time.Since(startedAt), 5*time.Second)

	require.Equal(testingT, model.VisitRequestStatusConfirmed, committed.Status)

	var persisted model.VisitRequest
	require.NoError(testingT, database.First(&persisted, "id = ?", visit.ID).Error)
	require.Equal(testingT, model.VisitRequestStatusConfirmed, persisted.Status)
}

func TestApplyInquiryUpdateWorkerOffloadDoesNotBlockCaller(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	inquiry := createTestInquiry(testingT, database)

	worker := task.NewDispatchWorker(zap.NewNop(), 4, 100*time.Millisecond)
	worker.Start(context.Background())
	defer worker.Stop()

	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), hangingTransitionNotifier{}).
		WithWorker(worker)

	startedAt := time.Now()
	committed, event, applyErr := coordinator.ApplyInquiryUpdate(context.Background(), inquiry.ID, lifecycle.InquiryUpdate{
		Answered: boolPointer(true),
		Answer:   stringPointer("The house is still listed."),
	})
	require.NoError(testingT, applyErr)
	require.Equal(testingT, lifecycle.TransitionInquiryAnswered, event)
	require.Less(testingT, time.Since(startedAt), 5*time.Second)
	require.True(testingT, committed.Answered)
}

func gatherNoticeCounterValue(testingT *testing.T, kind string, status string) float64 {
	testingT.Helper()

	families, gatherErr := prometheus.DefaultGatherer.Gather()
	require.NoError(testingT, gatherErr)

	for _, family := range families {
		if family.GetName() != "notices_dispatched_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, labelPair := range metric.GetLabel() {
				labels[labelPair.GetName()] = labelPair.GetValue()
			}
			if labels["kind"] == kind && labels["status"] == status {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestApplyVisitRequestUpdateCountsNoticeOutcome(testingT *testing.T) {
	database := openCoordinatorTestDatabase(testingT)
	visit := createTestVisitRequest(testingT, database)

	notifier := newRecordingTransitionNotifier()
	coordinator := lifecycle.NewCoordinator(database, zap.NewNop(), notifier)

	before := gatherNoticeCounterValue(testingT, "visit_confirmed_notice", "success")

	_, event, applyErr := coordinator.ApplyVisitRequestUpdate(context.Background(), visit.ID, lifecycle.VisitRequestUpdate{
		Status: stringPointer(model.VisitRequestStatusConfirmed),
	})
	require.NoError(testingT, applyErr)
	require.Equal(testingT, lifecycle.TransitionVisitConfirmed, event)

	after := gatherNoticeCounterValue(testingT, "visit_confirmed_notice", "success")
	require.Equal(testingT, before+1, after)
}
