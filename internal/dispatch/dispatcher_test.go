package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"driftmarket/server/internal/apperrors"
	"driftmarket/server/internal/hub"
	"driftmarket/server/internal/models"
	"driftmarket/server/internal/tasks"
	"driftmarket/server/internal/utils"
)

type mockThreadService struct {
	mock.Mock
}

func (m *mockThreadService) CreateThread(ctx context.Context, listingTitle, sellerName string) (*models.Thread, error) {
	args := m.Called(ctx, listingTitle, sellerName)
	if t := args.Get(0); t != nil {
		return t.(*models.Thread), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockThreadService) AppendMessage(ctx context.Context, threadID utils.SixID, sender models.Sender, body, attachmentKey string) (*models.Message, error) {
	args := m.Called(ctx, threadID, sender, body, attachmentKey)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockThreadService) SetModeration(ctx context.Context, threadID utils.SixID, blocked, reported *bool) (*models.Thread, error) {
	args := m.Called(ctx, threadID, blocked, reported)
	if t := args.Get(0); t != nil {
		return t.(*models.Thread), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockThreadService) MarkThreadRead(ctx context.Context, threadID utils.SixID) (*models.Thread, error) {
	args := m.Called(ctx, threadID)
	if t := args.Get(0); t != nil {
		return t.(*models.Thread), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockThreadService) ListThreads(ctx context.Context) ([]models.Thread, error) {
	args := m.Called(ctx)
	if t := args.Get(0); t != nil {
		return t.([]models.Thread), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockThreadService) ListMessages(ctx context.Context, threadID utils.SixID) ([]models.Message, error) {
	args := m.Called(ctx, threadID)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockOfferService struct {
	mock.Mock
}

func (m *mockOfferService) SubmitOffer(ctx context.Context, threadID utils.SixID, amount float64, expiresAt time.Time, proposer string, status models.OfferStatus) (*models.OfferState, error) {
	args := m.Called(ctx, threadID, amount, expiresAt, proposer, status)
	if o := args.Get(0); o != nil {
		return o.(*models.OfferState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOfferService) TransitionOffer(ctx context.Context, threadID utils.SixID, newStatus models.OfferStatus, actor string) (*models.OfferState, error) {
	args := m.Called(ctx, threadID, newStatus, actor)
	if o := args.Get(0); o != nil {
		return o.(*models.OfferState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOfferService) GetOffer(ctx context.Context, threadID utils.SixID) (*models.OfferState, error) {
	args := m.Called(ctx, threadID)
	if o := args.Get(0); o != nil {
		return o.(*models.OfferState), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingTaskClient captures enqueued task types instead of touching Redis.
type recordingTaskClient struct {
	enqueued []string
}

func (c *recordingTaskClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	c.enqueued = append(c.enqueued, task.Type())
	return &asynq.TaskInfo{}, nil
}

// expectEvent pulls the next broadcast off the observer, failing after a
// second of silence.
func expectEvent(t *testing.T, obs *hub.Observer) hub.Event {
	t.Helper()
	select {
	case ev := <-obs.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast event")
		return hub.Event{}
	}
}

func expectNoEvent(t *testing.T, obs *hub.Observer) {
	t.Helper()
	select {
	case ev := <-obs.Events():
		t.Fatalf("unexpected broadcast: %+v", ev)
	default:
	}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *mockThreadService, *mockOfferService, *recordingTaskClient, *hub.Observer) {
	threads := &mockThreadService{}
	offers := &mockOfferService{}
	taskClient := &recordingTaskClient{}
	eventHub := hub.New(8)

	obs := eventHub.Subscribe()
	ev := expectEvent(t, obs)
	require.Equal(t, hub.EventTypeStatus, ev.Type)

	return New(threads, offers, eventHub, taskClient), threads, offers, taskClient, obs
}

func TestDispatcher_AppendMessage_BroadcastsAfterPersist(t *testing.T) {
	d, threads, _, taskClient, obs := newTestDispatcher(t)
	ctx := context.Background()
	threadID := utils.NewSixID()

	msg := &models.Message{ID: utils.NewSixID(), ThreadID: threadID, Sender: models.SenderBuyer, Body: "hi", SentAt: time.Now().UTC()}
	threads.On("AppendMessage", ctx, threadID, models.SenderBuyer, "hi", "").Return(msg, nil)

	got, err := d.AppendMessage(ctx, threadID, models.SenderBuyer, "hi", "")
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	ev := expectEvent(t, obs)
	assert.Equal(t, hub.EventTypeMessage, ev.Type)
	assert.Equal(t, msg, ev.Payload)

	assert.Equal(t, []string{tasks.TypeMessageNotify}, taskClient.enqueued)
	threads.AssertExpectations(t)
}

func TestDispatcher_AppendMessage_FailureHasNoSideEffects(t *testing.T) {
	d, threads, _, taskClient, obs := newTestDispatcher(t)
	ctx := context.Background()
	threadID := utils.NewSixID()

	threads.On("AppendMessage", ctx, threadID, models.SenderBuyer, "hi", "").
		Return(nil, apperrors.Blocked("thread is blocked"))

	_, err := d.AppendMessage(ctx, threadID, models.SenderBuyer, "hi", "")
	assert.True(t, apperrors.Is(err, apperrors.CodeBlocked))

	expectNoEvent(t, obs)
	assert.Empty(t, taskClient.enqueued, "nothing may be enqueued for a failed persist")
}

func TestDispatcher_AppendMessage_AttachmentEnqueuesProcessing(t *testing.T) {
	d, threads, _, taskClient, _ := newTestDispatcher(t)
	ctx := context.Background()
	threadID := utils.NewSixID()

	msg := &models.Message{ID: utils.NewSixID(), ThreadID: threadID, Sender: models.SenderBuyer, AttachmentKey: "attachments/x/photo.jpg", SentAt: time.Now().UTC()}
	threads.On("AppendMessage", ctx, threadID, models.SenderBuyer, "", "attachments/x/photo.jpg").Return(msg, nil)

	_, err := d.AppendMessage(ctx, threadID, models.SenderBuyer, "", "attachments/x/photo.jpg")
	require.NoError(t, err)

	assert.Equal(t, []string{tasks.TypeMessageNotify, tasks.TypeAttachmentProcess}, taskClient.enqueued)
}

func TestDispatcher_SubmitOffer_Broadcasts(t *testing.T) {
	d, _, offers, _, obs := newTestDispatcher(t)
	ctx := context.Background()
	threadID := utils.NewSixID()
	expiry := time.Now().UTC().Add(time.Hour)

	offer := &models.OfferState{Amount: 100, Status: models.OfferPending, ExpiresAt: expiry, LastUpdatedBy: "buyer"}
	offers.On("SubmitOffer", ctx, threadID, 100.0, expiry, "buyer", models.OfferStatus("")).Return(offer, nil)

	got, err := d.SubmitOffer(ctx, threadID, 100, expiry, "buyer", "")
	require.NoError(t, err)
	assert.Equal(t, offer, got)

	ev := expectEvent(t, obs)
	require.Equal(t, hub.EventTypeOffer, ev.Type)
	payload, ok := ev.Payload.(hub.OfferPayload)
	require.True(t, ok)
	assert.Equal(t, threadID, payload.ThreadID)
	assert.Equal(t, offer, payload.Offer)
}

func TestDispatcher_TransitionOffer_Broadcasts(t *testing.T) {
	d, _, offers, _, obs := newTestDispatcher(t)
	ctx := context.Background()
	threadID := utils.NewSixID()

	offer := &models.OfferState{Amount: 100, Status: models.OfferAccepted, LastUpdatedBy: "seller"}
	offers.On("TransitionOffer", ctx, threadID, models.OfferAccepted, "seller").Return(offer, nil)

	_, err := d.TransitionOffer(ctx, threadID, models.OfferAccepted, "seller")
	require.NoError(t, err)

	ev := expectEvent(t, obs)
	assert.Equal(t, hub.EventTypeOffer, ev.Type)
}

func TestDispatcher_TransitionOffer_FailureIsSilent(t *testing.T) {
	d, _, offers, _, obs := newTestDispatcher(t)
	ctx := context.Background()
	threadID := utils.NewSixID()

	offers.On("TransitionOffer", ctx, threadID, models.OfferAccepted, "seller").
		Return(nil, apperrors.InvalidTransition("offer has expired"))

	_, err := d.TransitionOffer(ctx, threadID, models.OfferAccepted, "seller")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidTransition))
	expectNoEvent(t, obs)
}

func TestDispatcher_ModerationCommandsDoNotBroadcast(t *testing.T) {
	d, threads, _, taskClient, obs := newTestDispatcher(t)
	ctx := context.Background()
	threadID := utils.NewSixID()
	thread := &models.Thread{ID: threadID}

	blocked := true
	threads.On("SetModeration", ctx, threadID, &blocked, (*bool)(nil)).Return(thread, nil)
	threads.On("MarkThreadRead", ctx, threadID).Return(thread, nil)

	_, err := d.SetModeration(ctx, threadID, &blocked, nil)
	require.NoError(t, err)
	_, err = d.MarkThreadRead(ctx, threadID)
	require.NoError(t, err)

	expectNoEvent(t, obs)
	assert.Empty(t, taskClient.enqueued)
}

func TestDispatcher_NilTaskClient(t *testing.T) {
	threads := &mockThreadService{}
	eventHub := hub.New(8)
	d := New(threads, &mockOfferService{}, eventHub, nil)
	ctx := context.Background()
	threadID := utils.NewSixID()

	msg := &models.Message{ID: utils.NewSixID(), ThreadID: threadID, Sender: models.SenderBuyer, Body: "hi"}
	threads.On("AppendMessage", ctx, threadID, models.SenderBuyer, "hi", "").Return(msg, nil)

	_, err := d.AppendMessage(ctx, threadID, models.SenderBuyer, "hi", "")
	assert.NoError(t, err)
}
