package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"driftmarket/server/internal/hub"
	"driftmarket/server/internal/models"
	"driftmarket/server/internal/services"
	"driftmarket/server/internal/tasks"
	"driftmarket/server/internal/utils"
)

// ITaskClient is the slice of the asynq client the dispatcher needs.
// An interface so handler and dispatcher tests can mock enqueueing.
type ITaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher sequences "persist, then broadcast" for every mutating command.
// The hub publish (and any follow-up task enqueue) happens strictly after
// the store write returns success; a persistence failure produces no
// observable side effect.
type Dispatcher struct {
	threads    services.IThreadService
	offers     services.IOfferService
	hub        *hub.Hub
	taskClient ITaskClient
}

// New creates a Dispatcher. taskClient may be nil when background tasks are
// not wired (tests, single-purpose tools).
func New(threads services.IThreadService, offers services.IOfferService, eventHub *hub.Hub, taskClient ITaskClient) *Dispatcher {
	return &Dispatcher{
		threads:    threads,
		offers:     offers,
		hub:        eventHub,
		taskClient: taskClient,
	}
}

// CreateThread starts a new conversation. No broadcast: the original system
// only pushes message and offer events.
func (d *Dispatcher) CreateThread(ctx context.Context, listingTitle, sellerName string) (*models.Thread, error) {
	return d.threads.CreateThread(ctx, listingTitle, sellerName)
}

// AppendMessage persists the message, then broadcasts it and enqueues the
// notification (and attachment) follow-ups.
func (d *Dispatcher) AppendMessage(ctx context.Context, threadID utils.SixID, sender models.Sender, body, attachmentKey string) (*models.Message, error) {
	msg, err := d.threads.AppendMessage(ctx, threadID, sender, body, attachmentKey)
	if err != nil {
		return nil, err
	}

	d.hub.Publish(hub.NewMessageEvent(msg))
	d.enqueueMessageFollowups(ctx, msg)
	return msg, nil
}

// SetModeration updates the blocked/reported flags. Moderation changes are
// not broadcast.
func (d *Dispatcher) SetModeration(ctx context.Context, threadID utils.SixID, blocked, reported *bool) (*models.Thread, error) {
	return d.threads.SetModeration(ctx, threadID, blocked, reported)
}

// MarkThreadRead resets the unread counter.
func (d *Dispatcher) MarkThreadRead(ctx context.Context, threadID utils.SixID) (*models.Thread, error) {
	return d.threads.MarkThreadRead(ctx, threadID)
}

// SubmitOffer persists a fresh offer episode, then broadcasts it.
func (d *Dispatcher) SubmitOffer(ctx context.Context, threadID utils.SixID, amount float64, expiresAt time.Time, proposer string, status models.OfferStatus) (*models.OfferState, error) {
	offer, err := d.offers.SubmitOffer(ctx, threadID, amount, expiresAt, proposer, status)
	if err != nil {
		return nil, err
	}
	d.hub.Publish(hub.NewOfferEvent(threadID, offer))
	return offer, nil
}

// TransitionOffer persists a status change, then broadcasts it.
func (d *Dispatcher) TransitionOffer(ctx context.Context, threadID utils.SixID, newStatus models.OfferStatus, actor string) (*models.OfferState, error) {
	offer, err := d.offers.TransitionOffer(ctx, threadID, newStatus, actor)
	if err != nil {
		return nil, err
	}
	d.hub.Publish(hub.NewOfferEvent(threadID, offer))
	return offer, nil
}

func (d *Dispatcher) enqueueMessageFollowups(ctx context.Context, msg *models.Message) {
	if d.taskClient == nil {
		return
	}

	if task, err := tasks.NewMessageNotifyTask(msg.ThreadID, msg.ID); err != nil {
		log.Printf("dispatch: failed to build notify task for message %s: %v", msg.ID.String(), err)
	} else if _, err := d.taskClient.EnqueueContext(ctx, task); err != nil {
		log.Printf("dispatch: failed to enqueue notify task for message %s: %v", msg.ID.String(), err)
	}

	if msg.AttachmentKey == "" {
		return
	}
	if task, err := tasks.NewAttachmentProcessTask(msg.AttachmentKey); err != nil {
		log.Printf("dispatch: failed to build attachment task for %s: %v", msg.AttachmentKey, err)
	} else if _, err := d.taskClient.EnqueueContext(ctx, task, asynq.Queue("low")); err != nil {
		log.Printf("dispatch: failed to enqueue attachment task for %s: %v", msg.AttachmentKey, err)
	}
}
