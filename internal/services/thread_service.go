package services

import (
	"context"
	"time"

	"driftmarket/server/internal/apperrors"
	"driftmarket/server/internal/models"
	"driftmarket/server/internal/store"
	"driftmarket/server/internal/utils"
)

// IThreadService defines the interface for thread and message operations.
// It owns the invariant linking a thread's summary fields to its message
// sequence: preview, last-activity time and unread count only ever change
// together with a message append (or the explicit mark-read reset).
type IThreadService interface {
	CreateThread(ctx context.Context, listingTitle, sellerName string) (*models.Thread, error)
	AppendMessage(ctx context.Context, threadID utils.SixID, sender models.Sender, body, attachmentKey string) (*models.Message, error)
	SetModeration(ctx context.Context, threadID utils.SixID, blocked, reported *bool) (*models.Thread, error)
	MarkThreadRead(ctx context.Context, threadID utils.SixID) (*models.Thread, error)
	ListThreads(ctx context.Context) ([]models.Thread, error)
	ListMessages(ctx context.Context, threadID utils.SixID) ([]models.Message, error)
}

// threadService implements IThreadService.
type threadService struct {
	store store.Gateway
}

// NewThreadService creates a new ThreadService.
func NewThreadService(gw store.Gateway) IThreadService {
	return &threadService{store: gw}
}

// CreateThread creates a new empty conversation about a listing.
func (s *threadService) CreateThread(ctx context.Context, listingTitle, sellerName string) (*models.Thread, error) {
	if listingTitle == "" {
		return nil, apperrors.InvalidArg("listingTitle is required")
	}
	if sellerName == "" {
		return nil, apperrors.InvalidArg("sellerName is required")
	}

	now := time.Now().UTC()
	thread := &models.Thread{
		ID:            utils.NewSixID(),
		ListingTitle:  listingTitle,
		SellerName:    sellerName,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.InsertThread(ctx, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

// AppendMessage inserts a message and updates the owning thread's summary
// fields in one store transaction. SentAt is server-assigned and strictly
// increasing within the thread: a wall clock that ties with or trails the
// previous message is bumped forward by a millisecond.
func (s *threadService) AppendMessage(ctx context.Context, threadID utils.SixID, sender models.Sender, body, attachmentKey string) (*models.Message, error) {
	if !sender.Valid() {
		return nil, apperrors.InvalidArg("sender must be buyer or seller")
	}
	if body == "" && attachmentKey == "" {
		return nil, apperrors.InvalidArg("message must have a body or an attachment")
	}

	var msg *models.Message
	err := s.store.WithThreadTxn(ctx, func(txCtx context.Context) error {
		thread, err := s.store.FindThread(txCtx, threadID)
		if err != nil {
			return err
		}
		if thread.Blocked {
			return apperrors.Blocked("thread is blocked; no further messages accepted")
		}

		sentAt := time.Now().UTC()
		if !sentAt.After(thread.LastMessageAt) {
			sentAt = thread.LastMessageAt.Add(time.Millisecond)
		}

		msg = &models.Message{
			ID:            utils.NewSixID(),
			ThreadID:      threadID,
			Sender:        sender,
			Body:          body,
			AttachmentKey: attachmentKey,
			SentAt:        sentAt,
		}
		if err := s.store.InsertMessage(txCtx, msg); err != nil {
			return err
		}

		preview := msg.PreviewText()
		patch := store.ThreadPatch{
			Preview:       &preview,
			LastMessageAt: &sentAt,
		}
		if sender == models.SenderSeller {
			patch.IncUnreadBy = 1
		}
		_, err = s.store.UpdateThread(txCtx, threadID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// SetModeration updates the moderation flags. The flags are independent;
// reported is one-way and silently ignores attempts to clear it.
func (s *threadService) SetModeration(ctx context.Context, threadID utils.SixID, blocked, reported *bool) (*models.Thread, error) {
	patch := store.ThreadPatch{Blocked: blocked}
	if reported != nil && *reported {
		patch.Reported = reported
	}
	return s.store.UpdateThread(ctx, threadID, patch)
}

// MarkThreadRead resets the unread counter. This is the only path that
// decreases it.
func (s *threadService) MarkThreadRead(ctx context.Context, threadID utils.SixID) (*models.Thread, error) {
	zero := 0
	return s.store.UpdateThread(ctx, threadID, store.ThreadPatch{UnreadCount: &zero})
}

// ListThreads returns all threads ordered by most recent activity, with
// lapsed offers normalized to expired (lazy expiry at read time).
func (s *threadService) ListThreads(ctx context.Context) ([]models.Thread, error) {
	threads, err := s.store.ListThreads(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range threads {
		if offer := threads[i].OfferState; offer != nil {
			offer.Status = offer.EffectiveStatus(now)
		}
	}
	return threads, nil
}

// ListMessages returns the thread's messages ascending by sent-at. A thread
// with no messages yields an empty slice, not an error.
func (s *threadService) ListMessages(ctx context.Context, threadID utils.SixID) ([]models.Message, error) {
	return s.store.ListMessages(ctx, threadID)
}
