package services

import (
	"context"
	"fmt"
	"time"

	"driftmarket/server/internal/apperrors"
	"driftmarket/server/internal/models"
	"driftmarket/server/internal/store"
	"driftmarket/server/internal/utils"
)

// IOfferService owns the offer lifecycle on a thread. Transitions are
// monotone within a negotiation episode; only a fresh submission restarts
// from a non-terminal status. Expiry is lazy: it is evaluated against the
// clock at read and transition time, never by a required background job.
type IOfferService interface {
	SubmitOffer(ctx context.Context, threadID utils.SixID, amount float64, expiresAt time.Time, proposer string, status models.OfferStatus) (*models.OfferState, error)
	TransitionOffer(ctx context.Context, threadID utils.SixID, newStatus models.OfferStatus, actor string) (*models.OfferState, error)
	GetOffer(ctx context.Context, threadID utils.SixID) (*models.OfferState, error)
}

// offerTransitions is the reachability table for one episode. Expired is
// never a requestable target: it is only ever reached by lapse (lazy
// evaluation at read time, persisted by the sweep's direct store patch).
var offerTransitions = map[models.OfferStatus][]models.OfferStatus{
	models.OfferPending:   {models.OfferCountered, models.OfferAccepted, models.OfferDeclined},
	models.OfferCountered: {models.OfferAccepted, models.OfferDeclined},
}

func transitionAllowed(from, to models.OfferStatus) bool {
	for _, next := range offerTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// offerService implements IOfferService.
type offerService struct {
	store      store.Gateway
	defaultTTL time.Duration
}

// NewOfferService creates a new OfferService. defaultTTL is applied when a
// submission omits expiresAt.
func NewOfferService(gw store.Gateway, defaultTTL time.Duration) IOfferService {
	if defaultTTL <= 0 {
		defaultTTL = 48 * time.Hour
	}
	return &offerService{store: gw, defaultTTL: defaultTTL}
}

// SubmitOffer starts a new negotiation episode, replacing any previous offer
// state on the thread as a unit. An empty status defaults to pending; a zero
// expiresAt defaults to now plus the configured TTL.
func (s *offerService) SubmitOffer(ctx context.Context, threadID utils.SixID, amount float64, expiresAt time.Time, proposer string, status models.OfferStatus) (*models.OfferState, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidAmount("offer amount must be positive")
	}
	now := time.Now().UTC()
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.defaultTTL)
	}
	if !expiresAt.After(now) {
		return nil, apperrors.InvalidExpiry("offer expiry must be in the future")
	}
	if status == "" {
		status = models.OfferPending
	}
	if !status.Valid() {
		return nil, apperrors.InvalidArg(fmt.Sprintf("unknown offer status %q", status))
	}
	if proposer == "" {
		return nil, apperrors.InvalidArg("proposer is required")
	}

	offer := &models.OfferState{
		Amount:        amount,
		Status:        status,
		ExpiresAt:     expiresAt.UTC(),
		LastUpdatedBy: proposer,
		SubmittedAt:   now,
	}

	err := s.store.WithThreadTxn(ctx, func(txCtx context.Context) error {
		if _, err := s.store.FindThread(txCtx, threadID); err != nil {
			return err
		}
		_, err := s.store.UpdateThread(txCtx, threadID, store.ThreadPatch{Offer: offer})
		return err
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// TransitionOffer moves the live offer to newStatus. The read and the write
// share one store transaction, so a concurrent transition is re-validated
// against the first writer's committed state rather than a stale snapshot.
func (s *offerService) TransitionOffer(ctx context.Context, threadID utils.SixID, newStatus models.OfferStatus, actor string) (*models.OfferState, error) {
	if !newStatus.Valid() {
		return nil, apperrors.InvalidArg(fmt.Sprintf("unknown offer status %q", newStatus))
	}
	if actor == "" {
		return nil, apperrors.InvalidArg("actor is required")
	}

	var updated *models.OfferState
	err := s.store.WithThreadTxn(ctx, func(txCtx context.Context) error {
		thread, err := s.store.FindThread(txCtx, threadID)
		if err != nil {
			return err
		}
		offer := thread.OfferState
		if offer == nil {
			return apperrors.NotFound(fmt.Sprintf("thread %s has no offer", threadID.String()))
		}

		now := time.Now().UTC()
		current := offer.EffectiveStatus(now)
		if current == models.OfferExpired && offer.Status != models.OfferExpired {
			// Lapsed: the stored status is stale. Any requested transition is
			// invalid; the next sweep (or submission) settles the record.
			return apperrors.InvalidTransition("offer has expired")
		}
		if !transitionAllowed(current, newStatus) {
			return apperrors.InvalidTransition(fmt.Sprintf("cannot transition offer from %s to %s", current, newStatus))
		}

		next := *offer
		next.Status = newStatus
		next.LastUpdatedBy = actor
		if _, err := s.store.UpdateThread(txCtx, threadID, store.ThreadPatch{Offer: &next}); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetOffer returns the thread's offer with lazy expiry applied.
func (s *offerService) GetOffer(ctx context.Context, threadID utils.SixID) (*models.OfferState, error) {
	thread, err := s.store.FindThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.OfferState == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("thread %s has no offer", threadID.String()))
	}
	offer := *thread.OfferState
	offer.Status = offer.EffectiveStatus(time.Now().UTC())
	return &offer, nil
}
