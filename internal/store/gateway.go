package store

import (
	"context"
	"time"

	"driftmarket/server/internal/models"
	"driftmarket/server/internal/utils"
)

// ThreadPatch is a typed partial update for a thread record. Nil fields are
// left untouched. Summary fields travel together with the message insert
// inside a gateway transaction, so no caller can write them independently.
type ThreadPatch struct {
	Preview       *string
	LastMessageAt *time.Time
	IncUnreadBy   int  // added to unread_count when non-zero
	UnreadCount   *int // absolute reset; wins over IncUnreadBy
	Blocked       *bool
	Reported      *bool
	Offer         *models.OfferState // replaces the whole offer state when non-nil
	OfferStatus   *models.OfferStatus
	OfferActor    *string
}

// Gateway is the narrow persistence boundary for threads and messages.
// Writes to the same thread id are linearizable: mutations run inside
// WithThreadTxn, and concurrent transactions touching the same thread
// document conflict and retry.
type Gateway interface {
	InsertThread(ctx context.Context, thread *models.Thread) error
	FindThread(ctx context.Context, id utils.SixID) (*models.Thread, error)
	ListThreads(ctx context.Context) ([]models.Thread, error)
	UpdateThread(ctx context.Context, id utils.SixID, patch ThreadPatch) (*models.Thread, error)

	InsertMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, threadID utils.SixID) ([]models.Message, error)

	// WithThreadTxn runs fn inside a store transaction. fn must use the
	// context it receives for every gateway call; the whole body commits or
	// rolls back as a unit.
	WithThreadTxn(ctx context.Context, fn func(ctx context.Context) error) error
}
