package services

import (
	"context"
	"sort"
	"sync"

	"driftmarket/server/internal/apperrors"
	"driftmarket/server/internal/models"
	"driftmarket/server/internal/store"
	"driftmarket/server/internal/utils"
)

// fakeGateway is an in-memory store.Gateway for service tests. WithThreadTxn
// snapshots state up front and restores it when the body errors, mirroring
// the rollback the real gateway gets from the database.
type fakeGateway struct {
	mu       sync.Mutex
	threads  map[utils.SixID]*models.Thread
	messages []models.Message

	insertMessageErr error
	updateThreadErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{threads: make(map[utils.SixID]*models.Thread)}
}

func (g *fakeGateway) InsertThread(ctx context.Context, thread *models.Thread) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *thread
	g.threads[thread.ID] = &cp
	return nil
}

func (g *fakeGateway) FindThread(ctx context.Context, id utils.SixID) (*models.Thread, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	thread, ok := g.threads[id]
	if !ok {
		return nil, apperrors.NotFound("thread not found")
	}
	cp := *thread
	if thread.OfferState != nil {
		offer := *thread.OfferState
		cp.OfferState = &offer
	}
	return &cp, nil
}

func (g *fakeGateway) ListThreads(ctx context.Context) ([]models.Thread, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Thread, 0, len(g.threads))
	for _, thread := range g.threads {
		cp := *thread
		if thread.OfferState != nil {
			offer := *thread.OfferState
			cp.OfferState = &offer
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (g *fakeGateway) UpdateThread(ctx context.Context, id utils.SixID, patch store.ThreadPatch) (*models.Thread, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.updateThreadErr != nil {
		return nil, g.updateThreadErr
	}
	thread, ok := g.threads[id]
	if !ok {
		return nil, apperrors.NotFound("thread not found")
	}
	if patch.Preview != nil {
		thread.Preview = *patch.Preview
	}
	if patch.LastMessageAt != nil {
		thread.LastMessageAt = *patch.LastMessageAt
	}
	if patch.IncUnreadBy != 0 {
		thread.UnreadCount += patch.IncUnreadBy
	}
	if patch.UnreadCount != nil {
		thread.UnreadCount = *patch.UnreadCount
	}
	if patch.Blocked != nil {
		thread.Blocked = *patch.Blocked
	}
	if patch.Reported != nil {
		thread.Reported = *patch.Reported
	}
	if patch.Offer != nil {
		offer := *patch.Offer
		thread.OfferState = &offer
	}
	if patch.OfferStatus != nil && thread.OfferState != nil {
		thread.OfferState.Status = *patch.OfferStatus
	}
	if patch.OfferActor != nil && thread.OfferState != nil {
		thread.OfferState.LastUpdatedBy = *patch.OfferActor
	}
	cp := *thread
	if thread.OfferState != nil {
		offer := *thread.OfferState
		cp.OfferState = &offer
	}
	return &cp, nil
}

func (g *fakeGateway) InsertMessage(ctx context.Context, msg *models.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.insertMessageErr != nil {
		return g.insertMessageErr
	}
	g.messages = append(g.messages, *msg)
	return nil
}

func (g *fakeGateway) ListMessages(ctx context.Context, threadID utils.SixID) ([]models.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := []models.Message{}
	for _, msg := range g.messages {
		if msg.ThreadID == threadID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SentAt.Before(out[j].SentAt)
	})
	return out, nil
}

func (g *fakeGateway) WithThreadTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	g.mu.Lock()
	snapshotThreads := make(map[utils.SixID]*models.Thread, len(g.threads))
	for id, thread := range g.threads {
		cp := *thread
		if thread.OfferState != nil {
			offer := *thread.OfferState
			cp.OfferState = &offer
		}
		snapshotThreads[id] = &cp
	}
	snapshotMessages := append([]models.Message(nil), g.messages...)
	g.mu.Unlock()

	if err := fn(ctx); err != nil {
		g.mu.Lock()
		g.threads = snapshotThreads
		g.messages = snapshotMessages
		g.mu.Unlock()
		return err
	}
	return nil
}

// mustThread is a helper that seeds a thread directly in the fake store.
func (g *fakeGateway) mustThread(thread *models.Thread) *models.Thread {
	if err := g.InsertThread(context.Background(), thread); err != nil {
		panic(err)
	}
	return thread
}
