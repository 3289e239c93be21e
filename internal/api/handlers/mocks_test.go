package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"driftmarket/server/internal/models"
	"driftmarket/server/internal/utils"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) CreateThread(ctx context.Context, listingTitle, sellerName string) (*models.Thread, error) {
	args := m.Called(ctx, listingTitle, sellerName)
	if t := args.Get(0); t != nil {
		return t.(*models.Thread), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDispatcher) AppendMessage(ctx context.Context, threadID utils.SixID, sender models.Sender, body, attachmentKey string) (*models.Message, error) {
	args := m.Called(ctx, threadID, sender, body, attachmentKey)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDispatcher) SetModeration(ctx context.Context, threadID utils.SixID, blocked, reported *bool) (*models.Thread, error) {
	args := m.Called(ctx, threadID, blocked, reported)
	if t := args.Get(0); t != nil {
		return t.(*models.Thread), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDispatcher) MarkThreadRead(ctx context.Context, threadID utils.SixID) (*models.Thread, error) {
	args := m.Called(ctx, threadID)
	if t := args.Get(0); t != nil {
		return t.(*models.Thread), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDispatcher) SubmitOffer(ctx context.Context, threadID utils.SixID, amount float64, expiresAt time.Time, proposer string, status models.OfferStatus) (*models.OfferState, error) {
	args := m.Called(ctx, threadID, amount, expiresAt, proposer, status)
	if o := args.Get(0); o != nil {
		return o.(*models.OfferState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDispatcher) TransitionOffer(ctx context.Context, threadID utils.SixID, newStatus models.OfferStatus, actor string) (*models.OfferState, error) {
	args := m.Called(ctx, threadID, newStatus, actor)
	if o := args.Get(0); o != nil {
		return o.(*models.OfferState), args.Error(1)
	}
	return nil, args.Error(1)
}

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
