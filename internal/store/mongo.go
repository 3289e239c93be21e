package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"driftmarket/server/internal/apperrors"
	"driftmarket/server/internal/db"
	"driftmarket/server/internal/models"
	"driftmarket/server/internal/utils"
)

const (
	threadsCollection  = "threads"
	messagesCollection = "messages"
)

// mongoGateway implements Gateway on top of MongoDB. Per-thread
// linearizability comes from session transactions: two transactions writing
// the same thread document conflict, one aborts with a transient label and
// is retried by the caller against the committed state.
type mongoGateway struct {
	db *mongo.Database
}

// NewMongoGateway creates a Gateway backed by the given database.
func NewMongoGateway(db *mongo.Database) Gateway {
	return &mongoGateway{db: db}
}

func (g *mongoGateway) InsertThread(ctx context.Context, thread *models.Thread) error {
	_, err := g.db.Collection(threadsCollection).InsertOne(ctx, thread)
	if err != nil {
		return storeErr(fmt.Sprintf("insert thread %s", thread.ID.String()), err)
	}
	return nil
}

func (g *mongoGateway) FindThread(ctx context.Context, id utils.SixID) (*models.Thread, error) {
	var thread models.Thread
	err := g.db.Collection(threadsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&thread)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound(fmt.Sprintf("thread %s not found", id.String()))
		}
		return nil, storeErr(fmt.Sprintf("find thread %s", id.String()), err)
	}
	return &thread, nil
}

func (g *mongoGateway) ListThreads(ctx context.Context) ([]models.Thread, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})
	cursor, err := g.db.Collection(threadsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr("list threads", err)
	}
	defer cursor.Close(ctx)

	threads := []models.Thread{}
	if err := cursor.All(ctx, &threads); err != nil {
		return nil, storeErr("decode threads", err)
	}
	return threads, nil
}

func (g *mongoGateway) UpdateThread(ctx context.Context, id utils.SixID, patch ThreadPatch) (*models.Thread, error) {
	update := patch.toUpdate()
	if len(update) == 0 {
		return g.FindThread(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Thread
	err := g.db.Collection(threadsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound(fmt.Sprintf("thread %s not found", id.String()))
		}
		return nil, storeErr(fmt.Sprintf("update thread %s", id.String()), err)
	}
	return &updated, nil
}

func (g *mongoGateway) InsertMessage(ctx context.Context, msg *models.Message) error {
	_, err := g.db.Collection(messagesCollection).InsertOne(ctx, msg)
	if err != nil {
		return storeErr(fmt.Sprintf("insert message %s", msg.ID.String()), err)
	}
	return nil
}

func (g *mongoGateway) ListMessages(ctx context.Context, threadID utils.SixID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: 1}})
	cursor, err := g.db.Collection(messagesCollection).Find(ctx, bson.M{"thread_id": threadID}, opts)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("list messages for thread %s", threadID.String()), err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, storeErr("decode messages", err)
	}
	return messages, nil
}

func (g *mongoGateway) WithThreadTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	// Transient aborts (two writers racing on the same thread document) are
	// retried from scratch against the committed state.
	err := db.Try(func() error {
		session, err := g.db.Client().StartSession()
		if err != nil {
			return err
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		})
		return err
	})
	if err != nil {
		// Domain errors raised inside fn abort the transaction and pass
		// through untouched.
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return storeErr("thread transaction", err)
	}
	return nil
}

// toUpdate translates the typed patch to a Mongo update document.
func (p ThreadPatch) toUpdate() bson.M {
	set := bson.M{}
	if p.Preview != nil {
		set["preview"] = *p.Preview
	}
	if p.LastMessageAt != nil {
		set["last_message_at"] = *p.LastMessageAt
	}
	if p.UnreadCount != nil {
		set["unread_count"] = *p.UnreadCount
	}
	if p.Blocked != nil {
		set["blocked"] = *p.Blocked
	}
	if p.Reported != nil {
		set["reported"] = *p.Reported
	}
	if p.Offer != nil {
		set["offer_state"] = p.Offer
	}
	if p.OfferStatus != nil {
		set["offer_state.status"] = *p.OfferStatus
	}
	if p.OfferActor != nil {
		set["offer_state.last_updated_by"] = *p.OfferActor
	}

	update := bson.M{}
	if len(set) > 0 {
		set["updated_at"] = nowUTC()
		update["$set"] = set
	}
	if p.UnreadCount == nil && p.IncUnreadBy != 0 {
		update["$inc"] = bson.M{"unread_count": p.IncUnreadBy}
	}
	return update
}

func nowUTC() time.Time { return time.Now().UTC() }

func storeErr(op string, err error) error {
	return apperrors.StoreUnavailable(fmt.Sprintf("store: %s failed", op), err)
}
