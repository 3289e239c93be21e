package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // registered for image.Decode
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"driftmarket/server/internal/config"
	"driftmarket/server/internal/email"
	"driftmarket/server/internal/hub"
	"driftmarket/server/internal/models"
	"driftmarket/server/internal/store"
	"driftmarket/server/internal/utils"
)

// Task types.
const (
	TypeMessageNotify     = "message:notify"
	TypeAttachmentProcess = "attachment:process"
	TypeOfferExpireSweep  = "offer:expire_sweep"
)

// thumbMaxDimension bounds the generated attachment thumbnail.
const thumbMaxDimension = 512

// MessageNotifyPayload identifies the committed message to notify about.
type MessageNotifyPayload struct {
	ThreadID  utils.SixID `json:"thread_id"`
	MessageID utils.SixID `json:"message_id"`
}

// AttachmentProcessPayload identifies the uploaded object to thumbnail.
type AttachmentProcessPayload struct {
	AttachmentKey string `json:"attachment_key"`
}

// NewMessageNotifyTask builds the notification task for a freshly appended
// message.
func NewMessageNotifyTask(threadID, messageID utils.SixID) (*asynq.Task, error) {
	payload, err := json.Marshal(MessageNotifyPayload{ThreadID: threadID, MessageID: messageID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message notify payload: %w", err)
	}
	return asynq.NewTask(TypeMessageNotify, payload), nil
}

// NewAttachmentProcessTask builds the thumbnail task for an uploaded
// attachment.
func NewAttachmentProcessTask(attachmentKey string) (*asynq.Task, error) {
	payload, err := json.Marshal(AttachmentProcessPayload{AttachmentKey: attachmentKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attachment payload: %w", err)
	}
	return asynq.NewTask(TypeAttachmentProcess, payload), nil
}

// NewOfferExpireSweepTask builds the periodic sweep task.
func NewOfferExpireSweepTask() *asynq.Task {
	return asynq.NewTask(TypeOfferExpireSweep, nil)
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	})
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks. It holds the dependencies
// needed by the task handlers.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	store       store.Gateway
	hub         *hub.Hub
	s3Client    *s3.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	gw store.Gateway,
	eventHub *hub.Hub,
	s3Client *s3.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
		store:       gw,
		hub:         eventHub,
		s3Client:    s3Client,
	}
}

// SetupServer builds the asynq server; handlers are registered via SetupMux.
func SetupServer(rdb *redis.Client) *asynq.Server {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     rdb.Options().Addr,
			Password: rdb.Options().Password,
			DB:       rdb.Options().DB,
		},
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)
	return srv
}

// SetupMux registers the task handlers.
func SetupMux(processor *TaskProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMessageNotify, processor.HandleMessageNotifyTask)
	mux.HandleFunc(TypeAttachmentProcess, processor.HandleAttachmentProcessTask)
	mux.HandleFunc(TypeOfferExpireSweep, processor.HandleOfferExpireSweepTask)
	return mux
}

// HandleMessageNotifyTask emails the notification inbox about a new message.
// The message is already durable; a failed send is retried by asynq without
// touching the thread.
func (p *TaskProcessor) HandleMessageNotifyTask(ctx context.Context, t *asynq.Task) error {
	if p.cfg.NotifyEmailAddress == "" {
		return nil // notifications disabled
	}

	var payload MessageNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal message notify payload: %w", err)
	}

	thread, err := p.store.FindThread(ctx, payload.ThreadID)
	if err != nil {
		return fmt.Errorf("message notify: %w", err)
	}
	messages, err := p.store.ListMessages(ctx, payload.ThreadID)
	if err != nil {
		return fmt.Errorf("message notify: %w", err)
	}

	var body string
	for i := range messages {
		if messages[i].ID == payload.MessageID {
			body = messages[i].PreviewText()
			break
		}
	}
	if body == "" {
		log.Printf("message notify: message %s no longer listed for thread %s, skipping", payload.MessageID.String(), payload.ThreadID.String())
		return nil
	}

	subject := fmt.Sprintf("New message about %q", thread.ListingTitle)
	var raw bytes.Buffer
	fmt.Fprintf(&raw, "From: %s\r\n", p.cfg.SmtpFromAddress)
	fmt.Fprintf(&raw, "To: %s\r\n", p.cfg.NotifyEmailAddress)
	fmt.Fprintf(&raw, "Subject: %s\r\n", subject)
	fmt.Fprintf(&raw, "\r\n")
	fmt.Fprintf(&raw, "The %s wrote in the conversation with %s:\r\n\r\n%s\r\n",
		messageSenderByID(messages, payload.MessageID), thread.SellerName, body)

	return p.emailSender.Send(ctx, []string{p.cfg.NotifyEmailAddress}, subject, raw.Bytes())
}

// HandleAttachmentProcessTask downloads an uploaded attachment, renders a
// bounded JPEG thumbnail next to it and re-uploads under "<key>_thumb.jpg".
func (p *TaskProcessor) HandleAttachmentProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload AttachmentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal attachment payload: %w", err)
	}
	if p.s3Client == nil || p.cfg.AwsS3Bucket == "" {
		log.Printf("attachment process: S3 not configured, skipping %s", payload.AttachmentKey)
		return nil
	}

	obj, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.AttachmentKey),
	})
	if err != nil {
		return fmt.Errorf("failed to download attachment %s: %w", payload.AttachmentKey, err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return fmt.Errorf("failed to read attachment %s: %w", payload.AttachmentKey, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Not an image; nothing to thumbnail. Don't retry.
		log.Printf("attachment process: %s is not a decodable image: %v", payload.AttachmentKey, err)
		return nil
	}

	thumb := resize.Thumbnail(thumbMaxDimension, thumbMaxDimension, img, resize.Lanczos3)
	var out bytes.Buffer
	if err := jpeg.Encode(&out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to encode thumbnail for %s: %w", payload.AttachmentKey, err)
	}

	thumbKey := payload.AttachmentKey + "_thumb.jpg"
	_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.AwsS3Bucket),
		Key:         aws.String(thumbKey),
		Body:        bytes.NewReader(out.Bytes()),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload thumbnail %s: %w", thumbKey, err)
	}

	log.Printf("attachment process: uploaded thumbnail %s (%d bytes)", thumbKey, out.Len())
	return nil
}

// HandleOfferExpireSweepTask persists the expired status on lapsed offers
// and broadcasts the change. Purely cosmetic for UI freshness: lazy expiry
// already reports these offers as expired, so correctness never depends on
// this task running.
func (p *TaskProcessor) HandleOfferExpireSweepTask(ctx context.Context, t *asynq.Task) error {
	threads, err := p.store.ListThreads(ctx)
	if err != nil {
		return fmt.Errorf("offer sweep: %w", err)
	}

	now := time.Now().UTC()
	swept := 0
	for i := range threads {
		thread := threads[i]
		offer := thread.OfferState
		if offer == nil || !offer.Lapsed(now) {
			continue
		}

		expired := models.OfferExpired
		actor := "system"
		err := p.store.WithThreadTxn(ctx, func(txCtx context.Context) error {
			current, err := p.store.FindThread(txCtx, thread.ID)
			if err != nil {
				return err
			}
			// Re-check inside the transaction; a concurrent submission may
			// have started a fresh episode.
			if current.OfferState == nil || !current.OfferState.Lapsed(now) {
				return nil
			}
			_, err = p.store.UpdateThread(txCtx, thread.ID, store.ThreadPatch{
				OfferStatus: &expired,
				OfferActor:  &actor,
			})
			return err
		})
		if err != nil {
			log.Printf("offer sweep: thread %s: %v", thread.ID.String(), err)
			continue
		}

		sweptOffer := *offer
		sweptOffer.Status = models.OfferExpired
		sweptOffer.LastUpdatedBy = actor
		if p.hub != nil {
			p.hub.Publish(hub.NewOfferEvent(thread.ID, &sweptOffer))
		}
		swept++
	}

	if swept > 0 {
		log.Printf("offer sweep: expired %d offer(s)", swept)
	}
	return nil
}

func messageSenderByID(messages []models.Message, id utils.SixID) models.Sender {
	for i := range messages {
		if messages[i].ID == id {
			return messages[i].Sender
		}
	}
	return ""
}
