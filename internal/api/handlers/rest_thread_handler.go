package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"driftmarket/server/internal/models"
	"driftmarket/server/internal/services"
	"driftmarket/server/internal/utils"
)

// IDispatcher is the command surface the handlers drive. Mutations go
// through the dispatcher so every committed change is broadcast; reads go
// straight to the thread service.
type IDispatcher interface {
	CreateThread(ctx context.Context, listingTitle, sellerName string) (*models.Thread, error)
	AppendMessage(ctx context.Context, threadID utils.SixID, sender models.Sender, body, attachmentKey string) (*models.Message, error)
	SetModeration(ctx context.Context, threadID utils.SixID, blocked, reported *bool) (*models.Thread, error)
	MarkThreadRead(ctx context.Context, threadID utils.SixID) (*models.Thread, error)
	SubmitOffer(ctx context.Context, threadID utils.SixID, amount float64, expiresAt time.Time, proposer string, status models.OfferStatus) (*models.OfferState, error)
	TransitionOffer(ctx context.Context, threadID utils.SixID, newStatus models.OfferStatus, actor string) (*models.OfferState, error)
}

// RestThreadHandler handles REST requests for threads and messages.
type RestThreadHandler struct {
	dispatcher    IDispatcher
	threadService services.IThreadService
}

// NewRestThreadHandler creates a new RestThreadHandler.
func NewRestThreadHandler(dispatcher IDispatcher, threadService services.IThreadService) *RestThreadHandler {
	return &RestThreadHandler{
		dispatcher:    dispatcher,
		threadService: threadService,
	}
}

type createThreadRequest struct {
	ListingTitle string `json:"listingTitle" binding:"required"`
	SellerName   string `json:"sellerName" binding:"required"`
}

// CreateThread handles POST /threads
func (h *RestThreadHandler) CreateThread(c *gin.Context) {
	var req createThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thread, err := h.dispatcher.CreateThread(c.Request.Context(), req.ListingTitle, req.SellerName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

// ListThreads handles GET /threads
func (h *RestThreadHandler) ListThreads(c *gin.Context) {
	threads, err := h.threadService.ListThreads(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

type appendMessageRequest struct {
	Sender        models.Sender `json:"sender" binding:"required"`
	Body          string        `json:"body"`
	AttachmentKey string        `json:"attachmentKey"`
}

// AppendMessage handles POST /threads/:id/messages
func (h *RestThreadHandler) AppendMessage(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}

	var req appendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.dispatcher.AppendMessage(c.Request.Context(), threadID, req.Sender, req.Body, req.AttachmentKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListMessages handles GET /threads/:id/messages
func (h *RestThreadHandler) ListMessages(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}

	messages, err := h.threadService.ListMessages(c.Request.Context(), threadID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

type blockRequest struct {
	Blocked bool `json:"blocked"`
}

// BlockThread handles POST /threads/:id/block
func (h *RestThreadHandler) BlockThread(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}

	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thread, err := h.dispatcher.SetModeration(c.Request.Context(), threadID, &req.Blocked, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// ReportThread handles POST /threads/:id/report
func (h *RestThreadHandler) ReportThread(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}

	reported := true
	thread, err := h.dispatcher.SetModeration(c.Request.Context(), threadID, nil, &reported)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// MarkThreadRead handles POST /threads/:id/read
func (h *RestThreadHandler) MarkThreadRead(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}

	thread, err := h.dispatcher.MarkThreadRead(c.Request.Context(), threadID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// threadIDParam parses the :id path parameter, writing the 400 itself.
func threadIDParam(c *gin.Context) (utils.SixID, bool) {
	id, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
		return utils.SixID{}, false
	}
	return id, true
}
