package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"driftmarket/server/internal/models"
	"driftmarket/server/internal/services"
)

// RestOfferHandler handles REST requests for the offer on a thread.
type RestOfferHandler struct {
	dispatcher   IDispatcher
	offerService services.IOfferService
}

// NewRestOfferHandler creates a new RestOfferHandler.
func NewRestOfferHandler(dispatcher IDispatcher, offerService services.IOfferService) *RestOfferHandler {
	return &RestOfferHandler{
		dispatcher:   dispatcher,
		offerService: offerService,
	}
}

type submitOfferRequest struct {
	Amount        float64            `json:"amount"`
	Status        models.OfferStatus `json:"status"`
	ExpiresAt     time.Time          `json:"expiresAt"`
	LastUpdatedBy string             `json:"lastUpdatedBy" binding:"required"`
}

// SubmitOffer handles POST /threads/:id/offer
func (h *RestOfferHandler) SubmitOffer(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}

	var req submitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offer, err := h.dispatcher.SubmitOffer(c.Request.Context(), threadID, req.Amount, req.ExpiresAt, req.LastUpdatedBy, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

type transitionOfferRequest struct {
	Status models.OfferStatus `json:"status" binding:"required"`
	Actor  string             `json:"actor" binding:"required"`
}

// TransitionOffer handles POST /threads/:id/offer/transition
func (h *RestOfferHandler) TransitionOffer(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}

	var req transitionOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offer, err := h.dispatcher.TransitionOffer(c.Request.Context(), threadID, req.Status, req.Actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

// GetOffer handles GET /threads/:id/offer
func (h *RestOfferHandler) GetOffer(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}

	offer, err := h.offerService.GetOffer(c.Request.Context(), threadID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}
