package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"driftmarket/server/internal/services"
)

// RestWishlistHandler handles the buyer's saved-listing set.
type RestWishlistHandler struct {
	wishlistService services.IWishlistService
}

// NewRestWishlistHandler creates a new RestWishlistHandler.
func NewRestWishlistHandler(wishlistService services.IWishlistService) *RestWishlistHandler {
	return &RestWishlistHandler{wishlistService: wishlistService}
}

type wishlistRequest struct {
	ListingID string `json:"listingId" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// UpdateWishlist handles POST /wishlist with {listingId, action: add|remove}
func (h *RestWishlistHandler) UpdateWishlist(c *gin.Context) {
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		wishlist []string
		err      error
	)
	switch req.Action {
	case "add":
		wishlist, err = h.wishlistService.Add(c.Request.Context(), req.ListingID)
	case "remove":
		wishlist, err = h.wishlistService.Remove(c.Request.Context(), req.ListingID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be add or remove"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": wishlist})
}

// GetWishlist handles GET /wishlist
func (h *RestWishlistHandler) GetWishlist(c *gin.Context) {
	wishlist, err := h.wishlistService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": wishlist})
}
