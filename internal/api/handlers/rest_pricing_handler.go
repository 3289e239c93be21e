package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"driftmarket/server/internal/services"
)

// RestPricingHandler serves the stateless pricing and shipping estimates.
type RestPricingHandler struct {
	pricingService services.IPricingService
}

// NewRestPricingHandler creates a new RestPricingHandler.
func NewRestPricingHandler(pricingService services.IPricingService) *RestPricingHandler {
	return &RestPricingHandler{pricingService: pricingService}
}

type pricingRequest struct {
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// EstimatePrice handles POST /pricing
func (h *RestPricingHandler) EstimatePrice(c *gin.Context) {
	var req pricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.pricingService.EstimatePrice(req.Category, req.Price))
}

type shippingRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

// ShippingRates handles POST /shipping/rates
func (h *RestPricingHandler) ShippingRates(c *gin.Context) {
	var req shippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.pricingService.ShippingRates(req.Origin, req.Destination))
}
