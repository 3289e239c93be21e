package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"driftmarket/server/internal/api/handlers"
	"driftmarket/server/internal/api/middleware"
	"driftmarket/server/internal/config"
	"driftmarket/server/internal/dispatch"
	"driftmarket/server/internal/hub"
	"driftmarket/server/internal/services"
	"driftmarket/server/internal/storage"
	"driftmarket/server/internal/store"
)

// SetupRouter configures and returns the main Gin engine. The dispatcher
// and event hub are shared with the background worker, so they are built by
// the caller rather than here.
func SetupRouter(
	cfg *config.Config,
	db *mongo.Database,
	rdb *redis.Client,
	eventHub *hub.Hub,
	taskClient dispatch.ITaskClient,
	attachmentStorage storage.IAttachmentStorage,
) *gin.Engine {
	gateway := store.NewMongoGateway(db)
	threadService := services.NewThreadService(gateway)
	offerService := services.NewOfferService(gateway, cfg.OfferDefaultTTL)
	pricingService := services.NewPricingService()
	wishlistService := services.NewWishlistService(rdb)

	dispatcher := dispatch.New(threadService, offerService, eventHub, taskClient)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	threadHandler := handlers.NewRestThreadHandler(dispatcher, threadService)
	offerHandler := handlers.NewRestOfferHandler(dispatcher, offerService)
	pricingHandler := handlers.NewRestPricingHandler(pricingService)
	wishlistHandler := handlers.NewRestWishlistHandler(wishlistService)
	attachmentHandler := handlers.NewRestAttachmentHandler(attachmentStorage)
	wsHandler := handlers.NewWSHandler(eventHub)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET("/threads", threadHandler.ListThreads)
	r.POST("/threads", threadHandler.CreateThread)
	r.GET("/threads/:id/messages", threadHandler.ListMessages)
	r.POST("/threads/:id/messages", threadHandler.AppendMessage)
	r.POST("/threads/:id/read", threadHandler.MarkThreadRead)
	r.POST("/threads/:id/block", threadHandler.BlockThread)
	r.POST("/threads/:id/report", threadHandler.ReportThread)

	r.GET("/threads/:id/offer", offerHandler.GetOffer)
	r.POST("/threads/:id/offer", offerHandler.SubmitOffer)
	r.POST("/threads/:id/offer/transition", offerHandler.TransitionOffer)

	r.POST("/threads/:id/attachments", attachmentHandler.PresignUpload)

	r.GET("/wishlist", wishlistHandler.GetWishlist)
	r.POST("/wishlist", wishlistHandler.UpdateWishlist)

	r.POST("/pricing", pricingHandler.EstimatePrice)
	r.POST("/shipping/rates", pricingHandler.ShippingRates)

	r.GET("/ws", wsHandler.ServeWS)

	return r
}
