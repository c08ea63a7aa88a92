package server

import (
	handler "auction-lifecycle/services/auction/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(
	auctionService handler.AuctionServiceInterface,
	identityService handler.IdentityServiceInterface,
	tokens TokenParser,
	events handler.EventSubscriber,
	paymentKey string,
) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService)
	userHandler := handler.NewUserHandler(identityService)
	eventsHandler := handler.NewEventsHandler(events)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/auth")
	{
		auth.POST("/register", userHandler.RegisterHandler)
		auth.POST("/login", userHandler.LoginHandler)
	}

	// role checks live in the services; the middleware only establishes identity
	authed := router.Group("", AuthMiddleware(tokens))

	users := authed.Group("/users")
	{
		users.GET("", userHandler.SearchUsersHandler)
		users.PUT("/:user_id/role", userHandler.ChangeRoleHandler)
	}

	listings := authed.Group("/listings")
	{
		listings.POST("", auctionHandler.SubmitListingHandler)
		listings.GET("", auctionHandler.CatalogHandler)
		listings.GET("/pending", auctionHandler.PendingListingsHandler)
		listings.GET("/mine", auctionHandler.MyListingsHandler)
		listings.GET("/:listing_id", auctionHandler.GetListingHandler)
		listings.POST("/:listing_id/review", auctionHandler.ReviewListingHandler)
		listings.POST("/:listing_id/bids", auctionHandler.PlaceBidHandler)
		listings.GET("/:listing_id/bids", auctionHandler.BidHistoryHandler)
		listings.POST("/:listing_id/close", auctionHandler.CloseAuctionHandler)
		listings.POST("/:listing_id/payment", auctionHandler.AuthorizePaymentHandler)
	}

	// consumption is a collaborator call, user tokens are not accepted
	payments := router.Group("/payments", PaymentKeyMiddleware(paymentKey))
	{
		payments.POST("/:token/consume", auctionHandler.ConsumePaymentHandler)
	}

	authed.GET("/events", eventsHandler.StreamHandler)

	return router
}
