package handler

import (
	"context"
	"net/http"

	model "auction-lifecycle/internal/models"
	"auction-lifecycle/services/auction/helpers"
	"auction-lifecycle/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_auction_handler.go -package=handler

type AuctionServiceInterface interface {
	Submit(ctx context.Context, caller model.Caller, name, description string, maxPrice float64) (model.Listing, error)
	Review(ctx context.Context, listingID string, caller model.Caller, decision model.Decision) (model.Listing, error)
	Get(ctx context.Context, listingID string) (model.Listing, error)
	PendingListings(ctx context.Context, caller model.Caller) ([]model.Listing, error)
	Catalog(ctx context.Context) ([]model.Listing, error)
	ListingsByOwner(ctx context.Context, caller model.Caller) ([]model.Listing, error)
	PlaceBid(ctx context.Context, listingID string, caller model.Caller, amount float64) (model.Bid, error)
	History(ctx context.Context, listingID string) ([]model.Bid, error)
	Close(ctx context.Context, listingID string, caller model.Caller) (model.Listing, error)
	AuthorizePayment(ctx context.Context, listingID string, caller model.Caller) (model.PaymentAuthorization, error)
	ConsumeAuthorization(ctx context.Context, token string) (model.PaymentAuthorization, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// SubmitListingHandler handles POST /listings
func (h *AuctionHandler) SubmitListingHandler(c *gin.Context) {
	var req helpers.SubmitListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SubmitListingHandler", err)
		return
	}

	caller, _ := helpers.CallerFromContext(c)
	listing, err := h.service.Submit(c.Request.Context(), caller, req.Name, req.Description, req.MaxPrice)
	if err != nil {
		helpers.HandleServiceError(c, "SubmitListingHandler", err, map[string]any{"owner_id": caller.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewListingResponse(listing), "listing submitted successfully")
	helpers.LogSuccess("SubmitListingHandler", "listing submitted successfully", map[string]any{
		"listing_id": listing.ListingID,
		"owner_id":   listing.OwnerID,
	})
}

// ReviewListingHandler handles POST /listings/:listing_id/review
func (h *AuctionHandler) ReviewListingHandler(c *gin.Context) {
	var req helpers.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "ReviewListingHandler", err)
		return
	}

	listingID := c.Param("listing_id")
	caller, _ := helpers.CallerFromContext(c)
	listing, err := h.service.Review(c.Request.Context(), listingID, caller, req.Decision)
	if err != nil {
		helpers.HandleServiceError(c, "ReviewListingHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponse(listing), "listing reviewed successfully")
	helpers.LogSuccess("ReviewListingHandler", "listing reviewed successfully", map[string]any{
		"listing_id": listingID,
		"decision":   req.Decision,
	})
}

// GetListingHandler handles GET /listings/:listing_id
func (h *AuctionHandler) GetListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	listing, err := h.service.Get(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "GetListingHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponse(listing), "listing retrieved successfully")
}

// CatalogHandler handles GET /listings
func (h *AuctionHandler) CatalogHandler(c *gin.Context) {
	listings, err := h.service.Catalog(c.Request.Context())
	if err != nil {
		helpers.HandleServiceError(c, "CatalogHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponses(listings), "listings retrieved successfully")
	helpers.LogSuccess("CatalogHandler", "listings retrieved successfully", map[string]any{"count": len(listings)})
}

// PendingListingsHandler handles GET /listings/pending
func (h *AuctionHandler) PendingListingsHandler(c *gin.Context) {
	caller, _ := helpers.CallerFromContext(c)
	listings, err := h.service.PendingListings(c.Request.Context(), caller)
	if err != nil {
		helpers.HandleServiceError(c, "PendingListingsHandler", err, map[string]any{"user_id": caller.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponses(listings), "pending listings retrieved successfully")
}

// MyListingsHandler handles GET /listings/mine
func (h *AuctionHandler) MyListingsHandler(c *gin.Context) {
	caller, _ := helpers.CallerFromContext(c)
	listings, err := h.service.ListingsByOwner(c.Request.Context(), caller)
	if err != nil {
		helpers.HandleServiceError(c, "MyListingsHandler", err, map[string]any{"user_id": caller.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponses(listings), "listings retrieved successfully")
}

// PlaceBidHandler handles POST /listings/:listing_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	listingID := c.Param("listing_id")
	caller, _ := helpers.CallerFromContext(c)
	bid, err := h.service.PlaceBid(c.Request.Context(), listingID, caller, req.Amount)
	if err != nil {
		helpers.HandleServiceError(c, "PlaceBidHandler", err, map[string]any{
			"listing_id": listingID,
			"bidder_id":  caller.UserID,
			"amount":     req.Amount,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": listingID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount,
	})
}

// BidHistoryHandler handles GET /listings/:listing_id/bids
func (h *AuctionHandler) BidHistoryHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	bids, err := h.service.History(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "BidHistoryHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("BidHistoryHandler", "bids retrieved successfully", map[string]any{
		"listing_id": listingID,
		"count":      len(bids),
	})
}

// CloseAuctionHandler handles POST /listings/:listing_id/close
func (h *AuctionHandler) CloseAuctionHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	caller, _ := helpers.CallerFromContext(c)
	listing, err := h.service.Close(c.Request.Context(), listingID, caller)
	if err != nil {
		helpers.HandleServiceError(c, "CloseAuctionHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponse(listing), "auction closed successfully")
	helpers.LogSuccess("CloseAuctionHandler", "auction closed successfully", map[string]any{
		"listing_id": listingID,
		"winner_id":  listing.WinnerID,
	})
}

// AuthorizePaymentHandler handles POST /listings/:listing_id/payment
func (h *AuctionHandler) AuthorizePaymentHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	caller, _ := helpers.CallerFromContext(c)
	auth, err := h.service.AuthorizePayment(c.Request.Context(), listingID, caller)
	if err != nil {
		helpers.HandleServiceError(c, "AuthorizePaymentHandler", err, map[string]any{
			"listing_id": listingID,
			"user_id":    caller.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewPaymentAuthorizationResponse(auth), "payment authorized successfully")
	helpers.LogSuccess("AuthorizePaymentHandler", "payment authorized successfully", map[string]any{
		"listing_id": listingID,
		"winner_id":  auth.WinnerID,
	})
}

// ConsumePaymentHandler handles POST /payments/:token/consume
func (h *AuctionHandler) ConsumePaymentHandler(c *gin.Context) {
	token := c.Param("token")
	auth, err := h.service.ConsumeAuthorization(c.Request.Context(), token)
	if err != nil {
		helpers.HandleServiceError(c, "ConsumePaymentHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewPaymentAuthorizationResponse(auth), "payment authorization consumed")
	helpers.LogSuccess("ConsumePaymentHandler", "payment authorization consumed", map[string]any{
		"listing_id": auth.ListingID,
	})
}
