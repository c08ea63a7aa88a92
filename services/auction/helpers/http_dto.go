package helpers

import (
	"time"

	model "auction-lifecycle/internal/models"
)

// Request/Response DTOs
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangeRoleRequest struct {
	Role model.Role `json:"role" binding:"required,oneof=user officer"`
}

type SubmitListingRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description" binding:"required"`
	MaxPrice    float64 `json:"max_price" binding:"required,gt=0"`
}

type ReviewRequest struct {
	Decision model.Decision `json:"decision" binding:"required,oneof=approve reject"`
}

type PlaceBidRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type UserResponse struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	CreatedAt string     `json:"created_at"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type ListingResponse struct {
	ListingID       string                `json:"listing_id"`
	OwnerID         string                `json:"owner_id"`
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	CurrentPrice    float64               `json:"current_price"`
	MaxPrice        float64               `json:"max_price"`
	ValidationState model.ValidationState `json:"validation_state"`
	AuctionState    model.AuctionState    `json:"auction_state"`
	LeaderID        string                `json:"leader_id,omitempty"`
	WinnerID        string                `json:"winner_id,omitempty"`
	Version         int64                 `json:"version"`
	CreatedAt       string                `json:"created_at"`
	UpdatedAt       string                `json:"updated_at"`
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	ListingID string  `json:"listing_id"`
	BidderID  string  `json:"bidder_id"`
	Amount    float64 `json:"amount"`
	Sequence  int64   `json:"sequence"`
	CreatedAt string  `json:"created_at"`
}

type PaymentAuthorizationResponse struct {
	Token      string  `json:"token"`
	ListingID  string  `json:"listing_id"`
	WinnerID   string  `json:"winner_id"`
	Amount     float64 `json:"amount"`
	IssuedAt   string  `json:"issued_at"`
	ConsumedAt string  `json:"consumed_at,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func NewUserResponse(u model.User) UserResponse {
	return UserResponse{
		UserID:    u.UserID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func NewUserResponses(users []model.User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, NewUserResponse(u))
	}
	return resp
}

func NewListingResponse(l model.Listing) ListingResponse {
	return ListingResponse{
		ListingID:       l.ListingID,
		OwnerID:         l.OwnerID,
		Name:            l.Name,
		Description:     l.Description,
		CurrentPrice:    l.CurrentPrice,
		MaxPrice:        l.MaxPrice,
		ValidationState: l.ValidationState,
		AuctionState:    l.AuctionState,
		LeaderID:        l.LeaderID,
		WinnerID:        l.WinnerID,
		Version:         l.Version,
		CreatedAt:       formatTime(l.CreatedAt),
		UpdatedAt:       formatTime(l.UpdatedAt),
	}
}

func NewListingResponses(listings []model.Listing) []ListingResponse {
	resp := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, NewListingResponse(l))
	}
	return resp
}

func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		ListingID: b.ListingID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		Sequence:  b.Sequence,
		CreatedAt: formatTime(b.CreatedAt),
	}
}

func NewBidResponses(bids []model.Bid) []BidResponse {
	resp := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, NewBidResponse(b))
	}
	return resp
}

func NewPaymentAuthorizationResponse(a model.PaymentAuthorization) PaymentAuthorizationResponse {
	resp := PaymentAuthorizationResponse{
		Token:     a.Token,
		ListingID: a.ListingID,
		WinnerID:  a.WinnerID,
		Amount:    a.Amount,
		IssuedAt:  formatTime(a.IssuedAt),
	}
	if a.ConsumedAt != nil {
		resp.ConsumedAt = formatTime(*a.ConsumedAt)
	}
	return resp
}
