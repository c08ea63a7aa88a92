package models

import (
	"fmt"
	"time"
)

// Role is the authorization level asserted by the identity layer
type Role string

const (
	RoleUser    Role = "user"
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOfficer, RoleAdmin:
		return true
	}
	return false
}

// Caller is the authenticated identity behind a request
type Caller struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// User represents a registered participant
type User struct {
	UserID       string    `json:"user_id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ValidationState tracks an officer's review of a listing
type ValidationState string

const (
	ValidationPending  ValidationState = "pending"
	ValidationApproved ValidationState = "approved"
	ValidationRejected ValidationState = "rejected"
)

// AuctionState tracks whether a listing is accepting bids
type AuctionState string

const (
	AuctionInactive AuctionState = "inactive"
	AuctionOpen     AuctionState = "open"
	AuctionClosed   AuctionState = "closed"
)

// Decision is an officer's verdict on a pending listing
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Listing represents an item offered for auction.
// Version is bumped on every mutation and guards all conditional updates.
type Listing struct {
	ListingID       string          `json:"listing_id" db:"id"`
	OwnerID         string          `json:"owner_id" db:"owner_id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	CurrentPrice    float64         `json:"current_price" db:"current_price"`
	MaxPrice        float64         `json:"max_price" db:"max_price"`
	ValidationState ValidationState `json:"validation_state" db:"validation_state"`
	AuctionState    AuctionState    `json:"auction_state" db:"auction_state"`
	LeaderBidID     string          `json:"leader_bid_id,omitempty" db:"leader_bid_id"`
	LeaderID        string          `json:"leader_id,omitempty" db:"leader_id"`
	WinnerID        string          `json:"winner_id,omitempty" db:"winner_id"`
	ReviewedBy      string          `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ClosedBy        string          `json:"closed_by,omitempty" db:"closed_by"`
	Version         int64           `json:"version" db:"version"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the listing currently accepts bids
func (l Listing) IsOpen() bool {
	return l.ValidationState == ValidationApproved && l.AuctionState == AuctionOpen
}

// Bid represents an accepted offer on a listing. Sequence is the listing
// version the bid produced, so it orders bids by acceptance.
type Bid struct {
	BidID     string    `json:"bid_id" db:"id"`
	ListingID string    `json:"listing_id" db:"listing_id"`
	BidderID  string    `json:"bidder_id" db:"bidder_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Sequence  int64     `json:"sequence" db:"sequence"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PaymentAuthorization is the one-time token handed to the payment collaborator
type PaymentAuthorization struct {
	Token      string     `json:"token" db:"token"`
	ListingID  string     `json:"listing_id" db:"listing_id"`
	WinnerID   string     `json:"winner_id" db:"winner_id"`
	Amount     float64    `json:"amount" db:"amount"`
	IssuedAt   time.Time  `json:"issued_at" db:"issued_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty" db:"consumed_at"`
}

// EventType names a state change observed by subscribers
type EventType string

const (
	EventListingSubmitted  EventType = "listing.submitted"
	EventListingApproved   EventType = "listing.approved"
	EventListingRejected   EventType = "listing.rejected"
	EventBidAccepted       EventType = "bid.accepted"
	EventAuctionClosed     EventType = "auction.closed"
	EventPaymentAuthorized EventType = "payment.authorized"
)

// Event is emitted after a successful state change. Several events may share a
// listing version (auction.closed and payment.authorized both describe the
// closed listing), so consumers dedupe on Key.
type Event struct {
	Type       EventType `json:"type"`
	ListingID  string    `json:"listing_id"`
	Version    int64     `json:"version"`
	Listing    Listing   `json:"listing"`
	Bid        *Bid      `json:"bid,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key identifies the event for deduplication: listing id, version and type.
func (e Event) Key() string {
	return fmt.Sprintf("%s/%d/%s", e.ListingID, e.Version, e.Type)
}
