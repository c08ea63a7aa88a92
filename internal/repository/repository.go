package repository

import (
	"auction-lifecycle/internal/auctionerrors"
	model "auction-lifecycle/internal/models"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ListingFilter narrows ListListings. Zero-valued fields match everything.
type ListingFilter struct {
	OwnerID         string
	ValidationState model.ValidationState
	AuctionState    model.AuctionState
}

func (f ListingFilter) matches(l model.Listing) bool {
	if f.OwnerID != "" && l.OwnerID != f.OwnerID {
		return false
	}
	if f.ValidationState != "" && l.ValidationState != f.ValidationState {
		return false
	}
	if f.AuctionState != "" && l.AuctionState != f.AuctionState {
		return false
	}
	return true
}

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionDB defines the listing, bid and settlement storage for the auction system.
// UpdateListing and RecordBid are compare-and-set on the stored listing version and
// return ErrConflict when the stored version no longer equals expectedVersion.
type AuctionDB interface {
	CreateListing(ctx context.Context, listing model.Listing) error
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error)
	UpdateListing(ctx context.Context, listing model.Listing, expectedVersion int64) error
	RecordBid(ctx context.Context, bid model.Bid, listing model.Listing, expectedVersion int64) error
	GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error)
	CreateAuthorization(ctx context.Context, auth model.PaymentAuthorization) error
	ConsumeAuthorization(ctx context.Context, token string, at time.Time) (model.PaymentAuthorization, error)
}

// UserDB defines the user directory storage
type UserDB interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, userID string, role model.Role) error
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB and UserDB
type MemoryRepo struct {
	mu        sync.RWMutex
	listings  map[string]model.Listing              // key: listingID -> value: listing
	order     []string                              // listingIDs in creation order
	bids      map[string][]model.Bid                // key: listingID -> value: accepted bids in acceptance order
	auths     map[string]model.PaymentAuthorization // key: token -> value: authorization
	authByLst map[string]string                     // key: listingID -> value: token
	users     map[string]model.User                 // key: userID -> value: user
	emails    map[string]string                     // key: lower-cased email -> value: userID
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		listings:  make(map[string]model.Listing),
		bids:      make(map[string][]model.Bid),
		auths:     make(map[string]model.PaymentAuthorization),
		authByLst: make(map[string]string),
		users:     make(map[string]model.User),
		emails:    make(map[string]string),
	}
}

// CreateListing stores a new listing
func (r *MemoryRepo) CreateListing(ctx context.Context, listing model.Listing) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("create listing %s: %w", listing.ListingID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if listing.ListingID == "" {
		return fmt.Errorf("create listing: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}
	if _, ok := r.listings[listing.ListingID]; ok {
		return fmt.Errorf("create listing %s: %w", listing.ListingID, auctionerrors.ErrConflict)
	}
	r.listings[listing.ListingID] = listing
	r.order = append(r.order, listing.ListingID)
	return nil
}

// GetListing returns a listing by ID
func (r *MemoryRepo) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrNotFound)
	}
	return listing, nil
}

// ListListings returns listings matching the filter in creation order
func (r *MemoryRepo) ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]model.Listing, 0)
	for _, id := range r.order {
		if l := r.listings[id]; filter.matches(l) {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

// UpdateListing replaces a listing if its stored version still equals expectedVersion
func (r *MemoryRepo) UpdateListing(ctx context.Context, listing model.Listing, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("update listing %s: %w", listing.ListingID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkVersion(listing.ListingID, expectedVersion); err != nil {
		return fmt.Errorf("update listing %s: %w", listing.ListingID, err)
	}
	r.listings[listing.ListingID] = listing
	return nil
}

// RecordBid appends a bid and stores the updated listing in one step
func (r *MemoryRepo) RecordBid(ctx context.Context, bid model.Bid, listing model.Listing, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("record bid for listing %s: %w", bid.ListingID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if bid.ListingID != listing.ListingID {
		return fmt.Errorf("record bid for listing %s: %w - bid references listing %s", listing.ListingID, auctionerrors.ErrInvalidInput, bid.ListingID)
	}
	if err := r.checkVersion(listing.ListingID, expectedVersion); err != nil {
		return fmt.Errorf("record bid for listing %s: %w", listing.ListingID, err)
	}
	r.bids[bid.ListingID] = append(r.bids[bid.ListingID], bid)
	r.listings[listing.ListingID] = listing
	return nil
}

// checkVersion must be called with r.mu held
func (r *MemoryRepo) checkVersion(listingID string, expectedVersion int64) error {
	stored, ok := r.listings[listingID]
	if !ok {
		return auctionerrors.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w - expected version %d, found %d", auctionerrors.ErrConflict, expectedVersion, stored.Version)
	}
	return nil
}

// GetBidsByListing returns accepted bids for a listing, oldest first
func (r *MemoryRepo) GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.listings[listingID]; !ok {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, auctionerrors.ErrNotFound)
	}
	return append([]model.Bid{}, r.bids[listingID]...), nil
}

// CreateAuthorization stores the single authorization allowed per listing
func (r *MemoryRepo) CreateAuthorization(ctx context.Context, auth model.PaymentAuthorization) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("create authorization for listing %s: %w", auth.ListingID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.authByLst[auth.ListingID]; ok {
		return fmt.Errorf("create authorization for listing %s: %w", auth.ListingID, auctionerrors.ErrAlreadySettled)
	}
	r.auths[auth.Token] = auth
	r.authByLst[auth.ListingID] = auth.Token
	return nil
}

// ConsumeAuthorization marks an authorization as used. A token can be consumed once.
func (r *MemoryRepo) ConsumeAuthorization(ctx context.Context, token string, at time.Time) (model.PaymentAuthorization, error) {
	if err := ctx.Err(); err != nil {
		return model.PaymentAuthorization{}, fmt.Errorf("consume authorization: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	auth, ok := r.auths[token]
	if !ok {
		return model.PaymentAuthorization{}, fmt.Errorf("consume authorization: %w", auctionerrors.ErrNotFound)
	}
	if auth.ConsumedAt != nil {
		return model.PaymentAuthorization{}, fmt.Errorf("consume authorization for listing %s: %w", auth.ListingID, auctionerrors.ErrAlreadySettled)
	}
	consumed := at
	auth.ConsumedAt = &consumed
	r.auths[token] = auth
	return auth, nil
}

// CreateUser stores a user; emails are unique case-insensitively
func (r *MemoryRepo) CreateUser(ctx context.Context, user model.User) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := r.emails[key]; ok {
		return fmt.Errorf("create user %s: %w", user.Email, auctionerrors.ErrEmailTaken)
	}
	r.users[user.UserID] = user
	r.emails[key] = user.UserID
	return nil
}

// GetUser returns a user by ID
func (r *MemoryRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrNotFound)
	}
	return user, nil
}

// GetUserByEmail returns a user by email
func (r *MemoryRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, fmt.Errorf("get user by email: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[strings.ToLower(email)]
	if !ok {
		return model.User{}, fmt.Errorf("get user by email %s: %w", email, auctionerrors.ErrNotFound)
	}
	return r.users[id], nil
}

// ListUsers returns all users ordered by creation time
func (r *MemoryRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].UserID < users[j].UserID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// UpdateUserRole changes the role of an existing user
func (r *MemoryRepo) UpdateUserRole(ctx context.Context, userID string, role model.Role) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("update role for user %s: %w", userID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("update role for user %s: %w", userID, auctionerrors.ErrNotFound)
	}
	user.Role = role
	r.users[userID] = user
	return nil
}

// AddListing stores a listing without validation. This method is intended for tests and seeding only.
func (r *MemoryRepo) AddListing(listing model.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[listing.ListingID]; !ok {
		r.order = append(r.order, listing.ListingID)
	}
	r.listings[listing.ListingID] = listing
}
