package auction

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/metrics"
	model "auction-lifecycle/internal/models"
	"auction-lifecycle/internal/repository"
	"auction-lifecycle/utils"
)

// Submit creates a pending listing owned by the caller. The auction stays
// inactive until an officer approves it.
func (s *Service) Submit(ctx context.Context, caller model.Caller, name, description string, maxPrice float64) (model.Listing, error) {
	if err := requireCaller(caller); err != nil {
		return model.Listing{}, err
	}
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" || description == "" {
		return model.Listing{}, fmt.Errorf("service: %w - name and description are required", auctionerrors.ErrInvalidInput)
	}
	if !validAmount(maxPrice) {
		return model.Listing{}, fmt.Errorf("service: %w - max price must be positive", auctionerrors.ErrInvalidInput)
	}

	now := s.now()
	listing := model.Listing{
		ListingID:       utils.GenerateID(),
		OwnerID:         caller.UserID,
		Name:            name,
		Description:     description,
		MaxPrice:        maxPrice,
		ValidationState: model.ValidationPending,
		AuctionState:    model.AuctionInactive,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.call(ctx, func(ctx context.Context) error {
		return s.repo.CreateListing(ctx, listing)
	})
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to submit listing for owner %s: %w", caller.UserID, err)
	}

	metrics.ListingsSubmitted.Inc()
	s.publish(model.EventListingSubmitted, listing, nil)
	utils.Info("listing submitted", map[string]any{
		"listing_id": listing.ListingID,
		"owner_id":   listing.OwnerID,
	})
	return listing, nil
}

// Review records an officer's decision on a pending listing. Approval opens the auction.
func (s *Service) Review(ctx context.Context, listingID string, caller model.Caller, decision model.Decision) (model.Listing, error) {
	if decision != model.DecisionApprove && decision != model.DecisionReject {
		return model.Listing{}, fmt.Errorf("service: %w - unknown decision %q", auctionerrors.ErrInvalidInput, decision)
	}
	if err := requireRole(caller, model.RoleOfficer); err != nil {
		return model.Listing{}, err
	}
	if listingID == "" {
		return model.Listing{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}

	var reviewed model.Listing
	err := s.retry(ctx, "review", func() error {
		current, err := s.getListing(ctx, listingID)
		if err != nil {
			return err
		}
		if current.ValidationState != model.ValidationPending {
			return fmt.Errorf("service: %w - listing %s is %s", auctionerrors.ErrAlreadyReviewed, listingID, current.ValidationState)
		}

		next := current
		next.ReviewedBy = caller.UserID
		next.Version = current.Version + 1
		next.UpdatedAt = s.now()
		if decision == model.DecisionApprove {
			next.ValidationState = model.ValidationApproved
			next.AuctionState = model.AuctionOpen
		} else {
			next.ValidationState = model.ValidationRejected
		}

		if err := s.call(ctx, func(ctx context.Context) error {
			return s.repo.UpdateListing(ctx, next, current.Version)
		}); err != nil {
			return err
		}
		reviewed = next
		return nil
	})
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to review listing %s: %w", listingID, err)
	}

	metrics.ListingsReviewed.WithLabelValues(string(decision)).Inc()
	eventType := model.EventListingApproved
	if decision == model.DecisionReject {
		eventType = model.EventListingRejected
	}
	s.publish(eventType, reviewed, nil)
	utils.Info("listing reviewed", map[string]any{
		"listing_id": listingID,
		"officer_id": caller.UserID,
		"decision":   decision,
		"version":    reviewed.Version,
	})
	return reviewed, nil
}

// Get returns a listing by ID
func (s *Service) Get(ctx context.Context, listingID string) (model.Listing, error) {
	if listingID == "" {
		return model.Listing{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}
	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}
	return listing, nil
}

// PendingListings returns the officer review queue, oldest submission first
func (s *Service) PendingListings(ctx context.Context, caller model.Caller) ([]model.Listing, error) {
	if err := requireRole(caller, model.RoleOfficer); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ListingFilter{ValidationState: model.ValidationPending})
}

// Catalog returns approved listings, open auctions before closed ones and
// newest first within each group
func (s *Service) Catalog(ctx context.Context) ([]model.Listing, error) {
	listings, err := s.list(ctx, repository.ListingFilter{ValidationState: model.ValidationApproved})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(listings, func(i, j int) bool {
		iClosed := listings[i].AuctionState == model.AuctionClosed
		jClosed := listings[j].AuctionState == model.AuctionClosed
		if iClosed != jClosed {
			return !iClosed
		}
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings, nil
}

// ListingsByOwner returns every listing the caller submitted
func (s *Service) ListingsByOwner(ctx context.Context, caller model.Caller) ([]model.Listing, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ListingFilter{OwnerID: caller.UserID})
}

func (s *Service) list(ctx context.Context, filter repository.ListingFilter) ([]model.Listing, error) {
	var listings []model.Listing
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		listings, err = s.repo.ListListings(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings: %w", err)
	}
	return listings, nil
}
