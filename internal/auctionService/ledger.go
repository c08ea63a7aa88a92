package auction

import (
	"context"
	"errors"
	"fmt"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/metrics"
	model "auction-lifecycle/internal/models"
	"auction-lifecycle/utils"
)

// PlaceBid validates and records a bid. The price check and the write happen
// against the same listing version, so two concurrent raises cannot both win
// on a stale read.
func (s *Service) PlaceBid(ctx context.Context, listingID string, caller model.Caller, amount float64) (model.Bid, error) {
	if err := requireCaller(caller); err != nil {
		return model.Bid{}, err
	}
	if listingID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}
	if !validAmount(amount) {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidInput)
	}

	var (
		accepted model.Bid
		listing  model.Listing
	)
	err := s.retry(ctx, "place_bid", func() error {
		current, err := s.getListing(ctx, listingID)
		if err != nil {
			return err
		}
		if err := checkBid(current, caller.UserID, amount); err != nil {
			return err
		}

		now := s.now()
		next := current
		next.Version = current.Version + 1
		bid := model.Bid{
			BidID:     utils.GenerateID(),
			ListingID: listingID,
			BidderID:  caller.UserID,
			Amount:    amount,
			Sequence:  next.Version,
			CreatedAt: now,
		}
		next.CurrentPrice = amount
		next.LeaderBidID = bid.BidID
		next.LeaderID = caller.UserID
		if exceeds(amount, next.MaxPrice) {
			next.MaxPrice = amount
		}
		next.UpdatedAt = now

		if err := s.call(ctx, func(ctx context.Context) error {
			return s.repo.RecordBid(ctx, bid, next, current.Version)
		}); err != nil {
			return err
		}
		accepted, listing = bid, next
		return nil
	})
	if err != nil {
		metrics.BidsTotal.WithLabelValues(bidResult(err)).Inc()
		utils.Info("bid rejected", map[string]any{
			"listing_id": listingID,
			"bidder_id":  caller.UserID,
			"amount":     amount,
			"error":      err.Error(),
		})
		return model.Bid{}, fmt.Errorf("service: failed to place bid on listing %s by user %s: %w", listingID, caller.UserID, err)
	}

	metrics.BidsTotal.WithLabelValues(metrics.ResultAccepted).Inc()
	s.publish(model.EventBidAccepted, listing, &accepted)
	utils.Info("bid accepted", map[string]any{
		"listing_id": listingID,
		"bid_id":     accepted.BidID,
		"bidder_id":  caller.UserID,
		"amount":     amount,
		"version":    listing.Version,
	})
	return accepted, nil
}

// checkBid applies the acceptance rules against one snapshot of the listing
func checkBid(listing model.Listing, bidderID string, amount float64) error {
	if !listing.IsOpen() {
		return fmt.Errorf("service: %w - listing %s is %s/%s", auctionerrors.ErrNotOpen, listing.ListingID, listing.ValidationState, listing.AuctionState)
	}
	if bidderID == listing.OwnerID {
		return fmt.Errorf("service: %w", auctionerrors.ErrSelfBid)
	}
	if !exceeds(amount, listing.CurrentPrice) {
		return fmt.Errorf("service: %w - current price is %.2f", auctionerrors.ErrStaleBid, listing.CurrentPrice)
	}
	return nil
}

func bidResult(err error) string {
	switch {
	case errors.Is(err, auctionerrors.ErrNotOpen),
		errors.Is(err, auctionerrors.ErrSelfBid),
		errors.Is(err, auctionerrors.ErrStaleBid),
		errors.Is(err, auctionerrors.ErrNotFound):
		return metrics.ResultRejected
	default:
		return metrics.ResultFailed
	}
}

// History returns accepted bids for a listing in acceptance order
func (s *Service) History(ctx context.Context, listingID string) ([]model.Bid, error) {
	if listingID == "" {
		return nil, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}

	var bids []model.Bid
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		bids, err = s.repo.GetBidsByListing(ctx, listingID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}
