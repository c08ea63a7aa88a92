package auction

import (
	"context"
	"fmt"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/metrics"
	model "auction-lifecycle/internal/models"
	"auction-lifecycle/utils"
)

// Close ends an open auction. The current leader becomes the winner (none if
// no bid was accepted) and the current price is frozen. Closing is a manual
// officer action; there is no deadline timer.
func (s *Service) Close(ctx context.Context, listingID string, caller model.Caller) (model.Listing, error) {
	if err := requireRole(caller, model.RoleOfficer); err != nil {
		return model.Listing{}, err
	}
	if listingID == "" {
		return model.Listing{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}

	var closed model.Listing
	err := s.retry(ctx, "close", func() error {
		current, err := s.getListing(ctx, listingID)
		if err != nil {
			return err
		}
		if current.AuctionState != model.AuctionOpen {
			return fmt.Errorf("service: %w - listing %s auction is %s", auctionerrors.ErrAlreadyClosed, listingID, current.AuctionState)
		}

		next := current
		next.AuctionState = model.AuctionClosed
		next.WinnerID = current.LeaderID
		next.ClosedBy = caller.UserID
		next.Version = current.Version + 1
		next.UpdatedAt = s.now()

		if err := s.call(ctx, func(ctx context.Context) error {
			return s.repo.UpdateListing(ctx, next, current.Version)
		}); err != nil {
			return err
		}
		closed = next
		return nil
	})
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to close listing %s: %w", listingID, err)
	}

	metrics.AuctionsClosed.Inc()
	s.publish(model.EventAuctionClosed, closed, nil)
	utils.Info("auction closed", map[string]any{
		"listing_id": listingID,
		"officer_id": caller.UserID,
		"winner_id":  closed.WinnerID,
		"price":      closed.CurrentPrice,
		"version":    closed.Version,
	})
	return closed, nil
}
