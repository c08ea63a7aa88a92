package auction

import (
	"context"
	"fmt"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/metrics"
	model "auction-lifecycle/internal/models"
	"auction-lifecycle/utils"
)

// AuthorizePayment issues the single payment authorization for a closed
// listing. Only the recorded winner may request it, and only once.
func (s *Service) AuthorizePayment(ctx context.Context, listingID string, caller model.Caller) (model.PaymentAuthorization, error) {
	if err := requireCaller(caller); err != nil {
		return model.PaymentAuthorization{}, err
	}
	if listingID == "" {
		return model.PaymentAuthorization{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}

	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return model.PaymentAuthorization{}, fmt.Errorf("service: failed to authorize payment for listing %s: %w", listingID, err)
	}
	if listing.AuctionState != model.AuctionClosed {
		return model.PaymentAuthorization{}, fmt.Errorf("service: %w - listing %s auction is %s", auctionerrors.ErrNotClosed, listingID, listing.AuctionState)
	}
	if listing.WinnerID == "" || caller.UserID != listing.WinnerID {
		return model.PaymentAuthorization{}, fmt.Errorf("service: %w", auctionerrors.ErrNotWinner)
	}

	auth := model.PaymentAuthorization{
		Token:     utils.GenerateID(),
		ListingID: listingID,
		WinnerID:  listing.WinnerID,
		Amount:    listing.CurrentPrice,
		IssuedAt:  s.now(),
	}
	err = s.call(ctx, func(ctx context.Context) error {
		return s.repo.CreateAuthorization(ctx, auth)
	})
	if err != nil {
		return model.PaymentAuthorization{}, fmt.Errorf("service: failed to authorize payment for listing %s: %w", listingID, err)
	}

	metrics.PaymentsAuthorized.Inc()
	s.publish(model.EventPaymentAuthorized, listing, nil)
	utils.Info("payment authorized", map[string]any{
		"listing_id": listingID,
		"winner_id":  auth.WinnerID,
		"amount":     auth.Amount,
	})
	return auth, nil
}

// ConsumeAuthorization redeems an authorization token on behalf of the payment
// collaborator. A token can be redeemed once.
func (s *Service) ConsumeAuthorization(ctx context.Context, token string) (model.PaymentAuthorization, error) {
	if !utils.IsValidID(token) {
		return model.PaymentAuthorization{}, fmt.Errorf("service: %w - malformed token", auctionerrors.ErrInvalidInput)
	}

	var auth model.PaymentAuthorization
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		auth, err = s.repo.ConsumeAuthorization(ctx, token, s.now())
		return err
	})
	if err != nil {
		return model.PaymentAuthorization{}, fmt.Errorf("service: failed to consume authorization: %w", err)
	}

	utils.Info("payment authorization consumed", map[string]any{
		"listing_id": auth.ListingID,
		"winner_id":  auth.WinnerID,
	})
	return auth, nil
}
