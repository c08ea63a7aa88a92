package auction

import (
	"context"
	"errors"
	"sync"
	"testing"

	"auction-lifecycle/internal/auctionerrors"
	model "auction-lifecycle/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// closedWithWinner opens a listing, lets bidder1 win it at 120 and closes it
func closedWithWinner(t *testing.T, svc *Service) model.Listing {
	t.Helper()
	ctx := context.Background()

	listing := openListing(t, svc, 100)
	_, err := svc.PlaceBid(ctx, listing.ListingID, bidder1, 120)
	require.NoError(t, err)
	closed, err := svc.Close(ctx, listing.ListingID, officer)
	require.NoError(t, err)
	return closed
}

// Tests AuthorizePayment
func TestAuctionService_AuthorizePayment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name          string
		caller        model.Caller
		setup         func(t *testing.T, svc *Service) string
		expectedError error
	}{
		{
			name:   "winner_authorizes",
			caller: bidder1,
			setup: func(t *testing.T, svc *Service) string {
				return closedWithWinner(t, svc).ListingID
			},
		},
		{
			name:   "loser_is_refused",
			caller: bidder2,
			setup: func(t *testing.T, svc *Service) string {
				return closedWithWinner(t, svc).ListingID
			},
			expectedError: auctionerrors.ErrNotWinner,
		},
		{
			name:   "second_authorization",
			caller: bidder1,
			setup: func(t *testing.T, svc *Service) string {
				id := closedWithWinner(t, svc).ListingID
				_, err := svc.AuthorizePayment(ctx, id, bidder1)
				require.NoError(t, err)
				return id
			},
			expectedError: auctionerrors.ErrAlreadySettled,
		},
		{
			name:   "auction_still_open",
			caller: bidder1,
			setup: func(t *testing.T, svc *Service) string {
				l := openListing(t, svc, 100)
				_, err := svc.PlaceBid(ctx, l.ListingID, bidder1, 120)
				require.NoError(t, err)
				return l.ListingID
			},
			expectedError: auctionerrors.ErrNotClosed,
		},
		{
			name:   "closed_without_winner",
			caller: bidder1,
			setup: func(t *testing.T, svc *Service) string {
				l := openListing(t, svc, 100)
				_, err := svc.Close(ctx, l.ListingID, officer)
				require.NoError(t, err)
				return l.ListingID
			},
			expectedError: auctionerrors.ErrNotWinner,
		},
		{
			name:   "unknown_listing",
			caller: bidder1,
			setup: func(t *testing.T, svc *Service) string {
				return "missing"
			},
			expectedError: auctionerrors.ErrNotFound,
		},
		{
			name:   "anonymous_caller",
			caller: model.Caller{},
			setup: func(t *testing.T, svc *Service) string {
				return closedWithWinner(t, svc).ListingID
			},
			expectedError: auctionerrors.ErrUnauthorized,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, _, _ := newTestService(t)
			listingID := tc.setup(t, service)

			auth, err := service.AuthorizePayment(ctx, listingID, tc.caller)
			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}
			require.NoError(t, err)

			_, parseErr := uuid.Parse(auth.Token)
			require.NoError(t, parseErr, "Token should be a valid UUID")
			require.Equal(t, listingID, auth.ListingID)
			require.Equal(t, tc.caller.UserID, auth.WinnerID)
			require.Equal(t, 120.0, auth.Amount)
			require.Nil(t, auth.ConsumedAt)
		})
	}
}

// Tests that concurrent requests from the winner yield a single authorization
func TestAuctionService_ConcurrentAuthorize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, _, _ := newTestService(t)
	listing := closedWithWinner(t, service)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		tokens  []string
		settled int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			auth, err := service.AuthorizePayment(ctx, listing.ListingID, bidder1)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				tokens = append(tokens, auth.Token)
			case errors.Is(err, auctionerrors.ErrAlreadySettled):
				settled++
			}
		}()
	}
	wg.Wait()

	require.Len(t, tokens, 1)
	require.Equal(t, 9, settled)
}

// Tests ConsumeAuthorization
func TestAuctionService_ConsumeAuthorization(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, _, _ := newTestService(t)
	listing := closedWithWinner(t, service)

	auth, err := service.AuthorizePayment(ctx, listing.ListingID, bidder1)
	require.NoError(t, err)

	consumed, err := service.ConsumeAuthorization(ctx, auth.Token)
	require.NoError(t, err)
	require.NotNil(t, consumed.ConsumedAt)
	require.Equal(t, listing.ListingID, consumed.ListingID)

	_, err = service.ConsumeAuthorization(ctx, auth.Token)
	require.ErrorIs(t, err, auctionerrors.ErrAlreadySettled)

	_, err = service.ConsumeAuthorization(ctx, uuid.NewString())
	require.ErrorIs(t, err, auctionerrors.ErrNotFound)

	_, err = service.ConsumeAuthorization(ctx, "")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidInput)

	_, err = service.ConsumeAuthorization(ctx, "not-a-token")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidInput)
}
