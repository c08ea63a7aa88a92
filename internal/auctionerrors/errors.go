package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("concurrent update conflict")
	ErrUnavailable = errors.New("backend unavailable")
)

// business logic errors
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyReviewed = errors.New("listing already reviewed")
	ErrNotOpen         = errors.New("auction is not open")
	ErrSelfBid         = errors.New("owner cannot bid on own listing")
	ErrStaleBid        = errors.New("bid does not exceed current price")
	ErrAlreadyClosed   = errors.New("auction already closed")
	ErrNotClosed       = errors.New("auction is not closed")
	ErrNotWinner       = errors.New("requester is not the auction winner")
	ErrAlreadySettled  = errors.New("payment already authorized for listing")
)

// identity errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrEmailTaken   = errors.New("email already registered")
)
