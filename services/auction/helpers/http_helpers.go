package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-lifecycle/internal/auctionerrors"
	model "auction-lifecycle/internal/models"
	"auction-lifecycle/utils"

	"github.com/gin-gonic/gin"
)

// CallerKey is the gin context key holding the authenticated model.Caller
const CallerKey = "caller"

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// HandleServiceError maps err to a response and logs it under handlerName
func HandleServiceError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, auctionerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, auctionerrors.ErrForbidden):
		return http.StatusForbidden, "not allowed for this role"
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return http.StatusForbidden, "owner cannot bid on own listing"
	case errors.Is(err, auctionerrors.ErrNotWinner):
		return http.StatusForbidden, "requester is not the auction winner"
	case errors.Is(err, auctionerrors.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, auctionerrors.ErrAlreadyReviewed):
		return http.StatusConflict, "listing already reviewed"
	case errors.Is(err, auctionerrors.ErrNotOpen):
		return http.StatusConflict, "auction is not open"
	case errors.Is(err, auctionerrors.ErrStaleBid):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrAlreadyClosed):
		return http.StatusConflict, "auction already closed"
	case errors.Is(err, auctionerrors.ErrNotClosed):
		return http.StatusConflict, "auction is not closed"
	case errors.Is(err, auctionerrors.ErrAlreadySettled):
		return http.StatusConflict, "payment already authorized"
	case errors.Is(err, auctionerrors.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, auctionerrors.ErrConflict):
		return http.StatusConflict, "concurrent update, please retry"
	case errors.Is(err, auctionerrors.ErrUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// CallerFromContext returns the caller stored by the auth middleware
func CallerFromContext(c *gin.Context) (model.Caller, bool) {
	v, ok := c.Get(CallerKey)
	if !ok {
		return model.Caller{}, false
	}
	caller, ok := v.(model.Caller)
	return caller, ok
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
