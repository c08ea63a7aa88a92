package handler

import (
	"io"

	model "auction-lifecycle/internal/models"
	"auction-lifecycle/services/auction/helpers"
	"auction-lifecycle/utils"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

type EventSubscriber interface {
	Subscribe() (<-chan model.Event, func())
}

type EventsHandler struct {
	subscriber EventSubscriber
}

func NewEventsHandler(subscriber EventSubscriber) *EventsHandler {
	return &EventsHandler{subscriber: subscriber}
}

// StreamHandler handles GET /events as a server-sent event stream.
// An optional listing_id query parameter narrows the stream to one listing.
// Each frame carries the event key as its id.
func (h *EventsHandler) StreamHandler(c *gin.Context) {
	listingID := c.Query("listing_id")
	caller, _ := helpers.CallerFromContext(c)

	events, cancel := h.subscriber.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	utils.Info("StreamHandler: subscriber connected", map[string]any{
		"user_id":    caller.UserID,
		"listing_id": listingID,
	})

	sent := 0
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			if listingID != "" && event.ListingID != listingID {
				return true
			}
			c.Render(-1, sse.Event{
				Id:    event.Key(),
				Event: string(event.Type),
				Data:  event,
			})
			sent++
			return true
		}
	})

	utils.Info("StreamHandler: subscriber disconnected", map[string]any{
		"user_id": caller.UserID,
		"sent":    sent,
	})
}
