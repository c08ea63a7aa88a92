package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BidsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_bids_total",
			Help: "Bid attempts by outcome.",
		},
		[]string{"result"},
	)
	ListingsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_listings_submitted_total",
			Help: "Listings submitted for review.",
		})
	ListingsReviewed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_listings_reviewed_total",
			Help: "Officer reviews by decision.",
		},
		[]string{"decision"},
	)
	AuctionsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_closed_total",
			Help: "Auctions closed by an officer.",
		})
	PaymentsAuthorized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_payments_authorized_total",
			Help: "Payment authorizations issued to winners.",
		})
	ConflictRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_conflict_retries_total",
			Help: "Optimistic update conflicts retried, by operation.",
		},
		[]string{"operation"},
	)
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auction_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// Bid outcome labels
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)
