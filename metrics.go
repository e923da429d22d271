package frost

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Key generation
	keygenRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbs_keygen_runs_total",
			Help: "Key generation runs finished by this party, by result",
		},
		[]string{"result"},
	)

	// Nonces
	noncesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tbs_nonces_issued_total",
			Help: "Signing nonces issued",
		},
	)
	nonceReuseRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tbs_nonce_reuse_rejected_total",
			Help: "Nonce requests refused because the session id was already used",
		},
	)
	noncesOutstanding = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tbs_nonces_outstanding",
			Help: "Issued nonces not yet consumed or discarded",
		},
	)

	// Signing
	shareVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbs_signature_share_verifications_total",
			Help: "Signature share verifications, by result",
		},
		[]string{"result"},
	)
	signaturesCombined = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbs_signatures_combined_total",
			Help: "Signatures combined, by session mode",
		},
		[]string{"mode"},
	)
	combineSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tbs_combine_seconds",
			Help:    "Time spent combining signature shares",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
	)
	signingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbs_signing_requests_total",
			Help: "Coordinated signing requests, by result",
		},
		[]string{"result"},
	)

	// Degenerate values
	degenerateRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tbs_degenerate_retries_total",
			Help: "Steps redone with fresh randomness after producing a zero value",
		},
	)
)
