// Package observability provides tracing and metrics instrumentation.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VoteMutations counts vote operations by outcome (created, removed, switched).
	VoteMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colloquy_vote_mutations_total",
		Help: "Total number of comment vote mutations by outcome",
	}, []string{"outcome"})

	// CommentsDeleted counts comments removed, including cascade-deleted descendants.
	CommentsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "colloquy_comments_deleted_total",
		Help: "Total number of comments deleted, cascades included",
	})

	// OTPEmailsSent counts verification emails dispatched.
	OTPEmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "colloquy_otp_emails_sent_total",
		Help: "Total number of OTP verification emails dispatched",
	})
)
