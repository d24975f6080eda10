package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	otpIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pclub",
			Subsystem: "auth",
			Name:      "otp_issued_total",
			Help:      "One-time codes emailed, by purpose",
		},
		[]string{"purpose"},
	)

	handleVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pclub",
			Subsystem: "cp",
			Name:      "handle_verifications_total",
			Help:      "Codeforces handle verification attempts, by outcome",
		},
		[]string{"outcome"},
	)
)
