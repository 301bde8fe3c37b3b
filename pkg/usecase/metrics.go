package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultCommitted  = "committed"
	resultRejected   = "rejected"
	resultRolledBack = "rolled_back"
	resultNew        = "new"
	resultExisting   = "existing"
	resultError      = "error"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskreg_submissions_total",
		Help: "Risk report submissions by outcome.",
	}, []string{"result"})

	mergesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskreg_merges_total",
		Help: "Committed merges of existing risk reports.",
	})

	matchLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskreg_match_lookups_total",
		Help: "Existing risk lookups by outcome.",
	}, []string{"result"})

	intakeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "riskreg_intake_duration_seconds",
		Help:    "Time from receiving a submission to its final stage.",
		Buckets: prometheus.DefBuckets,
	})
)
