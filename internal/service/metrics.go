package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "interactive_maps"

var (
	accessCodeSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "access_code",
			Name:      "sync_total",
			Help:      "Access code synchronization attempts by result.",
		},
		[]string{"result"},
	)

	accessCodeRotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "access_code",
			Name:      "rotations_total",
			Help:      "Number of times a new access code replaced the active one.",
		},
	)

	accessCodeSyncState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "access_code",
			Name:      "sync_state",
			Help:      "0 while uninitialized, 1 once the store has been bootstrapped.",
		},
	)

	accessCodeLastSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "access_code",
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the last successful synchronization.",
		},
	)

	identityRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "identity",
			Name:      "requests_total",
			Help:      "Requests to the external identity source by operation and result.",
		},
		[]string{"operation", "result"},
	)
)

const (
	syncResultUnchanged  = "unchanged"
	syncResultRotated    = "rotated"
	syncResultFetchError = "fetch_error"
	syncResultStoreError = "store_error"
)
