package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refreshmon_check_cycles_total",
			Help: "Total number of completed detection cycles",
		},
		[]string{"trigger"},
	)

	checkCyclesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refreshmon_check_cycles_dropped_total",
			Help: "Total number of check triggers dropped because a cycle was running",
		},
		[]string{"trigger"},
	)

	checkDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refreshmon_check_duration_seconds",
			Help:    "Duration of detection cycles",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	deviationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refreshmon_deviations_total",
			Help: "Total number of deviation events detected",
		},
		[]string{"device"},
	)

	alertsSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refreshmon_alerts_suppressed_total",
			Help: "Total number of deviation alerts suppressed by the suppression window",
		},
	)

	enumerationErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refreshmon_enumeration_errors_total",
			Help: "Total number of per-device enumeration failures",
		},
	)

	backendUnavailableTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refreshmon_backend_unavailable_total",
			Help: "Total number of cycles that found no active display device",
		},
	)

	notifyErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refreshmon_notify_errors_total",
			Help: "Total number of notification sink failures",
		},
	)

	displayRefreshRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "refreshmon_display_refresh_rate_hz",
			Help: "Current refresh rate of each active display",
		},
		[]string{"device"},
	)

	displayPreferredRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "refreshmon_display_preferred_rate_hz",
			Help: "Preferred refresh rate of each active display",
		},
		[]string{"device"},
	)
)
