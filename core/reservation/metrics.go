package reservation

import "github.com/prometheus/client_golang/prometheus"

var (
	declineCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_decline_count",
			Help: "Number of reservations declined, by reason",
		},
		[]string{"reason"},
	)

	compensationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_compensation_failures",
			Help: "Number of failed leg releases during compensation; each one is a stuck resource until the sweeper re-drives it",
		},
	)

	expiredReclaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_expired_reclaimed",
			Help: "Number of stale reservations reclaimed by the expiry sweep",
		},
	)
)

func init() {
	prometheus.MustRegister(declineCount)
	prometheus.MustRegister(compensationFailures)
	prometheus.MustRegister(expiredReclaimed)
}
