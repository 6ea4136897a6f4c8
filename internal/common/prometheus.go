package common

import "github.com/prometheus/client_golang/prometheus"

const (
	CommandTotal          = "commands_total"
	ReactionsAppliedTotal = "reactions_applied_total"
	RoleMutationTotal     = "role_mutations_total"
	ReconcileDuration     = "reconcile_duration_seconds"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		CommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: CommandTotal,
			Help: "Count of all handled commands",
		}, []string{"command", "status"}),
		ReactionsAppliedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: ReactionsAppliedTotal,
			Help: "Count of all reactions the bot placed on tracked messages",
		}, []string{"source"}),
		RoleMutationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RoleMutationTotal,
			Help: "Count of all role grants and revocations",
		}, []string{"action", "status"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		ReconcileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: ReconcileDuration,
			Help: "Duration of startup reconciliation",
		}, []string{"status"}),
	}
)
