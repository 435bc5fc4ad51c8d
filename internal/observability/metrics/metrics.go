package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)

// Metrics aggregates the loyalty core's prometheus instruments.
type Metrics struct {
	Captures         *prometheus.CounterVec
	UnclaimedAccrued prometheus.Counter
	Claims           prometheus.Counter
	Pairings         *prometheus.CounterVec
}

func New() (*Metrics, error) {
	m := &Metrics{
		Captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tapcard",
			Name:      "payment_captures_total",
			Help:      "Captured payments by outcome.",
		}, []string{"outcome"}),
		UnclaimedAccrued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tapcard",
			Name:      "unclaimed_accruals_total",
			Help:      "Loyalty accruals recorded against unknown cards.",
		}),
		Claims: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tapcard",
			Name:      "history_claims_total",
			Help:      "Unclaimed histories migrated to registered customers.",
		}),
		Pairings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tapcard",
			Name:      "terminal_pairings_total",
			Help:      "Terminal pairing attempts by result.",
		}, []string{"result"}),
	}

	for _, collector := range []prometheus.Collector{
		m.Captures, m.UnclaimedAccrued, m.Claims, m.Pairings,
	} {
		if err := prometheus.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}
