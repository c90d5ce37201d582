package service

import (
	"github.com/radieske/wager-ledger/internal/shared/metrics"
	"github.com/radieske/wager-ledger/internal/wager/domain"
)

// MetricsHooks liga os callbacks do serviço aos contadores Prometheus
func MetricsHooks(m *metrics.WagerMetrics) Hooks {
	return Hooks{
		OnAppended:        func(kind domain.Kind) { m.EventsAppended.WithLabelValues(string(kind)).Inc() },
		OnCommand:         func(op, res string) { m.Commands.WithLabelValues(op, res).Inc() },
		OnConflict:        func() { m.Conflicts.Inc() },
		OnRetry:           func() { m.Retries.Inc() },
		OnSideEffectError: func(stage string) { m.SideEffectErrs.WithLabelValues(stage).Inc() },
	}
}
