package metrics

import "github.com/prometheus/client_golang/prometheus"

// WagerMetrics agrupa os contadores do serviço de apostas
type WagerMetrics struct {
	EventsAppended *prometheus.CounterVec // por kind
	Commands       *prometheus.CounterVec // por op e resultado
	Conflicts      prometheus.Counter
	Retries        prometheus.Counter
	SideEffectErrs *prometheus.CounterVec // publish, cache, broadcast
}

func NewWagerMetrics(reg prometheus.Registerer) *WagerMetrics {
	m := &WagerMetrics{
		EventsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wager_events_appended_total", Help: "eventos anexados ao log, por tipo",
		}, []string{"kind"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wager_commands_total", Help: "comandos processados, por operação e resultado",
		}, []string{"op", "result"}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wager_concurrency_conflicts_total", Help: "escritas rejeitadas por versão divergente",
		}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wager_command_retries_total", Help: "releituras após conflito de versão",
		}),
		SideEffectErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wager_side_effect_errors_total", Help: "erros pós-escrita por estágio",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.EventsAppended, m.Commands, m.Conflicts, m.Retries, m.SideEffectErrs)
	return m
}
