package compiler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeWritten   = "written"
	outcomeUnhandled = "unhandled"
	outcomeError     = "error"
)

// Metrics counts dispatch outcomes per specification kind.
type Metrics struct {
	Nodes *prometheus.CounterVec
}

// NewMetrics registers the compiler counters with reg. A nil reg registers
// with prometheus.DefaultRegisterer. Registering twice with the same
// registry panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		Nodes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "datagrid_compiler_nodes_total",
			Help: "Number of specification nodes offered to the compiler, by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) observe(kind, outcome string) {
	if m == nil {
		return
	}
	m.Nodes.WithLabelValues(kind, outcome).Inc()
}
