package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"reconciliation-service/internal/domain"
)

// Metrics agrupa as métricas Prometheus do serviço.
type Metrics struct {
	issues  *prometheus.CounterVec
	uploads *prometheus.CounterVec
	reports *prometheus.HistogramVec
}

// NewMetrics registra as métricas em reg. Com reg nil as métricas existem mas não são expostas.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		issues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconciliation",
			Name:      "normalization_issues_total",
			Help:      "Valores que não puderam ser convertidos na normalização.",
		}, []string{"kind", "field"}),
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconciliation",
			Name:      "uploads_total",
			Help:      "Planilhas recebidas por base e resultado.",
		}, []string{"dataset", "result"}),
		reports: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reconciliation",
			Name:      "report_seconds",
			Help:      "Tempo de montagem dos relatórios.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"report"}),
	}
}

func (m *Metrics) observeIssues(issues []domain.Issue) {
	for _, is := range issues {
		m.issues.WithLabelValues(string(is.Kind), is.Field).Inc()
	}
}

func (m *Metrics) observeUpload(dataset string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.uploads.WithLabelValues(dataset, result).Inc()
}

func (m *Metrics) reportTimer(report string) *prometheus.Timer {
	return prometheus.NewTimer(m.reports.WithLabelValues(report))
}
