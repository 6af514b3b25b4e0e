package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline metrics.
var (
	RouterDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_decisions_total",
			Help:      "Router decisions by kind and reject category or intent",
		},
		[]string{"decision", "label"},
	)

	RetrievalConfidenceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_confidence_total",
			Help:      "Retrieval outcomes by confidence level",
		},
		[]string{"level"},
	)

	RetrievalTopScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_top_score",
			Help:      "Best similarity score per retrieval",
			Buckets:   []float64{0.1, 0.15, 0.2, 0.25, 0.3, 0.4, 0.5, 0.6, 0.8},
		},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers by outcome",
		},
		[]string{"outcome"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers router, retrieval and answer metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(RouterDecisionsTotal)
	prometheus.MustRegister(RetrievalConfidenceTotal)
	prometheus.MustRegister(RetrievalTopScore)
	prometheus.MustRegister(AnswersTotal)
	pipelineMetricsRegistered = true
}
