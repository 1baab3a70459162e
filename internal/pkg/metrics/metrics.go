// Package metrics exposes prometheus collectors for the complaint pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "complaint_analyzer"

// PipelineMetrics implements the pipeline Recorder on prometheus collectors
type PipelineMetrics struct {
	stageDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	extractions   *prometheus.CounterVec
}

// NewPipelineMetrics creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage",
				// OCR and inference calls take tens of seconds
				Buckets: []float64{0.01, 0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage", "result"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by outcome and the stage a failed run stopped at",
			},
			[]string{"outcome", "stage"},
		),
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extractions_total",
				Help:      "Successful text extractions by method",
			},
			[]string{"method"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.stageDuration, m.runs, m.extractions)
	}
	return m
}

func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.stageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
}

func (m *PipelineMetrics) RecordOutcome(success bool, failedStage string) {
	if success {
		m.runs.WithLabelValues("success", "").Inc()
		return
	}
	m.runs.WithLabelValues("failure", failedStage).Inc()
}

func (m *PipelineMetrics) RecordExtraction(method string) {
	m.extractions.WithLabelValues(method).Inc()
}
