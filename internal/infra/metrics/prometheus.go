package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keysnap_jobs_processed_total",
		Help: "Total number of keyframe jobs processed, by outcome",
	}, []string{"status"})

	JobStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "keysnap_job_stage_duration_seconds",
		Help:    "Duration of each keyframe pipeline stage",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keysnap_frames_decoded_total",
		Help: "Total number of raw frames read by the stillness scan",
	})

	KeyframesSelected = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "keysnap_keyframes_selected",
		Help:    "Number of keyframes selected per job",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	EmptySelectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keysnap_empty_selections_total",
		Help: "Jobs that completed without selecting any keyframe",
	})

	DegradedLabelFont = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "keysnap_label_font_degraded",
		Help: "1 when contact sheet labels use the built-in fallback font",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "keysnap_active_workers",
		Help: "Number of workers currently processing a job",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keysnap_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
