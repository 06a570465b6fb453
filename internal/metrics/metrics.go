// Package metrics records engine runs in Prometheus collectors.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshharrison/critpath/internal/network"
)

// Recorder observes one engine run.
type Recorder interface {
	ObserveRun(engine string, activities int, elapsed time.Duration, err error)
}

// Nop discards observations.
type Nop struct{}

func (Nop) ObserveRun(string, int, time.Duration, error) {}

// PromRecorder records engine runs in Prometheus metrics.
type PromRecorder struct {
	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	activities *prometheus.GaugeVec
}

// NewPromRecorder registers the engine metrics on reg. If reg is nil, the
// default registerer is used. Collectors already registered are reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "critpath_engine_runs_total",
		Help: "Total number of engine runs by engine and outcome",
	}, []string{"engine", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "critpath_engine_run_seconds",
		Help:    "Wall time of one engine run",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"engine"})
	activities := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "critpath_engine_last_activities",
		Help: "Number of activities in the last successful run",
	}, []string{"engine"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if activities, err = register(reg, activities); err != nil {
		return nil, err
	}
	return &PromRecorder{runs: runs, duration: duration, activities: activities}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveRun implements Recorder.
func (r *PromRecorder) ObserveRun(engine string, activities int, elapsed time.Duration, err error) {
	r.runs.WithLabelValues(engine, Outcome(err)).Inc()
	r.duration.WithLabelValues(engine).Observe(elapsed.Seconds())
	if err == nil {
		r.activities.WithLabelValues(engine).Set(float64(activities))
	}
}

// Outcome labels an engine error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, network.ErrCycle):
		return "cycle"
	case errors.Is(err, network.ErrDanglingReference):
		return "dangling_reference"
	case errors.Is(err, network.ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, network.ErrInvalidActivity):
		return "invalid_activity"
	default:
		return "error"
	}
}
