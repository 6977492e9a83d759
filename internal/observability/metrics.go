package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	workoutPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "workout_service",
		Subsystem: "persistence",
		Name:      "last_workout_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout written to the store.",
	})
	workoutsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "workout_service",
		Subsystem: "persistence",
		Name:      "workouts_created_total",
		Help:      "Number of workouts created.",
	})
	workoutsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "workout_service",
		Subsystem: "persistence",
		Name:      "workouts_deleted_total",
		Help:      "Number of workouts deleted.",
	})
)

func init() {
	prometheus.MustRegister(workoutPersistGauge, workoutsCreatedTotal, workoutsDeletedTotal)
}

// RecordWorkoutPersisted updates the persistence watermark gauge.
func RecordWorkoutPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	workoutPersistGauge.Set(float64(ts.Unix()))
}

// RecordWorkoutCreated increments the created counter.
func RecordWorkoutCreated() {
	workoutsCreatedTotal.Inc()
}

// RecordWorkoutDeleted increments the deleted counter.
func RecordWorkoutDeleted() {
	workoutsDeletedTotal.Inc()
}
