// Package domain defines the business logic for workout logging.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrWorkoutNotFound is returned when a workout does not exist for the
	// requesting user. Lookups scoped to the wrong owner report the same
	// error, so callers cannot probe for other users' workouts.
	ErrWorkoutNotFound = errors.New("workout not found")
	// ErrExerciseNotFound is the equivalent for exercises, resolved
	// transitively through the owning workout.
	ErrExerciseNotFound = errors.New("exercise not found")
)

// User mirrors the identity provider's view of an account. Rows are written
// by the sync operation on sign-in and never deleted by this service.
type User struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Workout is a single training session owned by exactly one user.
type Workout struct {
	ID          string
	UserID      string
	Name        string
	StartedAt   time.Time
	CompletedAt *time.Time // nil while the session is in progress
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Exercises   []Exercise
}

// Exercise is an exercise performed within a workout. Position defines the
// display sequence; positions are unique within a workout in practice.
type Exercise struct {
	ID        string
	WorkoutID string
	Name      string
	Position  int
	CreatedAt time.Time
	Sets      []Set
}

// Set is a single set of an exercise.
type Set struct {
	ID         string
	ExerciseID string
	SetNumber  int
	Reps       int
	Weight     *float64 // nil means bodyweight/unspecified
	CreatedAt  time.Time
}
