package domain

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// WorkoutRepository captures persistence operations. Every read and write is
// scoped by the owning user; implementations return nil (not an error) when
// no row matches the id/owner pair.
type WorkoutRepository interface {
	ListForDate(ctx context.Context, userID string, start, end time.Time) ([]Workout, error)
	Get(ctx context.Context, workoutID, userID string) (*Workout, error)
	Create(ctx context.Context, workout Workout) error
	Update(ctx context.Context, workoutID, userID string, patch WorkoutPatch, updatedAt time.Time) (*Workout, error)
	Finish(ctx context.Context, workoutID, userID string, completedAt time.Time) (*Workout, error)
	Delete(ctx context.Context, workoutID, userID string) (bool, error)
	AddExercise(ctx context.Context, userID string, exercise Exercise, position *int) (*Exercise, error)
	AddSet(ctx context.Context, userID string, set Set, setNumber *int) (*Set, error)
	UpsertUser(ctx context.Context, user User) (*User, error)
}

// Service orchestrates workout workflows. The caller's verified user id is an
// explicit argument on every operation; nothing is read from ambient state.
type Service struct {
	repo WorkoutRepository
}

// NewService constructs a Service.
func NewService(repo WorkoutRepository) *Service {
	return &Service{repo: repo}
}

// CreateWorkoutInput captures the payload from the API layer. UserID comes
// from the caller's claims, never from the request body.
type CreateWorkoutInput struct {
	UserID    string
	Name      string
	StartedAt time.Time
}

// WorkoutPatch carries optional field updates; nil fields retain prior values.
type WorkoutPatch struct {
	Name      *string
	StartedAt *time.Time
}

// AddExerciseInput captures a new exercise for a workout. A nil Position
// appends after the workout's current highest position.
type AddExerciseInput struct {
	Name     string
	Position *int
}

// AddSetInput captures a new set for an exercise. A nil SetNumber appends
// after the exercise's current highest set number.
type AddSetInput struct {
	SetNumber *int
	Reps      int
	Weight    *float64
}

// ListWorkoutsForDate returns the user's workouts whose start time falls in
// the UTC day window of date, most recent first, with exercises ordered by
// position and sets by set number. An empty day yields an empty slice.
func (s *Service) ListWorkoutsForDate(ctx context.Context, userID string, date time.Time) ([]Workout, error) {
	var v violations
	if strings.TrimSpace(userID) == "" {
		v.add("user_id", "is required")
	}
	if date.IsZero() {
		v.add("date", "is required")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	start, end := DayWindow(date)
	return s.repo.ListForDate(ctx, userID, start, end)
}

// GetWorkout fetches one workout with nested data. A workout owned by a
// different user is indistinguishable from a missing one.
func (s *Service) GetWorkout(ctx context.Context, workoutID, userID string) (*Workout, error) {
	workout, err := s.repo.Get(ctx, workoutID, userID)
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

// CreateWorkout validates input and persists a new in-progress workout.
func (s *Service) CreateWorkout(ctx context.Context, input CreateWorkoutInput) (*Workout, error) {
	var v violations
	if strings.TrimSpace(input.UserID) == "" {
		v.add("user_id", "is required")
	}
	name := strings.TrimSpace(input.Name)
	checkName(&v, "name", name)
	if input.StartedAt.IsZero() {
		v.add("started_at", "is required")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workout := Workout{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Name:      name,
		StartedAt: input.StartedAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
		Exercises: []Exercise{},
	}

	if err := s.repo.Create(ctx, workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// UpdateWorkout applies the patch to the user's workout. Omitted fields are
// untouched. ErrWorkoutNotFound covers both missing ids and foreign owners.
func (s *Service) UpdateWorkout(ctx context.Context, workoutID, userID string, patch WorkoutPatch) (*Workout, error) {
	var v violations
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		checkName(&v, "name", trimmed)
		patch.Name = &trimmed
	}
	if patch.StartedAt != nil {
		if patch.StartedAt.IsZero() {
			v.add("started_at", "must be a valid timestamp")
		} else {
			utc := patch.StartedAt.UTC()
			patch.StartedAt = &utc
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	workout, err := s.repo.Update(ctx, workoutID, userID, patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

// FinishWorkout stamps the completion time once; finishing an already
// completed workout keeps the original timestamp.
func (s *Service) FinishWorkout(ctx context.Context, workoutID, userID string) (*Workout, error) {
	workout, err := s.repo.Finish(ctx, workoutID, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

// DeleteWorkout removes the user's workout; the store cascades the delete to
// exercises and sets.
func (s *Service) DeleteWorkout(ctx context.Context, workoutID, userID string) error {
	deleted, err := s.repo.Delete(ctx, workoutID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrWorkoutNotFound
	}
	return nil
}

// AddExercise appends an exercise to the user's workout. Ownership is
// enforced through the workout in the same store operation.
func (s *Service) AddExercise(ctx context.Context, workoutID, userID string, input AddExerciseInput) (*Exercise, error) {
	var v violations
	name := strings.TrimSpace(input.Name)
	checkName(&v, "name", name)
	if input.Position != nil && *input.Position < 0 {
		v.add("position", "must not be negative")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	exercise := Exercise{
		ID:        uuid.NewString(),
		WorkoutID: workoutID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Sets:      []Set{},
	}

	persisted, err := s.repo.AddExercise(ctx, userID, exercise, input.Position)
	if err != nil {
		return nil, err
	}
	if persisted == nil {
		return nil, ErrWorkoutNotFound
	}
	return persisted, nil
}

// AddSet appends a set to an exercise owned (via its workout) by the user.
func (s *Service) AddSet(ctx context.Context, exerciseID, userID string, input AddSetInput) (*Set, error) {
	var v violations
	if input.Reps < 1 {
		v.add("reps", "must be at least 1")
	}
	if input.SetNumber != nil && *input.SetNumber < 1 {
		v.add("set_number", "must be at least 1")
	}
	if input.Weight != nil && *input.Weight < 0 {
		v.add("weight", "must not be negative")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	set := Set{
		ID:         uuid.NewString(),
		ExerciseID: exerciseID,
		Reps:       input.Reps,
		Weight:     input.Weight,
		CreatedAt:  time.Now().UTC(),
	}

	persisted, err := s.repo.AddSet(ctx, userID, set, input.SetNumber)
	if err != nil {
		return nil, err
	}
	if persisted == nil {
		return nil, ErrExerciseNotFound
	}
	return persisted, nil
}

// SyncUser upserts the user row on sign-in. The identity provider owns the
// account lifecycle; this service only mirrors id and display name.
func (s *Service) SyncUser(ctx context.Context, userID, displayName string) (*User, error) {
	var v violations
	if strings.TrimSpace(userID) == "" {
		v.add("user_id", "is required")
	}
	displayName = strings.TrimSpace(displayName)
	if utf8.RuneCountInString(displayName) > MaxNameLength {
		v.add("display_name", "must be at most 100 characters")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.repo.UpsertUser(ctx, User{
		ID:          userID,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func checkName(v *violations, field, trimmed string) {
	if trimmed == "" {
		v.add(field, "is required")
		return
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		v.add(field, "must be at most 100 characters")
	}
}
