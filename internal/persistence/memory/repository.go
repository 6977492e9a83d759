// Package memory provides an in-memory repository for local development and
// tests. It mirrors the ordering and owner-scoping behavior of the Postgres
// repository without requiring a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/4klud/mygymlogs/internal/domain"
)

// Repository stores workouts in process memory guarded by a RWMutex.
type Repository struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	workouts  map[string]domain.Workout  // children stripped; hydrated on read
	exercises map[string]domain.Exercise // sets stripped
	sets      map[string]domain.Set
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		users:     make(map[string]domain.User),
		workouts:  make(map[string]domain.Workout),
		exercises: make(map[string]domain.Exercise),
		sets:      make(map[string]domain.Set),
	}
}

// ListForDate implements domain.WorkoutRepository.
func (r *Repository) ListForDate(ctx context.Context, userID string, start, end time.Time) ([]domain.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]domain.Workout, 0)
	for _, w := range r.workouts {
		if w.UserID != userID {
			continue
		}
		if w.StartedAt.Before(start) || w.StartedAt.After(end) {
			continue
		}
		results = append(results, r.hydrate(w))
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].StartedAt.Equal(results[j].StartedAt) {
			return results[i].StartedAt.After(results[j].StartedAt)
		}
		return results[i].ID > results[j].ID
	})
	return results, nil
}

// Get implements domain.WorkoutRepository.
func (r *Repository) Get(ctx context.Context, workoutID, userID string) (*domain.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workouts[workoutID]
	if !ok || w.UserID != userID {
		return nil, nil
	}
	hydrated := r.hydrate(w)
	return &hydrated, nil
}

// Create implements domain.WorkoutRepository.
func (r *Repository) Create(ctx context.Context, workout domain.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	workout.Exercises = nil
	r.workouts[workout.ID] = workout
	return nil
}

// Update implements domain.WorkoutRepository.
func (r *Repository) Update(ctx context.Context, workoutID, userID string, patch domain.WorkoutPatch, updatedAt time.Time) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workouts[workoutID]
	if !ok || w.UserID != userID {
		return nil, nil
	}
	if patch.Name != nil {
		w.Name = *patch.Name
	}
	if patch.StartedAt != nil {
		w.StartedAt = *patch.StartedAt
	}
	w.UpdatedAt = updatedAt
	r.workouts[workoutID] = w

	hydrated := r.hydrate(w)
	return &hydrated, nil
}

// Finish implements domain.WorkoutRepository.
func (r *Repository) Finish(ctx context.Context, workoutID, userID string, completedAt time.Time) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workouts[workoutID]
	if !ok || w.UserID != userID {
		return nil, nil
	}
	if w.CompletedAt == nil {
		ts := completedAt
		w.CompletedAt = &ts
		w.UpdatedAt = completedAt
	}
	r.workouts[workoutID] = w

	hydrated := r.hydrate(w)
	return &hydrated, nil
}

// Delete implements domain.WorkoutRepository, cascading to exercises and sets.
func (r *Repository) Delete(ctx context.Context, workoutID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workouts[workoutID]
	if !ok || w.UserID != userID {
		return false, nil
	}
	delete(r.workouts, workoutID)
	for id, e := range r.exercises {
		if e.WorkoutID != workoutID {
			continue
		}
		delete(r.exercises, id)
		for sid, s := range r.sets {
			if s.ExerciseID == id {
				delete(r.sets, sid)
			}
		}
	}
	return true, nil
}

// AddExercise implements domain.WorkoutRepository.
func (r *Repository) AddExercise(ctx context.Context, userID string, exercise domain.Exercise, position *int) (*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workouts[exercise.WorkoutID]
	if !ok || w.UserID != userID {
		return nil, nil
	}

	if position != nil {
		exercise.Position = *position
	} else {
		next := 0
		for _, e := range r.exercises {
			if e.WorkoutID == exercise.WorkoutID && e.Position >= next {
				next = e.Position + 1
			}
		}
		exercise.Position = next
	}

	exercise.Sets = nil
	r.exercises[exercise.ID] = exercise

	out := exercise
	out.Sets = []domain.Set{}
	return &out, nil
}

// AddSet implements domain.WorkoutRepository.
func (r *Repository) AddSet(ctx context.Context, userID string, set domain.Set, setNumber *int) (*domain.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.exercises[set.ExerciseID]
	if !ok {
		return nil, nil
	}
	w, ok := r.workouts[e.WorkoutID]
	if !ok || w.UserID != userID {
		return nil, nil
	}

	if setNumber != nil {
		set.SetNumber = *setNumber
	} else {
		next := 1
		for _, s := range r.sets {
			if s.ExerciseID == set.ExerciseID && s.SetNumber >= next {
				next = s.SetNumber + 1
			}
		}
		set.SetNumber = next
	}

	r.sets[set.ID] = set
	out := set
	return &out, nil
}

// UpsertUser implements domain.WorkoutRepository.
func (r *Repository) UpsertUser(ctx context.Context, user domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[user.ID]; ok {
		existing.DisplayName = user.DisplayName
		existing.UpdatedAt = user.UpdatedAt
		r.users[user.ID] = existing
		out := existing
		return &out, nil
	}
	r.users[user.ID] = user
	out := user
	return &out, nil
}

// hydrate attaches exercises ordered by position and sets ordered by set
// number. Callers must hold at least the read lock.
func (r *Repository) hydrate(w domain.Workout) domain.Workout {
	w.Exercises = []domain.Exercise{}
	for _, e := range r.exercises {
		if e.WorkoutID != w.ID {
			continue
		}
		e.Sets = []domain.Set{}
		for _, s := range r.sets {
			if s.ExerciseID == e.ID {
				e.Sets = append(e.Sets, s)
			}
		}
		sort.Slice(e.Sets, func(i, j int) bool {
			if e.Sets[i].SetNumber != e.Sets[j].SetNumber {
				return e.Sets[i].SetNumber < e.Sets[j].SetNumber
			}
			return e.Sets[i].CreatedAt.Before(e.Sets[j].CreatedAt)
		})
		w.Exercises = append(w.Exercises, e)
	}
	sort.Slice(w.Exercises, func(i, j int) bool {
		if w.Exercises[i].Position != w.Exercises[j].Position {
			return w.Exercises[i].Position < w.Exercises[j].Position
		}
		return w.Exercises[i].CreatedAt.Before(w.Exercises[j].CreatedAt)
	})
	return w
}
