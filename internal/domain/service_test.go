package domain_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/4klud/mygymlogs/internal/domain"
	"github.com/4klud/mygymlogs/internal/persistence/memory"
)

func newService() *domain.Service {
	return domain.NewService(memory.NewRepository())
}

func TestCreateWorkoutRejectsWhitespaceName(t *testing.T) {
	ctx := context.Background()
	service := newService()

	_, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID:    "u1",
		Name:      "   ",
		StartedAt: time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC),
	})

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Len(t, validation.Violations, 1)
	require.Equal(t, "name", validation.Violations[0].Field)

	// Fail-closed: nothing was written.
	workouts, err := service.ListWorkoutsForDate(ctx, "u1", time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, workouts)
}

func TestCreateWorkoutRejectsOverlongName(t *testing.T) {
	ctx := context.Background()
	service := newService()

	_, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID:    "u1",
		Name:      strings.Repeat("a", 101),
		StartedAt: time.Now().UTC(),
	})

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "name", validation.Violations[0].Field)
}

func TestCreateWorkoutAcceptsHundredCharacterName(t *testing.T) {
	ctx := context.Background()
	service := newService()

	workout, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID:    "u1",
		Name:      strings.Repeat("a", 100),
		StartedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Nil(t, workout.CompletedAt)
	require.Empty(t, workout.Exercises)
}

func TestCreateThenListScenario(t *testing.T) {
	ctx := context.Background()
	service := newService()

	startedAt := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	created, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID:    "u1",
		Name:      "Leg Day",
		StartedAt: startedAt,
	})
	require.NoError(t, err)
	require.Nil(t, created.CompletedAt)
	require.Empty(t, created.Exercises)
	require.Equal(t, "Leg Day", created.Name)
	require.True(t, created.StartedAt.Equal(startedAt))

	workouts, err := service.ListWorkoutsForDate(ctx, "u1", time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	require.Equal(t, created.ID, workouts[0].ID)
}

func TestListWorkoutsForDateFiltersByOwner(t *testing.T) {
	ctx := context.Background()
	service := newService()
	date := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	_, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID: "u1", Name: "Mine", StartedAt: date.Add(9 * time.Hour),
	})
	require.NoError(t, err)
	_, err = service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID: "u2", Name: "Theirs", StartedAt: date.Add(9 * time.Hour),
	})
	require.NoError(t, err)

	workouts, err := service.ListWorkoutsForDate(ctx, "u1", date)
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	require.Equal(t, "u1", workouts[0].UserID)
}

func TestListWorkoutsForDateBoundaryInclusion(t *testing.T) {
	ctx := context.Background()
	service := newService()

	lower := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	upper := time.Date(2025, time.June, 1, 23, 59, 59, 999000000, time.UTC)

	for _, ts := range []time.Time{lower, upper} {
		_, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
			UserID: "u1", Name: "Boundary", StartedAt: ts,
		})
		require.NoError(t, err)
	}

	sameDay, err := service.ListWorkoutsForDate(ctx, "u1", lower)
	require.NoError(t, err)
	require.Len(t, sameDay, 2)

	dayBefore, err := service.ListWorkoutsForDate(ctx, "u1", lower.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Empty(t, dayBefore)

	dayAfter, err := service.ListWorkoutsForDate(ctx, "u1", lower.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Empty(t, dayAfter)
}

func TestListWorkoutsForDateOrdersMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	service := newService()
	date := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	for _, hour := range []int{8, 12, 18} {
		_, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
			UserID: "u1", Name: "Session", StartedAt: date.Add(time.Duration(hour) * time.Hour),
		})
		require.NoError(t, err)
	}

	workouts, err := service.ListWorkoutsForDate(ctx, "u1", date)
	require.NoError(t, err)
	require.Len(t, workouts, 3)
	require.Equal(t, 18, workouts[0].StartedAt.Hour())
	require.Equal(t, 12, workouts[1].StartedAt.Hour())
	require.Equal(t, 8, workouts[2].StartedAt.Hour())
}

func TestGetWorkoutHidesForeignOwnership(t *testing.T) {
	ctx := context.Background()
	service := newService()

	created, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID: "userB", Name: "Theirs", StartedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, errForeign := service.GetWorkout(ctx, created.ID, "userA")
	_, errMissing := service.GetWorkout(ctx, "no-such-id", "userA")

	// Wrong owner and missing id must be indistinguishable.
	require.ErrorIs(t, errForeign, domain.ErrWorkoutNotFound)
	require.ErrorIs(t, errMissing, domain.ErrWorkoutNotFound)
}

func TestUpdateWorkoutKeepsOmittedFields(t *testing.T) {
	ctx := context.Background()
	service := newService()

	startedAt := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	created, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID: "u1", Name: "Old", StartedAt: startedAt,
	})
	require.NoError(t, err)

	name := "New"
	updated, err := service.UpdateWorkout(ctx, created.ID, "u1", domain.WorkoutPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Name)
	require.True(t, updated.StartedAt.Equal(startedAt))
}

func TestUpdateWorkoutScopedByOwner(t *testing.T) {
	ctx := context.Background()
	service := newService()

	created, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID: "u1", Name: "Mine", StartedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	name := "Hijacked"
	_, err = service.UpdateWorkout(ctx, created.ID, "u2", domain.WorkoutPatch{Name: &name})
	require.ErrorIs(t, err, domain.ErrWorkoutNotFound)

	unchanged, err := service.GetWorkout(ctx, created.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, "Mine", unchanged.Name)
}

func TestFinishWorkoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	service := newService()

	created, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID: "u1", Name: "Session", StartedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	first, err := service.FinishWorkout(ctx, created.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)

	second, err := service.FinishWorkout(ctx, created.ID, "u1")
	require.NoError(t, err)
	require.True(t, second.CompletedAt.Equal(*first.CompletedAt))
}

func TestDeleteWorkoutCascades(t *testing.T) {
	ctx := context.Background()
	service := newService()

	created, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID: "u1", Name: "Session", StartedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	exercise, err := service.AddExercise(ctx, created.ID, "u1", domain.AddExerciseInput{Name: "Squat"})
	require.NoError(t, err)
	_, err = service.AddSet(ctx, exercise.ID, "u1", domain.AddSetInput{Reps: 5})
	require.NoError(t, err)

	require.NoError(t, service.DeleteWorkout(ctx, created.ID, "u1"))

	_, err = service.GetWorkout(ctx, created.ID, "u1")
	require.ErrorIs(t, err, domain.ErrWorkoutNotFound)

	// The exercise went with the workout, so the set has no parent left.
	_, err = service.AddSet(ctx, exercise.ID, "u1", domain.AddSetInput{Reps: 5})
	require.ErrorIs(t, err, domain.ErrExerciseNotFound)
}

func TestAddExerciseEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	service := newService()

	created, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID: "u1", Name: "Session", StartedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = service.AddExercise(ctx, created.ID, "u2", domain.AddExerciseInput{Name: "Squat"})
	require.ErrorIs(t, err, domain.ErrWorkoutNotFound)
}

func TestAddSetValidatesReps(t *testing.T) {
	ctx := context.Background()
	service := newService()

	_, err := service.AddSet(ctx, "whatever", "u1", domain.AddSetInput{Reps: 0})

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "reps", validation.Violations[0].Field)
}

func TestNestedOrdering(t *testing.T) {
	ctx := context.Background()
	service := newService()
	date := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	created, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		UserID: "u1", Name: "Session", StartedAt: date.Add(10 * time.Hour),
	})
	require.NoError(t, err)

	// Insert exercises out of order; positions drive the sequence.
	for _, pos := range []int{2, 0, 1} {
		p := pos
		_, err := service.AddExercise(ctx, created.ID, "u1", domain.AddExerciseInput{Name: "Ex", Position: &p})
		require.NoError(t, err)
	}

	workouts, err := service.ListWorkoutsForDate(ctx, "u1", date)
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	require.Len(t, workouts[0].Exercises, 3)
	for i, exercise := range workouts[0].Exercises {
		require.Equal(t, i, exercise.Position)
	}

	// Same for sets within an exercise.
	target := workouts[0].Exercises[0]
	for _, n := range []int{3, 1, 2} {
		num := n
		_, err := service.AddSet(ctx, target.ID, "u1", domain.AddSetInput{SetNumber: &num, Reps: 5})
		require.NoError(t, err)
	}

	fetched, err := service.GetWorkout(ctx, created.ID, "u1")
	require.NoError(t, err)
	sets := fetched.Exercises[0].Sets
	require.Len(t, sets, 3)
	for i, set := range sets {
		require.Equal(t, i+1, set.SetNumber)
	}
}

func TestSyncUserUpserts(t *testing.T) {
	ctx := context.Background()
	service := newService()

	first, err := service.SyncUser(ctx, "u1", "Alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", first.DisplayName)

	second, err := service.SyncUser(ctx, "u1", "Alicia")
	require.NoError(t, err)
	require.Equal(t, "Alicia", second.DisplayName)
	require.True(t, second.CreatedAt.Equal(first.CreatedAt))
}
