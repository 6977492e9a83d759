// Package postgres provides pgx-backed persistence for workouts.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/4klud/mygymlogs/internal/domain"
	"github.com/4klud/mygymlogs/internal/observability"
)

const workoutColumns = "workout_id, user_id, name, started_at, completed_at, created_at, updated_at"

// Repository provides Postgres-backed persistence for workouts, exercises
// and sets. Referential integrity and cascade deletes live in the schema.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListForDate returns the user's workouts started within [start, end],
// hydrated with exercises and sets. All three queries run in one transaction
// so the nested structure reflects a consistent snapshot.
func (r *Repository) ListForDate(ctx context.Context, userID string, start, end time.Time) ([]domain.Workout, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const query = `SELECT ` + workoutColumns + `
        FROM workouts WHERE user_id=$1 AND started_at BETWEEN $2 AND $3
        ORDER BY started_at DESC, workout_id DESC`

	rows, err := tx.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, err
	}

	workouts := make([]domain.Workout, 0)
	for rows.Next() {
		var w domain.Workout
		if err := scanWorkout(rows, &w); err != nil {
			rows.Close()
			return nil, err
		}
		workouts = append(workouts, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := attachChildren(ctx, tx, workouts); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return workouts, nil
}

// Get retrieves one workout by id scoped to its owner; nil when no row
// matches both.
func (r *Repository) Get(ctx context.Context, workoutID, userID string) (*domain.Workout, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const query = `SELECT ` + workoutColumns + `
        FROM workouts WHERE workout_id=$1 AND user_id=$2`

	var w domain.Workout
	if err := scanWorkout(tx.QueryRow(ctx, query, workoutID, userID), &w); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}

	workouts := []domain.Workout{w}
	if err := attachChildren(ctx, tx, workouts); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &workouts[0], nil
}

// Create persists a new workout row.
func (r *Repository) Create(ctx context.Context, workout domain.Workout) error {
	const stmt = `INSERT INTO workouts (workout_id, user_id, name, started_at, completed_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := r.pool.Exec(ctx, stmt,
		workout.ID,
		workout.UserID,
		workout.Name,
		workout.StartedAt,
		workout.CompletedAt,
		workout.CreatedAt,
		workout.UpdatedAt,
	)
	if err != nil {
		return err
	}
	observability.RecordWorkoutPersisted(workout.UpdatedAt)
	observability.RecordWorkoutCreated()
	return nil
}

// Update applies the patch to the owner's workout; nil patch fields keep
// prior values via COALESCE. Returns nil when no row matches id and owner.
func (r *Repository) Update(ctx context.Context, workoutID, userID string, patch domain.WorkoutPatch, updatedAt time.Time) (*domain.Workout, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const stmt = `UPDATE workouts
        SET name = COALESCE($3, name), started_at = COALESCE($4, started_at), updated_at = $5
        WHERE workout_id=$1 AND user_id=$2
        RETURNING ` + workoutColumns

	var w domain.Workout
	if err := scanWorkout(tx.QueryRow(ctx, stmt, workoutID, userID, patch.Name, patch.StartedAt, updatedAt), &w); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}

	workouts := []domain.Workout{w}
	if err := attachChildren(ctx, tx, workouts); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	observability.RecordWorkoutPersisted(updatedAt)
	return &workouts[0], nil
}

// Finish stamps completed_at once; repeated calls keep the original value.
func (r *Repository) Finish(ctx context.Context, workoutID, userID string, completedAt time.Time) (*domain.Workout, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const stmt = `UPDATE workouts
        SET completed_at = COALESCE(completed_at, $3),
            updated_at = CASE WHEN completed_at IS NULL THEN $3 ELSE updated_at END
        WHERE workout_id=$1 AND user_id=$2
        RETURNING ` + workoutColumns

	var w domain.Workout
	if err := scanWorkout(tx.QueryRow(ctx, stmt, workoutID, userID, completedAt), &w); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}

	workouts := []domain.Workout{w}
	if err := attachChildren(ctx, tx, workouts); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &workouts[0], nil
}

// Delete removes the owner's workout; the schema cascades to exercises and
// sets. Returns false when no row matched.
func (r *Repository) Delete(ctx context.Context, workoutID, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workouts WHERE workout_id=$1 AND user_id=$2`, workoutID, userID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	observability.RecordWorkoutDeleted()
	return true, nil
}

// AddExercise inserts an exercise guarded by workout ownership in a single
// statement; a nil position appends after the current highest position.
func (r *Repository) AddExercise(ctx context.Context, userID string, exercise domain.Exercise, position *int) (*domain.Exercise, error) {
	const stmt = `INSERT INTO workout_exercises (exercise_id, workout_id, name, position, created_at)
        SELECT $1, w.workout_id, $4,
               COALESCE($5::int, (SELECT COALESCE(MAX(e.position) + 1, 0) FROM workout_exercises e WHERE e.workout_id = w.workout_id)),
               $6
        FROM workouts w WHERE w.workout_id=$2 AND w.user_id=$3
        RETURNING exercise_id, workout_id, name, position, created_at`

	var out domain.Exercise
	row := r.pool.QueryRow(ctx, stmt, exercise.ID, exercise.WorkoutID, userID, exercise.Name, position, exercise.CreatedAt)
	if err := row.Scan(&out.ID, &out.WorkoutID, &out.Name, &out.Position, &out.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	out.Sets = []domain.Set{}
	return &out, nil
}

// AddSet inserts a set guarded by transitive ownership through the owning
// workout; a nil set number appends after the current highest number.
func (r *Repository) AddSet(ctx context.Context, userID string, set domain.Set, setNumber *int) (*domain.Set, error) {
	const stmt = `INSERT INTO sets (set_id, exercise_id, set_number, reps, weight, created_at)
        SELECT $1, e.exercise_id,
               COALESCE($4::int, (SELECT COALESCE(MAX(s.set_number) + 1, 1) FROM sets s WHERE s.exercise_id = e.exercise_id)),
               $5, $6, $7
        FROM workout_exercises e
        JOIN workouts w ON w.workout_id = e.workout_id
        WHERE e.exercise_id=$2 AND w.user_id=$3
        RETURNING set_id, exercise_id, set_number, reps, weight, created_at`

	var out domain.Set
	row := r.pool.QueryRow(ctx, stmt, set.ID, set.ExerciseID, userID, setNumber, set.Reps, set.Weight, set.CreatedAt)
	if err := row.Scan(&out.ID, &out.ExerciseID, &out.SetNumber, &out.Reps, &out.Weight, &out.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// UpsertUser creates the user row on first sign-in and refreshes the display
// name afterwards. created_at is preserved on conflict.
func (r *Repository) UpsertUser(ctx context.Context, user domain.User) (*domain.User, error) {
	const stmt = `INSERT INTO users (user_id, display_name, created_at, updated_at)
        VALUES ($1,$2,$3,$3)
        ON CONFLICT (user_id) DO UPDATE SET display_name = EXCLUDED.display_name, updated_at = EXCLUDED.updated_at
        RETURNING user_id, display_name, created_at, updated_at`

	var out domain.User
	var displayName *string
	row := r.pool.QueryRow(ctx, stmt, user.ID, nullIfEmpty(user.DisplayName), user.CreatedAt)
	if err := row.Scan(&out.ID, &displayName, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	if displayName != nil {
		out.DisplayName = *displayName
	}
	return &out, nil
}

// attachChildren loads exercises and sets for the given workouts inside the
// caller's transaction, preserving store ordering.
func attachChildren(ctx context.Context, tx pgx.Tx, workouts []domain.Workout) error {
	if len(workouts) == 0 {
		return nil
	}

	workoutIDs := make([]string, 0, len(workouts))
	for i := range workouts {
		workouts[i].Exercises = []domain.Exercise{}
		workoutIDs = append(workoutIDs, workouts[i].ID)
	}

	const exerciseQuery = `SELECT exercise_id, workout_id, name, position, created_at
        FROM workout_exercises WHERE workout_id = ANY($1)
        ORDER BY position ASC, created_at ASC`

	rows, err := tx.Query(ctx, exerciseQuery, workoutIDs)
	if err != nil {
		return err
	}

	exercisesByWorkout := make(map[string][]domain.Exercise)
	exerciseIDs := make([]string, 0)
	for rows.Next() {
		var e domain.Exercise
		if err := rows.Scan(&e.ID, &e.WorkoutID, &e.Name, &e.Position, &e.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		e.Sets = []domain.Set{}
		exercisesByWorkout[e.WorkoutID] = append(exercisesByWorkout[e.WorkoutID], e)
		exerciseIDs = append(exerciseIDs, e.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	setsByExercise := make(map[string][]domain.Set)
	if len(exerciseIDs) > 0 {
		const setQuery = `SELECT set_id, exercise_id, set_number, reps, weight, created_at
            FROM sets WHERE exercise_id = ANY($1)
            ORDER BY set_number ASC, created_at ASC`

		rows, err = tx.Query(ctx, setQuery, exerciseIDs)
		if err != nil {
			return err
		}
		for rows.Next() {
			var s domain.Set
			if err := rows.Scan(&s.ID, &s.ExerciseID, &s.SetNumber, &s.Reps, &s.Weight, &s.CreatedAt); err != nil {
				rows.Close()
				return err
			}
			setsByExercise[s.ExerciseID] = append(setsByExercise[s.ExerciseID], s)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}

	for i := range workouts {
		exercises := exercisesByWorkout[workouts[i].ID]
		for j := range exercises {
			if sets, ok := setsByExercise[exercises[j].ID]; ok {
				exercises[j].Sets = sets
			}
		}
		if exercises != nil {
			workouts[i].Exercises = exercises
		}
	}
	return nil
}

func scanWorkout(row pgx.Row, w *domain.Workout) error {
	return row.Scan(&w.ID, &w.UserID, &w.Name, &w.StartedAt, &w.CompletedAt, &w.CreatedAt, &w.UpdatedAt)
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
