// Package api exposes HTTP handlers for the workout service.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/4klud/mygymlogs/internal/auth"
	"github.com/4klud/mygymlogs/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/workouts", h.workouts)
	mux.HandleFunc("/v1/workouts/", h.workoutSubtree)
	mux.HandleFunc("/v1/exercises/", h.exerciseSubtree)
	mux.HandleFunc("/v1/users/sync", h.syncUser)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) workouts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createWorkout(w, r)
	case http.MethodGet:
		h.listWorkouts(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) workoutSubtree(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/workouts/"), "/")
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing workout id")
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.getWorkout(w, r, id)
		case http.MethodPatch:
			h.updateWorkout(w, r, id)
		case http.MethodDelete:
			h.deleteWorkout(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		}
	case len(parts) == 2 && parts[1] == "finish" && r.Method == http.MethodPost:
		h.finishWorkout(w, r, id)
	case len(parts) == 2 && parts[1] == "exercises" && r.Method == http.MethodPost:
		h.addExercise(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
	}
}

func (h *Handler) exerciseSubtree(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/exercises/"), "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] == "sets" && r.Method == http.MethodPost {
		h.addSet(w, r, parts[0])
		return
	}
	writeError(w, http.StatusNotFound, "not_found", "unknown resource")
}

func (h *Handler) createWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	var req CreateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	workout, err := h.service.CreateWorkout(r.Context(), domain.CreateWorkoutInput{
		UserID:    claims.Subject,
		Name:      req.Name,
		StartedAt: req.StartedAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkoutView(*workout))
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsRead, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeFieldViolation(w, "date", "is required")
		return
	}
	date, err := parseDate(raw)
	if err != nil {
		writeFieldViolation(w, "date", "must be a calendar date or RFC 3339 timestamp")
		return
	}

	workouts, err := h.service.ListWorkoutsForDate(r.Context(), claims.Subject, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]WorkoutView, 0, len(workouts))
	for _, workout := range workouts {
		items = append(items, toWorkoutView(workout))
	}
	writeJSON(w, http.StatusOK, ListWorkoutsResponse{Items: items})
}

func (h *Handler) getWorkout(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsRead, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	workout, err := h.service.GetWorkout(r.Context(), id, claims.Subject)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkoutView(*workout))
}

func (h *Handler) updateWorkout(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	var req UpdateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	workout, err := h.service.UpdateWorkout(r.Context(), id, claims.Subject, domain.WorkoutPatch{
		Name:      req.Name,
		StartedAt: req.StartedAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkoutView(*workout))
}

func (h *Handler) deleteWorkout(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	if err := h.service.DeleteWorkout(r.Context(), id, claims.Subject); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) finishWorkout(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	workout, err := h.service.FinishWorkout(r.Context(), id, claims.Subject)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkoutView(*workout))
}

func (h *Handler) addExercise(w http.ResponseWriter, r *http.Request, workoutID string) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	var req AddExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	exercise, err := h.service.AddExercise(r.Context(), workoutID, claims.Subject, domain.AddExerciseInput{
		Name:     req.Name,
		Position: req.Position,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExerciseView(*exercise))
}

func (h *Handler) addSet(w http.ResponseWriter, r *http.Request, exerciseID string) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	var req AddSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	set, err := h.service.AddSet(r.Context(), exerciseID, claims.Subject, domain.AddSetInput{
		SetNumber: req.SetNumber,
		Reps:      req.Reps,
		Weight:    req.Weight,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSetView(*set))
}

func (h *Handler) syncUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	var req SyncUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	user, err := h.service.SyncUser(r.Context(), claims.Subject, req.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserView{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	})
}

// requireScope refuses the request before any store access when claims are
// missing or lack every accepted scope.
func requireScope(w http.ResponseWriter, r *http.Request, accepted ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range accepted {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+strings.Join(accepted, " or ")+" required")
	return nil, false
}

// parseDate accepts a plain calendar date or a full timestamp; only the UTC
// calendar date is significant downstream.
func parseDate(raw string) (time.Time, error) {
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// CreateWorkoutRequest is the payload for POST /v1/workouts.
type CreateWorkoutRequest struct {
	Name      string    `json:"name"`
	StartedAt time.Time `json:"started_at"`
}

// UpdateWorkoutRequest is the patch payload; absent fields stay unchanged.
type UpdateWorkoutRequest struct {
	Name      *string    `json:"name,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// AddExerciseRequest is the payload for POST /v1/workouts/{id}/exercises.
type AddExerciseRequest struct {
	Name     string `json:"name"`
	Position *int   `json:"position,omitempty"`
}

// AddSetRequest is the payload for POST /v1/exercises/{id}/sets.
type AddSetRequest struct {
	SetNumber *int     `json:"set_number,omitempty"`
	Reps      int      `json:"reps"`
	Weight    *float64 `json:"weight,omitempty"`
}

// SyncUserRequest is the payload for POST /v1/users/sync.
type SyncUserRequest struct {
	DisplayName string `json:"display_name"`
}

// WorkoutView exposes a workout with its nested exercises and sets.
type WorkoutView struct {
	WorkoutID   string         `json:"workout_id"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Exercises   []ExerciseView `json:"exercises"`
}

// ExerciseView exposes an exercise with its sets.
type ExerciseView struct {
	ExerciseID string    `json:"exercise_id"`
	WorkoutID  string    `json:"workout_id"`
	Name       string    `json:"name"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	Sets       []SetView `json:"sets"`
}

// SetView exposes a single set.
type SetView struct {
	SetID      string    `json:"set_id"`
	ExerciseID string    `json:"exercise_id"`
	SetNumber  int       `json:"set_number"`
	Reps       int       `json:"reps"`
	Weight     *float64  `json:"weight,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserView exposes the synced user row.
type UserView struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListWorkoutsResponse packages day-listing results.
type ListWorkoutsResponse struct {
	Items []WorkoutView `json:"items"`
}

func toWorkoutView(workout domain.Workout) WorkoutView {
	exercises := make([]ExerciseView, 0, len(workout.Exercises))
	for _, exercise := range workout.Exercises {
		exercises = append(exercises, toExerciseView(exercise))
	}
	return WorkoutView{
		WorkoutID:   workout.ID,
		UserID:      workout.UserID,
		Name:        workout.Name,
		StartedAt:   workout.StartedAt,
		CompletedAt: workout.CompletedAt,
		CreatedAt:   workout.CreatedAt,
		UpdatedAt:   workout.UpdatedAt,
		Exercises:   exercises,
	}
}

func toExerciseView(exercise domain.Exercise) ExerciseView {
	sets := make([]SetView, 0, len(exercise.Sets))
	for _, set := range exercise.Sets {
		sets = append(sets, toSetView(set))
	}
	return ExerciseView{
		ExerciseID: exercise.ID,
		WorkoutID:  exercise.WorkoutID,
		Name:       exercise.Name,
		Position:   exercise.Position,
		CreatedAt:  exercise.CreatedAt,
		Sets:       sets,
	}
}

func toSetView(set domain.Set) SetView {
	return SetView{
		SetID:      set.ID,
		ExerciseID: set.ExerciseID,
		SetNumber:  set.SetNumber,
		Reps:       set.Reps,
		Weight:     set.Weight,
		CreatedAt:  set.CreatedAt,
	}
}

// writeServiceError maps domain errors onto the HTTP error taxonomy. Store
// failures are logged but never echoed to the caller.
func writeServiceError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Type:       "validation_failed",
			Detail:     "one or more fields are invalid",
			Violations: validation.Violations,
		})
	case errors.Is(err, domain.ErrWorkoutNotFound):
		writeError(w, http.StatusNotFound, "not_found", "workout not found")
	case errors.Is(err, domain.ErrExerciseNotFound):
		writeError(w, http.StatusNotFound, "not_found", "exercise not found")
	default:
		log.Printf("store failure: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error", "unexpected error")
	}
}

// ValidationErrorResponse reports field-level violations.
type ValidationErrorResponse struct {
	Type       string                  `json:"type"`
	Detail     string                  `json:"detail"`
	Violations []domain.FieldViolation `json:"violations"`
}

// writeFieldViolation reports a single request-level field violation in the
// same shape the domain validation produces.
func writeFieldViolation(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Type:       "validation_failed",
		Detail:     "one or more fields are invalid",
		Violations: []domain.FieldViolation{{Field: field, Message: message}},
	})
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
