package api

import (
	"errors"
	"net/http"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler exposes the workout session store over HTTP. Every
// mutation returns the uniform {success, message} result shape.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// --- DTOs ---

// StartWorkoutRequest optionally names a template to materialize.
type StartWorkoutRequest struct {
	TemplateID string `json:"templateId"`
}

// AddExercisesRequest lists the exercises to append to the workout.
type AddExercisesRequest struct {
	ExerciseIDs []string `json:"exerciseIds" binding:"required,min=1"`
}

// UpdateSetRequest carries the editable fields of a set.
type UpdateSetRequest struct {
	Position   int            `json:"position"`
	Type       domain.SetType `json:"type"`
	Weight     *float64       `json:"weight"`
	Reps       *int           `json:"reps"`
	Distance   *float64       `json:"distance"`
	Speed      *float64       `json:"speed"`
	IsFinished bool           `json:"isFinished"`
}

// RenameWorkoutRequest carries the new workout name.
type RenameWorkoutRequest struct {
	Name string `json:"name" binding:"required"`
}

// FinishWorkoutRequest allows forcing the finish past unfinished sets.
type FinishWorkoutRequest struct {
	Force bool `json:"force"`
}

// RateWorkoutRequest carries a 1-5 rating for a finished workout.
type RateWorkoutRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// respondResult maps a mutation result to an HTTP response.
func respondResult(c *gin.Context, result service.Result, okCode int, body interface{}) {
	if result.Success {
		c.JSON(okCode, body)
		return
	}
	switch {
	case errors.Is(result.Err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(result.Err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}

// --- Handlers ---

// StartWorkout materializes a blank workout, or one from a template,
// and opens a session on it. Fails with 409 when the user already has
// an active workout.
func (h *SessionHandler) StartWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req StartWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	var session *service.WorkoutSession
	if req.TemplateID == "" {
		session, err = h.sessions.StartBlank(c.Request.Context(), userID)
	} else {
		templateID, idErr := primitive.ObjectIDFromHex(req.TemplateID)
		if idErr != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid template ID format.")
			return
		}
		session, err = h.sessions.StartFromTemplate(c.Request.Context(), userID, templateID)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrActiveWorkoutExists):
			abortWithError(c, http.StatusConflict, "An active workout already exists. Continue or delete it first.")
		case errors.Is(err, service.ErrNotFound):
			abortWithError(c, http.StatusNotFound, "Template not found.")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to start workout.")
		}
		return
	}

	c.JSON(http.StatusCreated, session.Workout())
}

// GetActiveWorkout resumes (or returns) the user's active session.
func (h *SessionHandler) GetActiveWorkout(c *gin.Context) {
	session, ok := h.resumeSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Workout())
}

// AddExercises appends exercises to the active workout.
func (h *SessionHandler) AddExercises(c *gin.Context) {
	session, ok := h.resumeSession(c)
	if !ok {
		return
	}

	var req AddExercisesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	exerciseIDs, err := parseObjectIDs(req.ExerciseIDs)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	result := session.AddExercises(c.Request.Context(), exerciseIDs)
	respondResult(c, result.Result, http.StatusCreated, result)
}

// AddSet appends one blank set to a workout item.
func (h *SessionHandler) AddSet(c *gin.Context) {
	session, ok := h.resumeSession(c)
	if !ok {
		return
	}
	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid item ID format.")
		return
	}

	result := session.AddSet(c.Request.Context(), itemID)
	respondResult(c, result.Result, http.StatusCreated, result)
}

// UpdateSet replaces a set's editable fields.
func (h *SessionHandler) UpdateSet(c *gin.Context) {
	session, ok := h.resumeSession(c)
	if !ok {
		return
	}
	setID, err := primitive.ObjectIDFromHex(c.Param("setId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid set ID format.")
		return
	}

	var req UpdateSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result := session.UpdateSet(c.Request.Context(), &domain.Set{
		ID:         setID,
		Position:   req.Position,
		Type:       req.Type,
		Weight:     req.Weight,
		Reps:       req.Reps,
		Distance:   req.Distance,
		Speed:      req.Speed,
		IsFinished: req.IsFinished,
	})
	respondResult(c, result, http.StatusOK, result)
}

// DeleteSet removes a set; the owning item cascades away with its last
// set.
func (h *SessionHandler) DeleteSet(c *gin.Context) {
	session, ok := h.resumeSession(c)
	if !ok {
		return
	}
	setID, err := primitive.ObjectIDFromHex(c.Param("setId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid set ID format.")
		return
	}

	result := session.DeleteSet(c.Request.Context(), setID)
	respondResult(c, result.Result, http.StatusOK, result)
}

// DeleteWorkoutItem removes an item with all its sets.
func (h *SessionHandler) DeleteWorkoutItem(c *gin.Context) {
	session, ok := h.resumeSession(c)
	if !ok {
		return
	}
	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid item ID format.")
		return
	}

	result := session.DeleteWorkoutItem(c.Request.Context(), itemID)
	respondResult(c, result, http.StatusOK, result)
}

// RenameWorkout updates the workout name.
func (h *SessionHandler) RenameWorkout(c *gin.Context) {
	session, ok := h.resumeSession(c)
	if !ok {
		return
	}
	var req RenameWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result := session.UpdateWorkoutName(c.Request.Context(), req.Name)
	respondResult(c, result, http.StatusOK, result)
}

// FinishWorkout closes the active workout. Unless forced, unfinished
// sets make this a 409 so the client can run its confirmation step.
func (h *SessionHandler) FinishWorkout(c *gin.Context) {
	session, ok := h.resumeSession(c)
	if !ok {
		return
	}
	var req FinishWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if !req.Force && !session.Workout().AllSetsFinished() {
		abortWithError(c, http.StatusConflict, "Workout has unfinished sets. Finish them or force.")
		return
	}

	userID, _ := getUserIDFromContext(c)
	result := session.FinishWorkout(c.Request.Context())
	if result.Success {
		h.sessions.Close(userID)
	}
	respondResult(c, result, http.StatusOK, result)
}

// DeleteWorkout abandons the active workout entirely.
func (h *SessionHandler) DeleteWorkout(c *gin.Context) {
	session, ok := h.resumeSession(c)
	if !ok {
		return
	}
	userID, _ := getUserIDFromContext(c)

	result := session.DeleteWorkout(c.Request.Context())
	if result.Success {
		h.sessions.Close(userID)
	}
	respondResult(c, result, http.StatusOK, result)
}

// RateWorkout stores a rating on an already finished workout.
func (h *SessionHandler) RateWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format.")
		return
	}
	var req RateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result := h.sessions.RateWorkout(c.Request.Context(), userID, workoutID, req.Rating)
	respondResult(c, result, http.StatusOK, result)
}

// resumeSession loads the caller's active session or responds with the
// appropriate error.
func (h *SessionHandler) resumeSession(c *gin.Context) (*service.WorkoutSession, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return nil, false
	}

	session, err := h.sessions.Resume(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "No active workout.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load active workout.")
		}
		return nil, false
	}
	return session, true
}

func parseObjectIDs(hexIDs []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, hexID := range hexIDs {
		id, err := primitive.ObjectIDFromHex(hexID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
