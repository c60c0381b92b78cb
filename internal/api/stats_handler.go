package api

import (
	"errors"
	"net/http"
	"time"

	"joekyx/kyx-gym/internal/repository"
	"joekyx/kyx-gym/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatsHandler exposes the derived-statistics endpoints: streaks,
// personal records and muscle usage.
type StatsHandler struct {
	analyzer    *service.Analyzer
	sessions    *service.SessionService
	workoutRepo repository.WorkoutRepository
	recordRepo  repository.RecordRepository
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(
	analyzer *service.Analyzer,
	sessions *service.SessionService,
	workoutRepo repository.WorkoutRepository,
	recordRepo repository.RecordRepository,
) *StatsHandler {
	return &StatsHandler{
		analyzer:    analyzer,
		sessions:    sessions,
		workoutRepo: workoutRepo,
		recordRepo:  recordRepo,
	}
}

// GetStreaks returns the user's longest and current workout-day streaks.
func (h *StatsHandler) GetStreaks(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	streaks, err := h.analyzer.Streaks(c.Request.Context(), userID, time.Now())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute streaks.")
		return
	}
	c.JSON(http.StatusOK, streaks)
}

// GetMuscleUsage returns how often each muscle was a finished workout's
// main muscle, plus the favorite.
func (h *StatsHandler) GetMuscleUsage(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	usage, err := h.analyzer.MuscleUsage(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute muscle usage.")
		return
	}
	favorite, err := h.analyzer.FavoriteMuscle(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute favorite muscle.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"favoriteMuscle": favorite,
		"usage":          usage,
	})
}

// GetRecords returns the user's all-time personal records.
func (h *StatsHandler) GetRecords(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	records, err := h.recordRepo.GetByUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load records.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetItemRecords annotates one active-workout item with its best sets
// and whether those beat the user's all-time records.
func (h *StatsHandler) GetItemRecords(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid item ID format.")
		return
	}

	session, err := h.sessions.Resume(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "No active workout.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load active workout.")
		}
		return
	}
	item := session.Workout().ItemByID(itemID)
	if item == nil {
		abortWithError(c, http.StatusNotFound, "Workout item not found.")
		return
	}

	flags, err := h.analyzer.DetectItemRecords(c.Request.Context(), userID, item)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to detect records.")
		return
	}
	c.JSON(http.StatusOK, flags)
}

// GetWorkoutHistory returns the user's finished workouts, newest first.
func (h *StatsHandler) GetWorkoutHistory(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	workouts, err := h.workoutRepo.GetFinishedByUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load workout history.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"workouts": workouts})
}
