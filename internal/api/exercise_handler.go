package api

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/repository"
	"joekyx/kyx-gym/internal/service"
	"joekyx/kyx-gym/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler serves the exercise library and its image media.
type ExerciseHandler struct {
	exerciseRepo repository.ExerciseRepository
	sessions     *service.SessionService
	media        storage.MediaStorage
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(
	exerciseRepo repository.ExerciseRepository,
	sessions *service.SessionService,
	media storage.MediaStorage,
) *ExerciseHandler {
	return &ExerciseHandler{
		exerciseRepo: exerciseRepo,
		sessions:     sessions,
		media:        media,
	}
}

// CreateExerciseRequest defines the expected JSON for a new exercise.
type CreateExerciseRequest struct {
	Name      string              `json:"name" binding:"required"`
	Type      domain.ExerciseType `json:"type" binding:"omitempty,oneof=weight speed time other"`
	Category  string              `json:"category"`
	MuscleIDs []string            `json:"muscleIds"`
}

// ImageUploadResponse returns the presigned URL plus the key the client
// reports back after uploading.
type ImageUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// ListExercises returns the built-in library plus the user's own
// exercises.
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	exercises, err := h.exerciseRepo.List(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list exercises.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"exercises": exercises})
}

// CreateExercise inserts a new user-owned exercise plus its muscle
// links. A partial failure (exercise inserted, links missing) still
// surfaces as a failed operation.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	muscleIDs, err := parseObjectIDs(req.MuscleIDs)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid muscle ID format.")
		return
	}

	result := h.sessions.CreateNewExercise(c.Request.Context(), userID, &domain.Exercise{
		Name:     req.Name,
		Type:     req.Type,
		Category: req.Category,
	}, muscleIDs)
	respondResult(c, result.Result, http.StatusCreated, result)
}

// RequestImageUploadURL generates a presigned PUT URL for an exercise
// image. The image bytes never pass through this service.
func (h *ExerciseHandler) RequestImageUploadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}
	contentType := c.Query("contentType")
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		abortWithError(c, http.StatusBadRequest, "Invalid or missing image content type.")
		return
	}

	exercise, err := h.exerciseRepo.GetByID(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Exercise not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load exercise.")
		}
		return
	}
	if exercise.OwnerID != "" && exercise.OwnerID != userID {
		abortWithError(c, http.StatusForbidden, "Exercise belongs to another user.")
		return
	}

	fileExtension := ""
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("exercise-images", exerciseID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), fileExtension))

	uploadURL, err := h.media.GeneratePresignedUploadURL(c.Request.Context(), objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL.")
		return
	}
	if err := h.exerciseRepo.SetImageKey(c.Request.Context(), exerciseID, objectKey); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to store image key.")
		return
	}

	c.JSON(http.StatusOK, ImageUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// GetImageDownloadURL generates a presigned GET URL for an exercise
// image.
func (h *ExerciseHandler) GetImageDownloadURL(c *gin.Context) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	exercise, err := h.exerciseRepo.GetByID(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Exercise not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load exercise.")
		}
		return
	}
	if exercise.ImageKey == "" {
		abortWithError(c, http.StatusNotFound, "Exercise has no image.")
		return
	}

	downloadURL, err := h.media.GeneratePresignedDownloadURL(c.Request.Context(), exercise.ImageKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": downloadURL})
}
