package api

import (
	"errors"
	"net/http"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/repository"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateHandler serves workout blueprints.
type TemplateHandler struct {
	templateRepo repository.TemplateRepository
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateRepo repository.TemplateRepository) *TemplateHandler {
	return &TemplateHandler{templateRepo: templateRepo}
}

// CreateTemplateRequest defines the expected JSON for a new template.
type CreateTemplateRequest struct {
	Name       string                      `json:"name" binding:"required"`
	MainMuscle string                      `json:"mainMuscle"`
	Items      []CreateTemplateItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateTemplateItemRequest places one exercise within the blueprint.
type CreateTemplateItemRequest struct {
	ExerciseID   string `json:"exerciseId" binding:"required"`
	Position     int    `json:"position" binding:"required,min=1"`
	AmountOfSets int    `json:"amountOfSets"`
}

// ListTemplates returns the user's templates.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	templates, err := h.templateRepo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list templates.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// GetTemplate returns one template.
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	templateID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid template ID format.")
		return
	}

	template, err := h.templateRepo.GetByID(c.Request.Context(), templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Template not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load template.")
		}
		return
	}
	if template.UserID != userID {
		abortWithError(c, http.StatusNotFound, "Template not found.")
		return
	}
	c.JSON(http.StatusOK, template)
}

// CreateTemplate stores a new blueprint.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	template := &domain.Template{
		UserID:     userID,
		Name:       req.Name,
		MainMuscle: req.MainMuscle,
	}
	for _, item := range req.Items {
		exerciseID, err := primitive.ObjectIDFromHex(item.ExerciseID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
			return
		}
		template.Items = append(template.Items, domain.TemplateItem{
			ExerciseID:   exerciseID,
			Position:     item.Position,
			AmountOfSets: item.AmountOfSets,
		})
	}

	templateID, err := h.templateRepo.Create(c.Request.Context(), template)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create template.")
		return
	}
	template.ID = templateID
	c.JSON(http.StatusCreated, template)
}
