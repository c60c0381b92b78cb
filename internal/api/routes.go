package api

import (
	"net/http"

	"joekyx/kyx-gym/internal/repository"
	"joekyx/kyx-gym/internal/service"
	"joekyx/kyx-gym/internal/storage"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all handlers onto the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	sessions *service.SessionService,
	analyzer *service.Analyzer,
	workoutRepo repository.WorkoutRepository,
	recordRepo repository.RecordRepository,
	exerciseRepo repository.ExerciseRepository,
	templateRepo repository.TemplateRepository,
	media storage.MediaStorage,
) {
	sessionHandler := NewSessionHandler(sessions)
	statsHandler := NewStatsHandler(analyzer, sessions, workoutRepo, recordRepo)
	exerciseHandler := NewExerciseHandler(exerciseRepo, sessions, media)
	templateHandler := NewTemplateHandler(templateRepo)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.Use(AuthMiddleware(jwtSecret))
	{
		workouts := apiV1.Group("/workouts")
		{
			workouts.POST("", sessionHandler.StartWorkout)
			workouts.GET("/active", sessionHandler.GetActiveWorkout)
			workouts.DELETE("/active", sessionHandler.DeleteWorkout)
			workouts.POST("/active/finish", sessionHandler.FinishWorkout)
			workouts.PATCH("/active/name", sessionHandler.RenameWorkout)
			workouts.POST("/active/exercises", sessionHandler.AddExercises)
			workouts.POST("/active/items/:itemId/sets", sessionHandler.AddSet)
			workouts.DELETE("/active/items/:itemId", sessionHandler.DeleteWorkoutItem)
			workouts.GET("/active/items/:itemId/records", statsHandler.GetItemRecords)
			workouts.PUT("/active/sets/:setId", sessionHandler.UpdateSet)
			workouts.DELETE("/active/sets/:setId", sessionHandler.DeleteSet)
			workouts.POST("/finished/:workoutId/rating", sessionHandler.RateWorkout)
			workouts.GET("/history", statsHandler.GetWorkoutHistory)
		}

		stats := apiV1.Group("/stats")
		{
			stats.GET("/streaks", statsHandler.GetStreaks)
			stats.GET("/muscle-usage", statsHandler.GetMuscleUsage)
			stats.GET("/records", statsHandler.GetRecords)
		}

		exercises := apiV1.Group("/exercises")
		{
			exercises.GET("", exerciseHandler.ListExercises)
			exercises.POST("", exerciseHandler.CreateExercise)
			exercises.POST("/:id/image", exerciseHandler.RequestImageUploadURL)
			exercises.GET("/:id/image", exerciseHandler.GetImageDownloadURL)
		}

		templates := apiV1.Group("/templates")
		{
			templates.GET("", templateHandler.ListTemplates)
			templates.GET("/:id", templateHandler.GetTemplate)
			templates.POST("", templateHandler.CreateTemplate)
		}
	}
}
