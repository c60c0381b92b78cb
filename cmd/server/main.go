package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"joekyx/kyx-gym/internal/api"
	"joekyx/kyx-gym/internal/config"
	"joekyx/kyx-gym/internal/repository/mongo"
	"joekyx/kyx-gym/internal/service"
	"joekyx/kyx-gym/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	setupLogging(cfg.Logging)
	log.Info("starting kyx gym server ...")

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Info("disconnecting MongoDB ...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("database connection established")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureWorkoutIndexes(ctx, appDB.Collection("workouts"))
		mongo.EnsureWorkoutItemIndexes(ctx, appDB.Collection("workout_items"))
		mongo.EnsureSetIndexes(ctx, appDB.Collection("sets"))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises"))
		mongo.EnsureTemplateIndexes(ctx, appDB.Collection("templates"))
		mongo.EnsureRecordIndexes(ctx, appDB.Collection("records"))
		log.Info("index creation process completed")
	}()

	media, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("failed to initialize media storage: %v", err)
	}

	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	itemRepo := mongo.NewMongoWorkoutItemRepository(appDB)
	setRepo := mongo.NewMongoSetRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	recordRepo := mongo.NewMongoRecordRepository(appDB)

	materializer := service.NewMaterializer(
		workoutRepo, itemRepo, setRepo, exerciseRepo, templateRepo,
		cfg.Workout.DefaultSets,
	)
	sessions := service.NewSessionService(
		workoutRepo, itemRepo, setRepo, exerciseRepo, recordRepo,
		materializer, cfg.Workout.DefaultSets,
	)
	analyzer := service.NewAnalyzer(workoutRepo, recordRepo)

	router := gin.Default()
	api.SetupRoutes(
		router, cfg.JWT.Secret,
		sessions, analyzer,
		workoutRepo, recordRepo, exerciseRepo, templateRepo,
		media,
	)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("server starting on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server ...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Info("server exiting")
}

func setupLogging(cfg config.LoggingConfig) {
	if cfg.FormatJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
}
