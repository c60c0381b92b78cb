package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionService hands out WorkoutSession objects, one per user. It is
// the one place enforcing "at most one active workout per user": the
// aggregate itself stays permissive and a Start call fails when an
// active workout already exists, so the caller can prompt to continue
// or delete it.
//
// The registry map is shared across request goroutines, so it carries
// a mutex. The sessions themselves stay unsynchronized: each belongs
// to one user and mutations within it are last-write-wins.
type SessionService struct {
	workoutRepo  repository.WorkoutRepository
	itemRepo     repository.WorkoutItemRepository
	setRepo      repository.SetRepository
	exerciseRepo repository.ExerciseRepository
	recordRepo   repository.RecordRepository
	materializer *Materializer
	defaultSets  int

	mu       sync.Mutex
	sessions map[string]*WorkoutSession
}

// NewSessionService creates the session service.
func NewSessionService(
	workoutRepo repository.WorkoutRepository,
	itemRepo repository.WorkoutItemRepository,
	setRepo repository.SetRepository,
	exerciseRepo repository.ExerciseRepository,
	recordRepo repository.RecordRepository,
	materializer *Materializer,
	defaultSets int,
) *SessionService {
	if defaultSets <= 0 {
		defaultSets = DefaultSetsPerExercise
	}
	return &SessionService{
		workoutRepo:  workoutRepo,
		itemRepo:     itemRepo,
		setRepo:      setRepo,
		exerciseRepo: exerciseRepo,
		recordRepo:   recordRepo,
		materializer: materializer,
		defaultSets:  defaultSets,
		sessions:     make(map[string]*WorkoutSession),
	}
}

// StartBlank materializes an empty workout and opens a session on it.
func (s *SessionService) StartBlank(ctx context.Context, userID string) (*WorkoutSession, error) {
	if err := s.ensureNoActiveWorkout(ctx, userID); err != nil {
		return nil, err
	}
	workout, err := s.materializer.Blank(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.open(userID, workout), nil
}

// StartFromTemplate materializes a template and opens a session on the
// resulting workout.
func (s *SessionService) StartFromTemplate(ctx context.Context, userID string, templateID primitive.ObjectID) (*WorkoutSession, error) {
	if err := s.ensureNoActiveWorkout(ctx, userID); err != nil {
		return nil, err
	}
	workout, err := s.materializer.FromTemplate(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}
	return s.open(userID, workout), nil
}

// Resume loads the user's active workout from the store, rebuilds the
// aggregate (items, sets, exercise detail, previous-set hints) and
// opens a session on it.
func (s *SessionService) Resume(ctx context.Context, userID string) (*WorkoutSession, error) {
	if session, ok := s.Session(userID); ok && session.workout.IsActive() {
		return session, nil
	}

	workout, err := s.workoutRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: no active workout", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load active workout: %v", ErrPersistence, err)
	}
	if err := s.hydrate(ctx, workout); err != nil {
		return nil, err
	}
	return s.open(userID, workout), nil
}

// Session returns the open session of a user, if any.
func (s *SessionService) Session(userID string) (*WorkoutSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	return session, ok
}

// Close drops the in-memory session. The durable workout is untouched.
func (s *SessionService) Close(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// RateWorkout stores a 1-5 rating on a finished workout. Rating is not
// a status transition; finished stays terminal.
func (s *SessionService) RateWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID, rating int) Result {
	if rating < 1 || rating > 5 {
		return failValidation("rating must be between 1 and 5")
	}
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return failNotFound("workout not found")
		}
		return failPersistence("failed to load workout", err)
	}
	if workout.UserID != userID {
		return failNotFound("workout not found")
	}
	if workout.Status != domain.StatusFinished {
		return failValidation("only finished workouts can be rated")
	}
	if err := s.workoutRepo.Update(ctx, workoutID, repository.WorkoutUpdate{Rating: &rating}); err != nil {
		return failPersistence("failed to persist rating", err)
	}
	return okResult("workout rated")
}

// CreateExerciseResult carries the new exercise back to the caller.
type CreateExerciseResult struct {
	Result
	Exercise *domain.Exercise `json:"exercise,omitempty"`
}

// CreateNewExercise inserts a new exercise definition plus its muscle
// associations and makes it available to AddExercises. When the muscle
// link insert fails after the exercise insert succeeded, the operation
// is reported as failed even though the exercise now exists; there is
// no compensating delete.
func (s *SessionService) CreateNewExercise(ctx context.Context, userID string, exercise *domain.Exercise, muscleIDs []primitive.ObjectID) CreateExerciseResult {
	if exercise == nil || exercise.Name == "" {
		return CreateExerciseResult{Result: failValidation("exercise name is required")}
	}
	exercise.OwnerID = userID

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return CreateExerciseResult{Result: failPersistence("failed to create exercise", err)}
	}
	exercise.ID = exerciseID

	if err := s.exerciseRepo.LinkMuscles(ctx, exerciseID, muscleIDs); err != nil {
		return CreateExerciseResult{
			Result:   failPersistence("exercise created but muscle links failed", err),
			Exercise: exercise,
		}
	}
	return CreateExerciseResult{Result: okResult("exercise created"), Exercise: exercise}
}

func (s *SessionService) open(userID string, workout *domain.Workout) *WorkoutSession {
	session := NewWorkoutSession(
		userID, workout, s.defaultSets,
		s.workoutRepo, s.itemRepo, s.setRepo, s.exerciseRepo, s.recordRepo,
	)
	s.mu.Lock()
	s.sessions[userID] = session
	s.mu.Unlock()
	return session
}

func (s *SessionService) ensureNoActiveWorkout(ctx context.Context, userID string) error {
	_, err := s.workoutRepo.GetActiveByUser(ctx, userID)
	if err == nil {
		return ErrActiveWorkoutExists
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("%w: check active workout: %v", ErrPersistence, err)
}

// hydrate rebuilds the in-memory aggregate of a stored workout.
func (s *SessionService) hydrate(ctx context.Context, workout *domain.Workout) error {
	items, err := s.itemRepo.GetByWorkoutID(ctx, workout.ID)
	if err != nil {
		return fmt.Errorf("%w: load workout items: %v", ErrPersistence, err)
	}
	sets, err := s.setRepo.GetByWorkoutID(ctx, workout.ID)
	if err != nil {
		return fmt.Errorf("%w: load sets: %v", ErrPersistence, err)
	}

	setsByItem := make(map[primitive.ObjectID][]*domain.Set, len(items))
	for _, set := range sets {
		setsByItem[set.WorkoutItemID] = append(setsByItem[set.WorkoutItemID], set)
	}

	exerciseIDs := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		exerciseIDs = append(exerciseIDs, item.ExerciseID)
	}
	exercises, err := s.exerciseRepo.GetByIDs(ctx, exerciseIDs)
	if err != nil {
		return fmt.Errorf("%w: load exercises: %v", ErrPersistence, err)
	}
	exerciseByID := make(map[primitive.ObjectID]*domain.Exercise, len(exercises))
	for _, ex := range exercises {
		exerciseByID[ex.ID] = ex
	}

	for _, item := range items {
		item.Sets = setsByItem[item.ID]
		item.Exercise = exerciseByID[item.ExerciseID]
	}
	workout.Items = items

	if err := s.materializer.EnrichPreviousSets(ctx, workout.UserID, items); err != nil {
		return fmt.Errorf("%w: previous set lookup: %v", ErrPersistence, err)
	}
	return nil
}
