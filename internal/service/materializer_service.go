package service

import (
	"context"
	"fmt"
	"time"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultWorkoutName names a blank workout.
const DefaultWorkoutName = "New Workout"

// Materializer expands a blank request or a Template into a concrete
// Workout aggregate and enriches the newly created sets with
// previous-set hints before the session store takes over.
type Materializer struct {
	workoutRepo  repository.WorkoutRepository
	itemRepo     repository.WorkoutItemRepository
	setRepo      repository.SetRepository
	exerciseRepo repository.ExerciseRepository
	templateRepo repository.TemplateRepository
	defaultSets  int
}

// NewMaterializer creates a new Materializer.
func NewMaterializer(
	workoutRepo repository.WorkoutRepository,
	itemRepo repository.WorkoutItemRepository,
	setRepo repository.SetRepository,
	exerciseRepo repository.ExerciseRepository,
	templateRepo repository.TemplateRepository,
	defaultSets int,
) *Materializer {
	if defaultSets <= 0 {
		defaultSets = DefaultSetsPerExercise
	}
	return &Materializer{
		workoutRepo:  workoutRepo,
		itemRepo:     itemRepo,
		setRepo:      setRepo,
		exerciseRepo: exerciseRepo,
		templateRepo: templateRepo,
		defaultSets:  defaultSets,
	}
}

// Blank creates an empty active workout with the default name.
func (m *Materializer) Blank(ctx context.Context, userID string) (*domain.Workout, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrValidation)
	}
	workout := &domain.Workout{
		UserID:    userID,
		Name:      DefaultWorkoutName,
		Status:    domain.StatusActive,
		CreatedAt: time.Now().UTC(),
		Items:     []*domain.WorkoutItem{},
	}
	id, err := m.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, fmt.Errorf("%w: create workout: %v", ErrPersistence, err)
	}
	workout.ID = id
	return workout, nil
}

// FromTemplate materializes a template into a concrete workout: one
// item per template item at its stored position, each with the
// template-specified amount of blank sets, previous-set hints attached.
func (m *Materializer) FromTemplate(ctx context.Context, userID string, templateID primitive.ObjectID) (*domain.Workout, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrValidation)
	}
	template, err := m.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("%w: template: %v", ErrNotFound, err)
	}

	now := time.Now().UTC()
	workout := &domain.Workout{
		UserID:     userID,
		Name:       fmt.Sprintf("%s - %s", template.Name, now.Format("2006-01-02")),
		Status:     domain.StatusActive,
		MainMuscle: template.MainMuscle,
		CreatedAt:  now,
	}
	workoutID, err := m.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, fmt.Errorf("%w: create workout: %v", ErrPersistence, err)
	}
	workout.ID = workoutID

	exerciseIDs := make([]primitive.ObjectID, 0, len(template.Items))
	for _, templateItem := range template.Items {
		exerciseIDs = append(exerciseIDs, templateItem.ExerciseID)
	}
	exercises, err := m.exerciseRepo.GetByIDs(ctx, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: load exercises: %v", ErrPersistence, err)
	}
	exerciseByID := make(map[primitive.ObjectID]*domain.Exercise, len(exercises))
	for _, ex := range exercises {
		exerciseByID[ex.ID] = ex
	}

	var allSets []*domain.Set
	for _, templateItem := range template.Items {
		item := &domain.WorkoutItem{
			ID:         primitive.NewObjectID(),
			WorkoutID:  workoutID,
			UserID:     userID,
			ExerciseID: templateItem.ExerciseID,
			Position:   templateItem.Position,
			Exercise:   exerciseByID[templateItem.ExerciseID],
		}
		amount := templateItem.AmountOfSets
		if amount <= 0 {
			amount = m.defaultSets
		}
		for setPos := 1; setPos <= amount; setPos++ {
			item.Sets = append(item.Sets, &domain.Set{
				ID:            primitive.NewObjectID(),
				WorkoutItemID: item.ID,
				WorkoutID:     workoutID,
				ExerciseID:    templateItem.ExerciseID,
				UserID:        userID,
				Position:      setPos,
				Type:          domain.SetTypeNormal,
			})
		}
		workout.Items = append(workout.Items, item)
		allSets = append(allSets, item.Sets...)
	}

	if err := m.itemRepo.CreateMany(ctx, workout.Items); err != nil {
		return nil, fmt.Errorf("%w: create workout items: %v", ErrPersistence, err)
	}
	if err := m.setRepo.CreateMany(ctx, allSets); err != nil {
		return nil, fmt.Errorf("%w: create sets: %v", ErrPersistence, err)
	}

	if err := m.EnrichPreviousSets(ctx, userID, workout.Items); err != nil {
		// display hint only, the workout itself is complete
		log.Warnf("previous set lookup failed for user %s: %v", userID, err)
	}

	if err := m.templateRepo.MarkPerformed(ctx, template.ID, now); err != nil {
		log.Warnf("failed to mark template %s performed: %v", template.ID.Hex(), err)
	}

	return workout, nil
}

// EnrichPreviousSets fetches the most recent finished set per
// (exercise, position) for the user and attaches it in memory to the
// matching new sets. Sets without a historical counterpart keep a nil
// hint. Nothing is persisted.
func (m *Materializer) EnrichPreviousSets(ctx context.Context, userID string, items []*domain.WorkoutItem) error {
	if len(items) == 0 {
		return nil
	}
	exerciseIDs := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		exerciseIDs = append(exerciseIDs, item.ExerciseID)
	}
	history, err := m.setRepo.GetLatestFinished(ctx, userID, exerciseIDs)
	if err != nil {
		return err
	}
	AttachPreviousSets(items, history)
	return nil
}
