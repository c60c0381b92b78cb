package service

import (
	"context"
	"time"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSetsPerExercise is how many blank sets a newly added exercise
// gets when neither config nor template says otherwise.
const DefaultSetsPerExercise = 3

// WorkoutSession owns the in-memory representation of the workout
// currently being performed and keeps it consistent with the backing
// store. Every mutation updates local state first (optimistic), then
// persists; a failed persistence call leaves the optimistic state in
// place and only surfaces the failure through the Result.
//
// The session is single-user and event driven. There is deliberately no
// lock around the aggregate: overlapping mutations are last-write-wins,
// matching the interactive usage this models.
type WorkoutSession struct {
	userID      string
	workout     *domain.Workout
	defaultSets int

	workoutRepo  repository.WorkoutRepository
	itemRepo     repository.WorkoutItemRepository
	setRepo      repository.SetRepository
	exerciseRepo repository.ExerciseRepository
	recordRepo   repository.RecordRepository
}

// NewWorkoutSession wraps an already materialized workout aggregate.
func NewWorkoutSession(
	userID string,
	workout *domain.Workout,
	defaultSets int,
	workoutRepo repository.WorkoutRepository,
	itemRepo repository.WorkoutItemRepository,
	setRepo repository.SetRepository,
	exerciseRepo repository.ExerciseRepository,
	recordRepo repository.RecordRepository,
) *WorkoutSession {
	if defaultSets <= 0 {
		defaultSets = DefaultSetsPerExercise
	}
	return &WorkoutSession{
		userID:       userID,
		workout:      workout,
		defaultSets:  defaultSets,
		workoutRepo:  workoutRepo,
		itemRepo:     itemRepo,
		setRepo:      setRepo,
		exerciseRepo: exerciseRepo,
		recordRepo:   recordRepo,
	}
}

// Workout exposes the aggregate for read-only display.
func (ws *WorkoutSession) Workout() *domain.Workout {
	return ws.workout
}

// guardActive rejects mutations of a workout that is no longer active.
func (ws *WorkoutSession) guardActive() *Result {
	if ws.workout == nil {
		r := failValidation("no active workout in session")
		return &r
	}
	if !ws.workout.IsActive() {
		r := failValidation("workout is not active")
		return &r
	}
	return nil
}

// AddExercisesResult carries the created items back to the caller.
type AddExercisesResult struct {
	Result
	Items []*domain.WorkoutItem `json:"items,omitempty"`
}

// AddExercises creates one workout item per exercise, positioned after
// the existing items, each pre-populated with the default number of
// blank sets. Newly created sets get their previous-set hint resolved
// once, here; later AddSet calls do not refresh it.
func (ws *WorkoutSession) AddExercises(ctx context.Context, exerciseIDs []primitive.ObjectID) AddExercisesResult {
	if guard := ws.guardActive(); guard != nil {
		return AddExercisesResult{Result: *guard}
	}
	if len(exerciseIDs) == 0 {
		return AddExercisesResult{Result: failValidation("no exercises given")}
	}

	exercises, err := ws.exerciseRepo.GetByIDs(ctx, exerciseIDs)
	if err != nil {
		return AddExercisesResult{Result: failPersistence("failed to load exercises", err)}
	}
	// the store collapses duplicate IDs, so compare distinct counts;
	// listing an exercise twice legitimately creates two items
	distinct := make(map[primitive.ObjectID]bool, len(exerciseIDs))
	for _, id := range exerciseIDs {
		distinct[id] = true
	}
	if len(exercises) != len(distinct) {
		return AddExercisesResult{Result: failNotFound("one or more exercises not found")}
	}
	exerciseByID := make(map[primitive.ObjectID]*domain.Exercise, len(exercises))
	for _, ex := range exercises {
		exerciseByID[ex.ID] = ex
	}

	position := ws.workout.NextPosition()
	var newItems []*domain.WorkoutItem
	var newSets []*domain.Set
	for _, exerciseID := range exerciseIDs {
		item := &domain.WorkoutItem{
			ID:         primitive.NewObjectID(),
			WorkoutID:  ws.workout.ID,
			UserID:     ws.userID,
			ExerciseID: exerciseID,
			Position:   position,
			Exercise:   exerciseByID[exerciseID],
		}
		position++
		for setPos := 1; setPos <= ws.defaultSets; setPos++ {
			item.Sets = append(item.Sets, &domain.Set{
				ID:            primitive.NewObjectID(),
				WorkoutItemID: item.ID,
				WorkoutID:     ws.workout.ID,
				ExerciseID:    exerciseID,
				UserID:        ws.userID,
				Position:      setPos,
				Type:          domain.SetTypeNormal,
			})
		}
		newItems = append(newItems, item)
		newSets = append(newSets, item.Sets...)
	}

	// optimistic: attach to the aggregate before persisting
	ws.workout.Items = append(ws.workout.Items, newItems...)

	if err := ws.itemRepo.CreateMany(ctx, newItems); err != nil {
		// roll the optimistic items back, nothing references them yet
		ws.workout.Items = ws.workout.Items[:len(ws.workout.Items)-len(newItems)]
		return AddExercisesResult{Result: failPersistence("failed to create workout items", err)}
	}
	if err := ws.setRepo.CreateMany(ctx, newSets); err != nil {
		return AddExercisesResult{
			Result: failPersistence("workout items created but sets failed to persist", err),
			Items:  newItems,
		}
	}

	if err := ws.enrichPreviousSets(ctx, newItems); err != nil {
		// hint only, the items themselves are fine
		log.Warnf("previous set lookup failed for user %s: %v", ws.userID, err)
	}

	return AddExercisesResult{Result: okResult("exercises added"), Items: newItems}
}

// enrichPreviousSets attaches the most recent finished set per
// (exercise, position) as an in-memory hint on matching new sets.
func (ws *WorkoutSession) enrichPreviousSets(ctx context.Context, items []*domain.WorkoutItem) error {
	AttachPreviousSets(items, nil)
	exerciseIDs := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		exerciseIDs = append(exerciseIDs, item.ExerciseID)
	}
	history, err := ws.setRepo.GetLatestFinished(ctx, ws.userID, exerciseIDs)
	if err != nil {
		return err
	}
	AttachPreviousSets(items, history)
	return nil
}

// AddSetResult carries the created set back to the caller.
type AddSetResult struct {
	Result
	Set *domain.Set `json:"set,omitempty"`
}

// AddSet appends one new unfinished set to the item. The previous-set
// hint is not recomputed here; it is resolved once at exercise-add (or
// materialization) time.
func (ws *WorkoutSession) AddSet(ctx context.Context, itemID primitive.ObjectID) AddSetResult {
	if guard := ws.guardActive(); guard != nil {
		return AddSetResult{Result: *guard}
	}
	item := ws.workout.ItemByID(itemID)
	if item == nil {
		return AddSetResult{Result: failNotFound("workout item not found")}
	}

	set := &domain.Set{
		ID:            primitive.NewObjectID(),
		WorkoutItemID: item.ID,
		WorkoutID:     ws.workout.ID,
		ExerciseID:    item.ExerciseID,
		UserID:        ws.userID,
		Position:      item.NextSetPosition(),
		Type:          domain.SetTypeNormal,
	}
	item.Sets = append(item.Sets, set)

	if err := ws.setRepo.CreateMany(ctx, []*domain.Set{set}); err != nil {
		return AddSetResult{Result: failPersistence("failed to persist new set", err)}
	}
	return AddSetResult{Result: okResult("set added"), Set: set}
}

// UpdateSet replaces a set's fields in place by identity match and
// persists the sanitized field subset. Computed and relational fields
// (previous-set hint, exercise detail) never reach the store. The type
// tag is applied in memory only; it is not part of the persisted
// subset, so it does not survive a session rebuild.
func (ws *WorkoutSession) UpdateSet(ctx context.Context, updated *domain.Set) Result {
	if guard := ws.guardActive(); guard != nil {
		return *guard
	}
	if updated == nil || updated.ID == primitive.NilObjectID {
		return failValidation("set ID is required")
	}
	item, current := ws.workout.SetByID(updated.ID)
	if current == nil {
		return failNotFound("set not found")
	}

	current.Position = updated.Position
	current.Type = updated.Type
	current.Weight = updated.Weight
	current.Reps = updated.Reps
	current.Distance = updated.Distance
	current.Speed = updated.Speed
	if updated.IsFinished && !current.IsFinished {
		now := time.Now().UTC()
		current.FinishedAt = &now
	}
	if !updated.IsFinished {
		current.FinishedAt = nil
	}
	current.IsFinished = updated.IsFinished

	err := ws.setRepo.Update(ctx, current.ID, repository.SetUpdate{
		WorkoutItemID: item.ID,
		WorkoutID:     ws.workout.ID,
		Position:      current.Position,
		Weight:        current.Weight,
		Reps:          current.Reps,
		Distance:      current.Distance,
		Speed:         current.Speed,
		IsFinished:    current.IsFinished,
		FinishedAt:    current.FinishedAt,
	})
	if err != nil {
		return failPersistence("failed to persist set update", err)
	}
	return okResult("set updated")
}

// DeleteSetResult reports whether the owning item was cascaded away.
type DeleteSetResult struct {
	Result
	ItemDeleted bool `json:"itemDeleted"`
}

// DeleteSet removes the set from its item; removing the last set of an
// item removes the item too. Set and item deletion are two independent
// persistence calls and their failures are reported distinctly: when
// the second call fails the set is already gone either way.
func (ws *WorkoutSession) DeleteSet(ctx context.Context, setID primitive.ObjectID) DeleteSetResult {
	if guard := ws.guardActive(); guard != nil {
		return DeleteSetResult{Result: *guard}
	}
	item, set := ws.workout.SetByID(setID)
	if set == nil {
		return DeleteSetResult{Result: failNotFound("set not found")}
	}

	// optimistic removal from the item
	remaining := item.Sets[:0]
	for _, s := range item.Sets {
		if s.ID != setID {
			remaining = append(remaining, s)
		}
	}
	item.Sets = remaining

	cascade := len(item.Sets) == 0
	if cascade {
		items := ws.workout.Items[:0]
		for _, i := range ws.workout.Items {
			if i.ID != item.ID {
				items = append(items, i)
			}
		}
		ws.workout.Items = items
	}

	if err := ws.setRepo.Delete(ctx, setID); err != nil {
		return DeleteSetResult{Result: failPersistence("failed to delete set", err)}
	}
	if cascade {
		if err := ws.itemRepo.Delete(ctx, item.ID); err != nil {
			return DeleteSetResult{
				Result:      failPersistence("set deleted but empty workout item removal failed", err),
				ItemDeleted: false,
			}
		}
	}
	return DeleteSetResult{Result: okResult("set deleted"), ItemDeleted: cascade}
}

// DeleteWorkoutItem removes the item and all its sets. The store
// cascades set deletion with the item.
func (ws *WorkoutSession) DeleteWorkoutItem(ctx context.Context, itemID primitive.ObjectID) Result {
	if guard := ws.guardActive(); guard != nil {
		return *guard
	}
	item := ws.workout.ItemByID(itemID)
	if item == nil {
		return failNotFound("workout item not found")
	}

	items := ws.workout.Items[:0]
	for _, i := range ws.workout.Items {
		if i.ID != itemID {
			items = append(items, i)
		}
	}
	ws.workout.Items = items

	if err := ws.itemRepo.Delete(ctx, itemID); err != nil {
		return failPersistence("failed to delete workout item", err)
	}
	return okResult("workout item deleted")
}

// UpdateWorkoutName renames the workout.
func (ws *WorkoutSession) UpdateWorkoutName(ctx context.Context, name string) Result {
	if guard := ws.guardActive(); guard != nil {
		return *guard
	}
	if name == "" {
		return failValidation("workout name must not be empty")
	}
	ws.workout.Name = name

	if err := ws.workoutRepo.Update(ctx, ws.workout.ID, repository.WorkoutUpdate{Name: &name}); err != nil {
		return failPersistence("failed to persist workout name", err)
	}
	return okResult("workout renamed")
}

// FinishWorkout marks the workout finished and persists the status
// transition. The caller is expected to have checked AllSetsFinished
// and confirmed with the user when sets are still open; forcing the
// finish with unfinished sets is allowed here. Newly detected personal
// records are persisted after the status transition; a record insert
// failure is reported distinctly and does not undo the finish.
func (ws *WorkoutSession) FinishWorkout(ctx context.Context) Result {
	if guard := ws.guardActive(); guard != nil {
		return *guard
	}

	now := time.Now().UTC()
	ws.workout.Status = domain.StatusFinished
	ws.workout.FinishedAt = &now
	ws.workout.MainMuscle = mainMuscleOfItems(ws.workout.Items)

	status := domain.StatusFinished
	err := ws.workoutRepo.Update(ctx, ws.workout.ID, repository.WorkoutUpdate{
		Status:     &status,
		FinishedAt: &now,
		MainMuscle: &ws.workout.MainMuscle,
	})
	if err != nil {
		return failPersistence("failed to persist workout finish", err)
	}

	if err := ws.persistNewRecords(ctx); err != nil {
		return failPersistence("workout finished but record insert failed", err)
	}
	return okResult("workout finished")
}

// persistNewRecords inserts a Record for every item whose best finished
// set beats the user's all-time record of that type.
func (ws *WorkoutSession) persistNewRecords(ctx context.Context) error {
	for _, item := range ws.workout.Items {
		records, err := ws.recordRepo.GetByUserAndExercise(ctx, ws.userID, item.ExerciseID)
		if err != nil {
			return err
		}
		flags := detectItemRecords(item, records)

		if flags.NewWeightRecord {
			best := HighestWeightSet(item)
			err := ws.recordRepo.Insert(ctx, &domain.Record{
				UserID:     ws.userID,
				ExerciseID: item.ExerciseID,
				SetID:      best.ID,
				Type:       domain.RecordTypeWeight,
				Value:      best.WeightValue(),
			})
			if err != nil {
				return err
			}
		}
		if flags.NewVolumeRecord {
			best := HighestVolumeSet(item)
			err := ws.recordRepo.Insert(ctx, &domain.Record{
				UserID:     ws.userID,
				ExerciseID: item.ExerciseID,
				SetID:      best.ID,
				Type:       domain.RecordTypeVolume,
				Value:      best.Volume(),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteWorkout abandons the active workout and removes the entire
// aggregate. Item and workout deletion are separate persistence steps
// with distinctly reported failures.
func (ws *WorkoutSession) DeleteWorkout(ctx context.Context) Result {
	if guard := ws.guardActive(); guard != nil {
		return *guard
	}

	ws.workout.Status = domain.StatusDeleted

	if err := ws.itemRepo.DeleteByWorkoutID(ctx, ws.workout.ID); err != nil {
		return failPersistence("failed to delete workout items", err)
	}
	if err := ws.workoutRepo.Delete(ctx, ws.workout.ID); err != nil {
		return failPersistence("workout items deleted but workout removal failed", err)
	}
	return okResult("workout deleted")
}

// AttachPreviousSets matches historical finished sets to new sets by
// exercise identity and position only, attaching them as in-memory
// hints. Passing nil history clears the hints.
func AttachPreviousSets(items []*domain.WorkoutItem, history []*domain.Set) {
	type key struct {
		exercise primitive.ObjectID
		position int
	}
	previous := make(map[key]*domain.Set, len(history))
	for _, h := range history {
		previous[key{exercise: h.ExerciseID, position: h.Position}] = h
	}
	for _, item := range items {
		for _, s := range item.Sets {
			s.PreviousSet = previous[key{exercise: item.ExerciseID, position: s.Position}]
		}
	}
}
