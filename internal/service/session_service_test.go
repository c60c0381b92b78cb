package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sessionFixture struct {
	session      *WorkoutSession
	workout      *domain.Workout
	workoutRepo  *fakeWorkoutRepo
	itemRepo     *fakeItemRepo
	setRepo      *fakeSetRepo
	exerciseRepo *fakeExerciseRepo
	recordRepo   *fakeRecordRepo
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	workout := &domain.Workout{
		ID:        primitive.NewObjectID(),
		UserID:    "u1",
		Name:      DefaultWorkoutName,
		Status:    domain.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	f := &sessionFixture{
		workout:      workout,
		workoutRepo:  newFakeWorkoutRepo(),
		itemRepo:     newFakeItemRepo(),
		setRepo:      newFakeSetRepo(),
		exerciseRepo: newFakeExerciseRepo(),
		recordRepo:   &fakeRecordRepo{},
	}
	f.workoutRepo.workouts[workout.ID] = workout
	f.session = NewWorkoutSession(
		"u1", workout, 3,
		f.workoutRepo, f.itemRepo, f.setRepo, f.exerciseRepo, f.recordRepo,
	)
	return f
}

func (f *sessionFixture) addExercise(t *testing.T, name string, muscles ...string) *domain.WorkoutItem {
	t.Helper()
	exercise := &domain.Exercise{
		ID:   primitive.NewObjectID(),
		Name: name,
		Type: domain.ExerciseTypeWeight,
	}
	for _, muscle := range muscles {
		exercise.Muscles = append(exercise.Muscles, domain.Muscle{ID: primitive.NewObjectID(), Name: muscle})
	}
	f.exerciseRepo.exercises[exercise.ID] = exercise

	result := f.session.AddExercises(context.Background(), []primitive.ObjectID{exercise.ID})
	require.True(t, result.Success, result.Message)
	require.Len(t, result.Items, 1)
	return result.Items[0]
}

func TestAddExercises(t *testing.T) {
	f := newSessionFixture(t)
	benchID := primitive.NewObjectID()
	squatID := primitive.NewObjectID()
	f.exerciseRepo.exercises[benchID] = &domain.Exercise{ID: benchID, Name: "Bench Press"}
	f.exerciseRepo.exercises[squatID] = &domain.Exercise{ID: squatID, Name: "Squat"}

	result := f.session.AddExercises(context.Background(), []primitive.ObjectID{benchID, squatID})
	require.True(t, result.Success, result.Message)
	require.Len(t, result.Items, 2)

	assert.Len(t, f.workout.Items, 2)
	assert.Equal(t, 1, result.Items[0].Position)
	assert.Equal(t, 2, result.Items[1].Position)
	for _, item := range result.Items {
		require.Len(t, item.Sets, 3)
		for pos, s := range item.Sets {
			assert.Equal(t, pos+1, s.Position)
			assert.Equal(t, domain.SetTypeNormal, s.Type)
			assert.False(t, s.IsFinished)
			assert.Equal(t, item.ExerciseID, s.ExerciseID)
		}
	}

	// items and sets reached the store
	assert.Len(t, f.itemRepo.items, 2)
	assert.Len(t, f.setRepo.sets, 6)
}

func TestAddExercisesSameExerciseTwice(t *testing.T) {
	f := newSessionFixture(t)
	benchID := primitive.NewObjectID()
	f.exerciseRepo.exercises[benchID] = &domain.Exercise{ID: benchID, Name: "Bench Press"}

	result := f.session.AddExercises(context.Background(), []primitive.ObjectID{benchID, benchID})
	require.True(t, result.Success, result.Message)
	require.Len(t, result.Items, 2)
	assert.Equal(t, benchID, result.Items[0].ExerciseID)
	assert.Equal(t, benchID, result.Items[1].ExerciseID)
	assert.Equal(t, 1, result.Items[0].Position)
	assert.Equal(t, 2, result.Items[1].Position)
	assert.Len(t, f.workout.Items, 2)
}

func TestAddExercisesUnknownExercise(t *testing.T) {
	f := newSessionFixture(t)
	result := f.session.AddExercises(context.Background(), []primitive.ObjectID{primitive.NewObjectID()})
	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, ErrNotFound))
	assert.Empty(t, f.workout.Items)
}

func TestAddExercisesItemPersistFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.addExercise(t, "Bench Press")
	require.Len(t, f.workout.Items, 1)

	exerciseID := primitive.NewObjectID()
	f.exerciseRepo.exercises[exerciseID] = &domain.Exercise{ID: exerciseID, Name: "Squat"}
	f.itemRepo.createErr = errors.New("connection reset")

	result := f.session.AddExercises(context.Background(), []primitive.ObjectID{exerciseID})
	assert.False(t, result.Success)
	assert.Equal(t, "failed to create workout items", result.Message)
	// the optimistic items were rolled back
	assert.Len(t, f.workout.Items, 1)
}

func TestAddExercisesSetPersistFailure(t *testing.T) {
	f := newSessionFixture(t)
	exerciseID := primitive.NewObjectID()
	f.exerciseRepo.exercises[exerciseID] = &domain.Exercise{ID: exerciseID, Name: "Squat"}
	f.setRepo.createErr = errors.New("connection reset")

	result := f.session.AddExercises(context.Background(), []primitive.ObjectID{exerciseID})
	assert.False(t, result.Success)
	assert.Equal(t, "workout items created but sets failed to persist", result.Message)
	// items stay in the aggregate, no rollback after the first step succeeded
	assert.Len(t, f.workout.Items, 1)
}

func TestAddExercisesAttachesPreviousSets(t *testing.T) {
	f := newSessionFixture(t)
	exerciseID := primitive.NewObjectID()
	f.exerciseRepo.exercises[exerciseID] = &domain.Exercise{ID: exerciseID, Name: "Bench Press"}
	previous := &domain.Set{
		ID:         primitive.NewObjectID(),
		ExerciseID: exerciseID,
		Position:   1,
		Weight:     floatPtr(80),
		Reps:       intPtr(8),
		IsFinished: true,
	}
	f.setRepo.latest = []*domain.Set{previous}

	result := f.session.AddExercises(context.Background(), []primitive.ObjectID{exerciseID})
	require.True(t, result.Success, result.Message)

	sets := result.Items[0].Sets
	require.Len(t, sets, 3)
	assert.Same(t, previous, sets[0].PreviousSet)
	assert.Nil(t, sets[1].PreviousSet)
	assert.Nil(t, sets[2].PreviousSet)
}

func TestAddSet(t *testing.T) {
	f := newSessionFixture(t)
	item := f.addExercise(t, "Bench Press")
	f.setRepo.latestCalls = 0

	result := f.session.AddSet(context.Background(), item.ID)
	require.True(t, result.Success, result.Message)
	require.NotNil(t, result.Set)

	assert.Len(t, item.Sets, 4)
	assert.Equal(t, 4, result.Set.Position)
	assert.False(t, result.Set.IsFinished)
	// the previous-set hint is resolved at exercise-add time only
	assert.Equal(t, 0, f.setRepo.latestCalls)
	assert.Nil(t, result.Set.PreviousSet)
}

func TestAddSetUnknownItem(t *testing.T) {
	f := newSessionFixture(t)
	result := f.session.AddSet(context.Background(), primitive.NewObjectID())
	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, ErrNotFound))
}

func TestUpdateSet(t *testing.T) {
	f := newSessionFixture(t)
	item := f.addExercise(t, "Bench Press")
	target := item.Sets[0]

	updated := &domain.Set{
		ID:         target.ID,
		Position:   target.Position,
		Type:       domain.SetTypeDrop,
		Weight:     floatPtr(82.5),
		Reps:       intPtr(6),
		IsFinished: true,
	}
	result := f.session.UpdateSet(context.Background(), updated)
	require.True(t, result.Success, result.Message)

	assert.Equal(t, 82.5, target.WeightValue())
	assert.Equal(t, domain.SetTypeDrop, target.Type)
	assert.True(t, target.IsFinished)
	require.NotNil(t, target.FinishedAt)

	require.Len(t, f.setRepo.updates, 1)
	// the persisted subset carries exactly these fields; the type tag
	// stays session-local
	assert.Equal(t, repository.SetUpdate{
		WorkoutItemID: item.ID,
		WorkoutID:     f.workout.ID,
		Position:      1,
		Weight:        floatPtr(82.5),
		Reps:          intPtr(6),
		IsFinished:    true,
		FinishedAt:    target.FinishedAt,
	}, f.setRepo.updates[0])
}

func TestUpdateSetUnfinishClearsTimestamp(t *testing.T) {
	f := newSessionFixture(t)
	item := f.addExercise(t, "Bench Press")
	target := item.Sets[0]

	result := f.session.UpdateSet(context.Background(), &domain.Set{ID: target.ID, Position: 1, Type: domain.SetTypeNormal, IsFinished: true})
	require.True(t, result.Success, result.Message)
	require.NotNil(t, target.FinishedAt)

	result = f.session.UpdateSet(context.Background(), &domain.Set{ID: target.ID, Position: 1, Type: domain.SetTypeNormal, IsFinished: false})
	require.True(t, result.Success, result.Message)
	assert.Nil(t, target.FinishedAt)
	assert.False(t, target.IsFinished)
}

func TestUpdateSetNotFound(t *testing.T) {
	f := newSessionFixture(t)
	result := f.session.UpdateSet(context.Background(), &domain.Set{ID: primitive.NewObjectID()})
	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, ErrNotFound))
}

func TestDeleteSet(t *testing.T) {
	f := newSessionFixture(t)
	item := f.addExercise(t, "Bench Press")
	target := item.Sets[1]

	result := f.session.DeleteSet(context.Background(), target.ID)
	require.True(t, result.Success, result.Message)
	assert.False(t, result.ItemDeleted)
	assert.Len(t, item.Sets, 2)
	assert.Len(t, f.workout.Items, 1)
	_, found := f.setRepo.sets[target.ID]
	assert.False(t, found)
}

func TestDeleteLastSetCascadesItem(t *testing.T) {
	f := newSessionFixture(t)
	item := f.addExercise(t, "Bench Press")

	for _, s := range append([]*domain.Set(nil), item.Sets...) {
		result := f.session.DeleteSet(context.Background(), s.ID)
		require.True(t, result.Success, result.Message)
	}

	assert.Empty(t, f.workout.Items)
	assert.Contains(t, f.itemRepo.deleted, item.ID)
}

func TestDeleteLastSetItemRemovalFailure(t *testing.T) {
	f := newSessionFixture(t)
	item := f.addExercise(t, "Bench Press")
	item.Sets = item.Sets[:1]
	f.itemRepo.deleteErr = errors.New("connection reset")

	result := f.session.DeleteSet(context.Background(), item.Sets[0].ID)
	assert.False(t, result.Success)
	assert.Equal(t, "set deleted but empty workout item removal failed", result.Message)
	assert.False(t, result.ItemDeleted)
	// the set itself is gone either way
	assert.Empty(t, f.workout.Items)
}

func TestDeleteWorkoutItem(t *testing.T) {
	f := newSessionFixture(t)
	first := f.addExercise(t, "Bench Press")
	second := f.addExercise(t, "Squat")

	result := f.session.DeleteWorkoutItem(context.Background(), first.ID)
	require.True(t, result.Success, result.Message)
	require.Len(t, f.workout.Items, 1)
	assert.Equal(t, second.ID, f.workout.Items[0].ID)
	assert.Contains(t, f.itemRepo.deleted, first.ID)
}

func TestUpdateWorkoutName(t *testing.T) {
	f := newSessionFixture(t)

	result := f.session.UpdateWorkoutName(context.Background(), "Push Day")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, "Push Day", f.workout.Name)

	result = f.session.UpdateWorkoutName(context.Background(), "")
	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, ErrValidation))
}

func TestFinishWorkout(t *testing.T) {
	f := newSessionFixture(t)
	item := f.addExercise(t, "Bench Press", "chest", "triceps")
	finish := f.session.UpdateSet(context.Background(), &domain.Set{
		ID:         item.Sets[0].ID,
		Position:   1,
		Type:       domain.SetTypeNormal,
		Weight:     floatPtr(100),
		Reps:       intPtr(5),
		IsFinished: true,
	})
	require.True(t, finish.Success, finish.Message)

	result := f.session.FinishWorkout(context.Background())
	require.True(t, result.Success, result.Message)

	assert.Equal(t, domain.StatusFinished, f.workout.Status)
	require.NotNil(t, f.workout.FinishedAt)
	assert.Equal(t, "chest", f.workout.MainMuscle)

	// both record types are fresh for an empty history
	require.Len(t, f.recordRepo.inserted, 2)
	types := map[domain.RecordType]float64{}
	for _, record := range f.recordRepo.inserted {
		types[record.Type] = record.Value
	}
	assert.Equal(t, 100.0, types[domain.RecordTypeWeight])
	assert.Equal(t, 500.0, types[domain.RecordTypeVolume])
}

func TestFinishWorkoutNotActive(t *testing.T) {
	f := newSessionFixture(t)
	f.workout.Status = domain.StatusFinished
	finishedAt := f.workout.FinishedAt

	result := f.session.FinishWorkout(context.Background())
	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, ErrValidation))
	// the guard rejects before any mutation
	assert.Equal(t, finishedAt, f.workout.FinishedAt)
	assert.Empty(t, f.workoutRepo.updates)
}

func TestFinishWorkoutRecordInsertFailure(t *testing.T) {
	f := newSessionFixture(t)
	item := f.addExercise(t, "Bench Press")
	finish := f.session.UpdateSet(context.Background(), &domain.Set{
		ID: item.Sets[0].ID, Position: 1, Type: domain.SetTypeNormal,
		Weight: floatPtr(60), Reps: intPtr(8), IsFinished: true,
	})
	require.True(t, finish.Success, finish.Message)
	f.recordRepo.insertErr = errors.New("connection reset")

	result := f.session.FinishWorkout(context.Background())
	assert.False(t, result.Success)
	assert.Equal(t, "workout finished but record insert failed", result.Message)
	// the finish itself went through
	assert.Equal(t, domain.StatusFinished, f.workout.Status)
}

func TestDeleteWorkout(t *testing.T) {
	f := newSessionFixture(t)
	item := f.addExercise(t, "Bench Press")

	result := f.session.DeleteWorkout(context.Background())
	require.True(t, result.Success, result.Message)
	assert.Equal(t, domain.StatusDeleted, f.workout.Status)
	assert.Contains(t, f.itemRepo.deleted, item.ID)
	assert.NotContains(t, f.workoutRepo.workouts, f.workout.ID)
}

func TestDeleteWorkoutRemovalFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.addExercise(t, "Bench Press")
	f.workoutRepo.deleteErr = errors.New("connection reset")

	result := f.session.DeleteWorkout(context.Background())
	assert.False(t, result.Success)
	assert.Equal(t, "workout items deleted but workout removal failed", result.Message)
}

func TestAttachPreviousSets(t *testing.T) {
	exerciseID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	item := &domain.WorkoutItem{
		ExerciseID: exerciseID,
		Sets: []*domain.Set{
			{ID: primitive.NewObjectID(), Position: 1},
			{ID: primitive.NewObjectID(), Position: 2},
		},
	}
	history := []*domain.Set{
		{ID: primitive.NewObjectID(), ExerciseID: exerciseID, Position: 1, Weight: floatPtr(80)},
		{ID: primitive.NewObjectID(), ExerciseID: otherID, Position: 2, Weight: floatPtr(40)},
	}

	AttachPreviousSets([]*domain.WorkoutItem{item}, history)
	require.NotNil(t, item.Sets[0].PreviousSet)
	assert.Equal(t, 80.0, item.Sets[0].PreviousSet.WeightValue())
	// position 2 only matches the other exercise, so no hint
	assert.Nil(t, item.Sets[1].PreviousSet)

	AttachPreviousSets([]*domain.WorkoutItem{item}, nil)
	assert.Nil(t, item.Sets[0].PreviousSet)
}
