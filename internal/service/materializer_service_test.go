package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"joekyx/kyx-gym/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newMaterializerFixture(t *testing.T) *serviceFixture {
	t.Helper()
	return newServiceFixture(t)
}

func TestBlank(t *testing.T) {
	f := newMaterializerFixture(t)
	materializer := f.service.materializer

	workout, err := materializer.Blank(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, DefaultWorkoutName, workout.Name)
	assert.Equal(t, domain.StatusActive, workout.Status)
	assert.Equal(t, "u1", workout.UserID)
	assert.Empty(t, workout.Items)
	assert.False(t, workout.ID.IsZero())
}

func TestBlankRequiresUser(t *testing.T) {
	f := newMaterializerFixture(t)
	_, err := f.service.materializer.Blank(context.Background(), "")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestFromTemplate(t *testing.T) {
	f := newMaterializerFixture(t)
	materializer := f.service.materializer

	bench := &domain.Exercise{ID: primitive.NewObjectID(), Name: "Bench Press"}
	fly := &domain.Exercise{ID: primitive.NewObjectID(), Name: "Cable Fly"}
	f.exerciseRepo.exercises[bench.ID] = bench
	f.exerciseRepo.exercises[fly.ID] = fly

	template := &domain.Template{
		ID:         primitive.NewObjectID(),
		UserID:     "u1",
		Name:       "Push Day",
		MainMuscle: "chest",
		Items: []domain.TemplateItem{
			{ExerciseID: bench.ID, Position: 1, AmountOfSets: 3},
			{ExerciseID: fly.ID, Position: 2, AmountOfSets: 1},
		},
	}
	f.templateRepo.templates[template.ID] = template

	workout, err := materializer.FromTemplate(context.Background(), "u1", template.ID)
	require.NoError(t, err)

	expectedName := fmt.Sprintf("Push Day - %s", time.Now().UTC().Format("2006-01-02"))
	assert.Equal(t, expectedName, workout.Name)
	assert.Equal(t, domain.StatusActive, workout.Status)
	assert.Equal(t, "chest", workout.MainMuscle)

	require.Len(t, workout.Items, 2)
	assert.Equal(t, 1, workout.Items[0].Position)
	assert.Equal(t, 2, workout.Items[1].Position)
	assert.Same(t, bench, workout.Items[0].Exercise)
	assert.Len(t, workout.Items[0].Sets, 3)
	assert.Len(t, workout.Items[1].Sets, 1)
	for _, item := range workout.Items {
		for pos, s := range item.Sets {
			assert.Equal(t, pos+1, s.Position)
			assert.False(t, s.IsFinished)
			assert.Nil(t, s.FinishedAt)
		}
	}

	// everything reached the store
	assert.Len(t, f.itemRepo.items, 2)
	assert.Len(t, f.setRepo.sets, 4)

	assert.Equal(t, []primitive.ObjectID{template.ID}, f.templateRepo.performed)
	assert.Equal(t, 1, template.TimesPerformed)
}

func TestFromTemplateDefaultsSetAmount(t *testing.T) {
	f := newMaterializerFixture(t)
	exercise := &domain.Exercise{ID: primitive.NewObjectID(), Name: "Squat"}
	f.exerciseRepo.exercises[exercise.ID] = exercise

	template := &domain.Template{
		ID:     primitive.NewObjectID(),
		UserID: "u1",
		Name:   "Legs",
		Items:  []domain.TemplateItem{{ExerciseID: exercise.ID, Position: 1}},
	}
	f.templateRepo.templates[template.ID] = template

	workout, err := f.service.materializer.FromTemplate(context.Background(), "u1", template.ID)
	require.NoError(t, err)
	require.Len(t, workout.Items, 1)
	assert.Len(t, workout.Items[0].Sets, 3)
}

func TestFromTemplateUnknownTemplate(t *testing.T) {
	f := newMaterializerFixture(t)
	_, err := f.service.materializer.FromTemplate(context.Background(), "u1", primitive.NewObjectID())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFromTemplateMarkPerformedFailureIsNotFatal(t *testing.T) {
	f := newMaterializerFixture(t)
	exercise := &domain.Exercise{ID: primitive.NewObjectID(), Name: "Squat"}
	f.exerciseRepo.exercises[exercise.ID] = exercise

	template := &domain.Template{
		ID:     primitive.NewObjectID(),
		UserID: "u1",
		Name:   "Legs",
		Items:  []domain.TemplateItem{{ExerciseID: exercise.ID, Position: 1, AmountOfSets: 2}},
	}
	f.templateRepo.templates[template.ID] = template
	f.templateRepo.markErr = errors.New("connection reset")

	workout, err := f.service.materializer.FromTemplate(context.Background(), "u1", template.ID)
	require.NoError(t, err)
	assert.Len(t, workout.Items, 1)
}

func TestEnrichPreviousSets(t *testing.T) {
	f := newMaterializerFixture(t)
	materializer := f.service.materializer

	exerciseID := primitive.NewObjectID()
	item := &domain.WorkoutItem{
		ExerciseID: exerciseID,
		Sets: []*domain.Set{
			{ID: primitive.NewObjectID(), Position: 1},
			{ID: primitive.NewObjectID(), Position: 2},
		},
	}
	previous := &domain.Set{
		ID:         primitive.NewObjectID(),
		ExerciseID: exerciseID,
		Position:   1,
		Weight:     floatPtr(80),
		Reps:       intPtr(8),
		IsFinished: true,
	}
	f.setRepo.latest = []*domain.Set{previous}

	err := materializer.EnrichPreviousSets(context.Background(), "u1", []*domain.WorkoutItem{item})
	require.NoError(t, err)

	assert.Same(t, previous, item.Sets[0].PreviousSet)
	assert.Nil(t, item.Sets[1].PreviousSet)
}

func TestEnrichPreviousSetsEmptyItems(t *testing.T) {
	f := newMaterializerFixture(t)
	err := f.service.materializer.EnrichPreviousSets(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, f.setRepo.latestCalls)
}
