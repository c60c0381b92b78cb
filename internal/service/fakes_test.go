package service

import (
	"context"
	"sync"
	"time"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. Error fields, when set, are returned by
// the corresponding method so tests can force a persistence failure at
// an exact step.

type fakeWorkoutRepo struct {
	mu       sync.Mutex // parallel-user tests hit the repo concurrently
	workouts map[primitive.ObjectID]*domain.Workout
	finished []domain.Workout
	days     []time.Time

	updates []repository.WorkoutUpdate

	createErr error
	updateErr error
	deleteErr error
	daysErr   error
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{workouts: make(map[primitive.ObjectID]*domain.Workout)}
}

func (f *fakeWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	if workout.ID == primitive.NilObjectID {
		workout.ID = primitive.NewObjectID()
	}
	f.workouts[workout.ID] = workout
	return workout.ID, nil
}

func (f *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	workout, ok := f.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return workout, nil
}

func (f *fakeWorkoutRepo) Update(_ context.Context, id primitive.ObjectID, update repository.WorkoutUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, update)
	workout, ok := f.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if update.Name != nil {
		workout.Name = *update.Name
	}
	if update.Status != nil {
		workout.Status = *update.Status
	}
	if update.MainMuscle != nil {
		workout.MainMuscle = *update.MainMuscle
	}
	if update.Rating != nil {
		workout.Rating = update.Rating
	}
	if update.FinishedAt != nil {
		workout.FinishedAt = update.FinishedAt
	}
	return nil
}

func (f *fakeWorkoutRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.workouts, id)
	return nil
}

func (f *fakeWorkoutRepo) GetActiveByUser(_ context.Context, userID string) (*domain.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, workout := range f.workouts {
		if workout.UserID == userID && workout.Status == domain.StatusActive {
			return workout, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeWorkoutRepo) GetFinishedByUser(_ context.Context, _ string) ([]domain.Workout, error) {
	return f.finished, nil
}

func (f *fakeWorkoutRepo) GetWorkoutDays(_ context.Context, _ string) ([]time.Time, error) {
	if f.daysErr != nil {
		return nil, f.daysErr
	}
	return f.days, nil
}

type fakeItemRepo struct {
	items map[primitive.ObjectID]*domain.WorkoutItem

	deleted []primitive.ObjectID

	createErr error
	deleteErr error
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[primitive.ObjectID]*domain.WorkoutItem)}
}

func (f *fakeItemRepo) CreateMany(_ context.Context, items []*domain.WorkoutItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, item := range items {
		f.items[item.ID] = item
	}
	return nil
}

func (f *fakeItemRepo) GetByWorkoutID(_ context.Context, workoutID primitive.ObjectID) ([]*domain.WorkoutItem, error) {
	var result []*domain.WorkoutItem
	for _, item := range f.items {
		if item.WorkoutID == workoutID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (f *fakeItemRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.items, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeItemRepo) DeleteByWorkoutID(_ context.Context, workoutID primitive.ObjectID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for id, item := range f.items {
		if item.WorkoutID == workoutID {
			delete(f.items, id)
			f.deleted = append(f.deleted, id)
		}
	}
	return nil
}

type fakeSetRepo struct {
	sets   map[primitive.ObjectID]*domain.Set
	latest []*domain.Set

	updates     []repository.SetUpdate
	latestCalls int

	createErr error
	updateErr error
	deleteErr error
	latestErr error
}

func newFakeSetRepo() *fakeSetRepo {
	return &fakeSetRepo{sets: make(map[primitive.ObjectID]*domain.Set)}
}

func (f *fakeSetRepo) CreateMany(_ context.Context, sets []*domain.Set) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, s := range sets {
		f.sets[s.ID] = s
	}
	return nil
}

func (f *fakeSetRepo) Update(_ context.Context, id primitive.ObjectID, update repository.SetUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.sets[id]; !ok {
		return repository.ErrNotFound
	}
	f.updates = append(f.updates, update)
	return nil
}

func (f *fakeSetRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.sets, id)
	return nil
}

func (f *fakeSetRepo) GetByWorkoutID(_ context.Context, workoutID primitive.ObjectID) ([]*domain.Set, error) {
	var result []*domain.Set
	for _, s := range f.sets {
		if s.WorkoutID == workoutID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *fakeSetRepo) GetLatestFinished(_ context.Context, _ string, _ []primitive.ObjectID) ([]*domain.Set, error) {
	f.latestCalls++
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.latest, nil
}

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]*domain.Exercise

	linkedMuscles map[primitive.ObjectID][]primitive.ObjectID

	createErr error
	linkErr   error
	getErr    error
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{
		exercises:     make(map[primitive.ObjectID]*domain.Exercise),
		linkedMuscles: make(map[primitive.ObjectID][]primitive.ObjectID),
	}
}

func (f *fakeExerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	if exercise.ID == primitive.NilObjectID {
		exercise.ID = primitive.NewObjectID()
	}
	f.exercises[exercise.ID] = exercise
	return exercise.ID, nil
}

func (f *fakeExerciseRepo) LinkMuscles(_ context.Context, exerciseID primitive.ObjectID, muscleIDs []primitive.ObjectID) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	f.linkedMuscles[exerciseID] = muscleIDs
	return nil
}

func (f *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	exercise, ok := f.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return exercise, nil
}

func (f *fakeExerciseRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]*domain.Exercise, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	// one document per distinct ID, like a store-side $in filter
	seen := make(map[primitive.ObjectID]bool, len(ids))
	var result []*domain.Exercise
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if exercise, ok := f.exercises[id]; ok {
			result = append(result, exercise)
		}
	}
	return result, nil
}

func (f *fakeExerciseRepo) List(_ context.Context, ownerID string) ([]*domain.Exercise, error) {
	var result []*domain.Exercise
	for _, exercise := range f.exercises {
		if exercise.OwnerID == "" || exercise.OwnerID == ownerID {
			result = append(result, exercise)
		}
	}
	return result, nil
}

func (f *fakeExerciseRepo) SetImageKey(_ context.Context, id primitive.ObjectID, imageKey string) error {
	exercise, ok := f.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	exercise.ImageKey = imageKey
	return nil
}

type fakeTemplateRepo struct {
	templates map[primitive.ObjectID]*domain.Template

	performed []primitive.ObjectID

	markErr error
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[primitive.ObjectID]*domain.Template)}
}

func (f *fakeTemplateRepo) Create(_ context.Context, template *domain.Template) (primitive.ObjectID, error) {
	if template.ID == primitive.NilObjectID {
		template.ID = primitive.NewObjectID()
	}
	f.templates[template.ID] = template
	return template.ID, nil
}

func (f *fakeTemplateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Template, error) {
	template, ok := f.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return template, nil
}

func (f *fakeTemplateRepo) GetByUserID(_ context.Context, userID string) ([]domain.Template, error) {
	var result []domain.Template
	for _, template := range f.templates {
		if template.UserID == userID {
			result = append(result, *template)
		}
	}
	return result, nil
}

func (f *fakeTemplateRepo) MarkPerformed(_ context.Context, id primitive.ObjectID, performedAt time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	template, ok := f.templates[id]
	if !ok {
		return repository.ErrNotFound
	}
	template.LastPerformed = &performedAt
	template.TimesPerformed++
	f.performed = append(f.performed, id)
	return nil
}

type fakeRecordRepo struct {
	records []domain.Record

	inserted []*domain.Record

	insertErr error
	getErr    error
}

func (f *fakeRecordRepo) Insert(_ context.Context, record *domain.Record) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, record)
	return nil
}

func (f *fakeRecordRepo) GetByUser(_ context.Context, _ string) ([]domain.Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.records, nil
}

func (f *fakeRecordRepo) GetByUserAndExercise(_ context.Context, _ string, exerciseID primitive.ObjectID) ([]domain.Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	var result []domain.Record
	for _, record := range f.records {
		if record.ExerciseID == exerciseID {
			result = append(result, record)
		}
	}
	return result, nil
}
