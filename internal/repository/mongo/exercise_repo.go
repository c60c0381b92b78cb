package mongo

import (
	"context"
	"errors"
	"time"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	exerciseCollectionName       = "exercises"
	exerciseMuscleCollectionName = "exercise_muscles"
	muscleCollectionName         = "muscles"
)

// mongoExerciseRepository implements repository.ExerciseRepository.
type mongoExerciseRepository struct {
	collection       *mongo.Collection
	muscleLinks      *mongo.Collection
	muscleCollection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection:       db.Collection(exerciseCollectionName),
		muscleLinks:      db.Collection(exerciseMuscleCollectionName),
		muscleCollection: db.Collection(muscleCollectionName),
	}
}

// Create inserts a new exercise definition.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" {
		return primitive.NilObjectID, errors.New("exercise requires a name")
	}
	if exercise.Type == "" {
		exercise.Type = domain.ExerciseTypeWeight
	}
	exercise.ID = primitive.NewObjectID()
	exercise.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted exercise ID")
	}
	return insertedID, nil
}

// LinkMuscles inserts the muscle associations of an exercise. This is a
// separate write from the exercise insert; callers surface a partial
// failure (exercise created, links missing) as a failed operation.
func (r *mongoExerciseRepository) LinkMuscles(ctx context.Context, exerciseID primitive.ObjectID, muscleIDs []primitive.ObjectID) error {
	if exerciseID == primitive.NilObjectID {
		return errors.New("exercise ID is required to link muscles")
	}
	if len(muscleIDs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(muscleIDs))
	for _, muscleID := range muscleIDs {
		docs = append(docs, domain.ExerciseMuscle{
			ID:         primitive.NewObjectID(),
			ExerciseID: exerciseID,
			MuscleID:   muscleID,
		})
	}
	_, err := r.muscleLinks.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves one exercise with its muscles resolved.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachMuscles(ctx, []*domain.Exercise{&exercise}); err != nil {
		return nil, err
	}
	return &exercise, nil
}

// GetByIDs retrieves a batch of exercises with muscles resolved.
func (r *mongoExerciseRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Exercise, error) {
	if len(ids) == 0 {
		return []*domain.Exercise{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []*domain.Exercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	if exercises == nil {
		exercises = []*domain.Exercise{}
	}
	if err := r.attachMuscles(ctx, exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// List returns built-in exercises plus the user's own ones.
func (r *mongoExerciseRepository) List(ctx context.Context, ownerID string) ([]*domain.Exercise, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"ownerId": ""},
		bson.M{"ownerId": bson.M{"$exists": false}},
		bson.M{"ownerId": ownerID},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []*domain.Exercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	if exercises == nil {
		exercises = []*domain.Exercise{}
	}
	if err := r.attachMuscles(ctx, exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// SetImageKey stores the media object key of an exercise image.
func (r *mongoExerciseRepository) SetImageKey(ctx context.Context, id primitive.ObjectID, imageKey string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"imageKey": imageKey}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// attachMuscles resolves the muscle links of the given exercises.
func (r *mongoExerciseRepository) attachMuscles(ctx context.Context, exercises []*domain.Exercise) error {
	if len(exercises) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, 0, len(exercises))
	for _, ex := range exercises {
		ids = append(ids, ex.ID)
	}

	cursor, err := r.muscleLinks.Find(ctx, bson.M{"exerciseId": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var links []domain.ExerciseMuscle
	if err = cursor.All(ctx, &links); err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	muscleIDs := make([]primitive.ObjectID, 0, len(links))
	for _, link := range links {
		muscleIDs = append(muscleIDs, link.MuscleID)
	}
	muscleCursor, err := r.muscleCollection.Find(ctx, bson.M{"_id": bson.M{"$in": muscleIDs}})
	if err != nil {
		return err
	}
	defer muscleCursor.Close(ctx)

	var muscles []domain.Muscle
	if err = muscleCursor.All(ctx, &muscles); err != nil {
		return err
	}
	muscleByID := make(map[primitive.ObjectID]domain.Muscle, len(muscles))
	for _, m := range muscles {
		muscleByID[m.ID] = m
	}

	exerciseByID := make(map[primitive.ObjectID]*domain.Exercise, len(exercises))
	for _, ex := range exercises {
		exerciseByID[ex.ID] = ex
	}
	for _, link := range links {
		ex, ok := exerciseByID[link.ExerciseID]
		if !ok {
			continue
		}
		if muscle, ok := muscleByID[link.MuscleID]; ok {
			ex.Muscles = append(ex.Muscles, muscle)
		}
	}
	return nil
}

// EnsureExerciseIndexes creates necessary indexes. Call during startup.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for %s: %v", collection.Name(), err)
	}
}
