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

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository.
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == "" || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires userId and name")
	}
	workout.ID = primitive.NewObjectID()
	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = time.Now().UTC()
	}
	if workout.Status == "" {
		workout.Status = domain.StatusActive
	}

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// Update applies the given field subset to a workout.
func (r *mongoWorkoutRepository) Update(ctx context.Context, id primitive.ObjectID, update repository.WorkoutUpdate) error {
	if id == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}

	setDoc := bson.M{}
	if update.Name != nil {
		setDoc["name"] = *update.Name
	}
	if update.Status != nil {
		setDoc["status"] = *update.Status
	}
	if update.MainMuscle != nil {
		setDoc["mainMuscle"] = *update.MainMuscle
	}
	if update.Rating != nil {
		setDoc["rating"] = *update.Rating
	}
	if update.FinishedAt != nil {
		setDoc["finishedAt"] = *update.FinishedAt
	}
	if len(setDoc) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": setDoc})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a workout document. Items and sets are removed by
// their own repositories.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if id == primitive.NilObjectID {
		return errors.New("workout ID is required for deletion")
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetActiveByUser returns the user's currently active workout.
func (r *mongoWorkoutRepository) GetActiveByUser(ctx context.Context, userID string) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"userId": userID, "status": domain.StatusActive}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetFinishedByUser returns all finished workouts of a user, newest first.
func (r *mongoWorkoutRepository) GetFinishedByUser(ctx context.Context, userID string) ([]domain.Workout, error) {
	filter := bson.M{"userId": userID, "status": domain.StatusFinished}
	findOptions := options.Find().SetSort(bson.D{{Key: "finishedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workouts []domain.Workout
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}
	return workouts, nil
}

// GetWorkoutDays returns the creation timestamps of all workouts of a
// user, status-agnostic, ascending.
func (r *mongoWorkoutRepository) GetWorkoutDays(ctx context.Context, userID string) ([]time.Time, error) {
	filter := bson.M{"userId": userID}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetProjection(bson.M{"createdAt": 1})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var days []time.Time
	for cursor.Next(ctx) {
		var doc struct {
			CreatedAt time.Time `bson:"createdAt"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		days = append(days, doc.CreatedAt)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for %s: %v", collection.Name(), err)
	}
}
