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
	workoutItemCollectionName = "workout_items"
	setCollectionName         = "sets"
)

// mongoWorkoutItemRepository implements repository.WorkoutItemRepository.
type mongoWorkoutItemRepository struct {
	collection *mongo.Collection
	// sets collection is needed for the cascade on item deletion
	setCollection *mongo.Collection
}

// NewMongoWorkoutItemRepository creates a new WorkoutItem repository.
func NewMongoWorkoutItemRepository(db *mongo.Database) repository.WorkoutItemRepository {
	return &mongoWorkoutItemRepository{
		collection:    db.Collection(workoutItemCollectionName),
		setCollection: db.Collection(setCollectionName),
	}
}

// CreateMany inserts a batch of workout items and assigns their IDs.
func (r *mongoWorkoutItemRepository) CreateMany(ctx context.Context, items []*domain.WorkoutItem) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(items))
	now := time.Now().UTC()
	for _, item := range items {
		if item.WorkoutID == primitive.NilObjectID || item.ExerciseID == primitive.NilObjectID {
			return errors.New("workout item requires workoutId and exerciseId")
		}
		if item.ID == primitive.NilObjectID {
			item.ID = primitive.NewObjectID()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		docs = append(docs, item)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByWorkoutID returns all items of a workout sorted by position.
func (r *mongoWorkoutItemRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]*domain.WorkoutItem, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"workoutId": workoutID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*domain.WorkoutItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.WorkoutItem{}
	}
	return items, nil
}

// Delete removes the item and cascades all of its sets.
func (r *mongoWorkoutItemRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if id == primitive.NilObjectID {
		return errors.New("workout item ID is required for deletion")
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	if _, err := r.setCollection.DeleteMany(ctx, bson.M{"workoutItemId": id}); err != nil {
		return err
	}
	return nil
}

// DeleteByWorkoutID removes all items of a workout and their sets.
func (r *mongoWorkoutItemRepository) DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error {
	if workoutID == primitive.NilObjectID {
		return errors.New("workout ID is required for deletion")
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"workoutId": workoutID}); err != nil {
		return err
	}
	if _, err := r.setCollection.DeleteMany(ctx, bson.M{"workoutId": workoutID}); err != nil {
		return err
	}
	return nil
}

// EnsureWorkoutItemIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutItemIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutId", Value: 1}, {Key: "position", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for %s: %v", collection.Name(), err)
	}
}
