package mongo

import (
	"context"
	"errors"

	"joekyx/kyx-gym/internal/domain"
	"joekyx/kyx-gym/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoSetRepository implements repository.SetRepository.
type mongoSetRepository struct {
	collection *mongo.Collection
}

// NewMongoSetRepository creates a new Set repository.
func NewMongoSetRepository(db *mongo.Database) repository.SetRepository {
	return &mongoSetRepository{
		collection: db.Collection(setCollectionName),
	}
}

// CreateMany inserts a batch of sets and assigns their IDs.
// The ephemeral previous-set hint is never written.
func (r *mongoSetRepository) CreateMany(ctx context.Context, sets []*domain.Set) error {
	if len(sets) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(sets))
	for _, s := range sets {
		if s.WorkoutItemID == primitive.NilObjectID || s.WorkoutID == primitive.NilObjectID {
			return errors.New("set requires workoutItemId and workoutId")
		}
		if s.ID == primitive.NilObjectID {
			s.ID = primitive.NewObjectID()
		}
		if s.Type == "" {
			s.Type = domain.SetTypeNormal
		}
		docs = append(docs, s)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// Update persists the sanitized field subset of a set.
func (r *mongoSetRepository) Update(ctx context.Context, id primitive.ObjectID, update repository.SetUpdate) error {
	if id == primitive.NilObjectID {
		return errors.New("set ID is required for update")
	}

	setDoc := bson.M{
		"workoutItemId": update.WorkoutItemID,
		"workoutId":     update.WorkoutID,
		"position":      update.Position,
		"weight":        update.Weight,
		"reps":          update.Reps,
		"distance":      update.Distance,
		"speed":         update.Speed,
		"isFinished":    update.IsFinished,
	}
	if update.FinishedAt != nil {
		setDoc["finishedAt"] = *update.FinishedAt
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

// Delete removes a single set.
func (r *mongoSetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if id == primitive.NilObjectID {
		return errors.New("set ID is required for deletion")
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

// GetByWorkoutID returns all sets of a workout sorted by position.
func (r *mongoSetRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]*domain.Set, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"workoutId": workoutID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []*domain.Set
	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []*domain.Set{}
	}
	return sets, nil
}

// GetLatestFinished returns the most recent finished set per
// (exercise, position) for the user, restricted to the given exercises.
// The newest-first scan keeps only the first hit per pair.
func (r *mongoSetRepository) GetLatestFinished(ctx context.Context, userID string, exerciseIDs []primitive.ObjectID) ([]*domain.Set, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	if len(exerciseIDs) == 0 {
		return []*domain.Set{}, nil
	}

	filter := bson.M{
		"userId":     userID,
		"isFinished": true,
		"exerciseId": bson.M{"$in": exerciseIDs},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "finishedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	type key struct {
		exercise primitive.ObjectID
		position int
	}
	seen := make(map[key]bool)
	var latest []*domain.Set
	for cursor.Next(ctx) {
		var s domain.Set
		if err := cursor.Decode(&s); err != nil {
			return nil, err
		}
		k := key{exercise: s.ExerciseID, position: s.Position}
		if seen[k] {
			continue
		}
		seen[k] = true
		set := s
		latest = append(latest, &set)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if latest == nil {
		latest = []*domain.Set{}
	}
	return latest, nil
}

// EnsureSetIndexes creates necessary indexes. Call during startup.
func EnsureSetIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "workoutItemId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "exerciseId", Value: 1},
				{Key: "isFinished", Value: 1},
				{Key: "finishedAt", Value: -1},
			},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for %s: %v", collection.Name(), err)
	}
}
