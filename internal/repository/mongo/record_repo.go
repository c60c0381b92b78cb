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

const recordCollectionName = "records"

// mongoRecordRepository implements repository.RecordRepository.
type mongoRecordRepository struct {
	collection *mongo.Collection
}

// NewMongoRecordRepository creates a new Record repository.
func NewMongoRecordRepository(db *mongo.Database) repository.RecordRepository {
	return &mongoRecordRepository{
		collection: db.Collection(recordCollectionName),
	}
}

// Insert stores a new personal-best marker.
func (r *mongoRecordRepository) Insert(ctx context.Context, record *domain.Record) error {
	if record.UserID == "" || record.ExerciseID == primitive.NilObjectID || record.SetID == primitive.NilObjectID {
		return errors.New("record requires userId, exerciseId and setId")
	}
	record.ID = primitive.NewObjectID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, record)
	return err
}

// GetByUser returns all records of a user.
func (r *mongoRecordRepository) GetByUser(ctx context.Context, userID string) ([]domain.Record, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

// GetByUserAndExercise returns the user's records for one exercise.
func (r *mongoRecordRepository) GetByUserAndExercise(ctx context.Context, userID string, exerciseID primitive.ObjectID) ([]domain.Record, error) {
	return r.find(ctx, bson.M{"userId": userID, "exerciseId": exerciseID})
}

func (r *mongoRecordRepository) find(ctx context.Context, filter bson.M) ([]domain.Record, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.Record
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

// EnsureRecordIndexes creates necessary indexes. Call during startup.
func EnsureRecordIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "exerciseId", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for %s: %v", collection.Name(), err)
	}
}
