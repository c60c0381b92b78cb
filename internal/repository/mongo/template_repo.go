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

const templateCollectionName = "templates"

// mongoTemplateRepository implements repository.TemplateRepository.
type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a new Template repository.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(templateCollectionName),
	}
}

// Create inserts a new template.
func (r *mongoTemplateRepository) Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error) {
	if template.UserID == "" || template.Name == "" {
		return primitive.NilObjectID, errors.New("template requires userId and name")
	}
	template.ID = primitive.NewObjectID()
	template.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, template)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted template ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single template.
func (r *mongoTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error) {
	var template domain.Template
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// GetByUserID returns the user's templates, most recently performed first.
func (r *mongoTemplateRepository) GetByUserID(ctx context.Context, userID string) ([]domain.Template, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "lastPerformed", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var templates []domain.Template
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	if templates == nil {
		templates = []domain.Template{}
	}
	return templates, nil
}

// MarkPerformed bumps the performed counter and last-performed time.
func (r *mongoTemplateRepository) MarkPerformed(ctx context.Context, id primitive.ObjectID, performedAt time.Time) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"lastPerformed": performedAt},
			"$inc": bson.M{"timesPerformed": 1},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureTemplateIndexes creates necessary indexes. Call during startup.
func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "lastPerformed", Value: -1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for %s: %v", collection.Name(), err)
	}
}
