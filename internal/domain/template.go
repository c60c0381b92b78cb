package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Template is a reusable workout blueprint. It is never executed
// directly, only materialized into a fresh Workout aggregate.
type Template struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"userId" json:"userId"`
	Name           string             `bson:"name" json:"name"`
	MainMuscle     string             `bson:"mainMuscle,omitempty" json:"mainMuscle,omitempty"`
	LastPerformed  *time.Time         `bson:"lastPerformed,omitempty" json:"lastPerformed,omitempty"`
	TimesPerformed int                `bson:"timesPerformed" json:"timesPerformed"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`

	Items []TemplateItem `bson:"items" json:"templateItems"`
}

// TemplateItem places one exercise at a position within the blueprint.
type TemplateItem struct {
	ExerciseID   primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Position     int                `bson:"position" json:"position"`
	AmountOfSets int                `bson:"amountOfSets" json:"amountOfSets"`
}
