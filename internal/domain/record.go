package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordType distinguishes the two tracked personal bests.
type RecordType string

const (
	RecordTypeWeight RecordType = "weight"
	RecordTypeVolume RecordType = "volume"
)

// Record is a durable personal-best marker. Records are only ever
// inserted when a new best is detected, never mutated.
type Record struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"userId" json:"userId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	SetID      primitive.ObjectID `bson:"setId" json:"setId"`
	Type       RecordType         `bson:"type" json:"type"`
	Value      float64            `bson:"value" json:"value"` // kilos for weight, kilos*reps for volume
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
