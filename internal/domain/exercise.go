package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseType determines which numeric set fields carry meaning:
// weight -> weight/reps, speed -> distance/speed, time and other are
// logged without targets.
type ExerciseType string

const (
	ExerciseTypeWeight ExerciseType = "weight"
	ExerciseTypeSpeed  ExerciseType = "speed"
	ExerciseTypeTime   ExerciseType = "time"
	ExerciseTypeOther  ExerciseType = "other"
)

// Exercise is a single exercise definition in the library.
type Exercise struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Type      ExerciseType       `bson:"type" json:"type"`
	Category  string             `bson:"category,omitempty" json:"category,omitempty"`
	OwnerID   string             `bson:"ownerId,omitempty" json:"ownerId,omitempty"` // empty for built-in exercises
	ImageKey  string             `bson:"imageKey,omitempty" json:"-"`                // object key in the media bucket
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	// Muscles targeted by this exercise, loaded via the muscle links.
	Muscles []Muscle `bson:"-" json:"muscles,omitempty"`
}

// Muscle is a muscle (group) an exercise can target.
type Muscle struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// ExerciseMuscle links an exercise to one targeted muscle.
type ExerciseMuscle struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	MuscleID   primitive.ObjectID `bson:"muscleId" json:"muscleId"`
}
