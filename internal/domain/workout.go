package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus tracks the lifecycle of a training session.
// Transitions: active -> finished, active -> deleted. Finished and
// deleted are terminal.
type WorkoutStatus string

const (
	StatusActive   WorkoutStatus = "active"
	StatusFinished WorkoutStatus = "finished"
	StatusDeleted  WorkoutStatus = "deleted"
)

// Workout is the aggregate root of one training session.
// Items are ordered by their Position field, not by slice index.
type Workout struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"userId" json:"userId"`
	Name       string             `bson:"name" json:"name"`
	Status     WorkoutStatus      `bson:"status" json:"status"`
	MainMuscle string             `bson:"mainMuscle,omitempty" json:"mainMuscle,omitempty"`
	Rating     *int               `bson:"rating,omitempty" json:"rating,omitempty"` // 1-5, set after finishing
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	FinishedAt *time.Time         `bson:"finishedAt,omitempty" json:"finishedAt,omitempty"`

	// Items live in their own collection; they are loaded and held in
	// memory for the duration of an active session.
	Items []*WorkoutItem `bson:"-" json:"workoutItems"`
}

// WorkoutItem is one exercise instance inside a workout.
type WorkoutItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID  primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	UserID     string             `bson:"userId" json:"userId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Position   int                `bson:"position" json:"position"` // unique within a workout
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`

	// Denormalized exercise detail, read-only for display.
	Exercise *Exercise `bson:"-" json:"exercise,omitempty"`

	Sets []*Set `bson:"-" json:"sets"`
}

// SetType is a free-form training intensity tag. There are no
// transition rules between set types.
type SetType string

const (
	SetTypeNormal SetType = "normal"
	SetTypeDrop   SetType = "drop"
	SetTypeWarmup SetType = "warmup"
	SetTypeSuper  SetType = "super"
	SetTypeInsane SetType = "insane"
)

// Set is one performed (or pending) unit of work. The numeric fields
// are nullable; which of them carry meaning depends on the owning
// exercise's type.
type Set struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutItemID primitive.ObjectID `bson:"workoutItemId" json:"workoutItemId"`
	WorkoutID     primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	ExerciseID    primitive.ObjectID `bson:"exerciseId" json:"exerciseId"` // denormalized for history lookups
	UserID        string             `bson:"userId" json:"userId"`
	Position      int                `bson:"position" json:"position"`
	Type          SetType            `bson:"type" json:"type"`
	Weight        *float64           `bson:"weight,omitempty" json:"weight,omitempty"`
	Reps          *int               `bson:"reps,omitempty" json:"reps,omitempty"`
	Distance      *float64           `bson:"distance,omitempty" json:"distance,omitempty"`
	Speed         *float64           `bson:"speed,omitempty" json:"speed,omitempty"`
	IsFinished    bool               `bson:"isFinished" json:"isFinished"`
	FinishedAt    *time.Time         `bson:"finishedAt,omitempty" json:"finishedAt,omitempty"`

	// PreviousSet is the most recent prior finished set at the same
	// position for the same exercise and user. Attached in memory only,
	// never persisted.
	PreviousSet *Set `bson:"-" json:"previousSet,omitempty"`
}

// IsActive reports whether the workout still accepts mutations.
func (w *Workout) IsActive() bool {
	return w.Status == StatusActive
}

// ItemByID finds an item of this workout by its identifier.
func (w *Workout) ItemByID(id primitive.ObjectID) *WorkoutItem {
	for _, item := range w.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// SetByID finds a set across all items of this workout and returns it
// together with its owning item.
func (w *Workout) SetByID(id primitive.ObjectID) (*WorkoutItem, *Set) {
	for _, item := range w.Items {
		for _, s := range item.Sets {
			if s.ID == id {
				return item, s
			}
		}
	}
	return nil, nil
}

// NextPosition returns the position for an item appended after all
// existing ones.
func (w *Workout) NextPosition() int {
	max := 0
	for _, item := range w.Items {
		if item.Position > max {
			max = item.Position
		}
	}
	return max + 1
}

// AllSetsFinished reports whether every set in every item is finished.
// The session store does not enforce this before finishing a workout;
// callers use it to drive a confirmation step.
func (w *Workout) AllSetsFinished() bool {
	for _, item := range w.Items {
		for _, s := range item.Sets {
			if !s.IsFinished {
				return false
			}
		}
	}
	return true
}

// NextSetPosition returns the position for a set appended to this item.
func (i *WorkoutItem) NextSetPosition() int {
	max := 0
	for _, s := range i.Sets {
		if s.Position > max {
			max = s.Position
		}
	}
	return max + 1
}

// Volume is weight times reps. Nil weight or reps contribute zero.
func (s *Set) Volume() float64 {
	if s.Weight == nil || s.Reps == nil {
		return 0
	}
	return *s.Weight * float64(*s.Reps)
}

// WeightValue returns the weight with nil treated as zero.
func (s *Set) WeightValue() float64 {
	if s.Weight == nil {
		return 0
	}
	return *s.Weight
}
