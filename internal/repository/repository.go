package repository

import (
	"context"
	"time"

	"joekyx/kyx-gym/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// WorkoutUpdate is the field subset a workout update may touch.
// Nil fields are left unchanged.
type WorkoutUpdate struct {
	Name       *string
	Status     *domain.WorkoutStatus
	MainMuscle *string
	Rating     *int
	FinishedAt *time.Time
}

// SetUpdate is the sanitized field subset persisted for a set. Anything
// else on the in-memory Set (previous-set hint, denormalized exercise
// data) must never reach the store through an update. Type is also
// outside the subset: a type changed mid-session lives in memory only
// and reverts to the stored value when the session is rebuilt.
type SetUpdate struct {
	WorkoutItemID primitive.ObjectID
	WorkoutID     primitive.ObjectID
	Position      int
	Weight        *float64
	Reps          *int
	Distance      *float64
	Speed         *float64
	IsFinished    bool
	FinishedAt    *time.Time
}

// WorkoutRepository is the durable owner of workout aggregates.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	Update(ctx context.Context, id primitive.ObjectID, update WorkoutUpdate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// GetActiveByUser returns the user's active workout, or ErrNotFound.
	GetActiveByUser(ctx context.Context, userID string) (*domain.Workout, error)
	GetFinishedByUser(ctx context.Context, userID string) ([]domain.Workout, error)
	// GetWorkoutDays returns the creation timestamps of every workout the
	// user has, regardless of status. Used for streak computation.
	GetWorkoutDays(ctx context.Context, userID string) ([]time.Time, error)
}

// WorkoutItemRepository persists exercise instances of a workout.
type WorkoutItemRepository interface {
	CreateMany(ctx context.Context, items []*domain.WorkoutItem) error
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]*domain.WorkoutItem, error)
	// Delete removes the item and cascades its sets.
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error
}

// SetRepository persists the sets of workout items.
type SetRepository interface {
	CreateMany(ctx context.Context, sets []*domain.Set) error
	Update(ctx context.Context, id primitive.ObjectID, update SetUpdate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]*domain.Set, error)
	// GetLatestFinished returns, per (exercise, position), the most recent
	// finished set of the user across all history, for the given exercises.
	GetLatestFinished(ctx context.Context, userID string, exerciseIDs []primitive.ObjectID) ([]*domain.Set, error)
}

// ExerciseRepository holds the exercise library and its muscle links.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	LinkMuscles(ctx context.Context, exerciseID primitive.ObjectID, muscleIDs []primitive.ObjectID) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Exercise, error)
	List(ctx context.Context, ownerID string) ([]*domain.Exercise, error)
	SetImageKey(ctx context.Context, id primitive.ObjectID, imageKey string) error
}

// TemplateRepository holds reusable workout blueprints.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.Template, error)
	// MarkPerformed bumps the performed counter and last-performed time.
	MarkPerformed(ctx context.Context, id primitive.ObjectID, performedAt time.Time) error
}

// RecordRepository stores personal-best markers. Insert only.
type RecordRepository interface {
	Insert(ctx context.Context, record *domain.Record) error
	GetByUser(ctx context.Context, userID string) ([]domain.Record, error)
	GetByUserAndExercise(ctx context.Context, userID string, exerciseID primitive.ObjectID) ([]domain.Record, error)
}
