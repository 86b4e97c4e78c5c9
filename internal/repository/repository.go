package repository

import (
	"context"
	"time"

	"fitplan/engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	// ErrDuplicate signals a uniqueness-constraint violation, e.g. a second
	// active plan for a user or a duplicate generated slot.
	ErrDuplicate = RepositoryError("duplicate")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// InstanceFilter narrows bulk operations on scheduled instances. Zero-valued
// fields are ignored. PlanAuthoredOnly restricts to non-manual records and
// SkipUserModified excludes records the user has hand-edited.
type InstanceFilter struct {
	UserID           primitive.ObjectID
	WorkoutPlanID    primitive.ObjectID
	ExerciseID       primitive.ObjectID
	Date             domain.ISODate
	PlanAuthoredOnly bool
	SkipUserModified bool
}

// WorkoutPlanRepository defines the interface for interacting with workout plan data.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	GetByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutPlan, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	// GetDatedByUser lists the user's dated-mode plans, the only conflict
	// candidates.
	GetDatedByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	// GetAllActive lists active plans across all users, for the generation sweep.
	GetAllActive(ctx context.Context) ([]domain.WorkoutPlan, error)
	Update(ctx context.Context, plan *domain.WorkoutPlan) error
	// UpdateGenerationProgress records a successful generation run. The
	// furthest-generated marker only ever advances; a call carrying an
	// earlier date must not regress it.
	UpdateGenerationProgress(ctx context.Context, planID primitive.ObjectID, at time.Time, furthest domain.ISODate) error
	// SetActivePlan deactivates every other plan owned by the user, then
	// activates the target, as one storage-level operation.
	SetActivePlan(ctx context.Context, planID, userID primitive.ObjectID) error
	SetActive(ctx context.Context, planID, userID primitive.ObjectID, active bool) error
	// DeactivateExpired flips isActive off for dated plans whose endDate has
	// passed. Returns the number of plans affected.
	DeactivateExpired(ctx context.Context, today domain.ISODate) (int64, error)
}

// ScheduledInstanceRepository defines the interface for interacting with
// generated and manual scheduled-exercise instances.
type ScheduledInstanceRepository interface {
	// InsertMany writes a batch of instances, tolerating duplicate-slot
	// collisions from concurrent generation runs. Returns the number
	// actually inserted.
	InsertMany(ctx context.Context, instances []domain.ScheduledExerciseInstance) (int, error)
	// FindForSlot returns every instance (hidden or not) a plan produced for
	// one (user, plan, exercise, date) slot. Manual instances never match.
	FindForSlot(ctx context.Context, userID, planID, exerciseID primitive.ObjectID, date domain.ISODate) ([]domain.ScheduledExerciseInstance, error)
	// DeleteGenerated removes plan-authored, non-hidden instances matching
	// the filter. Returns the number deleted.
	DeleteGenerated(ctx context.Context, filter InstanceFilter) (int64, error)
	FindByUserAndDate(ctx context.Context, userID primitive.ObjectID, date domain.ISODate) ([]domain.ScheduledExerciseInstance, error)
	FindByUserAndDateRange(ctx context.Context, userID primitive.ObjectID, start, end domain.ISODate) ([]domain.ScheduledExerciseInstance, error)
	GetByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.ScheduledExerciseInstance, error)
	Create(ctx context.Context, instance *domain.ScheduledExerciseInstance) (primitive.ObjectID, error)
	Update(ctx context.Context, instance *domain.ScheduledExerciseInstance) error
	SetCompleted(ctx context.Context, id, userID primitive.ObjectID, completed bool, completedAt *time.Time) error
	SetHidden(ctx context.Context, id, userID primitive.ObjectID, hidden bool) error
	DeleteByUserAndDate(ctx context.Context, userID primitive.ObjectID, date domain.ISODate) (int64, error)
}

// ExerciseRepository defines the read surface the engine needs from the
// exercise library: category resolution at generation time.
type ExerciseRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
}
