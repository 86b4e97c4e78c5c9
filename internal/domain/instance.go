// internal/domain/instance.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduledExerciseInstance is a dated, trackable exercise record. Instances
// are either materialized from a plan's weekly template by the generation
// engine (plan-authored) or created directly by the user (manual). The
// instance references its plan, exercise and category; it is not owned by
// them, so deleting a plan does not cascade here unless explicitly requested.
type ScheduledExerciseInstance struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID  `bson:"userId" json:"userId"`
	ExerciseID    primitive.ObjectID  `bson:"exerciseId" json:"exerciseId"`
	CategoryID    primitive.ObjectID  `bson:"categoryId" json:"categoryId"`
	WorkoutPlanID *primitive.ObjectID `bson:"workoutPlanId,omitempty" json:"workoutPlanId,omitempty"` // nil for manual instances

	// Date is the unit of scheduling: a calendar day, never a timestamp.
	Date ISODate `bson:"date" json:"date"`

	Sets         int            `bson:"sets" json:"sets"`
	Reps         int            `bson:"reps" json:"reps"`
	Weight       float64        `bson:"weight" json:"weight"`
	WeightPlates map[string]int `bson:"weightPlates,omitempty" json:"weightPlates,omitempty"`
	Notes        string         `bson:"notes,omitempty" json:"notes,omitempty"`
	OrderIndex   int            `bson:"orderIndex" json:"orderIndex"`

	Completed bool `bson:"completed" json:"completed"`
	// CompletedAt is set exactly when Completed transitions false->true and
	// cleared when the completion is reverted.
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	// IsManual marks instances created outside any plan.
	IsManual bool `bson:"isManual" json:"isManual"`
	// IsTemporaryChange marks a slot where the user overrode what the plan
	// would otherwise produce for that date.
	IsTemporaryChange bool `bson:"isTemporaryChange" json:"isTemporaryChange"`
	// IsHidden suppresses a plan-authored instance; regeneration must never
	// resurrect a hidden slot.
	IsHidden bool `bson:"isHidden" json:"isHidden"`

	// Provenance: distinguishes plan-authored records from user edits and
	// groups one generation run for observability/rollback.
	GeneratedAt       *time.Time `bson:"generatedAt,omitempty" json:"generatedAt,omitempty"`
	ModifiedByUser    bool       `bson:"modifiedByUser" json:"modifiedByUser"`
	GenerationBatchID string     `bson:"generationBatchId,omitempty" json:"generationBatchId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PlanAuthored reports whether the instance was materialized by the
// generation engine for a plan (as opposed to created manually).
func (i *ScheduledExerciseInstance) PlanAuthored() bool {
	return !i.IsManual && i.WorkoutPlanID != nil
}
