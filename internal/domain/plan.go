// internal/domain/plan.go
package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanMode distinguishes open-ended plans from plans bound to a date window.
type PlanMode string

const (
	// ModeOngoing plans have no bounds and run until deactivated.
	ModeOngoing PlanMode = "ongoing"
	// ModeDated plans cover a fixed [StartDate, EndDate] window.
	ModeDated PlanMode = "dated"
)

// DaysPerWeek is the required size of a plan's weekly template.
const DaysPerWeek = 7

// WorkoutPlan is a recurring weekly workout template owned by a user.
// Activating a plan makes it the user's single source of generated
// ScheduledExerciseInstance records; at most one plan per user is active.
type WorkoutPlan struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	Name   string             `bson:"name" json:"name"`

	Mode PlanMode `bson:"mode" json:"mode"`
	// StartDate/EndDate bound dated plans only; empty for ongoing plans.
	StartDate ISODate `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   ISODate `bson:"endDate,omitempty" json:"endDate,omitempty"`

	// WeeklyTemplate holds exactly one DayTemplate per weekday (Sunday=0).
	WeeklyTemplate []DayTemplate `bson:"weeklyTemplate" json:"weeklyTemplate"`

	IsActive bool `bson:"isActive" json:"isActive"`

	GenerationPolicy GenerationPolicy `bson:"generationPolicy" json:"generationPolicy"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DayTemplate is one weekday's slice of a plan. An empty ExerciseTemplates
// list marks a rest day.
type DayTemplate struct {
	DayOfWeek         int                `bson:"dayOfWeek" json:"dayOfWeek"` // 0 (Sunday) .. 6 (Saturday)
	Name              string             `bson:"name,omitempty" json:"name,omitempty"`
	ExerciseTemplates []ExerciseTemplate `bson:"exerciseTemplates" json:"exerciseTemplates"`
}

// ExerciseTemplate prescribes one exercise within a day template. Only the
// exercise id is carried; the category is resolved at generation time.
type ExerciseTemplate struct {
	ExerciseID   primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Sets         int                `bson:"sets" json:"sets"`
	Reps         int                `bson:"reps" json:"reps"`
	Weight       float64            `bson:"weight" json:"weight"`
	WeightPlates map[string]int     `bson:"weightPlates,omitempty" json:"weightPlates,omitempty"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	OrderIndex   int                `bson:"orderIndex" json:"orderIndex"`
}

// Generation policy bounds.
const (
	DefaultAdvanceDays = 14
	MinAdvanceDays     = 1
	MaxAdvanceDays     = 90

	DefaultBatchSize = 7
	MinBatchSize     = 1
	MaxBatchSize     = 14
)

// GenerationPolicy governs how far ahead a plan's instances are generated,
// in what batch size, and whether regeneration may overwrite user edits.
// Boolean fields are pointers so that "unset" can default to true the way
// the accessors define, instead of silently reading as false.
type GenerationPolicy struct {
	AdvanceDays           int        `bson:"advanceDays,omitempty" json:"advanceDays,omitempty"`
	BatchSize             int        `bson:"batchSize,omitempty" json:"batchSize,omitempty"`
	LastGenerationTime    *time.Time `bson:"lastGenerationTime,omitempty" json:"lastGenerationTime,omitempty"`
	FurthestGeneratedDate ISODate    `bson:"furthestGeneratedDate,omitempty" json:"furthestGeneratedDate,omitempty"`

	PreserveUserModifications *bool `bson:"preserveUserModifications,omitempty" json:"preserveUserModifications,omitempty"`
	AutoGenerationEnabled     *bool `bson:"autoGenerationEnabled,omitempty" json:"autoGenerationEnabled,omitempty"`
}

// EffectiveAdvanceDays returns AdvanceDays or the default when unset.
func (p GenerationPolicy) EffectiveAdvanceDays() int {
	if p.AdvanceDays == 0 {
		return DefaultAdvanceDays
	}
	return p.AdvanceDays
}

// EffectiveBatchSize returns BatchSize or the default when unset.
func (p GenerationPolicy) EffectiveBatchSize() int {
	if p.BatchSize == 0 {
		return DefaultBatchSize
	}
	return p.BatchSize
}

// PreservesUserModifications defaults to true when unset: user-edited
// instances are never silently overwritten by regeneration.
func (p GenerationPolicy) PreservesUserModifications() bool {
	return p.PreserveUserModifications == nil || *p.PreserveUserModifications
}

// AutoGenerationOn defaults to true when unset: the plan participates in
// opportunistic/background generation sweeps.
func (p GenerationPolicy) AutoGenerationOn() bool {
	return p.AutoGenerationEnabled == nil || *p.AutoGenerationEnabled
}

// Validate checks the policy's configured ranges. Zero values are allowed
// (they mean "use the default").
func (p GenerationPolicy) Validate() error {
	if p.AdvanceDays != 0 && (p.AdvanceDays < MinAdvanceDays || p.AdvanceDays > MaxAdvanceDays) {
		return fmt.Errorf("advanceDays must be between %d and %d, got %d", MinAdvanceDays, MaxAdvanceDays, p.AdvanceDays)
	}
	if p.BatchSize != 0 && (p.BatchSize < MinBatchSize || p.BatchSize > MaxBatchSize) {
		return fmt.Errorf("batchSize must be between %d and %d, got %d", MinBatchSize, MaxBatchSize, p.BatchSize)
	}
	if !p.FurthestGeneratedDate.IsZero() && !p.FurthestGeneratedDate.Valid() {
		return fmt.Errorf("furthestGeneratedDate %q is not a valid calendar date", p.FurthestGeneratedDate)
	}
	return nil
}

// ValidateWeeklyTemplate enforces the template shape invariant: exactly one
// DayTemplate per dayOfWeek, covering {0..6} with no duplicates or gaps.
func ValidateWeeklyTemplate(template []DayTemplate) error {
	if len(template) != DaysPerWeek {
		return fmt.Errorf("weekly template must have exactly %d day entries, got %d", DaysPerWeek, len(template))
	}
	var seen [DaysPerWeek]bool
	for _, day := range template {
		if day.DayOfWeek < 0 || day.DayOfWeek >= DaysPerWeek {
			return fmt.Errorf("dayOfWeek %d out of range [0..6]", day.DayOfWeek)
		}
		if seen[day.DayOfWeek] {
			return fmt.Errorf("duplicate dayOfWeek %d in weekly template", day.DayOfWeek)
		}
		seen[day.DayOfWeek] = true
		for _, ex := range day.ExerciseTemplates {
			if ex.ExerciseID == primitive.NilObjectID {
				return fmt.Errorf("dayOfWeek %d: exercise template requires an exercise id", day.DayOfWeek)
			}
			if ex.Weight < 0 {
				return fmt.Errorf("dayOfWeek %d: weight must be >= 0, got %v", day.DayOfWeek, ex.Weight)
			}
			if ex.Sets < 0 || ex.Reps < 0 {
				return fmt.Errorf("dayOfWeek %d: sets and reps must be >= 0", day.DayOfWeek)
			}
		}
	}
	return nil
}

// Validate checks the full plan: mode, date bounds, weekly template and
// generation policy.
func (p *WorkoutPlan) Validate() error {
	if p.UserID == primitive.NilObjectID {
		return errors.New("plan requires an owning user id")
	}
	switch p.Mode {
	case ModeOngoing:
		// No bounds to check.
	case ModeDated:
		if !p.StartDate.Valid() || !p.EndDate.Valid() {
			return errors.New("dated plan requires valid startDate and endDate")
		}
		if !p.StartDate.Before(p.EndDate) {
			return fmt.Errorf("dated plan requires startDate < endDate, got %s .. %s", p.StartDate, p.EndDate)
		}
	default:
		return fmt.Errorf("unknown plan mode %q", p.Mode)
	}
	if err := ValidateWeeklyTemplate(p.WeeklyTemplate); err != nil {
		return err
	}
	return p.GenerationPolicy.Validate()
}

// Expired reports whether a dated plan's window has passed as of today.
func (p *WorkoutPlan) Expired(today ISODate) bool {
	return p.Mode == ModeDated && p.EndDate.Before(today)
}

// DayTemplateFor returns the template entry for the given weekday, or nil.
func (p *WorkoutPlan) DayTemplateFor(dayOfWeek int) *DayTemplate {
	for i := range p.WeeklyTemplate {
		if p.WeeklyTemplate[i].DayOfWeek == dayOfWeek {
			return &p.WeeklyTemplate[i]
		}
	}
	return nil
}
