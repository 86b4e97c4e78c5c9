package service

import (
	"context"
	"errors"
	"time"

	"fitplan/engine/internal/domain"
	"fitplan/engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInstanceNotFound   = errors.New("scheduled exercise instance not found")
	ErrInstanceValidation = errors.New("scheduled exercise instance validation failed")
	ErrNotPlanAuthored    = errors.New("only plan-generated instances can be hidden")
)

// ManualInstanceInput is the user-supplied shape for a manual instance.
type ManualInstanceInput struct {
	ExerciseID   primitive.ObjectID
	CategoryID   primitive.ObjectID
	Date         domain.ISODate
	Sets         int
	Reps         int
	Weight       float64
	WeightPlates map[string]int
	Notes        string
	OrderIndex   int
}

// --- Service Interface ---

// InstanceService covers the user-driven lifecycle of scheduled instances:
// manual creation, edits, completion toggling, hiding and bulk clearing.
// The generation engine authors instances; this service is how users touch
// them afterwards.
type InstanceService interface {
	CreateManual(ctx context.Context, userID primitive.ObjectID, input ManualInstanceInput) (*domain.ScheduledExerciseInstance, error)
	// SetCompleted toggles completion. completedAt is stamped exactly on the
	// false->true transition and cleared on revert.
	SetCompleted(ctx context.Context, instanceID, userID primitive.ObjectID, completed bool) (*domain.ScheduledExerciseInstance, error)
	// UpdateByUser applies a user edit. Plan-authored instances are marked
	// modifiedByUser and isTemporaryChange so regeneration leaves them alone.
	UpdateByUser(ctx context.Context, instanceID, userID primitive.ObjectID, sets, reps int, weight float64, weightPlates map[string]int, notes string) (*domain.ScheduledExerciseInstance, error)
	// Hide suppresses a plan-authored instance; regeneration never
	// resurrects a hidden slot.
	Hide(ctx context.Context, instanceID, userID primitive.ObjectID) error
	// ClearDate deletes every instance the user has on one calendar day.
	ClearDate(ctx context.Context, userID primitive.ObjectID, date domain.ISODate) (int64, error)
	GetDay(ctx context.Context, userID primitive.ObjectID, date domain.ISODate) ([]domain.ScheduledExerciseInstance, error)
	GetRange(ctx context.Context, userID primitive.ObjectID, start, end domain.ISODate) ([]domain.ScheduledExerciseInstance, error)
}

// --- Service Implementation ---

type instanceService struct {
	instanceRepo repository.ScheduledInstanceRepository
}

// NewInstanceService creates a new instance of instanceService.
func NewInstanceService(instanceRepo repository.ScheduledInstanceRepository) InstanceService {
	return &instanceService{instanceRepo: instanceRepo}
}

func (s *instanceService) CreateManual(ctx context.Context, userID primitive.ObjectID, input ManualInstanceInput) (*domain.ScheduledExerciseInstance, error) {
	if userID == primitive.NilObjectID || input.ExerciseID == primitive.NilObjectID {
		return nil, errors.New("user ID and exercise ID are required")
	}
	if !input.Date.Valid() {
		return nil, ErrInstanceValidation
	}
	if input.Weight < 0 || input.Sets < 1 {
		return nil, ErrInstanceValidation
	}

	instance := &domain.ScheduledExerciseInstance{
		UserID:       userID,
		ExerciseID:   input.ExerciseID,
		CategoryID:   input.CategoryID,
		Date:         input.Date,
		Sets:         input.Sets,
		Reps:         input.Reps,
		Weight:       input.Weight,
		WeightPlates: input.WeightPlates,
		Notes:        input.Notes,
		OrderIndex:   input.OrderIndex,
		IsManual:     true,
	}

	id, err := s.instanceRepo.Create(ctx, instance)
	if err != nil {
		return nil, err
	}
	instance.ID = id
	return instance, nil
}

func (s *instanceService) SetCompleted(ctx context.Context, instanceID, userID primitive.ObjectID, completed bool) (*domain.ScheduledExerciseInstance, error) {
	instance, err := s.instanceRepo.GetByIDAndUser(ctx, instanceID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}

	if instance.Completed == completed {
		// Already in the requested state.
		return instance, nil
	}

	var completedAt *time.Time
	if completed {
		now := time.Now().UTC()
		completedAt = &now
	}
	if err := s.instanceRepo.SetCompleted(ctx, instanceID, userID, completed, completedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}

	instance.Completed = completed
	instance.CompletedAt = completedAt
	return instance, nil
}

func (s *instanceService) UpdateByUser(ctx context.Context, instanceID, userID primitive.ObjectID, sets, reps int, weight float64, weightPlates map[string]int, notes string) (*domain.ScheduledExerciseInstance, error) {
	if weight < 0 || sets < 1 {
		return nil, ErrInstanceValidation
	}

	instance, err := s.instanceRepo.GetByIDAndUser(ctx, instanceID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}

	instance.Sets = sets
	instance.Reps = reps
	instance.Weight = weight
	instance.WeightPlates = weightPlates
	instance.Notes = notes
	instance.ModifiedByUser = true
	if instance.PlanAuthored() {
		// The user overrode what the plan would produce for this slot.
		instance.IsTemporaryChange = true
	}

	if err := s.instanceRepo.Update(ctx, instance); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}
	return instance, nil
}

func (s *instanceService) Hide(ctx context.Context, instanceID, userID primitive.ObjectID) error {
	instance, err := s.instanceRepo.GetByIDAndUser(ctx, instanceID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInstanceNotFound
		}
		return err
	}
	if instance.IsManual {
		// Manual instances are deleted, not hidden; hiding exists to keep a
		// suppressed template slot from being regenerated.
		return ErrNotPlanAuthored
	}

	err = s.instanceRepo.SetHidden(ctx, instanceID, userID, true)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInstanceNotFound
	}
	return err
}

func (s *instanceService) ClearDate(ctx context.Context, userID primitive.ObjectID, date domain.ISODate) (int64, error) {
	if userID == primitive.NilObjectID {
		return 0, errors.New("user ID is required")
	}
	if !date.Valid() {
		return 0, ErrInstanceValidation
	}
	return s.instanceRepo.DeleteByUserAndDate(ctx, userID, date)
}

func (s *instanceService) GetDay(ctx context.Context, userID primitive.ObjectID, date domain.ISODate) ([]domain.ScheduledExerciseInstance, error) {
	if !date.Valid() {
		return nil, ErrInstanceValidation
	}
	return s.instanceRepo.FindByUserAndDate(ctx, userID, date)
}

func (s *instanceService) GetRange(ctx context.Context, userID primitive.ObjectID, start, end domain.ISODate) ([]domain.ScheduledExerciseInstance, error) {
	if !start.Valid() || !end.Valid() || end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	return s.instanceRepo.FindByUserAndDateRange(ctx, userID, start, end)
}
