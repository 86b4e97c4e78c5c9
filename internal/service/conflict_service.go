package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fitplan/engine/internal/domain"
	"fitplan/engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrMergeNotImplemented = errors.New("merge conflict resolution is not implemented")
	ErrUnknownStrategy     = errors.New("unsupported conflict resolution strategy")
)

// ConflictStrategy selects how date-range conflicts between dated plans are
// resolved.
type ConflictStrategy string

const (
	// StrategyReplace deactivates every conflicting plan; the target plan
	// keeps whatever activation state it had.
	StrategyReplace ConflictStrategy = "replace"
	// StrategyKeepExisting deactivates the target plan instead, leaving the
	// pre-existing plans untouched.
	StrategyKeepExisting ConflictStrategy = "keep_existing"
	// StrategyMerge is reserved; exercise-level merge semantics are
	// undefined, so resolving with it reports merge_not_implemented.
	StrategyMerge ConflictStrategy = "merge"
)

// ConflictResolution reports what a Resolve call did.
type ConflictResolution struct {
	Resolved int    `json:"resolved"`
	Method   string `json:"method"`
}

// --- Service Interface ---
type ConflictService interface {
	// FindConflicts returns the user's dated plans whose windows overlap
	// [start, end]. excludePlanID (when non-nil-ObjectID) omits the plan
	// being checked from its own candidates.
	FindConflicts(ctx context.Context, userID primitive.ObjectID, start, end domain.ISODate, excludePlanID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	Resolve(ctx context.Context, planID, userID primitive.ObjectID, conflictIDs []primitive.ObjectID, strategy ConflictStrategy) (*ConflictResolution, error)
}

// --- Service Implementation ---

type conflictService struct {
	planRepo repository.WorkoutPlanRepository
}

// NewConflictService creates a new instance of conflictService.
func NewConflictService(planRepo repository.WorkoutPlanRepository) ConflictService {
	return &conflictService{planRepo: planRepo}
}

func (s *conflictService) FindConflicts(ctx context.Context, userID primitive.ObjectID, start, end domain.ISODate, excludePlanID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	if !start.Valid() || !end.Valid() || end.Before(start) {
		return nil, fmt.Errorf("%w: %q .. %q", ErrInvalidDateRange, start, end)
	}

	candidates, err := s.planRepo.GetDatedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	conflicts := make([]domain.WorkoutPlan, 0)
	for _, plan := range candidates {
		if plan.ID == excludePlanID {
			continue
		}
		if domain.RangesOverlap(start, end, plan.StartDate, plan.EndDate) {
			conflicts = append(conflicts, plan)
		}
	}
	return conflicts, nil
}

func (s *conflictService) Resolve(ctx context.Context, planID, userID primitive.ObjectID, conflictIDs []primitive.ObjectID, strategy ConflictStrategy) (*ConflictResolution, error) {
	if planID == primitive.NilObjectID || userID == primitive.NilObjectID {
		return nil, errors.New("plan ID and user ID are required")
	}

	switch strategy {
	case StrategyReplace:
		resolved := 0
		for _, conflictID := range conflictIDs {
			if conflictID == planID {
				continue
			}
			if err := s.planRepo.SetActive(ctx, conflictID, userID, false); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					log.Printf("WARN: [ConflictService] conflicting plan %s not found for user %s; skipping", conflictID.Hex(), userID.Hex())
					continue
				}
				return &ConflictResolution{Resolved: resolved, Method: string(StrategyReplace)}, err
			}
			resolved++
		}
		return &ConflictResolution{Resolved: resolved, Method: string(StrategyReplace)}, nil

	case StrategyKeepExisting:
		// The target steps aside; the pre-existing plans stay untouched.
		if err := s.planRepo.SetActive(ctx, planID, userID, false); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, err
		}
		return &ConflictResolution{Resolved: len(conflictIDs), Method: string(StrategyKeepExisting)}, nil

	case StrategyMerge:
		// Merge semantics (which plan's exercises win per day) are undefined;
		// report explicitly rather than silently doing nothing.
		return &ConflictResolution{Resolved: 0, Method: "merge_not_implemented"}, ErrMergeNotImplemented

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
