package service

import (
	"context"
	"errors"
	"log"

	"fitplan/engine/internal/domain"
	"fitplan/engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Service Interface ---
type ActivationService interface {
	// Activate makes the plan the user's single active plan, deactivating
	// every other plan the user owns.
	Activate(ctx context.Context, planID, userID primitive.ObjectID) error
	// Deactivate unconditionally clears the plan's active flag.
	Deactivate(ctx context.Context, planID, userID primitive.ObjectID) error
	// DeactivateExpired sweeps dated plans whose endDate has passed.
	// Idempotent maintenance operation; returns the number affected.
	DeactivateExpired(ctx context.Context) (int64, error)
}

// --- Service Implementation ---

type activationService struct {
	planRepo repository.WorkoutPlanRepository
}

// NewActivationService creates a new instance of activationService.
func NewActivationService(planRepo repository.WorkoutPlanRepository) ActivationService {
	return &activationService{planRepo: planRepo}
}

func (s *activationService) Activate(ctx context.Context, planID, userID primitive.ObjectID) error {
	if planID == primitive.NilObjectID || userID == primitive.NilObjectID {
		return errors.New("plan ID and user ID are required")
	}

	// Existence/ownership first so "not found" is distinguishable from a
	// storage failure inside the activate-and-deactivate-others write.
	if _, err := s.planRepo.GetByIDAndUser(ctx, planID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	err := s.planRepo.SetActivePlan(ctx, planID, userID)
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost an activation race even after the repo's retry. The other
		// writer's plan stays active; the invariant itself held.
		log.Printf("WARN: [ActivationService] concurrent activation detected for user %s; plan %s not activated", userID.Hex(), planID.Hex())
		return err
	}
	return err
}

func (s *activationService) Deactivate(ctx context.Context, planID, userID primitive.ObjectID) error {
	if planID == primitive.NilObjectID || userID == primitive.NilObjectID {
		return errors.New("plan ID and user ID are required")
	}
	err := s.planRepo.SetActive(ctx, planID, userID, false)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlanNotFound
	}
	return err
}

func (s *activationService) DeactivateExpired(ctx context.Context) (int64, error) {
	count, err := s.planRepo.DeactivateExpired(ctx, domain.Today())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("INFO: [ActivationService] deactivated %d expired plan(s)", count)
	}
	return count, nil
}
