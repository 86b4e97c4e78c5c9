package service

import (
	"context"
	"time"

	"fitplan/engine/internal/domain"
	"fitplan/engine/internal/repository"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockWorkoutPlanRepository is a mock type for the WorkoutPlanRepository interface
type MockWorkoutPlanRepository struct {
	mock.Mock
}

func (m *MockWorkoutPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *MockWorkoutPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkoutPlan), args.Error(1)
}

func (m *MockWorkoutPlanRepository) GetByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkoutPlan), args.Error(1)
}

func (m *MockWorkoutPlanRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WorkoutPlan), args.Error(1)
}

func (m *MockWorkoutPlanRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WorkoutPlan), args.Error(1)
}

func (m *MockWorkoutPlanRepository) GetDatedByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WorkoutPlan), args.Error(1)
}

func (m *MockWorkoutPlanRepository) GetAllActive(ctx context.Context) ([]domain.WorkoutPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WorkoutPlan), args.Error(1)
}

func (m *MockWorkoutPlanRepository) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockWorkoutPlanRepository) UpdateGenerationProgress(ctx context.Context, planID primitive.ObjectID, at time.Time, furthest domain.ISODate) error {
	args := m.Called(ctx, planID, at, furthest)
	return args.Error(0)
}

func (m *MockWorkoutPlanRepository) SetActivePlan(ctx context.Context, planID, userID primitive.ObjectID) error {
	args := m.Called(ctx, planID, userID)
	return args.Error(0)
}

func (m *MockWorkoutPlanRepository) SetActive(ctx context.Context, planID, userID primitive.ObjectID, active bool) error {
	args := m.Called(ctx, planID, userID, active)
	return args.Error(0)
}

func (m *MockWorkoutPlanRepository) DeactivateExpired(ctx context.Context, today domain.ISODate) (int64, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(int64), args.Error(1)
}

// MockScheduledInstanceRepository is a mock type for the ScheduledInstanceRepository interface
type MockScheduledInstanceRepository struct {
	mock.Mock
}

func (m *MockScheduledInstanceRepository) InsertMany(ctx context.Context, instances []domain.ScheduledExerciseInstance) (int, error) {
	args := m.Called(ctx, instances)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduledInstanceRepository) FindForSlot(ctx context.Context, userID, planID, exerciseID primitive.ObjectID, date domain.ISODate) ([]domain.ScheduledExerciseInstance, error) {
	args := m.Called(ctx, userID, planID, exerciseID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledExerciseInstance), args.Error(1)
}

func (m *MockScheduledInstanceRepository) DeleteGenerated(ctx context.Context, filter repository.InstanceFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScheduledInstanceRepository) FindByUserAndDate(ctx context.Context, userID primitive.ObjectID, date domain.ISODate) ([]domain.ScheduledExerciseInstance, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledExerciseInstance), args.Error(1)
}

func (m *MockScheduledInstanceRepository) FindByUserAndDateRange(ctx context.Context, userID primitive.ObjectID, start, end domain.ISODate) ([]domain.ScheduledExerciseInstance, error) {
	args := m.Called(ctx, userID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledExerciseInstance), args.Error(1)
}

func (m *MockScheduledInstanceRepository) GetByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.ScheduledExerciseInstance, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduledExerciseInstance), args.Error(1)
}

func (m *MockScheduledInstanceRepository) Create(ctx context.Context, instance *domain.ScheduledExerciseInstance) (primitive.ObjectID, error) {
	args := m.Called(ctx, instance)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *MockScheduledInstanceRepository) Update(ctx context.Context, instance *domain.ScheduledExerciseInstance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

func (m *MockScheduledInstanceRepository) SetCompleted(ctx context.Context, id, userID primitive.ObjectID, completed bool, completedAt *time.Time) error {
	args := m.Called(ctx, id, userID, completed, completedAt)
	return args.Error(0)
}

func (m *MockScheduledInstanceRepository) SetHidden(ctx context.Context, id, userID primitive.ObjectID, hidden bool) error {
	args := m.Called(ctx, id, userID, hidden)
	return args.Error(0)
}

func (m *MockScheduledInstanceRepository) DeleteByUserAndDate(ctx context.Context, userID primitive.ObjectID, date domain.ISODate) (int64, error) {
	args := m.Called(ctx, userID, date)
	return args.Get(0).(int64), args.Error(1)
}

// MockExerciseRepository is a mock type for the ExerciseRepository interface
type MockExerciseRepository struct {
	mock.Mock
}

func (m *MockExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exercise), args.Error(1)
}
