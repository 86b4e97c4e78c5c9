package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fitplan/engine/internal/domain"
	"fitplan/engine/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound     = errors.New("workout plan not found")
	ErrInvalidDateRange = errors.New("invalid date range")
)

// GenerationResult summarizes one generation call. Mode-validation failures
// surface here as Success=false with a Message rather than as an error, so
// scheduled callers can log and move on.
type GenerationResult struct {
	Success   bool           `json:"success"`
	Created   int            `json:"created"`
	Skipped   int            `json:"skipped"`
	BatchID   string         `json:"batchId,omitempty"`
	StartDate domain.ISODate `json:"startDate,omitempty"`
	EndDate   domain.ISODate `json:"endDate,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// PlanSweepOutcome is one plan's result within a generation sweep.
type PlanSweepOutcome struct {
	PlanID   primitive.ObjectID `json:"planId"`
	PlanName string             `json:"planName"`
	Result   *GenerationResult  `json:"result,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// SweepResult aggregates a GenerateForAllActivePlans run.
type SweepResult struct {
	Outcomes     []PlanSweepOutcome `json:"outcomes"`
	TotalCreated int                `json:"totalCreated"`
	Failures     int                `json:"failures"`
}

// --- Service Interface ---
type GenerationService interface {
	// Generate materializes instances for [start, end] inclusive. With
	// replaceExisting, prior plan-authored instances in the range are
	// deleted and recreated; otherwise covered slots are skipped.
	Generate(ctx context.Context, planID, userID primitive.ObjectID, start, end domain.ISODate, replaceExisting bool) (*GenerationResult, error)
	// EnsureGenerated tops the plan up so instances exist through
	// today+minDaysInAdvance. Cheap no-op when already covered.
	EnsureGenerated(ctx context.Context, planID, userID primitive.ObjectID, minDaysInAdvance int) (*GenerationResult, error)
	// GenerateForAllActivePlans runs EnsureGenerated for every active plan
	// with auto-generation enabled, isolating per-plan failures.
	GenerateForAllActivePlans(ctx context.Context) (*SweepResult, error)
}

// --- Service Implementation ---

type generationService struct {
	planRepo     repository.WorkoutPlanRepository
	instanceRepo repository.ScheduledInstanceRepository
	exerciseRepo repository.ExerciseRepository
}

// NewGenerationService creates a new instance of generationService.
func NewGenerationService(
	planRepo repository.WorkoutPlanRepository,
	instanceRepo repository.ScheduledInstanceRepository,
	exerciseRepo repository.ExerciseRepository,
) GenerationService {
	return &generationService{
		planRepo:     planRepo,
		instanceRepo: instanceRepo,
		exerciseRepo: exerciseRepo,
	}
}

func (s *generationService) Generate(ctx context.Context, planID, userID primitive.ObjectID, start, end domain.ISODate, replaceExisting bool) (*GenerationResult, error) {
	if planID == primitive.NilObjectID || userID == primitive.NilObjectID {
		return nil, errors.New("plan ID and user ID are required")
	}
	// Malformed bounds are a caller bug, not a plan-state problem: fail loudly.
	if !start.Valid() || !end.Valid() {
		return nil, fmt.Errorf("%w: %q .. %q", ErrInvalidDateRange, start, end)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s precedes start %s", ErrInvalidDateRange, end, start)
	}

	plan, err := s.planRepo.GetByIDAndUser(ctx, planID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return s.generateForPlan(ctx, plan, start, end, replaceExisting)
}

// generateForPlan runs the full orchestration for a fetched plan:
// mode validation, batch splitting, expansion, idempotent writes, and the
// policy progress update.
func (s *generationService) generateForPlan(ctx context.Context, plan *domain.WorkoutPlan, start, end domain.ISODate, replaceExisting bool) (*GenerationResult, error) {
	if msg := validateRangeForMode(plan, start, end); msg != "" {
		log.Printf("WARN: [GenerationService] plan %s: %s", plan.ID.Hex(), msg)
		return &GenerationResult{Success: false, StartDate: start, EndDate: end, Message: msg}, nil
	}

	batchID := uuid.NewString()
	now := time.Now().UTC()
	result := &GenerationResult{BatchID: batchID, StartDate: start, EndDate: end}
	preserve := plan.GenerationPolicy.PreservesUserModifications()
	// Exercise -> category cache for the whole call; a nil entry records a
	// missing exercise so it is only logged once.
	categories := make(map[primitive.ObjectID]*primitive.ObjectID)

	for _, chunk := range splitIntoChunks(start, end, plan.GenerationPolicy.EffectiveBatchSize()) {
		// Batching bounds each unit of work; honor cancellation between chunks.
		if err := ctx.Err(); err != nil {
			result.Message = fmt.Sprintf("cancelled after %d instances", result.Created)
			return result, err
		}

		batch := make([]domain.ScheduledExerciseInstance, 0, 16)
		for _, planned := range domain.ExpandTemplate(plan.WeeklyTemplate, chunk.start, chunk.end) {
			categoryID, ok, err := s.resolveCategory(ctx, planned.Template.ExerciseID, categories)
			if err != nil {
				result.Message = fmt.Sprintf("exercise lookup failed after %d instances", result.Created)
				return result, err
			}
			if !ok {
				// Referenced exercise no longer exists; skip the template,
				// not the batch.
				result.Skipped++
				continue
			}

			existing, err := s.instanceRepo.FindForSlot(ctx, plan.UserID, plan.ID, planned.Template.ExerciseID, planned.Date)
			if err != nil {
				result.Message = fmt.Sprintf("storage failure after %d instances", result.Created)
				return result, err
			}

			if replaceExisting {
				if _, err := s.instanceRepo.DeleteGenerated(ctx, repository.InstanceFilter{
					UserID:           plan.UserID,
					WorkoutPlanID:    plan.ID,
					ExerciseID:       planned.Template.ExerciseID,
					Date:             planned.Date,
					SkipUserModified: preserve,
				}); err != nil {
					result.Message = fmt.Sprintf("storage failure after %d instances", result.Created)
					return result, err
				}
			}

			if blocked(existing, replaceExisting, preserve) {
				result.Skipped++
				continue
			}

			batch = append(batch, buildInstance(plan, planned, categoryID, batchID, now))
		}

		if len(batch) == 0 {
			continue
		}
		inserted, err := s.instanceRepo.InsertMany(ctx, batch)
		result.Created += inserted
		if err != nil {
			// Committed chunks stay; regeneration is idempotent, so the
			// recovery path is simply re-invoking.
			result.Message = fmt.Sprintf("storage failure after %d instances", result.Created)
			return result, err
		}
		result.Skipped += len(batch) - inserted
	}

	if err := s.planRepo.UpdateGenerationProgress(ctx, plan.ID, now, end); err != nil {
		result.Message = "instances written but progress update failed"
		return result, err
	}

	result.Success = true
	log.Printf("INFO: [GenerationService] plan %s: generated %d instance(s) for %s .. %s (batch %s, %d skipped)",
		plan.ID.Hex(), result.Created, start, end, batchID, result.Skipped)
	return result, nil
}

func (s *generationService) EnsureGenerated(ctx context.Context, planID, userID primitive.ObjectID, minDaysInAdvance int) (*GenerationResult, error) {
	if planID == primitive.NilObjectID || userID == primitive.NilObjectID {
		return nil, errors.New("plan ID and user ID are required")
	}
	plan, err := s.planRepo.GetByIDAndUser(ctx, planID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return s.ensureGeneratedForPlan(ctx, plan, minDaysInAdvance)
}

func (s *generationService) ensureGeneratedForPlan(ctx context.Context, plan *domain.WorkoutPlan, minDaysInAdvance int) (*GenerationResult, error) {
	if minDaysInAdvance <= 0 {
		minDaysInAdvance = plan.GenerationPolicy.EffectiveAdvanceDays()
	}
	today := domain.Today()
	target := today.AddDays(minDaysInAdvance)

	furthest := plan.GenerationPolicy.FurthestGeneratedDate
	if !furthest.IsZero() && !furthest.Before(target) {
		return &GenerationResult{Success: true, Message: "already generated through " + string(furthest)}, nil
	}

	start := today
	if !furthest.IsZero() && furthest.AddDays(1).After(start) {
		start = furthest.AddDays(1)
	}
	end := target

	switch plan.Mode {
	case domain.ModeDated:
		// Clamp the gap to the plan's window instead of failing mode
		// validation on a range the plan can never cover.
		if plan.StartDate.After(start) {
			start = plan.StartDate
		}
		if plan.EndDate.Before(end) {
			end = plan.EndDate
		}
		if end.Before(start) {
			return &GenerationResult{Success: true, Message: "plan window already fully generated"}, nil
		}
	case domain.ModeOngoing:
		if created := domain.DateOf(plan.CreatedAt); start.Before(created) {
			start = created
		}
	}

	return s.generateForPlan(ctx, plan, start, end, false)
}

func (s *generationService) GenerateForAllActivePlans(ctx context.Context) (*SweepResult, error) {
	plans, err := s.planRepo.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	sweep := &SweepResult{Outcomes: make([]PlanSweepOutcome, 0, len(plans))}
	for i := range plans {
		plan := plans[i]
		if !plan.GenerationPolicy.AutoGenerationOn() {
			continue
		}
		outcome := PlanSweepOutcome{PlanID: plan.ID, PlanName: plan.Name}

		res, err := s.ensureGeneratedForPlan(ctx, &plan, plan.GenerationPolicy.EffectiveAdvanceDays())
		if res != nil {
			outcome.Result = res
			sweep.TotalCreated += res.Created
		}
		// One plan's failure must not abort the others.
		if err != nil {
			outcome.Error = err.Error()
			sweep.Failures++
			log.Printf("ERROR: [GenerationService] sweep failed for plan %s (%s): %v", plan.ID.Hex(), plan.Name, err)
		} else if res != nil && !res.Success {
			sweep.Failures++
		}
		sweep.Outcomes = append(sweep.Outcomes, outcome)

		if ctx.Err() != nil {
			return sweep, ctx.Err()
		}
	}
	return sweep, nil
}

// resolveCategory looks up the exercise's category with a per-call cache.
// Returns ok=false when the exercise no longer exists.
func (s *generationService) resolveCategory(ctx context.Context, exerciseID primitive.ObjectID, cache map[primitive.ObjectID]*primitive.ObjectID) (primitive.ObjectID, bool, error) {
	if cached, hit := cache[exerciseID]; hit {
		if cached == nil {
			return primitive.NilObjectID, false, nil
		}
		return *cached, true, nil
	}
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("WARN: [GenerationService] exercise %s referenced by template no longer exists; skipping", exerciseID.Hex())
			cache[exerciseID] = nil
			return primitive.NilObjectID, false, nil
		}
		return primitive.NilObjectID, false, err
	}
	cache[exerciseID] = &exercise.CategoryID
	return exercise.CategoryID, true, nil
}

// validateRangeForMode returns a failure reason, or "" when the range is
// allowed for the plan's mode.
func validateRangeForMode(plan *domain.WorkoutPlan, start, end domain.ISODate) string {
	switch plan.Mode {
	case domain.ModeOngoing:
		// A plan cannot retroactively generate before it existed.
		if created := domain.DateOf(plan.CreatedAt); start.Before(created) {
			return fmt.Sprintf("range starts %s, before the plan was created (%s)", start, created)
		}
	case domain.ModeDated:
		if start.Before(plan.StartDate) || end.After(plan.EndDate) {
			return fmt.Sprintf("range %s .. %s falls outside the plan window %s .. %s", start, end, plan.StartDate, plan.EndDate)
		}
	default:
		return fmt.Sprintf("unknown plan mode %q", plan.Mode)
	}
	return ""
}

type dateChunk struct {
	start domain.ISODate
	end   domain.ISODate
}

// splitIntoChunks splits [start, end] into consecutive chunks of at most
// batchSize days, in chronological order.
func splitIntoChunks(start, end domain.ISODate, batchSize int) []dateChunk {
	if batchSize < 1 {
		batchSize = domain.DefaultBatchSize
	}
	var chunks []dateChunk
	for cur := start; !cur.After(end); cur = cur.AddDays(batchSize) {
		chunkEnd := cur.AddDays(batchSize - 1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, dateChunk{start: cur, end: chunkEnd})
	}
	return chunks
}

// blocked decides whether an existing set of slot instances prevents
// creating a new one. Hidden instances always block (a suppressed slot must
// not be resurrected). Without replaceExisting any existing instance blocks
// (idempotency). With replaceExisting, survivors of the preceding delete
// (hidden, or user-modified under preserve) block recreation.
func blocked(existing []domain.ScheduledExerciseInstance, replaceExisting, preserve bool) bool {
	for i := range existing {
		if existing[i].IsHidden {
			return true
		}
		if !replaceExisting {
			return true
		}
		if preserve && existing[i].ModifiedByUser {
			return true
		}
	}
	return false
}

func buildInstance(plan *domain.WorkoutPlan, planned domain.PlannedExercise, categoryID primitive.ObjectID, batchID string, now time.Time) domain.ScheduledExerciseInstance {
	planID := plan.ID
	generatedAt := now
	return domain.ScheduledExerciseInstance{
		UserID:            plan.UserID,
		ExerciseID:        planned.Template.ExerciseID,
		CategoryID:        categoryID,
		WorkoutPlanID:     &planID,
		Date:              planned.Date,
		Sets:              planned.Template.Sets,
		Reps:              planned.Template.Reps,
		Weight:            planned.Template.Weight,
		WeightPlates:      planned.Template.WeightPlates,
		Notes:             planned.Template.Notes,
		OrderIndex:        planned.Template.OrderIndex,
		IsManual:          false,
		ModifiedByUser:    false,
		GeneratedAt:       &generatedAt,
		GenerationBatchID: batchID,
	}
}
