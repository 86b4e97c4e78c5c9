// internal/repository/mongo/workout_plan_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"fitplan/engine/internal/domain"
	"fitplan/engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutPlanCollectionName = "workout_plans"

// mongoWorkoutPlanRepository implements repository.WorkoutPlanRepository
type mongoWorkoutPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutPlanRepository creates a new WorkoutPlan repository backed by MongoDB.
func NewMongoWorkoutPlanRepository(db *mongo.Database) repository.WorkoutPlanRepository {
	return &mongoWorkoutPlanRepository{
		collection: db.Collection(workoutPlanCollectionName),
	}
}

// Create inserts a new workout plan.
func (r *mongoWorkoutPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if err := plan.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single workout plan by its ID.
func (r *mongoWorkoutPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByIDAndUser retrieves a plan only when it belongs to the given user.
func (r *mongoWorkoutPlanRepository) GetByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	filter := bson.M{"_id": id, "userId": userID}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByUser retrieves all plans owned by a user, newest first.
func (r *mongoWorkoutPlanRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findPlans(ctx, bson.M{"userId": userID}, findOptions)
}

// GetActiveByUser retrieves the user's active plans. The single-active
// invariant means this returns at most one plan in a consistent store.
func (r *mongoWorkoutPlanRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	filter := bson.M{"userId": userID, "isActive": true}
	return r.findPlans(ctx, filter, options.Find())
}

// GetDatedByUser retrieves the user's dated-mode plans, sorted by start date.
func (r *mongoWorkoutPlanRepository) GetDatedByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	filter := bson.M{"userId": userID, "mode": domain.ModeDated}
	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}})
	return r.findPlans(ctx, filter, findOptions)
}

// GetAllActive retrieves active plans across all users for the generation sweep.
func (r *mongoWorkoutPlanRepository) GetAllActive(ctx context.Context) ([]domain.WorkoutPlan, error) {
	return r.findPlans(ctx, bson.M{"isActive": true}, options.Find())
}

func (r *mongoWorkoutPlanRepository) findPlans(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.WorkoutPlan, error) {
	var plans []domain.WorkoutPlan
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	// Empty slice when nothing matched; not an error.
	return plans, nil
}

// Update modifies an existing plan's editable fields. Ownership (userId) and
// CreatedAt are never changed by an update.
func (r *mongoWorkoutPlanRepository) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("workout plan ID is required for update")
	}
	if err := plan.Validate(); err != nil {
		return err
	}

	filter := bson.M{"_id": plan.ID, "userId": plan.UserID}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":             plan.Name,
			"mode":             plan.Mode,
			"startDate":        plan.StartDate,
			"endDate":          plan.EndDate,
			"weeklyTemplate":   plan.WeeklyTemplate,
			"generationPolicy": plan.GenerationPolicy,
			"updatedAt":        time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateGenerationProgress records a successful generation run on the plan's
// embedded policy. $max keeps furthestGeneratedDate monotonic: ISO date
// strings compare lexicographically in chronological order, so a call
// carrying an earlier end date leaves the marker untouched.
func (r *mongoWorkoutPlanRepository) UpdateGenerationProgress(ctx context.Context, planID primitive.ObjectID, at time.Time, furthest domain.ISODate) error {
	filter := bson.M{"_id": planID}
	update := bson.M{
		"$set": bson.M{
			"generationPolicy.lastGenerationTime": at.UTC(),
			"updatedAt":                           time.Now().UTC(),
		},
		"$max": bson.M{
			"generationPolicy.furthestGeneratedDate": string(furthest),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetActivePlan deactivates every other plan owned by the user, then
// activates the target. The partial unique index on {userId, isActive:true}
// backstops the single-active invariant; when two activations race, the
// loser hits the index, deactivates again and retries once (last writer wins).
func (r *mongoWorkoutPlanRepository) SetActivePlan(ctx context.Context, planID, userID primitive.ObjectID) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := r.deactivateOthers(ctx, planID, userID); err != nil {
			return err
		}
		update := bson.M{"$set": bson.M{"isActive": true, "updatedAt": time.Now().UTC()}}
		result, err := r.collection.UpdateOne(ctx, bson.M{"_id": planID, "userId": userID}, update)
		if err == nil {
			if result.MatchedCount == 0 {
				return repository.ErrNotFound
			}
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		lastErr = repository.ErrDuplicate
	}
	return lastErr
}

func (r *mongoWorkoutPlanRepository) deactivateOthers(ctx context.Context, planID, userID primitive.ObjectID) error {
	filter := bson.M{
		"userId":   userID,
		"isActive": true,
		"_id":      bson.M{"$ne": planID},
	}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// SetActive flips a single plan's isActive flag, scoped to the owner.
func (r *mongoWorkoutPlanRepository) SetActive(ctx context.Context, planID, userID primitive.ObjectID, active bool) error {
	filter := bson.M{"_id": planID, "userId": userID}
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeactivateExpired deactivates dated plans whose window has passed.
// Idempotent: a second sweep matches nothing new.
func (r *mongoWorkoutPlanRepository) DeactivateExpired(ctx context.Context, today domain.ISODate) (int64, error) {
	filter := bson.M{
		"mode":     domain.ModeDated,
		"isActive": true,
		"endDate":  bson.M{"$lt": string(today)},
	}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// EnsureWorkoutPlanIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutPlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	truthy := true
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Main query pattern: a user's dated plans for conflict checks
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "mode", Value: 1}},
			Options: options.Index(),
		},
		{
			// At most one active plan per user, enforced at the storage layer
			// so a concurrent activate cannot leave two plans active.
			Keys: bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().
				SetName("one_active_plan_per_user").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isActive": truthy}),
		},
		{
			// Expiry sweep: active dated plans by end date
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
