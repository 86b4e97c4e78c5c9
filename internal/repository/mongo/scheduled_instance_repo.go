// internal/repository/mongo/scheduled_instance_repo.go
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

const scheduledInstanceCollectionName = "scheduled_exercises"

// mongoScheduledInstanceRepository implements repository.ScheduledInstanceRepository
type mongoScheduledInstanceRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduledInstanceRepository creates a new ScheduledInstance repository backed by MongoDB.
func NewMongoScheduledInstanceRepository(db *mongo.Database) repository.ScheduledInstanceRepository {
	return &mongoScheduledInstanceRepository{
		collection: db.Collection(scheduledInstanceCollectionName),
	}
}

// InsertMany writes a batch of instances. The insert is unordered and the
// generated_slot_unique index rejects duplicates, so two overlapping
// generation runs cannot double-write a slot: the loser's duplicates are
// dropped and counted as skips rather than failing the batch.
func (r *mongoScheduledInstanceRepository) InsertMany(ctx context.Context, instances []domain.ScheduledExerciseInstance) (int, error) {
	if len(instances) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(instances))
	for i := range instances {
		if instances[i].ID == primitive.NilObjectID {
			instances[i].ID = primitive.NewObjectID()
		}
		instances[i].CreatedAt = now
		instances[i].UpdatedAt = now
		docs = append(docs, instances[i])
	}

	result, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	inserted := 0
	if result != nil {
		inserted = len(result.InsertedIDs)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent run already wrote some of these slots.
			return inserted, nil
		}
		return inserted, err
	}
	return inserted, nil
}

// FindForSlot returns every instance a plan produced for one
// (user, plan, exercise, date) slot, hidden ones included. Hidden instances
// must stay visible to the generator so it never resurrects them; manual
// instances carry no plan id and never match.
func (r *mongoScheduledInstanceRepository) FindForSlot(ctx context.Context, userID, planID, exerciseID primitive.ObjectID, date domain.ISODate) ([]domain.ScheduledExerciseInstance, error) {
	filter := bson.M{
		"userId":        userID,
		"workoutPlanId": planID,
		"exerciseId":    exerciseID,
		"date":          string(date),
		"isManual":      false,
	}
	return r.findInstances(ctx, filter, options.Find())
}

// DeleteGenerated removes plan-authored, non-hidden instances matching the
// filter. With SkipUserModified set, hand-edited records survive the delete.
func (r *mongoScheduledInstanceRepository) DeleteGenerated(ctx context.Context, f repository.InstanceFilter) (int64, error) {
	if f.UserID == primitive.NilObjectID {
		return 0, errors.New("instance filter requires a user id")
	}
	filter := bson.M{
		"userId":   f.UserID,
		"isManual": false,
		"isHidden": false,
	}
	if f.WorkoutPlanID != primitive.NilObjectID {
		filter["workoutPlanId"] = f.WorkoutPlanID
	}
	if f.ExerciseID != primitive.NilObjectID {
		filter["exerciseId"] = f.ExerciseID
	}
	if !f.Date.IsZero() {
		filter["date"] = string(f.Date)
	}
	if f.SkipUserModified {
		filter["modifiedByUser"] = false
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// FindByUserAndDate retrieves all of a user's instances on one calendar day,
// in orderIndex order.
func (r *mongoScheduledInstanceRepository) FindByUserAndDate(ctx context.Context, userID primitive.ObjectID, date domain.ISODate) ([]domain.ScheduledExerciseInstance, error) {
	filter := bson.M{"userId": userID, "date": string(date)}
	findOptions := options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}})
	return r.findInstances(ctx, filter, findOptions)
}

// FindByUserAndDateRange retrieves a user's instances for [start, end]
// inclusive, date then orderIndex order. String range filters work because
// ISO dates sort lexicographically.
func (r *mongoScheduledInstanceRepository) FindByUserAndDateRange(ctx context.Context, userID primitive.ObjectID, start, end domain.ISODate) ([]domain.ScheduledExerciseInstance, error) {
	filter := bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": string(start), "$lte": string(end)},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "orderIndex", Value: 1}})
	return r.findInstances(ctx, filter, findOptions)
}

func (r *mongoScheduledInstanceRepository) findInstances(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.ScheduledExerciseInstance, error) {
	var instances []domain.ScheduledExerciseInstance
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &instances); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return instances, nil
}

// GetByIDAndUser retrieves one instance scoped to its owner.
func (r *mongoScheduledInstanceRepository) GetByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.ScheduledExerciseInstance, error) {
	var instance domain.ScheduledExerciseInstance
	filter := bson.M{"_id": id, "userId": userID}
	err := r.collection.FindOne(ctx, filter).Decode(&instance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &instance, nil
}

// Create inserts a single instance (manual creation path).
func (r *mongoScheduledInstanceRepository) Create(ctx context.Context, instance *domain.ScheduledExerciseInstance) (primitive.ObjectID, error) {
	if instance.UserID == primitive.NilObjectID || instance.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("instance requires userId and exerciseId")
	}
	if !instance.Date.Valid() {
		return primitive.NilObjectID, errors.New("instance requires a valid calendar date")
	}
	instance.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	instance.CreatedAt = now
	instance.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, instance)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted instance ID")
	}
	return insertedID, nil
}

// Update modifies the user-editable fields of an instance. Provenance fields
// (isManual, generatedAt, generationBatchId) and ownership are never touched
// by a general update.
func (r *mongoScheduledInstanceRepository) Update(ctx context.Context, instance *domain.ScheduledExerciseInstance) error {
	if instance.ID == primitive.NilObjectID {
		return errors.New("instance ID is required for update")
	}

	filter := bson.M{"_id": instance.ID, "userId": instance.UserID}
	update := bson.M{
		"$set": bson.M{
			"sets":              instance.Sets,
			"reps":              instance.Reps,
			"weight":            instance.Weight,
			"weightPlates":      instance.WeightPlates,
			"notes":             instance.Notes,
			"orderIndex":        instance.OrderIndex,
			"isTemporaryChange": instance.IsTemporaryChange,
			"modifiedByUser":    instance.ModifiedByUser,
			"updatedAt":         time.Now().UTC(),
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

// SetCompleted flips the completion flag. completedAt is stored when given
// and unset otherwise, so reverting a completion clears the timestamp.
func (r *mongoScheduledInstanceRepository) SetCompleted(ctx context.Context, id, userID primitive.ObjectID, completed bool, completedAt *time.Time) error {
	filter := bson.M{"_id": id, "userId": userID}
	update := bson.M{
		"$set": bson.M{
			"completed": completed,
			"updatedAt": time.Now().UTC(),
		},
	}
	if completedAt != nil {
		update["$set"].(bson.M)["completedAt"] = completedAt.UTC()
	} else {
		update["$unset"] = bson.M{"completedAt": ""}
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

// SetHidden suppresses (or restores) a plan-authored instance.
func (r *mongoScheduledInstanceRepository) SetHidden(ctx context.Context, id, userID primitive.ObjectID, hidden bool) error {
	filter := bson.M{"_id": id, "userId": userID, "isManual": false}
	update := bson.M{"$set": bson.M{"isHidden": hidden, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByUserAndDate removes every instance a user has on one calendar day.
func (r *mongoScheduledInstanceRepository) DeleteByUserAndDate(ctx context.Context, userID primitive.ObjectID, date domain.ISODate) (int64, error) {
	filter := bson.M{"userId": userID, "date": string(date)}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureScheduledInstanceIndexes creates necessary indexes. Call during startup.
func EnsureScheduledInstanceIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Day and range views
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index(),
		},
		{
			// One visible generated instance per (user, plan, exercise, date)
			// slot. The partial filter keeps manual and hidden records out of
			// the constraint; this closes the check-then-insert race between
			// concurrent generation runs.
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "workoutPlanId", Value: 1},
				{Key: "exerciseId", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().
				SetName("generated_slot_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isManual": false, "isHidden": false}),
		},
		{
			Keys:    bson.D{{Key: "workoutPlanId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Roll up or roll back one generation run
			Keys:    bson.D{{Key: "generationBatchId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
