// internal/repository/mongo/recovery_repo.go
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const recoveryCollectionName = "recoveries"

// upsertAttempts bounds retries of a first insert that lost a race on the
// unique (userId, muscleGroup) index.
const upsertAttempts = 3

// mongoRecoveryRepository implements repository.RecoveryRepository
type mongoRecoveryRepository struct {
	collection *mongo.Collection
}

// NewMongoRecoveryRepository creates a new Recovery repository.
func NewMongoRecoveryRepository(db *mongo.Database) repository.RecoveryRepository {
	return &mongoRecoveryRepository{
		collection: db.Collection(recoveryCollectionName),
	}
}

// nextLastUpdated evaluates to now, or to the stored value plus one
// millisecond when the stored value is not older than now.
func nextLastUpdated(now time.Time) bson.D {
	return bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$gt", Value: bson.A{now, bson.D{{Key: "$ifNull", Value: bson.A{"$lastUpdated", time.Time{}}}}}}},
		now,
		bson.D{{Key: "$add", Value: bson.A{"$lastUpdated", 1}}},
	}}}
}

// Upsert writes the record for (userId, muscleGroup) with one findOneAndUpdate.
func (r *mongoRecoveryRepository) Upsert(ctx context.Context, in repository.RecoveryUpsert) (*domain.RecoveryRecord, error) {
	if in.UserID == primitive.NilObjectID || in.MuscleGroup == "" {
		return nil, errors.New("recovery upsert requires userId and muscleGroup")
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	// BSON dates carry milliseconds.
	now = now.UTC().Truncate(time.Millisecond)

	var tip interface{}
	if in.Tip != nil {
		tip = bson.D{{Key: "$literal", Value: *in.Tip}}
	}
	var lastExertion interface{}
	if in.LastExertionAt != nil {
		lastExertion = in.LastExertionAt.UTC()
	}

	filter := bson.M{"userId": in.UserID, "muscleGroup": in.MuscleGroup}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(in.Status)},
			{Key: "tip", Value: tip},
			{Key: "lastExertionAt", Value: lastExertion},
			{Key: "createdAt", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$createdAt", now}}}},
			{Key: "lastUpdated", Value: nextLastUpdated(now)},
		}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var err error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		var rec domain.RecoveryRecord
		err = r.collection.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&rec)
		if err == nil {
			return &rec, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			break
		}
		// A concurrent first insert won; the next attempt matches its document.
	}
	return nil, fmt.Errorf("upsert recovery %s: %w", in.MuscleGroup, err)
}

// ListForUser returns the user's records ordered by muscle group.
func (r *mongoRecoveryRepository) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.RecoveryRecord, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "muscleGroup", Value: 1}})
	return r.find(ctx, bson.M{"userId": userID}, findOptions)
}

// ForEach decodes one record at a time from a cursor over the collection.
func (r *mongoRecoveryRepository) ForEach(ctx context.Context, fn func(domain.RecoveryRecord) error) error {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "userId", Value: 1}, {Key: "muscleGroup", Value: 1}}).
		SetBatchSize(200)
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var rec domain.RecoveryRecord
		if err := cursor.Decode(&rec); err != nil {
			return fmt.Errorf("decode recovery record: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (r *mongoRecoveryRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.RecoveryRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []domain.RecoveryRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// RefreshStatus updates status and tip if lastUpdated still equals seenLastUpdated.
func (r *mongoRecoveryRepository) RefreshStatus(ctx context.Context, id primitive.ObjectID, seenLastUpdated time.Time, status domain.RecoveryStatus, tip string) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"_id": id, "lastUpdated": seenLastUpdated}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(status)},
			{Key: "tip", Value: bson.D{{Key: "$literal", Value: tip}}},
			{Key: "lastUpdated", Value: nextLastUpdated(now)},
		}}},
	}
	result, err := r.collection.UpdateOne(ctx, filter, pipeline)
	if err != nil {
		return fmt.Errorf("refresh recovery status: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrConflict
	}
	return nil
}

// EnsureRecoveryIndexes creates the unique (userId, muscleGroup) index.
func EnsureRecoveryIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "muscleGroup", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes for %s: %w", collection.Name(), err)
	}
	return nil
}
