// internal/repository/mongo/plan_day_repo.go
package mongo

import (
	"context"
	"errors"
	"fmt"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planDayCollectionName = "workout_plan_days"

// mongoPlanDayRepository implements repository.PlanDayRepository
type mongoPlanDayRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanDayRepository creates a new plan day repository.
func NewMongoPlanDayRepository(db *mongo.Database) repository.PlanDayRepository {
	return &mongoPlanDayRepository{
		collection: db.Collection(planDayCollectionName),
	}
}

// InsertBatch writes all days with a single ordered insertMany. IDs are
// assigned here and written back into days.
func (r *mongoPlanDayRepository) InsertBatch(ctx context.Context, days []domain.WorkoutPlanDay) error {
	if len(days) == 0 {
		return errors.New("plan day batch is empty")
	}
	docs := make([]interface{}, len(days))
	for i := range days {
		if days[i].UserID == primitive.NilObjectID || days[i].GenerationID == "" {
			return errors.New("plan day requires userId and generationId")
		}
		days[i].ID = primitive.NewObjectID()
		docs[i] = days[i]
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert plan days: %w", err)
	}
	return nil
}

// GetByID retrieves a single plan day by its ID.
func (r *mongoPlanDayRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlanDay, error) {
	var day domain.WorkoutPlanDay
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&day)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &day, nil
}

// ListByUser returns every stored day, newest generation first, Monday first within one.
func (r *mongoPlanDayRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlanDay, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "generatedAt", Value: -1}, {Key: "dayIndex", Value: 1}})
	return r.find(ctx, bson.M{"userId": userID}, findOptions)
}

// LatestGeneration returns the days sharing the newest generationId.
func (r *mongoPlanDayRepository) LatestGeneration(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlanDay, error) {
	var latest domain.WorkoutPlanDay
	findOne := options.FindOne().
		SetSort(bson.D{{Key: "generatedAt", Value: -1}}).
		SetProjection(bson.M{"generationId": 1})
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}, findOne).Decode(&latest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "dayIndex", Value: 1}})
	return r.find(ctx, bson.M{"userId": userID, "generationId": latest.GenerationID}, findOptions)
}

func (r *mongoPlanDayRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.WorkoutPlanDay, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	days := []domain.WorkoutPlanDay{}
	if err = cursor.All(ctx, &days); err != nil {
		return nil, err
	}
	return days, nil
}

// EnsurePlanDayIndexes creates necessary indexes. Call during startup.
func EnsurePlanDayIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "generatedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "generationId", Value: 1}, {Key: "dayIndex", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes for %s: %w", collection.Name(), err)
	}
	return nil
}
