// internal/repository/mongo/session_repo.go
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

const (
	sessionCollectionName = "workout_sessions"
	setLogCollectionName  = "set_logs"
)

// mongoSessionRepository implements repository.SessionRepository
type mongoSessionRepository struct {
	sessions *mongo.Collection
	setLogs  *mongo.Collection
}

// NewMongoSessionRepository creates a new session repository.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		sessions: db.Collection(sessionCollectionName),
		setLogs:  db.Collection(setLogCollectionName),
	}
}

// Create inserts a new, open session.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.UserID == primitive.NilObjectID || session.PlanDayID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session requires userId and planDayId")
	}
	session.ID = primitive.NewObjectID()
	session.Completed = false
	session.EndTime = nil
	if session.StartTime.IsZero() {
		session.StartTime = time.Now().UTC()
	}

	result, err := r.sessions.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	err := r.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// MarkCompleted flips completed once. The completed=false filter makes the
// write conditional, so a second completion matches nothing.
func (r *mongoSessionRepository) MarkCompleted(ctx context.Context, id primitive.ObjectID, endTime time.Time) error {
	filter := bson.M{"_id": id, "completed": false}
	update := bson.M{
		"$set": bson.M{
			"completed": true,
			"endTime":   endTime.UTC(),
		},
	}
	result, err := r.sessions.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrConflict
	}
	return nil
}

// AddSetLog inserts one set log.
func (r *mongoSessionRepository) AddSetLog(ctx context.Context, log *domain.SetLog) (primitive.ObjectID, error) {
	if log.SessionID == primitive.NilObjectID || log.ExerciseName == "" {
		return primitive.NilObjectID, errors.New("set log requires sessionId and exerciseName")
	}
	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now().UTC()

	result, err := r.setLogs.InsertOne(ctx, log)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted set log ID")
	}
	return insertedID, nil
}

// ListSetLogs returns a session's logs in insertion order.
func (r *mongoSessionRepository) ListSetLogs(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SetLog, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.setLogs.Find(ctx, bson.M{"sessionId": sessionID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []domain.SetLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// EnsureSessionIndexes creates necessary indexes. Call during startup.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "startTime", Value: -1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes for %s: %w", collection.Name(), err)
	}
	return nil
}

// EnsureSetLogIndexes creates necessary indexes. Call during startup.
func EnsureSetLogIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes for %s: %w", collection.Name(), err)
	}
	return nil
}
