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

const notificationCollectionName = "notifications"

type mongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new notification repository.
func NewMongoNotificationRepository(db *mongo.Database) repository.NotificationRepository {
	return &mongoNotificationRepository{
		collection: db.Collection(notificationCollectionName),
	}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	if n.UserID == primitive.NilObjectID || n.Message == "" {
		return primitive.NilObjectID, errors.New("notification requires userId and message")
	}
	n.ID = primitive.NewObjectID()
	n.IsRead = false
	n.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, n)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted notification ID")
	}
	return insertedID, nil
}

// ListByUser returns notifications newest first.
func (r *mongoNotificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error) {
	filter := bson.M{"userId": userID}
	if unreadOnly {
		filter["isRead"] = false
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []domain.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *mongoNotificationRepository) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "userId": userID}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureNotificationIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "isRead", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes for %s: %w", collection.Name(), err)
	}
	return nil
}
