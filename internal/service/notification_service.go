package service

import (
	"context"
	"errors"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationService interface {
	List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error
}

type notificationService struct {
	notifications repository.NotificationRepository
}

func NewNotificationService(notifications repository.NotificationRepository) NotificationService {
	return &notificationService{notifications: notifications}
}

func (s *notificationService) List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error) {
	list, err := s.notifications.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Notification{}
	}
	return list, nil
}

// MarkRead only touches notifications owned by userID.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	err := s.notifications.MarkRead(ctx, notificationID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}
