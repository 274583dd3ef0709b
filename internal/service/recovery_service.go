package service

import (
	"context"
	"strings"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// frontMuscles are drawn on the front of the body diagram; every other
// muscle group goes on the back.
var frontMuscles = map[string]bool{"chest": true, "quads": true, "abs": true}

// BodyDiagram maps muscle groups to their recovery status per body side.
type BodyDiagram struct {
	Front map[string]domain.RecoveryStatus `json:"front"`
	Back  map[string]domain.RecoveryStatus `json:"back"`
	Tips  map[string]string                `json:"tips"`
}

type RecoveryService interface {
	List(ctx context.Context, userID primitive.ObjectID) ([]domain.RecoveryRecord, error)
	BodyDiagram(ctx context.Context, userID primitive.ObjectID) (*BodyDiagram, error)
}

type recoveryService struct {
	recoveryRepo repository.RecoveryRepository
}

func NewRecoveryService(recoveryRepo repository.RecoveryRepository) RecoveryService {
	return &recoveryService{recoveryRepo: recoveryRepo}
}

func (s *recoveryService) List(ctx context.Context, userID primitive.ObjectID) ([]domain.RecoveryRecord, error) {
	records, err := s.recoveryRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.RecoveryRecord{}
	}
	return records, nil
}

func (s *recoveryService) BodyDiagram(ctx context.Context, userID primitive.ObjectID) (*BodyDiagram, error) {
	records, err := s.recoveryRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	diagram := &BodyDiagram{
		Front: map[string]domain.RecoveryStatus{},
		Back:  map[string]domain.RecoveryStatus{},
		Tips:  map[string]string{},
	}
	for _, rec := range records {
		if frontMuscles[strings.ToLower(rec.MuscleGroup)] {
			diagram.Front[rec.MuscleGroup] = rec.Status
		} else {
			diagram.Back[rec.MuscleGroup] = rec.Status
		}
		if rec.Tip != nil {
			diagram.Tips[rec.MuscleGroup] = *rec.Tip
		}
	}
	return diagram, nil
}
