package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecoveryStatus is the training readiness of one muscle group.
type RecoveryStatus string

const (
	RecoveryRed    RecoveryStatus = "red"    // avoid loading
	RecoveryYellow RecoveryStatus = "yellow" // light work only
	RecoveryGreen  RecoveryStatus = "green"  // ready
)

// RecoveryRecord is keyed by the unique (UserID, MuscleGroup) pair.
type RecoveryRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	MuscleGroup    string             `bson:"muscleGroup" json:"muscleGroup"`
	Status         RecoveryStatus     `bson:"status" json:"status"`
	Tip            *string            `bson:"tip,omitempty" json:"tip,omitempty"`
	LastExertionAt *time.Time         `bson:"lastExertionAt,omitempty" json:"lastExertionAt,omitempty"`
	LastUpdated    time.Time          `bson:"lastUpdated" json:"lastUpdated"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
