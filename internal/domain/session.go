package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutSession is one performance of a plan day. Completed is write-once.
type WorkoutSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	PlanDayID primitive.ObjectID `bson:"planDayId" json:"planDayId"`
	StartTime time.Time          `bson:"startTime" json:"startTime"`
	EndTime   *time.Time         `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Completed bool               `bson:"completed" json:"completed"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// SetLog records one performed set; it belongs to exactly one session.
type SetLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID    primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	ExerciseName string             `bson:"exerciseName" json:"exerciseName"`
	SetNumber    int                `bson:"setNumber" json:"setNumber"`
	RepsDone     int                `bson:"repsDone" json:"repsDone"`
	WeightUsed   *float64           `bson:"weightUsed,omitempty" json:"weightUsed,omitempty"` // nil for bodyweight
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
