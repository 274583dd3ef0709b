package mongo

import (
	"context"
	"time"

	"ironready/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// Transactions need a replica set, so the URI should name one.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary separately; Connect succeeds even when no server answers.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// mongoTransactor implements repository.Transactor with a client session.
type mongoTransactor struct {
	client *mongo.Client
}

// NewTransactor returns a Transactor bound to client.
func NewTransactor(client *mongo.Client) repository.Transactor {
	return &mongoTransactor{client: client}
}

// WithinTransaction runs fn in a multi-document transaction. The driver
// retries fn on transient transaction errors, so fn must be safe to re-run.
func (t *mongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// EnsureIndexes creates the indexes of every collection used by the service.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	steps := []struct {
		collection string
		ensure     func(context.Context, *mongo.Collection) error
	}{
		{userCollectionName, EnsureUserIndexes},
		{recoveryCollectionName, EnsureRecoveryIndexes},
		{planDayCollectionName, EnsurePlanDayIndexes},
		{sessionCollectionName, EnsureSessionIndexes},
		{setLogCollectionName, EnsureSetLogIndexes},
		{notificationCollectionName, EnsureNotificationIndexes},
	}
	for _, s := range steps {
		if err := s.ensure(ctx, db.Collection(s.collection)); err != nil {
			return err
		}
	}
	return nil
}
