package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type Transaction = func(sessCtx mongo.SessionContext) (interface{}, error)

// WithTransaction runs the given function in a causally consistent session
// with snapshot reads and majority writes. The deriver uses it to keep a
// patient and its derived control and alert rows consistent. Standalone
// servers reject transactions outright; the function then runs
// sequentially on the same session.
func WithTransaction(ctx context.Context, dbClient *mongo.Client, txn Transaction) (interface{}, error) {
	session, err := dbClient.StartSession()
	if err != nil {
		return nil, fmt.Errorf("unable to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetWriteConcern(writeconcern.New(writeconcern.WMajority())).
		SetReadConcern(readconcern.Snapshot())
	result, err := session.WithTransaction(ctx, txn, txnOpts)
	if err != nil && transactionsUnsupported(err) {
		return txn(mongo.NewSessionContext(ctx, session))
	}
	return result, err
}

// transactionsUnsupported matches the IllegalOperation error a standalone
// mongod returns when a transaction starts.
func transactionsUnsupported(err error) bool {
	cmdErr := mongo.CommandError{}
	if !errors.As(err, &cmdErr) {
		return false
	}
	return cmdErr.Code == 20 && strings.Contains(cmdErr.Message, "Transaction numbers")
}
