package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/store"
)

//go:generate mockgen --build_flags=--mod=mod -source=./repo.go -destination=./test/mock_recorder.go -package test -aux_files=github.com/sage3280/tracker/audit=audit.go MockRecorder

type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Entry, error)
}

func NewRecorder(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Recorder, error) {
	recorder := &recorder{
		collection: db.Collection(CollectionName),
		logger:     logger,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return recorder.Initialize(ctx)
		},
	})

	return recorder, nil
}

type recorder struct {
	collection *mongo.Collection
	logger     *zap.SugaredLogger
}

func (r *recorder) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "createdTime", Value: -1},
			},
			Options: options.Index().
				SetName("AuditByDate"),
		},
		{
			Keys: bson.D{
				{Key: "action", Value: 1},
				{Key: "createdTime", Value: -1},
			},
			Options: options.Index().
				SetName("AuditByAction"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "createdTime", Value: -1},
			},
			Options: options.Index().
				SetName("AuditByCategory"),
		},
		{
			Keys: bson.D{
				{Key: "username", Value: 1},
				{Key: "createdTime", Value: -1},
			},
			Options: options.Index().
				SetName("AuditByUser"),
		},
	})
	return err
}

func (r *recorder) Record(ctx context.Context, entry Entry) error {
	entry.Id = nil
	if entry.CreatedTime.IsZero() {
		entry.CreatedTime = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("error recording audit entry: %w", err)
	}
	return nil
}

func (r *recorder) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Entry, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "createdTime", Value: -1},
		}).
		SetLimit(int64(pagination.Limit)).
		SetSkip(int64(pagination.Offset))

	cursor, err := r.collection.Find(ctx, listSelector(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("error listing audit entries: %w", err)
	}

	var result []*Entry
	if err = cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding audit entries: %w", err)
	}
	return result, nil
}

func listSelector(filter *Filter) bson.M {
	selector := bson.M{}
	if filter == nil {
		filter = &Filter{}
	}
	if filter.Action != nil {
		selector["action"] = *filter.Action
	}
	if filter.Category != nil {
		selector["category"] = *filter.Category
	}
	if filter.Username != nil {
		selector["username"] = *filter.Username
	}
	if filter.From != nil || filter.To != nil {
		createdTime := bson.M{}
		if filter.From != nil {
			createdTime["$gte"] = *filter.From
		}
		if filter.To != nil {
			createdTime["$lte"] = *filter.To
		}
		selector["createdTime"] = createdTime
	}
	return selector
}
