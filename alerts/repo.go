package alerts

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/store"
)

//go:generate mockgen --build_flags=--mod=mod -source=./repo.go -destination=./test/mock_repository.go -package test -aux_files=github.com/sage3280/tracker/alerts=alerts.go MockRepository

type Repository interface {
	Get(ctx context.Context, id string) (*Alert, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Alert, error)
	Count(ctx context.Context, filter *Filter) (int, error)
	// ReplaceForPatient swaps the patient's alert rows for the given set.
	ReplaceForPatient(ctx context.Context, patientId primitive.ObjectID, alerts []Alert) error
	Update(ctx context.Context, id string, update Update) (*Alert, error)
	// Dismiss marks an alert ignorada without deleting it.
	Dismiss(ctx context.Context, id string) (*Alert, error)
	DeleteForPatient(ctx context.Context, patientId primitive.ObjectID) error
	Stats(ctx context.Context) (*Stats, error)
}

func NewRepository(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(CollectionName),
		logger:     logger,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

type repository struct {
	collection *mongo.Collection
	logger     *zap.SugaredLogger
}

func (r *repository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "patientId", Value: 1},
				{Key: "alertType", Value: 1},
			},
			Options: options.Index().
				SetName("AlertsByPatient"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
			},
			Options: options.Index().
				SetName("AlertsByStatus"),
		},
		{
			Keys: bson.D{
				{Key: "priorityRank", Value: 1},
				{Key: "dueDate", Value: 1},
			},
			Options: options.Index().
				SetName("AlertsByPriority"),
		},
		{
			Keys: bson.D{
				{Key: "dueDate", Value: 1},
			},
			Options: options.Index().
				SetName("AlertsByDueDate"),
		},
	})
	return err
}

func (r *repository) Get(ctx context.Context, id string) (*Alert, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	alert := &Alert{}
	err = r.collection.FindOne(ctx, bson.M{"_id": objId}).Decode(alert)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error finding alert: %w", err)
	}
	return alert, nil
}

func (r *repository) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Alert, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "priorityRank", Value: 1},
			{Key: "dueDate", Value: 1},
		}).
		SetLimit(int64(pagination.Limit)).
		SetSkip(int64(pagination.Offset))

	cursor, err := r.collection.Find(ctx, listSelector(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}

	var result []*Alert
	if err = cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding alerts list: %w", err)
	}
	return result, nil
}

func (r *repository) Count(ctx context.Context, filter *Filter) (int, error) {
	count, err := r.collection.CountDocuments(ctx, listSelector(filter))
	if err != nil {
		return 0, fmt.Errorf("error counting alerts: %w", err)
	}
	return int(count), nil
}

func (r *repository) ReplaceForPatient(ctx context.Context, patientId primitive.ObjectID, alerts []Alert) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"patientId": patientId}); err != nil {
		return fmt.Errorf("error removing stale alerts: %w", err)
	}
	if len(alerts) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(alerts))
	for _, alert := range alerts {
		alert.Id = nil
		alert.PatientId = patientId
		alert.PriorityRank = alert.Priority.Rank()
		if alert.Status == "" {
			alert.Status = StatusActiva
		}
		if alert.CreatedDate.IsZero() {
			alert.CreatedDate = time.Now()
		}
		alert.CreatedTime = time.Now()
		alert.UpdatedTime = time.Now()
		docs = append(docs, alert)
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("error inserting alerts: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, id string, update Update) (*Alert, error) {
	alert, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"updatedTime": time.Now(),
	}

	if update.Status != nil {
		alert.Status = *update.Status
		set["status"] = *update.Status
		if *update.Status == StatusCompletada && update.CompletedDate == nil {
			set["completedDate"] = time.Now()
		}
		if *update.Status == StatusNotificada && alert.NotifiedDate == nil {
			set["notifiedDate"] = time.Now()
		}
	}
	if update.DueDate != nil {
		set["dueDate"] = *update.DueDate
	}
	if update.CompletedDate != nil {
		set["completedDate"] = *update.CompletedDate
		if alert.Status != StatusCompletada {
			set["status"] = StatusCompletada
		}
	}
	if update.ActionTaken != nil {
		set["actionTaken"] = *update.ActionTaken
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}

	return r.updateOne(ctx, bson.M{"_id": alert.Id}, bson.M{"$set": set})
}

func (r *repository) Dismiss(ctx context.Context, id string) (*Alert, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	return r.updateOne(ctx, bson.M{"_id": objId}, bson.M{
		"$set": bson.M{
			"status":      StatusIgnorada,
			"updatedTime": time.Now(),
		},
	})
}

func (r *repository) DeleteForPatient(ctx context.Context, patientId primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"patientId": patientId}); err != nil {
		return fmt.Errorf("error deleting alerts: %w", err)
	}
	return nil
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
		ByType:     map[string]int{},
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error counting alerts: %w", err)
	}
	stats.Total = int(total)

	if err := r.groupCounts(ctx, "$status", stats.ByStatus); err != nil {
		return nil, err
	}
	if err := r.groupCounts(ctx, "$priority", stats.ByPriority); err != nil {
		return nil, err
	}
	if err := r.groupCounts(ctx, "$alertType", stats.ByType); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *repository) groupCounts(ctx context.Context, field string, into map[string]int) error {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":   field,
			"count": bson.M{"$sum": 1},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("error aggregating alerts by %s: %w", field, err)
	}

	var results []struct {
		Id    string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return fmt.Errorf("error decoding alert counts: %w", err)
	}

	for _, result := range results {
		into[result.Id] = result.Count
	}
	return nil
}

func (r *repository) updateOne(ctx context.Context, selector bson.M, update interface{}) (*Alert, error) {
	alert := &Alert{}
	err := r.collection.FindOneAndUpdate(ctx, selector, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(alert)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error updating alert: %w", err)
	}
	return alert, nil
}

func listSelector(filter *Filter) bson.M {
	selector := bson.M{}
	if filter == nil {
		filter = &Filter{}
	}
	if filter.PatientId != nil {
		if patientId, err := primitive.ObjectIDFromHex(*filter.PatientId); err == nil {
			selector["patientId"] = patientId
		}
	}
	if filter.Type != nil {
		selector["alertType"] = *filter.Type
	}
	if filter.Priority != nil {
		selector["priority"] = *filter.Priority
	}
	if filter.Status != nil {
		selector["status"] = *filter.Status
	}
	if filter.DueBefore != nil {
		selector["dueDate"] = bson.M{"$lte": *filter.DueBefore}
	}
	return selector
}
