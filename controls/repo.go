package controls

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

//go:generate mockgen --build_flags=--mod=mod -source=./repo.go -destination=./test/mock_repository.go -package test -aux_files=github.com/sage3280/tracker/controls=controls.go MockRepository

type Repository interface {
	Get(ctx context.Context, id string) (*Control, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Control, error)
	Count(ctx context.Context, filter *Filter) (int, error)
	// ReplaceForPatient swaps the patient's control rows for the given set.
	ReplaceForPatient(ctx context.Context, patientId primitive.ObjectID, controls []Control) error
	Update(ctx context.Context, id string, update Update) (*Control, error)
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
				{Key: "controlType", Value: 1},
			},
			Options: options.Index().
				SetName("ControlsByPatient"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
			},
			Options: options.Index().
				SetName("ControlsByStatus"),
		},
		{
			Keys: bson.D{
				{Key: "isUrgent", Value: -1},
				{Key: "priorityScore", Value: -1},
			},
			Options: options.Index().
				SetName("ControlsByUrgency"),
		},
		{
			Keys: bson.D{
				{Key: "dueDate", Value: 1},
			},
			Options: options.Index().
				SetName("ControlsByDueDate"),
		},
	})
	return err
}

func (r *repository) Get(ctx context.Context, id string) (*Control, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	control := &Control{}
	err = r.collection.FindOne(ctx, bson.M{"_id": objId}).Decode(control)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error finding control: %w", err)
	}
	return control, nil
}

func (r *repository) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Control, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "isUrgent", Value: -1},
			{Key: "priorityScore", Value: -1},
			{Key: "dueDate", Value: 1},
		}).
		SetLimit(int64(pagination.Limit)).
		SetSkip(int64(pagination.Offset))

	cursor, err := r.collection.Find(ctx, listSelector(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("error listing controls: %w", err)
	}

	var result []*Control
	if err = cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding controls list: %w", err)
	}
	return result, nil
}

func (r *repository) Count(ctx context.Context, filter *Filter) (int, error) {
	count, err := r.collection.CountDocuments(ctx, listSelector(filter))
	if err != nil {
		return 0, fmt.Errorf("error counting controls: %w", err)
	}
	return int(count), nil
}

func (r *repository) ReplaceForPatient(ctx context.Context, patientId primitive.ObjectID, controls []Control) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"patientId": patientId}); err != nil {
		return fmt.Errorf("error removing stale controls: %w", err)
	}
	if len(controls) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(controls))
	for _, control := range controls {
		control.Id = nil
		control.PatientId = patientId
		control.CreatedTime = time.Now()
		control.UpdatedTime = time.Now()
		docs = append(docs, control)
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("error inserting controls: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, id string, update Update) (*Control, error) {
	control, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"updatedTime": time.Now(),
	}

	if update.Status != nil {
		control.Status = *update.Status
		set["status"] = *update.Status
		if *update.Status == StatusCompletado && update.CompletedDate == nil {
			set["completedDate"] = time.Now()
		}
	}
	if update.ScheduledDate != nil {
		set["scheduledDate"] = *update.ScheduledDate
		if control.Status == StatusPendiente {
			control.Status = StatusProgramado
			set["status"] = StatusProgramado
		}
	}
	if update.CompletedDate != nil {
		set["completedDate"] = *update.CompletedDate
		if control.Status != StatusCompletado {
			set["status"] = StatusCompletado
		}
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}

	updated := &Control{}
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": control.Id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(updated)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error updating control: %w", err)
	}
	return updated, nil
}

func (r *repository) DeleteForPatient(ctx context.Context, patientId primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"patientId": patientId}); err != nil {
		return fmt.Errorf("error deleting controls: %w", err)
	}
	return nil
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus: map[string]int{},
		ByType:   map[string]int{},
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error counting controls: %w", err)
	}
	stats.Total = int(total)

	urgent, err := r.collection.CountDocuments(ctx, bson.M{"isUrgent": true})
	if err != nil {
		return nil, fmt.Errorf("error counting urgent controls: %w", err)
	}
	stats.UrgentCount = int(urgent)

	if err := r.groupCounts(ctx, "$status", stats.ByStatus); err != nil {
		return nil, err
	}
	if err := r.groupCounts(ctx, "$controlType", stats.ByType); err != nil {
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
		return fmt.Errorf("error aggregating controls by %s: %w", field, err)
	}

	var results []struct {
		Id    string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return fmt.Errorf("error decoding control counts: %w", err)
	}

	for _, result := range results {
		into[result.Id] = result.Count
	}
	return nil
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
		selector["controlType"] = *filter.Type
	}
	if filter.Status != nil {
		selector["status"] = *filter.Status
	}
	if filter.UrgentOnly {
		selector["isUrgent"] = true
	}
	return selector
}
