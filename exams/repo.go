package exams

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

	"github.com/sage3280/tracker/alerts"
)

//go:generate mockgen --build_flags=--mod=mod -source=./repo.go -destination=./test/mock_repository.go -package test -aux_files=github.com/sage3280/tracker/exams=exams.go MockRepository

type Repository interface {
	Create(ctx context.Context, exam *Exam) (*Exam, error)
	Get(ctx context.Context, id string) (*Exam, error)
	ListByPatient(ctx context.Context, patientId primitive.ObjectID) ([]*Exam, error)
	// LatestByPatient returns the most recent exam date per type. The
	// result is the lastExams input of alert generation.
	LatestByPatient(ctx context.Context, patientId primitive.ObjectID) (map[alerts.Type]time.Time, error)
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
				{Key: "examType", Value: 1},
				{Key: "examDate", Value: -1},
			},
			Options: options.Index().
				SetName("ExamsByPatient"),
		},
		{
			Keys: bson.D{
				{Key: "examDate", Value: -1},
			},
			Options: options.Index().
				SetName("ExamsByDate"),
		},
	})
	return err
}

func (r *repository) Create(ctx context.Context, exam *Exam) (*Exam, error) {
	if exam.Result == "" {
		exam.Result = ResultPendiente
	}
	exam.CreatedTime = time.Now()
	exam.UpdatedTime = time.Now()

	res, err := r.collection.InsertOne(ctx, exam)
	if err != nil {
		return nil, fmt.Errorf("error creating exam: %w", err)
	}

	id := res.InsertedID.(primitive.ObjectID)
	return r.Get(ctx, id.Hex())
}

func (r *repository) Get(ctx context.Context, id string) (*Exam, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	exam := &Exam{}
	err = r.collection.FindOne(ctx, bson.M{"_id": objId}).Decode(exam)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error finding exam: %w", err)
	}
	return exam, nil
}

func (r *repository) ListByPatient(ctx context.Context, patientId primitive.ObjectID) ([]*Exam, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "examDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"patientId": patientId}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing exams: %w", err)
	}

	var result []*Exam
	if err = cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding exams list: %w", err)
	}
	return result, nil
}

func (r *repository) LatestByPatient(ctx context.Context, patientId primitive.ObjectID) (map[alerts.Type]time.Time, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"patientId": patientId}},
		{"$group": bson.M{
			"_id":      "$examType",
			"lastDate": bson.M{"$max": "$examDate"},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating exam history: %w", err)
	}

	var results []struct {
		Type     alerts.Type `bson:"_id"`
		LastDate time.Time   `bson:"lastDate"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("error decoding exam history: %w", err)
	}

	latest := make(map[alerts.Type]time.Time, len(results))
	for _, result := range results {
		latest[result.Type] = result.LastDate
	}
	return latest, nil
}
