package patients

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

	"github.com/sage3280/tracker/deletions"
	"github.com/sage3280/tracker/store"
)

//go:generate mockgen --build_flags=--mod=mod -source=./repo.go -destination=./test/mock_repository.go -package test -aux_files=github.com/sage3280/tracker/patients=patients.go MockRepository

type Repository interface {
	Get(ctx context.Context, id string) (*Patient, error)
	GetByDocument(ctx context.Context, documentNumber string) (*Patient, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error)
	Count(ctx context.Context, filter *Filter) (int, error)
	Create(ctx context.Context, patient Patient) (*Patient, error)
	Update(ctx context.Context, id string, patient Patient) (*Patient, error)
	MarkContacted(ctx context.Context, id string, notes *string) (*Patient, error)
	Deactivate(ctx context.Context, id string, metadata deletions.Metadata) error
}

func NewRepository(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Repository, error) {
	deletionsRepo, err := deletions.NewRepository[Patient]("patient", db, logger)
	if err != nil {
		return nil, err
	}

	repo := &repository{
		collection:    db.Collection(CollectionName),
		deletionsRepo: deletionsRepo,
		logger:        logger,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := repo.Initialize(ctx); err != nil {
				return err
			}
			return repo.deletionsRepo.Initialize(ctx, []string{"documentNumber"})
		},
	})

	return repo, nil
}

type repository struct {
	collection    *mongo.Collection
	deletionsRepo deletions.Repository[Patient]
	logger        *zap.SugaredLogger
}

func (r *repository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "documentNumber", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("UniqueDocumentNumber"),
		},
		{
			Keys: bson.D{
				{Key: "fullName", Value: "text"},
				{Key: "documentNumber", Value: "text"},
			},
			Options: options.Index().
				SetName("PatientSearch"),
		},
		{
			Keys: bson.D{
				{Key: "isActive", Value: 1},
				{Key: "ageGroup", Value: 1},
			},
			Options: options.Index().
				SetName("PatientsByAgeGroup"),
		},
		{
			Keys: bson.D{
				{Key: "isActive", Value: 1},
				{Key: "attentionType", Value: 1},
			},
			Options: options.Index().
				SetName("PatientsByAttentionType"),
		},
		{
			Keys: bson.D{
				{Key: "priorityScore", Value: -1},
			},
			Options: options.Index().
				SetName("PatientsByPriorityScore"),
		},
		{
			Keys: bson.D{
				{Key: "createdTime", Value: 1},
			},
			Options: options.Index().
				SetName("PatientsByCreatedTime"),
		},
	})
	return err
}

func (r *repository) Get(ctx context.Context, id string) (*Patient, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, bson.M{"_id": objId})
}

func (r *repository) GetByDocument(ctx context.Context, documentNumber string) (*Patient, error) {
	return r.getOne(ctx, bson.M{"documentNumber": documentNumber})
}

func (r *repository) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "priorityScore", Value: -1}, {Key: "createdTime", Value: -1}}).
		SetLimit(int64(pagination.Limit)).
		SetSkip(int64(pagination.Offset))

	selector := listSelector(filter)
	if filter != nil && filter.Search != nil {
		textScore := bson.M{
			"score": bson.M{
				"$meta": "textScore",
			},
		}
		opts.SetProjection(textScore)
		opts.SetSort(textScore)
	}

	cursor, err := r.collection.Find(ctx, selector, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing patients: %w", err)
	}

	var result []*Patient
	if err = cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding patients list: %w", err)
	}
	return result, nil
}

func (r *repository) Count(ctx context.Context, filter *Filter) (int, error) {
	count, err := r.collection.CountDocuments(ctx, listSelector(filter))
	if err != nil {
		return 0, fmt.Errorf("error counting patients: %w", err)
	}
	return int(count), nil
}

func (r *repository) Create(ctx context.Context, patient Patient) (*Patient, error) {
	patient.Id = nil
	patient.CreatedTime = time.Now()
	patient.UpdatedTime = time.Now()

	res, err := r.collection.InsertOne(ctx, patient)
	if err != nil {
		if store.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("error creating patient: %w", err)
	}

	return r.getOne(ctx, bson.M{"_id": res.InsertedID.(primitive.ObjectID)})
}

func (r *repository) Update(ctx context.Context, id string, patient Patient) (*Patient, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	patient.Id = &objId
	patient.UpdatedTime = time.Now()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": objId}, patient)
	if err != nil {
		if store.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("error updating patient: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	return r.getOne(ctx, bson.M{"_id": objId})
}

func (r *repository) MarkContacted(ctx context.Context, id string, notes *string) (*Patient, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"isContacted": true,
			"contactedAt": time.Now(),
			"updatedTime": time.Now(),
		},
	}
	if notes != nil {
		update["$set"].(bson.M)["contactNotes"] = *notes
	}

	return r.updateOne(ctx, bson.M{"_id": objId}, update)
}

// Deactivate archives a copy of the record and flips it inactive. The row
// is kept so a later roster upload with the same document number revives it.
func (r *repository) Deactivate(ctx context.Context, id string, metadata deletions.Metadata) error {
	patient, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.deletionsRepo.Create(ctx, *patient, metadata); err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"isActive":    false,
			"updatedTime": time.Now(),
		},
	}
	_, err = r.updateOne(ctx, bson.M{"_id": patient.Id}, update)
	return err
}

func (r *repository) getOne(ctx context.Context, selector bson.M) (*Patient, error) {
	patient := &Patient{}
	err := r.collection.FindOne(ctx, selector).Decode(patient)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error finding patient: %w", err)
	}
	return patient, nil
}

func (r *repository) updateOne(ctx context.Context, selector bson.M, update interface{}) (*Patient, error) {
	patient := &Patient{}
	err := r.collection.FindOneAndUpdate(ctx, selector, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(patient)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error updating patient: %w", err)
	}
	return patient, nil
}

func listSelector(filter *Filter) bson.M {
	selector := bson.M{}
	if filter == nil {
		filter = &Filter{}
	}
	if !filter.IncludeInactive {
		selector["isActive"] = true
	}
	if filter.Search != nil {
		selector["$text"] = bson.M{
			"$search": *filter.Search,
		}
	}
	if filter.AgeGroup != nil {
		selector["ageGroup"] = *filter.AgeGroup
	}
	if filter.Sex != nil {
		selector["sex"] = *filter.Sex
	}
	if filter.AttentionType != nil {
		selector["attentionType"] = *filter.AttentionType
	}
	if filter.RiskLevel != nil {
		selector["cardiovascularRiskLevel"] = *filter.RiskLevel
	}
	if filter.IsPregnant != nil {
		selector["isPregnant"] = *filter.IsPregnant
	}
	if filter.IsHypertensive != nil {
		selector["chronicConditions.isHypertensive"] = *filter.IsHypertensive
	}
	if filter.IsDiabetic != nil {
		selector["chronicConditions.isDiabetic"] = *filter.IsDiabetic
	}
	if filter.HasCardiovascularRisk != nil {
		selector["hasCardiovascularRisk"] = *filter.HasCardiovascularRisk
	}
	if filter.IsContacted != nil {
		selector["isContacted"] = *filter.IsContacted
	}
	if filter.LastUploadId != nil {
		if uploadId, err := primitive.ObjectIDFromHex(*filter.LastUploadId); err == nil {
			selector["lastUploadId"] = uploadId
		}
	}
	return selector
}
