package roster

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

	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/store"
)

//go:generate mockgen --build_flags=--mod=mod -source=./uploads.go -destination=./test/mock_repository.go -package test -aux_files=github.com/sage3280/tracker/roster=duplicates.go MockRepository

const CollectionName = "uploads"

var ErrUploadNotFound = fmt.Errorf("upload %w", errors.NotFound)

type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// RowError records why a single roster row could not be persisted. Row is
// the 1-based data row position in the uploaded file.
type RowError struct {
	Row     int    `bson:"row"`
	Message string `bson:"message"`
}

// Upload tracks a roster file through its lifecycle. Files land as pending,
// a worker claims them into processing, and they finish completed or
// failed. The stored file is addressed by StoragePath; OriginalFilename is
// what the operator uploaded.
type Upload struct {
	Id               *primitive.ObjectID `bson:"_id,omitempty"`
	Filename         string              `bson:"filename"`
	OriginalFilename string              `bson:"originalFilename"`
	StoragePath      string              `bson:"storagePath"`
	FileSize         int64               `bson:"fileSize"`
	Status           UploadStatus        `bson:"status"`

	TotalRows     int `bson:"totalRows"`
	ProcessedRows int `bson:"processedRows"`
	CreatedRows   int `bson:"createdRows"`
	UpdatedRows   int `bson:"updatedRows"`
	FailedRows    int `bson:"failedRows"`

	RowErrors         []RowError         `bson:"rowErrors,omitempty"`
	DuplicateClusters []DuplicateCluster `bson:"duplicateClusters,omitempty"`
	ErrorMessage      *string            `bson:"errorMessage,omitempty"`

	UploadedBy *string `bson:"uploadedBy,omitempty"`

	CreatedTime time.Time  `bson:"createdTime,omitempty"`
	UpdatedTime time.Time  `bson:"updatedTime,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
}

// UploadResult is what processing one roster produced. It is written to the
// upload record on completion.
type UploadResult struct {
	TotalRows         int
	ProcessedRows     int
	CreatedRows       int
	UpdatedRows       int
	FailedRows        int
	RowErrors         []RowError
	DuplicateClusters []DuplicateCluster
}

type UploadFilter struct {
	Status *UploadStatus
}

type Repository interface {
	Create(ctx context.Context, upload *Upload) (*Upload, error)
	Get(ctx context.Context, id string) (*Upload, error)
	List(ctx context.Context, filter *UploadFilter, pagination store.Pagination) ([]*Upload, error)
	Count(ctx context.Context, filter *UploadFilter) (int, error)
	// ClaimPending atomically moves the oldest pending upload to
	// processing so concurrent workers never pick up the same file. It
	// returns nil when nothing is pending.
	ClaimPending(ctx context.Context) (*Upload, error)
	Complete(ctx context.Context, id string, result UploadResult) (*Upload, error)
	Fail(ctx context.Context, id string, message string) (*Upload, error)
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
				{Key: "status", Value: 1},
				{Key: "createdTime", Value: 1},
			},
			Options: options.Index().
				SetName("UploadsByStatus"),
		},
		{
			Keys: bson.D{
				{Key: "createdTime", Value: -1},
			},
			Options: options.Index().
				SetName("UploadsByDate"),
		},
	})
	return err
}

func (r *repository) Create(ctx context.Context, upload *Upload) (*Upload, error) {
	if upload == nil {
		return nil, fmt.Errorf("%w: upload is missing", errors.BadRequest)
	}

	upload.Id = nil
	if upload.Status == "" {
		upload.Status = UploadStatusPending
	}
	upload.CreatedTime = time.Now()
	upload.UpdatedTime = time.Now()

	res, err := r.collection.InsertOne(ctx, upload)
	if err != nil {
		return nil, fmt.Errorf("error creating upload: %w", err)
	}

	id := res.InsertedID.(primitive.ObjectID)
	return r.Get(ctx, id.Hex())
}

func (r *repository) Get(ctx context.Context, id string) (*Upload, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUploadNotFound
	}

	upload := &Upload{}
	err = r.collection.FindOne(ctx, bson.M{"_id": objId}).Decode(upload)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUploadNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error finding upload: %w", err)
	}

	return upload, nil
}

func (r *repository) List(ctx context.Context, filter *UploadFilter, pagination store.Pagination) ([]*Upload, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdTime", Value: -1}}).
		SetSkip(int64(pagination.Offset)).
		SetLimit(int64(pagination.Limit))

	cursor, err := r.collection.Find(ctx, listSelector(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("error listing uploads: %w", err)
	}

	uploads := make([]*Upload, 0)
	if err = cursor.All(ctx, &uploads); err != nil {
		return nil, fmt.Errorf("error decoding uploads: %w", err)
	}

	return uploads, nil
}

func (r *repository) Count(ctx context.Context, filter *UploadFilter) (int, error) {
	count, err := r.collection.CountDocuments(ctx, listSelector(filter))
	if err != nil {
		return 0, fmt.Errorf("error counting uploads: %w", err)
	}
	return int(count), nil
}

func (r *repository) ClaimPending(ctx context.Context) (*Upload, error) {
	selector := bson.M{
		"status": UploadStatusPending,
	}
	update := bson.M{
		"$set": bson.M{
			"status":      UploadStatusProcessing,
			"updatedTime": time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "createdTime", Value: 1}}).
		SetReturnDocument(options.After)

	upload := &Upload{}
	err := r.collection.FindOneAndUpdate(ctx, selector, update, opts).Decode(upload)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error claiming upload: %w", err)
	}

	return upload, nil
}

func (r *repository) Complete(ctx context.Context, id string, result UploadResult) (*Upload, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUploadNotFound
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"status":            UploadStatusCompleted,
			"totalRows":         result.TotalRows,
			"processedRows":     result.ProcessedRows,
			"createdRows":       result.CreatedRows,
			"updatedRows":       result.UpdatedRows,
			"failedRows":        result.FailedRows,
			"rowErrors":         result.RowErrors,
			"duplicateClusters": result.DuplicateClusters,
			"completedAt":       now,
			"updatedTime":       now,
		},
	}

	upload := &Upload{}
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objId}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(upload)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUploadNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error completing upload: %w", err)
	}

	return upload, nil
}

func (r *repository) Fail(ctx context.Context, id string, message string) (*Upload, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUploadNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"status":       UploadStatusFailed,
			"errorMessage": message,
			"updatedTime":  time.Now(),
		},
	}

	upload := &Upload{}
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objId}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(upload)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUploadNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error failing upload: %w", err)
	}

	return upload, nil
}

func listSelector(filter *UploadFilter) bson.M {
	selector := bson.M{}
	if filter != nil && filter.Status != nil {
		selector["status"] = *filter.Status
	}
	return selector
}
