package users

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

//go:generate mockgen --build_flags=--mod=mod -source=./repo.go -destination=./test/mock_repository.go -package test MockRepository

type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	SetRoles(ctx context.Context, id string, roles []string) (*User, error)
	SetActive(ctx context.Context, id string, active bool) (*User, error)
	// RecordLogin stamps lastLoginAt and resets the failed attempt count.
	RecordLogin(ctx context.Context, id primitive.ObjectID) error
	RecordFailedLogin(ctx context.Context, id primitive.ObjectID) error
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
				{Key: "username", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("UniqueUsername"),
		},
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("UniqueEmail").
				SetPartialFilterExpression(bson.D{{Key: "email", Value: bson.M{"$exists": true}}}),
		},
		{
			Keys: bson.D{
				{Key: "createdTime", Value: 1},
			},
			Options: options.Index().
				SetName("UsersByCreatedTime"),
		},
	})
	return err
}

func (r *repository) Get(ctx context.Context, id string) (*User, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, bson.M{"_id": objId})
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, bson.M{"username": username})
}

func (r *repository) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdTime", Value: -1}}).
		SetSkip(int64(pagination.Offset)).
		SetLimit(int64(pagination.Limit))

	cursor, err := r.collection.Find(ctx, listSelector(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	var users []*User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding users list: %w", err)
	}
	return users, nil
}

func (r *repository) Create(ctx context.Context, user *User) (*User, error) {
	user.Id = nil
	user.CreatedTime = time.Now()
	user.UpdatedTime = time.Now()

	res, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if store.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return r.getOne(ctx, bson.M{"_id": res.InsertedID.(primitive.ObjectID)})
}

func (r *repository) SetRoles(ctx context.Context, id string, roles []string) (*User, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"roles":       roles,
			"updatedTime": time.Now(),
		},
	}
	return r.updateOne(ctx, bson.M{"_id": objId}, update)
}

func (r *repository) SetActive(ctx context.Context, id string, active bool) (*User, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"isActive":    active,
			"updatedTime": time.Now(),
		},
	}
	return r.updateOne(ctx, bson.M{"_id": objId}, update)
}

func (r *repository) RecordLogin(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"lastLoginAt":    time.Now(),
			"failedAttempts": 0,
			"updatedTime":    time.Now(),
		},
	}
	_, err := r.updateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *repository) RecordFailedLogin(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"failedAttempts": 1},
		"$set": bson.M{"updatedTime": time.Now()},
	}
	_, err := r.updateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *repository) getOne(ctx context.Context, selector bson.M) (*User, error) {
	user := &User{}
	err := r.collection.FindOne(ctx, selector).Decode(user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return user, nil
}

func (r *repository) updateOne(ctx context.Context, selector bson.M, update interface{}) (*User, error) {
	user := &User{}
	err := r.collection.FindOneAndUpdate(ctx, selector, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return user, nil
}

func listSelector(filter *Filter) bson.M {
	selector := bson.M{}
	if filter == nil {
		return selector
	}
	if filter.Username != nil {
		selector["username"] = *filter.Username
	}
	if filter.Role != nil {
		selector["roles"] = bson.M{
			"$elemMatch": bson.M{
				"$eq": *filter.Role,
			},
		}
	}
	if filter.IsActive != nil {
		selector["isActive"] = *filter.IsActive
	}
	return selector
}
