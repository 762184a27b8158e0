package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"workorder/internal/domain/entity"
)

// Store executes filters and updates natively, so positional and array
// filter updates are applied atomically by the server.
type Store struct {
	DB *mongo.Database
}

func NewStore(db *mongo.Database) *Store {
	return &Store{DB: db}
}

func (s *Store) FindOne(ctx context.Context, collection string, filter bson.M, out any) error {
	err := s.DB.Collection(collection).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entity.ErrNotFound
	}
	if err != nil {
		return entity.StorageFailure("mongo find one", err)
	}
	return nil
}

func (s *Store) FindAll(ctx context.Context, collection string, filter bson.M, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: entity.FieldID, Value: 1}})
	cur, err := s.DB.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return entity.StorageFailure("mongo find", err)
	}
	if err := cur.All(ctx, out); err != nil {
		return entity.StorageFailure("mongo decode", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc any) (string, error) {
	res, err := s.DB.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", entity.StorageFailure("mongo insert", err)
	}
	return fmt.Sprint(res.InsertedID), nil
}

func (s *Store) Update(ctx context.Context, collection string, filter, update bson.M, opts entity.UpdateOptions) (entity.UpdateResult, error) {
	uo := options.Update()
	if len(opts.ArrayFilters) > 0 {
		filters := make([]interface{}, len(opts.ArrayFilters))
		for i, f := range opts.ArrayFilters {
			filters[i] = f
		}
		uo.SetArrayFilters(options.ArrayFilters{Filters: filters})
	}

	res, err := s.DB.Collection(collection).UpdateOne(ctx, filter, update, uo)
	if err != nil {
		return entity.UpdateResult{}, entity.StorageFailure("mongo update", err)
	}
	return entity.UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (s *Store) Delete(ctx context.Context, collection string, filter bson.M) (entity.DeleteResult, error) {
	res, err := s.DB.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return entity.DeleteResult{}, entity.StorageFailure("mongo delete", err)
	}
	return entity.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

// EnsureIndexes creates the secondary indexes the work order queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	jobs := s.DB.Collection(entity.CollectionJobs)
	_, err := jobs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: entity.FieldTasks + "." + entity.FieldNestedID, Value: 1}}},
		{Keys: bson.D{{Key: entity.FieldCustomerID, Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return entity.StorageFailure("mongo create indexes", err)
	}
	return nil
}
