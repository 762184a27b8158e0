package memory

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"workorder/internal/domain/entity"
	"workorder/pkg/docpath"
)

// Store keeps every collection in process memory. A single lock serializes
// writers, so each update is applied to a copy and swapped in whole.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]docpath.Document
}

func NewStore() *Store {
	return &Store{collections: make(map[string][]docpath.Document)}
}

func (s *Store) FindOne(ctx context.Context, collection string, filter bson.M, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.collections[collection] {
		ok, _, err := docpath.Match(doc, filter)
		if err != nil {
			return entity.StorageFailure("memory find", err)
		}
		if ok {
			if err := docpath.Decode(doc, out); err != nil {
				return entity.StorageFailure("memory decode", err)
			}
			return nil
		}
	}
	return entity.ErrNotFound
}

func (s *Store) FindAll(ctx context.Context, collection string, filter bson.M, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]docpath.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		ok, _, err := docpath.Match(doc, filter)
		if err != nil {
			return entity.StorageFailure("memory find all", err)
		}
		if ok {
			matched = append(matched, doc)
		}
	}
	if err := docpath.DecodeAll(matched, out); err != nil {
		return entity.StorageFailure("memory decode", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc any) (string, error) {
	d, err := docpath.FromValue(doc)
	if err != nil {
		return "", entity.StorageFailure("memory insert", err)
	}
	id, ok := d[entity.FieldID].(string)
	if !ok || id == "" {
		return "", entity.StorageFailure("memory insert", fmt.Errorf("document has no string %s", entity.FieldID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.collections[collection] {
		if existing[entity.FieldID] == id {
			return "", entity.StorageFailure("memory insert", fmt.Errorf("duplicate key %s", id))
		}
	}
	s.collections[collection] = append(s.collections[collection], d)
	return id, nil
}

// Update applies update to the first document matching filter.
func (s *Store) Update(ctx context.Context, collection string, filter, update bson.M, opts entity.UpdateOptions) (entity.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		ok, pos, err := docpath.Match(doc, filter)
		if err != nil {
			return entity.UpdateResult{}, entity.StorageFailure("memory update", err)
		}
		if !ok {
			continue
		}
		next := docpath.Clone(doc)
		modified, err := docpath.Apply(next, update, pos, opts.ArrayFilters)
		if err != nil {
			return entity.UpdateResult{MatchedCount: 1}, entity.StorageFailure("memory update", err)
		}
		res := entity.UpdateResult{MatchedCount: 1}
		if modified {
			docs[i] = next
			res.ModifiedCount = 1
		}
		return res, nil
	}
	return entity.UpdateResult{}, nil
}

// Delete removes the first document matching filter.
func (s *Store) Delete(ctx context.Context, collection string, filter bson.M) (entity.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		ok, _, err := docpath.Match(doc, filter)
		if err != nil {
			return entity.DeleteResult{}, entity.StorageFailure("memory delete", err)
		}
		if ok {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return entity.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return entity.DeleteResult{}, nil
}
