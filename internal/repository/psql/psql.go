package psql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workorder/internal/domain/entity"
	"workorder/pkg/docpath"
)

// document is one row per stored document; Body holds the BSON encoding.
type document struct {
	Collection string    `gorm:"primaryKey;size:64"`
	ID         string    `gorm:"primaryKey;size:64"`
	Body       []byte    `gorm:"type:bytea;not null"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

func (document) TableName() string { return "documents" }

// GormDocumentStore keeps documents in Postgres and evaluates filters and
// updates with docpath. Writes lock the candidate rows for the length of the
// transaction, so concurrent updates to one document serialize.
type GormDocumentStore struct {
	DB *gorm.DB
}

func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{DB: db}
}

// AutoMigrate creates or updates the documents table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&document{}); err != nil {
		return entity.StorageFailure("psql migrate", err)
	}
	return nil
}

func (r *GormDocumentStore) FindOne(ctx context.Context, collection string, filter bson.M, out any) error {
	rows, err := r.candidates(r.DB.WithContext(ctx), collection, filter)
	if err != nil {
		return entity.StorageFailure("psql find one", err)
	}
	for _, row := range rows {
		doc, ok, _, err := match(row, filter)
		if err != nil {
			return entity.StorageFailure("psql find one", err)
		}
		if ok {
			if err := docpath.Decode(doc, out); err != nil {
				return entity.StorageFailure("psql decode", err)
			}
			return nil
		}
	}
	return entity.ErrNotFound
}

func (r *GormDocumentStore) FindAll(ctx context.Context, collection string, filter bson.M, out any) error {
	rows, err := r.candidates(r.DB.WithContext(ctx), collection, filter)
	if err != nil {
		return entity.StorageFailure("psql find all", err)
	}
	docs := make([]docpath.Document, 0, len(rows))
	for _, row := range rows {
		doc, ok, _, err := match(row, filter)
		if err != nil {
			return entity.StorageFailure("psql find all", err)
		}
		if ok {
			docs = append(docs, doc)
		}
	}
	if err := docpath.DecodeAll(docs, out); err != nil {
		return entity.StorageFailure("psql decode", err)
	}
	return nil
}

func (r *GormDocumentStore) Insert(ctx context.Context, collection string, v any) (string, error) {
	doc, err := docpath.FromValue(v)
	if err != nil {
		return "", entity.StorageFailure("psql insert", err)
	}
	id, ok := doc[entity.FieldID].(string)
	if !ok || id == "" {
		return "", entity.StorageFailure("psql insert", fmt.Errorf("document has no string %s", entity.FieldID))
	}
	body, err := docpath.Bytes(doc)
	if err != nil {
		return "", entity.StorageFailure("psql insert", err)
	}

	row := &document{Collection: collection, ID: id, Body: body}
	if err := r.DB.WithContext(ctx).Create(row).Error; err != nil {
		return "", entity.StorageFailure("psql insert", err)
	}
	return id, nil
}

func (r *GormDocumentStore) Update(ctx context.Context, collection string, filter, update bson.M, opts entity.UpdateOptions) (entity.UpdateResult, error) {
	var res entity.UpdateResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := r.candidates(tx.Clauses(clause.Locking{Strength: "UPDATE"}), collection, filter)
		if err != nil {
			return err
		}
		for _, row := range rows {
			doc, ok, pos, err := match(row, filter)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			res.MatchedCount = 1

			modified, err := docpath.Apply(doc, update, pos, opts.ArrayFilters)
			if err != nil || !modified {
				return err
			}
			body, err := docpath.Bytes(doc)
			if err != nil {
				return err
			}
			err = tx.Model(&document{}).
				Where("collection = ? AND id = ?", row.Collection, row.ID).
				Updates(map[string]any{"body": body, "updated_at": time.Now()}).Error
			if err != nil {
				return err
			}
			res.ModifiedCount = 1
			return nil
		}
		return nil
	})
	if err != nil {
		return res, entity.StorageFailure("psql update", err)
	}
	return res, nil
}

func (r *GormDocumentStore) Delete(ctx context.Context, collection string, filter bson.M) (entity.DeleteResult, error) {
	var res entity.DeleteResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := r.candidates(tx.Clauses(clause.Locking{Strength: "UPDATE"}), collection, filter)
		if err != nil {
			return err
		}
		for _, row := range rows {
			_, ok, _, err := match(row, filter)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			del := tx.Where("collection = ? AND id = ?", row.Collection, row.ID).Delete(&document{})
			if del.Error != nil {
				return del.Error
			}
			res.DeletedCount = del.RowsAffected
			return nil
		}
		return nil
	})
	if err != nil {
		return res, entity.StorageFailure("psql delete", err)
	}
	return res, nil
}

// candidates loads the rows a filter might match, narrowed by primary key
// when the filter names one.
func (r *GormDocumentStore) candidates(db *gorm.DB, collection string, filter bson.M) ([]document, error) {
	q := db.Where("collection = ?", collection)
	if id, ok := filter[entity.FieldID].(string); ok {
		q = q.Where("id = ?", id)
	}
	var rows []document
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rows, nil
}

func match(row document, filter bson.M) (docpath.Document, bool, docpath.Positions, error) {
	doc, err := docpath.FromBytes(row.Body)
	if err != nil {
		return nil, false, nil, err
	}
	ok, pos, err := docpath.Match(doc, filter)
	return doc, ok, pos, err
}
