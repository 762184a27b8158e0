package entity

import "go.mongodb.org/mongo-driver/bson"

const (
	CollectionJobs        = "jobs"
	CollectionCustomers   = "customers"
	CollectionTechnicians = "technicians"
)

type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

type DeleteResult struct {
	DeletedCount int64
}

// UpdateOptions carries the per-level element filters referenced by `$[name]` paths.
type UpdateOptions struct {
	ArrayFilters []bson.M
}
