package models

// InsertResult acknowledges a single inserted document.
type InsertResult struct {
	Acknowledged bool `json:"acknowledged"`
	InsertedID   any  `json:"insertedId"`
}

// UpdateResult acknowledges a single-document update, possibly an upsert.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
	UpsertedCount int64 `json:"upsertedCount"`
	UpsertedID    any   `json:"upsertedId"`
}

// DeleteResult acknowledges a single-document delete.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
