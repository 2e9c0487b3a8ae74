// internal/app/system/paging/paging.go
package paging

import (
	"fmt"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of messages returned per page.
const PageSize = 25

// MaxPageSize bounds caller-supplied page sizes.
const MaxPageSize = 100

// ClampSize returns n limited to [1, MaxPageSize], or PageSize when n <= 0.
func ClampSize(n int) int {
	if n <= 0 {
		return PageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// LimitPlusOne returns size+1 as int64 for look-ahead pagination
// (fetch one extra document to detect an earlier page).
func LimitPlusOne(size int) int64 { return int64(size + 1) }

// EncodeCursor turns the id of the oldest row on a page into an opaque cursor.
// The key half carries the id's creation second for readability in logs.
func EncodeCursor(id primitive.ObjectID) string {
	return wafflemongo.EncodeCursor(id.Timestamp().UTC().Format(time.RFC3339), id)
}

// DecodeCursor parses a cursor produced by EncodeCursor.
func DecodeCursor(cursor string) (primitive.ObjectID, bool) {
	if cursor == "" {
		return primitive.NilObjectID, false
	}
	c, ok := wafflemongo.DecodeCursor(cursor)
	if !ok || c.ID.IsZero() {
		return primitive.NilObjectID, false
	}
	return c.ID, true
}

// ErrBadCursor reports a cursor that EncodeCursor did not produce.
var ErrBadCursor = fmt.Errorf("%w: malformed cursor", apperr.ErrInvalidInput)

// ApplyBefore narrows filter to rows strictly older than the cursor.
// ObjectIDs are time-ordered, so _id doubles as the chronological key.
// An empty cursor leaves filter untouched (first page).
func ApplyBefore(filter bson.M, cursor string) (bson.M, error) {
	if cursor == "" {
		return filter, nil
	}
	id, ok := DecodeCursor(cursor)
	if !ok {
		return nil, ErrBadCursor
	}
	filter["_id"] = bson.M{"$lt": id}
	return filter, nil
}

// NewestFirst configures FindOptions for a reverse-chronological page.
func NewestFirst(size int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(LimitPlusOne(size))
}

// Page is one page of a reverse-chronological list.
// Cursor is empty when there is nothing older to load.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Cursor string `json:"cursor,omitempty"`
	Status Status `json:"status"`
}

// TrimPage builds a Page from rows fetched with LimitPlusOne(size).
// idFn extracts the ObjectID used to build the cursor.
func TrimPage[T any](rows []T, size int, idFn func(T) primitive.ObjectID) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) <= size {
		return Page[T]{Items: rows, Status: Exhausted}
	}
	rows = rows[:size]
	return Page[T]{
		Items:  rows,
		Cursor: EncodeCursor(idFn(rows[len(rows)-1])),
		Status: CanLoadMore,
	}
}
