package cascade

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// deleteBatch bounds the size of a single $in filter.
const deleteBatch = 500

// MongoPurger runs cascades against a Mongo database.
type MongoPurger struct {
	db *mongo.Database
}

func NewMongoPurger(db *mongo.Database) *MongoPurger {
	return &MongoPurger{db: db}
}

func (m *MongoPurger) CollectIDs(ctx context.Context, e Edge, parentID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := m.db.Collection(e.Collection).Find(ctx, bson.M{e.ParentField: parentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

func (m *MongoPurger) DeleteIDs(ctx context.Context, collection string, ids []primitive.ObjectID) (int64, error) {
	var total int64
	c := m.db.Collection(collection)
	for start := 0; start < len(ids); start += deleteBatch {
		end := min(start+deleteBatch, len(ids))
		res, err := c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids[start:end]}})
		if err != nil {
			return total, err
		}
		total += res.DeletedCount
	}
	return total, nil
}

func (m *MongoPurger) DeleteByParent(ctx context.Context, e Edge, parentID primitive.ObjectID) (int64, error) {
	res, err := m.db.Collection(e.Collection).DeleteMany(ctx, bson.M{e.ParentField: parentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
