package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoBackend maps each store collection onto a Mongo collection. The row body is kept as a
// JSON string so numbers round-trip exactly as the other backends see them.
type mongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

type mongoDocument struct {
	ID        string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NewMongo stores rows in the named database of client.
func NewMongo(client *mongo.Client, database string) *RowStore {
	return newRowStore(&mongoBackend{client: client, db: client.Database(database)})
}

func (m *mongoBackend) name() string { return "mongo" }

func (m *mongoBackend) loadRow(ctx context.Context, collection, key string) ([]byte, bool, error) {
	var doc mongoDocument
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("mongo find %s: %w", key, err)
	}
	return []byte(doc.Value), true, nil
}

func (m *mongoBackend) listRows(ctx context.Context, collection string) (map[string][]byte, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.db.Collection(collection).Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", collection, err)
	}
	var docs []mongoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode %s: %w", collection, err)
	}
	rows := make(map[string][]byte, len(docs))
	for _, doc := range docs {
		rows[doc.ID] = []byte(doc.Value)
	}
	return rows, nil
}

func (m *mongoBackend) saveRow(ctx context.Context, collection, key string, raw []byte) error {
	doc := mongoDocument{ID: key, Value: string(raw), UpdatedAt: time.Now().UTC()}
	_, err := m.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace %s: %w", key, err)
	}
	return nil
}

func (m *mongoBackend) insertRow(ctx context.Context, collection, key string, raw []byte) (bool, error) {
	doc := mongoDocument{ID: key, Value: string(raw), UpdatedAt: time.Now().UTC()}
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("mongo insert %s: %w", key, err)
	}
	return true, nil
}

func (m *mongoBackend) deleteRow(ctx context.Context, collection, key string) error {
	if _, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", key, err)
	}
	return nil
}

func (m *mongoBackend) close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
