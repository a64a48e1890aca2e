package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionsCollection = "portal_sessions"

type mongoSession struct {
	ID        string            `bson:"_id"`
	Values    map[string]string `bson:"values"`
	UpdatedAt time.Time         `bson:"updatedAt"`
}

// MongoProvider keeps one document per browser session.
type MongoProvider struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoProvider(db *mongo.Database) *MongoProvider {
	return &MongoProvider{coll: db.Collection(sessionsCollection), now: time.Now}
}

// EnsureIndexes lets MongoDB expire sessions that were not written for idleTTL.
func (p *MongoProvider) EnsureIndexes(ctx context.Context, idleTTL time.Duration) error {
	_, err := p.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updatedAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(idleTTL.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("create session ttl index: %w", err)
	}
	return nil
}

func (p *MongoProvider) Scope(id string) KV {
	return &mongoKV{p: p, id: id}
}

type mongoKV struct {
	p  *MongoProvider
	id string
}

func (m *mongoKV) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	var doc mongoSession
	err := m.p.coll.FindOne(ctx, bson.M{"_id": m.id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := doc.Values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *mongoKV) Set(ctx context.Context, values map[string]string) error {
	set := bson.M{"updatedAt": m.p.now().UTC()}
	for k, v := range values {
		set["values."+k] = v
	}
	_, err := m.p.coll.UpdateOne(ctx, bson.M{"_id": m.id}, bson.M{"$set": set}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (m *mongoKV) Delete(ctx context.Context, keys ...string) error {
	unset := bson.M{}
	for _, k := range keys {
		unset["values."+k] = ""
	}
	_, err := m.p.coll.UpdateOne(ctx, bson.M{"_id": m.id}, bson.M{
		"$unset": unset,
		"$set":   bson.M{"updatedAt": m.p.now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
