package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections はコレクション名の組。
type Collections struct {
	Surveys             string
	Industries          string
	Users               string
	FailedNotifications string
}

// EnsureIndexes は起動時にユニーク制約と検索用インデックスを作成する。既存なら何もしない。
func EnsureIndexes(ctx context.Context, db *mongo.Database, c Collections) error {
	specs := map[string][]mongo.IndexModel{
		c.Surveys: {
			{Keys: bson.D{{Key: "referenceCode", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "submittedAt", Value: -1}}},
			{Keys: bson.D{{Key: "industry", Value: 1}, {Key: "status", Value: 1}, {Key: "submittedAt", Value: -1}}},
		},
		c.Industries: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		c.Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		c.FailedNotifications: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}
	for name, models := range specs {
		if name == "" {
			continue
		}
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
