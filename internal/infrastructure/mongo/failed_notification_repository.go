package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FailedNotificationStatusPending は再送待ちの状態。
const FailedNotificationStatusPending = "pending"

// FailedNotificationRepository は送信に失敗した通知を記録する。
type FailedNotificationRepository struct {
	collection *mongo.Collection
}

// NewFailedNotificationRepository は失敗通知コレクションを束縛する。
func NewFailedNotificationRepository(db *mongo.Database, collection string) *FailedNotificationRepository {
	return &FailedNotificationRepository{collection: db.Collection(collection)}
}

// Record は失敗した送信先とペイロードを保存する。
func (r *FailedNotificationRepository) Record(ctx context.Context, target string, payload map[string]any, cause error, attempts int) error {
	now := time.Now().UTC()
	doc := FailedNotificationDocument{
		Target:      target,
		Payload:     bson.M(payload),
		Attempts:    attempts,
		Status:      FailedNotificationStatusPending,
		CreatedAt:   now,
		LastTriedAt: now,
	}
	if cause != nil {
		doc.Error = cause.Error()
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}
