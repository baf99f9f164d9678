package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
)

// UserRepository は管理スタッフのアカウントを扱う。
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository はユーザーコレクションを束縛したリポジトリを生成する。
func NewUserRepository(db *mongo.Database, userCollection string) *UserRepository {
	return &UserRepository{users: db.Collection(userCollection)}
}

// Find はメールアドレス順に全ユーザーを返す。
func (r *UserRepository) Find(ctx context.Context) ([]admindomain.User, error) {
	cursor, err := r.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]admindomain.User, 0)
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, mapUserDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*admindomain.User, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*admindomain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domainerr.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*admindomain.User, error) {
	var doc UserDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapError(err)
	}
	user := mapUserDocument(doc)
	return &user, nil
}

// Create は新規ユーザーを登録し、採番した ID を user に反映する。
func (r *UserRepository) Create(ctx context.Context, user *admindomain.User) error {
	if user == nil {
		return errors.New("user payload is nil")
	}
	doc := UserDocument{
		ID:           primitive.NewObjectID(),
		Email:        user.Email.String(),
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		Role:         user.Role.String(),
		Active:       user.Active,
		LastLoginAt:  user.LastLoginAt,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return mapError(err)
	}
	user.ID = doc.ID.Hex()
	return nil
}

// Update は名前・ロール・有効状態・パスワードハッシュを更新する。
func (r *UserRepository) Update(ctx context.Context, user *admindomain.User) error {
	if user == nil {
		return errors.New("user payload is nil")
	}
	objectID, err := parseObjectID(user.ID)
	if err != nil {
		return err
	}
	update := bson.M{
		"name":         user.Name,
		"role":         user.Role.String(),
		"active":       user.Active,
		"passwordHash": user.PasswordHash,
		"updatedAt":    user.UpdatedAt.UTC(),
	}
	res, err := r.users.UpdateByID(ctx, objectID, bson.M{"$set": update})
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return domainerr.ErrNotFound
	}
	return nil
}

// TouchLogin は最終ログイン時刻だけを記録する。
func (r *UserRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}
	_, err = r.users.UpdateByID(ctx, objectID, bson.M{"$set": bson.M{"lastLoginAt": at.UTC()}})
	return err
}
