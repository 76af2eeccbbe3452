package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/referralhq/referral-api/internal/core/domain"
)

const tokensCollection = "auth_tokens"

// TokenRepository stores the durable one-token-per-user binding.
type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection(tokensCollection)}
}

type mongoToken struct {
	UserID    string    `bson:"user_id"`
	Key       string    `bson:"key"`
	CreatedAt time.Time `bson:"created_at"`
}

// GetOrCreate binds candidate to the user unless a token already exists, and
// returns whichever key won. $setOnInsert makes the get-or-create a single
// atomic round trip, so concurrent logins converge on one token.
func (r *TokenRepository) GetOrCreate(ctx context.Context, userID, candidate string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	update := bson.M{"$setOnInsert": bson.M{
		"key":        candidate,
		"created_at": time.Now().UTC(),
	}}

	var tok mongoToken
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&tok)
	if err != nil {
		return "", fmt.Errorf("get or create token: %w", err)
	}
	return tok.Key, nil
}

// UserIDByKey resolves a presented token to its owner.
func (r *TokenRepository) UserIDByKey(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var tok mongoToken
	if err := r.coll.FindOne(ctx, bson.M{"key": key}).Decode(&tok); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("find token: %w", err)
	}
	return tok.UserID, nil
}

// EnsureIndexes enforces one token per user and fast lookup by key.
func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
