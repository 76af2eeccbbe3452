package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/referralhq/referral-api/internal/core/domain"
	"github.com/referralhq/referral-api/internal/core/ports"
)

const usersCollection = "users"

// UserRepository implements ports.UserRepository on MongoDB.
//
// The unique indexes on phone and invite_code are the source of truth for
// the duplicate-phone and invite-collision invariants; the application layer
// only reacts to their violations.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Phone            int64              `bson:"phone"`
	PasswordHash     string             `bson:"password_hash"`
	FirstName        string             `bson:"first_name,omitempty"`
	LastName         string             `bson:"last_name,omitempty"`
	Email            string             `bson:"email,omitempty"`
	VerificationCode string             `bson:"verification_code,omitempty"`
	VerifCutoff      int64              `bson:"verif_cutoff,omitempty"`
	InviteCode       *string            `bson:"invite_code,omitempty"`
	GrantedCode      string             `bson:"granted_code,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
}

func (mu *mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:               mu.ID.Hex(),
		Phone:            mu.Phone,
		PasswordHash:     mu.PasswordHash,
		FirstName:        mu.FirstName,
		LastName:         mu.LastName,
		Email:            mu.Email,
		VerificationCode: mu.VerificationCode,
		VerifCutoff:      mu.VerifCutoff,
		GrantedCode:      mu.GrantedCode,
		CreatedAt:        mu.CreatedAt.UTC(),
	}
	if mu.InviteCode != nil {
		u.InviteCode = *mu.InviteCode
	}
	return u
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrUserNotFound
	}
	return oid, nil
}

// Create inserts the user; a duplicate phone surfaces as ErrPhoneExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		Phone:        user.Phone,
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		CreatedAt:    user.CreatedAt.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrPhoneExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *UserRepository) FindByInviteCode(ctx context.Context, code string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"invite_code": code})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// List returns every user, newest first, phone ascending on ties.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "phone", Value: 1},
	})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, mu.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListApplicantPhones projects out only the phone of each user whose
// granted_code equals inviteCode, ascending.
func (r *UserRepository) ListApplicantPhones(ctx context.Context, inviteCode string) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "phone", Value: 1}}).
		SetProjection(bson.M{"phone": 1})
	cur, err := r.coll.Find(ctx, bson.M{"granted_code": inviteCode}, opts)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	defer cur.Close(ctx)

	var phones []int64
	for cur.Next(ctx) {
		var row struct {
			Phone int64 `bson:"phone"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode applicant: %w", err)
		}
		phones = append(phones, row.Phone)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	return phones, nil
}

func (r *UserRepository) SetVerification(ctx context.Context, id, code string, cutoff int64) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"verification_code": code, "verif_cutoff": cutoff}},
	)
	if err != nil {
		return fmt.Errorf("set verification: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetInviteCode writes the code iff the user has none. The filter miss /
// duplicate-key distinction tells the caller whether to retry with a new
// candidate or accept a concurrent winner.
func (r *UserRepository) SetInviteCode(ctx context.Context, id, code string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "invite_code": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"invite_code": code}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrInviteCodeTaken
		}
		return fmt.Errorf("set invite code: %w", err)
	}
	if res.MatchedCount == 0 {
		// Either the user vanished or their code is already set; tell them
		// apart so the service can treat a lost race as success.
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return ferr
		}
		return domain.ErrInviteAlreadySet
	}
	return nil
}

// GrantCode is the atomic set-iff-empty that makes redemption exactly-once.
func (r *UserRepository) GrantCode(ctx context.Context, id, code string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "$or": bson.A{
			bson.M{"granted_code": bson.M{"$exists": false}},
			bson.M{"granted_code": ""},
		}},
		bson.M{"$set": bson.M{"granted_code": code}},
	)
	if err != nil {
		return fmt.Errorf("grant code: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return ferr
		}
		return domain.ErrAlreadyRedeemed
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch ports.ProfilePatch) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.FirstName != nil {
		set["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return mu.toDomain(), nil
}

// EnsureIndexes creates the unique constraints the invariants rely on.
// invite_code is sparse because users have no code until their first login.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "invite_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "granted_code", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
