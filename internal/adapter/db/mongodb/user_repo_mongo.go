package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"user-management-api/internal/domain/user"
	apperrors "user-management-api/pkg/errors"
	"user-management-api/pkg/logger"
	"user-management-api/pkg/security"
)

// UserRepoMongo implements the Repository interface on a MongoDB collection.
type UserRepoMongo struct {
	coll *mongo.Collection // users collection
	log  *zap.Logger       // Structured logger for database operations
}

// NewUserRepoMongo creates a new instance of UserRepoMongo.
func NewUserRepoMongo(coll *mongo.Collection, log *zap.Logger) *UserRepoMongo {
	return &UserRepoMongo{coll: coll, log: log}
}

// UserDocument represents the stored shape of a user.
type UserDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Email    string             `bson:"email"`
	Age      int                `bson:"age"`
	IsActive bool               `bson:"is_active"`
}

func (d UserDocument) toDomain() *user.User {
	return &user.User{
		ID:       d.ID.Hex(),
		Name:     d.Name,
		Email:    d.Email,
		Age:      d.Age,
		IsActive: d.IsActive,
	}
}

// EnsureIndexes creates the unique email index. It is idempotent.
func (r *UserRepoMongo) EnsureIndexes(ctx context.Context) error {
	name, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}

	r.log.Info("mongo index ensured", zap.String("collection", r.coll.Name()), zap.String("index", name))
	return nil
}

// Create inserts a new user; the store assigns the ObjectID.
func (r *UserRepoMongo) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}
	log := logger.WithContext(ctx, r.log)

	doc := UserDocument{
		Name:     u.Name,
		Email:    u.Email,
		Age:      u.Age,
		IsActive: u.IsActive,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn("duplicate email on create", zap.String("email", u.Email))
			return nil, apperrors.ErrEmailDuplicate
		}
		log.Error("failed to create user in mongo", zap.Error(err), zap.String("email", u.Email))
		return nil, apperrors.NewInternalError("failed to create user", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, apperrors.NewInternalError("failed to create user", fmt.Errorf("unexpected inserted id type %T", res.InsertedID))
	}
	doc.ID = oid

	log.Info("user created in mongo", zap.String("id", oid.Hex()))
	return doc.toDomain(), nil
}

// GetByID retrieves a user by its hex ObjectID.
func (r *UserRepoMongo) GetByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrInvalidID
	}

	var doc UserDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			logger.WithContext(ctx, r.log).Debug("user not found", zap.String("id", id))
			return nil, apperrors.ErrUserNotFound
		}
		logger.WithContext(ctx, r.log).Error("failed to get user from mongo", zap.Error(err), zap.String("id", id))
		return nil, apperrors.NewInternalError("failed to get user", err)
	}

	return doc.toDomain(), nil
}

// Update applies patch with a single findOneAndUpdate and returns the post-image.
func (r *UserRepoMongo) Update(ctx context.Context, id string, patch user.UserPatch) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrInvalidID
	}
	if patch.IsEmpty() {
		return nil, apperrors.ErrEmptyUpdate
	}
	log := logger.WithContext(ctx, r.log)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc UserDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": setDocument(patch)}, opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			log.Debug("user not found for update", zap.String("id", id))
			return nil, apperrors.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			log.Warn("duplicate email on update", zap.String("id", id))
			return nil, apperrors.ErrEmailDuplicate
		default:
			log.Error("failed to update user in mongo", zap.Error(err), zap.String("id", id))
			return nil, apperrors.NewInternalError("failed to update user", err)
		}
	}

	log.Info("user updated in mongo", zap.String("id", id))
	return doc.toDomain(), nil
}

// Delete removes a user by ID.
func (r *UserRepoMongo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.ErrInvalidID
	}
	log := logger.WithContext(ctx, r.log)

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		log.Error("failed to delete user in mongo", zap.Error(err), zap.String("id", id))
		return apperrors.NewInternalError("failed to delete user", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrUserNotFound
	}

	log.Info("user deleted in mongo", zap.String("id", id))
	return nil
}

// List returns one page of users matching filter, sorted by name, and the total match count.
func (r *UserRepoMongo) List(ctx context.Context, filter user.ListFilter) ([]user.User, int64, error) {
	query := buildFilter(filter)
	log := logger.WithContext(ctx, r.log)

	findOpts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(filter.Offset()).
		SetLimit(filter.Limit)

	cursor, err := r.coll.Find(ctx, query, findOpts)
	if err != nil {
		log.Error("failed to list users from mongo", zap.Error(err), zap.Int64("page", filter.Page), zap.Int64("limit", filter.Limit))
		return nil, 0, apperrors.NewInternalError("failed to list users", err)
	}

	var docs []UserDocument
	if err := cursor.All(ctx, &docs); err != nil {
		log.Error("failed to decode users from mongo", zap.Error(err))
		return nil, 0, apperrors.NewInternalError("failed to list users", err)
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		log.Error("failed to count users in mongo", zap.Error(err))
		return nil, 0, apperrors.NewInternalError("failed to count users", err)
	}

	users := make([]user.User, len(docs))
	for i, d := range docs {
		users[i] = *d.toDomain()
	}

	return users, total, nil
}

// buildFilter translates a ListFilter into a query document.
// The name query is matched literally and case-insensitively.
func buildFilter(f user.ListFilter) bson.M {
	query := bson.M{}

	if f.NameQuery != "" {
		query["name"] = bson.M{"$regex": security.LiteralPattern(f.NameQuery), "$options": "i"}
	}

	if f.MinAge != nil || f.MaxAge != nil {
		age := bson.M{}
		if f.MinAge != nil {
			age["$gte"] = *f.MinAge
		}
		if f.MaxAge != nil {
			age["$lte"] = *f.MaxAge
		}
		query["age"] = age
	}

	if f.IsActive != nil {
		query["is_active"] = *f.IsActive
	}

	return query
}

// setDocument returns the $set operand for the supplied patch fields.
func setDocument(p user.UserPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Age != nil {
		set["age"] = *p.Age
	}
	if p.IsActive != nil {
		set["is_active"] = *p.IsActive
	}
	return set
}
