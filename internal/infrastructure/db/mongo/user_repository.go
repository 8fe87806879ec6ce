package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mfalicoff/kosync/internal/core/domain"
)

const usersCollection = "users"

// UserRepository stores users in a single collection with progress records
// embedded as a map keyed by document hash. Percentages are persisted in
// their canonical decimal string form so they round-trip without float loss.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoProgress struct {
	DocumentHash string    `bson:"documentHash"`
	Progress     string    `bson:"progress"`
	Percentage   string    `bson:"percentage"`
	Device       string    `bson:"device"`
	DeviceID     string    `bson:"deviceId"`
	Timestamp    time.Time `bson:"timestamp"`
}

type mongoUser struct {
	ID              string                   `bson:"_id"`
	Username        string                   `bson:"username"`
	PasswordHash    string                   `bson:"passwordHash"`
	IsActive        bool                     `bson:"isActive"`
	IsAdministrator bool                     `bson:"isAdministrator"`
	Documents       map[string]mongoProgress `bson:"documents"`
}

func toMongoProgress(p domain.Progress) mongoProgress {
	return mongoProgress{
		DocumentHash: p.DocumentHash,
		Progress:     p.Progress,
		Percentage:   p.Percentage.String(),
		Device:       p.Device,
		DeviceID:     p.DeviceID,
		Timestamp:    p.Timestamp,
	}
}

func fromMongoProgress(mp mongoProgress) (domain.Progress, error) {
	percentage, err := decimal.NewFromString(mp.Percentage)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("decode percentage %q: %w", mp.Percentage, err)
	}
	return domain.Progress{
		DocumentHash: mp.DocumentHash,
		Progress:     mp.Progress,
		Percentage:   percentage,
		Device:       mp.Device,
		DeviceID:     mp.DeviceID,
		Timestamp:    mp.Timestamp.UTC(),
	}, nil
}

func toMongoUser(u *domain.User) mongoUser {
	docs := make(map[string]mongoProgress, len(u.Documents))
	for hash, p := range u.Documents {
		docs[hash] = toMongoProgress(p)
	}
	return mongoUser{
		ID:              u.ID,
		Username:        u.Username,
		PasswordHash:    u.PasswordHash,
		IsActive:        u.IsActive,
		IsAdministrator: u.IsAdministrator,
		Documents:       docs,
	}
}

func fromMongoUser(mu mongoUser) (*domain.User, error) {
	docs := make(map[string]domain.Progress, len(mu.Documents))
	for hash, mp := range mu.Documents {
		p, err := fromMongoProgress(mp)
		if err != nil {
			return nil, err
		}
		docs[hash] = p
	}
	return &domain.User{
		ID:              mu.ID,
		Username:        mu.Username,
		PasswordHash:    mu.PasswordHash,
		IsActive:        mu.IsActive,
		IsAdministrator: mu.IsAdministrator,
		Documents:       docs,
	}, nil
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
	return fromMongoUser(mu)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var mus []mongoUser
	if err := cursor.All(ctx, &mus); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(mus))
	for _, mu := range mus {
		u, err := fromMongoUser(mu)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toMongoUser(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"username": user.Username}, toMongoUser(user))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes the user document; embedded progress records go with it in
// the same write.
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"username": username})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) GetDocument(ctx context.Context, username, documentHash string) (*domain.Progress, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetProjection(bson.M{"documents." + documentHash: 1})

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"username": username}, opts).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}

	mp, ok := mu.Documents[documentHash]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	p, err := fromMongoProgress(mp)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *UserRepository) UpsertDocument(ctx context.Context, username string, progress domain.Progress) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"documents." + progress.DocumentHash: toMongoProgress(progress)}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) RemoveDocument(ctx context.Context, username, documentHash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$unset": bson.M{"documents." + documentHash: ""}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return fmt.Errorf("remove document: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	if res.ModifiedCount == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *UserRepository) ListDocuments(ctx context.Context, username string) ([]domain.Progress, error) {
	user, err := r.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Progress, 0, len(user.Documents))
	for _, p := range user.Documents {
		docs = append(docs, p)
	}
	return docs, nil
}

func (r *UserRepository) TotalDocumentCount(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$project", Value: bson.M{
			"count": bson.M{"$size": bson.M{"$objectToArray": bson.M{"$ifNull": bson.A{"$documents", bson.M{}}}}},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$count"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total int64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("decode document count: %w", err)
		}
	}
	return result.Total, nil
}

// EnsureIndexes creates the unique username index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// EnsureAdmin guarantees the reserved admin account exists and re-applies the
// seed password hash, so rotating ADMIN_PASSWORD takes effect on restart.
func (r *UserRepository) EnsureAdmin(ctx context.Context, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"passwordHash":    passwordHash,
			"isActive":        true,
			"isAdministrator": true,
		},
		"$setOnInsert": bson.M{
			"_id":       uuid.NewString(),
			"username":  domain.AdminUsername,
			"documents": bson.M{},
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, bson.M{"username": domain.AdminUsername}, update, opts); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	return nil
}
