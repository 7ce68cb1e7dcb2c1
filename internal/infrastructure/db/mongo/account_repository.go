package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

const collectionAccounts = "accounts"

// AccountRepository implements ports.AccountRepository using MongoDB.
type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts)}
}

type accountDoc struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	Email                  string             `bson:"email"`
	PasswordHash           string             `bson:"password_hash"`
	PersonID               string             `bson:"person_id,omitempty"`
	Active                 bool               `bson:"active"`
	EmailVerified          bool               `bson:"email_verified"`
	VerificationToken      string             `bson:"verification_token,omitempty"`
	VerifiedToken          string             `bson:"verified_token,omitempty"`
	RecoveryToken          string             `bson:"recovery_token,omitempty"`
	RecoveryTokenExpiresAt *time.Time         `bson:"recovery_token_expires_at,omitempty"`
	LastAccessAt           *time.Time         `bson:"last_access_at,omitempty"`
	Preferences            map[string]any     `bson:"preferences,omitempty"`
	CreatedAt              time.Time          `bson:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at"`
}

func (d *accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:                     d.ID.Hex(),
		Email:                  d.Email,
		PasswordHash:           d.PasswordHash,
		PersonID:               d.PersonID,
		Active:                 d.Active,
		EmailVerified:          d.EmailVerified,
		VerificationToken:      d.VerificationToken,
		VerifiedToken:          d.VerifiedToken,
		RecoveryToken:          d.RecoveryToken,
		RecoveryTokenExpiresAt: d.RecoveryTokenExpiresAt,
		LastAccessAt:           d.LastAccessAt,
		Preferences:            d.Preferences,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := accountDoc{
		ID:                primitive.NewObjectID(),
		Email:             a.Email,
		PasswordHash:      a.PasswordHash,
		PersonID:          a.PersonID,
		Active:            a.Active,
		EmailVerified:     a.EmailVerified,
		VerificationToken: a.VerificationToken,
		Preferences:       a.Preferences,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByVerificationToken(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, verificationTokenFilter(token))
}

func (r *AccountRepository) FindByRecoveryToken(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"recovery_token": token})
}

// verificationTokenFilter matches the pending token and the one already consumed.
func verificationTokenFilter(token string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"verification_token": token},
		bson.M{"verified_token": token},
	}}
}

// accountUpdateDoc translates an AccountUpdate into $set / $unset documents.
func accountUpdateDoc(upd ports.AccountUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.PasswordHash != nil {
		set["password_hash"] = *upd.PasswordHash
	}
	if upd.Active != nil {
		set["active"] = *upd.Active
	}
	if upd.EmailVerified != nil {
		set["email_verified"] = *upd.EmailVerified
	}
	if upd.VerificationToken != nil {
		if *upd.VerificationToken == "" {
			unset["verification_token"] = ""
		} else {
			set["verification_token"] = *upd.VerificationToken
		}
	}
	if upd.VerifiedToken != nil {
		set["verified_token"] = *upd.VerifiedToken
	}
	if upd.RecoveryToken != nil {
		if *upd.RecoveryToken == "" {
			unset["recovery_token"] = ""
			unset["recovery_token_expires_at"] = ""
		} else {
			set["recovery_token"] = *upd.RecoveryToken
		}
	}
	if upd.RecoveryTokenExpiresAt != nil {
		set["recovery_token_expires_at"] = upd.RecoveryTokenExpiresAt.UTC()
		delete(unset, "recovery_token_expires_at")
	}
	if upd.LastAccessAt != nil {
		set["last_access_at"] = upd.LastAccessAt.UTC()
	}
	if upd.Preferences != nil {
		set["preferences"] = upd.Preferences
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}

func (r *AccountRepository) Update(ctx context.Context, id string, upd ports.AccountUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, accountUpdateDoc(upd, time.Now().UTC()))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, f ports.AccountFilter) ([]*domain.Account, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.EmailContains != "" {
		filter["email"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.EmailContains), Options: "i"}
	}
	if f.Active != nil {
		filter["active"] = *f.Active
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(f.Page.Skip()).
		SetLimit(int64(f.Page.Limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode accounts: %w", err)
	}
	out := make([]*domain.Account, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (r *AccountRepository) ClearExpiredRecoveryTokens(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx,
		bson.M{"recovery_token_expires_at": bson.M{"$lt": now.UTC()}},
		bson.M{"$unset": bson.M{"recovery_token": "", "recovery_token_expires_at": ""}},
	)
	if err != nil {
		return 0, fmt.Errorf("clear expired recovery tokens: %w", err)
	}
	return res.ModifiedCount, nil
}

// EnsureIndexes creates the indexes of the accounts collection.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "verification_token", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "verified_token", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "recovery_token", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "recovery_token_expires_at", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
