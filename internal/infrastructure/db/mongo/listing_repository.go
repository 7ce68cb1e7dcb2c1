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

const collectionListings = "emprendimientos"

// ListingRepository implements ports.ListingRepository using MongoDB.
type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(collectionListings)}
}

type listingDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID       string             `bson:"owner_id"`
	Name          string             `bson:"name"`
	Description   string             `bson:"description,omitempty"`
	Type          string             `bson:"type"`
	Address       string             `bson:"address,omitempty"`
	SubdivisionID *int64             `bson:"subdivision_id,omitempty"`
	Phone         string             `bson:"phone,omitempty"`
	Email         string             `bson:"email,omitempty"`
	Website       string             `bson:"website,omitempty"`
	SocialLinks   map[string]string  `bson:"social_links,omitempty"`
	Status        string             `bson:"status"`
	StatusReason  string             `bson:"status_reason,omitempty"`
	ApprovedBy    string             `bson:"approved_by,omitempty"`
	ApprovedAt    *time.Time         `bson:"approved_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func (d *listingDoc) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:            d.ID.Hex(),
		OwnerID:       d.OwnerID,
		Name:          d.Name,
		Description:   d.Description,
		Type:          domain.ListingType(d.Type),
		Address:       d.Address,
		SubdivisionID: d.SubdivisionID,
		Phone:         d.Phone,
		Email:         d.Email,
		Website:       d.Website,
		SocialLinks:   d.SocialLinks,
		Status:        domain.ListingStatus(d.Status),
		StatusReason:  d.StatusReason,
		ApprovedBy:    d.ApprovedBy,
		ApprovedAt:    d.ApprovedAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := listingDoc{
		ID:            primitive.NewObjectID(),
		OwnerID:       l.OwnerID,
		Name:          l.Name,
		Description:   l.Description,
		Type:          string(l.Type),
		Address:       l.Address,
		SubdivisionID: l.SubdivisionID,
		Phone:         l.Phone,
		Email:         l.Email,
		Website:       l.Website,
		SocialLinks:   l.SocialLinks,
		Status:        string(l.Status),
		CreatedAt:     l.CreatedAt.UTC(),
		UpdatedAt:     l.UpdatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrListingNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc listingDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return doc.toDomain(), nil
}

// apply runs update against id and returns the document as it is afterwards.
func (r *ListingRepository) apply(ctx context.Context, id string, update bson.M) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrListingNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc listingDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) Update(ctx context.Context, id string, upd ports.ListingUpdate) (*domain.Listing, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Type != nil {
		set["type"] = string(*upd.Type)
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.SubdivisionID != nil {
		set["subdivision_id"] = *upd.SubdivisionID
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Website != nil {
		set["website"] = *upd.Website
	}
	if upd.SocialLinks != nil {
		set["social_links"] = upd.SocialLinks
	}
	return r.apply(ctx, id, bson.M{"$set": set})
}

// SetStatus writes the status together with its approval stamp; a change that
// carries no approver removes any previous stamp.
func (r *ListingRepository) SetStatus(ctx context.Context, id string, ch ports.StatusChange) (*domain.Listing, error) {
	set := bson.M{
		"status":     string(ch.Status),
		"updated_at": time.Now().UTC(),
	}
	unset := bson.M{}
	if ch.Reason != "" {
		set["status_reason"] = ch.Reason
	} else {
		unset["status_reason"] = ""
	}
	if ch.ApprovedBy != "" && ch.ApprovedAt != nil {
		set["approved_by"] = ch.ApprovedBy
		set["approved_at"] = ch.ApprovedAt.UTC()
	} else {
		unset["approved_by"] = ""
		unset["approved_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return r.apply(ctx, id, update)
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrListingNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func listingFilterDoc(f ports.ListingFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Type != "" {
		filter["type"] = string(f.Type)
	}
	if f.SubdivisionID != nil {
		filter["subdivision_id"] = *f.SubdivisionID
	}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	return filter
}

func (r *ListingRepository) List(ctx context.Context, f ports.ListingFilter) ([]*domain.Listing, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listingFilterDoc(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	order := -1
	if f.OldestFirst {
		order = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: order}, {Key: "_id", Value: order}}).
		SetSkip(f.Page.Skip()).
		SetLimit(int64(f.Page.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []listingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode listings: %w", err)
	}
	out := make([]*domain.Listing, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

// EnsureIndexes creates the indexes of the listings collection.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "subdivision_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
