package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

const collectionPersons = "persons"

type PersonRepository struct {
	col *mongo.Collection
}

func NewPersonRepository(db *mongo.Database) *PersonRepository {
	return &PersonRepository{col: db.Collection(collectionPersons)}
}

type personDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	FirstName     string             `bson:"first_name"`
	LastName      string             `bson:"last_name"`
	Phone         string             `bson:"phone,omitempty"`
	Address       string             `bson:"address,omitempty"`
	PhotoURL      string             `bson:"photo_url,omitempty"`
	BirthDate     *time.Time         `bson:"birth_date,omitempty"`
	SubdivisionID *int64             `bson:"subdivision_id,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func (d *personDoc) toDomain() *domain.Person {
	return &domain.Person{
		ID:            d.ID.Hex(),
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Phone:         d.Phone,
		Address:       d.Address,
		PhotoURL:      d.PhotoURL,
		BirthDate:     d.BirthDate,
		SubdivisionID: d.SubdivisionID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (r *PersonRepository) Create(ctx context.Context, p *domain.Person) (*domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := personDoc{
		ID:            primitive.NewObjectID(),
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Phone:         p.Phone,
		Address:       p.Address,
		BirthDate:     p.BirthDate,
		SubdivisionID: p.SubdivisionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert person: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PersonRepository) FindByID(ctx context.Context, id string) (*domain.Person, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPersonNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc personDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPersonNotFound
		}
		return nil, fmt.Errorf("find person: %w", err)
	}
	return doc.toDomain(), nil
}

// personUpdateDoc maps set fields to $set; an empty photo URL is unset.
func personUpdateDoc(upd ports.PersonUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}
	if upd.FirstName != nil {
		set["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		set["last_name"] = *upd.LastName
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.PhotoURL != nil {
		if *upd.PhotoURL == "" {
			unset["photo_url"] = ""
		} else {
			set["photo_url"] = *upd.PhotoURL
		}
	}
	if upd.BirthDate != nil {
		set["birth_date"] = upd.BirthDate.UTC()
	}
	if upd.SubdivisionID != nil {
		set["subdivision_id"] = *upd.SubdivisionID
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}

func (r *PersonRepository) Update(ctx context.Context, id string, upd ports.PersonUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrPersonNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, personUpdateDoc(upd, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPersonNotFound
	}
	return nil
}

func (r *PersonRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return nil
}
