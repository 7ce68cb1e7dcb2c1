package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/capachica/turismo-api/internal/core/domain"
)

const (
	collectionCountries    = "countries"
	collectionSubdivisions = "subdivisions"
)

// CatalogRepository serves the read-only geographic catalogs.
type CatalogRepository struct {
	countries    *mongo.Collection
	subdivisions *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		countries:    db.Collection(collectionCountries),
		subdivisions: db.Collection(collectionSubdivisions),
	}
}

type countryDoc struct {
	ID      int64  `bson:"_id"`
	Name    string `bson:"name"`
	ISOCode string `bson:"code_iso"`
}

type subdivisionDoc struct {
	ID        int64  `bson:"_id"`
	CountryID int64  `bson:"country_id"`
	Name      string `bson:"name"`
	Code      string `bson:"code,omitempty"`
}

func (r *CatalogRepository) Countries(ctx context.Context) ([]domain.Country, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.countries.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer cur.Close(ctx)

	var docs []countryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}
	out := make([]domain.Country, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Country{ID: d.ID, Name: d.Name, ISOCode: d.ISOCode})
	}
	return out, nil
}

func (r *CatalogRepository) Subdivisions(ctx context.Context, countryID *int64) ([]domain.Subdivision, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if countryID != nil {
		filter["country_id"] = *countryID
	}
	cur, err := r.subdivisions.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list subdivisions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []subdivisionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode subdivisions: %w", err)
	}
	out := make([]domain.Subdivision, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Subdivision{ID: d.ID, CountryID: d.CountryID, Name: d.Name, Code: d.Code})
	}
	return out, nil
}

// EnsureDefaults provisions Peru and its default subdivisions when missing.
func (r *CatalogRepository) EnsureDefaults(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	upsert := options.Update().SetUpsert(true)
	peru := countryDoc{ID: 1, Name: "Perú", ISOCode: "PER"}
	if _, err := r.countries.UpdateOne(ctx, bson.M{"_id": peru.ID},
		bson.M{"$setOnInsert": bson.M{"name": peru.Name, "code_iso": peru.ISOCode}}, upsert); err != nil {
		return fmt.Errorf("seed country: %w", err)
	}

	subs := []subdivisionDoc{
		{ID: 1, CountryID: peru.ID, Name: "Puno", Code: "PUN"},
		{ID: 2, CountryID: peru.ID, Name: "Lima", Code: "LIM"},
		{ID: 3, CountryID: peru.ID, Name: "Arequipa", Code: "ARE"},
		{ID: 4, CountryID: peru.ID, Name: "Cusco", Code: "CUS"},
	}
	for _, s := range subs {
		if _, err := r.subdivisions.UpdateOne(ctx, bson.M{"_id": s.ID},
			bson.M{"$setOnInsert": bson.M{"country_id": s.CountryID, "name": s.Name, "code": s.Code}}, upsert); err != nil {
			return fmt.Errorf("seed subdivision %s: %w", s.Name, err)
		}
	}

	_, err := r.subdivisions.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "country_id", Value: 1}}})
	return err
}
