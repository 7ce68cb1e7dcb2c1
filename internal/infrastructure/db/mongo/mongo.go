package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings required to open the database.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI).SetAppName("turismo-api"))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// Store groups every repository backed by one database.
type Store struct {
	Accounts   *AccountRepository
	Persons    *PersonRepository
	Roles      *RoleRepository
	Listings   *ListingRepository
	Catalog    *CatalogRepository
	AccessLogs *AccessLogRepository
	Photos     *PhotoStore
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		Accounts:   NewAccountRepository(db),
		Persons:    NewPersonRepository(db),
		Roles:      NewRoleRepository(db),
		Listings:   NewListingRepository(db),
		Catalog:    NewCatalogRepository(db),
		AccessLogs: NewAccessLogRepository(db),
		Photos:     NewPhotoStore(db),
	}
}

// Bootstrap creates indexes and provisions base roles, permissions and
// catalogs. It is safe to run on every start.
func (s *Store) Bootstrap(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"account indexes", s.Accounts.EnsureIndexes},
		{"role indexes", s.Roles.EnsureIndexes},
		{"listing indexes", s.Listings.EnsureIndexes},
		{"access log indexes", s.AccessLogs.EnsureIndexes},
		{"base roles", s.Roles.EnsureDefaults},
		{"catalogs", s.Catalog.EnsureDefaults},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("bootstrap %s: %w", step.name, err)
		}
	}
	return nil
}
