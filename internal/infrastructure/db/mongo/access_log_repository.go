package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

const collectionAccessLogs = "access_logs"

// AccessLogRepository implements ports.AccessLogRepository. Entries are
// append-only; there is no update or delete path.
type AccessLogRepository struct {
	col *mongo.Collection
}

func NewAccessLogRepository(db *mongo.Database) *AccessLogRepository {
	return &AccessLogRepository{col: db.Collection(collectionAccessLogs)}
}

type accessLogDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	AccountID string             `bson:"account_id,omitempty"`
	IP        string             `bson:"ip,omitempty"`
	UserAgent string             `bson:"user_agent,omitempty"`
	EventType string             `bson:"event_type"`
	Details   map[string]any     `bson:"details,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *AccessLogRepository) Insert(ctx context.Context, e domain.AccessLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	doc := accessLogDoc{
		ID:        primitive.NewObjectID(),
		AccountID: e.AccountID,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		EventType: string(e.EventType),
		Details:   e.Details,
		CreatedAt: createdAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}
	return nil
}

func (r *AccessLogRepository) List(ctx context.Context, f ports.AccessLogFilter) ([]domain.AccessLogEntry, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.AccountID != "" {
		filter["account_id"] = f.AccountID
	}
	if f.EventType != "" {
		filter["event_type"] = string(f.EventType)
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count access logs: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(f.Page.Skip()).
		SetLimit(int64(f.Page.Limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list access logs: %w", err)
	}
	defer cur.Close(ctx)

	var docs []accessLogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode access logs: %w", err)
	}
	out := make([]domain.AccessLogEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.AccessLogEntry{
			ID:        d.ID.Hex(),
			AccountID: d.AccountID,
			IP:        d.IP,
			UserAgent: d.UserAgent,
			EventType: domain.EventType(d.EventType),
			Details:   d.Details,
			CreatedAt: d.CreatedAt,
		})
	}
	return out, total, nil
}

// EnsureIndexes creates the indexes used by the admin access-log query.
func (r *AccessLogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
