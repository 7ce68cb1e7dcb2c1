package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/capachica/turismo-api/internal/core/domain"
)

const (
	collectionRoles           = "roles"
	collectionAccountRoles    = "account_roles"
	collectionPermissions     = "permissions"
	collectionRolePermissions = "role_permissions"
)

// RoleRepository implements ports.RoleRepository. Roles and permissions use
// numeric identifiers; assignments live in join collections.
type RoleRepository struct {
	roles           *mongo.Collection
	accountRoles    *mongo.Collection
	permissions     *mongo.Collection
	rolePermissions *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{
		roles:           db.Collection(collectionRoles),
		accountRoles:    db.Collection(collectionAccountRoles),
		permissions:     db.Collection(collectionPermissions),
		rolePermissions: db.Collection(collectionRolePermissions),
	}
}

type roleDoc struct {
	ID          int64  `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description,omitempty"`
}

func (d roleDoc) toDomain() domain.RoleRecord {
	return domain.RoleRecord{ID: d.ID, Name: domain.Role(d.Name), Description: d.Description}
}

type permissionDoc struct {
	ID          int64  `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description,omitempty"`
}

func (d permissionDoc) toDomain() domain.Permission {
	return domain.Permission{ID: d.ID, Name: d.Name, Description: d.Description}
}

type accountRoleDoc struct {
	AccountID  string    `bson:"account_id"`
	RoleID     int64     `bson:"role_id"`
	AssignedAt time.Time `bson:"assigned_at"`
}

type rolePermissionDoc struct {
	RoleID       int64 `bson:"role_id"`
	PermissionID int64 `bson:"permission_id"`
}

func (r *RoleRepository) findRole(ctx context.Context, filter bson.M) (*domain.RoleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc roleDoc
	if err := r.roles.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	rec := doc.toDomain()
	return &rec, nil
}

func (r *RoleRepository) FindByName(ctx context.Context, name domain.Role) (*domain.RoleRecord, error) {
	return r.findRole(ctx, bson.M{"name": string(name)})
}

func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*domain.RoleRecord, error) {
	return r.findRole(ctx, bson.M{"_id": id})
}

func (r *RoleRepository) rolesMatching(ctx context.Context, filter bson.M) ([]domain.RoleRecord, error) {
	cur, err := r.roles.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []roleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	out := make([]domain.RoleRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.RoleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.rolesMatching(ctx, bson.M{})
}

func (r *RoleRepository) RolesForAccount(ctx context.Context, accountID string) ([]domain.RoleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.accountRoles.Find(ctx, bson.M{"account_id": accountID})
	if err != nil {
		return nil, fmt.Errorf("find account roles: %w", err)
	}
	defer cur.Close(ctx)

	var links []accountRoleDoc
	if err := cur.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("decode account roles: %w", err)
	}
	if len(links) == 0 {
		return []domain.RoleRecord{}, nil
	}

	ids := make([]int64, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.RoleID)
	}
	return r.rolesMatching(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *RoleRepository) Assign(ctx context.Context, accountID string, roleID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.accountRoles.InsertOne(ctx, accountRoleDoc{
		AccountID:  accountID,
		RoleID:     roleID,
		AssignedAt: time.Now().UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("assign role: %w", err)
	}
	return true, nil
}

func (r *RoleRepository) Unassign(ctx context.Context, accountID string, roleID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.accountRoles.DeleteOne(ctx, bson.M{"account_id": accountID, "role_id": roleID})
	if err != nil {
		return false, fmt.Errorf("unassign role: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *RoleRepository) UnassignAll(ctx context.Context, accountID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.accountRoles.DeleteMany(ctx, bson.M{"account_id": accountID}); err != nil {
		return fmt.Errorf("unassign roles: %w", err)
	}
	return nil
}

func (r *RoleRepository) permissionsMatching(ctx context.Context, filter bson.M) ([]domain.Permission, error) {
	cur, err := r.permissions.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []permissionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	out := make([]domain.Permission, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *RoleRepository) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.permissionsMatching(ctx, bson.M{})
}

func (r *RoleRepository) PermissionsForRole(ctx context.Context, roleID int64) ([]domain.Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.rolePermissions.Find(ctx, bson.M{"role_id": roleID})
	if err != nil {
		return nil, fmt.Errorf("find role permissions: %w", err)
	}
	defer cur.Close(ctx)

	var links []rolePermissionDoc
	if err := cur.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("decode role permissions: %w", err)
	}
	if len(links) == 0 {
		return []domain.Permission{}, nil
	}

	ids := make([]int64, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.PermissionID)
	}
	return r.permissionsMatching(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// EnsureDefaults upserts the base roles and permissions and grants every base
// permission to the admin role. Existing documents are left as they are.
func (r *RoleRepository) EnsureDefaults(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	upsert := options.Update().SetUpsert(true)
	for _, role := range domain.BaseRoles {
		_, err := r.roles.UpdateOne(ctx,
			bson.M{"_id": role.ID},
			bson.M{"$setOnInsert": bson.M{"name": string(role.Name), "description": role.Description}},
			upsert,
		)
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("seed role %s: %w", role.Name, err)
		}
	}

	admin, err := r.FindByName(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}
	for _, p := range domain.BasePermissions {
		_, err := r.permissions.UpdateOne(ctx,
			bson.M{"_id": p.ID},
			bson.M{"$setOnInsert": bson.M{"name": p.Name, "description": p.Description}},
			upsert,
		)
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("seed permission %s: %w", p.Name, err)
		}
		_, err = r.rolePermissions.UpdateOne(ctx,
			bson.M{"role_id": admin.ID, "permission_id": p.ID},
			bson.M{"$setOnInsert": bson.M{"granted_at": time.Now().UTC()}},
			upsert,
		)
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("grant permission %s: %w", p.Name, err)
		}
	}
	return nil
}

// EnsureIndexes creates the unique indexes that back idempotent assignment.
func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	if _, err := r.roles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("roles index: %w", err)
	}
	if _, err := r.permissions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("permissions index: %w", err)
	}
	if _, err := r.accountRoles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "role_id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "role_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("account_roles index: %w", err)
	}
	if _, err := r.rolePermissions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "role_id", Value: 1}, {Key: "permission_id", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("role_permissions index: %w", err)
	}
	return nil
}
