package ports

import (
	"context"

	"github.com/capachica/turismo-api/internal/core/domain"
)

// ProfileUpdate is a self-service profile change.
type ProfileUpdate struct {
	Preferences map[string]any
	Person      PersonUpdate
}

// AdminUserUpdate is an administrative account change.
type AdminUserUpdate struct {
	Email       *string
	Active      *bool
	Preferences map[string]any
	Person      PersonUpdate
}

// PhotoUpload is an uploaded image before processing.
type PhotoUpload struct {
	ContentType string
	Data        []byte
}

type PhotoResult struct {
	Message  string `json:"message"`
	PhotoURL string `json:"photo_url"`
}

type UserService interface {
	Me(ctx context.Context, accountID string) (*domain.UserProfile, error)
	UpdateMe(ctx context.Context, accountID string, upd ProfileUpdate) (*domain.UserProfile, error)
	List(ctx context.Context, filter AccountFilter) (domain.Page[*domain.UserProfile], error)
	Get(ctx context.Context, id string) (*domain.UserProfile, error)
	UpdateByAdmin(ctx context.Context, admin domain.Identity, id string, upd AdminUserUpdate, meta domain.RequestMeta) (*domain.UserProfile, error)
	Deactivate(ctx context.Context, admin domain.Identity, id string, meta domain.RequestMeta) (*MessageResult, error)
	AssignRole(ctx context.Context, admin domain.Identity, id string, roleID int64, meta domain.RequestMeta) (*MessageResult, error)
	RemoveRole(ctx context.Context, admin domain.Identity, id string, roleID int64, meta domain.RequestMeta) (*MessageResult, error)
	UploadPhoto(ctx context.Context, actor domain.Identity, id string, photo PhotoUpload) (*PhotoResult, error)
	RemovePhoto(ctx context.Context, actor domain.Identity, id string, meta domain.RequestMeta) (*MessageResult, error)
	OpenPhoto(ctx context.Context, key string) (*StoredPhoto, error)
}
