package service

import (
	"context"
	"fmt"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

// rbacService exposes the role and permission model read-only.
type rbacService struct {
	roles ports.RoleRepository
}

func NewRBACService(roles ports.RoleRepository) ports.RBACService {
	return &rbacService{roles: roles}
}

func (s *rbacService) Roles(ctx context.Context) ([]domain.RoleRecord, error) {
	out, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	if out == nil {
		out = []domain.RoleRecord{}
	}
	return out, nil
}

func (s *rbacService) Permissions(ctx context.Context) ([]domain.Permission, error) {
	out, err := s.roles.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	if out == nil {
		out = []domain.Permission{}
	}
	return out, nil
}

// RolePermissions fails with domain.ErrRoleNotFound for unknown roles.
func (s *rbacService) RolePermissions(ctx context.Context, roleID int64) ([]domain.Permission, error) {
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return nil, err
	}
	out, err := s.roles.PermissionsForRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	if out == nil {
		out = []domain.Permission{}
	}
	return out, nil
}
