// Package adapters binds the collaborator services to the campaign engine's
// ports, converting between per-module models.
package adapters

import (
	"context"

	"wrldrelief/internal/campaign/ports"
	"wrldrelief/internal/userdir"
)

// UserDirectory adapts the directory service to the engine's UserDirectory
// port.
type UserDirectory struct {
	svc *userdir.Service
}

func NewUserDirectory(svc *userdir.Service) *UserDirectory {
	return &UserDirectory{svc: svc}
}

func (a *UserDirectory) HasRole(ctx context.Context, addr string, role ports.Role) (bool, error) {
	return a.svc.HasRole(ctx, addr, userdir.Role(role))
}

func (a *UserDirectory) GetUserInfo(ctx context.Context, addr string) (*ports.UserInfo, error) {
	user, err := a.svc.GetUserInfo(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &ports.UserInfo{
		Address:       user.Address,
		DisplayName:   user.DisplayName,
		Verified:      user.Verified,
		IsDonor:       user.HasRole(userdir.RoleDonor),
		IsRecipient:   user.HasRole(userdir.RoleRecipient),
		IsOrganizer:   user.HasRole(userdir.RoleOrganizer),
		TotalDonated:  user.TotalDonated,
		TotalReceived: user.TotalReceived,
	}, nil
}

func (a *UserDirectory) RecordDonation(ctx context.Context, addr string, amount int64) error {
	return a.svc.RecordDonation(ctx, addr, amount)
}

func (a *UserDirectory) RecordReceived(ctx context.Context, addr string, amount int64) error {
	return a.svc.RecordReceived(ctx, addr, amount)
}

var _ ports.UserDirectory = (*UserDirectory)(nil)

// Authorizer adapts the directory service to the registry's role-string
// Authorizer interface.
type Authorizer struct {
	svc *userdir.Service
}

func NewAuthorizer(svc *userdir.Service) *Authorizer {
	return &Authorizer{svc: svc}
}

func (a *Authorizer) HasRole(ctx context.Context, addr string, role string) (bool, error) {
	parsed, err := userdir.ParseRole(role)
	if err != nil {
		return false, err
	}
	return a.svc.HasRole(ctx, addr, parsed)
}
