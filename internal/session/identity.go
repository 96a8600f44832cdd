// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"

	"github.com/jeranaias/bcard-tui/internal/api"
)

// Roles are the capability flags the route guard checks.
type Roles struct {
	IsAdmin    bool
	IsBusiness bool
}

// Identity is the signed-in user as the rest of the client sees it.
type Identity struct {
	ID        string
	Name      string
	Email     string
	Roles     Roles
	IsBlocked bool
}

// IdentityFromRecord normalises a server user record. The legacy "biz" flag
// is folded into IsBusiness here and nowhere else.
func IdentityFromRecord(u *api.User) Identity {
	if u == nil {
		return Identity{}
	}
	name := u.Name.Full()
	if name == "" {
		name = strings.TrimSpace(u.Email)
	}
	return Identity{
		ID:    u.ID,
		Name:  name,
		Email: u.Email,
		Roles: Roles{
			IsAdmin:    u.IsAdmin,
			IsBusiness: u.IsBusinessUser(),
		},
		IsBlocked: u.IsBlocked,
	}
}

// RoleLabel is a short human label for the highest role held.
func (id Identity) RoleLabel() string {
	switch {
	case id.Roles.IsAdmin:
		return "admin"
	case id.Roles.IsBusiness:
		return "business"
	default:
		return "user"
	}
}
