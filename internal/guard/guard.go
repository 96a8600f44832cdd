// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package guard decides whether the current session may open a route.
//
// Evaluate is a pure function of (token present, identity, requirement).
// Nothing is cached: callers evaluate again on every navigation and every
// session change.
package guard

import (
	"fmt"

	"github.com/jeranaias/bcard-tui/internal/session"
)

// Requirement is the access level a route declares.
type Requirement int

const (
	Public Requirement = iota
	Authenticated
	Business
	Admin
)

// String returns the requirement name.
func (r Requirement) String() string {
	switch r {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Business:
		return "business"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("requirement(%d)", int(r))
	}
}

// Verdict is the outcome of a guard check.
type Verdict int

const (
	Allow Verdict = iota
	RedirectToLogin
	RedirectToHome
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToHome:
		return "redirect_to_home"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Decision is a verdict plus where to go.
type Decision struct {
	Verdict Verdict
	// Target is the path to open: the requested one on Allow, otherwise
	// the redirect destination.
	Target string
	// From is the originally requested path on RedirectToLogin, so the
	// login screen can return there afterwards.
	From string
}

// Evaluate applies req to the session. id is nil when no identity is loaded.
func Evaluate(hasToken bool, id *session.Identity, req Requirement) Decision {
	switch req {
	case Public:
		return Decision{Verdict: Allow}
	case Authenticated:
		if hasToken {
			return Decision{Verdict: Allow}
		}
		return Decision{Verdict: RedirectToLogin, Target: PathLogin}
	case Business, Admin:
		if !hasToken {
			return Decision{Verdict: RedirectToLogin, Target: PathLogin}
		}
		if id != nil && hasRole(*id, req) {
			return Decision{Verdict: Allow}
		}
		return Decision{Verdict: RedirectToHome, Target: PathHome}
	}
	// Unknown requirements fail closed.
	return Decision{Verdict: RedirectToHome, Target: PathHome}
}

func hasRole(id session.Identity, req Requirement) bool {
	switch req {
	case Business:
		return id.Roles.IsBusiness
	case Admin:
		return id.Roles.IsAdmin
	}
	return false
}

// =============================================================================
// GUARD
// =============================================================================

// Source is the read side of the session store.
type Source interface {
	HasToken() bool
	CurrentIdentity() (session.Identity, bool)
}

// Guard evaluates paths against a live session.
type Guard struct {
	src Source
}

// New returns a guard reading from src.
func New(src Source) *Guard {
	return &Guard{src: src}
}

// Check resolves path against the route table and the current session.
// ok is false when no route matches; the caller shows its not-found view.
func (g *Guard) Check(path string) (m Match, d Decision, ok bool) {
	m, ok = Lookup(path)
	if !ok {
		return Match{}, Decision{}, false
	}

	var idp *session.Identity
	if id, has := g.src.CurrentIdentity(); has {
		idp = &id
	}
	d = Evaluate(g.src.HasToken(), idp, m.Route.Requirement)
	switch d.Verdict {
	case Allow:
		d.Target = m.Path
	case RedirectToLogin:
		d.From = m.Path
	}
	return m, d, true
}
