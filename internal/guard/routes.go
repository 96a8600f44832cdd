// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package guard

import (
	"net/url"
	"strings"
)

// Route paths. Segments starting with ':' are parameters.
const (
	PathHome        = "/"
	PathAbout       = "/about-page"
	PathFavourites  = "/like-cards"
	PathMyCards     = "/my-cards"
	PathLogin       = "/login"
	PathRegister    = "/register"
	PathSandbox     = "/sandbox"
	PathCardDetails = "/card-details/:id"
	PathEditCard    = "/edit-card/:id"
	PathProfile     = "/user-profile"
	PathEditProfile = "/edit-profile"
	PathAdmin       = "/admin"
	PathAdminUsers  = "/admin/users"
	PathAdminCards  = "/admin/cards"
)

// Route is one entry of the route table.
type Route struct {
	Pattern     string
	Title       string
	Requirement Requirement
}

// Routes is the client's route table.
var Routes = []Route{
	{PathHome, "Cards", Public},
	{PathAbout, "About", Public},
	{PathLogin, "Login", Public},
	{PathRegister, "Register", Public},
	{PathCardDetails, "Card", Public},
	{PathFavourites, "Favourites", Authenticated},
	{PathProfile, "Profile", Authenticated},
	{PathEditProfile, "Edit Profile", Authenticated},
	{PathMyCards, "My Cards", Business},
	{PathSandbox, "Sandbox", Business},
	{PathEditCard, "Edit Card", Business},
	{PathAdmin, "Admin", Admin},
	{PathAdminUsers, "Users", Admin},
	{PathAdminCards, "Moderation", Admin},
}

// Match is a route matched against a concrete path.
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
}

// Param returns a path parameter, or "".
func (m Match) Param(name string) string {
	return m.Params[name]
}

// Lookup finds the route for path. Trailing slashes and query strings are
// ignored.
func Lookup(path string) (Match, bool) {
	clean := normalise(path)
	segs := split(clean)
	for _, r := range Routes {
		if params, ok := matchSegments(split(r.Pattern), segs); ok {
			return Match{Route: r, Path: clean, Params: params}, true
		}
	}
	return Match{}, false
}

// Build fills a pattern's parameters, e.g. Build(PathCardDetails, "id", "42").
func Build(pattern string, kv ...string) string {
	out := pattern
	for i := 0; i+1 < len(kv); i += 2 {
		out = strings.Replace(out, ":"+kv[i], url.PathEscape(kv[i+1]), 1)
	}
	return out
}

func normalise(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matchSegments(pattern, segs []string) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	var params map[string]string
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			v, err := url.PathUnescape(segs[i])
			if err != nil || v == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:]] = v
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}
