// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// FlexString accepts either a JSON string or a JSON number. The server is
// inconsistent about fields like zip and bizNumber.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Name is a person's name as the server stores it.
type Name struct {
	First  string `json:"first"`
	Middle string `json:"middle,omitempty"`
	Last   string `json:"last"`
}

// Full joins the non-empty parts with spaces.
func (n Name) Full() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.First, n.Middle, n.Last} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Image is a remote picture with alt text.
type Image struct {
	URL string `json:"url,omitempty"`
	Alt string `json:"alt,omitempty"`
}

// Address is a postal address.
type Address struct {
	State       string     `json:"state,omitempty"`
	Country     string     `json:"country"`
	City        string     `json:"city"`
	Street      string     `json:"street"`
	HouseNumber FlexString `json:"houseNumber"`
	Zip         FlexString `json:"zip,omitempty"`
}

// User is the canonical user record returned by GET /users/:id.
//
// Older server builds report the business flag as "biz"; both are kept
// here and reconciled by IsBusinessUser so nothing downstream has to care.
type User struct {
	ID         string  `json:"_id"`
	Name       Name    `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	IsAdmin    bool    `json:"isAdmin"`
	IsBusiness *bool   `json:"isBusiness,omitempty"`
	Biz        *bool   `json:"biz,omitempty"`
	IsBlocked  bool    `json:"isBlocked"`
	Address    Address `json:"address"`
	Image      Image   `json:"image"`
}

// IsBusinessUser reports the business flag, preferring isBusiness over the
// legacy biz field.
func (u User) IsBusinessUser() bool {
	if u.IsBusiness != nil {
		return *u.IsBusiness
	}
	if u.Biz != nil {
		return *u.Biz
	}
	return false
}

// Registration is the body of POST /users.
type Registration struct {
	Name       Name    `json:"name"`
	Phone      string  `json:"phone"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Image      Image   `json:"image"`
	Address    Address `json:"address"`
	IsBusiness bool    `json:"isBusiness"`
	IsAdmin    bool    `json:"isAdmin"`
	// AdminCode is only sent when non-empty.
	AdminCode string `json:"adminCode,omitempty"`
}

// ProfileUpdate is the body of PUT /users/:id.
type ProfileUpdate struct {
	Name    Name    `json:"name"`
	Phone   string  `json:"phone"`
	Image   Image   `json:"image"`
	Address Address `json:"address"`
}

// Card is a business card.
type Card struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle"`
	Description string     `json:"description"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	Web         string     `json:"web,omitempty"`
	Image       Image      `json:"image"`
	Address     Address    `json:"address"`
	BizNumber   FlexString `json:"bizNumber,omitempty"`
	Likes       []string   `json:"likes"`
	UserID      string     `json:"user_id"`
	IsBlocked   bool       `json:"isBlocked"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
}

// LikedBy reports whether userID is in the card's like list.
func (c Card) LikedBy(userID string) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CardInput is the body of POST /cards and PUT /cards/:id.
type CardInput struct {
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Description string  `json:"description"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email"`
	Web         string  `json:"web,omitempty"`
	Image       Image   `json:"image"`
	Address     Address `json:"address"`
}

// Stats summarises the directory for the admin dashboard.
type Stats struct {
	TotalUsers    int `json:"totalUsers"`
	BusinessUsers int `json:"businessUsers"`
	AdminUsers    int `json:"adminUsers"`
	BlockedUsers  int `json:"blockedUsers"`
	TotalCards    int `json:"totalCards"`
	BlockedCards  int `json:"blockedCards"`
	TotalLikes    int `json:"totalLikes"`
}
