// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared across the board:
// users and their auth state, meeting documents, attachments and audit events.
package model

// Roles recognised by the access gate.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is one of the two fixed identities the access gate can hand out.
type User struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
}

// AdminUser is the single curator identity.
var AdminUser = User{
	Username:    "admin",
	Role:        RoleAdmin,
	DisplayName: "Quản trị viên",
}

// GuestUser is handed to every login that is not the admin credential.
var GuestUser = User{
	Username:    "khach",
	Role:        RoleUser,
	DisplayName: "Thành viên phòng họp",
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AuthState is the persisted session flag.
type AuthState struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
}

// SignedIn builds the state for a successful login.
func SignedIn(u User) AuthState {
	return AuthState{User: &u, IsAuthenticated: true}
}

// CanEdit reports whether the session may perform mutating operations.
func (s AuthState) CanEdit() bool {
	return s.IsAuthenticated && s.User.IsAdmin()
}

// Actor returns the session's user, or nil when nobody is signed in.
func (s AuthState) Actor() *User {
	if !s.IsAuthenticated {
		return nil
	}
	return s.User
}
