// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// RolePrefix is prepended to roles to turn them into authorities.
const RolePrefix = "ROLE_"

// ErrUserNotFound is returned by a UserDetailsService for unknown users.
var ErrUserNotFound = errors.New("user not found")

// UserDetails is a user known to a UserDetailsService.
type UserDetails struct {
	Username string
	// Password is the encoded password, as understood by a PasswordEncoder.
	Password    string
	Authorities []string
	Disabled    bool
	Locked      bool
}

// UserDetailsService loads users by username.
type UserDetailsService interface {
	LoadUserByUsername(ctx context.Context, username string) (*UserDetails, error)
}

// RoleAuthorities turns roles into authorities. It panics if a role already
// carries the "ROLE_" prefix.
func RoleAuthorities(roles ...string) []string {
	as := make([]string, 0, len(roles))
	for _, r := range roles {
		if strings.HasPrefix(r, RolePrefix) {
			panic(fmt.Sprintf("role %q should not start with %q since it is automatically prepended", r, RolePrefix))
		}
		as = append(as, RolePrefix+r)
	}
	return as
}

// NewUser creates a user with an already encoded password.
func NewUser(username, encodedPassword string, roles ...string) UserDetails {
	return UserDetails{
		Username:    username,
		Password:    encodedPassword,
		Authorities: RoleAuthorities(roles...),
	}
}

// WithDefaultPasswordEncoder creates a user whose password is encoded with
// bcrypt at the minimum cost. The plain text password ends up in the
// program, so this is only fit for samples and tests.
func WithDefaultPasswordEncoder(username, password string, roles ...string) UserDetails {
	enc, err := BCryptPasswordEncoder{Cost: minBCryptCost}.Encode(password)
	if err != nil {
		panic(err)
	}
	return NewUser(username, bcryptPrefix+enc, roles...)
}

// InMemoryUserDetailsService is a UserDetailsService backed by a map.
// Usernames are case insensitive. It is safe for concurrent use.
type InMemoryUserDetailsService struct {
	mu    sync.RWMutex
	users map[string]UserDetails
}

// NewInMemoryUserDetailsService creates a service holding users.
func NewInMemoryUserDetailsService(users ...UserDetails) *InMemoryUserDetailsService {
	s := &InMemoryUserDetailsService{users: map[string]UserDetails{}}
	for _, u := range users {
		s.CreateUser(u)
	}
	return s
}

// CreateUser adds or replaces a user.
func (s *InMemoryUserDetailsService) CreateUser(u UserDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(u.Username)] = u
}

// DeleteUser removes a user.
func (s *InMemoryUserDetailsService) DeleteUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, strings.ToLower(username))
}

// LoadUserByUsername implements UserDetailsService.
func (s *InMemoryUserDetailsService) LoadUserByUsername(_ context.Context, username string) (*UserDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, username)
	}
	u.Authorities = append([]string(nil), u.Authorities...)
	return &u, nil
}
