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
)

// Authentication failures. They are deliberately coarse: callers must not be
// able to tell an unknown user from a wrong password.
var (
	ErrBadCredentials = errors.New("bad credentials")
	ErrDisabled       = errors.New("user is disabled")
	ErrLocked         = errors.New("user account is locked")
)

// Manager authenticates a username and password.
type Manager interface {
	Authenticate(ctx context.Context, username, password string) (*Authentication, error)
}

// UserDetailsManager is a Manager checking passwords of users loaded from a
// UserDetailsService.
type UserDetailsManager struct {
	Users UserDetailsService
	// Encoder defaults to DelegatingPasswordEncoder.
	Encoder PasswordEncoder
	// Mechanism is recorded on the resulting Authentication.
	Mechanism string
}

// dummyHash is compared against when the user does not exist, so that
// response times do not leak which usernames are valid.
var dummyHash = func() string {
	enc, err := BCryptPasswordEncoder{Cost: minBCryptCost}.Encode("userNotFoundPassword")
	if err != nil {
		panic(err)
	}
	return bcryptPrefix + enc
}()

// Authenticate implements Manager.
func (m *UserDetailsManager) Authenticate(ctx context.Context, username, password string) (*Authentication, error) {
	enc := m.Encoder
	if enc == nil {
		enc = DelegatingPasswordEncoder{}
	}
	u, err := m.Users.LoadUserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		enc.Matches(password, dummyHash)
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if !enc.Matches(password, u.Password) {
		return nil, ErrBadCredentials
	}
	if u.Disabled {
		return nil, ErrDisabled
	}
	if u.Locked {
		return nil, ErrLocked
	}
	return &Authentication{
		Principal:   u.Username,
		Authorities: u.Authorities,
		Mechanism:   m.Mechanism,
	}, nil
}

// WithMechanism returns a Manager that stamps mechanism on successful
// authentications of m.
func WithMechanism(m Manager, mechanism string) Manager {
	return mechanismManager{m: m, mechanism: mechanism}
}

type mechanismManager struct {
	m         Manager
	mechanism string
}

func (mm mechanismManager) Authenticate(ctx context.Context, username, password string) (*Authentication, error) {
	a, err := mm.m.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	cp := *a
	cp.Mechanism = mm.mechanism
	return &cp, nil
}
