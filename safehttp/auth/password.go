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
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptPrefix  = "{bcrypt}"
	noopPrefix    = "{noop}"
	minBCryptCost = bcrypt.MinCost
)

// PasswordEncoder hashes passwords and checks them against stored hashes.
type PasswordEncoder interface {
	Encode(raw string) (string, error)
	Matches(raw, encoded string) bool
}

// BCryptPasswordEncoder uses bcrypt. A zero Cost means bcrypt.DefaultCost.
type BCryptPasswordEncoder struct {
	Cost int
}

// Encode implements PasswordEncoder.
func (e BCryptPasswordEncoder) Encode(raw string) (string, error) {
	cost := e.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Matches implements PasswordEncoder.
func (BCryptPasswordEncoder) Matches(raw, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(raw)) == nil
}

// DelegatingPasswordEncoder picks the algorithm from the "{id}" prefix of the
// stored password: "{bcrypt}" or "{noop}". New passwords are encoded with
// bcrypt.
type DelegatingPasswordEncoder struct {
	BCrypt BCryptPasswordEncoder
}

// Encode implements PasswordEncoder.
func (e DelegatingPasswordEncoder) Encode(raw string) (string, error) {
	h, err := e.BCrypt.Encode(raw)
	if err != nil {
		return "", err
	}
	return bcryptPrefix + h, nil
}

// Matches implements PasswordEncoder. Passwords without a known prefix never
// match.
func (e DelegatingPasswordEncoder) Matches(raw, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, bcryptPrefix):
		return e.BCrypt.Matches(raw, strings.TrimPrefix(encoded, bcryptPrefix))
	case strings.HasPrefix(encoded, noopPrefix):
		return strings.TrimPrefix(encoded, noopPrefix) == raw
	}
	return false
}

// ValidateEncodedPassword checks that encoded carries a prefix the
// DelegatingPasswordEncoder understands.
func ValidateEncodedPassword(encoded string) error {
	if strings.HasPrefix(encoded, bcryptPrefix) || strings.HasPrefix(encoded, noopPrefix) {
		return nil
	}
	return errors.New(`encoded password must start with "{bcrypt}" or "{noop}"`)
}
