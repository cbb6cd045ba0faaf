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

// Package auth holds the authentication model shared by the login plugins and
// the authorization rules: who the caller is, how their credentials are
// checked, where the result is stored between requests and how an
// unauthenticated or forbidden caller is answered.
package auth

import (
	"github.com/google/go-safeweb-dsl/safehttp"
)

// Authentication mechanisms.
const (
	MechanismForm      = "form"
	MechanismBasic     = "basic"
	MechanismOAuth2    = "oauth2"
	MechanismBearer    = "bearer"
	MechanismAnonymous = "anonymous"
)

// Authentication is the result of a successful authentication.
type Authentication struct {
	// Principal identifies the caller, usually a username or a subject.
	Principal string
	// Authorities are the granted permissions. Roles are authorities with
	// the "ROLE_" prefix.
	Authorities []string
	// Anonymous is set for the placeholder authentication of callers that did
	// not log in.
	Anonymous bool
	// Mechanism names the plugin that authenticated the caller.
	Mechanism string
	// Attributes carries mechanism specific data, e.g. OAuth2 user info or
	// JWT claims.
	Attributes map[string]interface{}
}

// IsAuthenticated reports whether a is a real, non anonymous authentication.
func (a *Authentication) IsAuthenticated() bool {
	return a != nil && !a.Anonymous
}

// HasAuthority reports whether a was granted authority.
func (a *Authentication) HasAuthority(authority string) bool {
	if a == nil {
		return false
	}
	for _, got := range a.Authorities {
		if got == authority {
			return true
		}
	}
	return false
}

// HasAnyAuthority reports whether a was granted at least one of authorities.
func (a *Authentication) HasAnyAuthority(authorities ...string) bool {
	for _, want := range authorities {
		if a.HasAuthority(want) {
			return true
		}
	}
	return false
}

type authenticationKey struct{}

// FromRequest returns the authentication of the current request, or nil.
func FromRequest(r *safehttp.IncomingRequest) *Authentication {
	a, _ := safehttp.FlightValues(r.Context()).Get(authenticationKey{}).(*Authentication)
	return a
}

// SetAuthentication stores a as the authentication of the current request.
func SetAuthentication(r *safehttp.IncomingRequest, a *Authentication) {
	safehttp.FlightValues(r.Context()).Put(authenticationKey{}, a)
}

// ClearAuthentication removes the authentication of the current request.
func ClearAuthentication(r *safehttp.IncomingRequest) {
	safehttp.FlightValues(r.Context()).Put(authenticationKey{}, (*Authentication)(nil))
}
