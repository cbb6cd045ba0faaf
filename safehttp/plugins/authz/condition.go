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

package authz

import (
	"fmt"
	"strings"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
)

// Condition is a named access requirement.
type Condition struct {
	name  string
	check func(a *auth.Authentication, r *safehttp.IncomingRequest) bool
}

// Access creates a custom condition.
func Access(name string, check func(a *auth.Authentication, r *safehttp.IncomingRequest) bool) Condition {
	return Condition{name: name, check: check}
}

// Check reports whether a may access r.
func (c Condition) Check(a *auth.Authentication, r *safehttp.IncomingRequest) bool {
	if c.check == nil {
		return false
	}
	return c.check(a, r)
}

func (c Condition) String() string {
	return c.name
}

var (
	// PermitAll grants access to everyone.
	PermitAll = Access("permitAll", func(*auth.Authentication, *safehttp.IncomingRequest) bool { return true })
	// DenyAll grants access to no one.
	DenyAll = Access("denyAll", func(*auth.Authentication, *safehttp.IncomingRequest) bool { return false })
	// Authenticated requires a non anonymous authentication.
	Authenticated = Access("authenticated", func(a *auth.Authentication, _ *safehttp.IncomingRequest) bool {
		return a.IsAuthenticated()
	})
	// Anonymous requires the anonymous authentication.
	Anonymous = Access("anonymous", func(a *auth.Authentication, _ *safehttp.IncomingRequest) bool {
		return a != nil && a.Anonymous
	})
)

// HasRole requires the "ROLE_"+role authority. The role must not carry the
// prefix itself.
func HasRole(role string) Condition {
	want := auth.RoleAuthorities(role)[0]
	return Access(fmt.Sprintf("hasRole('%s')", role), func(a *auth.Authentication, _ *safehttp.IncomingRequest) bool {
		return a.HasAuthority(want)
	})
}

// HasAnyRole requires at least one of the roles.
func HasAnyRole(roles ...string) Condition {
	want := auth.RoleAuthorities(roles...)
	return Access(fmt.Sprintf("hasAnyRole(%s)", quoteJoin(roles)), func(a *auth.Authentication, _ *safehttp.IncomingRequest) bool {
		return a.HasAnyAuthority(want...)
	})
}

// HasAuthority requires the authority.
func HasAuthority(authority string) Condition {
	return Access(fmt.Sprintf("hasAuthority('%s')", authority), func(a *auth.Authentication, _ *safehttp.IncomingRequest) bool {
		return a.HasAuthority(authority)
	})
}

// HasAnyAuthority requires at least one of the authorities.
func HasAnyAuthority(authorities ...string) Condition {
	return Access(fmt.Sprintf("hasAnyAuthority(%s)", quoteJoin(authorities)), func(a *auth.Authentication, _ *safehttp.IncomingRequest) bool {
		return a.HasAnyAuthority(authorities...)
	})
}

// HasIPAddress requires the caller's address to be in the CIDR range, or
// equal to the IP address. It panics if cidr cannot be parsed.
func HasIPAddress(cidr string) Condition {
	m, err := matcher.IPAddress(cidr)
	if err != nil {
		panic(err)
	}
	return Access(fmt.Sprintf("hasIpAddress('%s')", cidr), func(_ *auth.Authentication, r *safehttp.IncomingRequest) bool {
		return m.Match(r)
	})
}

func quoteJoin(ss []string) string {
	q := make([]string, 0, len(ss))
	for _, s := range ss {
		q = append(q, "'"+s+"'")
	}
	return strings.Join(q, ",")
}
