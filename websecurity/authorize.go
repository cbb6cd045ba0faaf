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

package websecurity

import (
	"fmt"

	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/authz"
)

// Access conditions, for use in AuthorizeRequests.
var (
	PermitAll     = authz.PermitAll
	DenyAll       = authz.DenyAll
	Authenticated = authz.Authenticated
	Anonymous     = authz.Anonymous
)

// HasRole requires the role, given without the "ROLE_" prefix.
func HasRole(role string) authz.Condition { return authz.HasRole(role) }

// HasAnyRole requires one of the roles.
func HasAnyRole(roles ...string) authz.Condition { return authz.HasAnyRole(roles...) }

// HasAuthority requires the authority.
func HasAuthority(authority string) authz.Condition { return authz.HasAuthority(authority) }

// HasAnyAuthority requires one of the authorities.
func HasAnyAuthority(authorities ...string) authz.Condition {
	return authz.HasAnyAuthority(authorities...)
}

// HasIPAddress requires the client address to be in the CIDR range.
func HasIPAddress(cidr string) authz.Condition { return authz.HasIPAddress(cidr) }

// AnyRequest matches every request. It is meant for the last rule.
var AnyRequest = matcher.Any()

// AnyExchange is an alias of AnyRequest.
var AnyExchange = AnyRequest

// AuthorizeRequests declares the access rules. Rules are checked in the
// order they were declared and the first rule whose matcher accepts the
// request decides. Requests matched by no rule are denied.
type AuthorizeRequests struct {
	rules authz.Rules
	errs  []error
}

// Authorize adds a rule.
func (a *AuthorizeRequests) Authorize(m matcher.Matcher, cond authz.Condition) {
	a.rules = append(a.rules, authz.Rule{Matcher: m, Condition: cond})
}

// AuthorizePath adds a rule for an Ant-style path pattern such as "/api/**".
func (a *AuthorizeRequests) AuthorizePath(pattern string, cond authz.Condition) {
	a.Authorize(matcher.Path(pattern), cond)
}

// AuthorizeMethod adds a rule for a method and a path pattern.
func (a *AuthorizeRequests) AuthorizeMethod(method, pattern string, cond authz.Condition) {
	a.Authorize(matcher.PathMethod(method, pattern), cond)
}

// AuthorizeRegex adds a rule for paths matching a regular expression. An
// invalid expression makes Build fail.
func (a *AuthorizeRequests) AuthorizeRegex(expr string, cond authz.Condition) {
	m, err := matcher.Regex("", expr)
	if err != nil {
		a.errs = append(a.errs, fmt.Errorf("authorize: %w", err))
		return
	}
	a.Authorize(m, cond)
}

func (a *AuthorizeRequests) get() func(*authz.Interceptor) {
	rules := append(authz.Rules(nil), a.rules...)
	return func(it *authz.Interceptor) {
		it.Rules = append(it.Rules, rules...)
	}
}
