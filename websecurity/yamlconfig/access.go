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

package yamlconfig

import (
	"fmt"
	"strings"

	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/authz"
)

var simpleAccess = map[string]authz.Condition{
	"permitAll":     authz.PermitAll,
	"denyAll":       authz.DenyAll,
	"authenticated": authz.Authenticated,
	"anonymous":     authz.Anonymous,
}

// ParseAccess parses an access expression: permitAll, denyAll,
// authenticated, anonymous, or one of hasRole, hasAnyRole, hasAuthority,
// hasAnyAuthority and hasIpAddress applied to arguments. Arguments may be
// single quoted.
func ParseAccess(expr string) (authz.Condition, error) {
	expr = strings.TrimSpace(expr)
	if c, ok := simpleAccess[expr]; ok {
		return c, nil
	}
	open := strings.IndexByte(expr, '(')
	if open < 0 || !strings.HasSuffix(expr, ")") {
		return authz.Condition{}, fmt.Errorf("unknown access expression %q", expr)
	}
	name := strings.TrimSpace(expr[:open])
	args, err := splitArgs(expr[open+1 : len(expr)-1])
	if err != nil {
		return authz.Condition{}, fmt.Errorf("access expression %q: %w", expr, err)
	}
	one := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("access expression %q: %s takes one argument", expr, name)
		}
		return args[0], nil
	}

	switch name {
	case "hasRole":
		role, err := one()
		if err != nil {
			return authz.Condition{}, err
		}
		return roleCondition(expr, func() authz.Condition { return authz.HasRole(role) })
	case "hasAnyRole":
		return roleCondition(expr, func() authz.Condition { return authz.HasAnyRole(args...) })
	case "hasAuthority":
		a, err := one()
		if err != nil {
			return authz.Condition{}, err
		}
		return authz.HasAuthority(a), nil
	case "hasAnyAuthority":
		return authz.HasAnyAuthority(args...), nil
	case "hasIpAddress":
		cidr, err := one()
		if err != nil {
			return authz.Condition{}, err
		}
		if _, err := matcher.IPAddress(cidr); err != nil {
			return authz.Condition{}, fmt.Errorf("access expression %q: %w", expr, err)
		}
		return authz.HasIPAddress(cidr), nil
	}
	return authz.Condition{}, fmt.Errorf("unknown access expression %q", expr)
}

// roleCondition builds a role condition, turning the panic on prefixed
// roles into an error.
func roleCondition(expr string, build func() authz.Condition) (c authz.Condition, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("access expression %q: %v", expr, r)
		}
	}()
	return build(), nil
}

func splitArgs(s string) ([]string, error) {
	var args []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if len(a) >= 2 && a[0] == '\'' && a[len(a)-1] == '\'' {
			a = a[1 : len(a)-1]
		}
		if a == "" || strings.ContainsAny(a, "'()") {
			return nil, fmt.Errorf("invalid argument list %q", s)
		}
		args = append(args, a)
	}
	return args, nil
}
