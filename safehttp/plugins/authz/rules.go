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

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
)

// Rule grants access to the requests its Matcher accepts when the Condition
// holds.
type Rule struct {
	Matcher   matcher.Matcher
	Condition Condition
}

func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s", r.Matcher, r.Condition)
}

// Rules is an ordered list of rules.
type Rules []Rule

// Decide evaluates the rules in order. The first rule whose matcher accepts
// the request decides and its index is returned; later rules are never
// consulted. When no rule matches, access is denied and the index is -1.
func (rs Rules) Decide(a *auth.Authentication, r *safehttp.IncomingRequest) (index int, granted bool) {
	for i, rule := range rs {
		if rule.Matcher == nil || !rule.Matcher.Match(r) {
			continue
		}
		return i, rule.Condition.Check(a, r)
	}
	return -1, false
}
