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

// Package anonymous gives callers that did not authenticate a placeholder
// authentication, so that authorization rules can refer to them.
package anonymous

import (
	"github.com/google/uuid"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
)

// Defaults for the anonymous authentication.
const (
	DefaultPrincipal = "anonymousUser"
	DefaultAuthority = "ROLE_ANONYMOUS"
)

// KeyAttribute is the Attributes entry holding the Interceptor key.
const KeyAttribute = "key"

// Interceptor installs an anonymous authentication when the request has
// none.
type Interceptor struct {
	// Key identifies the authentications created by this Interceptor.
	Key         string
	Principal   string
	Authorities []string
}

var _ safehttp.Interceptor = Interceptor{}

// Default returns an Interceptor with a random key.
func Default() Interceptor {
	return Interceptor{
		Key:         uuid.NewString(),
		Principal:   DefaultPrincipal,
		Authorities: []string{DefaultAuthority},
	}
}

// Authentication returns the anonymous authentication the Interceptor
// installs.
func (it Interceptor) Authentication() *auth.Authentication {
	p := it.Principal
	if p == "" {
		p = DefaultPrincipal
	}
	as := it.Authorities
	if len(as) == 0 {
		as = []string{DefaultAuthority}
	}
	return &auth.Authentication{
		Principal:   p,
		Authorities: append([]string(nil), as...),
		Anonymous:   true,
		Mechanism:   auth.MechanismAnonymous,
		Attributes:  map[string]interface{}{KeyAttribute: it.Key},
	}
}

// Before installs the anonymous authentication if no other plugin
// authenticated the request.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	if auth.FromRequest(r) == nil {
		auth.SetAuthentication(r, it.Authentication())
	}
	return safehttp.NotWritten()
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns false since there are no supported configurations.
func (Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
