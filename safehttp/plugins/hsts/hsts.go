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

// Package hsts sets the Strict-Transport-Security header.
//
// Redirecting plain HTTP traffic to HTTPS is done by the httpsredirect
// plugin.
package hsts

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
)

// DefaultMaxAge is two years.
const DefaultMaxAge = 63072000 * time.Second

// Interceptor writes the Strict-Transport-Security header.
type Interceptor struct {
	// MaxAge is the time that the browser should remember that a site is
	// only to be accessed using HTTPS.
	MaxAge time.Duration

	// DisableIncludeSubDomains drops the includeSubDomains directive. When
	// it is false, all subdomains of the domain hosting this service are
	// added to the browser's HSTS list as well.
	DisableIncludeSubDomains bool

	// Preload adds the preload directive. It should only be set if the site
	// is meant to be added to the browser HSTS preload list. See
	// https://hstspreload.org/.
	Preload bool

	// BehindProxy must be set if a proxy terminates HTTPS in front of this
	// server. The header is then sent on every response.
	BehindProxy bool

	// RequestMatcher, when set, selects the requests that get the header
	// instead of the TLS check.
	RequestMatcher matcher.Matcher
}

var _ safehttp.Interceptor = Interceptor{}

// Default returns an Interceptor with a two year max-age and
// includeSubDomains.
func Default() Interceptor {
	return Interceptor{MaxAge: DefaultMaxAge}
}

// Value returns the header value.
func (it Interceptor) Value() string {
	var value strings.Builder
	value.WriteString("max-age=")
	value.WriteString(strconv.FormatInt(int64(it.MaxAge.Seconds()), 10))
	if !it.DisableIncludeSubDomains {
		value.WriteString("; includeSubDomains")
	}
	if it.Preload {
		value.WriteString("; preload")
	}
	return value.String()
}

func (it Interceptor) applies(r *safehttp.IncomingRequest) bool {
	switch {
	case it.BehindProxy:
		return true
	case it.RequestMatcher != nil:
		return it.RequestMatcher.Match(r)
	default:
		return r.IsSecure()
	}
}

// Before claims Strict-Transport-Security and sets it on the requests the
// Interceptor applies to. A negative MaxAge is a configuration error and
// results in 500 Internal Server Error.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	if it.MaxAge < 0 {
		return w.WriteError(safehttp.StatusInternalServerError)
	}
	set := w.Header().Claim("Strict-Transport-Security")
	if it.applies(r) {
		set([]string{it.Value()})
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
