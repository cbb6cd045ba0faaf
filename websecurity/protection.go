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
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/cors"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/httpsredirect"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/xsrf"
)

// CSRF configures cross-site request forgery protection. It is on by
// default.
type CSRF struct {
	// AccessDeniedHandler answers rejected requests, 403 by default.
	AccessDeniedHandler auth.AccessDeniedHandler
	// TokenRepository defaults to signed tokens bound to a cookie.
	TokenRepository xsrf.TokenRepository
	// RequireProtectionMatcher selects the protected requests. By default
	// every method except GET, HEAD, TRACE and OPTIONS is.
	RequireProtectionMatcher matcher.Matcher
	// IgnoringRequestMatchers are never checked.
	IgnoringRequestMatchers []matcher.Matcher

	disabled bool
}

// Disable turns CSRF protection off.
func (c *CSRF) Disable() { c.disabled = true }

func (c *CSRF) get() func(*xsrf.Interceptor) {
	return func(it *xsrf.Interceptor) {
		if c.AccessDeniedHandler != nil {
			it.AccessDeniedHandler = c.AccessDeniedHandler
		}
		if c.TokenRepository != nil {
			it.Repository = c.TokenRepository
		}
		if c.RequireProtectionMatcher != nil {
			it.RequireProtection = c.RequireProtectionMatcher
		}
		it.Ignoring = append(it.Ignoring, c.IgnoringRequestMatchers...)
	}
}

// CORS configures cross-origin resource sharing.
type CORS struct {
	// ConfigurationSource picks the CORS configuration of a request. It is
	// required.
	ConfigurationSource cors.Source

	disabled bool
}

// Disable turns CORS processing off.
func (c *CORS) Disable() { c.disabled = true }

func (c *CORS) get() func(*cors.Interceptor) {
	return func(it *cors.Interceptor) {
		if c.ConfigurationSource != nil {
			it.Source = c.ConfigurationSource
		}
	}
}

// HTTPSRedirect configures redirection of plain HTTP requests to HTTPS.
type HTTPSRedirect struct {
	// PortMapper maps HTTP ports to HTTPS ports. Defaults to 80 to 443 and
	// 8080 to 8443.
	PortMapper httpsredirect.PortMapper

	when []matcher.Matcher
}

// HTTPSRedirectWhen restricts redirection to requests matching one of the
// matchers. It replaces earlier HTTPSRedirectWhen calls.
func (h *HTTPSRedirect) HTTPSRedirectWhen(ms ...matcher.Matcher) {
	h.when = append([]matcher.Matcher(nil), ms...)
}

// HTTPSRedirectWhenFunc restricts redirection to requests for which f
// returns true. It replaces earlier HTTPSRedirectWhen calls.
func (h *HTTPSRedirect) HTTPSRedirectWhenFunc(f func(*safehttp.IncomingRequest) bool) {
	h.when = []matcher.Matcher{matcher.Func("custom redirect predicate", f)}
}

func (h *HTTPSRedirect) get() func(*httpsredirect.Interceptor) {
	return func(it *httpsredirect.Interceptor) {
		if h.PortMapper != nil {
			it.PortMapper = h.PortMapper
		}
		if h.when != nil {
			it.Matchers = h.when
		}
	}
}

// HostCheck restricts the Host header to an allow list.
type HostCheck struct {
	Hosts []string
}

func (h *HostCheck) get() func(*[]string) {
	return func(hosts *[]string) {
		*hosts = append(*hosts, h.Hosts...)
	}
}
