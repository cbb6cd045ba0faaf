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
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/anonymous"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/httpbasic"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/logout"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/requestcache"
)

// HTTPBasic configures HTTP Basic authentication.
type HTTPBasic struct {
	// Realm is sent in the WWW-Authenticate challenge.
	Realm string
	// AuthenticationEntryPoint replaces the Basic challenge.
	AuthenticationEntryPoint auth.EntryPoint
	// AuthenticationManager overrides the manager of the HTTP block.
	AuthenticationManager auth.Manager

	disabled bool
}

// Disable turns HTTP Basic authentication off.
func (b *HTTPBasic) Disable() { b.disabled = true }

func (b *HTTPBasic) get() func(*httpbasic.Interceptor) {
	return func(it *httpbasic.Interceptor) {
		if b.Realm != "" {
			it.EntryPoint = auth.BasicEntryPoint{Realm: b.Realm}
		}
		if b.AuthenticationEntryPoint != nil {
			it.EntryPoint = b.AuthenticationEntryPoint
		}
		if b.AuthenticationManager != nil {
			it.Manager = b.AuthenticationManager
		}
	}
}

// AnonymousAuthentication configures the authentication given to callers
// that did not log in.
type AnonymousAuthentication struct {
	Key         string
	Principal   string
	Authorities []string

	disabled bool
}

// Disable turns anonymous authentication off: callers that did not log in
// have no authentication at all.
func (a *AnonymousAuthentication) Disable() { a.disabled = true }

func (a *AnonymousAuthentication) get() func(*anonymous.Interceptor) {
	return func(it *anonymous.Interceptor) {
		setString(&it.Key, a.Key)
		setString(&it.Principal, a.Principal)
		if a.Authorities != nil {
			it.Authorities = append([]string(nil), a.Authorities...)
		}
	}
}

// exceptionHandlers holds the handlers chosen by ExceptionHandling.
type exceptionHandlers struct {
	entryPoint   auth.EntryPoint
	accessDenied auth.AccessDeniedHandler
}

// ExceptionHandling configures how denied requests are answered.
type ExceptionHandling struct {
	// AuthenticationEntryPoint answers unauthenticated callers. It
	// replaces the entry point of the login mechanisms.
	AuthenticationEntryPoint auth.EntryPoint
	// AccessDeniedHandler answers authenticated callers that were denied.
	AccessDeniedHandler auth.AccessDeniedHandler
}

func (e *ExceptionHandling) get() func(*exceptionHandlers) {
	return func(h *exceptionHandlers) {
		if e.AuthenticationEntryPoint != nil {
			h.entryPoint = e.AuthenticationEntryPoint
		}
		if e.AccessDeniedHandler != nil {
			h.accessDenied = e.AccessDeniedHandler
		}
	}
}

// Logout configures logout. It is on by default when form or OAuth2 login
// is.
type Logout struct {
	// LogoutURL defaults to "/logout". It only accepts POST requests unless
	// CSRF protection is disabled.
	LogoutURL string
	// RequiresLogout replaces the LogoutURL check.
	RequiresLogout matcher.Matcher
	// LogoutHandler runs in addition to clearing the authentication.
	LogoutHandler logout.Handler
	// LogoutSuccessURL defaults to "/login?logout".
	LogoutSuccessURL     string
	LogoutSuccessHandler logout.SuccessHandler
	// DeleteCookies are expired on logout.
	DeleteCookies []string

	disabled bool
}

// Disable turns logout off.
func (l *Logout) Disable() { l.disabled = true }

func (l *Logout) get() func(*logout.Interceptor) {
	return func(it *logout.Interceptor) {
		setString(&it.LogoutURL, l.LogoutURL)
		setString(&it.SuccessURL, l.LogoutSuccessURL)
		if l.RequiresLogout != nil {
			it.RequiresLogout = l.RequiresLogout
		}
		if l.LogoutHandler != nil {
			it.Handlers = append(it.Handlers, l.LogoutHandler)
		}
		if l.LogoutSuccessHandler != nil {
			it.SuccessHandler = l.LogoutSuccessHandler
		}
		it.DeleteCookies = append(it.DeleteCookies, l.DeleteCookies...)
	}
}

// RequestCache configures where requests interrupted by a login are saved.
type RequestCache struct {
	// RequestCache defaults to a cookie based cache.
	RequestCache requestcache.Cache

	disabled bool
}

// Disable stops saving requests: users land on the default success URL
// after logging in.
func (c *RequestCache) Disable() { c.disabled = true }

func (c *RequestCache) get() func(*requestcache.Cache) {
	return func(rc *requestcache.Cache) {
		if c.RequestCache != nil {
			*rc = c.RequestCache
		}
	}
}
