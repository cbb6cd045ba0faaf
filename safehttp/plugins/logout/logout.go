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

// Package logout ends the caller's authentication.
package logout

import (
	"go.uber.org/zap"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
)

// Defaults.
const (
	DefaultLogoutURL  = "/logout"
	DefaultSuccessURL = "/login?logout"
)

// Handler cleans up state bound to the caller on logout.
type Handler interface {
	Logout(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, a *auth.Authentication)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, a *auth.Authentication)

// Logout calls f(w, r, a).
func (f HandlerFunc) Logout(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, a *auth.Authentication) {
	f(w, r, a)
}

// SuccessHandler answers a completed logout.
type SuccessHandler interface {
	OnLogoutSuccess(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, a *auth.Authentication) safehttp.Result
}

// SuccessHandlerFunc adapts a function to a SuccessHandler.
type SuccessHandlerFunc func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, a *auth.Authentication) safehttp.Result

// OnLogoutSuccess calls f(w, r, a).
func (f SuccessHandlerFunc) OnLogoutSuccess(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, a *auth.Authentication) safehttp.Result {
	return f(w, r, a)
}

// Interceptor answers logout requests.
type Interceptor struct {
	// LogoutURL defaults to DefaultLogoutURL.
	LogoutURL string
	// RequiresLogout selects logout requests. It defaults to POST requests
	// to LogoutURL.
	RequiresLogout matcher.Matcher
	// Repository is cleared on logout.
	Repository auth.ContextRepository
	// Handlers run in order, after the Repository is cleared.
	Handlers []Handler
	// DeleteCookies are expired on logout.
	DeleteCookies []string
	// SuccessURL defaults to DefaultSuccessURL.
	SuccessURL string
	// SuccessHandler replaces the success redirect.
	SuccessHandler SuccessHandler
	Logger         *zap.Logger
}

var _ safehttp.Interceptor = &Interceptor{}

func (it *Interceptor) logoutURL() string {
	if it.LogoutURL == "" {
		return DefaultLogoutURL
	}
	return it.LogoutURL
}

func (it *Interceptor) requiresLogout(r *safehttp.IncomingRequest) bool {
	if it.RequiresLogout != nil {
		return it.RequiresLogout.Match(r)
	}
	return r.Method() == safehttp.MethodPost && r.URL().Path() == it.logoutURL()
}

// Endpoints returns the requests the Interceptor answers, when the default
// matcher is used.
func (it *Interceptor) Endpoints() []auth.Endpoint {
	if it.RequiresLogout != nil {
		return nil
	}
	return []auth.Endpoint{{Pattern: it.logoutURL(), Method: safehttp.MethodPost}}
}

// Before logs the caller out if r is a logout request.
func (it *Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	if !it.requiresLogout(r) {
		return safehttp.NotWritten()
	}
	a := auth.FromRequest(r)
	log := auth.Logger(it.Logger)
	if a != nil {
		log = log.With(zap.String("principal", a.Principal))
	}
	if it.Repository != nil {
		if err := it.Repository.Clear(w, r); err != nil {
			log.Warn("clearing saved authentication", zap.Error(err))
		}
	}
	for _, h := range it.Handlers {
		h.Logout(w, r, a)
	}
	for _, name := range it.DeleteCookies {
		_ = w.AddCookie(safehttp.ExpiredCookie(name, "/"))
	}
	auth.ClearAuthentication(r)
	log.Debug("logged out")

	if it.SuccessHandler != nil {
		return it.SuccessHandler.OnLogoutSuccess(w, r, a)
	}
	url := it.SuccessURL
	if url == "" {
		url = DefaultSuccessURL
	}
	return safehttp.Redirect(w, r, url, safehttp.StatusFound)
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (*Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns false since there are no supported configurations.
func (*Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
