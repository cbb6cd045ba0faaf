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

// Package formlogin authenticates users with a username and password posted
// from an HTML login form.
package formlogin

import (
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/requestcache"
)

// Defaults.
const (
	DefaultLoginPage         = "/login"
	DefaultUsernameParameter = "username"
	DefaultPasswordParameter = "password"
	DefaultSuccessURL        = "/"
	DefaultFailureURL        = "/login?error"
)

// ErrInvalidParameter is returned for a form parameter name that cannot be
// used as the name attribute of an input.
var ErrInvalidParameter = errors.New("invalid form parameter name")

// SuccessHandler answers a successful login.
type SuccessHandler interface {
	OnSuccess(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, a *auth.Authentication) safehttp.Result
}

// SuccessHandlerFunc adapts a function to a SuccessHandler.
type SuccessHandlerFunc func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, a *auth.Authentication) safehttp.Result

// OnSuccess calls f(w, r, a).
func (f SuccessHandlerFunc) OnSuccess(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, a *auth.Authentication) safehttp.Result {
	return f(w, r, a)
}

// FailureHandler answers a failed login.
type FailureHandler interface {
	OnFailure(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, err error) safehttp.Result
}

// FailureHandlerFunc adapts a function to a FailureHandler.
type FailureHandlerFunc func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, err error) safehttp.Result

// OnFailure calls f(w, r, err).
func (f FailureHandlerFunc) OnFailure(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, err error) safehttp.Result {
	return f(w, r, err)
}

// Interceptor serves the login page and processes login attempts. Every
// field is optional except Manager.
type Interceptor struct {
	Manager auth.Manager
	// Repository, if set, saves successful authentications.
	Repository auth.ContextRepository

	// LoginPage defaults to DefaultLoginPage.
	LoginPage string
	// DisableLoginPage stops the Interceptor from generating the login page,
	// e.g. because the application serves its own.
	DisableLoginPage bool
	// LoginProcessingURL defaults to LoginPage.
	LoginProcessingURL string
	// UsernameParameter defaults to DefaultUsernameParameter.
	UsernameParameter string
	// PasswordParameter defaults to DefaultPasswordParameter.
	PasswordParameter string

	// DefaultSuccessURL defaults to DefaultSuccessURL. It is used when no
	// request was saved, or always with AlwaysUseDefaultSuccessURL.
	DefaultSuccessURL          string
	AlwaysUseDefaultSuccessURL bool
	// FailureURL defaults to DefaultFailureURL.
	FailureURL string
	// SuccessHandler replaces the success redirect.
	SuccessHandler SuccessHandler
	// FailureHandler replaces the failure redirect.
	FailureHandler FailureHandler
	// RequiresAuthentication selects login attempts. It defaults to POST
	// requests to LoginProcessingURL.
	RequiresAuthentication matcher.Matcher
	RequestCache           requestcache.Cache

	Logger   *zap.Logger
	Recorder auth.Recorder
}

var _ safehttp.Interceptor = &Interceptor{}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (it *Interceptor) loginPage() string {
	return orDefault(it.LoginPage, DefaultLoginPage)
}

func (it *Interceptor) processingURL() string {
	return orDefault(it.LoginProcessingURL, it.loginPage())
}

func (it *Interceptor) usernameParameter() string {
	return orDefault(it.UsernameParameter, DefaultUsernameParameter)
}

func (it *Interceptor) passwordParameter() string {
	return orDefault(it.PasswordParameter, DefaultPasswordParameter)
}

// Validate checks the username and password parameter names.
func (it *Interceptor) Validate() error {
	for _, p := range []string{it.usernameParameter(), it.passwordParameter()} {
		if _, err := identifier(p); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interceptor) requiresAuthentication(r *safehttp.IncomingRequest) bool {
	if it.RequiresAuthentication != nil {
		return it.RequiresAuthentication.Match(r)
	}
	return r.Method() == safehttp.MethodPost && r.URL().Path() == it.processingURL()
}

// EntryPoint redirects to the login page.
func (it *Interceptor) EntryPoint() auth.EntryPoint {
	return auth.RedirectEntryPoint{URL: it.loginPage()}
}

// Endpoints returns the requests the Interceptor answers.
func (it *Interceptor) Endpoints() []auth.Endpoint {
	var eps []auth.Endpoint
	if !it.DisableLoginPage {
		eps = append(eps, auth.Endpoint{Pattern: it.loginPage(), Method: safehttp.MethodGet})
	}
	if it.RequiresAuthentication == nil {
		eps = append(eps, auth.Endpoint{Pattern: it.processingURL(), Method: safehttp.MethodPost})
	}
	return eps
}

// LoginPagePath returns the path of the login page.
func (it *Interceptor) LoginPagePath() string {
	return it.loginPage()
}

// PublicPaths returns the paths of the login page, the processing URL and
// the failure URL, without duplicates. Users that are not logged in must be
// allowed to reach them.
func (it *Interceptor) PublicPaths() []string {
	failure := orDefault(it.FailureURL, DefaultFailureURL)
	if i := strings.IndexAny(failure, "?#"); i >= 0 {
		failure = failure[:i]
	}
	var paths []string
	for _, p := range []string{it.loginPage(), it.processingURL(), failure} {
		if p != "" && !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}
	return paths
}

// Before serves the login page and processes login attempts. Other
// requests pass through.
func (it *Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	if it.requiresAuthentication(r) {
		return it.attempt(w, r)
	}
	if !it.DisableLoginPage && r.Method() == safehttp.MethodGet && r.URL().Path() == it.loginPage() {
		return it.servePage(w, r)
	}
	return safehttp.NotWritten()
}

func (it *Interceptor) attempt(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	rec := auth.OrNop(it.Recorder)
	var username, password string
	if f, err := r.PostForm(); err == nil {
		username = strings.TrimSpace(f.String(it.usernameParameter(), ""))
		password = f.String(it.passwordParameter(), "")
	}
	log := auth.Logger(it.Logger).With(zap.String("username", username))

	a, err := it.Manager.Authenticate(r.Context(), username, password)
	if err != nil {
		log.Info("form login failed", zap.Error(err))
		rec.AuthenticationAttempt(auth.MechanismForm, false)
		auth.ClearAuthentication(r)
		if it.FailureHandler != nil {
			return it.FailureHandler.OnFailure(w, r, err)
		}
		return safehttp.Redirect(w, r, orDefault(it.FailureURL, DefaultFailureURL), safehttp.StatusFound)
	}

	rec.AuthenticationAttempt(auth.MechanismForm, true)
	cp := *a
	cp.Mechanism = auth.MechanismForm
	auth.SetAuthentication(r, &cp)
	if it.Repository != nil {
		if err := it.Repository.Save(w, r, &cp); err != nil {
			log.Error("saving authentication", zap.Error(err))
			return w.WriteError(safehttp.StatusInternalServerError)
		}
	}
	log.Debug("form login succeeded")
	if it.SuccessHandler != nil {
		return it.SuccessHandler.OnSuccess(w, r, &cp)
	}
	return safehttp.Redirect(w, r, it.successURL(w, r), safehttp.StatusFound)
}

func (it *Interceptor) successURL(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) string {
	target := orDefault(it.DefaultSuccessURL, DefaultSuccessURL)
	if it.RequestCache == nil {
		return target
	}
	saved, ok := it.RequestCache.Get(r)
	if ok {
		it.RequestCache.Remove(w, r)
		if !it.AlwaysUseDefaultSuccessURL {
			target = saved
		}
	}
	return target
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (*Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns false since there are no supported configurations.
func (*Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
