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

// Package xsrf provides a safehttp.Interceptor that protects against
// Cross-Site Request Forgery. Requests that change state must carry the
// caller's token in a header or form parameter; requests that don't are
// rejected with 403 Forbidden.
package xsrf

import (
	"errors"

	"go.uber.org/zap"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
)

// ErrNoToken is returned by TokenFromRequest when no token was loaded for
// the request.
var ErrNoToken = errors.New("no xsrf token")

type tokenKey struct{}

// DefaultRequireProtection matches every method except GET, HEAD, TRACE and
// OPTIONS.
var DefaultRequireProtection = matcher.Not(matcher.Or(
	matcher.Method(safehttp.MethodGet),
	matcher.Method(safehttp.MethodHead),
	matcher.Method(safehttp.MethodTrace),
	matcher.Method(safehttp.MethodOptions),
))

// Recorder observes rejected requests. Reason is "missing" or "invalid".
type Recorder interface {
	Rejected(reason string)
}

// Interceptor checks tokens on the requests that require protection and
// makes the caller's token available to handlers.
type Interceptor struct {
	// Repository defaults to a CookieTokenRepository.
	Repository TokenRepository
	// RequireProtection defaults to DefaultRequireProtection.
	RequireProtection matcher.Matcher
	// Ignoring lists requests that are never checked.
	Ignoring []matcher.Matcher
	// AccessDeniedHandler defaults to auth.StatusAccessDenied{}.
	AccessDeniedHandler auth.AccessDeniedHandler
	Logger              *zap.Logger
	Recorder            Recorder
}

var _ safehttp.Interceptor = &Interceptor{}

// Default returns an Interceptor using a SignedTokenRepository with key.
func Default(key string) *Interceptor {
	return &Interceptor{Repository: NewSignedTokenRepository(key)}
}

func (it *Interceptor) repository() TokenRepository {
	if it.Repository == nil {
		it.Repository = &CookieTokenRepository{}
	}
	return it.Repository
}

// Requires reports whether r must carry a valid token.
func (it *Interceptor) Requires(r *safehttp.IncomingRequest) bool {
	m := it.RequireProtection
	if m == nil {
		m = DefaultRequireProtection
	}
	if !m.Match(r) {
		return false
	}
	for _, ig := range it.Ignoring {
		if ig.Match(r) {
			return false
		}
	}
	return true
}

func candidate(r *safehttp.IncomingRequest, tok Token) string {
	if v := r.Header.Get(tok.HeaderName); v != "" {
		return v
	}
	f, err := r.PostForm()
	if err != nil {
		return ""
	}
	return f.String(tok.ParameterName, "")
}

// Before loads the caller's token and, if r requires protection, checks
// that the request carries it.
func (it *Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	repo := it.repository()
	tok, err := repo.Load(w, r)
	if err != nil {
		auth.Logger(it.Logger).Error("loading xsrf token", zap.Error(err))
		return w.WriteError(safehttp.StatusInternalServerError)
	}
	safehttp.FlightValues(r.Context()).Put(tokenKey{}, tok)
	if !it.Requires(r) {
		return safehttp.NotWritten()
	}
	c := candidate(r, tok)
	switch {
	case c == "":
		return it.reject(w, r, "missing")
	case !repo.Verify(r, c):
		return it.reject(w, r, "invalid")
	}
	return safehttp.NotWritten()
}

func (it *Interceptor) reject(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, reason string) safehttp.Result {
	auth.Logger(it.Logger).Info("xsrf token rejected",
		zap.String("reason", reason),
		zap.String("method", r.Method()),
		zap.String("path", r.URL().Path()))
	if it.Recorder != nil {
		it.Recorder.Rejected(reason)
	}
	h := it.AccessDeniedHandler
	if h == nil {
		h = auth.StatusAccessDenied{}
	}
	return h.Handle(w, r)
}

// Commit makes the token available to templates as CSRFToken.
func (it *Interceptor) Commit(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, resp safehttp.Response, _ safehttp.InterceptorConfig) {
	tmplResp, ok := resp.(*safehttp.TemplateResponse)
	if !ok {
		return
	}
	tok, err := TokenFromRequest(r)
	if err != nil {
		return
	}
	if tmplResp.FuncMap == nil {
		tmplResp.FuncMap = map[string]interface{}{}
	}
	tmplResp.FuncMap["CSRFToken"] = func() string { return tok.Value }
}

// Match returns false since there are no supported configurations.
func (it *Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}

// ClearToken forgets the caller's token. It is meant to be called on
// logout.
func (it *Interceptor) ClearToken(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) {
	it.repository().Clear(w, r)
}

// TokenFromRequest returns the token loaded for r.
func TokenFromRequest(r *safehttp.IncomingRequest) (Token, error) {
	tok, ok := safehttp.FlightValues(r.Context()).Get(tokenKey{}).(Token)
	if !ok {
		return Token{}, ErrNoToken
	}
	return tok, nil
}
