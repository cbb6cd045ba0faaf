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

// Package oauth2login logs users in with an OAuth 2.0 authorization code
// flow against one or more providers.
//
// A login starts at the authorization endpoint,
// /oauth2/authorization/{registration}, which redirects to the provider. The
// provider sends the user back to the redirection endpoint,
// /login/oauth2/code/{registration}, where the code is exchanged for an
// access token and the user info is fetched.
package oauth2login

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/requestcache"
)

// Defaults.
const (
	DefaultAuthorizationBaseURI = "/oauth2/authorization"
	DefaultRedirectionBaseURI   = "/login/oauth2/code"
	DefaultLoginPage            = "/login"
	DefaultSuccessURL           = "/"
	DefaultFailureURL           = "/login?error"
	// AuthorizationRequestCookie holds the state and PKCE verifier between
	// the two endpoints.
	AuthorizationRequestCookie = "OAUTH2_AUTH_REQUEST"
	// UserAuthority is granted to every user logged in with OAuth 2.0.
	UserAuthority = "OAUTH2_USER"
	// RegistrationAttribute holds the registration ID in the Authentication.
	RegistrationAttribute = "registration_id"
)

var (
	errState    = errors.New("oauth2: authorization request not found or state mismatch")
	errProvider = errors.New("oauth2: provider returned an error")
)

// Interceptor serves the authorization and redirection endpoints.
type Interceptor struct {
	Registrations []Registration
	// AuthorizationBaseURI defaults to DefaultAuthorizationBaseURI.
	AuthorizationBaseURI string
	// RedirectionBaseURI defaults to DefaultRedirectionBaseURI.
	RedirectionBaseURI string
	// LoginPage defaults to DefaultLoginPage.
	LoginPage string
	// GenerateLoginPage serves a page linking every registration at
	// LoginPage.
	GenerateLoginPage bool
	// DefaultSuccessURL defaults to DefaultSuccessURL.
	DefaultSuccessURL string
	// FailureURL defaults to DefaultFailureURL.
	FailureURL   string
	Repository   auth.ContextRepository
	RequestCache requestcache.Cache
	// HTTPClient is used for the token and user-info requests.
	HTTPClient *http.Client
	Logger     *zap.Logger
	Recorder   auth.Recorder
}

var _ safehttp.Interceptor = &Interceptor{}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (it *Interceptor) authorizationBase() string {
	return strings.TrimSuffix(orDefault(it.AuthorizationBaseURI, DefaultAuthorizationBaseURI), "/")
}

func (it *Interceptor) redirectionBase() string {
	return strings.TrimSuffix(orDefault(it.RedirectionBaseURI, DefaultRedirectionBaseURI), "/")
}

// AuthorizationURL returns the path starting a login with reg.
func (it *Interceptor) AuthorizationURL(reg Registration) string {
	return it.authorizationBase() + "/" + reg.ID
}

func (it *Interceptor) redirectionPath(reg Registration) string {
	return it.redirectionBase() + "/" + reg.ID
}

// Endpoints returns the requests the Interceptor answers.
func (it *Interceptor) Endpoints() []auth.Endpoint {
	var eps []auth.Endpoint
	if it.GenerateLoginPage {
		eps = append(eps, auth.Endpoint{Pattern: orDefault(it.LoginPage, DefaultLoginPage), Method: safehttp.MethodGet})
	}
	for _, reg := range it.Registrations {
		eps = append(eps,
			auth.Endpoint{Pattern: it.AuthorizationURL(reg), Method: safehttp.MethodGet},
			auth.Endpoint{Pattern: it.redirectionPath(reg), Method: safehttp.MethodGet},
		)
	}
	return eps
}

// EntryPoint starts the login directly when there is a single
// registration, and redirects to the login page otherwise.
func (it *Interceptor) EntryPoint() auth.EntryPoint {
	if len(it.Registrations) == 1 {
		return auth.RedirectEntryPoint{URL: it.AuthorizationURL(it.Registrations[0])}
	}
	return auth.RedirectEntryPoint{URL: orDefault(it.LoginPage, DefaultLoginPage)}
}

// Before serves the endpoints of the Interceptor.
func (it *Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	if r.Method() != safehttp.MethodGet {
		return safehttp.NotWritten()
	}
	path := r.URL().Path()
	if it.GenerateLoginPage && path == orDefault(it.LoginPage, DefaultLoginPage) {
		return it.servePage(w)
	}
	for _, reg := range it.Registrations {
		switch path {
		case it.AuthorizationURL(reg):
			return it.authorize(w, r, reg)
		case it.redirectionPath(reg):
			return it.callback(w, r, reg)
		}
	}
	return safehttp.NotWritten()
}

func (it *Interceptor) redirectURL(r *safehttp.IncomingRequest, reg Registration) string {
	if reg.RedirectURL != "" {
		return reg.RedirectURL
	}
	scheme := "http"
	if r.IsSecure() {
		scheme = "https"
	}
	return scheme + "://" + r.Host() + it.redirectionPath(reg)
}

func (it *Interceptor) authorize(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, reg Registration) safehttp.Result {
	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()
	c := safehttp.NewCookie(AuthorizationRequestCookie, state+"."+verifier+"."+reg.ID)
	c.SetPath("/")
	c.SetMaxAge(600)
	if err := w.AddCookie(c); err != nil {
		return w.WriteError(safehttp.StatusInternalServerError)
	}
	u := reg.config(it.redirectURL(r, reg)).AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return safehttp.Redirect(w, r, u, safehttp.StatusFound)
}

func (it *Interceptor) callback(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, reg Registration) safehttp.Result {
	log := auth.Logger(it.Logger).With(zap.String("registration", reg.ID))
	rec := auth.OrNop(it.Recorder)
	a, err := it.authenticate(w, r, reg)
	if err != nil {
		log.Info("oauth2 login failed", zap.Error(err))
		rec.AuthenticationAttempt(auth.MechanismOAuth2, false)
		return safehttp.Redirect(w, r, orDefault(it.FailureURL, DefaultFailureURL), safehttp.StatusFound)
	}
	rec.AuthenticationAttempt(auth.MechanismOAuth2, true)
	auth.SetAuthentication(r, a)
	if it.Repository != nil {
		if err := it.Repository.Save(w, r, a); err != nil {
			log.Error("saving authentication", zap.Error(err))
			return w.WriteError(safehttp.StatusInternalServerError)
		}
	}
	log.Debug("oauth2 login succeeded", zap.String("principal", a.Principal))
	target := orDefault(it.DefaultSuccessURL, DefaultSuccessURL)
	if it.RequestCache != nil {
		if saved, ok := it.RequestCache.Get(r); ok {
			it.RequestCache.Remove(w, r)
			target = saved
		}
	}
	return safehttp.Redirect(w, r, target, safehttp.StatusFound)
}

func (it *Interceptor) authenticate(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, reg Registration) (*auth.Authentication, error) {
	ck, err := r.Cookie(AuthorizationRequestCookie)
	if err != nil {
		return nil, errState
	}
	_ = w.AddCookie(safehttp.ExpiredCookie(AuthorizationRequestCookie, "/"))
	parts := strings.SplitN(ck.Value(), ".", 3)
	if len(parts) != 3 || parts[2] != reg.ID {
		return nil, errState
	}
	q, err := r.URL().Query()
	if err != nil {
		return nil, err
	}
	if e := q.String("error", ""); e != "" {
		return nil, fmt.Errorf("%w: %s", errProvider, e)
	}
	if q.String("state", "") != parts[0] {
		return nil, errState
	}

	ctx := r.Context()
	if it.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, it.HTTPClient)
	}
	conf := reg.config(it.redirectURL(r, reg))
	tok, err := conf.Exchange(ctx, q.String("code", ""), oauth2.VerifierOption(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	attrs, err := userInfo(ctx, conf.Client(ctx, tok), reg.UserInfoURL)
	if err != nil {
		return nil, err
	}
	principal, ok := attrs[reg.userNameAttribute()]
	if !ok {
		return nil, fmt.Errorf("user info has no %q attribute", reg.userNameAttribute())
	}
	attrs[RegistrationAttribute] = reg.ID
	return &auth.Authentication{
		Principal:   fmt.Sprint(principal),
		Authorities: authorities(tok, reg),
		Mechanism:   auth.MechanismOAuth2,
		Attributes:  attrs,
	}, nil
}

func userInfo(ctx context.Context, client *http.Client, url string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating user info request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info endpoint returned status %d", resp.StatusCode)
	}
	attrs := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("decoding user info: %w", err)
	}
	return attrs, nil
}

// authorities grants UserAuthority plus SCOPE_ authorities for the scopes
// the provider granted, or the requested ones if it does not say.
func authorities(tok *oauth2.Token, reg Registration) []string {
	scopes := reg.Scopes
	if s, ok := tok.Extra("scope").(string); ok && s != "" {
		scopes = strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	}
	res := []string{UserAuthority}
	for _, s := range scopes {
		res = append(res, "SCOPE_"+s)
	}
	return res
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (*Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns false since there are no supported configurations.
func (*Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
