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

// Package websecurity configures the security interceptors of a
// safehttp.ServeMuxConfig with nested configuration blocks:
//
//	err := websecurity.Apply(cfg, func(http *websecurity.HTTP) {
//		http.UserDetailsService = users
//		http.AuthorizeRequests(func(a *websecurity.AuthorizeRequests) {
//			a.AuthorizePath("/public/**", websecurity.PermitAll)
//			a.Authorize(websecurity.AnyRequest, websecurity.Authenticated)
//		})
//		http.FormLogin(nil)
//		http.Headers(func(h *websecurity.Headers) {
//			h.FrameOptions(func(f *websecurity.FrameOptions) { f.SameOrigin = true })
//		})
//	})
//
// Every block only records the fields that were set and forwards them to
// the matching plugin when Build runs. Fields left empty keep the plugin
// defaults. A block may be configured several times; later values win.
package websecurity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/google/go-safeweb-dsl/internal/metrics"
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/anonymous"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/authz"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/cors"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/formlogin"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/hostcheck"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/httpbasic"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/httpsredirect"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/logout"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/oauth2login"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/requestcache"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/resourceserver"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/xsrf"
)

// Errors returned by Build when a block lacks a collaborator.
var (
	ErrNoManager       = errors.New("no authentication manager or user details service")
	ErrNoCORSSource    = errors.New("cors: no configuration source")
	ErrNoTokenDecoder  = errors.New("oauth2 resource server: no jwt decoder, jwk set uri or introspection uri")
	ErrNoRegistrations = errors.New("oauth2 login: no client registrations")
	ErrAlreadyBuilt    = errors.New("configuration was already built")
)

// HTTP is the root configuration block.
type HTTP struct {
	// Logger is handed to every interceptor. Defaults to a no-op logger.
	Logger *zap.Logger
	// Metrics, if set, registers counters for authentication attempts,
	// authorization decisions and CSRF rejections.
	Metrics prometheus.Registerer
	// UserDetailsService loads the users of form login and HTTP basic.
	UserDetailsService auth.UserDetailsService
	// AuthenticationManager replaces the manager built from
	// UserDetailsService.
	AuthenticationManager auth.Manager
	// ContextRepository stores authentications between requests. Form and
	// OAuth2 login default to a signed session cookie.
	ContextRepository auth.ContextRepository
	// SessionKey signs session cookies and CSRF tokens. A random key is
	// generated when it is empty, invalidating sessions on restart.
	SessionKey []byte

	securityMatcher matcher.Matcher
	permitLogin     bool

	formLogin      section[formlogin.Interceptor]
	authorize      section[authz.Interceptor]
	httpBasic      section[httpbasic.Interceptor]
	headers        section[headerWriters]
	exceptions     section[exceptionHandlers]
	csrf           section[xsrf.Interceptor]
	logout         section[logout.Interceptor]
	anonymous      section[anonymous.Interceptor]
	cors           section[cors.Interceptor]
	httpsRedirect  section[httpsredirect.Interceptor]
	oauth2Login    section[oauth2login.Interceptor]
	resourceServer section[resourceServer]
	requestCache   section[requestcache.Cache]
	hostCheck      section[[]string]

	errs  []error
	built bool
}

// New returns the configuration built by configure.
func New(configure func(*HTTP)) *HTTP {
	h := &HTTP{}
	if configure != nil {
		configure(h)
	}
	return h
}

// Apply configures cfg. Handlers should be registered on cfg before Apply
// is called, so that the endpoints of the login plugins are only added
// where the application has none.
func Apply(cfg *safehttp.ServeMuxConfig, configure func(*HTTP)) error {
	return New(configure).Build(cfg)
}

func run[T any](configure func(*T), t *T) *T {
	if configure != nil {
		configure(t)
	}
	return t
}

// SecurityMatcher restricts every installed interceptor to the requests
// accepted by m.
func (h *HTTP) SecurityMatcher(m matcher.Matcher) {
	h.securityMatcher = m
}

// FormLogin turns form login on.
func (h *HTTP) FormLogin(configure func(*FormLogin)) {
	f := run(configure, &FormLogin{})
	h.formLogin.add(f.get(), f.disabled)
	if f.PermitAll {
		h.permitLogin = true
	}
}

// AuthorizeRequests adds access rules and turns authorization on. Once on,
// requests matched by no rule are denied.
func (h *HTTP) AuthorizeRequests(configure func(*AuthorizeRequests)) {
	a := run(configure, &AuthorizeRequests{})
	h.errs = append(h.errs, a.errs...)
	h.authorize.add(a.get(), false)
}

// AuthorizeExchange is an alias of AuthorizeRequests.
func (h *HTTP) AuthorizeExchange(configure func(*AuthorizeRequests)) {
	h.AuthorizeRequests(configure)
}

// HTTPBasic turns HTTP Basic authentication on.
func (h *HTTP) HTTPBasic(configure func(*HTTPBasic)) {
	b := run(configure, &HTTPBasic{})
	h.httpBasic.add(b.get(), b.disabled)
}

// Headers configures the security headers, which are on by default.
func (h *HTTP) Headers(configure func(*Headers)) {
	hd := run(configure, &Headers{})
	h.headers.add(hd.get(), hd.disabled)
}

// ExceptionHandling configures the answers to denied requests.
func (h *HTTP) ExceptionHandling(configure func(*ExceptionHandling)) {
	e := run(configure, &ExceptionHandling{})
	h.exceptions.add(e.get(), false)
}

// CSRF configures CSRF protection, which is on by default.
func (h *HTTP) CSRF(configure func(*CSRF)) {
	c := run(configure, &CSRF{})
	h.csrf.add(c.get(), c.disabled)
}

// Logout configures logout.
func (h *HTTP) Logout(configure func(*Logout)) {
	l := run(configure, &Logout{})
	h.logout.add(l.get(), l.disabled)
}

// Anonymous configures anonymous authentication, which is on by default.
func (h *HTTP) Anonymous(configure func(*AnonymousAuthentication)) {
	a := run(configure, &AnonymousAuthentication{})
	h.anonymous.add(a.get(), a.disabled)
}

// CORS turns CORS processing on.
func (h *HTTP) CORS(configure func(*CORS)) {
	c := run(configure, &CORS{})
	h.cors.add(c.get(), c.disabled)
}

// HTTPSRedirect turns redirection of plain HTTP requests on.
func (h *HTTP) HTTPSRedirect(configure func(*HTTPSRedirect)) {
	r := run(configure, &HTTPSRedirect{})
	h.httpsRedirect.add(r.get(), false)
}

// OAuth2Login turns OAuth 2.0 login on.
func (h *HTTP) OAuth2Login(configure func(*OAuth2Login)) {
	o := run(configure, &OAuth2Login{})
	h.oauth2Login.add(o.get(), o.disabled)
}

// OAuth2ResourceServer turns bearer token authentication on.
func (h *HTTP) OAuth2ResourceServer(configure func(*OAuth2ResourceServer)) {
	o := run(configure, &OAuth2ResourceServer{})
	h.resourceServer.add(o.get(), o.disabled)
}

// RequestCache configures the saved request cache, which is on by default.
func (h *HTTP) RequestCache(configure func(*RequestCache)) {
	c := run(configure, &RequestCache{})
	h.requestCache.add(c.get(), c.disabled)
}

// HostCheck turns Host header checking on.
func (h *HTTP) HostCheck(configure func(*HostCheck)) {
	c := run(configure, &HostCheck{})
	h.hostCheck.add(c.get(), false)
}

// Build installs the configured interceptors on cfg and registers the
// endpoints of the login and logout plugins that cfg does not handle yet.
func (h *HTTP) Build(cfg *safehttp.ServeMuxConfig) error {
	if cfg == nil {
		return errors.New("websecurity: nil ServeMuxConfig")
	}
	if h.built {
		return fmt.Errorf("websecurity: %w", ErrAlreadyBuilt)
	}
	if err := errors.Join(h.errs...); err != nil {
		return fmt.Errorf("websecurity: %w", err)
	}
	c, err := h.chain()
	if err != nil {
		return fmt.Errorf("websecurity: %w", err)
	}
	h.built = true
	for _, it := range c.interceptors {
		cfg.Intercept(gate(h.securityMatcher, it))
	}
	seen := map[auth.Endpoint]bool{}
	for _, ep := range c.endpoints {
		if seen[ep] || cfg.Registered(ep.Pattern, ep.Method) {
			continue
		}
		seen[ep] = true
		cfg.Handle(ep.Pattern, ep.Method, safehttp.NotFoundHandler(), authz.Skip{})
	}
	return nil
}

// chain is the result of a Build: the interceptors in installation order
// and the endpoints they answer.
type chain struct {
	interceptors []safehttp.Interceptor
	endpoints    []auth.Endpoint
}

func (h *HTTP) manager() auth.Manager {
	if h.AuthenticationManager != nil {
		return h.AuthenticationManager
	}
	if h.UserDetailsService != nil {
		return &auth.UserDetailsManager{Users: h.UserDetailsService}
	}
	return nil
}

func (h *HTTP) key(log *zap.Logger) ([]byte, error) {
	if len(h.SessionKey) > 0 {
		return h.SessionKey, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating session key: %w", err)
	}
	log.Warn("no session key configured, sessions and CSRF tokens will not survive a restart")
	return key, nil
}

func (h *HTTP) chain() (*chain, error) {
	log := auth.Logger(h.Logger)
	var (
		authRec  auth.Recorder
		authzRec authz.Recorder
		xsrfRec  xsrf.Recorder
	)
	if h.Metrics != nil {
		rec := metrics.New(h.Metrics)
		authRec, authzRec, xsrfRec = rec, rec, rec
	}

	formOn := h.formLogin.enabled(false)
	oauthOn := h.oauth2Login.enabled(false)
	basicOn := h.httpBasic.enabled(false)
	rsOn := h.resourceServer.enabled(false)
	csrfOn := h.csrf.enabled(true)
	logoutOn := h.logout.enabled(formOn || oauthOn)

	var key []byte
	if csrfOn || ((formOn || oauthOn) && h.ContextRepository == nil) {
		k, err := h.key(log)
		if err != nil {
			return nil, err
		}
		key = k
	}
	repo := h.ContextRepository
	if repo == nil && (formOn || oauthOn) {
		repo = auth.NewCookieContextRepository(key)
	}
	var cache requestcache.Cache
	if h.requestCache.enabled(true) {
		cache = &requestcache.CookieCache{}
		h.requestCache.apply(&cache)
	}
	var exc exceptionHandlers
	h.exceptions.apply(&exc)
	manager := h.manager()

	c := &chain{}
	add := func(its ...safehttp.Interceptor) {
		c.interceptors = append(c.interceptors, its...)
	}

	if h.hostCheck.enabled(false) {
		var hosts []string
		h.hostCheck.apply(&hosts)
		hc := hostcheck.New(hosts...)
		hc.Logger = log.Named("hostcheck")
		add(hc)
	}

	if h.httpsRedirect.enabled(false) {
		it := httpsredirect.Interceptor{Logger: log.Named("httpsredirect")}
		h.httpsRedirect.apply(&it)
		add(it)
	}

	if h.headers.enabled(true) {
		hw := defaultHeaderWriters()
		h.headers.apply(&hw)
		if err := errors.Join(hw.errs...); err != nil {
			return nil, fmt.Errorf("headers: %w", err)
		}
		add(hw.interceptors()...)
	}

	if h.cors.enabled(false) {
		it := cors.Interceptor{Logger: log.Named("cors")}
		h.cors.apply(&it)
		if it.Source == nil {
			return nil, ErrNoCORSSource
		}
		add(it)
	}

	if repo != nil {
		add(auth.ContextInterceptor{Repository: repo, Logger: log.Named("context")})
	}

	var csrf *xsrf.Interceptor
	if csrfOn {
		csrf = &xsrf.Interceptor{
			Repository:          xsrf.NewSignedTokenRepository(string(key)),
			AccessDeniedHandler: exc.accessDenied,
			Logger:              log.Named("csrf"),
			Recorder:            xsrfRec,
		}
		if rsOn {
			// Requests carrying a bearer token are exempt.
			csrf.Ignoring = append(csrf.Ignoring, bearerRequests)
		}
		h.csrf.apply(csrf)
		add(csrf)
	}

	if logoutOn {
		it := &logout.Interceptor{Repository: repo, Logger: log.Named("logout")}
		h.logout.apply(it)
		if csrf != nil {
			it.Handlers = append(it.Handlers, logout.HandlerFunc(func(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, _ *auth.Authentication) {
				csrf.ClearToken(w, r)
			}))
		}
		if csrf == nil && it.RequiresLogout == nil {
			// Without CSRF protection any method logs out.
			u := it.LogoutURL
			if u == "" {
				u = logout.DefaultLogoutURL
			}
			it.RequiresLogout = matcher.Path(u)
			c.endpoints = append(c.endpoints,
				auth.Endpoint{Pattern: u, Method: safehttp.MethodGet},
				auth.Endpoint{Pattern: u, Method: safehttp.MethodPost},
			)
		}
		c.endpoints = append(c.endpoints, it.Endpoints()...)
		add(it)
	}

	var form *formlogin.Interceptor
	if formOn {
		form = &formlogin.Interceptor{
			Manager:      manager,
			Repository:   repo,
			RequestCache: cache,
			Logger:       log.Named("formlogin"),
			Recorder:     authRec,
		}
		h.formLogin.apply(form)
		if form.Manager == nil {
			return nil, fmt.Errorf("form login: %w", ErrNoManager)
		}
		if err := form.Validate(); err != nil {
			return nil, fmt.Errorf("form login: %w", err)
		}
	}

	var oauth *oauth2login.Interceptor
	if oauthOn {
		oauth = &oauth2login.Interceptor{
			GenerateLoginPage: true,
			Repository:        repo,
			RequestCache:      cache,
			Logger:            log.Named("oauth2login"),
			Recorder:          authRec,
		}
		h.oauth2Login.apply(oauth)
		if len(oauth.Registrations) == 0 {
			return nil, ErrNoRegistrations
		}
		if form != nil && !form.DisableLoginPage && form.LoginPagePath() == oauthLoginPage(oauth) {
			// Form login already serves a page there.
			oauth.GenerateLoginPage = false
		}
		c.endpoints = append(c.endpoints, oauth.Endpoints()...)
		add(oauth)
	}

	if form != nil {
		c.endpoints = append(c.endpoints, form.Endpoints()...)
		add(form)
	}

	var basic *httpbasic.Interceptor
	if basicOn {
		basic = &httpbasic.Interceptor{Manager: manager, Logger: log.Named("httpbasic"), Recorder: authRec}
		h.httpBasic.apply(basic)
		if basic.Manager == nil {
			return nil, fmt.Errorf("http basic: %w", ErrNoManager)
		}
		add(*basic)
	}

	var rs *resourceServer
	if rsOn {
		rs = &resourceServer{interceptor: resourceserver.Interceptor{
			Logger:   log.Named("resourceserver"),
			Recorder: authRec,
		}}
		h.resourceServer.apply(rs)
		if rs.interceptor.Decoder == nil && rs.jwkSetURI != "" {
			rs.interceptor.Decoder = resourceserver.NewJWKSDecoder(rs.jwkSetURI, nil)
		}
		if rs.interceptor.Introspector == nil && rs.introspect != nil && rs.introspect.URL != "" {
			rs.interceptor.Introspector = rs.introspect
		}
		if rs.interceptor.Decoder == nil && rs.interceptor.Introspector == nil {
			return nil, ErrNoTokenDecoder
		}
		add(rs.interceptor)
	}

	if h.anonymous.enabled(true) {
		it := anonymous.Default()
		h.anonymous.apply(&it)
		add(it)
	}

	if h.authorize.enabled(false) {
		it := &authz.Interceptor{
			RequestCache: cache,
			Logger:       log.Named("authz"),
			Recorder:     authzRec,
		}
		if h.permitLogin && form != nil {
			for _, p := range form.PublicPaths() {
				it.Rules = append(it.Rules, authz.Rule{Matcher: matcher.Path(p), Condition: authz.PermitAll})
			}
		}
		h.authorize.apply(it)
		it.EntryPoint = entryPoint(exc, form, oauth, basic, rs)
		it.AccessDeniedHandler = exc.accessDenied
		if it.AccessDeniedHandler == nil && rs != nil {
			it.AccessDeniedHandler = rs.accessDenied
		}
		add(it)
	}
	return c, nil
}

var bearerRequests = matcher.Func("bearer token request", func(r *safehttp.IncomingRequest) bool {
	h := r.Header.Get("Authorization")
	return len(h) > 7 && strings.EqualFold(h[:7], "bearer ")
})

func oauthLoginPage(it *oauth2login.Interceptor) string {
	if it.LoginPage == "" {
		return oauth2login.DefaultLoginPage
	}
	return it.LoginPage
}

// entryPoint picks the answer to unauthenticated requests that were
// denied: the configured one, else the one of the first login mechanism.
func entryPoint(exc exceptionHandlers, form *formlogin.Interceptor, oauth *oauth2login.Interceptor, basic *httpbasic.Interceptor, rs *resourceServer) auth.EntryPoint {
	switch {
	case exc.entryPoint != nil:
		return exc.entryPoint
	case form != nil:
		return form.EntryPoint()
	case oauth != nil:
		return oauth.EntryPoint()
	case basic != nil:
		if basic.EntryPoint != nil {
			return basic.EntryPoint
		}
		return auth.BasicEntryPoint{}
	case rs != nil:
		if rs.entryPoint != nil {
			return rs.entryPoint
		}
		return rs.interceptor.EntryPoint()
	}
	return nil
}
