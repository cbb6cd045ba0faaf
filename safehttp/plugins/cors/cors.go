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

// Package cors provides a safehttp.Interceptor that handles CORS requests.
//
// For more info about CORS, see
// https://developer.mozilla.org/en-US/docs/Web/HTTP/CORS.
package cors

import (
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
)

// All allows every origin, method or header.
const All = "*"

// DefaultMaxAge is how long preflight results may be cached by default.
const DefaultMaxAge = 30 * time.Minute

var defaultMethods = []string{safehttp.MethodGet, safehttp.MethodHead, safehttp.MethodPost}

// Configuration describes which cross-origin requests are allowed.
type Configuration struct {
	// AllowedOrigins may contain All.
	AllowedOrigins []string
	// AllowedMethods defaults to GET, HEAD and POST. It may contain All.
	AllowedMethods []string
	// AllowedHeaders are the request headers a preflight may ask for. It may
	// contain All.
	AllowedHeaders []string
	// ExposedHeaders are readable by scripts in the response.
	ExposedHeaders []string
	// AllowCredentials sends Access-Control-Allow-Credentials: true. The
	// request origin is then echoed back instead of "*".
	AllowCredentials bool
	// MaxAge defaults to DefaultMaxAge.
	MaxAge time.Duration
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}

// CheckOrigin returns the Access-Control-Allow-Origin value for origin.
func (c *Configuration) CheckOrigin(origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	if contains(c.AllowedOrigins, All) {
		if c.AllowCredentials {
			return origin, true
		}
		return All, true
	}
	for _, o := range c.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return origin, true
		}
	}
	return "", false
}

// CheckMethod returns the methods to send in Access-Control-Allow-Methods
// when method is allowed.
func (c *Configuration) CheckMethod(method string) ([]string, bool) {
	if method == "" {
		return nil, false
	}
	allowed := c.AllowedMethods
	if len(allowed) == 0 {
		allowed = defaultMethods
	}
	if contains(allowed, All) {
		return []string{method}, true
	}
	for _, m := range allowed {
		if strings.EqualFold(m, method) {
			return allowed, true
		}
	}
	return nil, false
}

// CheckHeaders returns the requested headers that are allowed. It fails if
// any of them is not.
func (c *Configuration) CheckHeaders(requested []string) ([]string, bool) {
	if len(requested) == 0 {
		return nil, true
	}
	all := contains(c.AllowedHeaders, All)
	var res []string
	for _, h := range requested {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		ok := all
		for _, a := range c.AllowedHeaders {
			if strings.EqualFold(a, h) {
				ok = true
				break
			}
		}
		if !ok {
			return nil, false
		}
		res = append(res, h)
	}
	return res, true
}

// Source selects the Configuration for a request. A nil Configuration means
// no CORS processing.
type Source interface {
	Configuration(r *safehttp.IncomingRequest) *Configuration
}

type entry struct {
	m   matcher.Matcher
	cfg *Configuration
}

// URLBasedSource maps path patterns to configurations. The first registered
// pattern that matches wins.
type URLBasedSource struct {
	entries []entry
}

// Register adds cfg for the requests whose path matches pattern.
func (s *URLBasedSource) Register(pattern string, cfg Configuration) {
	s.entries = append(s.entries, entry{m: matcher.Path(pattern), cfg: &cfg})
}

// Configuration implements Source.
func (s *URLBasedSource) Configuration(r *safehttp.IncomingRequest) *Configuration {
	for _, e := range s.entries {
		if e.m.Match(r) {
			return e.cfg
		}
	}
	return nil
}

// Interceptor handles CORS requests according to the configuration its
// Source returns. Preflight requests are answered with 204 No Content and
// rejected CORS requests with 403 Forbidden.
type Interceptor struct {
	Source Source
	Logger *zap.Logger
}

var _ safehttp.Interceptor = Interceptor{}

var varyHeaders = []string{"Origin", "Access-Control-Request-Method", "Access-Control-Request-Headers"}

func isCORS(r *safehttp.IncomingRequest) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	scheme := "http"
	if r.IsSecure() {
		scheme = "https"
	}
	return !strings.EqualFold(origin, scheme+"://"+r.Host())
}

// IsPreflight reports whether r is a CORS preflight request.
func IsPreflight(r *safehttp.IncomingRequest) bool {
	return r.Method() == safehttp.MethodOptions &&
		r.Header.Get("Origin") != "" &&
		r.Header.Get("Access-Control-Request-Method") != ""
}

func requestedHeaders(r *safehttp.IncomingRequest) []string {
	var res []string
	for _, v := range r.Header.Values("Access-Control-Request-Headers") {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				res = append(res, h)
			}
		}
	}
	return res
}

// Before claims and sets the Access-Control-* response headers and appends
// to Vary.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	h := w.Header()
	allowOrigin := h.Claim("Access-Control-Allow-Origin")
	allowCredentials := h.Claim("Access-Control-Allow-Credentials")
	allowMethods := h.Claim("Access-Control-Allow-Methods")
	allowHeaders := h.Claim("Access-Control-Allow-Headers")
	maxAge := h.Claim("Access-Control-Max-Age")
	exposeHeaders := h.Claim("Access-Control-Expose-Headers")

	if it.Source == nil || !isCORS(r) {
		return safehttp.NotWritten()
	}
	cfg := it.Source.Configuration(r)
	if cfg == nil {
		return safehttp.NotWritten()
	}
	for _, v := range varyHeaders {
		if !contains(h.Values("Vary"), v) {
			if err := h.Add("Vary", v); err != nil {
				return w.WriteError(safehttp.StatusInternalServerError)
			}
		}
	}

	preflight := IsPreflight(r)
	origin := r.Header.Get("Origin")
	allowedOrigin, ok := cfg.CheckOrigin(origin)
	if !ok {
		return it.reject(w, r, "origin", origin)
	}
	method := r.Method()
	if preflight {
		method = r.Header.Get("Access-Control-Request-Method")
	}
	methods, ok := cfg.CheckMethod(method)
	if !ok {
		return it.reject(w, r, "method", method)
	}
	var headers []string
	if preflight {
		req := requestedHeaders(r)
		headers, ok = cfg.CheckHeaders(req)
		if !ok {
			return it.reject(w, r, "headers", strings.Join(req, ", "))
		}
	}

	allowOrigin([]string{allowedOrigin})
	if cfg.AllowCredentials {
		allowCredentials([]string{"true"})
	}
	if !preflight {
		if len(cfg.ExposedHeaders) > 0 {
			exposeHeaders([]string{strings.Join(cfg.ExposedHeaders, ", ")})
		}
		return safehttp.NotWritten()
	}

	allowMethods([]string{strings.Join(methods, ", ")})
	if len(headers) > 0 {
		canon := make([]string, len(headers))
		for i, hd := range headers {
			canon[i] = textproto.CanonicalMIMEHeaderKey(hd)
		}
		allowHeaders([]string{strings.Join(canon, ", ")})
	}
	age := cfg.MaxAge
	if age == 0 {
		age = DefaultMaxAge
	}
	maxAge([]string{strconv.FormatInt(int64(age.Seconds()), 10)})
	return w.Write(safehttp.NoContentResponse{})
}

func (it Interceptor) reject(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, what, value string) safehttp.Result {
	auth.Logger(it.Logger).Debug("invalid CORS request",
		zap.String("path", r.URL().Path()),
		zap.String(what, value))
	return w.WriteError(safehttp.StatusForbidden)
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns false since there are no supported configurations.
func (Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
