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

// Package requestcache remembers the URL a caller asked for before being sent
// to log in, so that a successful login can bring them back.
package requestcache

import (
	"encoding/base64"
	"strings"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
)

// Cache stores one saved request per caller.
type Cache interface {
	// Save remembers r if it is worth coming back to.
	Save(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest)
	// Get returns the saved URL, if any.
	Get(r *safehttp.IncomingRequest) (string, bool)
	// Remove forgets the saved URL.
	Remove(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest)
}

// DefaultCookieName is the cookie used by CookieCache.
const DefaultCookieName = "REDIRECT_URI"

// CookieCache keeps the saved URL in a cookie. Only the path and query are
// stored, so a saved request can never point to another site.
type CookieCache struct {
	// CookieName defaults to DefaultCookieName.
	CookieName string
	// Matcher selects the requests to save. By default GET requests that
	// were not sent by XMLHttpRequest are saved.
	Matcher matcher.Matcher
}

func (c *CookieCache) cookieName() string {
	if c.CookieName == "" {
		return DefaultCookieName
	}
	return c.CookieName
}

var defaultMatcher = matcher.And(
	matcher.Method(safehttp.MethodGet),
	matcher.Not(matcher.Header("X-Requested-With", "XMLHttpRequest")),
)

// Save implements Cache.
func (c *CookieCache) Save(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) {
	m := c.Matcher
	if m == nil {
		m = defaultMatcher
	}
	if !m.Match(r) {
		return
	}
	ck := safehttp.NewCookie(c.cookieName(), base64.RawURLEncoding.EncodeToString([]byte(r.URL().RequestURI())))
	ck.SetPath("/")
	// A failure means the name is invalid, which makes saving a no-op.
	_ = w.AddCookie(ck)
}

// Get implements Cache.
func (c *CookieCache) Get(r *safehttp.IncomingRequest) (string, bool) {
	ck, err := r.Cookie(c.cookieName())
	if err != nil {
		return "", false
	}
	b, err := base64.RawURLEncoding.DecodeString(ck.Value())
	if err != nil {
		return "", false
	}
	u := string(b)
	if !isLocalPath(u) {
		return "", false
	}
	return u, true
}

// Remove implements Cache.
func (c *CookieCache) Remove(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) {
	if _, err := r.Cookie(c.cookieName()); err != nil {
		return
	}
	_ = w.AddCookie(safehttp.ExpiredCookie(c.cookieName(), "/"))
}

func isLocalPath(u string) bool {
	return strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") && !strings.HasPrefix(u, "/\\")
}

// NullCache never saves anything.
type NullCache struct{}

// Save implements Cache.
func (NullCache) Save(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest) {}

// Get implements Cache.
func (NullCache) Get(*safehttp.IncomingRequest) (string, bool) { return "", false }

// Remove implements Cache.
func (NullCache) Remove(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest) {}
