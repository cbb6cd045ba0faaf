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

package xsrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/net/xsrftoken"

	"github.com/google/go-safeweb-dsl/safehttp"
)

// Default names under which a token is looked for.
const (
	DefaultHeaderName     = "X-CSRF-TOKEN"
	DefaultParameterName  = "_csrf"
	DefaultCookieName     = "XSRF-TOKEN"
	DefaultCookieHeader   = "X-XSRF-TOKEN"
	DefaultIDCookieName   = "XSRF-ID"
	signedTokenActionName = "safehttp-xsrf"
)

// Token is the per-caller secret a state changing request must echo back.
type Token struct {
	// HeaderName is the request header that can carry the token.
	HeaderName string
	// ParameterName is the form parameter that can carry the token.
	ParameterName string
	Value         string
}

// TokenRepository creates, verifies and clears tokens.
type TokenRepository interface {
	// Load returns the token bound to r, creating and saving a new one if
	// there is none.
	Load(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) (Token, error)
	// Verify reports whether candidate is the token bound to r.
	Verify(r *safehttp.IncomingRequest, candidate string) bool
	// Clear forgets the token bound to r.
	Clear(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest)
}

func randomID() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("xsrf: generating id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SignedTokenRepository derives tokens from a random, HttpOnly cookie with
// golang.org/x/net/xsrftoken. Tokens expire after xsrftoken.Timeout.
type SignedTokenRepository struct {
	// Key signs the tokens. It must be kept secret.
	Key string
	// IDCookieName defaults to DefaultIDCookieName.
	IDCookieName string
	// HeaderName defaults to DefaultHeaderName.
	HeaderName string
	// ParameterName defaults to DefaultParameterName.
	ParameterName string
}

var _ TokenRepository = &SignedTokenRepository{}

// NewSignedTokenRepository returns a SignedTokenRepository with key and the
// default names.
func NewSignedTokenRepository(key string) *SignedTokenRepository {
	return &SignedTokenRepository{Key: key}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Load implements TokenRepository.
func (s *SignedTokenRepository) Load(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) (Token, error) {
	name := orDefault(s.IDCookieName, DefaultIDCookieName)
	var id string
	if c, err := r.Cookie(name); err == nil && c.Value() != "" {
		id = c.Value()
	} else {
		var err error
		if id, err = randomID(); err != nil {
			return Token{}, err
		}
		c := safehttp.NewCookie(name, id)
		c.SetPath("/")
		if err := w.AddCookie(c); err != nil {
			return Token{}, err
		}
	}
	return Token{
		HeaderName:    orDefault(s.HeaderName, DefaultHeaderName),
		ParameterName: orDefault(s.ParameterName, DefaultParameterName),
		Value:         xsrftoken.Generate(s.Key, id, signedTokenActionName),
	}, nil
}

// Verify implements TokenRepository.
func (s *SignedTokenRepository) Verify(r *safehttp.IncomingRequest, candidate string) bool {
	c, err := r.Cookie(orDefault(s.IDCookieName, DefaultIDCookieName))
	if err != nil || c.Value() == "" {
		return false
	}
	return xsrftoken.Valid(candidate, s.Key, c.Value(), signedTokenActionName)
}

// Clear implements TokenRepository.
func (s *SignedTokenRepository) Clear(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) {
	_ = w.AddCookie(safehttp.ExpiredCookie(orDefault(s.IDCookieName, DefaultIDCookieName), "/"))
}

// CookieTokenRepository stores the token itself in a cookie that scripts can
// read, and expects it back in a header. This is the convention of
// JavaScript frameworks such as Angular.
type CookieTokenRepository struct {
	// CookieName defaults to DefaultCookieName.
	CookieName string
	// HeaderName defaults to DefaultCookieHeader.
	HeaderName string
	// ParameterName defaults to DefaultParameterName.
	ParameterName string
	// CookieHTTPOnly hides the cookie from scripts.
	CookieHTTPOnly bool
}

var _ TokenRepository = &CookieTokenRepository{}

// Load implements TokenRepository.
func (c *CookieTokenRepository) Load(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) (Token, error) {
	tok := Token{
		HeaderName:    orDefault(c.HeaderName, DefaultCookieHeader),
		ParameterName: orDefault(c.ParameterName, DefaultParameterName),
	}
	name := orDefault(c.CookieName, DefaultCookieName)
	if ck, err := r.Cookie(name); err == nil && ck.Value() != "" {
		tok.Value = ck.Value()
		return tok, nil
	}
	tok.Value = uuid.NewString()
	ck := safehttp.NewCookie(name, tok.Value)
	ck.SetPath("/")
	if !c.CookieHTTPOnly {
		ck.DisableHTTPOnly()
	}
	if err := w.AddCookie(ck); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// Verify implements TokenRepository.
func (c *CookieTokenRepository) Verify(r *safehttp.IncomingRequest, candidate string) bool {
	ck, err := r.Cookie(orDefault(c.CookieName, DefaultCookieName))
	if err != nil || ck.Value() == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(ck.Value()), []byte(candidate)) == 1
}

// Clear implements TokenRepository.
func (c *CookieTokenRepository) Clear(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) {
	_ = w.AddCookie(safehttp.ExpiredCookie(orDefault(c.CookieName, DefaultCookieName), "/"))
}
