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

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/uuid"
)

// ContextRepository keeps the authentication of a caller between requests.
type ContextRepository interface {
	// Load returns the saved authentication, or nil if there is none.
	Load(r *safehttp.IncomingRequest) (*Authentication, error)
	// Save persists a. Anonymous authentications are not saved.
	Save(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, a *Authentication) error
	// Clear forgets the saved authentication.
	Clear(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) error
}

// NullContextRepository never stores anything. Every request must carry its
// own credentials, e.g. HTTP basic or bearer tokens.
type NullContextRepository struct{}

// Load implements ContextRepository.
func (NullContextRepository) Load(*safehttp.IncomingRequest) (*Authentication, error) {
	return nil, nil
}

// Save implements ContextRepository.
func (NullContextRepository) Save(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, *Authentication) error {
	return nil
}

// Clear implements ContextRepository.
func (NullContextRepository) Clear(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest) error {
	return nil
}

// DefaultSessionCookie is the cookie name used by CookieContextRepository.
const DefaultSessionCookie = "SESSION"

// ErrInvalidSession is returned by CookieContextRepository.Load for
// tampered or expired session cookies.
var ErrInvalidSession = errors.New("invalid session cookie")

// CookieContextRepository stores the authentication in a cookie holding an
// HS256 signed JWT. Sessions are stateless: nothing is kept on the server.
type CookieContextRepository struct {
	key []byte

	// CookieName defaults to DefaultSessionCookie.
	CookieName string
	// MaxAge is the session lifetime, 8 hours by default.
	MaxAge time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewCookieContextRepository creates a repository signing sessions with key.
// The key should be at least 32 random bytes.
func NewCookieContextRepository(key []byte) *CookieContextRepository {
	return &CookieContextRepository{key: key}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Authorities []string               `json:"auth,omitempty"`
	Mechanism   string                 `json:"mech,omitempty"`
	Attributes  map[string]interface{} `json:"attrs,omitempty"`
}

func (c *CookieContextRepository) cookieName() string {
	if c.CookieName == "" {
		return DefaultSessionCookie
	}
	return c.CookieName
}

func (c *CookieContextRepository) maxAge() time.Duration {
	if c.MaxAge == 0 {
		return 8 * time.Hour
	}
	return c.MaxAge
}

func (c *CookieContextRepository) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Load implements ContextRepository.
func (c *CookieContextRepository) Load(r *safehttp.IncomingRequest) (*Authentication, error) {
	ck, err := r.Cookie(c.cookieName())
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	parsed, err := jwt.ParseWithClaims(ck.Value(), &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	return &Authentication{
		Principal:   claims.Subject,
		Authorities: claims.Authorities,
		Mechanism:   claims.Mechanism,
		Attributes:  claims.Attributes,
	}, nil
}

// Save implements ContextRepository.
func (c *CookieContextRepository) Save(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, a *Authentication) error {
	if !a.IsAuthenticated() {
		return nil
	}
	now := c.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   a.Principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge())),
		},
		Authorities: a.Authorities,
		Mechanism:   a.Mechanism,
		Attributes:  a.Attributes,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return fmt.Errorf("signing session: %w", err)
	}
	ck := safehttp.NewCookie(c.cookieName(), token)
	ck.SetPath("/")
	ck.SetMaxAge(int(c.maxAge() / time.Second))
	return w.AddCookie(ck)
}

// Clear implements ContextRepository.
func (c *CookieContextRepository) Clear(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest) error {
	return w.AddCookie(safehttp.ExpiredCookie(c.cookieName(), "/"))
}
