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

package resourceserver

import (
	"context"
	"crypto"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// Decoder validates a token and returns its claims.
type Decoder interface {
	Decode(ctx context.Context, token string) (map[string]interface{}, error)
}

// JWTDecoder validates signed JWTs.
type JWTDecoder struct {
	keyFunc func(ctx context.Context, t *jwt.Token) (interface{}, error)
	methods []string

	// Issuer, if set, must match the iss claim.
	Issuer string
	// Audience, if set, must be one of the aud claim values.
	Audience string
	// Leeway tolerates clock skew.
	Leeway time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

var _ Decoder = &JWTDecoder{}

// NewHMACDecoder returns a decoder for HS256, HS384 and HS512 tokens.
func NewHMACDecoder(secret []byte) *JWTDecoder {
	return &JWTDecoder{
		keyFunc: func(context.Context, *jwt.Token) (interface{}, error) { return secret, nil },
		methods: []string{"HS256", "HS384", "HS512"},
	}
}

// NewPublicKeyDecoder returns a decoder for tokens signed with the private
// counterpart of key, an *rsa.PublicKey, *ecdsa.PublicKey or
// ed25519.PublicKey.
func NewPublicKeyDecoder(key crypto.PublicKey) *JWTDecoder {
	return &JWTDecoder{
		keyFunc: func(context.Context, *jwt.Token) (interface{}, error) { return key, nil },
		methods: asymmetricMethods,
	}
}

var asymmetricMethods = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512", "EdDSA"}

// NewJWKSDecoder returns a decoder fetching verification keys from a JWK Set
// URI. The set is cached and fetched again when a token names an unknown
// key. A nil client uses one with a 10 second timeout.
func NewJWKSDecoder(uri string, client *http.Client) *JWTDecoder {
	ks := &jwkSet{uri: uri, client: client}
	return &JWTDecoder{
		keyFunc: ks.key,
		methods: asymmetricMethods,
	}
}

// Decode implements Decoder.
func (d *JWTDecoder) Decode(ctx context.Context, token string) (map[string]interface{}, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(d.methods),
		jwt.WithLeeway(d.Leeway),
	}
	if d.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(d.Now))
	}
	if d.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(d.Issuer))
	}
	if d.Audience != "" {
		opts = append(opts, jwt.WithAudience(d.Audience))
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return d.keyFunc(ctx, t)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid jwt: %w", err)
	}
	return claims, nil
}

// jwkSetRefresh bounds how often an unknown key id triggers a fetch.
const jwkSetRefresh = time.Minute

// defaultClient is used for the JWK set and introspection requests when no
// client is configured.
var defaultClient = &http.Client{Timeout: 10 * time.Second}

type jwkSet struct {
	uri    string
	client *http.Client
	group  singleflight.Group

	mu      sync.Mutex
	set     *jose.JSONWebKeySet
	fetched time.Time
}

var errUnknownKey = errors.New("no matching key in JWK set")

// key returns the verification key of t. The set is fetched outside of the
// lock and concurrent misses share a single fetch.
func (s *jwkSet) key(ctx context.Context, t *jwt.Token) (interface{}, error) {
	kid, _ := t.Header["kid"].(string)
	s.mu.Lock()
	k, ok := s.lookup(kid)
	fresh := s.set != nil && time.Since(s.fetched) < jwkSetRefresh
	s.mu.Unlock()
	switch {
	case ok:
		return k, nil
	case fresh:
		return nil, errUnknownKey
	}

	ch := s.group.DoChan(s.uri, func() (interface{}, error) {
		// Waiters may give up, the fetch is bounded by the client timeout.
		return s.fetch(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.lookup(kid); ok {
		return k, nil
	}
	return nil, errUnknownKey
}

// lookup must be called with mu held.
func (s *jwkSet) lookup(kid string) (interface{}, bool) {
	if s.set == nil {
		return nil, false
	}
	if kid == "" {
		if len(s.set.Keys) == 1 {
			return s.set.Keys[0].Key, true
		}
		return nil, false
	}
	keys := s.set.Key(kid)
	if len(keys) == 0 {
		return nil, false
	}
	return keys[0].Key, true
}

func (s *jwkSet) fetch(ctx context.Context) (*jose.JSONWebKeySet, error) {
	client := s.client
	if client == nil {
		client = defaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.uri, nil)
	if err != nil {
		return nil, fmt.Errorf("creating JWK set request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching JWK set: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWK set endpoint returned status %d", resp.StatusCode)
	}
	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("decoding JWK set: %w", err)
	}
	s.mu.Lock()
	s.set = &set
	s.fetched = time.Now()
	s.mu.Unlock()
	return &set, nil
}
