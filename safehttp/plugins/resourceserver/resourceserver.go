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

// Package resourceserver authenticates requests carrying OAuth 2.0 bearer
// tokens, either self-contained JWTs or opaque tokens checked with an
// introspection endpoint.
package resourceserver

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
)

// ScopeAuthorityPrefix prefixes the authorities derived from token scopes.
const ScopeAuthorityPrefix = "SCOPE_"

// Converter builds an authentication from validated token claims.
type Converter func(claims map[string]interface{}) (*auth.Authentication, error)

// DefaultConverter uses the sub claim as principal and grants one
// ScopeAuthorityPrefix authority per scope found in the scope or scp claim.
func DefaultConverter(claims map[string]interface{}) (*auth.Authentication, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		if u, ok := claims["username"].(string); ok {
			sub = u
		}
	}
	if sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	var authorities []string
	for _, s := range Scopes(claims) {
		authorities = append(authorities, ScopeAuthorityPrefix+s)
	}
	return &auth.Authentication{
		Principal:   sub,
		Authorities: authorities,
		Mechanism:   auth.MechanismBearer,
		Attributes:  claims,
	}, nil
}

// Scopes returns the scopes of the scope claim, a space separated string, or
// of the scp claim, a string or a list.
func Scopes(claims map[string]interface{}) []string {
	for _, name := range []string{"scope", "scp"} {
		switch v := claims[name].(type) {
		case string:
			return strings.Fields(v)
		case []interface{}:
			var out []string
			for _, s := range v {
				if str, ok := s.(string); ok && str != "" {
					out = append(out, str)
				}
			}
			return out
		case []string:
			return append([]string(nil), v...)
		}
	}
	return nil
}

// BearerEntryPoint answers unauthenticated requests with 401 and a Bearer
// challenge.
type BearerEntryPoint struct {
	Realm string
}

var _ auth.EntryPoint = BearerEntryPoint{}

// Commence implements auth.EntryPoint.
func (e BearerEntryPoint) Commence(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	_ = w.Header().Set("WWW-Authenticate", challenge(e.Realm, nil))
	return w.WriteError(safehttp.StatusUnauthorized)
}

func challenge(realm string, params map[string]string) string {
	var parts []string
	if realm != "" {
		parts = append(parts, fmt.Sprintf("realm=%q", realm))
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, params[k]))
	}
	if len(parts) == 0 {
		return "Bearer"
	}
	return "Bearer " + strings.Join(parts, ", ")
}

// Interceptor authenticates bearer tokens. Requests without a token continue
// unauthenticated.
type Interceptor struct {
	// Resolver defaults to DefaultTokenResolver{}.
	Resolver TokenResolver
	// Decoder validates JWTs. When nil, Introspector validates opaque
	// tokens instead.
	Decoder      Decoder
	Introspector Introspector
	// Converter defaults to DefaultConverter.
	Converter Converter
	Realm     string
	Logger    *zap.Logger
	Recorder  auth.Recorder
}

var _ safehttp.Interceptor = Interceptor{}

// EntryPoint returns the entry point matching the interceptor's realm.
func (it Interceptor) EntryPoint() auth.EntryPoint {
	return BearerEntryPoint{Realm: it.Realm}
}

func (it Interceptor) invalid(w safehttp.ResponseWriter, code safehttp.StatusCode, errCode, desc string) safehttp.Result {
	_ = w.Header().Set("WWW-Authenticate", challenge(it.Realm, map[string]string{
		"error":             errCode,
		"error_description": desc,
	}))
	return w.WriteError(code)
}

// Before validates the bearer token and authenticates the request.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	resolver := it.Resolver
	if resolver == nil {
		resolver = DefaultTokenResolver{}
	}
	log := auth.Logger(it.Logger)
	rec := auth.OrNop(it.Recorder)

	token, err := resolver.Resolve(r)
	if err != nil {
		log.Info("rejecting bearer token", zap.Error(err))
		rec.AuthenticationAttempt(auth.MechanismBearer, false)
		return it.invalid(w, safehttp.StatusBadRequest, "invalid_request", err.Error())
	}
	if token == "" {
		return safehttp.NotWritten()
	}
	var claims map[string]interface{}
	switch {
	case it.Decoder != nil:
		claims, err = it.Decoder.Decode(r.Context(), token)
	case it.Introspector != nil:
		claims, err = it.Introspector.Introspect(r.Context(), token)
	default:
		log.Error("bearer token received but neither a decoder nor an introspector is configured")
		return w.WriteError(safehttp.StatusInternalServerError)
	}
	if err != nil {
		log.Info("invalid bearer token", zap.Error(err))
		rec.AuthenticationAttempt(auth.MechanismBearer, false)
		return it.invalid(w, safehttp.StatusUnauthorized, "invalid_token", "the token could not be validated")
	}
	conv := it.Converter
	if conv == nil {
		conv = DefaultConverter
	}
	a, err := conv(claims)
	if err != nil {
		log.Info("converting bearer token", zap.Error(err))
		rec.AuthenticationAttempt(auth.MechanismBearer, false)
		return it.invalid(w, safehttp.StatusUnauthorized, "invalid_token", err.Error())
	}
	if a.Mechanism == "" {
		a.Mechanism = auth.MechanismBearer
	}
	rec.AuthenticationAttempt(auth.MechanismBearer, true)
	auth.SetAuthentication(r, a)
	log.Debug("bearer authentication succeeded", zap.String("principal", a.Principal))
	return safehttp.NotWritten()
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns false since there are no supported configurations.
func (Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
