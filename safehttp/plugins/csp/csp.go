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

// Package csp provides a safehttp.Interceptor which applies Content Security
// Policies to responses.
//
// Policies are either written out as directive strings, as configured
// through the security DSL, or built with StrictPolicy, a nonce-based policy
// that mitigates XSS. See https://csp.withgoogle.com/docs/strict-csp.html.
package csp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-safeweb-dsl/safehttp"
)

var randReader = rand.Reader

// nonceSize is the size of the nonces in bytes. The CSP3 spec asks for at
// least 16 bytes. https://www.w3.org/TR/CSP3/#security-nonces
const nonceSize = 20

func generateNonce() string {
	b := make([]byte, nonceSize)
	if _, err := randReader.Read(b); err != nil {
		panic(fmt.Errorf("failed to generate entropy using crypto/rand/RandReader: %v", err))
	}
	return base64.StdEncoding.EncodeToString(b)
}

// Policy is a serializable CSP. The nonce of the current request is handed to
// serialize.
type Policy struct {
	serialize func(nonce string) string
}

// String returns the policy as it would be sent with the nonce "{nonce}".
func (p Policy) String() string {
	return p.serialize("{nonce}")
}

// Directives creates a Policy from a literal header value, e.g.
// "default-src 'self'; script-src 'self'". The placeholder "{nonce}" is
// replaced with the per-request nonce.
func Directives(directives string) Policy {
	return Policy{serialize: func(nonce string) string {
		return strings.ReplaceAll(directives, "{nonce}", nonce)
	}}
}

// StrictPolicy builds a strict, nonce-based CSP.
type StrictPolicy struct {
	// NoStrictDynamic removes 'strict-dynamic' from script-src.
	NoStrictDynamic bool
	// UnsafeEval allows eval() by adding 'unsafe-eval' to script-src.
	UnsafeEval bool
	// BaseURI restricts <base> URLs. Empty means 'none'.
	BaseURI string
	// ReportURI sets the report-uri directive when not empty.
	ReportURI string
}

// Build creates a Policy based on the specified options.
func (s StrictPolicy) Build() Policy {
	return Policy{serialize: func(nonce string) string {
		var b strings.Builder
		b.WriteString("object-src 'none'; script-src 'unsafe-inline' 'nonce-")
		b.WriteString(nonce)
		b.WriteByte('\'')
		if !s.NoStrictDynamic {
			b.WriteString(" 'strict-dynamic' https: http:")
		}
		if s.UnsafeEval {
			b.WriteString(" 'unsafe-eval'")
		}
		b.WriteString("; base-uri ")
		if s.BaseURI == "" {
			b.WriteString("'none'")
		} else {
			b.WriteString(s.BaseURI)
		}
		if s.ReportURI != "" {
			b.WriteString("; report-uri ")
			b.WriteString(s.ReportURI)
		}
		return b.String()
	}}
}

type nonceKey struct{}

// Nonce retrieves the nonce of the current request.
func Nonce(ctx context.Context) (string, error) {
	v, ok := safehttp.FlightValues(ctx).Get(nonceKey{}).(string)
	if !ok {
		return "", errors.New("no nonce in context")
	}
	return v, nil
}

// Interceptor applies CSP policies.
type Interceptor struct {
	// Enforce policies are sent as Content-Security-Policy.
	Enforce []Policy
	// ReportOnly policies are sent as Content-Security-Policy-Report-Only.
	ReportOnly []Policy
}

var _ safehttp.Interceptor = Interceptor{}

// Default creates an interceptor enforcing a StrictPolicy.
func Default(reportURI string) Interceptor {
	return Interceptor{Enforce: []Policy{StrictPolicy{ReportURI: reportURI}.Build()}}
}

// Disable turns CSP off for a single handler.
type Disable struct{}

// Before claims the CSP headers, generates the request nonce and writes the
// policies.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, cfg safehttp.InterceptorConfig) safehttp.Result {
	h := w.Header()
	setCSP := h.Claim("Content-Security-Policy")
	setReportOnly := h.Claim("Content-Security-Policy-Report-Only")
	if _, ok := cfg.(Disable); ok {
		return safehttp.NotWritten()
	}

	nonce := generateNonce()
	safehttp.FlightValues(r.Context()).Put(nonceKey{}, nonce)

	setCSP(serialize(it.Enforce, nonce))
	setReportOnly(serialize(it.ReportOnly, nonce))
	return safehttp.NotWritten()
}

func serialize(ps []Policy, nonce string) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.serialize(nonce))
	}
	return out
}

// Commit makes the nonce available to templates as the CSPNonce function.
func (it Interceptor) Commit(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, resp safehttp.Response, cfg safehttp.InterceptorConfig) {
	tmplResp, ok := resp.(*safehttp.TemplateResponse)
	if !ok {
		return
	}
	nonce, err := Nonce(r.Context())
	if err != nil {
		return
	}
	if tmplResp.FuncMap == nil {
		tmplResp.FuncMap = map[string]interface{}{}
	}
	tmplResp.FuncMap["CSPNonce"] = func() string { return nonce }
}

// Match returns true if cfg is Disable.
func (Interceptor) Match(cfg safehttp.InterceptorConfig) bool {
	_, ok := cfg.(Disable)
	return ok
}
