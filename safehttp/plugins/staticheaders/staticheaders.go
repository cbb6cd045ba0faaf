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

// Package staticheaders sets the response headers whose values do not depend
// on the request: content sniffing, the legacy XSS filter, caching and the
// referrer and feature policies.
package staticheaders

import (
	"github.com/google/go-safeweb-dsl/safehttp"
)

// XSSMode is an X-XSS-Protection value.
type XSSMode string

const (
	// XSSDisabled turns the browser XSS filter off.
	XSSDisabled XSSMode = "0"
	// XSSEnabled sanitizes the page when an attack is detected.
	XSSEnabled XSSMode = "1"
	// XSSBlock blocks rendering when an attack is detected.
	XSSBlock XSSMode = "1; mode=block"
)

// ReferrerPolicy is a Referrer-Policy value.
type ReferrerPolicy string

// Referrer policies, see https://www.w3.org/TR/referrer-policy/.
const (
	NoReferrer                  ReferrerPolicy = "no-referrer"
	NoReferrerWhenDowngrade     ReferrerPolicy = "no-referrer-when-downgrade"
	SameOrigin                  ReferrerPolicy = "same-origin"
	Origin                      ReferrerPolicy = "origin"
	StrictOrigin                ReferrerPolicy = "strict-origin"
	OriginWhenCrossOrigin       ReferrerPolicy = "origin-when-cross-origin"
	StrictOriginWhenCrossOrigin ReferrerPolicy = "strict-origin-when-cross-origin"
	UnsafeURL                   ReferrerPolicy = "unsafe-url"
)

// ParseReferrerPolicy returns the policy with the given header value.
func ParseReferrerPolicy(s string) (ReferrerPolicy, bool) {
	switch p := ReferrerPolicy(s); p {
	case NoReferrer, NoReferrerWhenDowngrade, SameOrigin, Origin, StrictOrigin,
		OriginWhenCrossOrigin, StrictOriginWhenCrossOrigin, UnsafeURL:
		return p, true
	}
	return "", false
}

// Interceptor sets static security headers. The zero value sets nothing;
// Default enables the usual set.
type Interceptor struct {
	// ContentTypeOptions sends X-Content-Type-Options: nosniff.
	ContentTypeOptions bool
	// XSSProtection is sent as X-XSS-Protection when not empty.
	XSSProtection XSSMode
	// CacheControl disables caching unless the handler set its own caching
	// headers.
	CacheControl bool
	// ReferrerPolicy is sent when not empty.
	ReferrerPolicy ReferrerPolicy
	// FeaturePolicy is sent as Feature-Policy when not empty.
	FeaturePolicy string
}

var _ safehttp.Interceptor = Interceptor{}

// Default returns an Interceptor sending nosniff, X-XSS-Protection in block
// mode and no-cache headers.
func Default() Interceptor {
	return Interceptor{
		ContentTypeOptions: true,
		XSSProtection:      XSSBlock,
		CacheControl:       true,
	}
}

// Before claims and sets the configured headers. Cache headers stay
// unclaimed so that handlers serving cacheable content can set them.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	h := w.Header()
	if it.ContentTypeOptions {
		h.Claim("X-Content-Type-Options")([]string{"nosniff"})
	}
	if it.XSSProtection != "" {
		h.Claim("X-XSS-Protection")([]string{string(it.XSSProtection)})
	}
	if it.ReferrerPolicy != "" {
		h.Claim("Referrer-Policy")([]string{string(it.ReferrerPolicy)})
	}
	if it.FeaturePolicy != "" {
		h.Claim("Feature-Policy")([]string{it.FeaturePolicy})
	}
	return safehttp.NotWritten()
}

// Commit writes the no-cache headers if the handler set none of them.
func (it Interceptor) Commit(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, resp safehttp.Response, _ safehttp.InterceptorConfig) {
	if !it.CacheControl {
		return
	}
	h := w.Header()
	if h.Get("Cache-Control") != "" || h.Get("Pragma") != "" || h.Get("Expires") != "" {
		return
	}
	// Never claimed, Set cannot fail.
	_ = h.Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	_ = h.Set("Pragma", "no-cache")
	_ = h.Set("Expires", "0")
}

// Match returns false since there are no supported configurations.
func (Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
