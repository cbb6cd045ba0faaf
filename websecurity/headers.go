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

package websecurity

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/coop"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/csp"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/framing"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/hpkp"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/hsts"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/staticheaders"
)

// headerWriters is the set of header interceptors a Headers block
// configures. Nil pointers and zero values are off.
type headerWriters struct {
	contentTypeOptions bool
	xss                staticheaders.XSSMode
	cacheControl       bool
	referrerPolicy     staticheaders.ReferrerPolicy
	featurePolicy      string

	hsts  *hsts.Interceptor
	frame *framing.Interceptor
	hpkp  *hpkp.Interceptor
	csp   *csp.Interceptor
	coop  *coop.Interceptor

	errs []error
}

func defaultHeaderWriters() headerWriters {
	h := hsts.Default()
	return headerWriters{
		contentTypeOptions: true,
		xss:                staticheaders.XSSBlock,
		cacheControl:       true,
		hsts:               &h,
		frame:              &framing.Interceptor{Mode: framing.Deny},
	}
}

func (hw *headerWriters) interceptors() []safehttp.Interceptor {
	var is []safehttp.Interceptor
	static := staticheaders.Interceptor{
		ContentTypeOptions: hw.contentTypeOptions,
		XSSProtection:      hw.xss,
		CacheControl:       hw.cacheControl,
		ReferrerPolicy:     hw.referrerPolicy,
		FeaturePolicy:      hw.featurePolicy,
	}
	if static != (staticheaders.Interceptor{}) {
		is = append(is, static)
	}
	if hw.hsts != nil {
		is = append(is, *hw.hsts)
	}
	if hw.frame != nil {
		is = append(is, *hw.frame)
	}
	if hw.hpkp != nil {
		is = append(is, *hw.hpkp)
	}
	if hw.csp != nil {
		is = append(is, *hw.csp)
	}
	if hw.coop != nil {
		is = append(is, *hw.coop)
	}
	return is
}

// Headers configures the security response headers. Content type options,
// XSS protection, cache control, HSTS and frame options are on unless
// DefaultsDisabled is set; the other headers are on once configured.
type Headers struct {
	// DefaultsDisabled turns every header off, except the ones configured
	// in this block.
	DefaultsDisabled bool

	writers  []func(*headerWriters)
	disabled bool
}

// Disable turns every security header off.
func (h *Headers) Disable() {
	h.disabled = true
}

func (h *Headers) get() func(*headerWriters) {
	defaultsDisabled := h.DefaultsDisabled
	writers := slices.Clone(h.writers)
	return func(hw *headerWriters) {
		if defaultsDisabled {
			*hw = headerWriters{errs: hw.errs}
		}
		for _, w := range writers {
			w(hw)
		}
	}
}

// ContentTypeOptions configures X-Content-Type-Options: nosniff.
type ContentTypeOptions struct {
	disabled bool
}

// Disable removes the header.
func (c *ContentTypeOptions) Disable() { c.disabled = true }

// ContentTypeOptions configures X-Content-Type-Options.
func (h *Headers) ContentTypeOptions(configure func(*ContentTypeOptions)) {
	c := run(configure, &ContentTypeOptions{})
	h.writers = append(h.writers, func(hw *headerWriters) {
		hw.contentTypeOptions = !c.disabled
	})
}

// XSSProtection configures X-XSS-Protection.
type XSSProtection struct {
	// XSSProtectionEnabled defaults to true. When false the header is "0".
	XSSProtectionEnabled *bool
	// Block defaults to true and adds "mode=block".
	Block *bool

	disabled bool
}

// Disable removes the header.
func (x *XSSProtection) Disable() { x.disabled = true }

func (x *XSSProtection) mode() staticheaders.XSSMode {
	switch {
	case x.disabled:
		return ""
	case x.XSSProtectionEnabled != nil && !*x.XSSProtectionEnabled:
		return staticheaders.XSSDisabled
	case x.Block != nil && !*x.Block:
		return staticheaders.XSSEnabled
	}
	return staticheaders.XSSBlock
}

// XSSProtection configures X-XSS-Protection.
func (h *Headers) XSSProtection(configure func(*XSSProtection)) {
	x := run(configure, &XSSProtection{})
	h.writers = append(h.writers, func(hw *headerWriters) {
		hw.xss = x.mode()
	})
}

// CacheControl configures the headers that disable caching.
type CacheControl struct {
	disabled bool
}

// Disable removes the caching headers.
func (c *CacheControl) Disable() { c.disabled = true }

// CacheControl configures Cache-Control, Pragma and Expires.
func (h *Headers) CacheControl(configure func(*CacheControl)) {
	c := run(configure, &CacheControl{})
	h.writers = append(h.writers, func(hw *headerWriters) {
		hw.cacheControl = !c.disabled
	})
}

// HTTPStrictTransportSecurity configures Strict-Transport-Security.
type HTTPStrictTransportSecurity struct {
	// MaxAge defaults to two years. Zero tells browsers to forget the
	// host.
	MaxAge *time.Duration
	// IncludeSubDomains defaults to true.
	IncludeSubDomains *bool
	Preload           bool
	// RequestMatcher selects the requests that get the header. By default
	// only requests received over TLS do.
	RequestMatcher matcher.Matcher
	// BehindProxy sends the header on every request, for servers behind a
	// proxy terminating TLS.
	BehindProxy bool

	disabled bool
}

// Disable removes the header.
func (s *HTTPStrictTransportSecurity) Disable() { s.disabled = true }

// HTTPStrictTransportSecurity configures Strict-Transport-Security.
func (h *Headers) HTTPStrictTransportSecurity(configure func(*HTTPStrictTransportSecurity)) {
	s := run(configure, &HTTPStrictTransportSecurity{})
	h.writers = append(h.writers, func(hw *headerWriters) {
		if s.disabled {
			hw.hsts = nil
			return
		}
		it := hsts.Default()
		if hw.hsts != nil {
			it = *hw.hsts
		}
		if s.MaxAge != nil {
			it.MaxAge = *s.MaxAge
		}
		if s.IncludeSubDomains != nil {
			it.DisableIncludeSubDomains = !*s.IncludeSubDomains
		}
		if s.Preload {
			it.Preload = true
		}
		if s.RequestMatcher != nil {
			it.RequestMatcher = s.RequestMatcher
		}
		if s.BehindProxy {
			it.BehindProxy = true
		}
		hw.hsts = &it
	})
}

// FrameOptions configures X-Frame-Options.
type FrameOptions struct {
	// SameOrigin allows framing by pages of the same origin. The default is
	// DENY.
	SameOrigin bool
	// Deny forbids all framing.
	Deny bool

	disabled bool
}

// Disable removes the header.
func (f *FrameOptions) Disable() { f.disabled = true }

// FrameOptions configures X-Frame-Options.
func (h *Headers) FrameOptions(configure func(*FrameOptions)) {
	f := run(configure, &FrameOptions{})
	h.writers = append(h.writers, func(hw *headerWriters) {
		if f.disabled {
			hw.frame = nil
			return
		}
		it := framing.Interceptor{Mode: framing.Deny}
		if f.SameOrigin && !f.Deny {
			it.Mode = framing.SameOrigin
		}
		hw.frame = &it
	})
}

// HTTPPublicKeyPinning configures Public-Key-Pins.
type HTTPPublicKeyPinning struct {
	// Pins maps base64 encoded public key hashes to their algorithm. Only
	// "sha256" is supported.
	Pins map[string]string
	// MaxAge defaults to 60 days.
	MaxAge            time.Duration
	IncludeSubDomains bool
	// ReportOnly defaults to true, sending Public-Key-Pins-Report-Only.
	ReportOnly *bool
	ReportURI  string

	disabled bool
}

// Disable removes the header.
func (p *HTTPPublicKeyPinning) Disable() { p.disabled = true }

// HTTPPublicKeyPinning configures Public-Key-Pins.
func (h *Headers) HTTPPublicKeyPinning(configure func(*HTTPPublicKeyPinning)) {
	p := run(configure, &HTTPPublicKeyPinning{})
	h.writers = append(h.writers, func(hw *headerWriters) {
		if p.disabled {
			hw.hpkp = nil
			return
		}
		it := hpkp.Interceptor{}
		if hw.hpkp != nil {
			it = *hw.hpkp
		}
		var pins []string
		for _, pin := range slices.Sorted(maps.Keys(p.Pins)) {
			alg := p.Pins[pin]
			if alg != "sha256" {
				hw.errs = append(hw.errs, fmt.Errorf("public key pin %q: unsupported algorithm %q", pin, alg))
				continue
			}
			pins = append(pins, pin)
		}
		it.AddSHA256Pins(pins...)
		if p.MaxAge != 0 {
			it.MaxAge = p.MaxAge
		}
		if p.IncludeSubDomains {
			it.IncludeSubDomains = true
		}
		if p.ReportOnly != nil {
			it.Enforce = !*p.ReportOnly
		}
		setString(&it.ReportURI, p.ReportURI)
		hw.hpkp = &it
	})
}

// ContentSecurityPolicy configures Content-Security-Policy.
type ContentSecurityPolicy struct {
	// PolicyDirectives is the literal policy. "{nonce}" is replaced with the
	// nonce of the request.
	PolicyDirectives string
	// Strict uses a strict nonce based policy when PolicyDirectives is empty.
	Strict *csp.StrictPolicy
	// ReportOnly sends the policy as Content-Security-Policy-Report-Only.
	ReportOnly bool
}

// ContentSecurityPolicy configures Content-Security-Policy. The header is
// off until this is called.
func (h *Headers) ContentSecurityPolicy(configure func(*ContentSecurityPolicy)) {
	c := run(configure, &ContentSecurityPolicy{})
	h.writers = append(h.writers, func(hw *headerWriters) {
		var p csp.Policy
		switch {
		case c.PolicyDirectives != "":
			p = csp.Directives(c.PolicyDirectives)
		case c.Strict != nil:
			p = c.Strict.Build()
		default:
			p = csp.StrictPolicy{}.Build()
		}
		if c.ReportOnly {
			hw.csp = &csp.Interceptor{ReportOnly: []csp.Policy{p}}
		} else {
			hw.csp = &csp.Interceptor{Enforce: []csp.Policy{p}}
		}
	})
}

// ReferrerPolicy configures Referrer-Policy.
type ReferrerPolicy struct {
	// Policy defaults to no-referrer.
	Policy staticheaders.ReferrerPolicy
}

// ReferrerPolicy configures Referrer-Policy. The header is off until this
// is called.
func (h *Headers) ReferrerPolicy(configure func(*ReferrerPolicy)) {
	r := run(configure, &ReferrerPolicy{})
	h.writers = append(h.writers, func(hw *headerWriters) {
		hw.referrerPolicy = r.Policy
		if hw.referrerPolicy == "" {
			hw.referrerPolicy = staticheaders.NoReferrer
		}
	})
}

// FeaturePolicy sends Feature-Policy with the directives.
func (h *Headers) FeaturePolicy(directives string) {
	h.writers = append(h.writers, func(hw *headerWriters) {
		hw.featurePolicy = directives
	})
}

// CrossOriginOpenerPolicy configures Cross-Origin-Opener-Policy.
type CrossOriginOpenerPolicy struct {
	// Policy defaults to same-origin.
	Policy         coop.Mode
	ReportingGroup string
	ReportOnly     bool
}

// CrossOriginOpenerPolicy adds a Cross-Origin-Opener-Policy. Each call adds
// one policy.
func (h *Headers) CrossOriginOpenerPolicy(configure func(*CrossOriginOpenerPolicy)) {
	c := run(configure, &CrossOriginOpenerPolicy{})
	h.writers = append(h.writers, func(hw *headerWriters) {
		mode := c.Policy
		if mode == "" {
			mode = coop.SameOrigin
		}
		if hw.coop == nil {
			hw.coop = &coop.Interceptor{}
		}
		hw.coop.Policies = append(hw.coop.Policies, coop.Policy{
			Mode:           mode,
			ReportingGroup: c.ReportingGroup,
			ReportOnly:     c.ReportOnly,
		})
	})
}
