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

// Package coop sets the Cross-Origin-Opener-Policy headers.
// See https://html.spec.whatwg.org/#cross-origin-opener-policies.
package coop

import (
	"github.com/google/go-safeweb-dsl/safehttp"
)

// Mode is a COOP mode.
type Mode string

const (
	// SameOrigin keeps references only between same-origin windows.
	SameOrigin Mode = "same-origin"
	// SameOriginAllowPopups lets this origin keep references to the windows
	// it opens, but not the other way around.
	SameOriginAllowPopups Mode = "same-origin-allow-popups"
	// UnsafeNone disables COOP. This is the browser default.
	UnsafeNone Mode = "unsafe-none"
)

// ParseMode returns the Mode with the given header value.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case SameOrigin, SameOriginAllowPopups, UnsafeNone:
		return m, true
	}
	return "", false
}

// Policy is a single Cross-Origin-Opener-Policy value.
type Policy struct {
	Mode Mode
	// ReportingGroup must be defined with the Reporting API.
	ReportingGroup string
	ReportOnly     bool
}

// String returns the header value.
func (p Policy) String() string {
	if p.ReportingGroup == "" {
		return string(p.Mode)
	}
	return string(p.Mode) + `; report-to "` + p.ReportingGroup + `"`
}

// Interceptor claims and sets both COOP headers.
type Interceptor struct {
	Policies []Policy
}

var _ safehttp.Interceptor = Interceptor{}

// Default returns an enforcing same-origin Interceptor reporting to
// reportGroup, which can be empty.
func Default(reportGroup string) Interceptor {
	return Interceptor{Policies: []Policy{{Mode: SameOrigin, ReportingGroup: reportGroup}}}
}

// Override replaces the policies of the Interceptor for one handler.
type Override struct {
	Policies []Policy
}

func split(policies []Policy) (enf, rep []string) {
	for _, p := range policies {
		if p.ReportOnly {
			rep = append(rep, p.String())
		} else {
			enf = append(enf, p.String())
		}
	}
	return enf, rep
}

// Before claims and sets Cross-Origin-Opener-Policy and its report-only
// variant.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, cfg safehttp.InterceptorConfig) safehttp.Result {
	policies := it.Policies
	if o, ok := cfg.(Override); ok {
		policies = o.Policies
	}
	enf, rep := split(policies)
	w.Header().Claim("Cross-Origin-Opener-Policy")(enf)
	w.Header().Claim("Cross-Origin-Opener-Policy-Report-Only")(rep)
	return safehttp.NotWritten()
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match recognizes Override.
func (Interceptor) Match(cfg safehttp.InterceptorConfig) bool {
	_, ok := cfg.(Override)
	return ok
}
