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

// Package framing protects against clickjacking with the X-Frame-Options
// header.
package framing

import (
	"github.com/google/go-safeweb-dsl/safehttp"
)

// Mode is an X-Frame-Options value.
type Mode string

const (
	// Deny forbids framing altogether.
	Deny Mode = "DENY"
	// SameOrigin allows framing by pages of the same origin.
	SameOrigin Mode = "SAMEORIGIN"
)

// Interceptor claims and sets X-Frame-Options.
type Interceptor struct {
	// Mode defaults to Deny.
	Mode Mode
}

var _ safehttp.Interceptor = Interceptor{}

// Allow is a per-handler configuration that leaves X-Frame-Options unset,
// so that the handler can be embedded by any site.
type Allow struct{}

// Before claims X-Frame-Options and sets it unless the handler is configured
// with Allow.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, cfg safehttp.InterceptorConfig) safehttp.Result {
	set := w.Header().Claim("X-Frame-Options")
	if _, ok := cfg.(Allow); ok {
		return safehttp.NotWritten()
	}
	mode := it.Mode
	if mode == "" {
		mode = Deny
	}
	set([]string{string(mode)})
	return safehttp.NotWritten()
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns true if cfg is Allow.
func (Interceptor) Match(cfg safehttp.InterceptorConfig) bool {
	_, ok := cfg.(Allow)
	return ok
}
