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

// Package hpkp sets the HTTP Public Key Pinning headers.
package hpkp

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-safeweb-dsl/safehttp"
)

// DefaultMaxAge is sixty days.
const DefaultMaxAge = 5184000 * time.Second

// Interceptor writes Public-Key-Pins-Report-Only, or Public-Key-Pins when
// Enforce is set.
type Interceptor struct {
	// Pins are base64 encoded SHA-256 hashes of the subject public key info.
	Pins []string
	// MaxAge defaults to DefaultMaxAge.
	MaxAge            time.Duration
	IncludeSubDomains bool
	ReportURI         string
	Enforce           bool
}

var _ safehttp.Interceptor = Interceptor{}

// AddSHA256Pins adds pins, ignoring duplicates.
func (it *Interceptor) AddSHA256Pins(pins ...string) {
	for _, p := range pins {
		dup := false
		for _, q := range it.Pins {
			if p == q {
				dup = true
				break
			}
		}
		if !dup {
			it.Pins = append(it.Pins, p)
		}
	}
}

func (it Interceptor) headerName() string {
	if it.Enforce {
		return "Public-Key-Pins"
	}
	return "Public-Key-Pins-Report-Only"
}

// Value returns the header value.
func (it Interceptor) Value() string {
	pins := append([]string(nil), it.Pins...)
	sort.Strings(pins)
	maxAge := it.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}
	var parts []string
	for _, p := range pins {
		parts = append(parts, `pin-sha256="`+p+`"`)
	}
	parts = append(parts, "max-age="+strconv.FormatInt(int64(maxAge.Seconds()), 10))
	if it.IncludeSubDomains {
		parts = append(parts, "includeSubDomains")
	}
	if it.ReportURI != "" {
		parts = append(parts, `report-uri="`+it.ReportURI+`"`)
	}
	return strings.Join(parts, " ; ")
}

// Before claims both pinning headers and sets one of them on secure
// requests, provided there is at least one pin.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	enf := w.Header().Claim("Public-Key-Pins")
	rep := w.Header().Claim("Public-Key-Pins-Report-Only")
	if !r.IsSecure() || len(it.Pins) == 0 {
		return safehttp.NotWritten()
	}
	if it.Enforce {
		enf([]string{it.Value()})
	} else {
		rep([]string{it.Value()})
	}
	return safehttp.NotWritten()
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns false since there are no supported configurations.
func (Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
