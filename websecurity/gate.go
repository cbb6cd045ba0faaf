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
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
)

// gated runs an interceptor only for the requests accepted by m.
type gated struct {
	m  matcher.Matcher
	it safehttp.Interceptor
}

var _ safehttp.Interceptor = gated{}

func gate(m matcher.Matcher, it safehttp.Interceptor) safehttp.Interceptor {
	if m == nil {
		return it
	}
	return gated{m: m, it: it}
}

func (g gated) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, cfg safehttp.InterceptorConfig) safehttp.Result {
	if !g.m.Match(r) {
		return safehttp.NotWritten()
	}
	return g.it.Before(w, r, cfg)
}

// Commit mirrors Before: matchers only look at the request, so the wrapped
// Commit runs exactly when the wrapped Before did.
func (g gated) Commit(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, resp safehttp.Response, cfg safehttp.InterceptorConfig) {
	if !g.m.Match(r) {
		return
	}
	g.it.Commit(w, r, resp, cfg)
}

func (g gated) Match(cfg safehttp.InterceptorConfig) bool {
	return g.it.Match(cfg)
}
