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

// Package hostcheck rejects requests whose Host header is not allow-listed.
// This protects against DNS rebinding and request smuggling.
package hostcheck

import (
	"strings"

	"go.uber.org/zap"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
)

// Interceptor checks the Host header of incoming requests against an
// allowlist.
type Interceptor struct {
	hosts  map[string]bool
	Logger *zap.Logger
}

var _ safehttp.Interceptor = Interceptor{}

// New creates an Interceptor accepting the given hosts. Host names are
// compared case-insensitively and must include the port if one is used.
func New(hosts ...string) Interceptor {
	it := Interceptor{hosts: map[string]bool{}}
	for _, h := range hosts {
		it.hosts[strings.ToLower(h)] = true
	}
	return it
}

// Before responds with 404 Not Found to requests for unknown hosts.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	if !it.hosts[strings.ToLower(r.Host())] {
		auth.Logger(it.Logger).Info("unknown host", zap.String("host", r.Host()))
		return w.WriteError(safehttp.StatusNotFound)
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
