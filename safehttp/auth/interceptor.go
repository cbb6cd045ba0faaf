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

package auth

import (
	"github.com/google/go-safeweb-dsl/safehttp"
	"go.uber.org/zap"
)

// ContextInterceptor restores the authentication saved by a
// ContextRepository at the start of every request. Invalid sessions are
// cleared and the request continues unauthenticated.
type ContextInterceptor struct {
	Repository ContextRepository
	Logger     *zap.Logger
}

var _ safehttp.Interceptor = ContextInterceptor{}

// Before loads the saved authentication.
func (it ContextInterceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	if it.Repository == nil {
		return safehttp.NotWritten()
	}
	a, err := it.Repository.Load(r)
	if err != nil {
		Logger(it.Logger).Debug("discarding saved authentication", zap.Error(err))
		if err := it.Repository.Clear(w, r); err != nil {
			Logger(it.Logger).Warn("clearing saved authentication", zap.Error(err))
		}
		return safehttp.NotWritten()
	}
	if a != nil {
		SetAuthentication(r, a)
	}
	return safehttp.NotWritten()
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (ContextInterceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns false since there are no supported configurations.
func (ContextInterceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
