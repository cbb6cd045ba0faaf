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

// Package authz provides an interceptor that decides, for each request, whether
// the caller may reach the handler. Access is described by an ordered list
// of rules: the first rule matching the request decides, and requests that no
// rule matches are denied.
//
// Unauthenticated callers that are denied are sent to an authentication
// EntryPoint. Authenticated callers that are denied are sent to an
// AccessDeniedHandler.
package authz

import (
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/requestcache"
	"go.uber.org/zap"
)

// Recorder observes authorization decisions. The rule is described by its
// String method, or "default" when no rule matched.
type Recorder interface {
	Decision(rule string, granted bool)
}

// Interceptor enforces Rules.
type Interceptor struct {
	Rules Rules
	// EntryPoint defaults to auth.StatusEntryPoint{} (401).
	EntryPoint auth.EntryPoint
	// AccessDeniedHandler defaults to auth.StatusAccessDenied{} (403).
	AccessDeniedHandler auth.AccessDeniedHandler
	// RequestCache, if set, remembers denied requests of unauthenticated
	// callers before the EntryPoint runs.
	RequestCache requestcache.Cache
	Logger       *zap.Logger
	Recorder     Recorder
}

var _ safehttp.Interceptor = &Interceptor{}

// Skip disables authorization for a single handler. It is meant for
// endpoints served by the authentication plugins themselves.
type Skip struct{}

// Before applies the rules to the request.
func (it *Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, cfg safehttp.InterceptorConfig) safehttp.Result {
	if _, ok := cfg.(Skip); ok {
		return safehttp.NotWritten()
	}
	a := auth.FromRequest(r)
	i, granted := it.Rules.Decide(a, r)
	rule := "default"
	if i >= 0 {
		rule = it.Rules[i].String()
	}
	if it.Recorder != nil {
		it.Recorder.Decision(rule, granted)
	}
	if granted {
		return safehttp.NotWritten()
	}

	log := auth.Logger(it.Logger).With(
		zap.String("method", r.Method()),
		zap.String("path", r.URL().Path()),
		zap.String("rule", rule),
	)
	if !a.IsAuthenticated() {
		log.Debug("access denied, authentication required")
		if it.RequestCache != nil {
			it.RequestCache.Save(w, r)
		}
		ep := it.EntryPoint
		if ep == nil {
			ep = auth.StatusEntryPoint{}
		}
		return ep.Commence(w, r)
	}
	log.Info("access denied", zap.String("principal", a.Principal))
	h := it.AccessDeniedHandler
	if h == nil {
		h = auth.StatusAccessDenied{}
	}
	return h.Handle(w, r)
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (it *Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns true if cfg is Skip.
func (it *Interceptor) Match(cfg safehttp.InterceptorConfig) bool {
	_, ok := cfg.(Skip)
	return ok
}
