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
	"fmt"

	"github.com/google/go-safeweb-dsl/safehttp"
)

// EntryPoint answers requests that need authentication.
type EntryPoint interface {
	Commence(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result
}

// EntryPointFunc adapts a function to an EntryPoint.
type EntryPointFunc func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result

// Commence calls f(w, r).
func (f EntryPointFunc) Commence(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	return f(w, r)
}

// StatusEntryPoint answers with Code, 401 Unauthorized when zero.
type StatusEntryPoint struct {
	Code safehttp.StatusCode
}

// Commence implements EntryPoint.
func (e StatusEntryPoint) Commence(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	if e.Code == 0 {
		return w.WriteError(safehttp.StatusUnauthorized)
	}
	return w.WriteError(e.Code)
}

// RedirectEntryPoint redirects to a login page with 302 Found.
type RedirectEntryPoint struct {
	URL string
}

// Commence implements EntryPoint.
func (e RedirectEntryPoint) Commence(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	return safehttp.Redirect(w, r, e.URL, safehttp.StatusFound)
}

// BasicEntryPoint asks for HTTP basic credentials.
type BasicEntryPoint struct {
	// Realm defaults to "Realm".
	Realm string
}

// Commence implements EntryPoint.
func (e BasicEntryPoint) Commence(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	realm := e.Realm
	if realm == "" {
		realm = "Realm"
	}
	// The header can only fail to be set if it was claimed.
	_ = w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
	return w.WriteError(safehttp.StatusUnauthorized)
}

// AccessDeniedHandler answers authenticated requests that are not allowed.
type AccessDeniedHandler interface {
	Handle(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result
}

// AccessDeniedFunc adapts a function to an AccessDeniedHandler.
type AccessDeniedFunc func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result

// Handle calls f(w, r).
func (f AccessDeniedFunc) Handle(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	return f(w, r)
}

// StatusAccessDenied answers with Code, 403 Forbidden when zero.
type StatusAccessDenied struct {
	Code safehttp.StatusCode
}

// Handle implements AccessDeniedHandler.
func (h StatusAccessDenied) Handle(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	if h.Code == 0 {
		return w.WriteError(safehttp.StatusForbidden)
	}
	return w.WriteError(h.Code)
}

// RedirectAccessDenied redirects to an error page with 302 Found.
type RedirectAccessDenied struct {
	URL string
}

// Handle implements AccessDeniedHandler.
func (h RedirectAccessDenied) Handle(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	return safehttp.Redirect(w, r, h.URL, safehttp.StatusFound)
}
