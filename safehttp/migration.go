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

package safehttp

import "net/http"

// RegisteredHandler returns the combined (all request methods) handler
// registered for a given pattern. Returns nil if the exact pattern wasn't used
// to register any handlers.
//
// This is helpful for migrating services incrementally, endpoint by endpoint:
// the returned handler runs every installed interceptor, so a single route can
// be mounted on an existing net/http mux while keeping its security
// configuration.
//
// No path matching is attempted. If the handler was registered for "/foo/",
// only "/foo/" returns it.
func RegisteredHandler(mux *ServeMux, pattern string) http.Handler {
	if h, ok := mux.handlerMap[pattern]; ok {
		return h
	}
	// mux.handlerMap[pattern] would be a typed nil, which is not equal to an
	// untyped nil.
	return nil
}
