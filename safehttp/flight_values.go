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

import (
	"context"
	"sync"
)

type flightValuesCtxKey struct{}

// Map is a concurrency-safe map of values attached to a single request.
type Map interface {
	Put(key, value interface{})
	Get(key interface{}) interface{}
}

type flightValues struct {
	mu sync.Mutex
	m  map[interface{}]interface{}
}

func (fv *flightValues) Put(key, value interface{}) {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	fv.m[key] = value
}

func (fv *flightValues) Get(key interface{}) interface{} {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	return fv.m[key]
}

// FlightValues returns a map that can store values that live as long as the
// request. Interceptors use it to hand data to handlers and to each other,
// e.g. the authenticated user or a CSRF token.
//
// The context must derive from IncomingRequest.Context(), otherwise a fresh,
// unshared map is returned.
func FlightValues(ctx context.Context) Map {
	if v, ok := ctx.Value(flightValuesCtxKey{}).(*flightValues); ok {
		return v
	}
	return &flightValues{m: map[interface{}]interface{}{}}
}

func withFlightValues(ctx context.Context) context.Context {
	return context.WithValue(ctx, flightValuesCtxKey{}, &flightValues{m: map[interface{}]interface{}{}})
}
