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
	"fmt"
	"net/http"
	"sort"
)

// The HTTP request methods defined by RFC.
const (
	MethodConnect = "CONNECT" // RFC 7231, 4.3.6
	MethodDelete  = "DELETE"  // RFC 7231, 4.3.5
	MethodGet     = "GET"     // RFC 7231, 4.3.1
	MethodHead    = "HEAD"    // RFC 7231, 4.3.2
	MethodOptions = "OPTIONS" // RFC 7231, 4.3.7
	MethodPatch   = "PATCH"   // RFC 5789
	MethodPost    = "POST"    // RFC 7231, 4.3.3
	MethodPut     = "PUT"     // RFC 7231, 4.3.4
	MethodTrace   = "TRACE"   // RFC 7231, 4.3.8
)

// ServeMuxConfig is a builder of a ServeMux. Interceptors installed with
// Intercept run, in installation order, for every handler registered with
// Handle, including handlers registered before the call to Intercept.
type ServeMuxConfig struct {
	dispatcher   Dispatcher
	interceptors []Interceptor

	handlers         []handlerRegistration
	methodNotAllowed handlerRegistration
}

type handlerRegistration struct {
	pattern string
	method  string
	handler Handler
	cfgs    []InterceptorConfig
}

// NewServeMuxConfig creates a ServeMuxConfig with the provided Dispatcher. If
// the provided Dispatcher is nil, the DefaultDispatcher is used.
func NewServeMuxConfig(disp Dispatcher) *ServeMuxConfig {
	freezeDev()
	if disp == nil {
		disp = DefaultDispatcher{}
	}
	return &ServeMuxConfig{
		dispatcher: disp,
		methodNotAllowed: handlerRegistration{
			handler: HandlerFunc(defaultMethodNotAllowed),
		},
	}
}

// Handle registers a handler for the given pattern and method. Patterns
// follow net/http.ServeMux semantics without method prefixes. The optional
// configs are matched against the installed interceptors when the mux is
// built.
func (s *ServeMuxConfig) Handle(pattern string, method string, h Handler, cfgs ...InterceptorConfig) {
	s.handlers = append(s.handlers, handlerRegistration{
		pattern: pattern,
		method:  method,
		handler: h,
		cfgs:    cfgs,
	})
}

// Registered reports whether a handler was registered for the exact pattern
// and method.
func (s *ServeMuxConfig) Registered(pattern, method string) bool {
	for _, hr := range s.handlers {
		if hr.pattern == pattern && hr.method == method {
			return true
		}
	}
	return false
}

// HandleMethodNotAllowed registers the handler that responds to requests
// whose pattern is registered but whose method is not. It runs with the
// installed interceptors, just like any other handler.
func (s *ServeMuxConfig) HandleMethodNotAllowed(h Handler, cfgs ...InterceptorConfig) {
	s.methodNotAllowed = handlerRegistration{handler: h, cfgs: cfgs}
}

// Intercept installs the given interceptors.
//
// Interceptors order is respected and interceptors are always executed in
// order of installation.
func (s *ServeMuxConfig) Intercept(is ...Interceptor) {
	s.interceptors = append(s.interceptors, is...)
}

// Clone creates a copy of the current config. This can be used to create
// several instances of ServeMux that share most of their configuration.
func (s *ServeMuxConfig) Clone() *ServeMuxConfig {
	c := &ServeMuxConfig{
		dispatcher:       s.dispatcher,
		interceptors:     make([]Interceptor, len(s.interceptors)),
		handlers:         make([]handlerRegistration, len(s.handlers)),
		methodNotAllowed: s.methodNotAllowed,
	}
	copy(c.interceptors, s.interceptors)
	copy(c.handlers, s.handlers)
	return c
}

// Mux returns the ServeMux with a copy of the current configuration. It
// panics if the same pattern and method were registered twice.
func (s *ServeMuxConfig) Mux() *ServeMux {
	m := &ServeMux{
		mux:        http.NewServeMux(),
		handlerMap: map[string]*registeredHandler{},
	}
	notAllowed := handlerConfig{
		Dispatcher:   s.dispatcher,
		Handler:      s.methodNotAllowed.handler,
		Interceptors: configureInterceptors(s.interceptors, s.methodNotAllowed.cfgs),
	}
	for _, hr := range s.handlers {
		rh, ok := m.handlerMap[hr.pattern]
		if !ok {
			rh = &registeredHandler{
				pattern:          hr.pattern,
				methods:          map[string]handlerConfig{},
				methodNotAllowed: notAllowed,
			}
			m.handlerMap[hr.pattern] = rh
			m.mux.Handle(hr.pattern, rh)
		}
		if _, ok := rh.methods[hr.method]; ok {
			panic(fmt.Sprintf("double registration of (pattern = %q, method = %q)", hr.pattern, hr.method))
		}
		rh.methods[hr.method] = handlerConfig{
			Dispatcher:   s.dispatcher,
			Handler:      hr.handler,
			Interceptors: configureInterceptors(s.interceptors, hr.cfgs),
		}
	}
	return m
}

// ServeMux is an HTTP request multiplexer. It matches the URL of each incoming
// request against a list of registered patterns and calls the handler for
// the pattern that most closely matches the URL.
//
// Patterns names are fixed, rooted paths, like "/favicon.ico", or rooted
// subtrees like "/images/" (note the trailing slash).
//
// Multiple handlers can be registered for a single pattern, as long as they
// handle different HTTP methods.
type ServeMux struct {
	mux        *http.ServeMux
	handlerMap map[string]*registeredHandler
}

// ServeHTTP dispatches the request to the handler whose method matches the
// incoming request and whose pattern most closely matches the request URL.
//
// For each incoming request:
//   - [Before Phase] Interceptor.Before methods are called for every installed
//     interceptor, until an interceptor writes to a ResponseWriter (including
//     errors) or panics,
//   - the handler is called after a [Before Phase] if no writes or panics occured,
//   - the handler triggers the [Commit Phase] by writing to the ResponseWriter,
//   - [Commit Phase] Interceptor.Commit methods run for every interceptor whose
//     Before method was called, in reverse order,
//   - the Dispatcher writes the response to the http.ResponseWriter.
func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mux.ServeHTTP(w, r)
}

// Patterns returns the registered patterns in lexical order.
func (m *ServeMux) Patterns() []string {
	var ps []string
	for p := range m.handlerMap {
		ps = append(ps, p)
	}
	sort.Strings(ps)
	return ps
}

type registeredHandler struct {
	pattern          string
	methods          map[string]handlerConfig
	methodNotAllowed handlerConfig
}

func (rh *registeredHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg, ok := rh.methods[r.Method]
	if !ok {
		cfg = rh.methodNotAllowed
	}
	processRequest(cfg, w, r)
}

func defaultMethodNotAllowed(w ResponseWriter, req *IncomingRequest) Result {
	return w.WriteError(StatusMethodNotAllowed)
}
