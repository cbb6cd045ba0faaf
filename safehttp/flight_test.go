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

package safehttp_test

import (
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/safehtml"
)

type panickingInterceptor struct {
	before, commit bool
}

func (p panickingInterceptor) Before(w safehttp.ResponseWriter, _ *safehttp.IncomingRequest, cfg safehttp.InterceptorConfig) safehttp.Result {
	if p.before {
		panic("before")
	}
	return safehttp.NotWritten()
}

func (p panickingInterceptor) Commit(w safehttp.ResponseHeadersWriter, r *safehttp.IncomingRequest, resp safehttp.Response, cfg safehttp.InterceptorConfig) {
	if p.commit {
		panic("commit")
	}
}

func (panickingInterceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}

func TestFlightInterceptorPanic(t *testing.T) {
	tests := []struct {
		desc        string
		interceptor panickingInterceptor
	}{
		{
			desc:        "panic in Before",
			interceptor: panickingInterceptor{before: true},
		},
		{
			desc:        "panic in Commit",
			interceptor: panickingInterceptor{commit: true},
		},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			mb := safehttp.NewServeMuxConfig(nil)
			mb.Intercept(tc.interceptor)
			mb.Handle("/search", safehttp.MethodGet, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
				// Expected to be cleared by the panic.
				w.Header().Set("foo", "bar")
				return w.Write(safehtml.HTMLEscaped("<h1>Hello World!</h1>"))
			}))
			mux := mb.Mux()

			req := httptest.NewRequest(safehttp.MethodGet, "http://foo.com/search", nil)
			rw := httptest.NewRecorder()

			defer func() {
				if r := recover(); r == nil {
					t.Fatal("expected panic")
				}
				if len(rw.Header()) > 0 {
					t.Errorf("rw.Header() got %v, want empty", rw.Header())
				}
			}()
			mux.ServeHTTP(rw, req)
		})
	}
}

func TestFlightHandlerPanic(t *testing.T) {
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Handle("/search", safehttp.MethodGet, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
		w.Header().Set("foo", "bar")
		panic("handler")
	}))
	mux := mb.Mux()

	req := httptest.NewRequest(safehttp.MethodGet, "http://foo.com/search", nil)
	rw := httptest.NewRecorder()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic")
		}
		if len(rw.Header()) > 0 {
			t.Errorf("rw.Header() got %v, want empty", rw.Header())
		}
	}()
	mux.ServeHTTP(rw, req)
}

type recordingInterceptor struct {
	name  string
	log   *[]string
	block bool
}

func (ri recordingInterceptor) Before(w safehttp.ResponseWriter, _ *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	*ri.log = append(*ri.log, ri.name+".Before")
	if ri.block {
		return w.WriteError(safehttp.StatusForbidden)
	}
	return safehttp.NotWritten()
}

func (ri recordingInterceptor) Commit(w safehttp.ResponseHeadersWriter, _ *safehttp.IncomingRequest, _ safehttp.Response, _ safehttp.InterceptorConfig) {
	*ri.log = append(*ri.log, ri.name+".Commit")
}

func (recordingInterceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}

func TestFlightOrder(t *testing.T) {
	tests := []struct {
		name     string
		blockB   bool
		wantLog  []string
		wantCode int
	}{
		{
			name: "Handler reached",
			wantLog: []string{
				"a.Before", "b.Before", "handler", "b.Commit", "a.Commit",
			},
			wantCode: 200,
		},
		{
			name:   "Short-circuit in Before",
			blockB: true,
			wantLog: []string{
				"a.Before", "b.Before", "b.Commit", "a.Commit",
			},
			wantCode: 403,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []string
			mb := safehttp.NewServeMuxConfig(nil)
			mb.Intercept(recordingInterceptor{name: "a", log: &log}, recordingInterceptor{name: "b", log: &log, block: tt.blockB})
			mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
				log = append(log, "handler")
				return w.Write(safehtml.HTMLEscaped("ok"))
			}))

			rw := httptest.NewRecorder()
			mb.Mux().ServeHTTP(rw, httptest.NewRequest(safehttp.MethodGet, "http://foo.com/", nil))

			if diff := cmp.Diff(tt.wantLog, log); diff != "" {
				t.Errorf("call order mismatch (-want +got):\n%s", diff)
			}
			if rw.Code != tt.wantCode {
				t.Errorf("rw.Code got: %d want: %d", rw.Code, tt.wantCode)
			}
		})
	}
}

func TestFlightNotWrittenIsNoContent(t *testing.T) {
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
		return safehttp.NotWritten()
	}))
	rw := httptest.NewRecorder()
	mb.Mux().ServeHTTP(rw, httptest.NewRequest(safehttp.MethodGet, "http://foo.com/", nil))

	if got, want := rw.Code, int(safehttp.StatusNoContent); got != want {
		t.Errorf("rw.Code got: %d want: %d", got, want)
	}
}

func TestFlightRedirect(t *testing.T) {
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
		return safehttp.Redirect(w, r, "/login", safehttp.StatusFound)
	}))
	rw := httptest.NewRecorder()
	mb.Mux().ServeHTTP(rw, httptest.NewRequest(safehttp.MethodGet, "http://foo.com/", nil))

	if got, want := rw.Code, int(safehttp.StatusFound); got != want {
		t.Errorf("rw.Code got: %d want: %d", got, want)
	}
	if got, want := rw.Header().Get("Location"), "/login"; got != want {
		t.Errorf(`rw.Header().Get("Location") got: %q want: %q`, got, want)
	}
}

func TestRedirectNon3xxPanics(t *testing.T) {
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
		return safehttp.Redirect(w, r, "/login", safehttp.StatusOK)
	}))
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	mb.Mux().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(safehttp.MethodGet, "http://foo.com/", nil))
}

func TestFlightUnsafeResponsePanics(t *testing.T) {
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
		return w.Write("<script>alert(1)</script>")
	}))
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	mb.Mux().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(safehttp.MethodGet, "http://foo.com/", nil))
}
