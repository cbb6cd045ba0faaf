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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/safehtml"
	"github.com/google/safehtml/template"
)

func helloHandler(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	return w.Write(safehtml.HTMLEscaped("<h1>Hello World!</h1>"))
}

func TestMuxOneHandlerOneRequest(t *testing.T) {
	var test = []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantHeader map[string][]string
		wantBody   string
	}{
		{
			name:       "Valid Request",
			req:        httptest.NewRequest(safehttp.MethodGet, "http://foo.com/", nil),
			wantStatus: 200,
			wantHeader: map[string][]string{
				"Content-Type": {"text/html; charset=utf-8"},
			},
			wantBody: "&lt;h1&gt;Hello World!&lt;/h1&gt;",
		},
		{
			name:       "Invalid Method",
			req:        httptest.NewRequest(safehttp.MethodPost, "http://foo.com/", nil),
			wantStatus: 405,
			wantHeader: map[string][]string{
				"Content-Type":           {"text/plain; charset=utf-8"},
				"X-Content-Type-Options": {"nosniff"},
			},
			wantBody: "Method Not Allowed\n",
		},
	}

	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			mb := safehttp.NewServeMuxConfig(nil)
			mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(helloHandler))

			rw := httptest.NewRecorder()
			mb.Mux().ServeHTTP(rw, tt.req)

			if rw.Code != tt.wantStatus {
				t.Errorf("rw.Code: got %v want %v", rw.Code, tt.wantStatus)
			}
			if diff := cmp.Diff(tt.wantHeader, map[string][]string(rw.Header())); diff != "" {
				t.Errorf("rw.Header() mismatch (-want +got):\n%s", diff)
			}
			if got := rw.Body.String(); got != tt.wantBody {
				t.Errorf("response body: got %q want %q", got, tt.wantBody)
			}
		})
	}
}

func TestMuxMethodNotAllowedRunsInterceptors(t *testing.T) {
	var log []string
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Intercept(recordingInterceptor{name: "a", log: &log})
	mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(helloHandler))

	rw := httptest.NewRecorder()
	mb.Mux().ServeHTTP(rw, httptest.NewRequest(safehttp.MethodDelete, "http://foo.com/", nil))

	if diff := cmp.Diff([]string{"a.Before", "a.Commit"}, log); diff != "" {
		t.Errorf("interceptor calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMuxCustomMethodNotAllowed(t *testing.T) {
	mb := safehttp.NewServeMuxConfig(nil)
	mb.HandleMethodNotAllowed(safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
		return w.Write(safehtml.HTMLEscaped("nope"))
	}))
	mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(helloHandler))

	rw := httptest.NewRecorder()
	mb.Mux().ServeHTTP(rw, httptest.NewRequest(safehttp.MethodPut, "http://foo.com/", nil))

	if got, want := rw.Body.String(), "nope"; got != want {
		t.Errorf("rw.Body got: %q want: %q", got, want)
	}
}

func TestMuxDoubleRegistrationPanics(t *testing.T) {
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(helloHandler))
	mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(helloHandler))
	defer func() {
		if r := recover(); r == nil {
			t.Error("Mux() with a double registration did not panic")
		}
	}()
	mb.Mux()
}

func TestMuxRegistered(t *testing.T) {
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Handle("/login", safehttp.MethodGet, safehttp.HandlerFunc(helloHandler))
	if !mb.Registered("/login", safehttp.MethodGet) {
		t.Error(`mb.Registered("/login", GET) got: false want: true`)
	}
	if mb.Registered("/login", safehttp.MethodPost) {
		t.Error(`mb.Registered("/login", POST) got: true want: false`)
	}
}

func TestMuxClone(t *testing.T) {
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Handle("/a", safehttp.MethodGet, safehttp.HandlerFunc(helloHandler))
	clone := mb.Clone()
	clone.Handle("/b", safehttp.MethodGet, safehttp.HandlerFunc(helloHandler))

	if diff := cmp.Diff([]string{"/a"}, mb.Mux().Patterns()); diff != "" {
		t.Errorf("original patterns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/a", "/b"}, clone.Mux().Patterns()); diff != "" {
		t.Errorf("clone patterns mismatch (-want +got):\n%s", diff)
	}
}

type configurableInterceptor struct {
	got *string
}

type interceptorValue string

func (ci configurableInterceptor) Before(w safehttp.ResponseWriter, _ *safehttp.IncomingRequest, cfg safehttp.InterceptorConfig) safehttp.Result {
	if v, ok := cfg.(interceptorValue); ok {
		*ci.got = string(v)
	}
	return safehttp.NotWritten()
}

func (configurableInterceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

func (configurableInterceptor) Match(cfg safehttp.InterceptorConfig) bool {
	_, ok := cfg.(interceptorValue)
	return ok
}

func TestMuxInterceptorConfig(t *testing.T) {
	var got string
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Intercept(configurableInterceptor{got: &got})
	mb.Handle("/", safehttp.MethodGet, safehttp.HandlerFunc(helloHandler), interceptorValue("configured"))

	mb.Mux().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(safehttp.MethodGet, "http://foo.com/", nil))

	if want := "configured"; got != want {
		t.Errorf("config seen by interceptor got: %q want: %q", got, want)
	}
}

func TestMuxTemplateAndJSON(t *testing.T) {
	tmpl := template.Must(template.New("").Parse("<p>{{.}}</p>"))
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Handle("/tmpl", safehttp.MethodGet, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
		return safehttp.ExecuteTemplate(w, tmpl, "", "<b>")
	}))
	mb.Handle("/json", safehttp.MethodGet, safehttp.HandlerFunc(func(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
		return safehttp.WriteJSON(w, map[string]string{"a": "b"})
	}))
	mux := mb.Mux()

	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(safehttp.MethodGet, "http://foo.com/tmpl", nil))
	if got, want := rw.Body.String(), "<p>&lt;b&gt;</p>"; got != want {
		t.Errorf("template body got: %q want: %q", got, want)
	}

	rw = httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(safehttp.MethodGet, "http://foo.com/json", nil))
	if got, want := rw.Body.String(), ")]}',\n{\"a\":\"b\"}\n"; got != want {
		t.Errorf("json body got: %q want: %q", got, want)
	}
	if got := rw.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("json Content-Type got: %q", got)
	}
}

func TestRegisteredHandler(t *testing.T) {
	mb := safehttp.NewServeMuxConfig(nil)
	mb.Handle("/pattern", safehttp.MethodGet, safehttp.HandlerFunc(helloHandler))
	mux := mb.Mux()

	if h := safehttp.RegisteredHandler(mux, "/nope"); h != nil {
		t.Errorf("RegisteredHandler(\"/nope\") got: %v want: nil", h)
	}
	h := safehttp.RegisteredHandler(mux, "/pattern")
	if h == nil {
		t.Fatal(`RegisteredHandler("/pattern") got: nil`)
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(safehttp.MethodGet, "http://foo.com/pattern", nil))
	if rw.Code != http.StatusOK {
		t.Errorf("rw.Code got: %d want: %d", rw.Code, http.StatusOK)
	}
}
