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

package safehttptest

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/google/go-safeweb-dsl/safehttp"
)

// FakeResponseWriter is a safehttp.ResponseWriter that records what was
// written instead of dispatching it. It is meant for testing interceptors
// in isolation, by calling their Before and Commit methods directly.
type FakeResponseWriter struct {
	// RW receives headers and cookies.
	RW *httptest.ResponseRecorder
	// Code is the status of the written response: 200 for a plain Write, the
	// redirect code for redirects and the error code for WriteError.
	Code safehttp.StatusCode
	// Written is the Response or ErrorResponse passed to Write or WriteError.
	Written safehttp.Response
	// Cookies holds the cookies added with AddCookie.
	Cookies []*safehttp.Cookie

	header  safehttp.Header
	written bool
}

// NewFakeResponseWriter creates a FakeResponseWriter backed by an
// httptest.ResponseRecorder.
func NewFakeResponseWriter() *FakeResponseWriter {
	rw := httptest.NewRecorder()
	return &FakeResponseWriter{
		RW:     rw,
		header: safehttp.NewHeader(rw.Header()),
	}
}

// Header implements safehttp.ResponseWriter.
func (w *FakeResponseWriter) Header() safehttp.Header {
	return w.header
}

// AddCookie implements safehttp.ResponseWriter.
func (w *FakeResponseWriter) AddCookie(c *safehttp.Cookie) error {
	s := c.String()
	if s == "" {
		return fmt.Errorf("invalid cookie name %q", c.Name())
	}
	w.Cookies = append(w.Cookies, c)
	w.RW.Header().Add("Set-Cookie", s)
	return nil
}

// Write implements safehttp.ResponseWriter. It panics if called twice.
func (w *FakeResponseWriter) Write(resp safehttp.Response) safehttp.Result {
	w.markWritten()
	w.Written = resp
	switch x := resp.(type) {
	case safehttp.RedirectResponse:
		w.Code = x.Code
		w.RW.Header().Set("Location", x.Location)
	case safehttp.NoContentResponse:
		w.Code = safehttp.StatusNoContent
	default:
		w.Code = safehttp.StatusOK
	}
	return safehttp.Result{}
}

// WriteError implements safehttp.ResponseWriter. It panics if called twice.
func (w *FakeResponseWriter) WriteError(resp safehttp.ErrorResponse) safehttp.Result {
	w.markWritten()
	w.Written = resp
	w.Code = resp.Code()
	return safehttp.Result{}
}

// IsWritten reports whether Write or WriteError was called.
func (w *FakeResponseWriter) IsWritten() bool {
	return w.written
}

// SetCookies returns the Set-Cookie header values, in order.
func (w *FakeResponseWriter) SetCookies() []string {
	return w.RW.Header().Values("Set-Cookie")
}

// Location returns the Location header of a redirect.
func (w *FakeResponseWriter) Location() string {
	return w.RW.Header().Get("Location")
}

// HeaderMap returns the recorded response headers.
func (w *FakeResponseWriter) HeaderMap() http.Header {
	return w.RW.Header()
}

func (w *FakeResponseWriter) markWritten() {
	if w.written {
		panic("ResponseWriter was already written to")
	}
	w.written = true
}
