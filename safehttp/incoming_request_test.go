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
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-safeweb-dsl/safehttp"
)

func TestIncomingRequestCookie(t *testing.T) {
	var tests = []struct {
		name      string
		cookies   []string
		wantName  string
		wantValue string
	}{
		{
			name:      "Basic",
			cookies:   []string{"foo=bar"},
			wantName:  "foo",
			wantValue: "bar",
		},
		{
			name:      "Multiple cookies with the same name",
			cookies:   []string{"foo=bar; foo=xyz", "foo=pizza"},
			wantName:  "foo",
			wantValue: "bar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, c := range tt.cookies {
				r.Header.Add("Cookie", c)
			}
			ir := safehttp.NewIncomingRequest(r)
			c, err := ir.Cookie(tt.wantName)
			if err != nil {
				t.Fatalf("ir.Cookie(tt.wantName) got: %v want: nil", err)
			}
			if got := c.Name(); got != tt.wantName {
				t.Errorf("c.Name() got: %v want: %v", got, tt.wantName)
			}
			if got := c.Value(); got != tt.wantValue {
				t.Errorf("c.Value() got: %v want: %v", got, tt.wantValue)
			}
		})
	}
}

func TestIncomingRequestCookieNotFound(t *testing.T) {
	ir := safehttp.NewIncomingRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := ir.Cookie("foo"); !errors.Is(err, http.ErrNoCookie) {
		t.Errorf(`ir.Cookie("foo") got err: %v want: %v`, err, http.ErrNoCookie)
	}
}

func TestIncomingRequestPostFormParsedOnce(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=b&c=d"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ir := safehttp.NewIncomingRequest(r)

	f1, err := ir.PostForm()
	if err != nil {
		t.Fatalf("ir.PostForm(): %v", err)
	}
	f2, err := ir.PostForm()
	if err != nil {
		t.Fatalf("second ir.PostForm(): %v", err)
	}
	if f1 != f2 {
		t.Error("ir.PostForm() returned different forms on repeated calls")
	}
	if got := f2.String("c", ""); got != "d" {
		t.Errorf(`f.String("c") got: %q want: "d"`, got)
	}
}

func TestIncomingRequestPostFormErrors(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
	}{
		{name: "GET", method: http.MethodGet, contentType: "application/x-www-form-urlencoded"},
		{name: "Multipart", method: http.MethodPost, contentType: "multipart/form-data; boundary=x"},
		{name: "JSON", method: http.MethodPost, contentType: "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/", strings.NewReader("a=b"))
			r.Header.Set("Content-Type", tt.contentType)
			if _, err := safehttp.NewIncomingRequest(r).PostForm(); err == nil {
				t.Error("ir.PostForm() got: nil error")
			}
		})
	}
}

func TestIncomingRequestQueryForm(t *testing.T) {
	ir := safehttp.NewIncomingRequest(httptest.NewRequest(http.MethodGet, "/?continue&n=3", nil))
	f, err := ir.QueryForm()
	if err != nil {
		t.Fatalf("ir.QueryForm(): %v", err)
	}
	if !f.Has("continue") {
		t.Error(`f.Has("continue") got: false want: true`)
	}
	if got := f.Int64("n", 0); got != 3 {
		t.Errorf(`f.Int64("n") got: %d want: 3`, got)
	}
}

func TestIncomingRequestRemoteIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.7:5555"
	if got := safehttp.NewIncomingRequest(r).RemoteIP().String(); got != "192.168.1.7" {
		t.Errorf("RemoteIP() got: %q want: 192.168.1.7", got)
	}
}

func TestIncomingRequestIsSecure(t *testing.T) {
	if safehttp.NewIncomingRequest(httptest.NewRequest(http.MethodGet, "http://foo.com/", nil)).IsSecure() {
		t.Error("http request IsSecure() got: true")
	}
	if !safehttp.NewIncomingRequest(httptest.NewRequest(http.MethodGet, "https://foo.com/", nil)).IsSecure() {
		t.Error("https request IsSecure() got: false")
	}
}

type ctxKey struct{}

func TestIncomingRequestSetContextKeepsFlightValues(t *testing.T) {
	ir := safehttp.NewIncomingRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	safehttp.FlightValues(ir.Context()).Put("k", "v")
	ir.SetContext(context.WithValue(ir.Context(), ctxKey{}, 1))

	if got := safehttp.FlightValues(ir.Context()).Get("k"); got != "v" {
		t.Errorf("FlightValues after SetContext got: %v want: v", got)
	}
}
