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
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHeaderSetAddDel(t *testing.T) {
	h := NewHeader(http.Header{})
	if err := h.Set("fOo-KeY", "a"); err != nil {
		t.Fatalf(`h.Set("fOo-KeY", "a") got err: %v want: nil`, err)
	}
	if err := h.Add("Foo-Key", "b"); err != nil {
		t.Fatalf(`h.Add("Foo-Key", "b") got err: %v want: nil`, err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, h.Values("FOO-KEY")); diff != "" {
		t.Errorf(`h.Values("FOO-KEY") mismatch (-want +got):\n%s`, diff)
	}
	if err := h.Del("foo-key"); err != nil {
		t.Fatalf(`h.Del("foo-key") got err: %v want: nil`, err)
	}
	if got := h.Get("Foo-Key"); got != "" {
		t.Errorf(`h.Get("Foo-Key") got: %q want: ""`, got)
	}
}

func TestHeaderSetCookieDisallowed(t *testing.T) {
	h := NewHeader(http.Header{})
	if err := h.Set("Set-Cookie", "x=y"); err == nil {
		t.Error(`h.Set("Set-Cookie", "x=y") got: nil want: error`)
	}
	if err := h.Add("set-cookie", "x=y"); err == nil {
		t.Error(`h.Add("set-cookie", "x=y") got: nil want: error`)
	}
	if err := h.Del("Set-Cookie"); err == nil {
		t.Error(`h.Del("Set-Cookie") got: nil want: error`)
	}
	if got := h.Values("Set-Cookie"); len(got) != 0 {
		t.Errorf(`h.Values("Set-Cookie") got: %v want: empty`, got)
	}
}

func TestHeaderClaim(t *testing.T) {
	h := NewHeader(http.Header{})
	set := h.Claim("x-frame-options")
	if !h.IsClaimed("X-Frame-Options") {
		t.Error(`h.IsClaimed("X-Frame-Options") got: false want: true`)
	}
	set([]string{"DENY"})
	if err := h.Set("X-Frame-Options", "SAMEORIGIN"); err == nil {
		t.Error(`h.Set("X-Frame-Options", "SAMEORIGIN") got: nil want: error`)
	}
	if err := h.Del("X-Frame-Options"); err == nil {
		t.Error(`h.Del("X-Frame-Options") got: nil want: error`)
	}
	if got, want := h.Get("X-Frame-Options"), "DENY"; got != want {
		t.Errorf(`h.Get("X-Frame-Options") got: %q want: %q`, got, want)
	}
	set(nil)
	if got := h.Values("X-Frame-Options"); len(got) != 0 {
		t.Errorf(`h.Values("X-Frame-Options") after set(nil) got: %v want: empty`, got)
	}
}

func TestHeaderClaimTwicePanics(t *testing.T) {
	h := NewHeader(http.Header{})
	h.Claim("Foo")
	defer func() {
		if r := recover(); r == nil {
			t.Error(`h.Claim("Foo") twice expected panic`)
		}
	}()
	h.Claim("Foo")
}

func TestHeaderClaimSetCookiePanics(t *testing.T) {
	h := NewHeader(http.Header{})
	defer func() {
		if r := recover(); r == nil {
			t.Error(`h.Claim("Set-Cookie") expected panic`)
		}
	}()
	h.Claim("Set-Cookie")
}
