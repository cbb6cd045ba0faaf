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
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
)

var disallowedHeaders = map[string]bool{"Set-Cookie": true}

// Header represents the key-value pairs in an HTTP header.
//
// The keys will be in canonical form, as returned by
// textproto.CanonicalMIMEHeaderKey.
type Header struct {
	wrapped http.Header
	claimed map[string]bool
}

// NewHeader wraps h. It is used by the framework and by test helpers that
// fake a ResponseWriter.
func NewHeader(h http.Header) Header {
	return Header{wrapped: h, claimed: map[string]bool{}}
}

// Claim claims the header with the given name and returns a function which
// can be used to set the header. The name is first canonicalized using
// textproto.CanonicalMIMEHeaderKey. Other methods in the struct can't write
// to, change or delete the header with this name. These methods will instead
// return an error when applied on a claimed header. Empty values passed to the
// returned function delete the header.
//
// Claim panics if the header is disallowed or was already claimed.
func (h Header) Claim(name string) (set func([]string)) {
	name = textproto.CanonicalMIMEHeaderKey(name)
	if err := h.writableHeader(name); err != nil {
		panic(err)
	}
	h.claimed[name] = true
	return func(v []string) {
		if len(v) == 0 {
			delete(h.wrapped, name)
			return
		}
		h.wrapped[name] = v
	}
}

// IsClaimed reports whether the provided header is already claimed. The name
// is first canonicalized using textproto.CanonicalMIMEHeaderKey.
func (h Header) IsClaimed(name string) bool {
	return h.claimed[textproto.CanonicalMIMEHeaderKey(name)]
}

// Set sets the header with the given name to the given value. Returns an
// error when applied on a claimed or disallowed header.
func (h Header) Set(name, value string) error {
	name = textproto.CanonicalMIMEHeaderKey(name)
	if err := h.writableHeader(name); err != nil {
		return err
	}
	h.wrapped.Set(name, value)
	return nil
}

// Add adds a new value to the header with the given name. Returns an error
// when applied on a claimed or disallowed header.
func (h Header) Add(name, value string) error {
	name = textproto.CanonicalMIMEHeaderKey(name)
	if err := h.writableHeader(name); err != nil {
		return err
	}
	h.wrapped.Add(name, value)
	return nil
}

// Del deletes all headers with the given name. Returns an error when applied
// on a claimed or disallowed header.
func (h Header) Del(name string) error {
	name = textproto.CanonicalMIMEHeaderKey(name)
	if err := h.writableHeader(name); err != nil {
		return err
	}
	h.wrapped.Del(name)
	return nil
}

// Get returns the value of the first header with the given name. If no
// header exists with the given name then "" is returned.
func (h Header) Get(name string) string {
	return h.wrapped.Get(name)
}

// Values returns all the values of all the headers with the given name. If no
// header exists with the given name then nil is returned.
func (h Header) Values(name string) []string {
	return h.wrapped.Values(name)
}

func (h Header) addCookie(c *Cookie) {
	h.wrapped.Add("Set-Cookie", c.String())
}

func (h Header) writableHeader(name string) error {
	if disallowedHeaders[name] {
		return fmt.Errorf("%q is a disallowed header", name)
	}
	if h.claimed[name] {
		return fmt.Errorf("%q: %w", name, errClaimed)
	}
	return nil
}

var errClaimed = errors.New("header is claimed")
