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

package resourceserver

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/go-safeweb-dsl/safehttp"
)

// Bearer token resolution errors.
var (
	ErrMalformedToken = errors.New("bearer token is malformed")
	ErrMultipleTokens = errors.New("found multiple bearer tokens in the request")
)

// b64token from RFC 6750, section 2.1.
var b64token = regexp.MustCompile(`^[A-Za-z0-9\-._~+/]+=*$`)

// TokenResolver finds the bearer token of a request. It returns an empty
// token and no error when there is none.
type TokenResolver interface {
	Resolve(r *safehttp.IncomingRequest) (string, error)
}

// DefaultTokenResolver reads the Authorization header and, optionally, the
// access_token form or query parameter.
type DefaultTokenResolver struct {
	AllowFormEncodedBodyParameter bool
	AllowURIQueryParameter        bool
}

var _ TokenResolver = DefaultTokenResolver{}

const accessTokenParameter = "access_token"

func fromHeader(r *safehttp.IncomingRequest) (string, error) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", nil
	}
	tok := strings.TrimSpace(h[7:])
	if !b64token.MatchString(tok) {
		return "", ErrMalformedToken
	}
	return tok, nil
}

// Resolve implements TokenResolver.
func (d DefaultTokenResolver) Resolve(r *safehttp.IncomingRequest) (string, error) {
	header, err := fromHeader(r)
	if err != nil {
		return "", err
	}
	var params []string
	if d.AllowURIQueryParameter {
		if q, err := r.URL().Query(); err == nil {
			params = append(params, q.Values(accessTokenParameter)...)
		}
	}
	if d.AllowFormEncodedBodyParameter {
		if f, err := r.PostForm(); err == nil {
			params = append(params, f.Values(accessTokenParameter)...)
		}
	}
	switch {
	case len(params) == 0:
		return header, nil
	case header != "" || len(params) > 1:
		return "", ErrMultipleTokens
	case params[0] == "":
		return "", ErrMalformedToken
	}
	return params[0], nil
}
