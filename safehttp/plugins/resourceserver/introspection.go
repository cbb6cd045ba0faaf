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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrInactiveToken is returned for tokens the authorization server reports
// as inactive.
var ErrInactiveToken = errors.New("token is not active")

// Introspector validates opaque tokens and returns their attributes.
type Introspector interface {
	Introspect(ctx context.Context, token string) (map[string]interface{}, error)
}

// RemoteIntrospector validates opaque tokens with an RFC 7662 token
// introspection endpoint.
type RemoteIntrospector struct {
	URL          string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

var _ Introspector = &RemoteIntrospector{}

// Introspect implements Introspector. It returns the introspection response
// of an active token.
func (ri *RemoteIntrospector) Introspect(ctx context.Context, token string) (map[string]interface{}, error) {
	form := url.Values{"token": {token}, "token_type_hint": {"access_token"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ri.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(url.QueryEscape(ri.ClientID), url.QueryEscape(ri.ClientSecret))

	client := ri.HTTPClient
	if client == nil {
		client = defaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspecting token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("introspection endpoint returned status %d", resp.StatusCode)
	}
	attrs := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("decoding introspection response: %w", err)
	}
	if active, _ := attrs["active"].(bool); !active {
		return nil, ErrInactiveToken
	}
	return attrs, nil
}
