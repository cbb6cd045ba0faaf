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

package oauth2login

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Registration describes an OAuth 2.0 client registered with a provider.
type Registration struct {
	// ID appears in the authorization and redirection endpoint paths.
	ID           string
	ClientID     string
	ClientSecret string
	// Name is shown on the generated login page. It defaults to ID.
	Name        string
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	// RedirectURL defaults to the redirection endpoint of this Registration
	// on the host of the authorization request.
	RedirectURL string
	Scopes      []string
	// UserNameAttribute is the user-info attribute used as principal. It
	// defaults to "sub".
	UserNameAttribute string
}

// GoogleRegistration returns a Registration for Google accounts.
func GoogleRegistration(clientID, clientSecret string) Registration {
	return Registration{
		ID:                "google",
		Name:              "Google",
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		AuthURL:           "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL:          "https://oauth2.googleapis.com/token",
		UserInfoURL:       "https://www.googleapis.com/oauth2/v3/userinfo",
		Scopes:            []string{"openid", "profile", "email"},
		UserNameAttribute: "sub",
	}
}

// GitHubRegistration returns a Registration for GitHub accounts.
func GitHubRegistration(clientID, clientSecret string) Registration {
	return Registration{
		ID:                "github",
		Name:              "GitHub",
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		AuthURL:           github.Endpoint.AuthURL,
		TokenURL:          github.Endpoint.TokenURL,
		UserInfoURL:       "https://api.github.com/user",
		Scopes:            []string{"read:user"},
		UserNameAttribute: "login",
	}
}

func (reg Registration) name() string {
	if reg.Name == "" {
		return reg.ID
	}
	return reg.Name
}

func (reg Registration) userNameAttribute() string {
	if reg.UserNameAttribute == "" {
		return "sub"
	}
	return reg.UserNameAttribute
}

func (reg Registration) config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     reg.ClientID,
		ClientSecret: reg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       reg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  reg.AuthURL,
			TokenURL: reg.TokenURL,
		},
	}
}
