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

package websecurity

import (
	"net/http"
	"slices"

	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/oauth2login"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/resourceserver"
)

// OAuth2Login configures login with OAuth 2.0 providers.
type OAuth2Login struct {
	// ClientRegistrations lists the providers. At least one is required.
	ClientRegistrations []oauth2login.Registration
	// LoginPage is where unauthenticated users are sent when there are
	// several registrations. A page linking them is generated unless form
	// login serves its own page there.
	LoginPage         string
	DefaultSuccessURL string
	FailureURL        string
	// HTTPClient is used for the token and user info requests.
	HTTPClient *http.Client

	authorizationBaseURI string
	redirectionBaseURI   string
	disabled             bool
}

// Disable turns OAuth2 login off.
func (o *OAuth2Login) Disable() { o.disabled = true }

// AuthorizationEndpoint configures the endpoint starting a login.
type AuthorizationEndpoint struct {
	// BaseURI defaults to "/oauth2/authorization". The registration ID is
	// appended to it.
	BaseURI string
}

// AuthorizationEndpoint configures the endpoint starting a login.
func (o *OAuth2Login) AuthorizationEndpoint(configure func(*AuthorizationEndpoint)) {
	e := run(configure, &AuthorizationEndpoint{})
	setString(&o.authorizationBaseURI, e.BaseURI)
}

// RedirectionEndpoint configures the endpoint the provider redirects to.
type RedirectionEndpoint struct {
	// BaseURI defaults to "/login/oauth2/code". The registration ID is
	// appended to it.
	BaseURI string
}

// RedirectionEndpoint configures the endpoint the provider redirects to.
func (o *OAuth2Login) RedirectionEndpoint(configure func(*RedirectionEndpoint)) {
	e := run(configure, &RedirectionEndpoint{})
	setString(&o.redirectionBaseURI, e.BaseURI)
}

func (o *OAuth2Login) get() func(*oauth2login.Interceptor) {
	return func(it *oauth2login.Interceptor) {
		it.Registrations = append(it.Registrations, o.ClientRegistrations...)
		setString(&it.LoginPage, o.LoginPage)
		setString(&it.DefaultSuccessURL, o.DefaultSuccessURL)
		setString(&it.FailureURL, o.FailureURL)
		setString(&it.AuthorizationBaseURI, o.authorizationBaseURI)
		setString(&it.RedirectionBaseURI, o.redirectionBaseURI)
		if o.HTTPClient != nil {
			it.HTTPClient = o.HTTPClient
		}
	}
}

// resourceServer is the state an OAuth2ResourceServer block configures.
type resourceServer struct {
	interceptor  resourceserver.Interceptor
	entryPoint   auth.EntryPoint
	accessDenied auth.AccessDeniedHandler
	jwkSetURI    string
	introspect   *resourceserver.RemoteIntrospector
}

// OAuth2ResourceServer configures authentication with bearer tokens.
type OAuth2ResourceServer struct {
	// AuthenticationEntryPoint defaults to a 401 with a Bearer challenge.
	AuthenticationEntryPoint auth.EntryPoint
	// AccessDeniedHandler answers denied requests carrying a valid token.
	AccessDeniedHandler auth.AccessDeniedHandler
	// BearerTokenResolver defaults to the Authorization header.
	BearerTokenResolver resourceserver.TokenResolver

	customizers []func(*resourceServer)
	disabled    bool
}

// Disable turns bearer token authentication off.
func (o *OAuth2ResourceServer) Disable() { o.disabled = true }

// JWT configures validation of self-contained tokens.
type JWT struct {
	// JWTAuthenticationConverter defaults to the sub claim and SCOPE_
	// authorities.
	JWTAuthenticationConverter resourceserver.Converter
	// JWTDecoder validates tokens. When nil, keys are fetched from
	// JWKSetURI.
	JWTDecoder resourceserver.Decoder
	JWKSetURI  string
}

// JWT configures validation of self-contained tokens.
func (o *OAuth2ResourceServer) JWT(configure func(*JWT)) {
	j := run(configure, &JWT{})
	o.customizers = append(o.customizers, func(rs *resourceServer) {
		if j.JWTAuthenticationConverter != nil {
			rs.interceptor.Converter = j.JWTAuthenticationConverter
		}
		if j.JWTDecoder != nil {
			rs.interceptor.Decoder = j.JWTDecoder
		}
		setString(&rs.jwkSetURI, j.JWKSetURI)
	})
}

// OpaqueToken configures validation of tokens with an introspection
// endpoint.
type OpaqueToken struct {
	IntrospectionURI string
	// Introspector replaces the remote introspection.
	Introspector resourceserver.Introspector

	clientID, clientSecret string
}

// IntrospectionClientCredentials sets the credentials used to call the
// introspection endpoint.
func (t *OpaqueToken) IntrospectionClientCredentials(clientID, clientSecret string) {
	t.clientID = clientID
	t.clientSecret = clientSecret
}

// OpaqueToken configures validation of tokens with an introspection
// endpoint.
func (o *OAuth2ResourceServer) OpaqueToken(configure func(*OpaqueToken)) {
	t := run(configure, &OpaqueToken{})
	o.customizers = append(o.customizers, func(rs *resourceServer) {
		if t.Introspector != nil {
			rs.interceptor.Introspector = t.Introspector
			return
		}
		if rs.introspect == nil {
			rs.introspect = &resourceserver.RemoteIntrospector{}
		}
		setString(&rs.introspect.URL, t.IntrospectionURI)
		setString(&rs.introspect.ClientID, t.clientID)
		setString(&rs.introspect.ClientSecret, t.clientSecret)
	})
}

func (o *OAuth2ResourceServer) get() func(*resourceServer) {
	customizers := slices.Clone(o.customizers)
	return func(rs *resourceServer) {
		if o.AuthenticationEntryPoint != nil {
			rs.entryPoint = o.AuthenticationEntryPoint
		}
		if o.AccessDeniedHandler != nil {
			rs.accessDenied = o.AccessDeniedHandler
		}
		if o.BearerTokenResolver != nil {
			rs.interceptor.Resolver = o.BearerTokenResolver
		}
		for _, c := range customizers {
			c(rs)
		}
	}
}
