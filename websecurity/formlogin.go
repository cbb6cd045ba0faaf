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
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/formlogin"
)

// FormLogin configures username and password login with an HTML form.
type FormLogin struct {
	// LoginPage is where unauthenticated users are sent. Defaults to
	// "/login".
	LoginPage string
	// DisableLoginPage stops the generated login page from being served, for
	// applications rendering their own at LoginPage.
	DisableLoginPage bool
	// LoginProcessingURL receives the form. Defaults to LoginPage.
	LoginProcessingURL string
	UsernameParameter  string
	PasswordParameter  string
	// DefaultSuccessURL is used when no request was saved before the login,
	// or always when AlwaysUseDefaultSuccessURL is set.
	DefaultSuccessURL          string
	AlwaysUseDefaultSuccessURL bool
	FailureURL                 string

	AuthenticationSuccessHandler formlogin.SuccessHandler
	AuthenticationFailureHandler formlogin.FailureHandler
	// RequiresAuthenticationMatcher replaces the POST LoginProcessingURL
	// check.
	RequiresAuthenticationMatcher matcher.Matcher

	// PermitAll grants everyone access to the login page and the failure URL.
	PermitAll bool

	disabled bool
}

// Disable turns form login off.
func (f *FormLogin) Disable() {
	f.disabled = true
}

func (f *FormLogin) get() func(*formlogin.Interceptor) {
	return func(it *formlogin.Interceptor) {
		setString(&it.LoginPage, f.LoginPage)
		setString(&it.LoginProcessingURL, f.LoginProcessingURL)
		setString(&it.UsernameParameter, f.UsernameParameter)
		setString(&it.PasswordParameter, f.PasswordParameter)
		setString(&it.DefaultSuccessURL, f.DefaultSuccessURL)
		setString(&it.FailureURL, f.FailureURL)
		if f.DisableLoginPage {
			it.DisableLoginPage = true
		}
		if f.AlwaysUseDefaultSuccessURL {
			it.AlwaysUseDefaultSuccessURL = true
		}
		if f.AuthenticationSuccessHandler != nil {
			it.SuccessHandler = f.AuthenticationSuccessHandler
		}
		if f.AuthenticationFailureHandler != nil {
			it.FailureHandler = f.AuthenticationFailureHandler
		}
		if f.RequiresAuthenticationMatcher != nil {
			it.RequiresAuthentication = f.RequiresAuthenticationMatcher
		}
	}
}
