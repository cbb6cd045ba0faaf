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

package formlogin

import (
	"fmt"
	"regexp"

	"github.com/google/safehtml"
	"github.com/google/safehtml/template"
	"github.com/google/safehtml/uncheckedconversions"
	"go.uber.org/zap"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/xsrf"
)

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Please sign in</title></head>
<body>
<h1>Please sign in</h1>
{{if .Error}}<p class="error">Bad credentials</p>{{end}}
{{if .Logout}}<p class="logout">You have been signed out</p>{{end}}
<form method="post" action="{{.Action}}">
<p><label>Username <input type="text" name="{{.UsernameParameter}}" autocomplete="username" autofocus></label></p>
<p><label>Password <input type="password" name="{{.PasswordParameter}}" autocomplete="current-password"></label></p>
{{if .CSRFToken}}<input type="hidden" name="{{.CSRFParameter}}" value="{{.CSRFToken}}">{{end}}
<button type="submit">Sign in</button>
</form>
</body>
</html>
`))

// PageData is rendered by the generated login page.
type PageData struct {
	Action            string
	UsernameParameter safehtml.Identifier
	PasswordParameter safehtml.Identifier
	Error             bool
	Logout            bool
	CSRFParameter     safehtml.Identifier
	CSRFToken         string
}

// parameterName is the set of form parameter names the login page can
// render as a name attribute.
var parameterName = regexp.MustCompile(`^[A-Za-z_][-_A-Za-z0-9]*$`)

func identifier(name string) (safehtml.Identifier, error) {
	if !parameterName.MatchString(name) {
		return safehtml.Identifier{}, fmt.Errorf("%w: %q", ErrInvalidParameter, name)
	}
	return uncheckedconversions.IdentifierFromStringKnownToSatisfyTypeContract(name), nil
}

func (it *Interceptor) pageData(r *safehttp.IncomingRequest) (PageData, error) {
	data := PageData{Action: it.processingURL()}
	var err error
	if data.UsernameParameter, err = identifier(it.usernameParameter()); err != nil {
		return PageData{}, err
	}
	if data.PasswordParameter, err = identifier(it.passwordParameter()); err != nil {
		return PageData{}, err
	}
	if q, err := r.URL().Query(); err == nil {
		data.Error = q.Has("error")
		data.Logout = q.Has("logout")
	}
	if tok, err := xsrf.TokenFromRequest(r); err == nil {
		if data.CSRFParameter, err = identifier(tok.ParameterName); err != nil {
			return PageData{}, err
		}
		data.CSRFToken = tok.Value
	}
	return data, nil
}

func (it *Interceptor) servePage(w safehttp.ResponseWriter, r *safehttp.IncomingRequest) safehttp.Result {
	data, err := it.pageData(r)
	if err != nil {
		auth.Logger(it.Logger).Error("login page", zap.Error(err))
		return w.WriteError(safehttp.StatusInternalServerError)
	}
	return safehttp.ExecuteTemplate(w, loginPage, "", data)
}
