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
	"github.com/google/safehtml/template"

	"github.com/google/go-safeweb-dsl/safehttp"
)

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Please sign in</title></head>
<body>
<h1>Login with OAuth 2.0</h1>
<ul>
{{range .}}<li><a href="{{.URL}}">{{.Name}}</a></li>
{{end}}</ul>
</body>
</html>
`))

// Link is an entry of the generated login page.
type Link struct {
	Name string
	URL  string
}

func (it *Interceptor) servePage(w safehttp.ResponseWriter) safehttp.Result {
	var links []Link
	for _, reg := range it.Registrations {
		links = append(links, Link{Name: reg.name(), URL: it.AuthorizationURL(reg)})
	}
	return safehttp.ExecuteTemplate(w, loginPage, "", links)
}
