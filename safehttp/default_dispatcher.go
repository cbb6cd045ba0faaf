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
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/safehtml"
	"github.com/google/safehtml/template"
)

// DefaultDispatcher writes responses of the safe types: safehtml.HTML, JSON
// and safehtml/template templates. Any other type is refused.
type DefaultDispatcher struct{}

// Write writes resp to rw, setting the Content-Type. It returns an error for
// unsafe response types.
func (DefaultDispatcher) Write(rw http.ResponseWriter, resp Response) error {
	switch x := resp.(type) {
	case safehtml.HTML:
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, err := io.WriteString(rw, x.String())
		return err
	case JSONResponse:
		rw.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Break parsing of JavaScript in order to prevent XSSI.
		if _, err := io.WriteString(rw, ")]}',\n"); err != nil {
			return err
		}
		return json.NewEncoder(rw).Encode(x.Data)
	case *TemplateResponse:
		return executeTemplate(rw, x)
	case TemplateResponse:
		return executeTemplate(rw, &x)
	}
	return fmt.Errorf("%T is not a safe response type and it cannot be written", resp)
}

// Error writes the status text of resp as plain text.
func (DefaultDispatcher) Error(rw http.ResponseWriter, resp ErrorResponse) error {
	writeTextError(rw, resp)
	return nil
}

func executeTemplate(rw http.ResponseWriter, resp *TemplateResponse) error {
	t, ok := resp.Template.(*template.Template)
	if !ok {
		return fmt.Errorf("%T is not a safe template and it cannot be parsed and written", resp.Template)
	}
	if len(resp.FuncMap) != 0 {
		cloned, err := t.Clone()
		if err != nil {
			return err
		}
		t = cloned.Funcs(resp.FuncMap)
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	if resp.Name == "" {
		return t.Execute(rw, resp.Data)
	}
	return t.ExecuteTemplate(rw, resp.Name, resp.Data)
}
