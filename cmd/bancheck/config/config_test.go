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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestReadConfigs(t *testing.T) {
	tests := []struct {
		desc  string
		files map[string]string
		want  *Config
	}{
		{
			desc:  "Empty",
			files: map[string]string{"file.json": `{}`},
			want:  &Config{},
		},
		{
			desc: "JSON",
			files: map[string]string{"file.json": `
			{
				"imports": [{
					"name": "github.com/google/go-safeweb-dsl/safehttp/plugins/xsrf",
					"msg": "Configure CSRF through websecurity",
					"exemptions": [{
						"justification": "The DSL itself",
						"allowedPkg": "github.com/google/go-safeweb-dsl/websecurity"
					}]
				}]
			}`},
			want: &Config{
				Imports: []BannedAPI{{
					Name: "github.com/google/go-safeweb-dsl/safehttp/plugins/xsrf",
					Msg:  "Configure CSRF through websecurity",
					Exemptions: []Exemption{{
						Justification: "The DSL itself",
						AllowedPkg:    "github.com/google/go-safeweb-dsl/websecurity",
					}},
				}},
			},
		},
		{
			desc: "YAML",
			files: map[string]string{"file.yml": `
functions:
  - name: fmt.Printf
    msg: Use the logger
`},
			want: &Config{
				Functions: []BannedAPI{{Name: "fmt.Printf", Msg: "Use the logger"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := ReadConfigs(writeFiles(t, tt.files))
			if err != nil {
				t.Fatalf("ReadConfigs() got err: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ReadConfigs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadConfigsErrors(t *testing.T) {
	tests := []struct {
		desc, name, content string
	}{
		{"Invalid JSON", "file.json", `{`},
		{"Invalid YAML", "file.yaml", "functions: [\n"},
		{"No name", "file.json", `{"functions": [{"msg": "x"}]}`},
		{"No justification", "file.json", `{"functions": [{"name": "fmt.Printf", "exemptions": [{"allowedPkg": "main"}]}]}`},
		{"Bad package pattern", "file.json", `{"functions": [{"name": "fmt.Printf", "exemptions": [{"justification": "x", "allowedPkg": "["}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := ReadConfigs(writeFiles(t, map[string]string{tt.name: tt.content})); err == nil {
				t.Error("ReadConfigs() got nil err")
			}
		})
	}

	if _, err := ReadConfigs([]string{filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("ReadConfigs(missing file) got nil err")
	}
	if _, err := ReadConfigs([]string{t.TempDir()}); err == nil {
		t.Error("ReadConfigs(directory) got nil err")
	}
}

func TestDefaults(t *testing.T) {
	got := map[string]bool{}
	for _, fn := range Defaults().Functions {
		if !strings.HasPrefix(fn.Name, "(*github.com/google/go-safeweb-dsl/websecurity.") {
			t.Errorf("unexpected default %q", fn.Name)
		}
		got[fn.Name] = true
	}
	for _, want := range []string{
		"(*github.com/google/go-safeweb-dsl/websecurity.CSRF).Disable",
		"(*github.com/google/go-safeweb-dsl/websecurity.Headers).Disable",
		"(*github.com/google/go-safeweb-dsl/websecurity.FrameOptions).Disable",
	} {
		if !got[want] {
			t.Errorf("Defaults() does not ban %q", want)
		}
	}
}

func TestMerge(t *testing.T) {
	a := &Config{Functions: []BannedAPI{{Name: "a"}}}
	b := &Config{Imports: []BannedAPI{{Name: "b"}}, Functions: []BannedAPI{{Name: "c"}}}
	want := &Config{
		Imports:   []BannedAPI{{Name: "b"}},
		Functions: []BannedAPI{{Name: "a"}, {Name: "c"}},
	}
	if diff := cmp.Diff(want, Merge(a, b)); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}
