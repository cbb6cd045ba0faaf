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

// Package htmlinject rewrites templates so that the tokens added by the
// security interceptors reach the page without handlers passing them
// around: forms get a hidden CSRF token input and scripts, styles and
// preloaded scripts get a CSP nonce.
//
// The rewritten templates call the CSRFToken and CSPNonce functions, which
// the xsrf and csp interceptors provide when committing a
// safehttp.TemplateResponse.
package htmlinject

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/google/safehtml/template"
	"github.com/google/safehtml/template/uncheckedconversions"
	"golang.org/x/net/html"
)

// Names of the functions called by the rewritten templates.
const (
	CSPNonceFuncName  = "CSPNonce"
	CSRFTokenFuncName = "CSRFToken"
)

// Rule is a directive for the rewriter to add attributes or nodes to a tag.
type Rule struct {
	Name string
	// OnTag is the lower case tag name that triggers the rule.
	OnTag string
	// WithAttributes restricts the rule to tags carrying all of these
	// attribute values.
	WithAttributes map[string]string
	// AddAttributes are inserted verbatim after the tag name, so they
	// should start with a space.
	AddAttributes []string
	// AddNodes are inserted verbatim after the matched tag: as children for
	// tags with a closing tag, as siblings for void tags.
	AddNodes []string
}

func (r Rule) String() string { return r.Name }

func (r Rule) matches(attrs map[string]string) bool {
	for k, v := range r.WithAttributes {
		if got, ok := attrs[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// Config is a set of related Rules.
type Config []Rule

// CSPNoncesDefault adds nonce="{{CSPNonce}}" to the elements a strict
// Content-Security-Policy needs a nonce on.
var CSPNoncesDefault = CSPNonces(`nonce="{{` + CSPNonceFuncName + `}}"`)

// CSPNonces constructs a Config adding nonceAttr to scripts, styles and
// preloaded scripts.
func CSPNonces(nonceAttr string) Config {
	nonceAttr = " " + nonceAttr
	return Config{
		{Name: "Nonces for scripts", OnTag: "script", AddAttributes: []string{nonceAttr}},
		{Name: "Nonces for styles", OnTag: "style", AddAttributes: []string{nonceAttr}},
		{
			Name:           "Nonces for link as=script rel=preload",
			OnTag:          "link",
			WithAttributes: map[string]string{"rel": "preload", "as": "script"},
			AddAttributes:  []string{nonceAttr},
		},
	}
}

// CSRFTokensDefault adds a hidden input named like the default CSRF
// parameter to every form.
var CSRFTokensDefault = CSRFTokens(`<input type="hidden" name="_csrf" value="{{` + CSRFTokenFuncName + `}}">`)

// CSRFTokens constructs a Config adding inputTag as the first child of forms.
func CSRFTokens(inputTag string) Config {
	return Config{{Name: "Tokens for forms", OnTag: "form", AddNodes: []string{inputTag}}}
}

// Transform rewrites the template read from src according to cfg.
func Transform(src io.Reader, cfg ...Config) (tpl string, _ error) {
	rw := rewriter{
		rules:     map[string][]Rule{},
		tokenizer: html.NewTokenizer(src),
		out:       &strings.Builder{},
	}
	for _, c := range cfg {
		for _, r := range c {
			rw.rules[r.OnTag] = append(rw.rules[r.OnTag], r)
		}
	}
	if err := rw.rewrite(); err != nil {
		return "", fmt.Errorf("transforming template: %v", err)
	}
	return rw.out.String(), nil
}

type rewriter struct {
	// tag -> rules for that tag
	rules     map[string][]Rule
	tokenizer *html.Tokenizer
	out       *strings.Builder
}

func (r rewriter) emitRaw() {
	r.out.Write(r.tokenizer.Raw())
}

func (r rewriter) rewrite() error {
	for {
		switch tkn := r.tokenizer.Next(); tkn {
		case html.ErrorToken:
			if err := r.tokenizer.Err(); !errors.Is(err, io.EOF) {
				return err
			}
			r.emitRaw()
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			r.processTag()
		default:
			r.emitRaw()
		}
	}
}

func (r rewriter) processTag() {
	// TagName lower-cases the buffer Raw points into.
	raw := string(r.tokenizer.Raw())
	name, hasAttr := r.tokenizer.TagName()
	rules := r.rules[string(name)]
	if len(rules) == 0 {
		r.out.WriteString(raw)
		return
	}
	n := len(name)
	attrs := map[string]string{}
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = r.tokenizer.TagAttr()
		attrs[string(k)] = string(v)
	}

	var addAttrs, addNodes []string
	for _, rule := range rules {
		if rule.matches(attrs) {
			addAttrs = append(addAttrs, rule.AddAttributes...)
			addNodes = append(addNodes, rule.AddNodes...)
		}
	}
	// raw starts with "<" followed by the tag name.
	r.out.WriteString(raw[:1+n])
	for _, a := range addAttrs {
		r.out.WriteString(a)
	}
	r.out.WriteString(raw[1+n:])
	for _, nd := range addNodes {
		r.out.WriteString(nd)
	}
}

// LoadConfig selects the rewrites of the Load functions. Both are on by
// default.
type LoadConfig struct {
	DisableCSP  bool
	DisableCSRF bool
}

func (lc LoadConfig) configs() ([]Config, template.FuncMap) {
	var cfgs []Config
	// Placeholders, so that the templates parse. The interceptors replace
	// them on every response.
	funcs := template.FuncMap{}
	if !lc.DisableCSP {
		cfgs = append(cfgs, CSPNoncesDefault)
		funcs[CSPNonceFuncName] = func() string { return "" }
	}
	if !lc.DisableCSRF {
		cfgs = append(cfgs, CSRFTokensDefault)
		funcs[CSRFTokenFuncName] = func() string { return "" }
	}
	return cfgs, funcs
}

// LoadTrustedTemplate rewrites tt and parses it into tpl, or into a new
// template when tpl is nil.
func LoadTrustedTemplate(tpl *template.Template, lcfg LoadConfig, tt template.TrustedTemplate) (*template.Template, error) {
	cfgs, funcs := lcfg.configs()
	src, err := Transform(strings.NewReader(tt.String()), cfgs...)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		tpl = template.New("")
	}
	// The rewrite only adds constant markup to a trusted template.
	return tpl.Funcs(funcs).ParseFromTrustedTemplate(uncheckedconversions.TrustedTemplateFromStringKnownToSatisfyTypeContract(src))
}

// LoadGlobFS loads the files of fsys matching pattern as templates named
// after their base name.
func LoadGlobFS(tpl *template.Template, lcfg LoadConfig, pattern template.TrustedSource, fsys fs.FS) (*template.Template, error) {
	filenames, err := fs.Glob(fsys, pattern.String())
	if err != nil {
		return nil, err
	}
	if len(filenames) == 0 {
		return nil, fmt.Errorf("pattern matches no files: %#q", pattern.String())
	}
	for _, fn := range filenames {
		b, err := fs.ReadFile(fsys, fn)
		if err != nil {
			return nil, err
		}
		name := fn[strings.LastIndex(fn, "/")+1:]
		var t *template.Template
		switch {
		case tpl == nil:
			tpl = template.New(name)
			t = tpl
		case name == tpl.Name():
			t = tpl
		default:
			t = tpl.New(name)
		}
		// The file was selected by a trusted pattern.
		tts := uncheckedconversions.TrustedTemplateFromStringKnownToSatisfyTypeContract(string(b))
		if _, err := LoadTrustedTemplate(t, lcfg, tts); err != nil {
			return nil, fmt.Errorf("loading %s: %w", fn, err)
		}
	}
	return tpl, nil
}
