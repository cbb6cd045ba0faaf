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

// Package yamlconfig reads a websecurity configuration from a YAML document:
//
//	users:
//	  - username: alice
//	    password: "{bcrypt}$2a$10$..."
//	    roles: [USER]
//	authorize:
//	  - pattern: /public/**
//	    access: permitAll
//	  - pattern: /admin/**
//	    access: hasRole('ADMIN')
//	  - access: authenticated
//	formLogin:
//	  permitAll: true
//	headers:
//	  frameOptions: sameorigin
//
// A block that is absent keeps the websecurity default. A block that is
// present turns the feature on, unless it says "disabled: true".
package yamlconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/google/go-safeweb-dsl/safehttp/auth"
	"github.com/google/go-safeweb-dsl/safehttp/matcher"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/authz"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/cors"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/httpsredirect"
	"github.com/google/go-safeweb-dsl/safehttp/plugins/staticheaders"
	"github.com/google/go-safeweb-dsl/websecurity"
)

// Config is the root of the document.
type Config struct {
	Users         []User         `yaml:"users"`
	Authorize     []Rule         `yaml:"authorize"`
	FormLogin     *FormLogin     `yaml:"formLogin"`
	HTTPBasic     *HTTPBasic     `yaml:"httpBasic"`
	Headers       *Headers       `yaml:"headers"`
	CSRF          *CSRF          `yaml:"csrf"`
	CORS          []CORSMapping  `yaml:"cors"`
	Logout        *Logout        `yaml:"logout"`
	Anonymous     *Anonymous     `yaml:"anonymous"`
	HTTPSRedirect *HTTPSRedirect `yaml:"httpsRedirect"`
	AllowedHosts  []string       `yaml:"allowedHosts"`
}

// User is an in-memory user. Password must be encoded and start with
// "{bcrypt}" or "{noop}".
type User struct {
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	Roles       []string `yaml:"roles"`
	Authorities []string `yaml:"authorities"`
	Disabled    bool     `yaml:"disabled"`
}

// Rule is an access rule. Either Pattern or Regex selects the path; a rule
// with neither matches every request. Access is an expression such as
// "permitAll" or "hasAnyRole('ADMIN','OPS')".
type Rule struct {
	Pattern string `yaml:"pattern"`
	Regex   string `yaml:"regex"`
	Method  string `yaml:"method"`
	Access  string `yaml:"access"`
}

// FormLogin configures form login.
type FormLogin struct {
	Disabled                   bool   `yaml:"disabled"`
	LoginPage                  string `yaml:"loginPage"`
	LoginProcessingURL         string `yaml:"loginProcessingUrl"`
	UsernameParameter          string `yaml:"usernameParameter"`
	PasswordParameter          string `yaml:"passwordParameter"`
	DefaultSuccessURL          string `yaml:"defaultSuccessUrl"`
	AlwaysUseDefaultSuccessURL bool   `yaml:"alwaysUseDefaultSuccessUrl"`
	FailureURL                 string `yaml:"failureUrl"`
	PermitAll                  bool   `yaml:"permitAll"`
}

// HTTPBasic configures HTTP Basic authentication.
type HTTPBasic struct {
	Disabled bool   `yaml:"disabled"`
	Realm    string `yaml:"realm"`
}

// Headers configures the security headers.
type Headers struct {
	Disabled           bool           `yaml:"disabled"`
	DefaultsDisabled   bool           `yaml:"defaultsDisabled"`
	ContentTypeOptions *bool          `yaml:"contentTypeOptions"`
	CacheControl       *bool          `yaml:"cacheControl"`
	XSSProtection      *XSSProtection `yaml:"xssProtection"`
	HSTS               *HSTS          `yaml:"hsts"`
	// FrameOptions is "deny", "sameorigin" or "disabled".
	FrameOptions          string `yaml:"frameOptions"`
	ContentSecurityPolicy *CSP   `yaml:"contentSecurityPolicy"`
	ReferrerPolicy        string `yaml:"referrerPolicy"`
	FeaturePolicy         string `yaml:"featurePolicy"`
}

// XSSProtection configures X-XSS-Protection.
type XSSProtection struct {
	Disabled bool  `yaml:"disabled"`
	Enabled  *bool `yaml:"enabled"`
	Block    *bool `yaml:"block"`
}

// HSTS configures Strict-Transport-Security.
type HSTS struct {
	Disabled          bool           `yaml:"disabled"`
	MaxAge            *time.Duration `yaml:"maxAge"`
	IncludeSubDomains *bool          `yaml:"includeSubDomains"`
	Preload           bool           `yaml:"preload"`
}

// CSP configures Content-Security-Policy.
type CSP struct {
	PolicyDirectives string `yaml:"policyDirectives"`
	ReportOnly       bool   `yaml:"reportOnly"`
}

// CSRF configures CSRF protection.
type CSRF struct {
	Disabled bool `yaml:"disabled"`
	// Ignoring lists path patterns that are not checked.
	Ignoring []string `yaml:"ignoring"`
}

// CORSMapping is the CORS configuration of the paths matching Pattern.
type CORSMapping struct {
	Pattern          string        `yaml:"pattern"`
	AllowedOrigins   []string      `yaml:"allowedOrigins"`
	AllowedMethods   []string      `yaml:"allowedMethods"`
	AllowedHeaders   []string      `yaml:"allowedHeaders"`
	ExposedHeaders   []string      `yaml:"exposedHeaders"`
	AllowCredentials bool          `yaml:"allowCredentials"`
	MaxAge           time.Duration `yaml:"maxAge"`
}

// Logout configures logout.
type Logout struct {
	Disabled         bool     `yaml:"disabled"`
	LogoutURL        string   `yaml:"logoutUrl"`
	LogoutSuccessURL string   `yaml:"logoutSuccessUrl"`
	DeleteCookies    []string `yaml:"deleteCookies"`
}

// Anonymous configures anonymous authentication.
type Anonymous struct {
	Disabled    bool     `yaml:"disabled"`
	Principal   string   `yaml:"principal"`
	Authorities []string `yaml:"authorities"`
}

// HTTPSRedirect turns redirection to HTTPS on.
type HTTPSRedirect struct {
	// Paths restricts redirection to the path patterns.
	Paths []string `yaml:"paths"`
	// Ports maps HTTP ports to HTTPS ports.
	Ports map[int]int `yaml:"ports"`
}

// Parse decodes a document. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	c := &Config{}
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse security configuration: %w", err)
	}
	return c, nil
}

// Load reads and decodes the document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read security configuration: %w", err)
	}
	return Parse(data)
}

// Configurer validates c and returns the function that applies it to a
// websecurity.HTTP block.
func (c *Config) Configurer() (func(*websecurity.HTTP), error) {
	var steps []func(*websecurity.HTTP)
	add := func(f func(*websecurity.HTTP)) { steps = append(steps, f) }

	if len(c.Users) > 0 {
		users, err := c.userDetails()
		if err != nil {
			return nil, err
		}
		add(func(h *websecurity.HTTP) { h.UserDetailsService = users })
	}
	if len(c.Authorize) > 0 {
		rules, err := c.rules()
		if err != nil {
			return nil, err
		}
		add(func(h *websecurity.HTTP) {
			h.AuthorizeRequests(func(a *websecurity.AuthorizeRequests) {
				for _, r := range rules {
					a.Authorize(r.Matcher, r.Condition)
				}
			})
		})
	}
	if f := c.FormLogin; f != nil {
		add(func(h *websecurity.HTTP) {
			h.FormLogin(func(fl *websecurity.FormLogin) {
				if f.Disabled {
					fl.Disable()
					return
				}
				fl.LoginPage = f.LoginPage
				fl.LoginProcessingURL = f.LoginProcessingURL
				fl.UsernameParameter = f.UsernameParameter
				fl.PasswordParameter = f.PasswordParameter
				fl.DefaultSuccessURL = f.DefaultSuccessURL
				fl.AlwaysUseDefaultSuccessURL = f.AlwaysUseDefaultSuccessURL
				fl.FailureURL = f.FailureURL
				fl.PermitAll = f.PermitAll
			})
		})
	}
	if b := c.HTTPBasic; b != nil {
		add(func(h *websecurity.HTTP) {
			h.HTTPBasic(func(hb *websecurity.HTTPBasic) {
				if b.Disabled {
					hb.Disable()
					return
				}
				hb.Realm = b.Realm
			})
		})
	}
	if c.Headers != nil {
		f, err := c.Headers.configurer()
		if err != nil {
			return nil, err
		}
		add(func(h *websecurity.HTTP) { h.Headers(f) })
	}
	if cs := c.CSRF; cs != nil {
		ignoring, err := pathMatchers(cs.Ignoring)
		if err != nil {
			return nil, fmt.Errorf("csrf: %w", err)
		}
		add(func(h *websecurity.HTTP) {
			h.CSRF(func(cf *websecurity.CSRF) {
				if cs.Disabled {
					cf.Disable()
					return
				}
				cf.IgnoringRequestMatchers = ignoring
			})
		})
	}
	if len(c.CORS) > 0 {
		src, err := c.corsSource()
		if err != nil {
			return nil, err
		}
		add(func(h *websecurity.HTTP) {
			h.CORS(func(cf *websecurity.CORS) { cf.ConfigurationSource = src })
		})
	}
	if l := c.Logout; l != nil {
		add(func(h *websecurity.HTTP) {
			h.Logout(func(lo *websecurity.Logout) {
				if l.Disabled {
					lo.Disable()
					return
				}
				lo.LogoutURL = l.LogoutURL
				lo.LogoutSuccessURL = l.LogoutSuccessURL
				lo.DeleteCookies = l.DeleteCookies
			})
		})
	}
	if an := c.Anonymous; an != nil {
		add(func(h *websecurity.HTTP) {
			h.Anonymous(func(a *websecurity.AnonymousAuthentication) {
				if an.Disabled {
					a.Disable()
					return
				}
				a.Principal = an.Principal
				a.Authorities = an.Authorities
			})
		})
	}
	if r := c.HTTPSRedirect; r != nil {
		when, err := pathMatchers(r.Paths)
		if err != nil {
			return nil, fmt.Errorf("https redirect: %w", err)
		}
		add(func(h *websecurity.HTTP) {
			h.HTTPSRedirect(func(hr *websecurity.HTTPSRedirect) {
				if len(r.Ports) > 0 {
					hr.PortMapper = httpsredirect.PortMapper(r.Ports)
				}
				if len(when) > 0 {
					hr.HTTPSRedirectWhen(when...)
				}
			})
		})
	}
	if len(c.AllowedHosts) > 0 {
		hosts := c.AllowedHosts
		add(func(h *websecurity.HTTP) {
			h.HostCheck(func(hc *websecurity.HostCheck) { hc.Hosts = hosts })
		})
	}

	return func(h *websecurity.HTTP) {
		for _, s := range steps {
			s(h)
		}
	}, nil
}

func (c *Config) userDetails() (auth.UserDetailsService, error) {
	users := make([]auth.UserDetails, 0, len(c.Users))
	for i, u := range c.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("user %d: no username", i)
		}
		if err := auth.ValidateEncodedPassword(u.Password); err != nil {
			return nil, fmt.Errorf("user %q: %w", u.Username, err)
		}
		for _, r := range u.Roles {
			if strings.HasPrefix(r, auth.RolePrefix) {
				return nil, fmt.Errorf("user %q: role %q must not start with %q", u.Username, r, auth.RolePrefix)
			}
		}
		ud := auth.NewUser(u.Username, u.Password, u.Roles...)
		ud.Authorities = append(ud.Authorities, u.Authorities...)
		ud.Disabled = u.Disabled
		users = append(users, ud)
	}
	return auth.NewInMemoryUserDetailsService(users...), nil
}

func (c *Config) rules() (authz.Rules, error) {
	var rules authz.Rules
	for i, r := range c.Authorize {
		cond, err := ParseAccess(r.Access)
		if err != nil {
			return nil, fmt.Errorf("authorize rule %d: %w", i, err)
		}
		var m matcher.Matcher
		switch {
		case r.Pattern != "" && r.Regex != "":
			return nil, fmt.Errorf("authorize rule %d: pattern and regex are exclusive", i)
		case r.Regex != "":
			m, err = matcher.Regex(r.Method, r.Regex)
			if err != nil {
				return nil, fmt.Errorf("authorize rule %d: %w", i, err)
			}
		case r.Pattern != "":
			m, err = pathMatcher(r.Method, r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("authorize rule %d: %w", i, err)
			}
		case r.Method != "":
			m = matcher.Method(r.Method)
		default:
			m = websecurity.AnyRequest
		}
		rules = append(rules, authz.Rule{Matcher: m, Condition: cond})
	}
	return rules, nil
}

func (c *Config) corsSource() (cors.Source, error) {
	src := &cors.URLBasedSource{}
	for i, m := range c.CORS {
		if len(m.AllowedOrigins) == 0 {
			return nil, fmt.Errorf("cors mapping %d: no allowed origins", i)
		}
		pattern := m.Pattern
		if pattern == "" {
			pattern = "/**"
		}
		if _, err := pathMatcher("", pattern); err != nil {
			return nil, fmt.Errorf("cors mapping %d: %w", i, err)
		}
		src.Register(pattern, cors.Configuration{
			AllowedOrigins:   m.AllowedOrigins,
			AllowedMethods:   m.AllowedMethods,
			AllowedHeaders:   m.AllowedHeaders,
			ExposedHeaders:   m.ExposedHeaders,
			AllowCredentials: m.AllowCredentials,
			MaxAge:           m.MaxAge,
		})
	}
	return src, nil
}

func (hd *Headers) configurer() (func(*websecurity.Headers), error) {
	var frame func(*websecurity.FrameOptions)
	switch hd.FrameOptions {
	case "":
	case "deny":
		frame = func(f *websecurity.FrameOptions) { f.Deny = true }
	case "sameorigin":
		frame = func(f *websecurity.FrameOptions) { f.SameOrigin = true }
	case "disabled":
		frame = func(f *websecurity.FrameOptions) { f.Disable() }
	default:
		return nil, fmt.Errorf("headers: unknown frame options %q", hd.FrameOptions)
	}
	var referrer staticheaders.ReferrerPolicy
	if hd.ReferrerPolicy != "" {
		p, ok := staticheaders.ParseReferrerPolicy(hd.ReferrerPolicy)
		if !ok {
			return nil, fmt.Errorf("headers: unknown referrer policy %q", hd.ReferrerPolicy)
		}
		referrer = p
	}

	return func(h *websecurity.Headers) {
		if hd.Disabled {
			h.Disable()
			return
		}
		h.DefaultsDisabled = hd.DefaultsDisabled
		if v := hd.ContentTypeOptions; v != nil {
			h.ContentTypeOptions(func(c *websecurity.ContentTypeOptions) {
				if !*v {
					c.Disable()
				}
			})
		}
		if v := hd.CacheControl; v != nil {
			h.CacheControl(func(c *websecurity.CacheControl) {
				if !*v {
					c.Disable()
				}
			})
		}
		if x := hd.XSSProtection; x != nil {
			h.XSSProtection(func(xp *websecurity.XSSProtection) {
				if x.Disabled {
					xp.Disable()
					return
				}
				xp.XSSProtectionEnabled = x.Enabled
				xp.Block = x.Block
			})
		}
		if s := hd.HSTS; s != nil {
			h.HTTPStrictTransportSecurity(func(st *websecurity.HTTPStrictTransportSecurity) {
				if s.Disabled {
					st.Disable()
					return
				}
				st.MaxAge = s.MaxAge
				st.IncludeSubDomains = s.IncludeSubDomains
				st.Preload = s.Preload
			})
		}
		if frame != nil {
			h.FrameOptions(frame)
		}
		if p := hd.ContentSecurityPolicy; p != nil {
			h.ContentSecurityPolicy(func(c *websecurity.ContentSecurityPolicy) {
				c.PolicyDirectives = p.PolicyDirectives
				c.ReportOnly = p.ReportOnly
			})
		}
		if referrer != "" {
			h.ReferrerPolicy(func(r *websecurity.ReferrerPolicy) { r.Policy = referrer })
		}
		if hd.FeaturePolicy != "" {
			h.FeaturePolicy(hd.FeaturePolicy)
		}
	}, nil
}

func pathMatcher(method, pattern string) (matcher.Matcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid path pattern %q", pattern)
	}
	return matcher.PathMethod(method, pattern), nil
}

func pathMatchers(patterns []string) ([]matcher.Matcher, error) {
	var ms []matcher.Matcher
	for _, p := range patterns {
		m, err := pathMatcher("", p)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}
