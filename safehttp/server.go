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
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"
)

// Server is a safe wrapper for a standard HTTP server.
//
// The zero value is a Server with safe timeouts that needs Addr and Mux to be
// set before being started.
type Server struct {
	// Addr optionally specifies the TCP address for the server to listen on,
	// in the form "host:port". If empty, ":http" (port 80) is used.
	Addr string
	// Mux is the ServeMux to use for the current server. A nil Mux is invalid.
	Mux *ServeMux

	// ReadTimeout, WriteTimeout and IdleTimeout default to 5s, 5s and 120s.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// MaxHeaderBytes defaults to 10KB.
	MaxHeaderBytes int
	// TLSConfig is cloned and hardened to require TLS 1.2 or above.
	TLSConfig *tls.Config

	// OnShutdown is a slice of functions to call on Shutdown.
	OnShutdown []func()

	srv *http.Server
}

func (s *Server) buildStd() error {
	if s.srv != nil {
		return errors.New("server already started")
	}
	if s.Mux == nil {
		return errors.New("building server without a mux")
	}
	srv := &http.Server{
		Addr:           s.Addr,
		Handler:        s.Mux,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 10 * 1024,
	}
	if s.ReadTimeout != 0 {
		srv.ReadTimeout = s.ReadTimeout
	}
	if s.WriteTimeout != 0 {
		srv.WriteTimeout = s.WriteTimeout
	}
	if s.IdleTimeout != 0 {
		srv.IdleTimeout = s.IdleTimeout
	}
	if s.MaxHeaderBytes != 0 {
		srv.MaxHeaderBytes = s.MaxHeaderBytes
	}
	if s.TLSConfig != nil {
		cfg := s.TLSConfig.Clone()
		cfg.MinVersion = tls.VersionTLS12
		srv.TLSConfig = cfg
	}
	for _, f := range s.OnShutdown {
		srv.RegisterOnShutdown(f)
	}
	s.srv = srv
	return nil
}

// ListenAndServe is a wrapper for https://golang.org/pkg/net/http/#Server.ListenAndServe
func (s *Server) ListenAndServe() error {
	if err := s.buildStd(); err != nil {
		return err
	}
	return s.srv.ListenAndServe()
}

// ListenAndServeTLS is a wrapper for https://golang.org/pkg/net/http/#Server.ListenAndServeTLS
func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	if err := s.buildStd(); err != nil {
		return err
	}
	return s.srv.ListenAndServeTLS(certFile, keyFile)
}

// Serve is a wrapper for https://golang.org/pkg/net/http/#Server.Serve
func (s *Server) Serve(l net.Listener) error {
	if err := s.buildStd(); err != nil {
		return err
	}
	return s.srv.Serve(l)
}

// Shutdown is a wrapper for https://golang.org/pkg/net/http/#Server.Shutdown
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return errors.New("shutting down unstarted server")
	}
	return s.srv.Shutdown(ctx)
}

// Close is a wrapper for https://golang.org/pkg/net/http/#Server.Close
func (s *Server) Close() error {
	if s.srv == nil {
		return errors.New("closing unstarted server")
	}
	return s.srv.Close()
}
