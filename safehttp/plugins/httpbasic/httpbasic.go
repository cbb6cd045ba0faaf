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

// Package httpbasic authenticates requests carrying HTTP Basic credentials.
package httpbasic

import (
	"go.uber.org/zap"

	"github.com/google/go-safeweb-dsl/safehttp"
	"github.com/google/go-safeweb-dsl/safehttp/auth"
)

// Interceptor authenticates the credentials of the Authorization header.
// Requests without them continue unauthenticated; requests with bad
// credentials are sent to the EntryPoint.
type Interceptor struct {
	Manager auth.Manager
	// Repository, if set, saves successful authentications.
	Repository auth.ContextRepository
	// EntryPoint defaults to auth.BasicEntryPoint{}.
	EntryPoint auth.EntryPoint
	Logger     *zap.Logger
	Recorder   auth.Recorder
}

var _ safehttp.Interceptor = Interceptor{}

func (it Interceptor) entryPoint() auth.EntryPoint {
	if it.EntryPoint == nil {
		return auth.BasicEntryPoint{}
	}
	return it.EntryPoint
}

// Before checks the credentials.
func (it Interceptor) Before(w safehttp.ResponseWriter, r *safehttp.IncomingRequest, _ safehttp.InterceptorConfig) safehttp.Result {
	username, password, ok := r.BasicAuth()
	if !ok {
		return safehttp.NotWritten()
	}
	if cur := auth.FromRequest(r); cur.IsAuthenticated() && cur.Principal == username && cur.Mechanism == auth.MechanismBasic {
		return safehttp.NotWritten()
	}
	rec := auth.OrNop(it.Recorder)
	log := auth.Logger(it.Logger).With(zap.String("username", username))
	a, err := it.Manager.Authenticate(r.Context(), username, password)
	if err != nil {
		log.Info("basic authentication failed", zap.Error(err))
		rec.AuthenticationAttempt(auth.MechanismBasic, false)
		auth.ClearAuthentication(r)
		return it.entryPoint().Commence(w, r)
	}
	rec.AuthenticationAttempt(auth.MechanismBasic, true)
	cp := *a
	cp.Mechanism = auth.MechanismBasic
	auth.SetAuthentication(r, &cp)
	if it.Repository != nil {
		if err := it.Repository.Save(w, r, &cp); err != nil {
			log.Warn("saving authentication", zap.Error(err))
		}
	}
	log.Debug("basic authentication succeeded")
	return safehttp.NotWritten()
}

// Commit is a no-op, required to satisfy the safehttp.Interceptor interface.
func (Interceptor) Commit(safehttp.ResponseHeadersWriter, *safehttp.IncomingRequest, safehttp.Response, safehttp.InterceptorConfig) {
}

// Match returns false since there are no supported configurations.
func (Interceptor) Match(safehttp.InterceptorConfig) bool {
	return false
}
