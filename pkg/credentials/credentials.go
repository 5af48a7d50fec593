// Copyright 2025 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package credentials resolves service principal credentials from a
// secret store.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	secrets "github.com/input-output-hk/catalyst-forge-libs/secrets/core"
	"github.com/joho/godotenv"

	"github.com/abcxyz/pkg/cache"
)

// ErrNotFound is returned when no usable credential exists for a
// principal.
var ErrNotFound = errors.New("credential not found")

const defaultCacheDuration = time.Hour

// Credential is a username/secret pair used for basic auth. Secrets are
// stored as the JSON form of this struct, keyed by principal.
type Credential struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// Source provides credentials for principals.
type Source interface {
	// Credential returns the credential for the given principal. It
	// returns an error wrapping ErrNotFound if the principal has no
	// usable credential.
	Credential(ctx context.Context, principal string) (Credential, error)
}

// StoreSource resolves credentials from a secret store and caches them
// so repeated lookups for the same principal hit the store once.
type StoreSource struct {
	resolver secrets.Resolver
	cache    *cache.Cache[Credential]
}

var _ Source = (*StoreSource)(nil)

// NewStoreSource creates a StoreSource backed by the given resolver.
func NewStoreSource(resolver secrets.Resolver) *StoreSource {
	return &StoreSource{
		resolver: resolver,
		cache:    cache.New[Credential](defaultCacheDuration),
	}
}

// Credential resolves the secret stored under the principal's path and
// decodes it as a JSON credential.
func (s *StoreSource) Credential(ctx context.Context, principal string) (Credential, error) {
	cred, err := s.cache.WriteThruLookup(principal, func() (Credential, error) {
		secret, err := s.resolver.Resolve(ctx, secrets.SecretRef{Path: principal})
		if err != nil {
			return Credential{}, fmt.Errorf("%w for principal %q: %w", ErrNotFound, principal, err)
		}
		var cred Credential
		if err := json.Unmarshal(secret.Bytes(), &cred); err != nil {
			return Credential{}, fmt.Errorf("%w for principal %q: malformed credential: %w", ErrNotFound, principal, err)
		}
		if cred.Username == "" || cred.Secret == "" {
			return Credential{}, fmt.Errorf("%w for principal %q: credential is missing username or secret", ErrNotFound, principal)
		}
		return cred, nil
	})
	if err != nil {
		return Credential{}, err
	}
	return cred, nil
}

// DotenvProvider is a read-only secrets provider backed by a dotenv
// file, for local runs and tests.
type DotenvProvider struct {
	values map[string]string
}

var _ secrets.Provider = (*DotenvProvider)(nil)

// NewDotenvProvider loads the dotenv file at the given path.
func NewDotenvProvider(path string) (*DotenvProvider, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dotenv file %q: %w", path, err)
	}
	return &DotenvProvider{values: values}, nil
}

// Name returns the provider identifier.
func (p *DotenvProvider) Name() string {
	return "dotenv"
}

// Resolve returns the secret stored under the ref's path.
func (p *DotenvProvider) Resolve(_ context.Context, ref secrets.SecretRef) (*secrets.Secret, error) {
	value, ok := p.values[ref.Path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", secrets.ErrSecretNotFound, ref.Path)
	}
	return &secrets.Secret{Value: []byte(value)}, nil
}

// ResolveBatch resolves the given refs, skipping missing ones.
func (p *DotenvProvider) ResolveBatch(ctx context.Context, refs []secrets.SecretRef) (map[string]*secrets.Secret, error) {
	resolved := make(map[string]*secrets.Secret, len(refs))
	for _, ref := range refs {
		secret, err := p.Resolve(ctx, ref)
		if err != nil {
			continue
		}
		resolved[ref.Path] = secret
	}
	return resolved, nil
}

// Exists reports whether a secret exists under the ref's path.
func (p *DotenvProvider) Exists(_ context.Context, ref secrets.SecretRef) (bool, error) {
	_, ok := p.values[ref.Path]
	return ok, nil
}

// HealthCheck always succeeds, the file was already read.
func (p *DotenvProvider) HealthCheck(_ context.Context) error {
	return nil
}

// Close drops the loaded values.
func (p *DotenvProvider) Close() error {
	p.values = nil
	return nil
}
