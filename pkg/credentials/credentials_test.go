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

package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	secrets "github.com/input-output-hk/catalyst-forge-libs/secrets/core"

	"github.com/abcxyz/pkg/testutil"
)

const testDotenv = `
SVC_JIRA='{"username":"sync-bot","secret":"hunter2"}'
SVC_MALFORMED='not json'
SVC_PARTIAL='{"username":"sync-bot"}'
`

func writeDotenv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.env")
	if err := os.WriteFile(path, []byte(testDotenv), 0o600); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}
	return path
}

func TestStoreSource_Credential(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		principal string
		want      Credential
		wantErr   string
	}{
		{
			name:      "resolves_credential",
			principal: "SVC_JIRA",
			want:      Credential{Username: "sync-bot", Secret: "hunter2"},
		},
		{
			name:      "missing_principal",
			principal: "SVC_MISSING",
			wantErr:   "credential not found",
		},
		{
			name:      "malformed_credential",
			principal: "SVC_MALFORMED",
			wantErr:   "credential not found",
		},
		{
			name:      "missing_secret_field",
			principal: "SVC_PARTIAL",
			wantErr:   "credential not found",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			provider, err := NewDotenvProvider(writeDotenv(t))
			if err != nil {
				t.Fatalf("failed to create provider: %v", err)
			}
			manager := secrets.NewManager(&secrets.Config{DefaultProvider: provider.Name()})
			if err := manager.RegisterProvider(provider.Name(), provider); err != nil {
				t.Fatalf("failed to register provider: %v", err)
			}
			defer manager.Close()

			source := NewStoreSource(manager)
			got, err := source.Credential(context.Background(), tc.principal)
			if diff := testutil.DiffErrString(err, tc.wantErr); diff != "" {
				t.Error(diff)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected credential (-want, +got):\n%s", diff)
			}
		})
	}
}

// countingResolver counts Resolve calls so tests can observe caching.
type countingResolver struct {
	resolves int
	value    string
}

func (r *countingResolver) Resolve(_ context.Context, _ secrets.SecretRef) (*secrets.Secret, error) {
	r.resolves++
	return &secrets.Secret{Value: []byte(r.value)}, nil
}

func (r *countingResolver) ResolveBatch(_ context.Context, _ []secrets.SecretRef) (map[string]*secrets.Secret, error) {
	return nil, nil
}

func (r *countingResolver) Exists(_ context.Context, _ secrets.SecretRef) (bool, error) {
	return true, nil
}

func TestStoreSource_CachesLookups(t *testing.T) {
	t.Parallel()

	resolver := &countingResolver{value: `{"username":"sync-bot","secret":"hunter2"}`}
	source := NewStoreSource(resolver)

	ctx := context.Background()
	for range 3 {
		got, err := source.Credential(ctx, "SVC_JIRA")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(Credential{Username: "sync-bot", Secret: "hunter2"}, got); diff != "" {
			t.Errorf("unexpected credential (-want, +got):\n%s", diff)
		}
	}
	if got, want := resolver.resolves, 1; got != want {
		t.Errorf("unexpected resolve count: got %d, want %d", got, want)
	}
}

func TestDotenvProvider(t *testing.T) {
	t.Parallel()

	provider, err := NewDotenvProvider(writeDotenv(t))
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	ctx := context.Background()

	secret, err := provider.Resolve(ctx, secrets.SecretRef{Path: "SVC_JIRA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := string(secret.Bytes()), `{"username":"sync-bot","secret":"hunter2"}`; got != want {
		t.Errorf("unexpected secret: got %q, want %q", got, want)
	}

	if _, err := provider.Resolve(ctx, secrets.SecretRef{Path: "SVC_MISSING"}); !errors.Is(err, secrets.ErrSecretNotFound) {
		t.Errorf("expected ErrSecretNotFound, got %v", err)
	}

	exists, err := provider.Exists(ctx, secrets.SecretRef{Path: "SVC_JIRA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected SVC_JIRA to exist")
	}

	exists, err = provider.Exists(ctx, secrets.SecretRef{Path: "SVC_MISSING"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected SVC_MISSING to not exist")
	}
}

func TestNewDotenvProvider_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := NewDotenvProvider(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
