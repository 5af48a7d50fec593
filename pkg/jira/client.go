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

// Package jira talks to the jira group and service desk organization REST
// APIs.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/abcxyz/desk-link/pkg/credentials"
	"github.com/abcxyz/desk-link/pkg/orgsync"
	"github.com/abcxyz/pkg/cli"
)

const (
	contentTypeJSON = "application/json"

	// The service desk organization API is gated behind an experimental
	// opt-in header.
	experimentalHeader = "X-ExperimentalApi"
	experimentalOptIn  = "opt-in"
)

// ClientConfig is the config for the jira client, carrying one endpoint
// and one secret store principal per environment.
type ClientConfig struct {
	StagingEndpoint     string
	ProductionEndpoint  string
	StagingPrincipal    string
	ProductionPrincipal string
}

func (c *ClientConfig) RegisterFlags(set *cli.FlagSet) {
	f := set.NewSection("JIRA OPTIONS")

	f.StringVar(&cli.StringVar{
		Name:    "jira-staging-endpoint",
		EnvVar:  "JIRA_STAGING_ENDPOINT",
		Target:  &c.StagingEndpoint,
		Example: "https://jira-staging.example.com",
		Usage:   `URL for the staging jira endpoint.`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "jira-production-endpoint",
		EnvVar:  "JIRA_PRODUCTION_ENDPOINT",
		Target:  &c.ProductionEndpoint,
		Example: "https://jira.example.com",
		Usage:   `URL for the production jira endpoint.`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "jira-staging-principal",
		EnvVar:  "JIRA_STAGING_PRINCIPAL",
		Target:  &c.StagingPrincipal,
		Example: "svc-jira-staging",
		Usage:   `Secret store principal holding the staging jira credential.`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "jira-production-principal",
		EnvVar:  "JIRA_PRODUCTION_PRINCIPAL",
		Target:  &c.ProductionPrincipal,
		Example: "svc-jira-production",
		Usage:   `Secret store principal holding the production jira credential.`,
	})
}

// Endpoint returns the base URL for the given environment.
func (c *ClientConfig) Endpoint(env orgsync.Environment) string {
	if env == orgsync.Production {
		return c.ProductionEndpoint
	}
	return c.StagingEndpoint
}

// Principal returns the secret store principal for the given environment.
func (c *ClientConfig) Principal(env orgsync.Environment) string {
	if env == orgsync.Production {
		return c.ProductionPrincipal
	}
	return c.StagingPrincipal
}

// Client is a minimal REST client for the jira group and service desk
// organization APIs. Every request carries basic auth from the credential
// plus the experimental API opt-in header.
type Client struct {
	endpoint   string
	cred       credentials.Credential
	httpClient *http.Client
}

type ClientOpt func(*Client)

// WithHTTPClient overrides the default pooled HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOpt {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the given endpoint, authenticating every
// request with the given credential.
func NewClient(endpoint string, cred credentials.Credential, opts ...ClientOpt) *Client {
	c := &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		cred:       cred,
		httpClient: cleanhttp.DefaultPooledClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	jsn, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(jsn))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp, path)
}

func (c *Client) setHeaders(req *http.Request) {
	req.SetBasicAuth(c.cred.Username, c.cred.Secret)
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set(experimentalHeader, experimentalOptIn)
}

func checkStatus(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
}
