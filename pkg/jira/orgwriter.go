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

package jira

import (
	"context"
	"fmt"

	"github.com/abcxyz/desk-link/pkg/orgsync"
	"github.com/abcxyz/pkg/logging"
)

// DefaultBatchSize is the number of usernames sent per organization write,
// matching the service desk API's per-call limit.
const DefaultBatchSize = 50

// OrgWriter adds users to service desk organizations in bounded batches.
// It adheres to the orgsync.OrgWriter interface.
type OrgWriter struct {
	client    *Client
	batchSize int
}

var _ orgsync.OrgWriter = (*OrgWriter)(nil)

type OrgWriterOpt func(*OrgWriter)

// WithBatchSize overrides the number of usernames sent per write call.
func WithBatchSize(batchSize int) OrgWriterOpt {
	return func(w *OrgWriter) {
		w.batchSize = batchSize
	}
}

// NewOrgWriter creates a new OrgWriter.
func NewOrgWriter(client *Client, opts ...OrgWriterOpt) *OrgWriter {
	w := &OrgWriter{
		client:    client,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type addUsersRequest struct {
	Usernames []string `json:"usernames"`
}

// AddUsers adds the given usernames to the organization with the given ID.
// The list is deduplicated, split into batches, and written one batch per
// call. A failed batch is recorded in the report and does not stop the
// remaining batches; no batch is retried.
func (w *OrgWriter) AddUsers(ctx context.Context, orgID int64, usernames []string) (*orgsync.PushReport, error) {
	logger := logging.FromContext(ctx)

	unique := dedupe(usernames)
	report := &orgsync.PushReport{Attempted: len(unique)}
	for start := 0; start < len(unique); start += w.batchSize {
		end := min(start+w.batchSize, len(unique))
		chunk := unique[start:end]
		path := fmt.Sprintf("/rest/servicedeskapi/organization/%d/user", orgID)
		if err := w.client.post(ctx, path, &addUsersRequest{Usernames: chunk}); err != nil {
			logger.ErrorContext(ctx, "failed to add users to organization, continuing with next chunk",
				"org_id", orgID,
				"chunk_start", start,
				"chunk_end", end,
				"error", err,
			)
			report.Failed = append(report.Failed, orgsync.ChunkRange{Start: start, End: end})
			continue
		}
		report.Pushed += len(chunk)
	}
	return report, nil
}

// dedupe removes duplicate usernames keeping first occurrence order, so
// the chunk ranges in the report stay meaningful.
func dedupe(usernames []string) []string {
	seen := make(map[string]struct{}, len(usernames))
	unique := make([]string, 0, len(usernames))
	for _, username := range usernames {
		if _, ok := seen[username]; ok {
			continue
		}
		seen[username] = struct{}{}
		unique = append(unique, username)
	}
	return unique
}
