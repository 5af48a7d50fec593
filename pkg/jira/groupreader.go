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
	"net/url"
	"strconv"

	"github.com/abcxyz/desk-link/pkg/orgsync"
	"github.com/abcxyz/pkg/logging"
	"github.com/abcxyz/pkg/sets"
)

// DefaultPageSize is the page size requested from the group member API.
const DefaultPageSize = 50

// GroupReader lists directory group members through the paged
// /rest/api/2/group/member API. It adheres to the orgsync.MemberLister
// interface.
type GroupReader struct {
	client   *Client
	pageSize int
}

var _ orgsync.MemberLister = (*GroupReader)(nil)

type GroupReaderOpt func(*GroupReader)

// WithPageSize overrides the page size requested per call.
func WithPageSize(pageSize int) GroupReaderOpt {
	return func(r *GroupReader) {
		r.pageSize = pageSize
	}
}

// NewGroupReader creates a new GroupReader.
func NewGroupReader(client *Client, opts ...GroupReaderOpt) *GroupReader {
	r := &GroupReader{
		client:   client,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type memberValue struct {
	Name string `json:"name"`
}

type membersPage struct {
	Values []memberValue `json:"values"`
	IsLast bool          `json:"isLast"`
}

// ListGroupMembers returns the usernames of all members of the named
// group.
//
// The paging API is not trusted to make progress: an error mid-listing
// yields whatever was accumulated so far with a nil error, an empty page
// ends the listing, and a page whose content repeats the previous page's
// tail is treated as end-of-data. Two genuinely distinct pages with equal
// content also end the listing early; that approximation is inherent to
// content-based repeat detection.
func (r *GroupReader) ListGroupMembers(ctx context.Context, groupName string) ([]string, error) {
	logger := logging.FromContext(ctx)

	var members []string
	var prev []string
	startAt := 0
	for {
		page, err := r.fetchPage(ctx, groupName, startAt)
		if err != nil {
			logger.WarnContext(ctx, "failed to fetch member page, returning partial results",
				"group_name", groupName,
				"start_at", startAt,
				"member_count", len(members),
				"error", err,
			)
			return members, nil
		}

		names := make([]string, 0, len(page.Values))
		for _, value := range page.Values {
			names = append(names, value.Name)
		}
		if len(names) == 0 {
			break
		}
		if startAt >= 1 && pageRepeats(prev, names) {
			logger.WarnContext(ctx, "member page repeats the previous page, stopping",
				"group_name", groupName,
				"start_at", startAt,
			)
			break
		}
		members = append(members, names...)
		prev = names

		if page.IsLast {
			break
		}
		startAt += r.pageSize + 1
	}
	return members, nil
}

func (r *GroupReader) fetchPage(ctx context.Context, groupName string, startAt int) (*membersPage, error) {
	query := url.Values{}
	query.Set("includeInactiveUsers", "false")
	query.Set("maxResults", strconv.Itoa(r.pageSize))
	query.Set("groupname", groupName)
	query.Set("startAt", strconv.Itoa(startAt))

	var page membersPage
	if err := r.client.get(ctx, "/rest/api/2/group/member", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// pageRepeats reports whether cur is a content repeat of the tail of prev,
// ignoring order.
func pageRepeats(prev, cur []string) bool {
	if len(prev) < len(cur) {
		return false
	}
	tail := prev[len(prev)-len(cur):]
	return len(sets.Subtract(tail, cur)) == 0 && len(sets.Subtract(cur, tail)) == 0
}
