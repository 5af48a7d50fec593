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

package orgsync

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/abcxyz/pkg/logging"
)

// ParseSyncGroups parses the compact sync group mapping string into a map
// keyed by sync group name. The format is a sequence of parenthesized
// records:
//
//	(name; stagingID,productionID; source1,source2,...)(name2; ...)
//
// Tokens are whitespace-trimmed and source group names are lowercased.
// Malformed records are skipped with a warning; the parse fails only when
// no valid record remains.
func ParseSyncGroups(ctx context.Context, raw string) (map[string]*SyncGroup, error) {
	logger := logging.FromContext(ctx)

	groups := make(map[string]*SyncGroup)
	var candidates int
	for _, segment := range strings.Split(raw, ")") {
		open := strings.Index(segment, "(")
		if open < 0 {
			if s := strings.TrimSpace(segment); s != "" {
				logger.WarnContext(ctx, "ignoring config text outside record parentheses", "text", s)
			}
			continue
		}
		if s := strings.TrimSpace(segment[:open]); s != "" {
			logger.WarnContext(ctx, "ignoring config text outside record parentheses", "text", s)
		}
		record := strings.TrimSpace(segment[open+1:])
		if record == "" {
			continue
		}
		candidates++
		group, err := parseRecord(record)
		if err != nil {
			logger.WarnContext(ctx, "skipping malformed sync group record",
				"record", record,
				"error", err,
			)
			continue
		}
		if _, exists := groups[group.Name]; exists {
			logger.WarnContext(ctx, "duplicate sync group name, later record wins", "name", group.Name)
		}
		groups[group.Name] = group
	}
	if candidates == 0 {
		return nil, fmt.Errorf("%w: no records found", ErrNoSyncGroups)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: all %d records were malformed", ErrNoSyncGroups, candidates)
	}
	return groups, nil
}

func parseRecord(record string) (*SyncGroup, error) {
	fields := strings.Split(record, ";")
	if len(fields) != 3 {
		return nil, fmt.Errorf("expected 3 fields separated by ';', got %d", len(fields))
	}

	name := strings.TrimSpace(fields[0])
	if name == "" {
		return nil, fmt.Errorf("empty sync group name")
	}

	idTokens := strings.Split(fields[1], ",")
	if len(idTokens) != 2 {
		return nil, fmt.Errorf("expected 2 target ids separated by ',', got %d", len(idTokens))
	}
	var targetIDs [2]int64
	for i, token := range idTokens {
		token = strings.TrimSpace(token)
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target id %q: %w", token, err)
		}
		targetIDs[i] = id
	}

	seen := make(map[string]struct{})
	var sourceGroups []string
	for _, token := range strings.Split(fields[2], ",") {
		source := strings.ToLower(strings.TrimSpace(token))
		if source == "" {
			continue
		}
		if _, ok := seen[source]; ok {
			continue
		}
		seen[source] = struct{}{}
		sourceGroups = append(sourceGroups, source)
	}
	if len(sourceGroups) == 0 {
		return nil, fmt.Errorf("no source groups")
	}

	return &SyncGroup{
		Name:         name,
		TargetIDs:    targetIDs,
		SourceGroups: sourceGroups,
	}, nil
}
