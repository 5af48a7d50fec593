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
	"errors"
	"fmt"
	"slices"

	"github.com/abcxyz/desk-link/apis/v1alpha1"
	"github.com/abcxyz/pkg/logging"
)

// Syncer adheres to the v1alpha1.OrgSyncer interface. It syncs many
// directory source groups into one service desk organization per sync
// group, following this policy per sync group:
//
//  1. Collect the members of every source group.
//  2. Flatten the results into one membership list.
//  3. Push the list to the environment's target organization in bounded
//     chunks.
//
// All source group fetches for a sync group complete before its first
// chunk write begins, and one sync group is processed fully before the
// next starts.
type Syncer struct {
	name   string
	env    Environment
	groups map[string]*SyncGroup
	lister MemberLister
	writer OrgWriter
}

var _ v1alpha1.OrgSyncer = (*Syncer)(nil)

// NewSyncer creates a new Syncer over the given sync group definitions.
func NewSyncer(name string, env Environment, groups map[string]*SyncGroup, lister MemberLister, writer OrgWriter) *Syncer {
	return &Syncer{
		name:   name,
		env:    env,
		groups: groups,
		lister: lister,
		writer: writer,
	}
}

// Name returns the syncer name.
func (s *Syncer) Name() string {
	return s.name
}

// Environment returns the environment this syncer operates on.
func (s *Syncer) Environment() Environment {
	return s.env
}

// Sync syncs the sync group with the given name to its target
// organization. An unknown name is an error; a definition with no source
// groups or no target ID for the environment is a logged no-op.
func (s *Syncer) Sync(ctx context.Context, name string) error {
	logger := logging.FromContext(ctx)

	group, ok := s.groups[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSyncGroup, name)
	}
	if !s.usable(group) {
		logger.WarnContext(ctx, "sync group has no source groups or no target id, nothing to do",
			"sync_group", name,
			"environment", s.env.String(),
		)
		return nil
	}
	if err := s.sync(ctx, group); err != nil {
		return fmt.Errorf("failed to sync %q: %w", name, err)
	}
	return nil
}

// SyncAll syncs every configured sync group, one sync group at a time.
// Unusable definitions and empty membership lists are logged and skipped;
// other failures are collected and do not stop the remaining sync groups.
func (s *Syncer) SyncAll(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	slices.Sort(names)

	var merr error
	for _, name := range names {
		group := s.groups[name]
		if !s.usable(group) {
			logger.WarnContext(ctx, "skipping sync group with no source groups or no target id",
				"sync_group", name,
				"environment", s.env.String(),
			)
			continue
		}
		if err := s.sync(ctx, group); err != nil {
			if errors.Is(err, ErrNoMembers) {
				logger.WarnContext(ctx, "skipping sync group with no members", "sync_group", name)
				continue
			}
			merr = errors.Join(merr, fmt.Errorf("failed to sync %q: %w", name, err))
		}
	}
	return merr
}

func (s *Syncer) sync(ctx context.Context, group *SyncGroup) error {
	logger := logging.FromContext(ctx)

	targetID := group.TargetID(s.env)
	logger.InfoContext(ctx, "starting sync",
		"sync_group", group.Name,
		"source_groups", group.SourceGroups,
		"target_id", targetID,
	)

	members := s.collectAll(ctx, group.SourceGroups)
	if len(members) == 0 {
		return fmt.Errorf("%w: sync group %q", ErrNoMembers, group.Name)
	}

	report, err := s.writer.AddUsers(ctx, targetID, members)
	if err != nil {
		logger.ErrorContext(ctx, "failed to push members",
			"sync_group", group.Name,
			"target_id", targetID,
			"error", err,
		)
		return fmt.Errorf("error pushing members to organization %d: %w", targetID, err)
	}

	logger.InfoContext(ctx, "finished sync",
		"sync_group", group.Name,
		"target_id", targetID,
		"attempted", report.Attempted,
		"pushed", report.Pushed,
		"failed_chunks", report.Failed,
	)
	return nil
}

// collectAll fetches the members of every source group and flattens the
// results in input order. Groups that error or come back empty are logged
// and skipped. The result may contain duplicates across groups;
// deduplication happens at the write boundary.
func (s *Syncer) collectAll(ctx context.Context, sourceGroups []string) []string {
	logger := logging.FromContext(ctx)

	results := collectConcurrent(ctx, sourceGroups, s.lister.ListGroupMembers)

	var members []string
	for i, groupMembers := range results {
		if len(groupMembers) == 0 {
			logger.WarnContext(ctx, "source group yielded no members, skipping",
				"source_group", sourceGroups[i],
			)
			continue
		}
		members = append(members, groupMembers...)
	}
	return members
}

func (s *Syncer) usable(group *SyncGroup) bool {
	return len(group.SourceGroups) > 0 && group.TargetID(s.env) != 0
}
