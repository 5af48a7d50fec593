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

// Package orgsync reconciles directory group memberships into service desk
// organizations.
package orgsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSyncGroups is returned when the sync group config yields no
	// usable sync group definition.
	ErrNoSyncGroups = errors.New("no valid sync groups in config")

	// ErrUnknownSyncGroup is returned when a requested sync group name is
	// not present in the config.
	ErrUnknownSyncGroup = errors.New("unknown sync group")

	// ErrNoMembers is returned when aggregating a sync group's source
	// groups yields no members at all.
	ErrNoMembers = errors.New("no members found")
)

// Environment selects which half of a sync group's target pair, and which
// externally supplied endpoint and principal, a run operates on.
type Environment int

const (
	Staging Environment = iota
	Production
)

func (e Environment) String() string {
	switch e {
	case Staging:
		return "staging"
	case Production:
		return "production"
	default:
		return fmt.Sprintf("environment(%d)", int(e))
	}
}

// ParseEnvironment parses an environment name.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "staging":
		return Staging, nil
	case "production":
		return Production, nil
	default:
		return 0, fmt.Errorf("unknown environment %q, must be one of [staging, production]", s)
	}
}

// SyncGroup maps a set of directory source groups to one service desk
// organization per environment. Definitions are built once by
// ParseSyncGroups and are not modified afterwards.
type SyncGroup struct {
	// Name is the sync group's unique name in the config.
	Name string

	// TargetIDs holds the target organization ID per environment, indexed
	// by Environment.
	TargetIDs [2]int64

	// SourceGroups are the lowercased names of the directory groups whose
	// members are mirrored into the target organization.
	SourceGroups []string
}

// TargetID returns the target organization ID for the given environment,
// or zero when the environment is out of range.
func (g *SyncGroup) TargetID(env Environment) int64 {
	if env < Staging || env > Production {
		return 0
	}
	return g.TargetIDs[env]
}

// MemberLister provides read access to a directory group's membership.
type MemberLister interface {
	// ListGroupMembers returns the usernames of all members of the named
	// group. Implementations backed by an unreliable paging API may return
	// a partial result with a nil error.
	ListGroupMembers(ctx context.Context, groupName string) ([]string, error)
}

// OrgWriter pushes usernames into a service desk organization.
type OrgWriter interface {
	// AddUsers adds the given usernames to the organization with the given
	// ID. Per-chunk outcomes are reported in the returned PushReport
	// rather than failing the whole call.
	AddUsers(ctx context.Context, orgID int64, usernames []string) (*PushReport, error)
}

// ChunkRange is a half-open index range [Start, End) into the deduplicated
// member list, identifying one write chunk.
type ChunkRange struct {
	Start int
	End   int
}

// PushReport summarizes one batched organization write.
type PushReport struct {
	// Attempted is the number of unique members after deduplication.
	Attempted int

	// Pushed counts the members in chunks that were written successfully.
	Pushed int

	// Failed holds the chunk ranges whose writes failed.
	Failed []ChunkRange
}
