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

package v1alpha1

import "context"

// OrgSyncer syncs directory group members into service desk organizations.
type OrgSyncer interface {
	// Name provides a descriptive name or identifier of the OrgSyncer
	// implementation. It will be used for logging purpose.
	Name() string

	// Sync syncs the sync group with the given name to its target
	// organization.
	Sync(ctx context.Context, syncGroup string) error

	// SyncAll syncs all sync groups this OrgSyncer is aware of to their
	// target organizations.
	SyncAll(ctx context.Context) error
}
