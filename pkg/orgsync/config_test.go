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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abcxyz/pkg/testutil"
)

func TestParseSyncGroups(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		want    map[string]*SyncGroup
		wantErr string
	}{
		{
			name: "two_records",
			raw:  "(A; 1,2; x,y)(B; 3,4; z)",
			want: map[string]*SyncGroup{
				"A": {Name: "A", TargetIDs: [2]int64{1, 2}, SourceGroups: []string{"x", "y"}},
				"B": {Name: "B", TargetIDs: [2]int64{3, 4}, SourceGroups: []string{"z"}},
			},
		},
		{
			name:    "empty_string",
			raw:     "",
			wantErr: "no valid sync groups",
		},
		{
			name:    "whitespace_only",
			raw:     "  \t\n  ",
			wantErr: "no valid sync groups",
		},
		{
			name:    "all_records_malformed",
			raw:     "(A; 1,2)(B; one,two,three; x)",
			wantErr: "no valid sync groups",
		},
		{
			name: "malformed_record_skipped",
			raw:  "(A; 1,2; x)(broken)(B; 3,4; y)",
			want: map[string]*SyncGroup{
				"A": {Name: "A", TargetIDs: [2]int64{1, 2}, SourceGroups: []string{"x"}},
				"B": {Name: "B", TargetIDs: [2]int64{3, 4}, SourceGroups: []string{"y"}},
			},
		},
		{
			name: "tokens_trimmed_and_sources_lowercased",
			raw:  "( Helpdesk ; 10 , 20 ; Jira-Users , JIRA-ADMINS )",
			want: map[string]*SyncGroup{
				"Helpdesk": {Name: "Helpdesk", TargetIDs: [2]int64{10, 20}, SourceGroups: []string{"jira-users", "jira-admins"}},
			},
		},
		{
			name: "duplicate_sources_collapsed",
			raw:  "(A; 1,2; x,X, x )",
			want: map[string]*SyncGroup{
				"A": {Name: "A", TargetIDs: [2]int64{1, 2}, SourceGroups: []string{"x"}},
			},
		},
		{
			name: "non_numeric_target_id_skips_record",
			raw:  "(A; one,2; x)(B; 3,4; y)",
			want: map[string]*SyncGroup{
				"B": {Name: "B", TargetIDs: [2]int64{3, 4}, SourceGroups: []string{"y"}},
			},
		},
		{
			name: "missing_target_id_skips_record",
			raw:  "(A; 1; x)(B; 3,4; y)",
			want: map[string]*SyncGroup{
				"B": {Name: "B", TargetIDs: [2]int64{3, 4}, SourceGroups: []string{"y"}},
			},
		},
		{
			name: "empty_source_list_skips_record",
			raw:  "(A; 1,2; , ,)(B; 3,4; y)",
			want: map[string]*SyncGroup{
				"B": {Name: "B", TargetIDs: [2]int64{3, 4}, SourceGroups: []string{"y"}},
			},
		},
		{
			name: "empty_name_skips_record",
			raw:  "( ; 1,2; x)(B; 3,4; y)",
			want: map[string]*SyncGroup{
				"B": {Name: "B", TargetIDs: [2]int64{3, 4}, SourceGroups: []string{"y"}},
			},
		},
		{
			name: "duplicate_name_later_record_wins",
			raw:  "(A; 1,2; x)(A; 5,6; y)",
			want: map[string]*SyncGroup{
				"A": {Name: "A", TargetIDs: [2]int64{5, 6}, SourceGroups: []string{"y"}},
			},
		},
		{
			name: "text_between_records_ignored",
			raw:  "junk(A; 1,2; x)garbage(B; 3,4; y)trailing",
			want: map[string]*SyncGroup{
				"A": {Name: "A", TargetIDs: [2]int64{1, 2}, SourceGroups: []string{"x"}},
				"B": {Name: "B", TargetIDs: [2]int64{3, 4}, SourceGroups: []string{"y"}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSyncGroups(context.Background(), tc.raw)
			if diff := testutil.DiffErrString(err, tc.wantErr); diff != "" {
				t.Error(diff)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected sync groups (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		want    Environment
		wantErr string
	}{
		{name: "staging", input: "staging", want: Staging},
		{name: "production", input: "production", want: Production},
		{name: "mixed_case", input: " Production ", want: Production},
		{name: "unknown", input: "qa", wantErr: "unknown environment"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEnvironment(tc.input)
			if diff := testutil.DiffErrString(err, tc.wantErr); diff != "" {
				t.Error(diff)
			}
			if err != nil {
				return
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSyncGroup_TargetID(t *testing.T) {
	t.Parallel()

	group := &SyncGroup{Name: "A", TargetIDs: [2]int64{10, 20}}
	if got, want := group.TargetID(Staging), int64(10); got != want {
		t.Errorf("staging target id: got %d, want %d", got, want)
	}
	if got, want := group.TargetID(Production), int64(20); got != want {
		t.Errorf("production target id: got %d, want %d", got, want)
	}
	if got := group.TargetID(Environment(7)); got != 0 {
		t.Errorf("out of range environment: got %d, want 0", got)
	}
}
