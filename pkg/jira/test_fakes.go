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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/abcxyz/desk-link/pkg/credentials"
)

// fakeJiraData is the serving state for a fake jira server.
type fakeJiraData struct {
	mutex sync.Mutex

	// groupPages maps group name -> startAt -> the page to serve for that
	// offset. Offsets without a page return a 404.
	groupPages map[string]map[int]*membersPage

	// failMemberCalls makes the member listing return a 500 for the given
	// startAt offsets, per group.
	failMemberCalls map[string]map[int]struct{}

	// memberCalls records the startAt of every member listing call, per
	// group.
	memberCalls map[string][]int

	// orgUsers records every usernames chunk accepted per organization ID.
	orgUsers map[string][][]string

	// failOrgCalls makes the nth (zero based) user write fail, per
	// organization ID.
	failOrgCalls map[string]map[int]struct{}

	// orgCalls counts user writes per organization ID.
	orgCalls map[string]int

	// lastHeaders captures the headers of the most recent request.
	lastHeaders http.Header
}

func fakeJira(data *fakeJiraData) *httptest.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /rest/api/2/group/member", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data.mutex.Lock()
		defer data.mutex.Unlock()
		data.lastHeaders = r.Header.Clone()
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(500)
			fmt.Fprintf(w, "missing basic auth")
			return
		}
		groupName := r.URL.Query().Get("groupname")
		startAt, err := strconv.Atoi(r.URL.Query().Get("startAt"))
		if err != nil {
			w.WriteHeader(400)
			fmt.Fprintf(w, "malformed startAt")
			return
		}
		if data.memberCalls == nil {
			data.memberCalls = make(map[string][]int)
		}
		data.memberCalls[groupName] = append(data.memberCalls[groupName], startAt)
		if offsets, ok := data.failMemberCalls[groupName]; ok {
			if _, ok := offsets[startAt]; ok {
				w.WriteHeader(500)
				fmt.Fprintf(w, "injected failure")
				return
			}
		}
		page, ok := data.groupPages[groupName][startAt]
		if !ok {
			w.WriteHeader(404)
			fmt.Fprintf(w, "no page at offset %d", startAt)
			return
		}
		jsn, err := json.Marshal(page)
		if err != nil {
			w.WriteHeader(500)
			fmt.Fprintf(w, "failed to marshal page")
			return
		}
		_, err = w.Write(jsn)
		if err != nil {
			return
		}
	}))
	mux.Handle("POST /rest/servicedeskapi/organization/{org_id}/user", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data.mutex.Lock()
		defer data.mutex.Unlock()
		data.lastHeaders = r.Header.Clone()
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(500)
			fmt.Fprintf(w, "missing basic auth")
			return
		}
		orgID := r.PathValue("org_id")
		var req addUsersRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(400)
			fmt.Fprintf(w, "malformed body")
			return
		}
		if data.orgCalls == nil {
			data.orgCalls = make(map[string]int)
		}
		call := data.orgCalls[orgID]
		data.orgCalls[orgID] = call + 1
		if calls, ok := data.failOrgCalls[orgID]; ok {
			if _, ok := calls[call]; ok {
				w.WriteHeader(500)
				fmt.Fprintf(w, "injected failure")
				return
			}
		}
		if data.orgUsers == nil {
			data.orgUsers = make(map[string][][]string)
		}
		data.orgUsers[orgID] = append(data.orgUsers[orgID], req.Usernames)
		w.WriteHeader(204)
	}))
	return httptest.NewServer(mux)
}

func testClient(server *httptest.Server) *Client {
	return NewClient(server.URL, credentials.Credential{Username: "sync-bot", Secret: "hunter2"})
}

// page builds a membersPage from usernames.
func page(isLast bool, names ...string) *membersPage {
	values := make([]memberValue, 0, len(names))
	for _, name := range names {
		values = append(values, memberValue{Name: name})
	}
	return &membersPage{Values: values, IsLast: isLast}
}

// userRange returns the usernames user<from>..user<to>, inclusive.
func userRange(from, to int) []string {
	names := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		names = append(names, fmt.Sprintf("user%03d", i))
	}
	return names
}
