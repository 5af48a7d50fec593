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
	"sync"
)

type testMemberLister struct {
	mutex   sync.Mutex
	members map[string][]string
	errs    map[string]error
	calls   []string
}

func (l *testMemberLister) ListGroupMembers(ctx context.Context, groupName string) ([]string, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.calls = append(l.calls, groupName)
	if err, ok := l.errs[groupName]; ok {
		return nil, err
	}
	return l.members[groupName], nil
}

type testOrgWriter struct {
	mutex  sync.Mutex
	errs   map[int64]error
	pushes map[int64][][]string
}

func (w *testOrgWriter) AddUsers(ctx context.Context, orgID int64, usernames []string) (*PushReport, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if err, ok := w.errs[orgID]; ok {
		return nil, err
	}
	if w.pushes == nil {
		w.pushes = make(map[int64][][]string)
	}
	w.pushes[orgID] = append(w.pushes[orgID], usernames)
	return &PushReport{Attempted: len(usernames), Pushed: len(usernames)}, nil
}
