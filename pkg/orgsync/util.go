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
	"runtime"
	"sync"

	"github.com/abcxyz/pkg/logging"
)

// collectConcurrent runs fetch over the given group names concurrently and
// returns the per-group results in input order. Fetch errors are logged
// and leave a nil result for that group. The level of concurrency is based
// on the value of runtime.NumCPU.
func collectConcurrent(ctx context.Context, names []string, fetch func(context.Context, string) ([]string, error)) [][]string {
	logger := logging.FromContext(ctx)

	results := make([][]string, len(names))
	indexes := make(chan int, len(names))
	for i := range names {
		indexes <- i
	}
	close(indexes)

	workers := runtime.NumCPU()
	if workers > len(names) {
		workers = len(names)
	}
	waitGroup := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for idx := range indexes {
				members, err := fetch(ctx, names[idx])
				if err != nil {
					logger.WarnContext(ctx, "failed to list group members, skipping group",
						"source_group", names[idx],
						"error", err,
					)
					continue
				}
				results[idx] = members
			}
		}()
	}
	waitGroup.Wait()
	return results
}
